package testutil

import (
	"bytes"
	"mime/multipart"
	"sort"
)

// Multipart encodes fields and files as a multipart/form-data body. Each file
// is sent with its form name plus ".pdf" as the filename. Writes to the
// in-memory buffer cannot fail, so errors are not returned.
func Multipart(fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, k := range sortedKeys(fields) {
		_ = w.WriteField(k, fields[k])
	}
	names := make([]string, 0, len(files))
	for k := range files {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		part, _ := w.CreateFormFile(name, name+".pdf")
		_, _ = part.Write(files[name])
	}
	_ = w.Close()
	return body, w.FormDataContentType()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LessonFiles returns the three source uploads as one-line PDFs.
func LessonFiles(guide, book, scheme string) map[string][]byte {
	return map[string][]byte{
		"teacherGuide": PDF(guide),
		"studentBook":  PDF(book),
		"scheme":       PDF(scheme),
	}
}
