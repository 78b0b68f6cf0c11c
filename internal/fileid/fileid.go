// Package fileid generates collision-free names for files written to the content store.
package fileid

import (
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// now is replaced in tests.
var now = time.Now

// New returns "<prefix>-<unixnano>-<uuid>". The timestamp keeps names sortable
// by creation time; the random UUID keeps them unique when two calls share a
// timestamp, within or across processes.
func New(prefix string) string {
	prefix = Sanitize(prefix)
	if prefix == "" {
		prefix = "file"
	}
	return prefix + "-" + strconv.FormatInt(now().UnixNano(), 10) + "-" + uuid.NewString()
}

// SourceKey returns the content-store key for an uploaded source file,
// keeping the upload's extension (lowercased) when it has one.
func SourceKey(field, filename string) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(filename, "\\", "/")))
	if Sanitize(ext) != strings.TrimPrefix(ext, ".") {
		ext = ""
	}
	return "sources/" + New(field) + ext
}

// Sanitize lowercases s and keeps only [a-z0-9-], mapping other runs to a single '-'.
func Sanitize(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
