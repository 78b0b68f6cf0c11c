package render

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// A4 portrait in points, with Helvetica 12pt on a fixed grid.
const (
	pageHeight   = 842.0
	margin       = 56.0
	fontName     = "Helvetica"
	fontSize     = 12
	lineHeight   = 15.0
	charsPerLine = 78
	linesPerPage = 48
)

var (
	disableConfigDir sync.Once
	// pdfcpu keeps font and configuration state at package level.
	createMu sync.Mutex
)

type pdfFont struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

type pdfText struct {
	Value string     `json:"value"`
	Pos   [2]float64 `json:"pos"`
	Font  pdfFont    `json:"font"`
}

type pdfContent struct {
	Text []pdfText `json:"text"`
}

type pdfPage struct {
	Content pdfContent `json:"content"`
}

type pdfDocument struct {
	Paper string             `json:"paper"`
	Pages map[string]pdfPage `json:"pages"`
}

// encodePDF lays text out on A4 pages and returns the PDF bytes.
func encodePDF(text string) ([]byte, error) {
	disableConfigDir.Do(api.DisableConfigDir)

	lines := wrapLines(sanitizeWinAnsi(text), charsPerLine)
	doc := pdfDocument{Paper: "A4P", Pages: make(map[string]pdfPage)}
	for start := 0; start < len(lines); start += linesPerPage {
		end := min(start+linesPerPage, len(lines))
		var page pdfPage
		for i, line := range lines[start:end] {
			if strings.TrimSpace(line) == "" {
				continue
			}
			page.Content.Text = append(page.Content.Text, pdfText{
				Value: line,
				Pos:   [2]float64{margin, pageHeight - margin - float64(i+1)*lineHeight},
				Font:  pdfFont{Name: fontName, Size: fontSize},
			})
		}
		if len(page.Content.Text) == 0 {
			continue
		}
		doc.Pages[strconv.Itoa(len(doc.Pages)+1)] = page
	}

	spec, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	createMu.Lock()
	defer createMu.Unlock()
	if err := api.Create(nil, bytes.NewReader(spec), &buf, model.NewDefaultConfiguration()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// wrapLines splits text into lines of at most width runes, breaking at spaces
// where possible. Blank input lines are kept so paragraph spacing survives.
func wrapLines(text string, width int) []string {
	var out []string
	for _, line := range strings.Split(normalizeNewlines(text), "\n") {
		line = strings.TrimRight(line, " ")
		if line == "" {
			out = append(out, "")
			continue
		}
		for len([]rune(line)) > width {
			r := []rune(line)
			cut := width
			for i := width; i > 0; i-- {
				if r[i] == ' ' {
					cut = i
					break
				}
			}
			out = append(out, strings.TrimRight(string(r[:cut]), " "))
			line = strings.TrimLeft(string(r[cut:]), " ")
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

var typographic = strings.NewReplacer(
	"\u2018", "'", "\u2019", "'", "\u201a", "'",
	"\u201c", `"`, "\u201d", `"`, "\u201e", `"`,
	"\u2013", "-", "\u2014", "-", "\u2212", "-",
	"\u2026", "...", "\u2022", "*", "\u00a0", " ",
	"\t", "    ",
)

// sanitizeWinAnsi maps text onto what the standard Helvetica encoding can show.
// Printable ASCII and Latin-1 pass through, common typographic marks become
// ASCII, and anything else becomes '?'.
func sanitizeWinAnsi(s string) string {
	s = typographic.Replace(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		case r < 0x7f:
			return r
		case r >= 0xa1 && r <= 0xff:
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return '?'
		}
	}, s)
}
