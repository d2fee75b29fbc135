// Package export renders transcript documents for download.
//
// Documents use the canonical line break of package transcript. Each
// renderer maps it to its own paragraph convention: plain text keeps
// newlines, markdown separates paragraphs with a blank line and docx emits
// one paragraph per line.
package export

import (
	"fmt"
	"strings"
)

// Format names an export format.
type Format string

const (
	Plain    Format = "plain"
	Markdown Format = "markdown"
	DOCX     Format = "docx"
)

// Formats lists the supported formats.
var Formats = []Format{Plain, Markdown, DOCX}

type formatInfo struct {
	mediaType string
	ext       string
	render    func(doc string) ([]byte, error)
}

var formats = map[Format]formatInfo{
	Plain:    {"text/plain; charset=utf-8", "txt", renderPlain},
	Markdown: {"text/markdown; charset=utf-8", "md", renderMarkdown},
	DOCX:     {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "docx", renderDOCX},
}

// UnsupportedFormatError is returned for a format outside Formats.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported export format %q", e.Format)
}

// RenderError wraps a failure while building document bytes.
type RenderError struct {
	Format Format
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Format, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// ParseFormat resolves a format name, case-insensitively. The empty string
// selects Plain.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if f == "" {
		return Plain, nil
	}
	if _, ok := formats[f]; !ok {
		return "", &UnsupportedFormatError{Format: name}
	}
	return f, nil
}

// Render converts doc to format f. It never returns partial output: on
// error the byte slice is nil.
func Render(doc string, f Format) ([]byte, error) {
	s, ok := formats[f]
	if !ok {
		return nil, &UnsupportedFormatError{Format: string(f)}
	}
	out, err := s.render(doc)
	if err != nil {
		return nil, &RenderError{Format: f, Err: err}
	}
	return out, nil
}

// MediaType returns the Content-Type for f.
func MediaType(f Format) string { return formats[f].mediaType }

// Extension returns the file extension for f, without the dot.
func Extension(f Format) string { return formats[f].ext }

// Filename is the attachment name for job id exported as f.
func Filename(id string, f Format) string {
	return "transcript-" + id + "." + Extension(f)
}

// paragraphs splits doc on line breaks and drops blank lines.
func paragraphs(doc string) []string {
	doc = strings.ReplaceAll(doc, "\r\n", "\n")
	var out []string
	for _, line := range strings.Split(doc, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func renderPlain(doc string) ([]byte, error) {
	doc = strings.TrimSpace(strings.ReplaceAll(doc, "\r\n", "\n"))
	if doc == "" {
		return []byte{}, nil
	}
	return []byte(doc + "\n"), nil
}

func renderMarkdown(doc string) ([]byte, error) {
	paras := paragraphs(doc)
	if len(paras) == 0 {
		return []byte{}, nil
	}
	return []byte(strings.Join(paras, "\n\n") + "\n"), nil
}
