package export

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

const sample = "**Speaker 1:** Hi\n\n**Speaker 2:** Bye"

func TestRenderText(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		format Format
		want   string
	}{
		{"plain keeps blocks", sample, Plain, sample + "\n"},
		{"plain crlf", "a\r\nb", Plain, "a\nb\n"},
		{"markdown paragraphs", sample, Markdown, "**Speaker 1:** Hi\n\n**Speaker 2:** Bye\n"},
		{"markdown single breaks become paragraphs", "line one\nline two", Markdown, "line one\n\nline two\n"},
		{"empty", "  \n", Markdown, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Render(tc.doc, tc.format)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if string(got) != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func readPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("not a zip: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		defer rc.Close()
		b, _ := io.ReadAll(rc)
		return string(b)
	}
	t.Fatalf("part %s missing", name)
	return ""
}

func TestRenderDOCX(t *testing.T) {
	now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { now = time.Now })

	out, err := Render(sample+"\nA & <b>", DOCX)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	readPart(t, out, "[Content_Types].xml")
	readPart(t, out, "_rels/.rels")
	if core := readPart(t, out, "docProps/core.xml"); !strings.Contains(core, "2026-03-01T09:30:00Z") {
		t.Errorf("core props = %s", core)
	}

	doc := readPart(t, out, "word/document.xml")
	if n := strings.Count(doc, "<w:p>"); n != 3 {
		t.Errorf("paragraphs = %d, want 3\n%s", n, doc)
	}
	if !strings.Contains(doc, "<w:b></w:b></w:rPr><w:t>Speaker 1:</w:t>") {
		t.Errorf("speaker label should be bold:\n%s", doc)
	}
	if !strings.Contains(doc, `<w:t xml:space="preserve"> Bye</w:t>`) {
		t.Errorf("missing body run:\n%s", doc)
	}
	if !strings.Contains(doc, "A &amp; &lt;b&gt;") {
		t.Errorf("text should be escaped:\n%s", doc)
	}
}

func TestRenderUnsupported(t *testing.T) {
	out, err := Render(sample, Format("pdf"))
	var ufe *UnsupportedFormatError
	if !errors.As(err, &ufe) || ufe.Format != "pdf" || out != nil {
		t.Errorf("out = %q, err = %v", out, err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", Plain, false},
		{"plain", Plain, false},
		{"Markdown", Markdown, false},
		{" docx ", DOCX, false},
		{"rtf", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseFormat(tc.in)
			if (err != nil) != tc.wantErr || got != tc.want {
				t.Errorf("ParseFormat(%q) = %q, %v", tc.in, got, err)
			}
		})
	}
}

func TestAttachmentMetadata(t *testing.T) {
	if got := Filename("abc", DOCX); got != "transcript-abc.docx" {
		t.Errorf("Filename = %q", got)
	}
	if got := Filename("abc", Markdown); got != "transcript-abc.md" {
		t.Errorf("Filename = %q", got)
	}
	if MediaType(Plain) != "text/plain; charset=utf-8" {
		t.Errorf("MediaType(plain) = %q", MediaType(Plain))
	}
}

func TestRenderErrorUnwraps(t *testing.T) {
	cause := errors.New("zip failed")
	err := error(&RenderError{Format: DOCX, Err: cause})
	if !errors.Is(err, cause) || !strings.Contains(err.Error(), "docx") {
		t.Errorf("err = %v", err)
	}
}
