package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"strings"
	"time"
)

const (
	contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>
</Types>`

	packageRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>
</Relationships>`

	wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

// WordprocessingML subset: a body of paragraphs made of text runs.
type wDocument struct {
	XMLName xml.Name `xml:"w:document"`
	NS      string   `xml:"xmlns:w,attr"`
	Body    wBody    `xml:"w:body"`
}

type wBody struct {
	Paragraphs []wParagraph `xml:"w:p"`
}

type wParagraph struct {
	Runs []wRun `xml:"w:r"`
}

type wRun struct {
	Props *wRunProps `xml:"w:rPr,omitempty"`
	Text  wText      `xml:"w:t"`
}

type wRunProps struct {
	Bold *struct{} `xml:"w:b"`
}

type wText struct {
	Space string `xml:"xml:space,attr,omitempty"`
	Value string `xml:",chardata"`
}

type coreProps struct {
	XMLName  xml.Name `xml:"cp:coreProperties"`
	CP       string   `xml:"xmlns:cp,attr"`
	DC       string   `xml:"xmlns:dc,attr"`
	DCTerms  string   `xml:"xmlns:dcterms,attr"`
	XSI      string   `xml:"xmlns:xsi,attr"`
	Title    string   `xml:"dc:title"`
	Creator  string   `xml:"dc:creator"`
	Created  w3cdtf   `xml:"dcterms:created"`
	Modified w3cdtf   `xml:"dcterms:modified"`
}

type w3cdtf struct {
	Type  string `xml:"xsi:type,attr"`
	Value string `xml:",chardata"`
}

// now is replaced in tests.
var now = time.Now

func renderDOCX(doc string) ([]byte, error) {
	body := wBody{}
	for _, line := range paragraphs(doc) {
		body.Paragraphs = append(body.Paragraphs, wParagraph{Runs: runs(line)})
	}
	document, err := marshalPart(wDocument{NS: wordNS, Body: body})
	if err != nil {
		return nil, err
	}

	stamp := w3cdtf{Type: "dcterms:W3CDTF", Value: now().UTC().Format(time.RFC3339)}
	core, err := marshalPart(coreProps{
		CP:       "http://schemas.openxmlformats.org/package/2006/metadata/core-properties",
		DC:       "http://purl.org/dc/elements/1.1/",
		DCTerms:  "http://purl.org/dc/terms/",
		XSI:      "http://www.w3.org/2001/XMLSchema-instance",
		Title:    "Transcript",
		Creator:  "verbatim",
		Created:  stamp,
		Modified: stamp,
	})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(contentTypes)},
		{"_rels/.rels", []byte(packageRels)},
		{"docProps/core.xml", core},
		{"word/document.xml", document},
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(p.data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalPart(v any) ([]byte, error) {
	out, err := xml.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// runs turns a leading "**label**" into a bold run followed by the rest of
// the line, so speaker labels keep their emphasis.
func runs(line string) []wRun {
	if strings.HasPrefix(line, "**") {
		if end := strings.Index(line[2:], "**"); end > 0 {
			label := line[2 : 2+end]
			rest := line[2+end+2:]
			out := []wRun{{Props: &wRunProps{Bold: &struct{}{}}, Text: wText{Value: label}}}
			if rest != "" {
				out = append(out, wRun{Text: wText{Space: "preserve", Value: rest}})
			}
			return out
		}
	}
	return []wRun{{Text: wText{Space: "preserve", Value: line}}}
}
