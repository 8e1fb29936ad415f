package render

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"resume-formatter/resume/model"
)

const testDocumentStart = `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">`

const testContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const testRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	documentXML := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		testDocumentStart + `<w:body>` + body +
		`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/></w:sectPr></w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", testContentTypes},
		{"_rels/.rels", testRels},
		{"word/document.xml", documentXML},
	}
	for _, file := range files {
		w, err := zw.Create(file.name)
		if err != nil {
			t.Fatalf("create %s: %v", file.name, err)
		}
		if _, err := w.Write([]byte(file.content)); err != nil {
			t.Fatalf("write %s: %v", file.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func loadDocx(t *testing.T, body string) *Document {
	t.Helper()
	doc, err := LoadDocument(buildDocx(t, body))
	if err != nil {
		t.Fatalf("load document: %v", err)
	}
	return doc
}

func plainPara(text string) string {
	return `<w:p><w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

func headingPara(text string) string {
	return `<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:rPr><w:b/></w:rPr><w:t>` + text + `</w:t></w:r></w:p>`
}

func styledPara(text string) string {
	return `<w:p><w:pPr><w:spacing w:after="120"/><w:jc w:val="center"/></w:pPr>` +
		`<w:r><w:rPr><w:rFonts w:ascii="Garamond" w:hAnsi="Garamond"/><w:color w:val="333333"/><w:sz w:val="22"/></w:rPr>` +
		`<w:t>` + text + `</w:t></w:r></w:p>`
}

func numberedPara(text string) string {
	return `<w:p><w:pPr><w:pStyle w:val="ListParagraph"/><w:numPr><w:ilvl w:val="0"/><w:numId w:val="3"/></w:numPr></w:pPr>` +
		`<w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

func findParagraph(t *testing.T, doc *Document, contains string) *Paragraph {
	t.Helper()
	for _, p := range doc.Paragraphs() {
		if strings.Contains(p.Text(), contains) {
			return p
		}
	}
	t.Fatalf("no paragraph contains %q in:\n%s", contains, doc.Text())
	return nil
}

func sampleResume() model.StructuredResume {
	return model.StructuredResume{
		Contact: model.ContactInfo{Name: "Jane Doe", Email: "jane@example.com", Phone: "555-123-4567"},
		Summary: "Field engineer with ten years of fiber deployment experience.",
		Experience: []model.ExperienceEntry{
			{
				Company:   "Acme Fiber",
				Role:      "Field Engineer",
				DateRange: "Jan 2019 - Present",
				Bullets:   []string{"Managed splicing crews", "Maintained OTDR records"},
			},
			{
				Company:   "Beta Telecom",
				Role:      "Technician",
				DateRange: "2015 - 2018",
				Bullets:   []string{"Installed service drops"},
			},
		},
		Education: []model.EducationEntry{
			{Degree: "BS Electrical Engineering", Institution: "State University", Year: "2014"},
		},
		Skills: []model.SkillStatement{
			{Text: "Excel", YearsUsed: "10+ years", LastUsed: "2026"},
			{Text: "GIS mapping", YearsUsed: "4 years", LastUsed: "2025"},
		},
	}
}

func fullTemplate() string {
	return plainPara("[Contact Information]") +
		headingPara("Professional Summary") +
		styledPara("Sample summary text that will be replaced.") +
		headingPara("EXPERIENCE") +
		plainPara("Sample Company 2010 - 2012") +
		numberedPara("Led sample projects") +
		`<w:p/>` +
		headingPara("Education") +
		plainPara("State College") +
		headingPara("Skills") +
		plainPara("Sample skill")
}

func mutateBytes(t *testing.T, data []byte, resume model.StructuredResume) ([]byte, MutationResult) {
	t.Helper()
	doc, err := LoadDocument(data)
	if err != nil {
		t.Fatalf("load document: %v", err)
	}
	state := model.NewInsertionState()
	result, err := Mutate(context.Background(), doc, resume, &state, Options{})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	return out, result
}
