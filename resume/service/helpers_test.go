package service

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	documentStart = `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`
	contentTypes  = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`
)

func docx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := map[string]string{
		"[Content_Types].xml": contentTypes,
		"word/document.xml":   documentStart + `<w:body>` + body + `<w:sectPr/></w:body></w:document>`,
	}
	for _, name := range []string{"[Content_Types].xml", "word/document.xml"} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(parts[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func para(text string) string {
	return `<w:p><w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

func heading(text string) string {
	return `<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:rPr><w:b/></w:rPr><w:t>` + text + `</w:t></w:r></w:p>`
}

func templateBody() string {
	return para("[Contact Information]") +
		heading("Professional Summary") +
		para("Sample summary text that will be replaced.") +
		heading("EXPERIENCE") +
		para("Sample Company 2010 - 2012") +
		para("Led sample projects") +
		heading("Education") +
		para("State College") +
		heading("Skills") +
		para("Sample skill")
}

const resumeText = `Jane Doe
jane@example.com | (555) 123-4567 | Boston, MA
Professional Summary
Engineer with 10 years of experience.
Experience
Acme Corp
Senior Engineer | Jan 2019 - Present
• Built billing pipeline
Education
BS Computer Science, State University, 2015
Skills
Go, SQL, Docker
`
