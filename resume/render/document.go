package render

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

const documentPart = "word/document.xml"

// zipEpoch is stamped on every entry so re-packing the same tree is byte-stable.
var zipEpoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// ErrNotDOCX is returned for inputs that are not a WordprocessingML package.
var ErrNotDOCX = errors.New("template is not a docx package")

type zipPart struct {
	name string
	data []byte
}

// Document is a parsed DOCX package: the main document tree plus every other
// part kept as raw bytes in original order.
type Document struct {
	parts     []zipPart
	root      *xmlNode
	header    string
	rootStart string
	rootEnd   string
}

// LoadDocument parses DOCX bytes.
func LoadDocument(data []byte) (*Document, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotDOCX, err)
	}

	doc := &Document{}
	found := false
	for _, file := range reader.File {
		name := normalizeZipName(file.Name)
		if strings.HasSuffix(name, "/") {
			continue
		}
		content, err := readZipFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if name == documentPart {
			found = true
			if err := doc.parseMain(string(content)); err != nil {
				return nil, fmt.Errorf("parse %s: %w", name, err)
			}
		}
		doc.parts = append(doc.parts, zipPart{name: name, data: content})
	}
	if !found {
		return nil, fmt.Errorf("%w: %s missing", ErrNotDOCX, documentPart)
	}
	return doc, nil
}

func (d *Document) parseMain(xmlText string) error {
	rootStart, rootEnd, err := extractRootTags(xmlText)
	if err != nil {
		return err
	}
	root, header, err := parseXMLDocument(xmlText)
	if err != nil {
		return err
	}
	if findBodyNode(root) == nil {
		return errors.New("w:body not found")
	}
	d.root, d.header, d.rootStart, d.rootEnd = root, header, rootStart, rootEnd
	return nil
}

// Clone returns an independent copy; batch tasks each mutate their own.
func (d *Document) Clone() *Document {
	parts := make([]zipPart, len(d.parts))
	copy(parts, d.parts)
	return &Document{
		parts:     parts,
		root:      cloneNode(d.root),
		header:    d.header,
		rootStart: d.rootStart,
		rootEnd:   d.rootEnd,
	}
}

// Bytes re-packs the package. Entry order, timestamps and compression are
// fixed, so an unchanged tree always yields identical bytes.
func (d *Document) Bytes() ([]byte, error) {
	mainXML, err := encodeXMLDocument(d.header, d.root, d.rootStart, d.rootEnd)
	if err != nil {
		return nil, err
	}
	if err := validateDocumentStructure(mainXML); err != nil {
		return nil, err
	}

	var output bytes.Buffer
	writer := zip.NewWriter(&output)
	for _, part := range d.parts {
		content := part.data
		if part.name == documentPart {
			content = mainXML
		}
		header := &zip.FileHeader{Name: part.name, Method: zip.Deflate, Modified: zipEpoch}
		dst, err := writer.CreateHeader(header)
		if err != nil {
			return nil, err
		}
		if _, err := dst.Write(content); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return output.Bytes(), nil
}

// Paragraphs returns every paragraph in document order, table cells included.
func (d *Document) Paragraphs() []*Paragraph {
	var out []*Paragraph
	inspectXML(findBodyNode(d.root), func(n *xmlNode) bool {
		if isElement(n, "p") {
			out = append(out, &Paragraph{node: n})
			return false
		}
		return true
	})
	return out
}

// Text returns the visible text of the document, one paragraph per line.
func (d *Document) Text() string {
	paragraphs := d.Paragraphs()
	lines := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		lines = append(lines, p.Text())
	}
	return strings.Join(lines, "\n")
}

func (d *Document) body() *xmlNode {
	return findBodyNode(d.root)
}

// Paragraph is a handle on one w:p element of a loaded document.
type Paragraph struct {
	node *xmlNode
}

// Text returns the paragraph's visible text; tabs are rendered as "\t".
func (p *Paragraph) Text() string {
	return paragraphText(p.node)
}

func readZipFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func normalizeZipName(name string) string {
	return strings.ReplaceAll(name, "\\", "/")
}

// validateDocumentStructure rejects output Word would refuse to open: nested
// paragraphs, or run properties after run text.
func validateDocumentStructure(xmlText []byte) error {
	var failure error
	var check func(n *xmlNode, inParagraph bool)
	check = func(n *xmlNode, inParagraph bool) {
		if failure != nil || n.IsText {
			return
		}
		if isElement(n, "p") {
			if inParagraph {
				failure = errors.New("document.xml has nested <w:p>")
				return
			}
			inParagraph = true
		}
		if isElement(n, "r") {
			seenText := false
			for _, child := range n.Children {
				if isElement(child, "t") || isElement(child, "tab") {
					seenText = true
				}
				if isElement(child, "rPr") && seenText {
					failure = errors.New("document.xml has <w:rPr> after run content")
					return
				}
			}
		}
		for _, child := range n.Children {
			check(child, inParagraph)
		}
	}
	root, _, err := parseXMLDocument(string(xmlText))
	if err != nil {
		return fmt.Errorf("document.xml parse failed: %w", err)
	}
	check(root, false)
	return failure
}
