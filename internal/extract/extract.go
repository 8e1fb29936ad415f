package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"resume-formatter/internal/shared/storage/object"
	"resume-formatter/resume/model"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeText = "text/plain"
)

// ErrUnsupportedType is wrapped into ErrExtraction for inputs of an unknown kind.
var ErrUnsupportedType = errors.New("unsupported mime type")

// RawLineExtractor turns a resume file into lines in reading order.
type RawLineExtractor interface {
	Extract(ctx context.Context, data []byte, mimeType string, fileName string) ([]model.RawLine, error)
}

// LineStyle is attached to DOCX lines as their SourceStyle.
type LineStyle struct {
	StyleID string `json:"styleId,omitempty"`
	Bold    bool   `json:"bold,omitempty"`
}

var headingStyleRe = regexp.MustCompile(`(?i)heading|title`)

// Emphasized reports a heading paragraph style or an all-bold paragraph.
func (s LineStyle) Emphasized() bool {
	return s.Bold || headingStyleRe.MatchString(s.StyleID)
}

// Extractor reads PDF (github.com/ledongthuc/pdf), DOCX and plain text.
type Extractor struct{}

// New returns the reference extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns the non-empty lines of data. Any failure is an ErrExtraction.
func (e *Extractor) Extract(ctx context.Context, data []byte, mimeType string, fileName string) ([]model.RawLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lines, err := extractLines(data, normalizeMimeType(mimeType, fileName, data))
	if err != nil {
		return nil, model.ErrExtraction{File: fileName, Err: err}
	}
	return lines, nil
}

// ExtractObject reads key from store and extracts it.
func (e *Extractor) ExtractObject(ctx context.Context, store object.ObjectStore, key string, mimeType string) ([]model.RawLine, error) {
	body, err := store.Open(ctx, key)
	if err != nil {
		return nil, model.ErrExtraction{File: key, Err: err}
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, model.ErrExtraction{File: key, Err: fmt.Errorf("read: %w", err)}
	}
	return e.Extract(ctx, raw, mimeType, key)
}

func extractLines(data []byte, mimeType string) ([]model.RawLine, error) {
	switch mimeType {
	case mimePDF:
		text, err := extractPDF(data)
		if err != nil {
			return nil, err
		}
		return textLines(text), nil
	case mimeDOCX:
		return extractDOCX(data)
	case mimeText:
		if !utf8.Valid(data) {
			return nil, errors.New("text input is not valid utf-8")
		}
		return textLines(string(data)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}
}

func textLines(text string) []model.RawLine {
	var lines []model.RawLine
	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		lines = append(lines, model.RawLine{Text: strings.TrimRight(raw, " \t"), Ordinal: len(lines)})
	}
	return lines
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) ([]model.RawLine, error) {
	if len(data) == 0 {
		return nil, errors.New("empty docx data")
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, errors.New("document.xml file not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return docxLines(rc)
}

// docxLines streams document.xml and emits one line per paragraph, with the
// paragraph style and whether every text run is bold.
func docxLines(r io.Reader) ([]model.RawLine, error) {
	decoder := xml.NewDecoder(r)

	var (
		lines     []model.RawLine
		text      strings.Builder
		style     LineStyle
		runs      int
		boldRuns  int
		inText    bool
		inRunProp bool
		inParaPr  bool
		runBold   bool
		runHasTxt bool
		depth     int
	)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				depth++
				if depth == 1 {
					text.Reset()
					style = LineStyle{}
					runs, boldRuns = 0, 0
				}
			case "pPr":
				inParaPr = true
			case "pStyle":
				style.StyleID = attr(t, "val")
			case "r":
				runBold, runHasTxt = false, false
			case "rPr":
				inRunProp = true
			case "b":
				if inRunProp && attr(t, "val") != "0" && attr(t, "val") != "false" {
					runBold = true
				}
			case "t":
				inText = true
				runHasTxt = true
			case "tab":
				if !inParaPr {
					text.WriteByte('\t')
				}
			case "br", "cr":
				text.WriteByte(' ')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				depth--
				if depth == 0 {
					if line := strings.TrimSpace(text.String()); line != "" {
						style.Bold = runs > 0 && runs == boldRuns
						lines = append(lines, model.RawLine{Text: line, Ordinal: len(lines), SourceStyle: style})
					}
				}
			case "r":
				if runHasTxt {
					runs++
					if runBold {
						boldRuns++
					}
				}
			case "pPr":
				inParaPr = false
			case "rPr":
				inRunProp = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				text.Write(t)
			}
		}
	}
	return lines, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func normalizeMimeType(mimeType string, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch clean {
	case "", "application/octet-stream":
		return mimeFromExtension(fileName, clean)
	case "application/zip":
		if mapped := mapOOXMLFromZip(data); mapped != "" {
			return mapped
		}
		return mimeFromExtension(fileName, clean)
	}
	return clean
}

func mimeFromExtension(fileName string, fallback string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".docx":
		return mimeDOCX
	case ".pdf":
		return mimePDF
	case ".txt":
		return mimeText
	default:
		return fallback
	}
}

func mapOOXMLFromZip(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return mimeDOCX
		}
	}
	return ""
}
