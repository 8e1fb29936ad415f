package render

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"reflect"
	"testing"

	"resume-formatter/resume/model"
)

func childNames(node *xmlNode) []string {
	var names []string
	for _, child := range node.Children {
		if !child.IsText {
			names = append(names, child.Name.Local)
		}
	}
	return names
}

func TestApplyThenCaptureRoundTrip(t *testing.T) {
	doc := loadDocx(t, plainPara("Body text"))
	p := doc.Paragraphs()[0]

	snap := model.StyleSnapshot{
		Alignment:    "both",
		StyleID:      "BodyText",
		SpacingAfter: 120,
		Indent:       model.Indent{Left: 720},
		FontFamily:   "Arial",
		FontSize:     20,
		Color:        "FF0000",
		Bold:         true,
	}
	Apply(p, snap)

	got, err := Capture(p)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	want := snap
	want.Runs = []model.RunStyle{snap.PrimaryRun()}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}

	if names := childNames(childElement(p.node, "pPr")); !reflect.DeepEqual(names, []string{"pStyle", "spacing", "ind", "jc"}) {
		t.Fatalf("unexpected pPr order: %v", names)
	}
	run := textRuns(p.node)[0]
	if names := childNames(childElement(run, "rPr")); !reflect.DeepEqual(names, []string{"rFonts", "b", "color", "sz"}) {
		t.Fatalf("unexpected rPr order: %v", names)
	}
}

func TestApplyLeavesMatchingPropertiesUntouched(t *testing.T) {
	doc := loadDocx(t, styledPara("Styled"))
	before, err := doc.Bytes()
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}

	p := doc.Paragraphs()[0]
	snap, err := Capture(p)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	Apply(p, snap)

	after, err := doc.Bytes()
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Fatalf("expected applying a paragraph's own snapshot to change nothing")
	}
}

func TestApplyPositionalRunStyles(t *testing.T) {
	body := `<w:p><w:r><w:t>one</w:t></w:r><w:r><w:t>two</w:t></w:r></w:p>`
	p := loadDocx(t, body).Paragraphs()[0]
	Apply(p, model.StyleSnapshot{Runs: []model.RunStyle{{Bold: true}, {Italic: true}}})

	got, err := Capture(p)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if len(got.Runs) != 2 || !got.Runs[0].Bold || got.Runs[0].Italic || !got.Runs[1].Italic || got.Runs[1].Bold {
		t.Fatalf("expected positional run styles, got %+v", got.Runs)
	}
}

func TestCaptureFallsBackOnUnreadableValues(t *testing.T) {
	body := `<w:p><w:pPr><w:pStyle w:val="BodyText"/><w:spacing w:after="abc"/><w:jc w:val="center"/></w:pPr><w:r><w:t>x</w:t></w:r></w:p>`
	p := loadDocx(t, body).Paragraphs()[0]

	snap, err := Capture(p)
	if err == nil {
		t.Fatalf("expected capture error")
	}
	want := DefaultStyle()
	want.StyleID = "BodyText"
	if !reflect.DeepEqual(snap, want) {
		t.Fatalf("expected default style, got %+v", snap)
	}

	cache := NewCache()
	cache.Snapshot(p, 4)
	cache.Snapshot(p, 4)
	warnings := cache.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("expected one cached warning, got %v", warnings)
	}
	var capture model.ErrStyleCapture
	if !errors.As(warnings[0], &capture) || capture.Paragraph != 4 {
		t.Fatalf("expected ErrStyleCapture for paragraph 4, got %v", warnings[0])
	}
}

func TestCaptureReadsStrictIndentAndNumbering(t *testing.T) {
	body := `<w:p><w:pPr><w:numPr><w:ilvl w:val="1"/><w:numId w:val="7"/></w:numPr><w:ind w:start="360" w:hanging="180"/></w:pPr>` +
		`<w:r><w:rPr><w:rFonts w:cs="Calibri"/><w:u w:val="single"/><w:caps/></w:rPr><w:t>item</w:t></w:r></w:p>`
	snap, err := Capture(loadDocx(t, body).Paragraphs()[0])
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if snap.Indent.Left != 360 || snap.Indent.Hanging != 180 {
		t.Fatalf("unexpected indent: %+v", snap.Indent)
	}
	if snap.Numbering == nil || snap.Numbering.NumID != "7" || snap.Numbering.Level != "1" {
		t.Fatalf("unexpected numbering: %+v", snap.Numbering)
	}
	if snap.FontFamily != "Calibri" || snap.Underline != "single" || !snap.Caps {
		t.Fatalf("unexpected run style: %+v", snap.PrimaryRun())
	}
}

func TestTextReplacerKeepsStyle(t *testing.T) {
	doc := loadDocx(t, styledPara("Old text"))
	p := doc.Paragraphs()[0]
	before, _ := Capture(p)

	NewTextReplacer(nil).Replace(p, 0, []Run{{Text: "New"}, {Text: "2024", Tab: true, Italic: true}})

	if p.Text() != "New\t2024" {
		t.Fatalf("unexpected text %q", p.Text())
	}
	after, err := Capture(p)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if !after.SameAppearance(before) {
		t.Fatalf("expected appearance to survive, before %+v after %+v", before, after)
	}
	if len(after.Runs) != 2 || after.Runs[0].Italic || !after.Runs[1].Italic {
		t.Fatalf("expected italic only on second run, got %+v", after.Runs)
	}
}

func TestBytesAreDeterministic(t *testing.T) {
	doc := loadDocx(t, fullTemplate())
	first, err := doc.Bytes()
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	second, err := doc.Clone().Bytes()
	if err != nil {
		t.Fatalf("clone bytes: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("expected clone to serialize identically")
	}

	reloaded, err := LoadDocument(first)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	third, err := reloaded.Bytes()
	if err != nil {
		t.Fatalf("reload bytes: %v", err)
	}
	if !bytes.Equal(first, third) {
		t.Fatalf("expected reload to serialize identically")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	doc := loadDocx(t, fullTemplate())
	clone := doc.Clone()
	if _, err := Mutate(context.Background(), clone, sampleResume(), nil, Options{}); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if doc.Text() == clone.Text() {
		t.Fatalf("expected mutation of the clone to leave the original alone")
	}
}

func TestLoadDocumentRejectsNonDocx(t *testing.T) {
	if _, err := LoadDocument([]byte("not a zip")); !errors.Is(err, ErrNotDOCX) {
		t.Fatalf("expected ErrNotDOCX, got %v", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("readme.txt")
	_, _ = w.Write([]byte("hello"))
	_ = zw.Close()
	if _, err := LoadDocument(buf.Bytes()); !errors.Is(err, ErrNotDOCX) {
		t.Fatalf("expected ErrNotDOCX for zip without document part, got %v", err)
	}
}

func TestValidateDocumentStructure(t *testing.T) {
	nested := []byte(testDocumentStart + `<w:body><w:p><w:p/></w:p></w:body></w:document>`)
	if err := validateDocumentStructure(nested); err == nil {
		t.Fatalf("expected nested paragraph error")
	}
	late := []byte(testDocumentStart + `<w:body><w:p><w:r><w:t>x</w:t><w:rPr/></w:r></w:p></w:body></w:document>`)
	if err := validateDocumentStructure(late); err == nil {
		t.Fatalf("expected late rPr error")
	}
	ok := []byte(testDocumentStart + `<w:body><w:p><w:r><w:rPr/><w:t>x</w:t></w:r></w:p></w:body></w:document>`)
	if err := validateDocumentStructure(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
