package render

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"resume-formatter/resume/model"
)

func containsSection(sections []model.Section, want model.Section) bool {
	for _, s := range sections {
		if s == want {
			return true
		}
	}
	return false
}

func TestMutateFillsSectionsAtAnchors(t *testing.T) {
	out, result := mutateBytes(t, buildDocx(t, fullTemplate()), sampleResume())

	for _, section := range []model.Section{
		model.SectionContact,
		model.SectionSummary,
		model.SectionExperience,
		model.SectionEducation,
		model.SectionSkills,
	} {
		if !containsSection(result.Filled, section) {
			t.Fatalf("expected %s to be filled, got %v", section, result.Filled)
		}
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", result.Warnings)
	}

	doc, err := LoadDocument(out)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	text := doc.Text()
	for _, want := range []string{
		"Jane Doe",
		"jane@example.com | 555-123-4567",
		"Field engineer with ten years of fiber deployment experience.",
		"Acme Fiber\tJan 2019 - Present",
		"Field Engineer",
		"Managed splicing crews",
		"BS Electrical Engineering\t2014",
		"State University",
		"Excel",
		"Professional Summary",
		"EXPERIENCE",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, text)
		}
	}
	for _, gone := range []string{"[Contact Information]", "Sample summary text", "Sample Company", "Led sample projects", "State College", "Sample skill"} {
		if strings.Contains(text, gone) {
			t.Fatalf("expected template text %q to be cleared, got:\n%s", gone, text)
		}
	}
}

func TestMutateUsesTemplateNumberingForBullets(t *testing.T) {
	out, _ := mutateBytes(t, buildDocx(t, fullTemplate()), sampleResume())
	doc, err := LoadDocument(out)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	snap, err := Capture(findParagraph(t, doc, "Managed splicing crews"))
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if snap.Numbering == nil || snap.Numbering.NumID != "3" {
		t.Fatalf("expected bullet to reuse numbering 3, got %+v", snap.Numbering)
	}
	if snap.StyleID != "ListParagraph" {
		t.Fatalf("expected ListParagraph style, got %q", snap.StyleID)
	}

	header, err := Capture(findParagraph(t, doc, "Acme Fiber"))
	if err != nil {
		t.Fatalf("capture header: %v", err)
	}
	if header.Numbering != nil {
		t.Fatalf("expected entry header to be unnumbered, got %+v", header.Numbering)
	}
	if len(header.Runs) != 2 || !header.Runs[0].Bold || !header.Runs[1].Bold {
		t.Fatalf("expected bold title and date runs, got %+v", header.Runs)
	}
}

func TestMutateFallsBackToGlyphBullets(t *testing.T) {
	template := headingPara("Skills") + plainPara("Sample skill")
	out, _ := mutateBytes(t, buildDocx(t, template), sampleResume())
	doc, err := LoadDocument(out)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	p := findParagraph(t, doc, "Excel")
	if p.Text() != "• Excel" {
		t.Fatalf("expected glyph bullet, got %q", p.Text())
	}
	snap, err := Capture(p)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if snap.Indent.Left != bulletIndent {
		t.Fatalf("expected left indent %d, got %d", bulletIndent, snap.Indent.Left)
	}
}

func TestMutateIsIdempotent(t *testing.T) {
	resume := sampleResume()
	resume.Present = map[model.Section]bool{model.SectionCertifications: true}
	template := fullTemplate() + headingPara("Certifications") + plainPara("Sample certificate")

	first, firstResult := mutateBytes(t, buildDocx(t, template), resume)
	second, secondResult := mutateBytes(t, first, resume)

	if !bytes.Equal(first, second) {
		t.Fatalf("expected second pass to leave the document unchanged")
	}
	if len(firstResult.Filled) != len(secondResult.Filled) {
		t.Fatalf("expected same filled sections, got %v and %v", firstResult.Filled, secondResult.Filled)
	}
}

func TestMutateRewritesChangedRegion(t *testing.T) {
	first, _ := mutateBytes(t, buildDocx(t, fullTemplate()), sampleResume())

	changed := sampleResume()
	changed.Summary = "Project lead for rural broadband builds."
	second, _ := mutateBytes(t, first, changed)

	doc, err := LoadDocument(second)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	text := doc.Text()
	if !strings.Contains(text, "Project lead for rural broadband builds.") {
		t.Fatalf("expected new summary, got:\n%s", text)
	}
	if strings.Contains(text, "fiber deployment experience") {
		t.Fatalf("expected old summary to be replaced, got:\n%s", text)
	}
	if strings.Count(text, "Acme Fiber") != 1 {
		t.Fatalf("expected experience to stay single, got:\n%s", text)
	}
}

func TestMutatePlacesSectionAtFirstAnchorOnly(t *testing.T) {
	template := plainPara("&lt;employment history&gt;") +
		headingPara("EMPLOYMENT HISTORY") +
		plainPara("Old Company")
	resume := model.StructuredResume{Experience: sampleResume().Experience}

	doc := loadDocx(t, template)
	state := model.NewInsertionState()
	result, err := Mutate(context.Background(), doc, resume, &state, Options{})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}

	text := doc.Text()
	if strings.Count(text, "Acme Fiber") != 1 {
		t.Fatalf("expected experience exactly once, got:\n%s", text)
	}
	if strings.Contains(text, "<employment history>") {
		t.Fatalf("expected placeholder to be replaced, got:\n%s", text)
	}
	if !strings.Contains(text, "Old Company") {
		t.Fatalf("expected content under the skipped heading to stay, got:\n%s", text)
	}
	if strings.Index(text, "Acme Fiber") > strings.Index(text, "EMPLOYMENT HISTORY") {
		t.Fatalf("expected experience at the placeholder, got:\n%s", text)
	}
	if !state.IsInserted(model.SectionExperience) {
		t.Fatalf("expected experience to be marked inserted")
	}
	if len(result.Anchors) != 2 {
		t.Fatalf("expected 2 anchors, got %+v", result.Anchors)
	}
	if result.Anchors[0].Kind != model.AnchorPlaceholder || result.Anchors[1].Kind != model.AnchorHeading {
		t.Fatalf("unexpected anchor kinds: %+v", result.Anchors)
	}
}

func TestMutateEmptySectionWarns(t *testing.T) {
	template := headingPara("Employment History") +
		plainPara("Old Company") +
		plainPara("Old bullet line.") +
		headingPara("Education") +
		plainPara("Old School")
	resume := model.StructuredResume{
		Education: sampleResume().Education,
		Present:   map[model.Section]bool{model.SectionExperience: true},
	}

	doc := loadDocx(t, template)
	result, err := Mutate(context.Background(), doc, resume, nil, Options{})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}

	var empty model.ErrEmptySection
	found := false
	for _, warning := range result.Warnings {
		if errors.As(warning, &empty) && empty.Section == model.SectionExperience {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected empty experience warning, got %v", result.Warnings)
	}
	if containsSection(result.Filled, model.SectionExperience) {
		t.Fatalf("expected experience not to count as filled")
	}
	text := doc.Text()
	if strings.Contains(text, "Old Company") || strings.Contains(text, "Old bullet line.") {
		t.Fatalf("expected sample content to be cleared, got:\n%s", text)
	}
	if !strings.Contains(text, "Employment History") || !strings.Contains(text, "State University") {
		t.Fatalf("expected heading and education to remain, got:\n%s", text)
	}
	if _, err := doc.Bytes(); err != nil {
		t.Fatalf("bytes: %v", err)
	}
}

func TestMutateReportsMissingAnchor(t *testing.T) {
	resume := model.StructuredResume{
		Summary:        "Short summary.",
		Certifications: []string{"OSHA 30"},
	}
	doc := loadDocx(t, headingPara("Summary")+plainPara("Old summary"))
	result, err := Mutate(context.Background(), doc, resume, nil, Options{})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}

	var missing model.ErrAnchorNotFound
	if len(result.Warnings) != 1 || !errors.As(result.Warnings[0], &missing) {
		t.Fatalf("expected one anchor-not-found warning, got %v", result.Warnings)
	}
	if missing.Section != model.SectionCertifications {
		t.Fatalf("expected certifications, got %s", missing.Section)
	}
	if strings.Contains(doc.Text(), "OSHA 30") {
		t.Fatalf("expected unplaced content to stay out of the document")
	}
}

func TestMutateRemovesPlaceholderForAbsentSection(t *testing.T) {
	template := plainPara("[Insert Certifications]") + headingPara("Summary") + plainPara("Old summary")
	doc := loadDocx(t, template)
	if _, err := Mutate(context.Background(), doc, model.StructuredResume{Summary: "New summary."}, nil, Options{}); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	text := doc.Text()
	if strings.Contains(text, "Certifications") {
		t.Fatalf("expected placeholder to be removed, got:\n%s", text)
	}
	if !strings.Contains(text, "New summary.") {
		t.Fatalf("expected summary, got:\n%s", text)
	}
}

func TestMutatePreservesPlaceholderStyle(t *testing.T) {
	doc := loadDocx(t, styledPara("[Insert professional summary]"))
	before, err := Capture(doc.Paragraphs()[0])
	if err != nil {
		t.Fatalf("capture before: %v", err)
	}

	if _, err := Mutate(context.Background(), doc, model.StructuredResume{Summary: "New summary."}, nil, Options{}); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	after, err := Capture(findParagraph(t, doc, "New summary."))
	if err != nil {
		t.Fatalf("capture after: %v", err)
	}
	if !after.SameAppearance(before) {
		t.Fatalf("expected appearance to survive, before %+v after %+v", before, after)
	}
	if after.SpacingAfter != 120 {
		t.Fatalf("expected spacing to survive, got %d", after.SpacingAfter)
	}
}

func TestMutateRecordsStyleCaptureFailure(t *testing.T) {
	broken := `<w:p><w:pPr><w:spacing w:after="abc"/></w:pPr><w:r><w:t>Old summary text</w:t></w:r></w:p>`
	doc := loadDocx(t, headingPara("Summary")+broken)

	result, err := Mutate(context.Background(), doc, model.StructuredResume{Summary: "New summary."}, nil, Options{})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if !containsSection(result.Filled, model.SectionSummary) {
		t.Fatalf("expected summary to be filled despite capture failure")
	}
	var capture model.ErrStyleCapture
	found := false
	for _, warning := range result.Warnings {
		if errors.As(warning, &capture) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected style capture warning, got %v", result.Warnings)
	}
	if _, err := doc.Bytes(); err != nil {
		t.Fatalf("bytes: %v", err)
	}
}

func skillsTableXML() string {
	cell := func(text string, bold bool) string {
		rPr := ""
		if bold {
			rPr = `<w:rPr><w:b/></w:rPr>`
		}
		return `<w:tc><w:tcPr><w:tcW w:w="3000" w:type="dxa"/></w:tcPr><w:p><w:r>` + rPr + `<w:t>` + text + `</w:t></w:r></w:p></w:tc>`
	}
	return `<w:tbl><w:tblPr><w:tblStyle w:val="TableGrid"/></w:tblPr>` +
		`<w:tblGrid><w:gridCol w:w="3000"/><w:gridCol w:w="3000"/><w:gridCol w:w="3000"/></w:tblGrid>` +
		`<w:tr><w:trPr><w:tblHeader/></w:trPr>` + cell("Skill", true) + cell("Years Used", true) + cell("Last Used", true) + `</w:tr>` +
		`<w:tr>` + cell("Sample", false) + cell("0", false) + cell("2000", false) + `</w:tr>` +
		`</w:tbl>`
}

func firstTable(doc *Document) *xmlNode {
	for _, child := range doc.body().Children {
		if isElement(child, "tbl") {
			return child
		}
	}
	return nil
}

func TestMutateFillsSkillsTable(t *testing.T) {
	template := headingPara("Skills") + skillsTableXML()
	out, result := mutateBytes(t, buildDocx(t, template), sampleResume())
	if !containsSection(result.Filled, model.SectionSkills) {
		t.Fatalf("expected skills to be filled, got %v", result.Filled)
	}

	doc, err := LoadDocument(out)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	tbl := firstTable(doc)
	if tbl == nil {
		t.Fatalf("expected table to remain")
	}
	rows := childElements(tbl, "tr")
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	var got []string
	for _, cell := range childElements(rows[1], "tc") {
		got = append(got, cellText(cell))
	}
	if strings.Join(got, "|") != "Excel|10+ years|2026" {
		t.Fatalf("unexpected first row: %v", got)
	}
	if cellText(childElements(rows[0], "tc")[0]) != "Skill" {
		t.Fatalf("expected header row to stay")
	}
	if strings.Contains(doc.Text(), "Sample") {
		t.Fatalf("expected sample row to be replaced")
	}

	again, _ := mutateBytes(t, out, sampleResume())
	if !bytes.Equal(out, again) {
		t.Fatalf("expected table fill to be stable across passes")
	}
}

func TestMutateCapsSkillsTableRows(t *testing.T) {
	resume := model.StructuredResume{}
	for i := 0; i < maxSkillRows+5; i++ {
		resume.Skills = append(resume.Skills, model.SkillStatement{Text: "Skill " + strings.Repeat("x", i+1), YearsUsed: "1 year"})
	}
	doc := loadDocx(t, headingPara("Skills")+skillsTableXML())
	if _, err := Mutate(context.Background(), doc, resume, nil, Options{}); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if rows := childElements(firstTable(doc), "tr"); len(rows) != maxSkillRows+1 {
		t.Fatalf("expected %d rows, got %d", maxSkillRows+1, len(rows))
	}
}

func TestMutateHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc := loadDocx(t, fullTemplate())
	if _, err := Mutate(ctx, doc, sampleResume(), nil, Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPlaceholderText(t *testing.T) {
	cases := map[string]string{
		"<employment history>":      "employment history",
		"[Insert Skills Here]":      "Skills",
		"{{ professional_summary }}": "professional summary",
	}
	for input, want := range cases {
		got, ok := placeholderText(input)
		if !ok || got != want {
			t.Fatalf("placeholderText(%q) = %q, %v; want %q", input, got, ok, want)
		}
	}
	if _, ok := placeholderText("[Insert here]"); ok {
		t.Fatalf("expected instruction-only placeholder to be rejected")
	}
	if _, ok := placeholderText("Plain text"); ok {
		t.Fatalf("expected plain text to be rejected")
	}
}
