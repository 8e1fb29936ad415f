package render

import (
	"strconv"
	"strings"

	"resume-formatter/resume/model"
)

const (
	rightTabPosition = 9360
	bulletIndent     = 360
	bulletGlyph      = "• "
	regionPrefix     = "_rf_"
	regionIDBase     = 700000
	maxSkillRows     = 15
)

// block is one output paragraph before it is bound to template styling.
type block struct {
	runs     []Run
	bullet   bool
	rightTab bool
}

func (b block) text() string {
	var builder strings.Builder
	for _, run := range b.runs {
		if run.Tab {
			builder.WriteByte('\t')
		}
		builder.WriteString(run.Text)
	}
	return builder.String()
}

func layoutSection(section model.Section, resume model.StructuredResume) []block {
	switch section {
	case model.SectionContact:
		return contactBlocks(resume.Contact)
	case model.SectionSummary:
		if summary := strings.TrimSpace(resume.Summary); summary != "" {
			return []block{{runs: []Run{{Text: summary}}}}
		}
	case model.SectionExperience:
		var out []block
		for _, entry := range resume.Experience {
			out = append(out, entryBlocks(entry.Company, entry.Role, entry.DateRange, entry.Bullets)...)
		}
		return out
	case model.SectionEducation:
		var out []block
		for _, entry := range resume.Education {
			out = append(out, entryBlocks(entry.Degree, entry.Institution, entry.Year, entry.Bullets)...)
		}
		return out
	case model.SectionSkills:
		out := make([]block, 0, len(resume.Skills))
		for _, skill := range resume.Skills {
			out = append(out, bulletBlock(skill.Text))
		}
		return out
	case model.SectionCertifications:
		out := make([]block, 0, len(resume.Certifications))
		for _, cert := range resume.Certifications {
			out = append(out, bulletBlock(cert))
		}
		return out
	}
	return nil
}

func contactBlocks(contact model.ContactInfo) []block {
	var out []block
	if name := strings.TrimSpace(contact.Name); name != "" {
		out = append(out, block{runs: []Run{{Text: name, Bold: true}}})
	}
	if details := joinNonEmpty(" | ", contact.Email, contact.Phone, contact.Location); details != "" {
		out = append(out, block{runs: []Run{{Text: details}}})
	}
	if links := joinNonEmpty(" | ", contact.Links...); links != "" {
		out = append(out, block{runs: []Run{{Text: links}}})
	}
	return out
}

// entryBlocks lays out a dated entry: bold title with the date on a right tab
// stop, an italic subtitle, then bullets.
func entryBlocks(title, subtitle, date string, bullets []string) []block {
	title, subtitle, date = strings.TrimSpace(title), strings.TrimSpace(subtitle), strings.TrimSpace(date)
	if title == "" {
		title, subtitle = subtitle, ""
	}
	head := block{runs: []Run{{Text: title, Bold: true}}}
	if date != "" {
		head.runs = append(head.runs, Run{Text: date, Tab: true, Bold: true})
		head.rightTab = true
	}
	out := []block{head}
	if subtitle != "" {
		out = append(out, block{runs: []Run{{Text: subtitle, Italic: true}}})
	}
	for _, bullet := range bullets {
		if bullet = strings.TrimSpace(bullet); bullet != "" {
			out = append(out, bulletBlock(bullet))
		}
	}
	return out
}

func bulletBlock(text string) block {
	return block{runs: []Run{{Text: strings.TrimSpace(text)}}, bullet: true}
}

func joinNonEmpty(sep string, values ...string) string {
	parts := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			parts = append(parts, value)
		}
	}
	return strings.Join(parts, sep)
}

// styleSources are the pristine template paragraphs new content is cloned from.
type styleSources struct {
	base   *xmlNode
	bullet *xmlNode
	sectPr *xmlNode
}

// pickSources chooses the first non-empty unnumbered paragraph as the base
// style and the first numbered one as the bullet style.
func pickSources(candidates []*xmlNode) styleSources {
	var src styleSources
	for _, node := range candidates {
		if !isElement(node, "p") {
			continue
		}
		if sect := childElement(childElement(node, "pPr"), "sectPr"); sect != nil && src.sectPr == nil {
			src.sectPr = cloneNode(sect)
		}
		if strings.TrimSpace(paragraphText(node)) == "" {
			continue
		}
		if childElement(childElement(node, "pPr"), "numPr") != nil {
			if src.bullet == nil {
				src.bullet = node
			}
			continue
		}
		if src.base == nil {
			src.base = node
		}
	}
	if src.base == nil {
		src.base = src.bullet
	}
	if src.base == nil {
		src.base = newElement("p")
	}
	return src
}

// materialize turns blocks into styled paragraphs wrapped in the section's
// region bookmark. An empty section still yields one empty paragraph so the
// region survives for the next pass.
func (m *mutator) materialize(section model.Section, blocks []block, src styleSources) []*xmlNode {
	baseSnap := m.cache.Snapshot(&Paragraph{node: src.base}, m.index)
	baseSnap.Numbering = nil
	var bulletSnap model.StyleSnapshot
	if src.bullet != nil {
		bulletSnap = m.cache.Snapshot(&Paragraph{node: src.bullet}, m.index)
	}

	nodes := make([]*xmlNode, 0, len(blocks)+1)
	emit := func(source *xmlNode, snap model.StyleSnapshot, b block) {
		p := cloneNode(source)
		if pPr := childElement(p, "pPr"); pPr != nil {
			removeChildElements(pPr, "sectPr")
		}
		m.cache.snapshots[p] = snap
		m.replacer.Replace(&Paragraph{node: p}, m.index, b.runs)
		if b.rightTab {
			addRightTab(p)
		}
		nodes = append(nodes, p)
	}

	for _, b := range blocks {
		b.runs = append([]Run(nil), b.runs...)
		switch {
		case b.bullet && src.bullet != nil:
			emit(src.bullet, bulletSnap, b)
		case b.bullet:
			snap := baseSnap
			snap.Indent = model.Indent{Left: bulletIndent}
			b.runs[0].Text = bulletGlyph + b.runs[0].Text
			emit(src.base, snap, b)
		default:
			emit(src.base, baseSnap, b)
		}
	}
	if len(nodes) == 0 {
		emit(src.base, baseSnap, block{})
	}
	if src.sectPr != nil {
		last := nodes[len(nodes)-1]
		pPr, _ := ensureFirstChild(last, "pPr")
		insertOrdered(pPr, cloneNode(src.sectPr), pPrOrder)
	}
	wrapRegion(section, nodes)
	return nodes
}

func addRightTab(p *xmlNode) {
	pPr, _ := ensureFirstChild(p, "pPr")
	tabs := ensureChild(pPr, "tabs", pPrOrder)
	pos := strconv.Itoa(rightTabPosition)
	for _, tab := range childElements(tabs, "tab") {
		val, _ := attrValue(tab, "val")
		at, _ := attrValue(tab, "pos")
		if val == "right" && at == pos {
			return
		}
	}
	tabs.Children = append(tabs.Children, newElement("tab", "val", "right", "pos", pos))
}

func insertOrdered(parent, node *xmlNode, order []string) {
	rank := schemaRank(node.Name.Local, order)
	for i, child := range parent.Children {
		if !child.IsText && schemaRank(child.Name.Local, order) > rank {
			parent.Children = append(parent.Children[:i], append([]*xmlNode{node}, parent.Children[i:]...)...)
			return
		}
	}
	parent.Children = append(parent.Children, node)
}

func regionName(section model.Section) string {
	return regionPrefix + strings.ToLower(section.String())
}

func regionID(section model.Section) string {
	return strconv.Itoa(regionIDBase + int(section))
}

// wrapRegion brackets nodes with a hidden bookmark naming the section.
func wrapRegion(section model.Section, nodes []*xmlNode) {
	first, last := nodes[0], nodes[len(nodes)-1]
	start := newElement("bookmarkStart", "id", regionID(section), "name", regionName(section))
	at := 0
	if len(first.Children) > 0 && isElement(first.Children[0], "pPr") {
		at = 1
	}
	first.Children = append(first.Children[:at], append([]*xmlNode{start}, first.Children[at:]...)...)
	last.Children = append(last.Children, newElement("bookmarkEnd", "id", regionID(section)))
}

// regionSection reports the section whose region bookmark starts in p.
func regionSection(p *xmlNode) (model.Section, bool) {
	for _, child := range childElements(p, "bookmarkStart") {
		name, _ := attrValue(child, "name")
		if !strings.HasPrefix(name, regionPrefix) {
			continue
		}
		section, err := model.ParseSection(strings.TrimPrefix(name, regionPrefix))
		if err == nil && section != model.SectionOther {
			return section, true
		}
	}
	return model.SectionOther, false
}

func closesRegion(p *xmlNode, section model.Section) bool {
	id := regionID(section)
	for _, child := range childElements(p, "bookmarkEnd") {
		if value, _ := attrValue(child, "id"); value == id {
			return true
		}
	}
	return false
}

func comparableLines(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, text := range texts {
		text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), strings.TrimSpace(bulletGlyph)))
		if text != "" {
			out = append(out, text)
		}
	}
	return out
}

func sameLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// skillsTable holds the column layout of a Skill / Years / Last Used table.
type skillsTable struct {
	skill, years, last int
}

var (
	skillColumnWords = []string{"skill", "technology", "competency", "technical", "tool", "expertise", "proficiency"}
	yearsColumnWords = []string{"years", "experience", "yrs", "duration"}
	lastColumnWords  = []string{"last", "recent", "latest"}
)

func detectSkillsTable(tbl *xmlNode) (skillsTable, bool) {
	layout := skillsTable{skill: -1, years: -1, last: -1}
	rows := childElements(tbl, "tr")
	if len(rows) == 0 {
		return layout, false
	}
	for idx, cell := range childElements(rows[0], "tc") {
		header := strings.ToLower(cellText(cell))
		switch {
		case layout.skill < 0 && containsAny(header, skillColumnWords):
			layout.skill = idx
		case layout.years < 0 && containsAny(header, yearsColumnWords):
			layout.years = idx
		case layout.last < 0 && containsAny(header, lastColumnWords):
			layout.last = idx
		}
	}
	return layout, layout.skill >= 0 && (layout.years >= 0 || layout.last >= 0)
}

func (t skillsTable) cell(col int, skill model.SkillStatement) string {
	switch col {
	case t.skill:
		return skill.Text
	case t.years:
		return skill.YearsUsed
	case t.last:
		return skill.LastUsed
	}
	return ""
}

func cellText(cell *xmlNode) string {
	var parts []string
	for _, p := range childElements(cell, "p") {
		parts = append(parts, paragraphText(p))
	}
	return strings.Join(parts, " ")
}

func containsAny(text string, words []string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}

// fillSkillsTable replaces the data rows of tbl with one row per skill,
// cloned from the first data row (or the header row, unbolded).
func (m *mutator) fillSkillsTable(tbl *xmlNode, layout skillsTable) {
	rows := childElements(tbl, "tr")
	sample, fromHeader := rows[0], true
	if len(rows) > 1 {
		sample, fromHeader = rows[1], false
	}
	sample = cloneNode(sample)
	for _, row := range rows[1:] {
		removeNode(tbl, row)
	}

	sampleCells := childElements(sample, "tc")
	snaps := make([]model.StyleSnapshot, len(sampleCells))
	for col, cell := range sampleCells {
		if p := childElement(cell, "p"); p != nil {
			snaps[col] = m.cache.Snapshot(&Paragraph{node: p}, m.index)
		}
		if fromHeader {
			snaps[col].Bold = false
		}
	}

	skills := m.resume.Skills
	if len(skills) > maxSkillRows {
		skills = skills[:maxSkillRows]
	}
	for _, skill := range skills {
		row := cloneNode(sample)
		if trPr := childElement(row, "trPr"); trPr != nil {
			removeChildElements(trPr, "tblHeader")
			dropIfBare(row, trPr)
		}
		for col, cell := range childElements(row, "tc") {
			paragraphs := childElements(cell, "p")
			if len(paragraphs) == 0 {
				p := newElement("p")
				cell.Children = append(cell.Children, p)
				paragraphs = []*xmlNode{p}
			}
			for _, extra := range paragraphs[1:] {
				removeNode(cell, extra)
			}
			p := paragraphs[0]
			if col < len(snaps) {
				m.cache.snapshots[p] = snaps[col]
			}
			m.replacer.Replace(&Paragraph{node: p}, m.index, []Run{{Text: layout.cell(col, skill)}})
		}
		tbl.Children = append(tbl.Children, row)
	}
}
