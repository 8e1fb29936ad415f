package render

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"resume-formatter/internal/shared/telemetry"
	"resume-formatter/resume/classify"
	"resume-formatter/resume/model"
	"resume-formatter/resume/taxonomy"
)

const (
	DefaultShortWindow = 30
	DefaultLongWindow  = 150
)

// HeadingMatcher resolves template paragraph text to a canonical section.
// ok is false when the text is not a recognised heading; OTHER with ok true
// is a recognised heading that only bounds other sections.
type HeadingMatcher interface {
	MatchHeading(text string, emphasized bool) (model.Section, bool)
}

// Options tunes the placement engine.
type Options struct {
	// ShortWindow bounds clearing after contact, summary, skills and certifications anchors.
	ShortWindow int
	// LongWindow bounds clearing after experience and education anchors.
	LongWindow int
	Matcher    HeadingMatcher
}

func (o Options) withDefaults() Options {
	if o.ShortWindow <= 0 {
		o.ShortWindow = DefaultShortWindow
	}
	if o.LongWindow <= 0 {
		o.LongWindow = DefaultLongWindow
	}
	if o.Matcher == nil {
		o.Matcher = classify.New(taxonomy.MustDefault(), classify.Options{})
	}
	return o
}

// MutationResult describes one pass over a template.
type MutationResult struct {
	Filled   []model.Section
	Anchors  []model.InsertionAnchor
	Warnings []error
}

type anchorHit struct {
	section model.Section
	kind    model.AnchorKind
	region  bool
}

type regionRef struct {
	container *xmlNode
	start     *xmlNode
}

type mutator struct {
	resume   model.StructuredResume
	state    *model.InsertionState
	opts     Options
	cache    *Cache
	replacer *TextReplacer
	regions  map[model.Section]regionRef
	consumed map[*xmlNode]bool
	index    int
	result   MutationResult
}

// Mutate places resume into doc in a single document-order scan. Each section
// is written at the first anchor found for it; later anchors for a section
// already marked in state are skipped. Content from an earlier pass is
// recognised by its region bookmark and left untouched when unchanged, so a
// second pass produces identical bytes.
func Mutate(ctx context.Context, doc *Document, resume model.StructuredResume, state *model.InsertionState, opts Options) (MutationResult, error) {
	if err := ctx.Err(); err != nil {
		return MutationResult{}, err
	}
	if doc == nil || doc.root == nil {
		return MutationResult{}, errors.New("mutate: document not loaded")
	}
	if state == nil {
		fresh := model.NewInsertionState()
		state = &fresh
	}
	cache := NewCache()
	m := &mutator{
		resume:   resume,
		state:    state,
		opts:     opts.withDefaults(),
		cache:    cache,
		replacer: NewTextReplacer(cache),
		regions:  make(map[model.Section]regionRef),
		consumed: make(map[*xmlNode]bool),
	}
	body := doc.body()
	m.collectRegions(body)
	m.scan(body)
	m.finish()
	return m.result, nil
}

func (m *mutator) collectRegions(container *xmlNode) {
	if container == nil {
		return
	}
	for _, child := range container.Children {
		switch {
		case isElement(child, "p"):
			if section, ok := regionSection(child); ok {
				if _, seen := m.regions[section]; !seen {
					m.regions[section] = regionRef{container: container, start: child}
				}
			}
		case isElement(child, "tbl"):
			for _, row := range childElements(child, "tr") {
				for _, cell := range childElements(row, "tc") {
					m.collectRegions(cell)
				}
			}
		case isElement(child, "sdt"):
			m.collectRegions(childElement(child, "sdtContent"))
		}
	}
}

func (m *mutator) scan(container *xmlNode) {
	if container == nil {
		return
	}
	for i := 0; i < len(container.Children); {
		child := container.Children[i]
		if m.consumed[child] {
			i++
			continue
		}
		switch {
		case isElement(child, "p"):
			i = m.paragraph(container, i)
		case isElement(child, "tbl"):
			for _, row := range childElements(child, "tr") {
				for _, cell := range childElements(row, "tc") {
					m.scan(cell)
				}
			}
			i++
		case isElement(child, "sdt"):
			m.scan(childElement(child, "sdtContent"))
			i++
		default:
			i++
		}
	}
}

// paragraph handles the paragraph at container.Children[i] and returns the
// index to continue from.
func (m *mutator) paragraph(container *xmlNode, i int) int {
	p := container.Children[i]
	m.index++
	hit, ok := m.anchorAt(p)
	if !ok || hit.section == model.SectionOther {
		return i + 1
	}
	section := hit.section
	m.result.Anchors = append(m.result.Anchors, model.InsertionAnchor{ParagraphIndex: m.index, Kind: hit.kind, Target: section})

	if m.state.IsInserted(section) {
		telemetry.Info("render.anchor_skipped", map[string]any{
			"section":   section.String(),
			"kind":      string(hit.kind),
			"paragraph": m.index,
		})
		return i + 1
	}
	if !m.resume.IsPresent(section) {
		if hit.kind == model.AnchorPlaceholder && !hit.region {
			removeNode(container, p)
			return i
		}
		return i + 1
	}
	if ref, ok := m.regions[section]; ok {
		m.rewriteRegion(section, ref)
		return i + 1
	}
	if section == model.SectionSkills && hit.kind == model.AnchorHeading {
		if tbl := m.followingSkillsTable(container, i); tbl != nil {
			layout, _ := detectSkillsTable(tbl)
			m.fillSkillsTable(tbl, layout)
			m.consumed[tbl] = true
			m.placed(section, hit.kind, "table")
			return i + 1
		}
	}
	return m.insert(container, i, hit)
}

// insert clears the anchor's window and writes the section in its place.
// A heading anchor is kept; a placeholder anchor is replaced.
func (m *mutator) insert(container *xmlNode, i int, hit anchorHit) int {
	start := i + 1
	if hit.kind == model.AnchorPlaceholder {
		start = i
	}
	end := m.windowEnd(container, i+1, hit.section)
	for end > i+1 && isBlankParagraph(container.Children[end-1]) {
		end--
	}

	cleared := append([]*xmlNode(nil), container.Children[start:end]...)
	nodes := m.materialize(hit.section, layoutSection(hit.section, m.resume), pickSources(cleared))
	container.Children = splice(container.Children, start, end, nodes)
	for _, node := range nodes {
		m.consumed[node] = true
	}
	m.placed(hit.section, hit.kind, "inserted")
	telemetry.Info("render.window_cleared", map[string]any{
		"section":    hit.section.String(),
		"cleared":    len(cleared),
		"paragraphs": len(nodes),
	})
	return start + len(nodes)
}

// rewriteRegion re-enters content written by an earlier pass. Unchanged
// content is left as is; changed content is rewritten with the region's own
// styling.
func (m *mutator) rewriteRegion(section model.Section, ref regionRef) {
	container := ref.container
	start := indexOf(container.Children, ref.start)
	if start < 0 {
		return
	}
	end := start
	for j := start; j < len(container.Children); j++ {
		if isElement(container.Children[j], "p") && closesRegion(container.Children[j], section) {
			end = j
			break
		}
	}

	existing := container.Children[start : end+1]
	var texts []string
	for _, node := range existing {
		if isElement(node, "p") {
			texts = append(texts, paragraphText(node))
		}
	}
	blocks := layoutSection(section, m.resume)
	want := make([]string, 0, len(blocks))
	for _, b := range blocks {
		want = append(want, b.text())
	}

	if sameLines(comparableLines(texts), comparableLines(want)) {
		for _, node := range existing {
			m.consumed[node] = true
		}
		m.placed(section, model.AnchorPlaceholder, "unchanged")
		return
	}

	region := append([]*xmlNode(nil), existing...)
	nodes := m.materialize(section, blocks, pickSources(region))
	container.Children = splice(container.Children, start, end+1, nodes)
	for _, node := range nodes {
		m.consumed[node] = true
	}
	m.placed(section, model.AnchorPlaceholder, "rewritten")
}

func (m *mutator) placed(section model.Section, kind model.AnchorKind, how string) {
	if !m.state.MarkInserted(section) {
		return
	}
	if m.resume.HasContent(section) {
		m.result.Filled = append(m.result.Filled, section)
	} else {
		warning := model.ErrEmptySection{Section: section}
		m.result.Warnings = append(m.result.Warnings, warning)
		telemetry.Warn("render.section_empty", map[string]any{"section": section.String()})
	}
	telemetry.Info("render.section_placed", map[string]any{
		"section": section.String(),
		"kind":    string(kind),
		"result":  how,
	})
}

func (m *mutator) finish() {
	for _, section := range model.ContentSections() {
		if m.state.IsInserted(section) || !m.resume.HasContent(section) {
			continue
		}
		m.result.Warnings = append(m.result.Warnings, model.ErrAnchorNotFound{Section: section})
		telemetry.Warn("render.anchor_missing", map[string]any{"section": section.String()})
	}
	m.result.Warnings = append(m.result.Warnings, m.cache.Warnings()...)
}

func (m *mutator) window(section model.Section) int {
	switch section {
	case model.SectionExperience, model.SectionEducation:
		return m.opts.LongWindow
	}
	return m.opts.ShortWindow
}

// windowEnd returns the exclusive end of the clearable span after an anchor.
// It stops at the next heading, placeholder or region, at a section break, at
// any non-paragraph block, or after the section's window. A placeholder for
// the same section is instructional text and is cleared with the window.
func (m *mutator) windowEnd(container *xmlNode, from int, section model.Section) int {
	limit := m.window(section)
	count := 0
	j := from
	for ; j < len(container.Children) && count < limit; j++ {
		child := container.Children[j]
		if child.IsText {
			continue
		}
		if !isElement(child, "p") || m.consumed[child] || isSectionBreak(child) {
			break
		}
		if hit, ok := m.anchorAt(child); ok {
			if hit.region || hit.kind != model.AnchorPlaceholder || hit.section != section {
				break
			}
		}
		count++
	}
	return j
}

func (m *mutator) followingSkillsTable(container *xmlNode, i int) *xmlNode {
	for j := i + 1; j < len(container.Children) && j <= i+m.opts.ShortWindow; j++ {
		child := container.Children[j]
		if child.IsText || isBlankParagraph(child) {
			continue
		}
		if !isElement(child, "tbl") {
			return nil
		}
		if _, ok := detectSkillsTable(child); ok {
			return child
		}
		return nil
	}
	return nil
}

var placeholderPattern = regexp.MustCompile(`^(?:<\s*([^<>]+?)\s*>|\[\s*([^\[\]]+?)\s*\]|\{\{\s*([^{}]+?)\s*\}\})$`)

var instructionWords = map[string]struct{}{
	"insert": {}, "enter": {}, "add": {}, "type": {}, "your": {}, "here": {}, "list": {},
	"include": {}, "write": {}, "put": {}, "section": {}, "the": {}, "a": {}, "an": {},
}

var headingStylePattern = regexp.MustCompile(`(?i)heading|title`)

// anchorAt recognises region bookmarks, placeholders and headings.
func (m *mutator) anchorAt(p *xmlNode) (anchorHit, bool) {
	if section, ok := regionSection(p); ok {
		return anchorHit{section: section, kind: model.AnchorPlaceholder, region: true}, true
	}
	text := strings.TrimSpace(paragraphText(p))
	if text == "" {
		return anchorHit{}, false
	}
	if inner, ok := placeholderText(text); ok {
		section, matched := m.opts.Matcher.MatchHeading(inner, true)
		if !matched {
			return anchorHit{}, false
		}
		return anchorHit{section: section, kind: model.AnchorPlaceholder}, true
	}
	if !headingShaped(text) {
		return anchorHit{}, false
	}
	section, matched := m.opts.Matcher.MatchHeading(strings.TrimSuffix(text, ":"), emphasizedParagraph(p, text))
	if !matched {
		return anchorHit{}, false
	}
	return anchorHit{section: section, kind: model.AnchorHeading}, true
}

func placeholderText(text string) (string, bool) {
	match := placeholderPattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	inner := match[1] + match[2] + match[3]
	inner = strings.TrimLeft(inner, "#/")
	inner = strings.ReplaceAll(inner, "_", " ")
	var words []string
	for _, word := range strings.Fields(inner) {
		if _, skip := instructionWords[strings.ToLower(word)]; skip {
			continue
		}
		words = append(words, word)
	}
	if len(words) == 0 {
		return "", false
	}
	return strings.Join(words, " "), true
}

func headingShaped(text string) bool {
	if utf8.RuneCountInString(text) > 50 || taxonomy.WordCount(text) > 6 {
		return false
	}
	if strings.HasSuffix(text, ".") || taxonomy.HasBullet(text) {
		return false
	}
	return true
}

func emphasizedParagraph(p *xmlNode, text string) bool {
	if taxonomy.IsShouted(text) {
		return true
	}
	snap, _ := captureNode(p)
	if headingStylePattern.MatchString(snap.StyleID) {
		return true
	}
	if len(snap.Runs) == 0 {
		return false
	}
	for _, run := range snap.Runs {
		if !run.Bold {
			return false
		}
	}
	return true
}

func isSectionBreak(p *xmlNode) bool {
	return childElement(childElement(p, "pPr"), "sectPr") != nil
}

func isBlankParagraph(node *xmlNode) bool {
	if node.IsText {
		return true
	}
	if !isElement(node, "p") || strings.TrimSpace(paragraphText(node)) != "" {
		return false
	}
	if isSectionBreak(node) {
		return false
	}
	if _, ok := regionSection(node); ok {
		return false
	}
	blank := true
	walkXML(node, func(n *xmlNode) bool {
		if isElement(n, "drawing") || isElement(n, "pict") || isElement(n, "object") {
			blank = false
			return false
		}
		return true
	})
	return blank
}

func indexOf(nodes []*xmlNode, target *xmlNode) int {
	for i, node := range nodes {
		if node == target {
			return i
		}
	}
	return -1
}

func splice(nodes []*xmlNode, start, end int, insert []*xmlNode) []*xmlNode {
	out := make([]*xmlNode, 0, len(nodes)-(end-start)+len(insert))
	out = append(out, nodes[:start]...)
	out = append(out, insert...)
	return append(out, nodes[end:]...)
}
