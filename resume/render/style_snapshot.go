package render

import (
	"errors"
	"fmt"
	"strconv"

	"resume-formatter/internal/shared/telemetry"
	"resume-formatter/resume/model"
)

// Child order of w:pPr and w:rPr in the WordprocessingML schema. Properties
// written by Apply are inserted at their schema position.
var (
	pPrOrder = []string{
		"pStyle", "keepNext", "keepLines", "pageBreakBefore", "framePr", "widowControl", "numPr",
		"suppressLineNumbers", "pBdr", "shd", "tabs", "suppressAutoHyphens", "kinsoku", "wordWrap",
		"overflowPunct", "topLinePunct", "autoSpaceDE", "autoSpaceDN", "bidi", "adjustRightInd",
		"snapToGrid", "spacing", "ind", "contextualSpacing", "mirrorIndents", "suppressOverlap", "jc",
		"textDirection", "textAlignment", "textboxTightWrap", "outlineLvl", "divId", "cnfStyle", "rPr",
		"sectPr", "pPrChange",
	}
	rPrOrder = []string{
		"rStyle", "rFonts", "b", "bCs", "i", "iCs", "caps", "smallCaps", "strike", "dstrike", "outline",
		"shadow", "emboss", "imprint", "noProof", "snapToGrid", "vanish", "webHidden", "color", "spacing",
		"w", "kern", "position", "sz", "szCs", "highlight", "u", "effect", "bdr", "shd", "fitText",
		"vertAlign", "rtl", "cs", "em", "lang", "eastAsianLayout", "specVanish", "oMath",
	}
)

// DefaultStyle is used when a paragraph's formatting cannot be read: left
// aligned with no other direct formatting, so the paragraph falls back to its
// named style and the document defaults.
func DefaultStyle() model.StyleSnapshot {
	return model.StyleSnapshot{Alignment: "left"}
}

// Capture reads the direct formatting of a paragraph and of each of its text
// runs. On unreadable values it returns DefaultStyle (keeping the style id)
// together with the parse error.
func Capture(p *Paragraph) (model.StyleSnapshot, error) {
	return captureNode(p.node)
}

func captureNode(p *xmlNode) (model.StyleSnapshot, error) {
	var snap model.StyleSnapshot
	var errs []error
	readInt := func(node *xmlNode, local string, dst *int) {
		value, ok, err := intAttr(node, local)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", local, err))
			return
		}
		if ok {
			*dst = value
		}
	}

	if pPr := childElement(p, "pPr"); pPr != nil {
		if style := childElement(pPr, "pStyle"); style != nil {
			snap.StyleID, _ = attrValue(style, "val")
		}
		snap.KeepNext = toggleOn(childElement(pPr, "keepNext"))
		snap.KeepLines = toggleOn(childElement(pPr, "keepLines"))
		if numPr := childElement(pPr, "numPr"); numPr != nil {
			numID, _ := attrValue(childElement(numPr, "numId"), "val")
			level, _ := attrValue(childElement(numPr, "ilvl"), "val")
			if numID != "" {
				snap.Numbering = &model.Numbering{NumID: numID, Level: level}
			}
		}
		if spacing := childElement(pPr, "spacing"); spacing != nil {
			readInt(spacing, "before", &snap.SpacingBefore)
			readInt(spacing, "after", &snap.SpacingAfter)
			readInt(spacing, "line", &snap.LineSpacing)
		}
		if ind := childElement(pPr, "ind"); ind != nil {
			readInt(ind, indentSide(ind, "left", "start"), &snap.Indent.Left)
			readInt(ind, indentSide(ind, "right", "end"), &snap.Indent.Right)
			readInt(ind, "firstLine", &snap.Indent.FirstLine)
			readInt(ind, "hanging", &snap.Indent.Hanging)
		}
		if jc := childElement(pPr, "jc"); jc != nil {
			snap.Alignment, _ = attrValue(jc, "val")
		}
	}

	for _, run := range textRuns(p) {
		style, err := captureRun(childElement(run, "rPr"))
		if err != nil {
			errs = append(errs, err)
		}
		snap.Runs = append(snap.Runs, style)
	}
	primary := model.RunStyle{}
	if len(snap.Runs) > 0 {
		primary = snap.Runs[0]
	} else if pPr := childElement(p, "pPr"); pPr != nil {
		mark, err := captureRun(childElement(pPr, "rPr"))
		if err != nil {
			errs = append(errs, err)
		}
		primary = mark
	}
	snap.FontFamily = primary.FontFamily
	snap.FontSize = primary.FontSize
	snap.Color = primary.Color
	snap.Bold = primary.Bold
	snap.Italic = primary.Italic
	snap.Underline = primary.Underline
	snap.Caps = primary.Caps

	if len(errs) > 0 {
		fallback := DefaultStyle()
		fallback.StyleID = snap.StyleID
		return fallback, errors.Join(errs...)
	}
	return snap, nil
}

func captureRun(rPr *xmlNode) (model.RunStyle, error) {
	var style model.RunStyle
	if rPr == nil {
		return style, nil
	}
	style.FontFamily = fontFamily(childElement(rPr, "rFonts"))
	if sz := childElement(rPr, "sz"); sz != nil {
		value, _, err := intAttr(sz, "val")
		if err != nil {
			return model.RunStyle{}, fmt.Errorf("sz: %w", err)
		}
		style.FontSize = value
	}
	if color := childElement(rPr, "color"); color != nil {
		style.Color, _ = attrValue(color, "val")
	}
	style.Bold = toggleOn(childElement(rPr, "b"))
	style.Italic = toggleOn(childElement(rPr, "i"))
	style.Caps = toggleOn(childElement(rPr, "caps"))
	if u := childElement(rPr, "u"); u != nil {
		if value, _ := attrValue(u, "val"); value != "none" {
			style.Underline = value
		}
	}
	return style, nil
}

func fontFamily(rFonts *xmlNode) string {
	for _, local := range []string{"ascii", "hAnsi", "cs", "eastAsia"} {
		if value, ok := attrValue(rFonts, local); ok && value != "" {
			return value
		}
	}
	return ""
}

func toggleOn(node *xmlNode) bool {
	if node == nil {
		return false
	}
	value, ok := attrValue(node, "val")
	if !ok {
		return true
	}
	switch value {
	case "0", "false", "off":
		return false
	}
	return true
}

func indentSide(ind *xmlNode, transitional, strict string) string {
	if _, ok := attrValue(ind, strict); ok {
		if _, ok := attrValue(ind, transitional); !ok {
			return strict
		}
	}
	return transitional
}

// textRuns lists the runs that carry visible text, including runs inside
// hyperlinks, insertions and smart tags.
func textRuns(p *xmlNode) []*xmlNode {
	var runs []*xmlNode
	inspectXML(p, func(n *xmlNode) bool {
		if n == p {
			return true
		}
		switch {
		case isElement(n, "pPr"), isElement(n, "del"), isElement(n, "p"):
			return false
		case isElement(n, "r"):
			if childElement(n, "t") != nil || childElement(n, "tab") != nil {
				runs = append(runs, n)
			}
			return false
		}
		return true
	})
	return runs
}

// Apply writes a snapshot onto a paragraph. When the paragraph has as many
// text runs as the snapshot, run styles are applied positionally; otherwise
// every run takes the primary run style. Properties that already hold the
// wanted value are left byte-for-byte untouched.
func Apply(p *Paragraph, snap model.StyleSnapshot) {
	applyParagraph(p.node, snap)
	runs := textRuns(p.node)
	for i, run := range runs {
		style := snap.PrimaryRun()
		if len(runs) == len(snap.Runs) {
			style = snap.Runs[i]
		}
		applyRun(run, style)
	}
}

func applyParagraph(p *xmlNode, snap model.StyleSnapshot) {
	pPr, created := ensureFirstChild(p, "pPr")

	setValElement(pPr, "pStyle", snap.StyleID, pPrOrder)
	setToggle(pPr, "keepNext", snap.KeepNext, pPrOrder)
	setToggle(pPr, "keepLines", snap.KeepLines, pPrOrder)
	setNumbering(pPr, snap.Numbering)

	spacing := childElement(pPr, "spacing")
	if spacing != nil || snap.SpacingBefore != 0 || snap.SpacingAfter != 0 || snap.LineSpacing != 0 {
		spacing = ensureChild(pPr, "spacing", pPrOrder)
		setIntAttr(spacing, "before", snap.SpacingBefore)
		setIntAttr(spacing, "after", snap.SpacingAfter)
		setIntAttr(spacing, "line", snap.LineSpacing)
		dropIfBare(pPr, spacing)
	}

	ind := childElement(pPr, "ind")
	if ind != nil || snap.Indent != (model.Indent{}) {
		ind = ensureChild(pPr, "ind", pPrOrder)
		setIntAttr(ind, indentSide(ind, "left", "start"), snap.Indent.Left)
		setIntAttr(ind, indentSide(ind, "right", "end"), snap.Indent.Right)
		setIntAttr(ind, "firstLine", snap.Indent.FirstLine)
		setIntAttr(ind, "hanging", snap.Indent.Hanging)
		dropIfBare(pPr, ind)
	}

	setValElement(pPr, "jc", snap.Alignment, pPrOrder)
	if created && len(pPr.Children) == 0 {
		removeNode(p, pPr)
	}
}

func applyRun(run *xmlNode, style model.RunStyle) {
	rPr, created := ensureFirstChild(run, "rPr")

	rFonts := childElement(rPr, "rFonts")
	if fontFamily(rFonts) != style.FontFamily {
		if style.FontFamily == "" {
			for _, local := range []string{"ascii", "hAnsi", "cs", "eastAsia"} {
				removeAttr(rFonts, local)
			}
			dropIfBare(rPr, rFonts)
		} else {
			rFonts = ensureChild(rPr, "rFonts", rPrOrder)
			removeAttr(rFonts, "asciiTheme")
			removeAttr(rFonts, "hAnsiTheme")
			setAttrValue(rFonts, "ascii", style.FontFamily)
			setAttrValue(rFonts, "hAnsi", style.FontFamily)
		}
	}
	setToggle(rPr, "b", style.Bold, rPrOrder)
	setToggle(rPr, "i", style.Italic, rPrOrder)
	setToggle(rPr, "caps", style.Caps, rPrOrder)
	setValElement(rPr, "color", style.Color, rPrOrder)

	sz := childElement(rPr, "sz")
	current, _, err := intAttr(sz, "val")
	if err != nil || current != style.FontSize {
		if style.FontSize == 0 {
			removeNode(rPr, sz)
		} else {
			sz = ensureChild(rPr, "sz", rPrOrder)
			setAttrValue(sz, "val", strconv.Itoa(style.FontSize))
		}
	}

	u := childElement(rPr, "u")
	currentU, _ := attrValue(u, "val")
	if currentU == "none" {
		currentU = ""
	}
	if u == nil || currentU != style.Underline {
		switch {
		case style.Underline != "":
			u = ensureChild(rPr, "u", rPrOrder)
			setAttrValue(u, "val", style.Underline)
		case u != nil:
			removeNode(rPr, u)
		}
	}

	if created && len(rPr.Children) == 0 {
		removeNode(run, rPr)
	}
}

func setNumbering(pPr *xmlNode, numbering *model.Numbering) {
	numPr := childElement(pPr, "numPr")
	if numbering == nil {
		removeNode(pPr, numPr)
		return
	}
	numID, _ := attrValue(childElement(numPr, "numId"), "val")
	level, _ := attrValue(childElement(numPr, "ilvl"), "val")
	if numPr != nil && numID == numbering.NumID && level == numbering.Level {
		return
	}
	numPr = ensureChild(pPr, "numPr", pPrOrder)
	numPr.Children = nil
	if numbering.Level != "" {
		numPr.Children = append(numPr.Children, newElement("ilvl", "val", numbering.Level))
	}
	numPr.Children = append(numPr.Children, newElement("numId", "val", numbering.NumID))
}

// setToggle writes an on/off property. A false value only removes an element
// that is currently on, so an explicit w:val="0" override survives.
func setToggle(parent *xmlNode, local string, on bool, order []string) {
	node := childElement(parent, local)
	if toggleOn(node) == on {
		return
	}
	if !on {
		removeNode(parent, node)
		return
	}
	node = ensureChild(parent, local, order)
	removeAttr(node, "val")
}

func setValElement(parent *xmlNode, local, value string, order []string) {
	node := childElement(parent, local)
	current, _ := attrValue(node, "val")
	if node != nil && current == value {
		return
	}
	if value == "" {
		removeNode(parent, node)
		return
	}
	node = ensureChild(parent, local, order)
	setAttrValue(node, "val", value)
}

func setIntAttr(node *xmlNode, local string, value int) {
	current, ok, err := intAttr(node, local)
	if err == nil && current == value && (ok || value == 0) {
		return
	}
	if value == 0 {
		removeAttr(node, local)
		return
	}
	setAttrValue(node, local, strconv.Itoa(value))
}

func dropIfBare(parent, node *xmlNode) {
	if node != nil && len(node.Attr) == 0 && len(node.Children) == 0 {
		removeNode(parent, node)
	}
}

func removeNode(parent, node *xmlNode) {
	if parent == nil || node == nil {
		return
	}
	for i, child := range parent.Children {
		if child == node {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			return
		}
	}
}

func ensureFirstChild(parent *xmlNode, local string) (*xmlNode, bool) {
	if node := childElement(parent, local); node != nil {
		return node, false
	}
	node := newElement(local)
	parent.Children = append([]*xmlNode{node}, parent.Children...)
	return node, true
}

// ensureChild returns parent's local child, inserting it at its schema
// position when missing. Elements outside the order list sort last.
func ensureChild(parent *xmlNode, local string, order []string) *xmlNode {
	if node := childElement(parent, local); node != nil {
		return node
	}
	rank := schemaRank(local, order)
	node := newElement(local)
	for i, child := range parent.Children {
		if child.IsText {
			continue
		}
		if schemaRank(child.Name.Local, order) > rank {
			parent.Children = append(parent.Children[:i], append([]*xmlNode{node}, parent.Children[i:]...)...)
			return node
		}
	}
	parent.Children = append(parent.Children, node)
	return node
}

func schemaRank(local string, order []string) int {
	for i, name := range order {
		if name == local {
			return i
		}
	}
	return len(order)
}

// Cache holds the snapshots taken during one mutation pass, keyed by paragraph.
// It is not safe for concurrent use; each pass owns one.
type Cache struct {
	snapshots map[*xmlNode]model.StyleSnapshot
	warnings  []error
}

// NewCache returns an empty snapshot cache.
func NewCache() *Cache {
	return &Cache{snapshots: make(map[*xmlNode]model.StyleSnapshot)}
}

// Snapshot captures p once and returns the cached value afterwards. A capture
// failure is recorded as an ErrStyleCapture warning and DefaultStyle is used.
func (c *Cache) Snapshot(p *Paragraph, index int) model.StyleSnapshot {
	if snap, ok := c.snapshots[p.node]; ok {
		return snap
	}
	snap, err := Capture(p)
	if err != nil {
		warning := model.ErrStyleCapture{Paragraph: index, Err: err}
		c.warnings = append(c.warnings, warning)
		telemetry.Warn("render.style_capture_failed", map[string]any{
			"paragraph": index,
			"error":     err.Error(),
		})
	}
	c.snapshots[p.node] = snap
	return snap
}

// Warnings returns the capture failures seen so far.
func (c *Cache) Warnings() []error {
	return c.warnings
}

// Run is one piece of replacement text. Bold and Italic are additive on top
// of the captured run style; Tab emits a tab before the text.
type Run struct {
	Text   string
	Tab    bool
	Bold   bool
	Italic bool
}

// TextReplacer is the only way the placement engine rewrites paragraph text:
// the style is captured before the old runs go and re-applied to the new ones.
type TextReplacer struct {
	cache *Cache
}

// NewTextReplacer binds a replacer to the pass's snapshot cache.
func NewTextReplacer(cache *Cache) *TextReplacer {
	if cache == nil {
		cache = NewCache()
	}
	return &TextReplacer{cache: cache}
}

// Replace swaps the content of p for runs. Paragraph properties and any run
// properties the engine does not manage are kept.
func (r *TextReplacer) Replace(p *Paragraph, index int, runs []Run) {
	snap := r.cache.Snapshot(p, index)

	var template *xmlNode
	if existing := textRuns(p.node); len(existing) > 0 {
		template = cloneNode(childElement(existing[0], "rPr"))
	}

	kept := make([]*xmlNode, 0, len(runs)+1)
	if pPr := childElement(p.node, "pPr"); pPr != nil {
		kept = append(kept, pPr)
	}
	p.node.Children = kept

	applyParagraph(p.node, snap)
	for _, spec := range runs {
		run := newElement("r")
		if template != nil {
			run.Children = append(run.Children, cloneNode(template))
		}
		if spec.Tab {
			run.Children = append(run.Children, newElement("tab"))
		}
		if spec.Text != "" || !spec.Tab {
			run.Children = append(run.Children, newTextElement(spec.Text))
		}
		style := snap.PrimaryRun()
		style.Bold = style.Bold || spec.Bold
		style.Italic = style.Italic || spec.Italic
		applyRun(run, style)
		p.node.Children = append(p.node.Children, run)
	}
}
