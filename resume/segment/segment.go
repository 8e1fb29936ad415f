// Package segment splits extracted resume lines into heading-delimited blocks.
package segment

import (
	"strings"
	"unicode/utf8"

	"resume-formatter/resume/model"
	"resume-formatter/resume/taxonomy"
)

const (
	maxHeadingRunes = 50
	maxHeadingWords = 6
)

// Emphasizer is implemented by extractor style hints that know whether a
// line was visually emphasized (bold run, heading paragraph style).
type Emphasizer interface {
	Emphasized() bool
}

// Segmenter groups lines under the headings it recognizes.
type Segmenter struct {
	tax *taxonomy.Taxonomy
}

// New returns a Segmenter backed by tax. A nil tax uses the embedded default.
func New(tax *taxonomy.Taxonomy) *Segmenter {
	if tax == nil {
		tax = taxonomy.MustDefault()
	}
	return &Segmenter{tax: tax}
}

// Segment returns blocks covering every input line exactly once, in order.
// Lines ahead of the first heading form a preamble block; input without any
// heading becomes a single preamble block.
func (s *Segmenter) Segment(lines []model.RawLine) []model.SectionBlock {
	if len(lines) == 0 {
		return nil
	}

	var blocks []model.SectionBlock
	var current *model.SectionBlock
	flush := func() {
		if current != nil {
			blocks = append(blocks, *current)
			current = nil
		}
	}

	for _, line := range lines {
		if s.IsHeading(line) {
			flush()
			current = &model.SectionBlock{
				HeadingText:  strings.TrimSpace(line.Text),
				StartOrdinal: line.Ordinal,
				EndOrdinal:   line.Ordinal,
			}
			continue
		}
		if current == nil {
			current = &model.SectionBlock{
				StartOrdinal: line.Ordinal,
				Preamble:     true,
			}
		}
		current.Lines = append(current.Lines, line)
		current.EndOrdinal = line.Ordinal
	}
	flush()
	return blocks
}

// IsHeading reports whether a line opens a new section.
func (s *Segmenter) IsHeading(line model.RawLine) bool {
	text := strings.TrimSpace(line.Text)
	if text == "" {
		return false
	}
	if utf8.RuneCountInString(text) > maxHeadingRunes || taxonomy.WordCount(text) > maxHeadingWords {
		return false
	}
	if strings.ContainsAny(text, ".,") {
		return false
	}
	if taxonomy.HasBullet(text) || strings.ContainsRune(`"'“‘`, []rune(text)[0]) {
		return false
	}
	return s.tax.LooksLikeHeading(text, emphasized(line))
}

func emphasized(line model.RawLine) bool {
	if hint, ok := line.SourceStyle.(Emphasizer); ok {
		return hint.Emphasized()
	}
	return false
}
