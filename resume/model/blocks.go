package model

// RawLine is one line of resume text in reading order.
type RawLine struct {
	Text        string `json:"text"`
	Ordinal     int    `json:"ordinal"`
	SourceStyle any    `json:"sourceStyle,omitempty"`
}

// SectionBlock is a heading plus the body lines that follow it.
type SectionBlock struct {
	HeadingText  string    `json:"headingText"`
	Lines        []RawLine `json:"lines"`
	StartOrdinal int       `json:"startOrdinal"`
	EndOrdinal   int       `json:"endOrdinal"`
	// Preamble marks the lines that precede the first detected heading.
	Preamble bool `json:"preamble,omitempty"`
}

// ClassificationResult is the label assigned to a block.
type ClassificationResult struct {
	Block      SectionBlock `json:"block"`
	Section    Section      `json:"section"`
	Confidence float64      `json:"confidence"`
	Method     Method       `json:"method"`
}

// RejectedLine is a body line that did not fit its block's section.
type RejectedLine struct {
	Line      RawLine `json:"line"`
	Suggested Section `json:"suggested"`
}

// ValidatedContent holds the lines of one block that survived validation.
type ValidatedContent struct {
	Section  Section        `json:"section"`
	Heading  string         `json:"heading"`
	Lines    []RawLine      `json:"lines"`
	Rejected []RejectedLine `json:"rejected,omitempty"`
	// Headless marks content without a trusted heading (a preamble or an
	// ambiguous heading). Its rejected lines may be relocated.
	Headless bool `json:"headless,omitempty"`
}

// Texts returns the text of every accepted line.
func (v ValidatedContent) Texts() []string {
	out := make([]string, 0, len(v.Lines))
	for _, line := range v.Lines {
		out = append(out, line.Text)
	}
	return out
}
