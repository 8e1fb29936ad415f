// Package validate checks that block bodies belong to the section their heading names.
package validate

import (
	"resume-formatter/resume/model"
	"resume-formatter/resume/taxonomy"
)

const (
	DefaultAcceptThreshold  = 0.6
	DefaultSaturation       = 3.0
	DefaultHeadingPrior     = 0.5
	DefaultRelocationMargin = 0.2
)

// Options tunes line scoring. Zero values fall back to the defaults.
type Options struct {
	AcceptThreshold   float64
	Saturation        float64
	HeadingPrior      float64
	// RelocationMargin is how far another section must outscore the
	// heading's section before a line leaves a headed block.
	RelocationMargin  float64
	FingerprintLength int
}

func (o Options) withDefaults() Options {
	if o.AcceptThreshold <= 0 {
		o.AcceptThreshold = DefaultAcceptThreshold
	}
	if o.Saturation <= 0 {
		o.Saturation = DefaultSaturation
	}
	if o.HeadingPrior <= 0 {
		o.HeadingPrior = DefaultHeadingPrior
	}
	if o.RelocationMargin <= 0 {
		o.RelocationMargin = DefaultRelocationMargin
	}
	if o.FingerprintLength == 0 {
		o.FingerprintLength = DefaultFingerprintLength
	}
	return o
}

// Validator holds the consumed-content set of one run. It is not safe for
// concurrent use; create one per resume.
type Validator struct {
	tax        *taxonomy.Taxonomy
	opts       Options
	fp         Fingerprinter
	usedBlocks map[string]model.Section
	usedLines  map[string]model.Section
}

// New returns a validator with an empty used set.
func New(tax *taxonomy.Taxonomy, opts Options) *Validator {
	if tax == nil {
		tax = taxonomy.MustDefault()
	}
	opts = opts.withDefaults()
	return &Validator{
		tax:        tax,
		opts:       opts,
		fp:         Fingerprinter{Length: opts.FingerprintLength},
		usedBlocks: make(map[string]model.Section),
		usedLines:  make(map[string]model.Section),
	}
}

// ValidateAll validates classified blocks in document order.
func (v *Validator) ValidateAll(results []model.ClassificationResult) ([]model.ValidatedContent, []error) {
	out := make([]model.ValidatedContent, 0, len(results))
	var warnings []error
	for _, res := range results {
		content, warns := v.Validate(res)
		out = append(out, content)
		warnings = append(warnings, warns...)
	}
	return out, warnings
}

// Validate filters one block's lines. It never fails; conflicts and
// duplicates are returned as warnings.
func (v *Validator) Validate(res model.ClassificationResult) (model.ValidatedContent, []error) {
	block := res.Block
	content := model.ValidatedContent{
		Section:  res.Section,
		Heading:  block.HeadingText,
		Headless: block.Preamble || (res.Section == model.SectionOther && res.Method == model.MethodNone),
	}

	texts := make([]string, 0, len(block.Lines))
	for _, line := range block.Lines {
		texts = append(texts, line.Text)
	}
	if blockKey := v.fp.SumLines(texts); blockKey != "" {
		if _, seen := v.usedBlocks[blockKey]; seen {
			return content, []error{model.ErrDuplicateContent{Heading: block.HeadingText, Section: res.Section}}
		}
		v.usedBlocks[blockKey] = res.Section
	}

	var warnings []error
	for _, line := range block.Lines {
		key := v.fp.Sum(line.Text)
		if key == "" {
			continue
		}
		if _, seen := v.usedLines[key]; seen {
			warnings = append(warnings, model.ErrDuplicateContent{Heading: block.HeadingText, Section: res.Section})
			continue
		}

		suggested, ok := v.judge(line.Text, res.Section, content.Headless)
		if ok {
			content.Lines = append(content.Lines, line)
			v.usedLines[key] = res.Section
			continue
		}
		content.Rejected = append(content.Rejected, model.RejectedLine{Line: line, Suggested: suggested})
		warnings = append(warnings, model.ErrContentConflict{Line: line, Assigned: res.Section, Suggested: suggested})
		if content.Headless {
			v.usedLines[key] = suggested
		}
	}
	return content, warnings
}

// judge decides whether text stays in assigned. When it does not, it
// returns the section that fits better.
func (v *Validator) judge(text string, assigned model.Section, headless bool) (model.Section, bool) {
	if assigned == model.SectionOther && !headless {
		return model.SectionOther, true
	}

	scores := v.Scores(text)
	if headless {
		own := 0.0
		if assigned != model.SectionOther {
			own = scores[assigned]
		}
		best, bestScore := argmax(scores, assigned)
		if bestScore >= v.opts.AcceptThreshold && bestScore > own {
			return best, false
		}
		return assigned, true
	}

	// Under a heading a line stays unless its own evidence is net negative
	// or another section clears the bar and beats the heading by the margin.
	own := clamp01(v.rawScore(text, assigned) + v.opts.HeadingPrior)
	best, bestScore := argmax(scores, assigned)
	switch {
	case own <= 0 && bestScore <= 0:
		return model.SectionOther, false
	case own <= 0:
		return best, false
	case bestScore >= v.opts.AcceptThreshold && bestScore > own+v.opts.RelocationMargin:
		return best, false
	default:
		return assigned, true
	}
}

// Scores returns the clamped evidence score of text for every content section.
func (v *Validator) Scores(text string) map[model.Section]float64 {
	out := make(map[model.Section]float64, len(model.ContentSections()))
	for _, section := range model.ContentSections() {
		out[section] = clamp01(v.rawScore(text, section))
	}
	return out
}

func (v *Validator) rawScore(text string, section model.Section) float64 {
	ind := v.tax.Score(text, section)
	return float64(ind.Keywords+2*ind.Patterns-3*ind.Anti) / v.opts.Saturation
}

// argmax returns the highest scoring section other than skip. Ties go to
// the higher-precedence section.
func argmax(scores map[model.Section]float64, skip model.Section) (model.Section, float64) {
	best := model.SectionOther
	bestScore := 0.0
	for _, section := range model.ContentSections() {
		if section == skip {
			continue
		}
		if score := scores[section]; score > bestScore {
			best = section
			bestScore = score
		}
	}
	return best, bestScore
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
