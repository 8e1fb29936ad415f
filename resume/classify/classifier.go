// Package classify labels resume blocks with canonical sections.
package classify

import (
	"context"
	"fmt"
	"sync"

	"resume-formatter/internal/shared/telemetry"
	"resume-formatter/resume/model"
	"resume-formatter/resume/taxonomy"
)

const (
	DefaultMinConfidence     = 0.5
	DefaultFuzzyThreshold    = 0.85
	DefaultKeywordConfidence = 0.6
)

// Options tunes the classifier. Zero values fall back to the defaults.
type Options struct {
	MinConfidence     float64
	FuzzyThreshold    float64
	KeywordConfidence float64
	// Provider backs the semantic stage. Nil uses SharedProvider.
	Provider *Provider
}

func (o Options) withDefaults() Options {
	if o.MinConfidence <= 0 {
		o.MinConfidence = DefaultMinConfidence
	}
	if o.FuzzyThreshold <= 0 {
		o.FuzzyThreshold = DefaultFuzzyThreshold
	}
	if o.KeywordConfidence <= 0 {
		o.KeywordConfidence = DefaultKeywordConfidence
	}
	if o.Provider == nil {
		o.Provider = SharedProvider()
	}
	return o
}

// Classifier runs the ranked strategies and memoises outcomes per heading.
type Classifier struct {
	tax        *taxonomy.Taxonomy
	opts       Options
	strategies []Strategy
	memo       sync.Map // normalized heading -> outcome
}

type outcome struct {
	match     Match
	method    model.Method
	ambiguous bool
	best      Match
}

// New builds a classifier over tax.
func New(tax *taxonomy.Taxonomy, opts Options) *Classifier {
	if tax == nil {
		tax = taxonomy.MustDefault()
	}
	opts = opts.withDefaults()
	return &Classifier{
		tax:  tax,
		opts: opts,
		strategies: []Strategy{
			exactStrategy{tax: tax},
			fuzzyStrategy{tax: tax, threshold: opts.FuzzyThreshold},
			keywordStrategy{tax: tax, confidence: opts.KeywordConfidence},
			semanticStrategy{provider: opts.Provider},
		},
	}
}

// Classify labels one block. The result is always usable; the returned
// errors are warnings for the status report.
func (c *Classifier) Classify(ctx context.Context, block model.SectionBlock) (model.ClassificationResult, []error) {
	if block.Preamble {
		return c.classifyPreamble(block), nil
	}

	heading := taxonomy.Normalize(block.HeadingText)
	res := model.ClassificationResult{Block: block}

	var out outcome
	if cached, ok := c.memo.Load(heading); ok {
		out = cached.(outcome)
	} else {
		var err error
		out, err = c.run(ctx, heading)
		if err != nil {
			telemetry.Warn("classify.semantic_failed", map[string]any{
				"heading": block.HeadingText,
				"error":   err.Error(),
			})
		} else {
			c.memo.Store(heading, out)
		}
	}

	res.Section = out.match.Section
	res.Confidence = out.match.Confidence
	res.Method = out.method
	if out.ambiguous {
		return res, []error{model.ErrClassificationAmbiguous{
			Heading:    block.HeadingText,
			Best:       out.best.Section,
			Confidence: out.best.Confidence,
		}}
	}
	return res, nil
}

// ClassifyAll labels blocks in order and collects every warning.
func (c *Classifier) ClassifyAll(ctx context.Context, blocks []model.SectionBlock) ([]model.ClassificationResult, []error) {
	results := make([]model.ClassificationResult, 0, len(blocks))
	var warnings []error
	for _, block := range blocks {
		res, warns := c.Classify(ctx, block)
		results = append(results, res)
		warnings = append(warnings, warns...)
	}
	return results, warnings
}

func (c *Classifier) run(ctx context.Context, heading string) (outcome, error) {
	var best Match
	for _, strategy := range c.strategies {
		match, ok, err := strategy.Score(ctx, heading)
		if err != nil {
			return ambiguous(best), fmt.Errorf("%s strategy: %w", strategy.Name(), err)
		}
		if !ok {
			continue
		}
		if match.Confidence >= c.opts.MinConfidence {
			return outcome{match: match, method: strategy.Name()}, nil
		}
		if match.Confidence > best.Confidence {
			best = match
		}
	}
	return ambiguous(best), nil
}

func ambiguous(best Match) outcome {
	return outcome{
		match:     Match{Section: model.SectionOther},
		method:    model.MethodNone,
		ambiguous: true,
		best:      best,
	}
}

// classifyPreamble labels headingless leading lines by their content.
func (c *Classifier) classifyPreamble(block model.SectionBlock) model.ClassificationResult {
	for _, line := range block.Lines {
		if c.tax.MatchesPattern(line.Text, model.SectionContact) {
			return model.ClassificationResult{
				Block:      block,
				Section:    model.SectionContact,
				Confidence: c.opts.KeywordConfidence,
				Method:     model.MethodKeyword,
			}
		}
	}
	return model.ClassificationResult{Block: block, Section: model.SectionOther, Method: model.MethodNone}
}

// MatchHeading reports whether a template paragraph reads as a section
// heading, using only the table-driven stages. Keyword-only matches count
// when the paragraph is visually emphasized.
func (c *Classifier) MatchHeading(text string, emphasized bool) (model.Section, bool) {
	heading := taxonomy.Normalize(text)
	if heading == "" {
		return model.SectionOther, false
	}
	ctx := context.Background()
	for _, strategy := range c.strategies[:2] {
		if match, ok, _ := strategy.Score(ctx, heading); ok {
			return match.Section, true
		}
	}
	if !emphasized {
		return model.SectionOther, false
	}
	if match, ok, _ := c.strategies[2].Score(ctx, heading); ok {
		return match.Section, true
	}
	return model.SectionOther, false
}
