package classify

import (
	"context"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"resume-formatter/resume/model"
	"resume-formatter/resume/taxonomy"
)

// Match is a strategy's verdict for one normalized heading.
type Match struct {
	Section    model.Section
	Confidence float64
}

// Strategy scores a normalized heading. ok is false when the strategy has no
// confident opinion; err is reserved for infrastructure failures.
type Strategy interface {
	Name() model.Method
	Score(ctx context.Context, heading string) (match Match, ok bool, err error)
}

type exactStrategy struct {
	tax *taxonomy.Taxonomy
}

func (s exactStrategy) Name() model.Method { return model.MethodExact }

func (s exactStrategy) Score(_ context.Context, heading string) (Match, bool, error) {
	section, ok := s.tax.Exact(heading)
	if !ok {
		return Match{}, false, nil
	}
	return Match{Section: section, Confidence: 1}, true, nil
}

type fuzzyStrategy struct {
	tax       *taxonomy.Taxonomy
	threshold float64
}

func (s fuzzyStrategy) Name() model.Method { return model.MethodFuzzy }

func (s fuzzyStrategy) Score(_ context.Context, heading string) (Match, bool, error) {
	if heading == "" {
		return Match{}, false, nil
	}
	var best Match
	found := false
	// Synonyms arrive in precedence order, so a strict comparison keeps the
	// higher-precedence section on ties.
	for _, syn := range s.tax.Synonyms() {
		sim := similarity(heading, syn.Text)
		if !found || sim > best.Confidence {
			best = Match{Section: syn.Section, Confidence: sim}
			found = true
		}
	}
	if !found || best.Confidence < s.threshold {
		return Match{}, false, nil
	}
	return best, true, nil
}

// similarity is 1 - levenshtein distance over the longer rune length.
func similarity(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

type keywordStrategy struct {
	tax        *taxonomy.Taxonomy
	confidence float64
}

func (s keywordStrategy) Name() model.Method { return model.MethodKeyword }

func (s keywordStrategy) Score(_ context.Context, heading string) (Match, bool, error) {
	sections := s.tax.KeywordSections(heading)
	if len(sections) == 0 {
		return Match{}, false, nil
	}
	return Match{Section: sections[0], Confidence: s.confidence}, true, nil
}

type semanticStrategy struct {
	provider *Provider
}

func (s semanticStrategy) Name() model.Method { return model.MethodSemantic }

// Score always reports the nearest section; the classifier applies the
// minimum confidence so it can describe near misses.
func (s semanticStrategy) Score(ctx context.Context, heading string) (Match, bool, error) {
	section, sim, err := s.provider.Nearest(ctx, heading)
	if err != nil {
		return Match{}, false, err
	}
	return Match{Section: section, Confidence: sim}, true, nil
}
