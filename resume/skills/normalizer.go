// Package skills turns free-text skill lines into discrete skill statements.
package skills

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"resume-formatter/resume/dates"
	"resume-formatter/resume/model"
	"resume-formatter/resume/taxonomy"
)

const (
	maxListLine = 100
	minToken    = 2
	maxToken    = 40
)

var (
	prefixRe        = regexp.MustCompile(`(?i)^\s*(?:skilled in|proficient in|proficiency in|experienced in|experience with|hands-on experience with|knowledge of|expertise in|familiar with)\s+`)
	listSplitRe     = regexp.MustCompile(`,\s*(?:and\s+)?`)
	connectorListRe = regexp.MustCompile(`(?i)\b(?:including|such as|like)\s+(.+?)(?:\s+(?:for|to)\s|$)`)
	itemSplitRe     = regexp.MustCompile(`,\s*(?:and\s+)?|\s+and\s+`)
	leadingVerbRe   = regexp.MustCompile(`(?i)^(?:using|creating|updating|managing|implementing|configuring|analyzing|monitoring|troubleshooting|maintaining)\s+`)
	trailingRe      = regexp.MustCompile(`\s+(?:for|to|with|in|on|at)\s+.*$`)
	stopPrefixes    = []string{"and ", "or ", "the ", "a ", "for ", "to "}
)

type compiledTerm struct {
	term     Term
	patterns []*regexp.Regexp
}

// Normalizer extracts skills using a curated vocabulary and list heuristics.
type Normalizer struct {
	terms []compiledTerm
	now   func() time.Time
}

// New compiles vocab. A nil vocab uses DefaultVocabulary.
func New(vocab []Term) *Normalizer {
	if vocab == nil {
		vocab = DefaultVocabulary
	}
	n := &Normalizer{now: time.Now}
	for _, term := range vocab {
		ct := compiledTerm{term: term}
		for _, name := range append([]string{term.Name}, term.Aliases...) {
			flags := "(?i)"
			if term.CaseSensitive {
				flags = ""
			}
			ct.patterns = append(ct.patterns, regexp.MustCompile(flags+`(?:^|[^\pL\pN+#])(`+regexp.QuoteMeta(name)+`)(?:$|[^\pL\pN+#])`))
		}
		n.terms = append(n.terms, ct)
	}
	return n
}

// WithClock overrides the clock used for "last used" years.
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	n.now = now
	return n
}

type token struct {
	text     string
	category string
}

// Normalize converts raw skill lines into statements. experience supplies
// the date ranges behind YearsUsed and LastUsed.
func (n *Normalizer) Normalize(lines []string, experience []model.ExperienceEntry) []model.SkillStatement {
	var out []model.SkillStatement
	seen := make(map[string]struct{})
	grouped := make(map[string]struct{})
	var groupOrder []string

	add := func(tok token) {
		key := strings.ToLower(tok.text)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		years, last := n.usage(tok.text, tok.category, experience)
		out = append(out, model.SkillStatement{Text: tok.text, Category: tok.category, YearsUsed: years, LastUsed: last})
	}

	for _, raw := range lines {
		line := strings.TrimSpace(taxonomy.StripBullet(raw))
		if line == "" {
			continue
		}
		if toks := n.extract(line); len(toks) > 0 {
			for _, tok := range toks {
				add(tok)
			}
			continue
		}
		category := categorize(line)
		if _, ok := grouped[category]; !ok {
			grouped[category] = struct{}{}
			groupOrder = append(groupOrder, category)
		}
	}

	for _, category := range groupOrder {
		add(token{text: categoryStatement(category), category: category})
	}
	return out
}

// extract applies the token rules to one line in order and returns the
// output of the first rule that produces anything.
func (n *Normalizer) extract(line string) []token {
	if toks := n.vocabulary(line); len(toks) > 0 {
		return toks
	}
	if toks := n.commaList(line); len(toks) > 0 {
		return toks
	}
	return n.connectorList(line)
}

// Tokens returns the discrete skills found in one line, if any rule applies.
func (n *Normalizer) Tokens(line string) []string {
	toks := n.extract(line)
	out := make([]string, 0, len(toks))
	for _, tok := range toks {
		out = append(out, tok.text)
	}
	return out
}

func (n *Normalizer) vocabulary(line string) []token {
	type hit struct {
		start, end int
		term       Term
	}
	var hits []hit
	for _, ct := range n.terms {
		for _, re := range ct.patterns {
			for _, loc := range re.FindAllStringSubmatchIndex(line, -1) {
				hits = append(hits, hit{start: loc[2], end: loc[3], term: ct.term})
			}
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].start != hits[j].start {
			return hits[i].start < hits[j].start
		}
		return hits[i].end > hits[j].end
	})

	var out []token
	covered := -1
	for _, h := range hits {
		if h.start < covered {
			continue
		}
		covered = h.end
		out = append(out, token{text: h.term.Name, category: h.term.Category})
	}
	return out
}

func (n *Normalizer) commaList(line string) []token {
	if len(line) >= maxListLine || !strings.Contains(line, ",") {
		return nil
	}
	cleaned := prefixRe.ReplaceAllString(line, "")
	var out []token
	for _, part := range listSplitRe.Split(cleaned, -1) {
		part = leadingVerbRe.ReplaceAllString(strings.TrimSpace(part), "")
		part = trailingRe.ReplaceAllString(part, "")
		if tok, ok := n.cleanToken(part); ok {
			out = append(out, tok)
		}
	}
	return out
}

func (n *Normalizer) connectorList(line string) []token {
	var out []token
	for _, m := range connectorListRe.FindAllStringSubmatch(line, -1) {
		for _, item := range itemSplitRe.Split(m[1], -1) {
			if tok, ok := n.cleanToken(item); ok {
				out = append(out, tok)
			}
		}
	}
	return out
}

func (n *Normalizer) cleanToken(raw string) (token, bool) {
	text := strings.Trim(strings.TrimSpace(raw), ".;: ")
	if len(text) < minToken || len(text) > maxToken {
		return token{}, false
	}
	lower := strings.ToLower(text)
	for _, prefix := range stopPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return token{}, false
		}
	}
	if isLower(text) {
		text = cases.Title(language.English).String(text)
	}
	return token{text: text, category: categorize(text)}, true
}

func isLower(text string) bool {
	for _, r := range text {
		if unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func categorize(text string) string {
	lower := strings.ToLower(text)
	for _, hint := range categoryHints {
		for _, word := range hint.Words {
			if strings.Contains(lower, word) {
				return hint.Category
			}
		}
	}
	return CategoryGeneral
}

func categoryStatement(category string) string {
	if statement, ok := categoryStatements[category]; ok {
		return statement
	}
	return categoryStatements[CategoryGeneral]
}

// usage derives YearsUsed and LastUsed from the experience entries.
func (n *Normalizer) usage(text, category string, experience []model.ExperienceEntry) (string, string) {
	current := n.now().Year()
	needle := strings.ToLower(text)

	first, last, mentionLast := 0, 0, 0
	mentioned := false
	for _, exp := range experience {
		start, end, ok := dates.Span(exp.DateRange, current)
		if !ok {
			continue
		}
		if !mentions(exp, needle) {
			if !mentioned {
				first, last = widen(first, last, start, end)
			}
			continue
		}
		if !mentioned {
			first, last = 0, 0
			mentioned = true
		}
		first, last = widen(first, last, start, end)
		if end > mentionLast {
			mentionLast = end
		}
	}
	if first == 0 {
		return "", ""
	}

	years := last - first
	if years < 1 {
		years = 1
	}
	if limit, ok := categoryCaps[category]; ok && years > limit {
		years = limit
	}
	lastUsed := current
	if mentioned && mentionLast < current {
		lastUsed = mentionLast
	}
	return fmt.Sprintf("%d+ years", years), strconv.Itoa(lastUsed)
}

func widen(first, last, start, end int) (int, int) {
	if first == 0 || start < first {
		first = start
	}
	if end > last {
		last = end
	}
	return first, last
}

func mentions(exp model.ExperienceEntry, needle string) bool {
	if strings.Contains(strings.ToLower(exp.Company+" "+exp.Role), needle) {
		return true
	}
	for _, bullet := range exp.Bullets {
		if strings.Contains(strings.ToLower(bullet), needle) {
			return true
		}
	}
	return false
}
