// Package taxonomy holds the section synonym table that drives segmentation,
// classification and content validation.
package taxonomy

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"resume-formatter/resume/model"
)

//go:embed taxonomy.json taxonomy.schema.json
var taxonomyFiles embed.FS

const (
	defaultFile = "taxonomy.json"
	schemaFile  = "taxonomy.schema.json"
)

// Entry is the raw table row for one section.
type Entry struct {
	Synonyms            []string `json:"synonyms"`
	HeadingKeywords     []string `json:"headingKeywords"`
	HeadingAntiKeywords []string `json:"headingAntiKeywords"`
	StrongKeywords      []string `json:"strongKeywords"`
	AntiKeywords        []string `json:"antiKeywords"`
	Patterns            []string `json:"patterns"`
}

// Table is the decoded taxonomy document.
type Table struct {
	Sections            map[string]Entry `json:"sections"`
	Other               []string         `json:"other"`
	ActionVerbs         []string         `json:"actionVerbs"`
	InstitutionKeywords []string         `json:"institutionKeywords"`
}

// Synonym is a known heading label and the section it names.
type Synonym struct {
	Text    string
	Section model.Section
}

// Indicators counts the evidence a line carries for one section.
type Indicators struct {
	Keywords int
	Patterns int
	Anti     int
}

// Taxonomy is the compiled, read-only form of a Table. It is safe for concurrent use.
type Taxonomy struct {
	entries     map[model.Section]*compiledEntry
	exact       map[string]model.Section
	synonyms    []Synonym
	actionVerb  *regexp.Regexp
	institution *regexp.Regexp
}

type compiledEntry struct {
	headingKeywords []*regexp.Regexp
	headingAnti     []*regexp.Regexp
	strong          []*regexp.Regexp
	anti            []*regexp.Regexp
	patterns        []*regexp.Regexp
}

var (
	defaultMu  sync.Mutex
	defaultTax *Taxonomy
)

// Default returns the embedded taxonomy, compiling it on first use.
func Default() (*Taxonomy, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultTax != nil {
		return defaultTax, nil
	}
	data, err := taxonomyFiles.ReadFile(defaultFile)
	if err != nil {
		return nil, fmt.Errorf("read embedded taxonomy: %w", err)
	}
	tax, err := Load(data)
	if err != nil {
		return nil, err
	}
	defaultTax = tax
	return defaultTax, nil
}

// MustDefault is Default for package initialisation and tests.
func MustDefault() *Taxonomy {
	tax, err := Default()
	if err != nil {
		panic(fmt.Sprintf("load taxonomy: %v", err))
	}
	return tax
}

// Load validates data against the taxonomy schema and compiles it.
func Load(data []byte) (*Taxonomy, error) {
	if err := validateDocument(data); err != nil {
		return nil, err
	}
	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("decode taxonomy: %w", err)
	}
	return Compile(table)
}

// Compile builds a Taxonomy from an already decoded table.
func Compile(table Table) (*Taxonomy, error) {
	tax := &Taxonomy{
		entries: make(map[model.Section]*compiledEntry, len(table.Sections)),
		exact:   make(map[string]model.Section),
	}

	names := make([]string, 0, len(table.Sections))
	for name := range table.Sections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		section, err := model.ParseSection(name)
		if err != nil || section == model.SectionOther {
			return nil, fmt.Errorf("taxonomy section %q is not a content section", name)
		}
		entry := table.Sections[name]
		compiled, err := compileEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("taxonomy section %s: %w", name, err)
		}
		tax.entries[section] = compiled
		for _, syn := range entry.Synonyms {
			tax.addSynonym(syn, section)
		}
	}
	for _, syn := range table.Other {
		tax.addSynonym(syn, model.SectionOther)
	}

	sort.SliceStable(tax.synonyms, func(i, j int) bool {
		if tax.synonyms[i].Section != tax.synonyms[j].Section {
			return tax.synonyms[i].Section < tax.synonyms[j].Section
		}
		return tax.synonyms[i].Text < tax.synonyms[j].Text
	})

	var err error
	if tax.actionVerb, err = leadingWordPattern(table.ActionVerbs); err != nil {
		return nil, fmt.Errorf("taxonomy action verbs: %w", err)
	}
	if tax.institution, err = anyWordPattern(table.InstitutionKeywords); err != nil {
		return nil, fmt.Errorf("taxonomy institution keywords: %w", err)
	}
	return tax, nil
}

// addSynonym registers a heading label. On conflicts the higher-precedence section keeps it.
func (t *Taxonomy) addSynonym(raw string, section model.Section) {
	norm := Normalize(raw)
	if norm == "" {
		return
	}
	if existing, ok := t.exact[norm]; ok && existing.Precedence() <= section.Precedence() {
		return
	}
	t.exact[norm] = section
	for i := range t.synonyms {
		if t.synonyms[i].Text == norm {
			t.synonyms[i].Section = section
			return
		}
	}
	t.synonyms = append(t.synonyms, Synonym{Text: norm, Section: section})
}

// Exact returns the section whose synonym equals the normalized heading.
func (t *Taxonomy) Exact(norm string) (model.Section, bool) {
	section, ok := t.exact[norm]
	return section, ok
}

// Synonyms returns every known heading label, grouped by section precedence.
func (t *Taxonomy) Synonyms() []Synonym {
	out := make([]Synonym, len(t.synonyms))
	copy(out, t.synonyms)
	return out
}

// KeywordSections returns the sections whose heading keywords appear in the
// normalized heading without any of that section's heading anti-keywords.
func (t *Taxonomy) KeywordSections(norm string) []model.Section {
	var out []model.Section
	for _, section := range model.ContentSections() {
		entry, ok := t.entries[section]
		if !ok {
			continue
		}
		if !anyMatch(entry.headingKeywords, norm) || anyMatch(entry.headingAnti, norm) {
			continue
		}
		out = append(out, section)
	}
	return out
}

// LooksLikeHeading reports whether a raw line reads as a section heading,
// including the boundary-only headings that map to OTHER. A synonym inside a
// longer line only counts when the rest is filler or the line is emphasized
// (bold, upper case or colon terminated).
func (t *Taxonomy) LooksLikeHeading(raw string, emphasized bool) bool {
	norm := Normalize(raw)
	if norm == "" {
		return false
	}
	if _, ok := t.exact[norm]; ok {
		return true
	}
	styled := emphasized || IsShouted(raw) || strings.HasSuffix(strings.TrimSpace(raw), ":")
	for _, syn := range t.synonyms {
		rest, ok := withoutPhrase(norm, syn.Text)
		if !ok {
			continue
		}
		if styled || onlyFiller(rest) {
			return true
		}
	}
	return styled && len(t.KeywordSections(norm)) > 0
}

var fillerWords = map[string]struct{}{
	"and": {}, "of": {}, "my": {}, "key": {}, "relevant": {}, "professional": {}, "additional": {},
	"selected": {}, "other": {}, "technical": {}, "core": {}, "recent": {}, "the": {}, "in": {},
}

// withoutPhrase removes a whole-word phrase from norm and returns the leftover words.
func withoutPhrase(norm, phrase string) ([]string, bool) {
	padded := " " + norm + " "
	needle := " " + phrase + " "
	idx := strings.Index(padded, needle)
	if idx == -1 {
		return nil, false
	}
	rest := padded[:idx] + " " + padded[idx+len(needle):]
	return strings.Fields(rest), true
}

func onlyFiller(words []string) bool {
	for _, word := range words {
		if _, ok := fillerWords[word]; !ok {
			return false
		}
	}
	return true
}

// HasIndicators reports whether content scoring is defined for section.
func (t *Taxonomy) HasIndicators(section model.Section) bool {
	entry, ok := t.entries[section]
	if !ok {
		return false
	}
	return len(entry.strong)+len(entry.patterns) > 0
}

// Score counts the indicators of section that appear in text.
func (t *Taxonomy) Score(text string, section model.Section) Indicators {
	entry, ok := t.entries[section]
	if !ok {
		return Indicators{}
	}
	lower := strings.ToLower(text)
	var ind Indicators
	for _, re := range entry.strong {
		if re.MatchString(lower) {
			ind.Keywords++
		}
	}
	for _, re := range entry.patterns {
		if re.MatchString(text) {
			ind.Patterns++
		}
	}
	for _, re := range entry.anti {
		if re.MatchString(lower) {
			ind.Anti++
		}
	}
	return ind
}

// MatchesPattern reports whether any regex pattern of section matches text.
func (t *Taxonomy) MatchesPattern(text string, section model.Section) bool {
	entry, ok := t.entries[section]
	if !ok {
		return false
	}
	return anyMatch(entry.patterns, text)
}

// StartsWithActionVerb reports whether text opens with an employment-style verb.
func (t *Taxonomy) StartsWithActionVerb(text string) bool {
	if t.actionVerb == nil {
		return false
	}
	return t.actionVerb.MatchString(StripBullet(text))
}

// ContainsActionVerb reports whether an employment-style verb appears anywhere in text.
func (t *Taxonomy) ContainsActionVerb(text string) bool {
	if t.actionVerb == nil {
		return false
	}
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if t.actionVerb.MatchString(strings.Trim(word, ",;:.()")) {
			return true
		}
	}
	return false
}

// InstitutionIndex returns the byte offset of the first institution keyword, or -1.
func (t *Taxonomy) InstitutionIndex(text string) int {
	if t.institution == nil {
		return -1
	}
	loc := t.institution.FindStringIndex(text)
	if loc == nil {
		return -1
	}
	return loc[0]
}

func compileEntry(entry Entry) (*compiledEntry, error) {
	var err error
	out := &compiledEntry{}
	if out.headingKeywords, err = keywordPatterns(entry.HeadingKeywords); err != nil {
		return nil, err
	}
	if out.headingAnti, err = keywordPatterns(entry.HeadingAntiKeywords); err != nil {
		return nil, err
	}
	if out.strong, err = keywordPatterns(entry.StrongKeywords); err != nil {
		return nil, err
	}
	if out.anti, err = keywordPatterns(entry.AntiKeywords); err != nil {
		return nil, err
	}
	for _, raw := range entry.Patterns {
		re, err := regexp.Compile(`(?i)` + raw)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", raw, err)
		}
		out.patterns = append(out.patterns, re)
	}
	return out, nil
}

// keywordPatterns compiles keywords into whole-word matchers that tolerate simple inflections.
func keywordPatterns(words []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(words))
	for _, word := range words {
		clean := strings.ToLower(strings.TrimSpace(word))
		if clean == "" {
			continue
		}
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(clean) + `(?:s|es|ed|ing)?\b`)
		if err != nil {
			return nil, fmt.Errorf("keyword %q: %w", word, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func leadingWordPattern(words []string) (*regexp.Regexp, error) {
	if len(words) == 0 {
		return nil, nil
	}
	return regexp.Compile(`(?i)^(?:` + alternation(words) + `)\b`)
}

func anyWordPattern(words []string) (*regexp.Regexp, error) {
	if len(words) == 0 {
		return nil, nil
	}
	return regexp.Compile(`(?i)\b(?:` + alternation(words) + `)\b`)
}

func alternation(words []string) string {
	quoted := make([]string, 0, len(words))
	for _, word := range words {
		if clean := strings.TrimSpace(word); clean != "" {
			quoted = append(quoted, regexp.QuoteMeta(clean))
		}
	}
	return strings.Join(quoted, "|")
}

func anyMatch(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func validateDocument(data []byte) error {
	schema, err := taxonomyFiles.ReadFile(schemaFile)
	if err != nil {
		return fmt.Errorf("read taxonomy schema: %w", err)
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate taxonomy: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		msgs = append(msgs, field+": "+desc.Description())
	}
	return &SchemaError{Problems: msgs}
}

// SchemaError lists the schema violations of a taxonomy document.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return "invalid taxonomy: " + strings.Join(e.Problems, "; ")
}
