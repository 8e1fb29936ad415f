package build

import (
	"regexp"
	"strings"
	"unicode"

	"resume-formatter/resume/dates"
	"resume-formatter/resume/model"
	"resume-formatter/resume/taxonomy"
)

const (
	maxHeaderWords  = 10
	maxDatedWords   = 14
	maxCompanyWords = 6
)

var (
	locationTailRe = regexp.MustCompile(`(?i),[^,]*\b(?:city|state|india|usa|uk)\b.*$`)
	atRe           = regexp.MustCompile(`(?i)\s+at\s+`)
	companyWordRe  = regexp.MustCompile(`(?i)\b(?:inc|llc|ltd|corp|corporation|company|co|group|gmbh|plc)\b\.?`)
)

// experience parses job entries. A dated line carries the role and dates;
// an undated line right before it, or a short line right after it, names
// the company. Two undated header lines ahead of body text are a company
// and role pair. Everything else is a bullet of the latest entry.
func (b *Builder) experience(raw []string) []model.ExperienceEntry {
	lines := b.bodyLines(raw)
	var entries []model.ExperienceEntry
	var orphans, pending []string

	addBullet := func(text string) {
		text = taxonomy.StripBullet(text)
		if text == "" {
			return
		}
		if len(entries) == 0 {
			orphans = append(orphans, text)
			return
		}
		last := &entries[len(entries)-1]
		last.Bullets = append(last.Bullets, text)
	}
	flushPending := func() {
		for _, p := range pending {
			addBullet(p)
		}
		pending = nil
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		switch {
		case b.isDated(line):
			entry, used := b.datedEntry(line, pending)
			for _, p := range pending[:len(pending)-used] {
				addBullet(p)
			}
			pending = nil
			if entry.Company == "" && i+1 < len(lines) && b.followingCompany(lines, i+1) {
				entry.Company = cleanCompany(lines[i+1])
				i++
			}
			entries = append(entries, entry)

		case b.isHeaderish(line) && b.datedWithin(lines, i, 2):
			pending = append(pending, line)

		case b.isUndatedPair(lines, i, entries):
			flushPending()
			entries = append(entries, pairEntry(line, lines[i+1]))
			i++

		case b.isUndatedHeader(lines, i, entries):
			flushPending()
			company, role := splitCompanyRole(line)
			entries = append(entries, model.ExperienceEntry{Company: company, Role: role})

		default:
			flushPending()
			addBullet(line)
		}
	}
	flushPending()

	if len(orphans) > 0 && len(entries) > 0 {
		entries[0].Bullets = append(orphans, entries[0].Bullets...)
	}

	out := entries[:0]
	for _, entry := range entries {
		if strings.TrimSpace(entry.Company) == "" && strings.TrimSpace(entry.Role) == "" {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// datedEntry builds an entry from a dated line and the undated header lines
// before it. It reports how many pending lines it consumed from the end.
func (b *Builder) datedEntry(line string, pending []string) (model.ExperienceEntry, int) {
	entry := model.ExperienceEntry{DateRange: dates.CleanDuration(line)}
	rest := dates.StripDates(line)
	if rest != "" {
		entry.Company, entry.Role = splitCompanyRole(rest)
	}

	switch {
	case len(pending) == 0:
		return entry, 0
	case rest == "" && len(pending) >= 2:
		first, second := pending[len(pending)-2], pending[len(pending)-1]
		if looksLikeCompany(first) && !looksLikeCompany(second) {
			entry.Company, entry.Role = cleanCompany(first), second
		} else {
			entry.Role, entry.Company = first, cleanCompany(second)
		}
		return entry, 2
	}

	head := pending[len(pending)-1]
	switch {
	case entry.Company == "" && entry.Role == "":
		entry.Company, entry.Role = splitCompanyRole(head)
		if entry.Company == "" {
			entry.Company, entry.Role = cleanCompany(entry.Role), ""
		}
	case entry.Company == "":
		entry.Company = cleanCompany(head)
	case entry.Role == "":
		entry.Role = head
	default:
		return entry, 0
	}
	return entry, 1
}

// isDated reports whether line is a job header carrying dates.
func (b *Builder) isDated(line string) bool {
	return dates.HasYear(line) &&
		!taxonomy.HasBullet(line) &&
		!b.tax.StartsWithActionVerb(line) &&
		!strings.HasSuffix(line, ".") &&
		taxonomy.WordCount(line) <= maxDatedWords
}

// isHeaderish reports whether line could be a company or role label.
func (b *Builder) isHeaderish(line string) bool {
	if line == "" || taxonomy.HasBullet(line) || strings.HasSuffix(line, ".") {
		return false
	}
	if taxonomy.WordCount(line) > maxHeaderWords || b.tax.ContainsActionVerb(line) {
		return false
	}
	first := []rune(line)[0]
	return unicode.IsUpper(first) || unicode.IsDigit(first)
}

// datedWithin reports whether a dated line follows i within n lines, with
// only header-like lines in between.
func (b *Builder) datedWithin(lines []string, i, n int) bool {
	for k := i + 1; k <= i+n && k < len(lines); k++ {
		if b.isDated(lines[k]) {
			return true
		}
		if !b.isHeaderish(lines[k]) {
			return false
		}
	}
	return false
}

// followingCompany reports whether lines[i] names the company of the entry above it.
func (b *Builder) followingCompany(lines []string, i int) bool {
	line := lines[i]
	if !b.isHeaderish(line) || b.isDated(line) || taxonomy.WordCount(line) > maxCompanyWords {
		return false
	}
	return !b.datedWithin(lines, i, 2)
}

// isUndatedHeader accepts "Company - Role" style lines when the section has
// no dates, provided bullets follow and the current entry already has some.
func (b *Builder) isUndatedHeader(lines []string, i int, entries []model.ExperienceEntry) bool {
	line := lines[i]
	if !b.isHeaderish(line) || i+1 >= len(lines) || !taxonomy.HasBullet(lines[i+1]) {
		return false
	}
	if company, _ := splitCompanyRole(line); company == "" {
		return false
	}
	return len(entries) == 0 || len(entries[len(entries)-1].Bullets) > 0
}

// isUndatedPair reports whether lines[i] and lines[i+1] are two header lines
// with no dates that open an entry: body text or a bullet must follow them.
func (b *Builder) isUndatedPair(lines []string, i int, entries []model.ExperienceEntry) bool {
	if i+2 >= len(lines) {
		return false
	}
	line, next, body := lines[i], lines[i+1], lines[i+2]
	if !b.isHeaderish(line) || !b.isHeaderish(next) || b.isDated(next) {
		return false
	}
	if !taxonomy.HasBullet(body) && (b.isHeaderish(body) || b.isDated(body)) {
		return false
	}
	return len(entries) == 0 || len(entries[len(entries)-1].Bullets) > 0
}

// pairEntry orders a company and role pair. The first line is the company
// unless only the second one carries a company suffix.
func pairEntry(first, second string) model.ExperienceEntry {
	if looksLikeCompany(second) && !looksLikeCompany(first) {
		return model.ExperienceEntry{Company: cleanCompany(second), Role: first}
	}
	return model.ExperienceEntry{Company: cleanCompany(first), Role: second}
}

// splitCompanyRole splits "Company - Role", "Company | Role", "Role at Company"
// and "Role, Company". Without a separator the whole text is the role.
func splitCompanyRole(text string) (company, role string) {
	text = strings.TrimSpace(text)
	for _, sep := range []string{" - ", " – ", " — ", " | "} {
		if parts := strings.SplitN(text, sep, 2); len(parts) == 2 {
			return cleanCompany(parts[0]), strings.TrimSpace(parts[1])
		}
	}
	if parts := atRe.Split(text, 2); len(parts) == 2 {
		return cleanCompany(parts[1]), strings.TrimSpace(parts[0])
	}
	if parts := strings.SplitN(text, ", ", 2); len(parts) == 2 {
		return cleanCompany(parts[1]), strings.TrimSpace(parts[0])
	}
	return "", text
}

func cleanCompany(text string) string {
	return strings.TrimSpace(locationTailRe.ReplaceAllString(strings.TrimSpace(text), ""))
}

func looksLikeCompany(text string) bool {
	return companyWordRe.MatchString(text)
}
