package build

import (
	"regexp"
	"strings"

	"resume-formatter/resume/dates"
	"resume-formatter/resume/model"
	"resume-formatter/resume/taxonomy"
)

var (
	educationSplitRe = regexp.MustCompile(`\s*(?:,|\s-\s|\s–\s|\s\|\s|\s+at\s+|\s+from\s+)\s*`)
	degreeRe         = regexp.MustCompile(`(?i)\b(?:bachelor|master|associate|doctor(?:ate)?|ph\.?d|mba|b\.?sc?|m\.?sc?|b\.?a|m\.?a|diploma|degree)\b`)
)

// education parses degree entries. Lines opening with an employment verb
// never reach an entry, whatever validation decided.
func (b *Builder) education(raw []string) []model.EducationEntry {
	var entries []model.EducationEntry
	current := func() *model.EducationEntry {
		if len(entries) == 0 {
			return nil
		}
		return &entries[len(entries)-1]
	}

	for _, line := range b.bodyLines(raw) {
		if b.tax.StartsWithActionVerb(line) {
			continue
		}
		cur := current()
		if taxonomy.HasBullet(line) && cur != nil {
			cur.Bullets = append(cur.Bullets, taxonomy.StripBullet(line))
			continue
		}

		degree, institution, year := b.splitEducation(taxonomy.StripBullet(line))
		switch {
		case degree == "" && institution == "" && year != "":
			if cur != nil && cur.Year == "" {
				cur.Year = year
			}
		case cur != nil && cur.Institution == "" && degree == "" && institution != "":
			cur.Institution = institution
			if cur.Year == "" {
				cur.Year = year
			}
		case cur != nil && cur.Degree == "" && institution == "" && degree != "":
			cur.Degree = degree
			if cur.Year == "" {
				cur.Year = year
			}
		case cur != nil && cur.Institution != "" && cur.Degree != "" && institution == "" && year == "" && !degreeRe.MatchString(degree):
			cur.Bullets = append(cur.Bullets, degree)
		default:
			entries = append(entries, model.EducationEntry{Degree: degree, Institution: institution, Year: year})
		}
	}

	out := entries[:0]
	for _, entry := range entries {
		if strings.TrimSpace(entry.Degree) == "" && strings.TrimSpace(entry.Institution) == "" {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// splitEducation separates a line into degree, institution and year. The
// part naming an institution keyword is the institution.
func (b *Builder) splitEducation(line string) (degree, institution, year string) {
	year = dates.CleanDuration(line)
	rest := dates.StripDates(line)
	if rest == "" {
		return "", "", year
	}

	var degreeParts []string
	for _, part := range educationSplitRe.Split(rest, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if institution == "" && b.tax.InstitutionIndex(part) >= 0 {
			institution = cleanCompany(part)
			continue
		}
		if institution != "" && len(degreeParts) > 0 {
			// trailing location after the institution
			continue
		}
		degreeParts = append(degreeParts, part)
	}
	degree = strings.Join(degreeParts, ", ")
	return degree, institution, year
}
