// Package dates normalizes the free-form date ranges found in resumes.
package dates

import (
	"regexp"
	"strconv"
	"strings"
)

const monthPattern = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?`

var (
	yearRe       = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	monthYearRe  = regexp.MustCompile(`(?i)\b(` + monthPattern + `)\s*,?\s*((?:19|20)\d{2})\b`)
	presentRe    = regexp.MustCompile(`(?i)\b(?:present|current|now)\b`)
	connectorRe  = regexp.MustCompile(`(?i)\s*(?:\bto\b|[-–—])\s*`)
	dateSpanRe   = regexp.MustCompile(`(?i)\(?\b(?:` + monthPattern + `\s*,?\s*)?(?:19|20)\d{2}(?:\s*(?:\bto\b|[-–—])\s*(?:(?:` + monthPattern + `\s*,?\s*)?(?:19|20)\d{2}|present|current|now))?\b\)?`)
	separatorSet = " ,;:-|–—()"
)

var monthAbbr = map[string]string{
	"jan": "Jan", "feb": "Feb", "mar": "Mar", "apr": "Apr", "may": "May", "jun": "Jun",
	"jul": "Jul", "aug": "Aug", "sep": "Sept", "oct": "Oct", "nov": "Nov", "dec": "Dec",
}

// HasYear reports whether text mentions a plausible year.
func HasYear(text string) bool {
	return yearRe.MatchString(text)
}

// CleanDuration rewrites a date range as "Mon YYYY-Mon YYYY", "Mon YYYY-Present",
// "YYYY-YYYY", "YYYY-Present" or a single "YYYY". September is spelled "Sept".
func CleanDuration(text string) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return ""
	}
	t = connectorRe.ReplaceAllString(t, "-")
	present := presentRe.MatchString(t)

	if pairs := monthYearRe.FindAllStringSubmatch(t, -1); len(pairs) > 0 {
		start := abbr(pairs[0][1]) + " " + pairs[0][2]
		if len(pairs) >= 2 {
			last := pairs[len(pairs)-1]
			return start + "-" + abbr(last[1]) + " " + last[2]
		}
		if present {
			return start + "-Present"
		}
		if years := yearRe.FindAllString(t, -1); len(years) >= 2 {
			return start + "-" + years[len(years)-1]
		}
		return start
	}

	years := yearRe.FindAllString(t, -1)
	switch {
	case len(years) >= 2:
		return years[0] + "-" + years[len(years)-1]
	case len(years) == 1 && present:
		return years[0] + "-Present"
	case len(years) == 1:
		return years[0]
	default:
		return ""
	}
}

func abbr(month string) string {
	key := strings.ToLower(strings.TrimSuffix(month, "."))
	if len(key) > 3 {
		key = key[:3]
	}
	if out, ok := monthAbbr[key]; ok {
		return out
	}
	return month
}

// StripDates removes date ranges and years from text and trims the
// separators they leave behind.
func StripDates(text string) string {
	out := dateSpanRe.ReplaceAllString(text, " ")
	out = strings.Join(strings.Fields(out), " ")
	return strings.Trim(out, separatorSet)
}

// Span returns the first and last year of a range. Open ranges end in currentYear.
func Span(text string, currentYear int) (start, end int, ok bool) {
	years := yearRe.FindAllString(text, -1)
	if len(years) == 0 {
		return 0, 0, false
	}
	start, _ = strconv.Atoi(years[0])
	end, _ = strconv.Atoi(years[len(years)-1])
	if presentRe.MatchString(text) || (len(years) == 1 && strings.Contains(text, "-")) {
		end = currentYear
	}
	if end < start {
		start, end = end, start
	}
	return start, end, true
}
