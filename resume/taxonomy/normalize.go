package taxonomy

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const bulletRunes = "•·▪●◦‣∙○■□➢➤►-–—*>"

// Normalize folds a heading or line into the comparison form used by every
// matcher: NFKC, lower case, no bullet or numbering prefix, no trailing colon,
// "&" spelled out, single spaces.
func Normalize(text string) string {
	clean := norm.NFKC.String(text)
	clean = StripBullet(clean)
	clean = strings.ToLower(clean)
	clean = strings.ReplaceAll(clean, "&", " and ")
	clean = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case r == '/' || r == '+' || r == '#' || r == '.' || r == '\'':
			return r
		default:
			return ' '
		}
	}, clean)
	clean = strings.Join(strings.Fields(clean), " ")
	return strings.Trim(clean, " .")
}

// StripBullet removes a leading bullet marker or list number.
func StripBullet(text string) string {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimLeft(trimmed, bulletRunes+" \t")
	if idx := strings.IndexAny(trimmed, ".)"); idx > 0 && idx <= 3 && isDigits(trimmed[:idx]) {
		trimmed = strings.TrimSpace(trimmed[idx+1:])
	}
	return strings.TrimSpace(trimmed)
}

// HasBullet reports whether the line opens with a bullet marker.
func HasBullet(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	r := []rune(trimmed)[0]
	return strings.ContainsRune(bulletRunes, r)
}

// WordCount counts whitespace separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsShouted reports whether the line is written in capitals.
func IsShouted(text string) bool {
	letters := 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		if unicode.IsLower(r) {
			return false
		}
		letters++
	}
	return letters >= 2
}
