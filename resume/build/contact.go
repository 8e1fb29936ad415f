package build

import (
	"regexp"
	"strings"
	"unicode"

	"resume-formatter/resume/model"
	"resume-formatter/resume/taxonomy"
)

var (
	emailRe    = regexp.MustCompile(`(?i)[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`)
	phoneRe    = regexp.MustCompile(`(?:\+\d{1,3}[\s.-]?)?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}\b`)
	linkRe     = regexp.MustCompile(`(?i)\b(?:https?://\S+|(?:www\.)?(?:linkedin\.com|github\.com)/\S+)`)
	locationRe = regexp.MustCompile(`\b[A-Z][a-zA-Z.]+(?:\s[A-Z][a-zA-Z.]+)*,\s?(?:[A-Z]{2}|[A-Z][a-z]+)\b`)
	segmentRe  = regexp.MustCompile(`\s*[|•·]\s*|\s{3,}`)
)

// contact pulls identity details out of the header lines.
func (b *Builder) contact(raw []string) model.ContactInfo {
	var info model.ContactInfo
	seenLinks := make(map[string]struct{})

	for _, line := range b.bodyLines(raw) {
		for _, segment := range segmentRe.Split(taxonomy.StripBullet(line), -1) {
			segment = strings.TrimSpace(segment)
			if segment == "" {
				continue
			}
			consumed := false
			if info.Email == "" {
				if m := emailRe.FindString(segment); m != "" {
					info.Email = m
					consumed = true
				}
			}
			for _, m := range linkRe.FindAllString(segment, -1) {
				link := strings.TrimRight(m, ".,;)")
				if !strings.HasPrefix(strings.ToLower(link), "http") {
					link = "https://" + link
				}
				if _, ok := seenLinks[link]; !ok {
					seenLinks[link] = struct{}{}
					info.Links = append(info.Links, link)
				}
				consumed = true
			}
			if info.Phone == "" {
				if m := phoneRe.FindString(segment); m != "" {
					info.Phone = strings.TrimSpace(m)
					consumed = true
				}
			}
			if consumed {
				continue
			}
			if info.Location == "" {
				if m := locationRe.FindString(segment); m != "" && m == segment {
					info.Location = m
					continue
				}
			}
			if info.Name == "" && looksLikeName(segment) {
				info.Name = segment
			}
		}
	}
	return info
}

// looksLikeName accepts two to five capitalised words with no digits.
func looksLikeName(text string) bool {
	words := strings.Fields(text)
	if len(words) < 2 || len(words) > 5 {
		return false
	}
	for _, word := range words {
		r := []rune(word)
		if !unicode.IsUpper(r[0]) {
			return false
		}
		for _, c := range r {
			if unicode.IsDigit(c) || c == '@' || c == '/' {
				return false
			}
		}
	}
	return true
}
