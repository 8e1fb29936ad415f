package validate

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"resume-formatter/resume/taxonomy"
)

// DefaultFingerprintLength is how many normalized runes feed a fingerprint.
const DefaultFingerprintLength = 100

// Fingerprinter hashes normalized text. Length <= 0 hashes the whole text.
type Fingerprinter struct {
	Length int
}

// Sum returns the hex fingerprint of text, or "" when nothing remains after normalization.
func (f Fingerprinter) Sum(text string) string {
	norm := taxonomy.Normalize(text)
	if norm == "" {
		return ""
	}
	if f.Length > 0 {
		if runes := []rune(norm); len(runes) > f.Length {
			norm = string(runes[:f.Length])
		}
	}
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:])
}

// SumLines fingerprints a block body as one text.
func (f Fingerprinter) SumLines(lines []string) string {
	return f.Sum(strings.Join(lines, "\n"))
}
