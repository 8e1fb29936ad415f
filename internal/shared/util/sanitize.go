package util

import (
	"errors"
	"path/filepath"
	"strings"
)

// SanitizeFileName removes path separators and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}

// OutputName derives the formatted DOCX name for an input file.
func OutputName(inputName string) (string, error) {
	clean, err := SanitizeFileName(inputName)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(clean, filepath.Ext(clean)) + ".formatted.docx", nil
}
