package util

import "testing"

func TestHashKey(t *testing.T) {
	id := "runs/2026-10-15/resume.docx"
	got := HashKey(id)
	if got != HashKey(id) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
}

func TestSanitizeFileName(t *testing.T) {
	got, err := SanitizeFileName(" jane/doe\\resume.docx ")
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if got != "jane_doe_resume.docx" {
		t.Fatalf("unexpected name %q", got)
	}
	for _, bad := range []string{"", "   ", "../secret.docx"} {
		if _, err := SanitizeFileName(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestOutputName(t *testing.T) {
	tests := map[string]string{
		"resume.pdf":    "resume.formatted.docx",
		"Jane Doe.docx": "Jane Doe.formatted.docx",
		"notes":         "notes.formatted.docx",
		"dir/cv.txt":    "dir_cv.formatted.docx",
	}
	for in, want := range tests {
		got, err := OutputName(in)
		if err != nil {
			t.Fatalf("OutputName(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("OutputName(%q) = %q, want %q", in, got, want)
		}
	}
}
