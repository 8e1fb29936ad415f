package s3

import "testing"

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "runs/r1/out.docx", want: "runs/r1/out.docx"},
		{name: "simple prefix", prefix: "root", key: "runs/r1/out.docx", want: "root/runs/r1/out.docx"},
		{name: "prefix trailing slash", prefix: "root/", key: "runs/r1/out.docx", want: "root/runs/r1/out.docx"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/runs/r1/out.docx", want: "root/runs/r1/out.docx"},
		{name: "nested prefix", prefix: "root/sub", key: "templates/base.docx", want: "root/sub/templates/base.docx"},
		{name: "empty key lists whole prefix", prefix: "root", key: "", want: "root/"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestStripPrefix(t *testing.T) {
	t.Parallel()

	if got := stripPrefix("root/sub", "root/sub/runs/a.docx"); got != "runs/a.docx" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := stripPrefix("", "runs/a.docx"); got != "runs/a.docx" {
		t.Fatalf("unexpected key %q", got)
	}
}
