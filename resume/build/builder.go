// Package build assembles a StructuredResume from validated section content.
package build

import (
	"fmt"
	"strings"

	"resume-formatter/resume/model"
	"resume-formatter/resume/skills"
	"resume-formatter/resume/taxonomy"
)

// Builder turns validated blocks into typed resume sections.
type Builder struct {
	tax    *taxonomy.Taxonomy
	skills *skills.Normalizer
}

// New returns a Builder. Nil arguments use the package defaults.
func New(tax *taxonomy.Taxonomy, normalizer *skills.Normalizer) *Builder {
	if tax == nil {
		tax = taxonomy.MustDefault()
	}
	if normalizer == nil {
		normalizer = skills.New(nil)
	}
	return &Builder{tax: tax, skills: normalizer}
}

// Build groups accepted lines by section, relocates rejected headless lines
// to their suggested section and parses each section.
func (b *Builder) Build(contents []model.ValidatedContent) (model.StructuredResume, error) {
	buckets := make(map[model.Section][]string)
	present := make(map[model.Section]bool)

	for _, content := range contents {
		if content.Section != model.SectionOther && (!content.Headless || len(content.Lines) > 0) {
			present[content.Section] = true
		}
		for _, line := range content.Lines {
			buckets[content.Section] = append(buckets[content.Section], line.Text)
		}
		if !content.Headless {
			continue
		}
		for _, rejected := range content.Rejected {
			if rejected.Suggested == model.SectionOther {
				continue
			}
			buckets[rejected.Suggested] = append(buckets[rejected.Suggested], rejected.Line.Text)
			present[rejected.Suggested] = true
		}
	}

	resume := model.StructuredResume{
		Contact:        b.contact(buckets[model.SectionContact]),
		Summary:        b.summary(buckets[model.SectionSummary]),
		Experience:     b.experience(buckets[model.SectionExperience]),
		Education:      b.education(buckets[model.SectionEducation]),
		Certifications: b.certifications(buckets[model.SectionCertifications]),
		Present:        present,
	}
	resume.Skills = b.skills.Normalize(b.bodyLines(buckets[model.SectionSkills]), resume.Experience)

	if err := resume.Validate(); err != nil {
		return model.StructuredResume{}, fmt.Errorf("build resume: %w", err)
	}
	return resume, nil
}

// bodyLines trims lines and drops blanks and stray heading labels.
func (b *Builder) bodyLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		clean := strings.TrimSpace(line)
		if clean == "" || b.isHeadingLabel(clean) {
			continue
		}
		out = append(out, clean)
	}
	return out
}

func (b *Builder) isHeadingLabel(line string) bool {
	_, ok := b.tax.Exact(taxonomy.Normalize(line))
	return ok
}

func (b *Builder) summary(lines []string) string {
	parts := make([]string, 0, len(lines))
	for _, line := range b.bodyLines(lines) {
		if text := taxonomy.StripBullet(line); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func (b *Builder) certifications(lines []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, line := range b.bodyLines(lines) {
		text := taxonomy.StripBullet(line)
		key := strings.ToLower(text)
		if text == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, text)
	}
	return out
}
