package model

import (
	"fmt"
	"strings"
)

// Section is the canonical resume section a block of text belongs to.
type Section int

const (
	SectionContact Section = iota
	SectionSummary
	SectionExperience
	SectionEducation
	SectionSkills
	SectionCertifications
	SectionOther
)

var sectionNames = [...]string{
	SectionContact:        "CONTACT",
	SectionSummary:        "SUMMARY",
	SectionExperience:     "EXPERIENCE",
	SectionEducation:      "EDUCATION",
	SectionSkills:         "SKILLS",
	SectionCertifications: "CERTIFICATIONS",
	SectionOther:          "OTHER",
}

// Sections lists every canonical section in tie-break precedence order,
// CONTACT first and OTHER last.
func Sections() []Section {
	return []Section{
		SectionContact,
		SectionSummary,
		SectionExperience,
		SectionEducation,
		SectionSkills,
		SectionCertifications,
		SectionOther,
	}
}

// ContentSections lists the sections that can receive content in a template.
func ContentSections() []Section {
	return Sections()[:len(sectionNames)-1]
}

func (s Section) String() string {
	if s < 0 || int(s) >= len(sectionNames) {
		return fmt.Sprintf("Section(%d)", int(s))
	}
	return sectionNames[s]
}

// Precedence returns the tie-break rank of the section; lower wins.
func (s Section) Precedence() int {
	return int(s)
}

// Valid reports whether s is one of the declared sections.
func (s Section) Valid() bool {
	return s >= SectionContact && s <= SectionOther
}

// ParseSection converts a section name (case-insensitive) into a Section.
func ParseSection(raw string) (Section, error) {
	clean := strings.ToUpper(strings.TrimSpace(raw))
	switch clean {
	case "EMPLOYMENT", "WORK":
		return SectionExperience, nil
	case "CERTIFICATION":
		return SectionCertifications, nil
	case "SKILL":
		return SectionSkills, nil
	}
	for i, name := range sectionNames {
		if name == clean {
			return Section(i), nil
		}
	}
	return SectionOther, fmt.Errorf("unknown section %q", raw)
}

// MarshalText encodes the section by name so it reads well in JSON and map keys.
func (s Section) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid section %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a section name.
func (s *Section) UnmarshalText(text []byte) error {
	parsed, err := ParseSection(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Method identifies the classifier stage that produced a label.
type Method string

const (
	MethodExact    Method = "EXACT"
	MethodFuzzy    Method = "FUZZY"
	MethodKeyword  Method = "KEYWORD"
	MethodSemantic Method = "SEMANTIC"
	MethodNone     Method = "NONE"
)
