package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// StructuredResume is the typed resume assembled from validated content.
// It is built once per resume and treated as read-only afterwards.
type StructuredResume struct {
	Contact        ContactInfo       `json:"contact"`
	Summary        string            `json:"summary"`
	Experience     []ExperienceEntry `json:"experience"`
	Education      []EducationEntry  `json:"education"`
	Skills         []SkillStatement  `json:"skills"`
	Certifications []string          `json:"certifications"`
	// Present records sections detected in the source, including empty ones.
	Present map[Section]bool `json:"present"`
}

// ContactInfo captures top-of-resume identity details.
type ContactInfo struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Location string   `json:"location"`
	Links    []string `json:"links"`
}

// IsZero reports whether no contact field was found.
func (c ContactInfo) IsZero() bool {
	return strings.TrimSpace(c.Name) == "" &&
		strings.TrimSpace(c.Email) == "" &&
		strings.TrimSpace(c.Phone) == "" &&
		strings.TrimSpace(c.Location) == "" &&
		len(c.Links) == 0
}

// ExperienceEntry represents one job.
type ExperienceEntry struct {
	Company   string   `json:"company"`
	Role      string   `json:"role"`
	DateRange string   `json:"dateRange"`
	Bullets   []string `json:"bullets"`
}

// EducationEntry represents one degree or program.
type EducationEntry struct {
	Degree      string   `json:"degree"`
	Institution string   `json:"institution"`
	Year        string   `json:"year"`
	Bullets     []string `json:"bullets"`
}

// SkillStatement is a normalized skill token or grouped statement.
type SkillStatement struct {
	Text      string `json:"text"`
	Category  string `json:"category"`
	YearsUsed string `json:"yearsUsed"`
	LastUsed  string `json:"lastUsed"`
}

// HasContent reports whether the resume carries anything to place for s.
func (r StructuredResume) HasContent(s Section) bool {
	switch s {
	case SectionContact:
		return !r.Contact.IsZero()
	case SectionSummary:
		return strings.TrimSpace(r.Summary) != ""
	case SectionExperience:
		return len(r.Experience) > 0
	case SectionEducation:
		return len(r.Education) > 0
	case SectionSkills:
		return len(r.Skills) > 0
	case SectionCertifications:
		return len(r.Certifications) > 0
	default:
		return false
	}
}

// IsPresent reports whether s was detected in the source or has content.
func (r StructuredResume) IsPresent(s Section) bool {
	return r.Present[s] || r.HasContent(s)
}

// Validate enforces the entry invariants the mutator relies on.
func (r StructuredResume) Validate() error {
	for i, exp := range r.Experience {
		if strings.TrimSpace(exp.Company) == "" && strings.TrimSpace(exp.Role) == "" {
			return fmt.Errorf("experience[%d] has neither company nor role", i)
		}
	}
	for i, edu := range r.Education {
		if strings.TrimSpace(edu.Degree) == "" && strings.TrimSpace(edu.Institution) == "" {
			return fmt.Errorf("education[%d] has neither degree nor institution", i)
		}
	}
	for i, link := range r.Contact.Links {
		if !isFullURL(strings.TrimSpace(link)) {
			return fmt.Errorf("contact.links[%d] must be a full URL", i)
		}
	}
	if r.Present != nil {
		for s := range r.Present {
			if !s.Valid() {
				return errors.New("present map holds an invalid section")
			}
		}
	}
	return nil
}

func isFullURL(value string) bool {
	if value == "" {
		return false
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}
