package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSection(t *testing.T) {
	tests := []struct {
		in   string
		want Section
	}{
		{in: "experience", want: SectionExperience},
		{in: " Skills ", want: SectionSkills},
		{in: "EMPLOYMENT", want: SectionExperience},
		{in: "other", want: SectionOther},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSection(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseSection("hobbies")
	assert.Error(t, err)
}

func TestSectionJSONUsesNames(t *testing.T) {
	payload, err := json.Marshal(map[Section]bool{SectionSkills: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"SKILLS":true}`, string(payload))

	var decoded struct {
		Section Section `json:"section"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"section":"EDUCATION"}`), &decoded))
	assert.Equal(t, SectionEducation, decoded.Section)
}

func TestPrecedenceOrder(t *testing.T) {
	order := Sections()
	for i := 1; i < len(order); i++ {
		assert.Less(t, order[i-1].Precedence(), order[i].Precedence())
	}
	assert.Equal(t, SectionContact, order[0])
	assert.Len(t, ContentSections(), 6)
}

func TestInsertionStateIsMonotonic(t *testing.T) {
	state := NewInsertionState()
	assert.False(t, state.IsInserted(SectionExperience))

	assert.True(t, state.MarkInserted(SectionExperience))
	assert.False(t, state.MarkInserted(SectionExperience))
	assert.True(t, state.IsInserted(SectionExperience))
	assert.Equal(t, []Section{SectionExperience}, state.Inserted())
}

func TestStructuredResumeValidateRejectsEmptyEntries(t *testing.T) {
	resume := StructuredResume{Experience: []ExperienceEntry{{Bullets: []string{"did things"}}}}
	assert.Error(t, resume.Validate())

	resume = StructuredResume{
		Experience: []ExperienceEntry{{Company: "Acme"}},
		Contact:    ContactInfo{Links: []string{"https://example.com/me"}},
	}
	assert.NoError(t, resume.Validate())
}

func TestErrorMessages(t *testing.T) {
	err := ErrContentConflict{
		Line:      RawLine{Text: "Managed shipping and logistics using UPS WorldShip", Ordinal: 7},
		Assigned:  SectionEducation,
		Suggested: SectionExperience,
	}
	assert.Contains(t, err.Error(), "EDUCATION")
	assert.Contains(t, err.Error(), "suggested EXPERIENCE")
	assert.Equal(t, "no template anchor for SKILLS; section omitted", ErrAnchorNotFound{Section: SectionSkills}.Error())
}
