package model

// AnchorKind describes how an insertion point was recognized in a template.
type AnchorKind string

const (
	AnchorPlaceholder AnchorKind = "PLACEHOLDER"
	AnchorHeading     AnchorKind = "HEADING"
)

// InsertionAnchor is a template location that content for Target goes to.
type InsertionAnchor struct {
	ParagraphIndex int        `json:"paragraphIndex"`
	Kind           AnchorKind `json:"kind"`
	Target         Section    `json:"target"`
}

// InsertionState tracks, for one mutation pass, which sections have been placed.
// A flag only ever moves from not-inserted to inserted.
type InsertionState struct {
	inserted [len(sectionNames)]bool
}

// NewInsertionState returns a state with every section not inserted.
func NewInsertionState() InsertionState {
	return InsertionState{}
}

// IsInserted reports whether content for s has been placed.
func (st InsertionState) IsInserted(s Section) bool {
	if !s.Valid() {
		return false
	}
	return st.inserted[s]
}

// MarkInserted records that s was placed. It returns false if s was already set.
func (st *InsertionState) MarkInserted(s Section) bool {
	if !s.Valid() || st.inserted[s] {
		return false
	}
	st.inserted[s] = true
	return true
}

// Inserted lists the placed sections in precedence order.
func (st InsertionState) Inserted() []Section {
	var out []Section
	for _, s := range Sections() {
		if st.inserted[s] {
			out = append(out, s)
		}
	}
	return out
}
