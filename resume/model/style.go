package model

// RunStyle is the character formatting of a single run.
type RunStyle struct {
	FontFamily string `json:"fontFamily,omitempty"`
	FontSize   int    `json:"fontSize,omitempty"` // half-points
	Color      string `json:"color,omitempty"`
	Bold       bool   `json:"bold,omitempty"`
	Italic     bool   `json:"italic,omitempty"`
	Underline  string `json:"underline,omitempty"`
	Caps       bool   `json:"caps,omitempty"`
}

// Indent holds paragraph indentation in twips.
type Indent struct {
	Left      int `json:"left,omitempty"`
	Right     int `json:"right,omitempty"`
	FirstLine int `json:"firstLine,omitempty"`
	Hanging   int `json:"hanging,omitempty"`
}

// Numbering references a list definition in numbering.xml.
type Numbering struct {
	NumID string `json:"numId"`
	Level string `json:"level"`
}

// StyleSnapshot is the visual formatting of a paragraph captured before mutation.
type StyleSnapshot struct {
	Alignment     string     `json:"alignment,omitempty"`
	FontFamily    string     `json:"fontFamily,omitempty"`
	FontSize      int        `json:"fontSize,omitempty"`
	Color         string     `json:"color,omitempty"`
	Bold          bool       `json:"bold,omitempty"`
	Italic        bool       `json:"italic,omitempty"`
	Underline     string     `json:"underline,omitempty"`
	SpacingBefore int        `json:"spacingBefore,omitempty"`
	SpacingAfter  int        `json:"spacingAfter,omitempty"`
	LineSpacing   int        `json:"lineSpacing,omitempty"`
	Indent        Indent     `json:"indent"`
	StyleID       string     `json:"styleId,omitempty"`
	KeepNext      bool       `json:"keepNext,omitempty"`
	KeepLines     bool       `json:"keepLines,omitempty"`
	Caps          bool       `json:"caps,omitempty"`
	Numbering     *Numbering `json:"numbering,omitempty"`
	Runs          []RunStyle `json:"runs,omitempty"`
}

// PrimaryRun returns the snapshot's leading run formatting.
func (s StyleSnapshot) PrimaryRun() RunStyle {
	return RunStyle{
		FontFamily: s.FontFamily,
		FontSize:   s.FontSize,
		Color:      s.Color,
		Bold:       s.Bold,
		Italic:     s.Italic,
		Underline:  s.Underline,
		Caps:       s.Caps,
	}
}

// SameAppearance compares the attributes that must survive a text replacement:
// alignment, font family, font size and color.
func (s StyleSnapshot) SameAppearance(other StyleSnapshot) bool {
	return s.Alignment == other.Alignment &&
		s.FontFamily == other.FontFamily &&
		s.FontSize == other.FontSize &&
		s.Color == other.Color
}
