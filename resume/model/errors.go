package model

import "fmt"

// ErrExtraction indicates an input document could not be read. It is fatal for that file.
type ErrExtraction struct {
	File string
	Err  error
}

func (e ErrExtraction) Error() string {
	if e.Err == nil {
		return "extract " + e.File
	}
	return "extract " + e.File + ": " + e.Err.Error()
}

func (e ErrExtraction) Unwrap() error { return e.Err }

// ErrClassificationAmbiguous indicates no classifier stage cleared the minimum confidence.
type ErrClassificationAmbiguous struct {
	Heading    string
	Best       Section
	Confidence float64
}

func (e ErrClassificationAmbiguous) Error() string {
	return fmt.Sprintf("heading %q is ambiguous (best %s at %.2f); labelled OTHER", e.Heading, e.Best, e.Confidence)
}

// ErrContentConflict indicates a body line does not fit the section of its heading.
type ErrContentConflict struct {
	Line      RawLine
	Assigned  Section
	Suggested Section
}

func (e ErrContentConflict) Error() string {
	return fmt.Sprintf("line %d rejected from %s (suggested %s): %q", e.Line.Ordinal, e.Assigned, e.Suggested, truncate(e.Line.Text, 60))
}

// ErrDuplicateContent indicates a block or line was already consumed by another section.
type ErrDuplicateContent struct {
	Heading string
	Section Section
}

func (e ErrDuplicateContent) Error() string {
	return fmt.Sprintf("content under %q already used; skipped for %s", e.Heading, e.Section)
}

// ErrAnchorNotFound indicates the template has nowhere to put a section that has content.
type ErrAnchorNotFound struct {
	Section Section
}

func (e ErrAnchorNotFound) Error() string {
	return fmt.Sprintf("no template anchor for %s; section omitted", e.Section)
}

// ErrEmptySection indicates a section was detected but produced no content.
type ErrEmptySection struct {
	Section Section
}

func (e ErrEmptySection) Error() string {
	return fmt.Sprintf("%s detected but has no content; anchor left empty", e.Section)
}

// ErrStyleCapture indicates a paragraph's formatting could not be read; defaults were used.
type ErrStyleCapture struct {
	Paragraph int
	Err       error
}

func (e ErrStyleCapture) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("capture style of paragraph %d", e.Paragraph)
	}
	return fmt.Sprintf("capture style of paragraph %d: %v", e.Paragraph, e.Err)
}

func (e ErrStyleCapture) Unwrap() error { return e.Err }

func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
