package document

import (
	"errors"
	"fmt"
	"slices"
)

// Common errors.
var (
	ErrLineOutOfRange = errors.New("line out of range")
	ErrInvalidVersion = errors.New("invalid version")
	ErrFutureVersion  = errors.New("base version is in the future")
	ErrUnknownEdit    = errors.New("unknown edit kind")
)

// Document is an immutable snapshot of a line-oriented text document.
// Values returned by this package never share a line slice that is later
// modified; callers that modify Lines should Clone first.
type Document struct {
	ID      int
	Version int
	Lines   []string
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	d.Lines = slices.Clone(d.Lines)
	if d.Lines == nil {
		d.Lines = []string{}
	}

	return d
}

// Len returns the number of lines in the document.
func (d Document) Len() int {
	return len(d.Lines)
}

// Line returns the text at index i and whether such a line exists.
func (d Document) Line(i int) (string, bool) {
	if i < 0 || i >= len(d.Lines) {
		return "", false
	}

	return d.Lines[i], true
}

// Apply applies a change to the document, returning the new document.
// The change version must directly follow the document version.
func (d Document) Apply(c Change) (Document, error) {
	if c.Version != d.Version+1 {
		return d, fmt.Errorf("%w: change %d does not follow version %d", ErrInvalidVersion, c.Version, d.Version)
	}

	next, err := applyEdit(d, c.Line, c.Edit)
	if err != nil {
		return d, err
	}

	return next, nil
}

// applyEdit produces the document that results from performing e at line.
func applyEdit(d Document, line int, e Edit) (Document, error) {
	var (
		lines []string
		err   error
	)

	switch e.Kind {
	case Insert:
		lines, err = insertLine(d.Lines, line, e.Text)
	case Erase:
		lines, err = eraseLine(d.Lines, line)
	case Overwrite:
		lines, err = overwriteLine(d.Lines, line, e.Text)
	default:
		return d, fmt.Errorf("%w: %d", ErrUnknownEdit, e.Kind)
	}

	if err != nil {
		return d, err
	}

	return Document{
		ID:      d.ID,
		Version: d.Version + 1,
		Lines:   lines,
	}, nil
}

// insertLine returns a copy of lines with text inserted at position.
func insertLine(lines []string, position int, text string) ([]string, error) {
	if position < 0 || position > len(lines) {
		return nil, outOfRange(position, len(lines))
	}

	next := make([]string, 0, len(lines)+1)
	next = append(next, lines[:position]...)
	next = append(next, text)
	next = append(next, lines[position:]...)

	return next, nil
}

// eraseLine returns a copy of lines without the line at position.
func eraseLine(lines []string, position int) ([]string, error) {
	if position < 0 || position >= len(lines) {
		return nil, outOfRange(position, len(lines))
	}

	next := make([]string, 0, len(lines)-1)
	next = append(next, lines[:position]...)
	next = append(next, lines[position+1:]...)

	return next, nil
}

// overwriteLine returns a copy of lines with the line at position replaced.
func overwriteLine(lines []string, position int, text string) ([]string, error) {
	if position < 0 || position >= len(lines) {
		return nil, outOfRange(position, len(lines))
	}

	next := slices.Clone(lines)
	next[position] = text

	return next, nil
}

func outOfRange(position, length int) error {
	return fmt.Errorf("%w: line %d, document has %d lines", ErrLineOutOfRange, position, length)
}
