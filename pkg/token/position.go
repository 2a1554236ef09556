package token

import "fmt"

// Position represents a location in the source code.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number
	Offset int // 0-based byte offset
}

// IsValid returns true if the position is valid (line > 0).
func (p Position) IsValid() bool {
	return p.Line > 0
}

// String formats the position as line:column.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span represents a range in source code. End is exclusive.
type Span struct {
	Start Position
	End   Position
}

// Contains returns true if the span contains the given offset.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start.Offset && offset < s.End.Offset
}

// IsValid returns true if both start and end positions are valid.
func (s Span) IsValid() bool {
	return s.Start.IsValid() && s.End.IsValid()
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End.Offset - s.Start.Offset
}

// String formats the span as start-end.
func (s Span) String() string {
	return fmt.Sprintf("%s-%s", s.Start, s.End)
}

// Shift translates a span that was computed relative to a fragment back into
// the coordinates of the enclosing text, given where the fragment starts.
func (s Span) Shift(base Position) Span {
	return Span{Start: s.Start.Shift(base), End: s.End.Shift(base)}
}

// Shift translates a fragment-relative position into enclosing-text coordinates.
func (p Position) Shift(base Position) Position {
	if p.Line == 1 {
		return Position{Line: base.Line, Column: base.Column + p.Column - 1, Offset: base.Offset + p.Offset}
	}
	return Position{Line: base.Line + p.Line - 1, Column: p.Column, Offset: base.Offset + p.Offset}
}
