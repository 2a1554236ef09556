package token

import "strings"

// CommentKind tells line comments from block comments.
type CommentKind int

// Comment kinds.
const (
	LineComment  CommentKind = iota // -- comment
	BlockComment                    // /* comment */
)

// Comment is a comment skipped by the lexer. Text keeps the delimiters.
type Comment struct {
	Kind CommentKind
	Text string
	Span Span
	// Unterminated is set for a block comment cut off by the end of input.
	Unterminated bool
}

// Body returns the comment text without delimiters or surrounding space.
func (c *Comment) Body() string {
	s := c.Text
	switch c.Kind {
	case LineComment:
		s = strings.TrimPrefix(s, "--")
	case BlockComment:
		s = strings.TrimPrefix(s, "/*")
		if !c.Unterminated {
			s = strings.TrimSuffix(s, "*/")
		}
	}
	return strings.TrimSpace(s)
}
