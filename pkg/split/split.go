// Package split divides a SQL script into statement units.
//
// Units end at a ";" outside parentheses, at a dialect batch separator such
// as GO, or at the end of input. Dialects that allow statements to follow each
// other without a terminator additionally get a boundary inferred in front of
// a second complete statement; such units are marked BoundaryInferred so the
// caller can report the ambiguity.
//
// The lexer decides what is inside strings, quoted identifiers and comments,
// so terminators there never split.
package split

import (
	"iter"
	"slices"
	"strings"

	"github.com/leapstack-labs/sqllineage/pkg/dialect"
	"github.com/leapstack-labs/sqllineage/pkg/parser"
	"github.com/leapstack-labs/sqllineage/pkg/token"
)

// Boundary is how a unit was terminated.
type Boundary int

// Boundary kinds.
const (
	BoundaryTerminator Boundary = iota
	BoundaryBatchSeparator
	BoundaryInferred
	BoundaryEOF
)

// String returns the name of the boundary kind.
func (b Boundary) String() string {
	switch b {
	case BoundaryTerminator:
		return "terminator"
	case BoundaryBatchSeparator:
		return "batch_separator"
	case BoundaryInferred:
		return "inferred"
	case BoundaryEOF:
		return "eof"
	default:
		return "unknown"
	}
}

// Unit is one statement of a script.
type Unit struct {
	// Index is the zero-based position of the unit in the script.
	Index int
	// Text is the statement source without its terminator.
	Text string
	// Span locates Text within the script.
	Span token.Span
	// Boundary is how the unit ended.
	Boundary Boundary
}

// Sequence is a lazy, restartable sequence of units. Nothing is lexed until
// the sequence is iterated, and every iteration starts from the beginning.
type Sequence struct {
	script  string
	dialect *dialect.Dialect
}

// Split returns the units of script under dialect d.
func Split(script string, d *dialect.Dialect) *Sequence {
	return &Sequence{script: script, dialect: d}
}

// All iterates the units in source order.
func (s *Sequence) All() iter.Seq[Unit] {
	return func(yield func(Unit) bool) {
		sp := newSplitter(s.script, s.dialect)
		for {
			u, ok := sp.next()
			if !ok || !yield(u) {
				return
			}
		}
	}
}

// Units collects every unit.
func (s *Sequence) Units() []Unit {
	return slices.Collect(s.All())
}

// statementVerbs start a new statement when they follow a complete one in a
// dialect with implicit terminators.
var statementVerbs = map[token.TokenType]bool{
	token.INSERT:   true,
	token.UPDATE:   true,
	token.DELETE:   true,
	token.CREATE:   true,
	token.DROP:     true,
	token.MERGE:    true,
	token.ALTER:    true,
	token.TRUNCATE: true,
}

// queryContinuations may precede SELECT inside one query.
var queryContinuations = map[token.TokenType]bool{
	token.UNION:     true,
	token.INTERSECT: true,
	token.EXCEPT:    true,
	token.ALL:       true,
	token.DISTINCT:  true,
	token.LPAREN:    true,
	token.AS:        true,
}

// verbContinuations may precede a statement verb inside one statement:
// MERGE ... THEN UPDATE, ON DELETE CASCADE, FOR UPDATE, CREATE OR ALTER,
// GRANT SELECT, INSERT, and trigger events.
var verbContinuations = map[token.TokenType]bool{
	token.THEN:  true,
	token.ON:    true,
	token.OR:    true,
	token.COMMA: true,
	token.EQ:    true,
}

var verbContinuationWords = []string{"for", "after", "before", "instead", "of"}

// unitState tracks the tokens of the unit being assembled.
type unitState struct {
	first, last, prev token.Token
	n                 int
	depth             int
	selects           int // SELECT keywords seen at depth 0
	lead              token.Token
}

type splitter struct {
	script  string
	dialect *dialect.Dialect
	lexer   *parser.Lexer
	pending *token.Token // first token of the next unit
	index   int
	done    bool
}

func newSplitter(script string, d *dialect.Dialect) *splitter {
	return &splitter{
		script:  script,
		dialect: d,
		lexer:   parser.NewLexerWithDialect(script, d),
	}
}

func (s *splitter) take() token.Token {
	if s.pending != nil {
		tok := *s.pending
		s.pending = nil
		return tok
	}
	return s.lexer.NextToken()
}

// next returns the next non-empty unit.
func (s *splitter) next() (Unit, bool) {
	if s.done {
		return Unit{}, false
	}

	var st unitState
	for {
		tok := s.take()

		switch {
		case tok.Type == token.EOF:
			s.done = true
			if st.n == 0 {
				return Unit{}, false
			}
			return s.emit(&st, BoundaryEOF), true

		case s.isBatchSeparator(tok):
			s.skipRepeatCount(tok)
			if st.n > 0 {
				return s.emit(&st, BoundaryBatchSeparator), true
			}
			continue

		case tok.Type == token.SEMICOLON && st.depth == 0:
			if st.n > 0 {
				return s.emit(&st, BoundaryTerminator), true
			}
			continue
		}

		if st.n > 0 && s.inferBoundary(&st, tok) {
			s.pending = &tok
			return s.emit(&st, BoundaryInferred), true
		}

		s.advance(&st, tok)
	}
}

// advance adds tok to the unit being assembled.
func (s *splitter) advance(st *unitState, tok token.Token) {
	switch tok.Type {
	case token.LPAREN:
		st.depth++
	case token.RPAREN:
		if st.depth > 0 {
			st.depth--
		}
	case token.SELECT:
		if st.depth == 0 {
			st.selects++
		}
	}
	if st.n == 0 {
		st.first = tok
		st.lead = tok
	}
	st.prev = tok
	st.last = tok
	st.n++
}

func (s *splitter) emit(st *unitState, b Boundary) Unit {
	span := token.Span{Start: st.first.Pos, End: st.last.End()}
	u := Unit{
		Index:    s.index,
		Text:     s.script[span.Start.Offset:span.End.Offset],
		Span:     span,
		Boundary: b,
	}
	s.index++
	return u
}

// isBatchSeparator reports whether tok is the dialect batch separator alone
// on its line, optionally followed by a repeat count.
func (s *splitter) isBatchSeparator(tok token.Token) bool {
	sep := s.dialect.BatchSeparator
	if sep == "" || tok.Type != token.IDENT || tok.Quoted || !strings.EqualFold(tok.Literal, sep) {
		return false
	}
	fields := strings.Fields(s.lineOf(tok.Pos.Offset))
	switch len(fields) {
	case 1:
		return true
	case 2:
		return isDigits(fields[1])
	}
	return false
}

// skipRepeatCount consumes the "n" of "GO n".
func (s *splitter) skipRepeatCount(sep token.Token) {
	tok := s.lexer.NextToken()
	if tok.Type == token.NUMBER && tok.Pos.Line == sep.Pos.Line {
		return
	}
	s.pending = &tok
}

// lineOf returns the source line containing offset.
func (s *splitter) lineOf(offset int) string {
	start := strings.LastIndexByte(s.script[:offset], '\n') + 1
	end := strings.IndexByte(s.script[offset:], '\n')
	if end < 0 {
		return s.script[start:]
	}
	return s.script[start : offset+end]
}

// inferBoundary reports whether tok starts a new statement although no
// terminator was written.
func (s *splitter) inferBoundary(st *unitState, tok token.Token) bool {
	if !s.dialect.ImplicitTerminators || st.depth != 0 {
		return false
	}

	session := isSessionLead(st.lead)

	switch {
	case tok.Type == token.SELECT:
		if st.selects == 0 && !session {
			return false
		}
		return !queryContinuations[st.prev.Type] && st.prev.Type != token.EQ

	case statementVerbs[tok.Type]:
		switch {
		case st.lead.Type == token.ALTER, st.lead.Type == token.IF,
			isWord(st.lead, "grant"), isWord(st.lead, "revoke"),
			isWord(st.lead, "while"), isWord(st.lead, "deny"):
			return false
		case session:
			return st.prev.Type != token.EQ
		}
		if verbContinuations[st.prev.Type] {
			return false
		}
		for _, w := range verbContinuationWords {
			if isWord(st.prev, w) {
				return false
			}
		}
		return true
	}
	return false
}

// isSessionLead reports whether a unit starting with tok is a short session
// statement (USE, DECLARE, SET, transaction control) that any following
// statement verb or SELECT must end.
func isSessionLead(tok token.Token) bool {
	switch tok.Type {
	case token.USE, token.SET, token.BEGIN, token.COMMIT, token.ROLLBACK:
		return true
	}
	return isWord(tok, "declare")
}

func isWord(tok token.Token, word string) bool {
	return tok.Type == token.IDENT && !tok.Quoted && strings.EqualFold(tok.Literal, word)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
