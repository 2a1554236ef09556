package parser

import (
	"strings"
	"unicode"

	"github.com/leapstack-labs/sqllineage/pkg/dialect"
	"github.com/leapstack-labs/sqllineage/pkg/token"
)

// Lexer tokenizes SQL input.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // line of ch (1-based)
	col     int  // column of ch (1-based)

	// Dialect support (optional)
	dialect *dialect.Dialect

	// Comments collected during lexing
	Comments []*token.Comment
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	return NewLexerWithDialect(input, nil)
}

// NewLexerWithDialect creates a new dialect-aware Lexer for the given input.
func NewLexerWithDialect(input string, d *dialect.Dialect) *Lexer {
	l := &Lexer{
		input:   input,
		line:    1,
		col:     0,
		dialect: d,
	}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.col++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// currentPos returns the current position.
func (l *Lexer) currentPos() Position {
	return Position{
		Line:   l.line,
		Column: l.col,
		Offset: min(l.pos, len(l.input)),
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	l.skipWhitespaceAndComments()
	tok := l.scan()
	tok.EndPos = l.currentPos()
	return tok
}

// scan reads one token starting at the current character.
func (l *Lexer) scan() Token {
	pos := l.currentPos()

	// Dialect identifier quotes ([x], `x`) take priority over operators.
	if l.ch != 0 && l.ch != '\'' {
		if closer, ok := l.quoteFor(l.ch); ok {
			lit, closed := l.readDelimited(closer)
			if !closed {
				return l.unterminated(pos)
			}
			return Token{Type: TOKEN_IDENT, Literal: lit, Pos: pos, Quoted: true}
		}
	}

	var tok Token
	switch l.ch {
	case 0:
		return Token{Type: TOKEN_EOF, Pos: pos}
	case '+':
		tok = l.newToken(TOKEN_PLUS, "+")
	case '-':
		tok = l.newToken(TOKEN_MINUS, "-")
	case '*':
		tok = l.newToken(TOKEN_STAR, "*")
	case '/':
		tok = l.newToken(TOKEN_SLASH, "/")
	case '%':
		tok = l.newToken(TOKEN_PERCENT, "%")
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TOKEN_EQ, Literal: "==", Pos: pos}
		} else {
			tok = l.newToken(TOKEN_EQ, "=")
		}
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok = Token{Type: TOKEN_LE, Literal: "<=", Pos: pos}
		case '>':
			l.readChar()
			tok = Token{Type: TOKEN_NE, Literal: "<>", Pos: pos}
		default:
			tok = l.newToken(TOKEN_LT, "<")
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TOKEN_GE, Literal: ">=", Pos: pos}
		} else {
			tok = l.newToken(TOKEN_GT, ">")
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TOKEN_NE, Literal: "!=", Pos: pos}
		} else {
			tok = l.newToken(TOKEN_ILLEGAL, string(l.ch))
		}
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			tok = Token{Type: TOKEN_DPIPE, Literal: "||", Pos: pos}
		} else {
			tok = l.newToken(TOKEN_ILLEGAL, string(l.ch))
		}
	case ':':
		if l.peekChar() == ':' {
			l.readChar()
			tok = Token{Type: TOKEN_DCOLON, Literal: "::", Pos: pos}
		} else {
			tok = l.newToken(TOKEN_COLON, ":")
		}
	case '.':
		if isDigit(l.peekChar()) {
			return Token{Type: TOKEN_NUMBER, Literal: l.readNumber(), Pos: pos}
		}
		tok = l.newToken(TOKEN_DOT, ".")
	case ',':
		tok = l.newToken(TOKEN_COMMA, ",")
	case ';':
		tok = l.newToken(TOKEN_SEMICOLON, ";")
	case '(':
		tok = l.newToken(TOKEN_LPAREN, "(")
	case ')':
		tok = l.newToken(TOKEN_RPAREN, ")")
	case '[':
		tok = l.newToken(TOKEN_LBRACKET, "[")
	case ']':
		tok = l.newToken(TOKEN_RBRACKET, "]")
	case '\'':
		lit, closed := l.readDelimited('\'')
		if !closed {
			return l.unterminated(pos)
		}
		return Token{Type: TOKEN_STRING, Literal: lit, Pos: pos}
	case '"':
		lit, closed := l.readDelimited('"')
		if !closed {
			return l.unterminated(pos)
		}
		return Token{Type: TOKEN_IDENT, Literal: lit, Pos: pos, Quoted: true}
	default:
		switch {
		case isLetter(l.ch) || l.ch == '_' || isVariableStart(l.ch, l.peekChar()):
			lit := l.readIdentifier()
			return Token{Type: l.lookupKeyword(lit), Literal: lit, Pos: pos}
		case isDigit(l.ch):
			return Token{Type: TOKEN_NUMBER, Literal: l.readNumber(), Pos: pos}
		default:
			tok = l.newToken(TOKEN_ILLEGAL, string(l.ch))
		}
	}

	l.readChar()
	return tok
}

// unterminated returns an ILLEGAL token holding the raw text of an
// unclosed string or quoted identifier, opening delimiter included.
func (l *Lexer) unterminated(pos Position) Token {
	return Token{Type: TOKEN_ILLEGAL, Literal: l.input[pos.Offset:min(l.pos, len(l.input))], Pos: pos}
}

// lookupKeyword resolves an unquoted word to a builtin keyword, a keyword of
// the lexer's dialect, or IDENT.
func (l *Lexer) lookupKeyword(lit string) TokenType {
	lower := strings.ToLower(lit)
	if t := LookupIdent(lower); t != TOKEN_IDENT {
		return t
	}
	if l.dialect != nil {
		if t, ok := l.dialect.LookupKeyword(lower); ok {
			return t
		}
		return TOKEN_IDENT
	}
	// Without a dialect any registered keyword is accepted.
	if t, ok := token.LookupDynamicKeyword(lower); ok {
		return t
	}
	return TOKEN_IDENT
}

// quoteFor returns the closing delimiter if ch opens a dialect-quoted
// identifier other than the standard double quote.
func (l *Lexer) quoteFor(ch byte) (byte, bool) {
	if l.dialect == nil || ch == '"' {
		return 0, false
	}
	return l.dialect.QuoteFor(ch)
}

// newToken creates a new token.
func (l *Lexer) newToken(tokenType TokenType, literal string) Token {
	return Token{Type: tokenType, Literal: literal, Pos: l.currentPos()}
}

// skipWhitespaceAndComments skips whitespace and collects comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		// Skip whitespace
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' || l.ch == '\f' {
			l.readChar()
		}

		// Collect line comment (-- ...)
		if l.ch == '-' && l.peekChar() == '-' {
			l.collectLineComment()
			continue
		}

		// Collect block comment (/* ... */)
		if l.ch == '/' && l.peekChar() == '*' {
			l.collectBlockComment()
			continue
		}

		break
	}
}

// collectLineComment collects a line comment.
func (l *Lexer) collectLineComment() {
	startPos := l.currentPos()
	startOffset := l.pos

	// Consume until end of line
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}

	l.Comments = append(l.Comments, &token.Comment{
		Kind: token.LineComment,
		Text: l.input[startOffset:min(l.pos, len(l.input))],
		Span: token.Span{Start: startPos, End: l.currentPos()},
	})
}

// collectBlockComment collects a block comment.
func (l *Lexer) collectBlockComment() {
	startPos := l.currentPos()
	startOffset := l.pos

	l.readChar() // skip '/'
	l.readChar() // skip '*'

	closed := false
	for l.ch != 0 {
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar() // skip '*'
			l.readChar() // skip '/'
			closed = true
			break
		}
		l.readChar()
	}

	l.Comments = append(l.Comments, &token.Comment{
		Kind:         token.BlockComment,
		Text:         l.input[startOffset:min(l.pos, len(l.input))],
		Span:         token.Span{Start: startPos, End: l.currentPos()},
		Unterminated: !closed,
	})
}

// readDelimited reads a string or quoted identifier. A doubled closing
// delimiter stands for one literal delimiter. Reports false when the input
// ends before the closing delimiter.
func (l *Lexer) readDelimited(closer byte) (string, bool) {
	l.readChar() // skip opening delimiter

	var result strings.Builder
	for l.ch != 0 {
		if l.ch == closer {
			if l.peekChar() == closer {
				// Doubled delimiter escape
				result.WriteByte(closer)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // skip closing delimiter
			return result.String(), true
		}
		result.WriteByte(l.ch)
		l.readChar()
	}
	return result.String(), false
}

// readIdentifier reads an unquoted identifier. Identifiers may start with
// @ (variables) or # (temporary tables).
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for l.ch == '@' || l.ch == '#' {
		l.readChar()
	}
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' || l.ch == '$' {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads a numeric literal (integer, decimal, or scientific).
func (l *Lexer) readNumber() string {
	start := l.pos

	// Read integer part
	for isDigit(l.ch) {
		l.readChar()
	}

	// Read decimal part
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // skip '.'
		for isDigit(l.ch) {
			l.readChar()
		}
	} else if l.ch == '.' && !isLetter(l.peekChar()) && l.peekChar() != '_' {
		l.readChar() // trailing dot: 1.
	}

	// Read exponent part (e.g., 1e10, 1E-5)
	if (l.ch == 'e' || l.ch == 'E') && (isDigit(l.peekChar()) || l.peekChar() == '+' || l.peekChar() == '-') {
		l.readChar() // skip 'e' or 'E'
		if l.ch == '+' || l.ch == '-' {
			l.readChar() // skip sign
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	return l.input[start:l.pos]
}

// isLetter returns true if ch is a letter.
func isLetter(ch byte) bool {
	return ch >= 0x80 || unicode.IsLetter(rune(ch))
}

// isDigit returns true if ch is a digit.
func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// isVariableStart reports whether ch starts an @variable or #temp name.
func isVariableStart(ch, next byte) bool {
	if ch != '@' && ch != '#' {
		return false
	}
	return isLetter(next) || next == '_' || next == ch
}

// Tokenize returns all tokens from the input.
func Tokenize(input string) []Token {
	return TokenizeWithDialect(input, nil)
}

// TokenizeWithDialect returns all tokens from the input using dialect rules.
func TokenizeWithDialect(input string, d *dialect.Dialect) []Token {
	l := NewLexerWithDialect(input, d)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TOKEN_EOF {
			break
		}
	}
	return tokens
}
