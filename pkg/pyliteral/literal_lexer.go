package pyliteral

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// LiteralTokenType defines the token types of the restricted literal grammar.
type LiteralTokenType int

const (
	LIT_ILLEGAL LiteralTokenType = iota
	LIT_EOF

	// Literals
	LIT_STRING // 'hello', "world"
	LIT_NUMBER // 123, 0xABC, 1.5e-2
	LIT_TRUE   // True
	LIT_FALSE  // False
	LIT_NONE   // None

	// Delimiters
	LIT_LBRACE   // {
	LIT_RBRACE   // }
	LIT_LBRACKET // [
	LIT_RBRACKET // ]
	LIT_LPAREN   // (
	LIT_RPAREN   // )
	LIT_COLON    // :
	LIT_COMMA    // ,

	// Signs (only valid as numeric prefixes)
	LIT_MINUS // -
	LIT_PLUS  // +
)

var literalKeywords = map[string]LiteralTokenType{
	"True":  LIT_TRUE,
	"False": LIT_FALSE,
	"None":  LIT_NONE,
}

// LiteralToken represents one lexical token of the header text.
type LiteralToken struct {
	Type    LiteralTokenType
	Literal string
	Line    int
	Column  int
}

func (t LiteralToken) String() string {
	if t.Type == LIT_STRING || t.Type == LIT_NUMBER || t.Type == LIT_ILLEGAL {
		return fmt.Sprintf("%s(%q) at %d:%d", t.Type.String(), t.Literal, t.Line, t.Column)
	}
	return fmt.Sprintf("%s at %d:%d", t.Type.String(), t.Line, t.Column)
}

func (t LiteralTokenType) String() string {
	switch t {
	case LIT_ILLEGAL:
		return "ILLEGAL"
	case LIT_EOF:
		return "EOF"
	case LIT_STRING:
		return "STRING"
	case LIT_NUMBER:
		return "NUMBER"
	case LIT_TRUE:
		return "True"
	case LIT_FALSE:
		return "False"
	case LIT_NONE:
		return "None"
	case LIT_LBRACE:
		return "{"
	case LIT_RBRACE:
		return "}"
	case LIT_LBRACKET:
		return "["
	case LIT_RBRACKET:
		return "]"
	case LIT_LPAREN:
		return "("
	case LIT_RPAREN:
		return ")"
	case LIT_COLON:
		return ":"
	case LIT_COMMA:
		return ","
	case LIT_MINUS:
		return "-"
	case LIT_PLUS:
		return "+"
	default:
		return fmt.Sprintf("UNKNOWN_LITERAL_TOKEN(%d)", t)
	}
}

// LiteralLexer scans header text for literal tokens. Comment lines
// introduced by '#' are consumed as whitespace; there is no token that can
// carry executable content.
type LiteralLexer struct {
	input  []rune
	pos    int // index of the current rune
	line   int
	column int  // column of the current rune (1-indexed)
	ch     rune // current rune, 0 at EOF
}

// NewLiteralLexer creates a lexer over the given header text.
func NewLiteralLexer(input string) *LiteralLexer {
	l := &LiteralLexer{
		input:  []rune(input),
		pos:    -1,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// readChar advances to the next rune, tracking line and column.
func (l *LiteralLexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	l.pos++
	if l.pos >= len(l.input) {
		l.ch = 0
		return
	}
	l.ch = l.input[l.pos]
	l.column++
}

// peekChar returns the next rune without advancing.
func (l *LiteralLexer) peekChar() rune {
	if l.pos+1 >= len(l.input) {
		return 0
	}
	return l.input[l.pos+1]
}

// NextToken scans and returns the next token.
func (l *LiteralLexer) NextToken() LiteralToken {
	l.skipWhitespaceAndComments()

	tok := LiteralToken{
		Line:   l.line,
		Column: l.column,
	}

	switch l.ch {
	case '{':
		tok.Type = LIT_LBRACE
		tok.Literal = "{"
	case '}':
		tok.Type = LIT_RBRACE
		tok.Literal = "}"
	case '[':
		tok.Type = LIT_LBRACKET
		tok.Literal = "["
	case ']':
		tok.Type = LIT_RBRACKET
		tok.Literal = "]"
	case '(':
		tok.Type = LIT_LPAREN
		tok.Literal = "("
	case ')':
		tok.Type = LIT_RPAREN
		tok.Literal = ")"
	case ':':
		tok.Type = LIT_COLON
		tok.Literal = ":"
	case ',':
		tok.Type = LIT_COMMA
		tok.Literal = ","
	case '-':
		tok.Type = LIT_MINUS
		tok.Literal = "-"
	case '+':
		tok.Type = LIT_PLUS
		tok.Literal = "+"
	case '"', '\'':
		lit, ok := l.readString(l.ch)
		if !ok {
			tok.Type = LIT_ILLEGAL
			tok.Literal = lit
			return tok
		}
		tok.Type = LIT_STRING
		tok.Literal = lit
		return tok
	case 0:
		tok.Type = LIT_EOF
		tok.Literal = ""
		return tok
	default:
		if unicode.IsLetter(l.ch) || l.ch == '_' {
			tok.Literal = l.readName()
			kw, ok := literalKeywords[tok.Literal]
			if !ok {
				// Bare identifiers are not literals; this is where any
				// attempt at executable content surfaces.
				tok.Type = LIT_ILLEGAL
				return tok
			}
			tok.Type = kw
			return tok
		}
		if unicode.IsDigit(l.ch) || (l.ch == '.' && unicode.IsDigit(l.peekChar())) {
			tok.Literal = l.readNumber()
			tok.Type = LIT_NUMBER
			return tok
		}
		tok.Type = LIT_ILLEGAL
		tok.Literal = string(l.ch)
	}

	l.readChar()
	return tok
}

func (l *LiteralLexer) skipWhitespaceAndComments() {
	for {
		for unicode.IsSpace(l.ch) {
			l.readChar()
		}
		if l.ch == '#' {
			for l.ch != 0 && l.ch != '\n' {
				l.readChar()
			}
			continue
		}
		return
	}
}

// readName reads a bare word (True, False, None, or an illegal identifier).
func (l *LiteralLexer) readName() string {
	var sb strings.Builder
	for unicode.IsLetter(l.ch) || unicode.IsDigit(l.ch) || l.ch == '_' {
		sb.WriteRune(l.ch)
		l.readChar()
	}
	return sb.String()
}

// readNumber reads a number literal: decimal or hex integers, floats with
// fractional and exponent parts.
func (l *LiteralLexer) readNumber() string {
	var sb strings.Builder

	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		sb.WriteRune(l.ch)
		l.readChar()
		sb.WriteRune(l.ch)
		l.readChar()
		for isLiteralHexDigit(l.ch) {
			sb.WriteRune(l.ch)
			l.readChar()
		}
		return sb.String()
	}

	for unicode.IsDigit(l.ch) {
		sb.WriteRune(l.ch)
		l.readChar()
	}

	if l.ch == '.' {
		sb.WriteRune(l.ch)
		l.readChar()
		for unicode.IsDigit(l.ch) {
			sb.WriteRune(l.ch)
			l.readChar()
		}
	}

	if l.ch == 'e' || l.ch == 'E' {
		sb.WriteRune(l.ch)
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			sb.WriteRune(l.ch)
			l.readChar()
		}
		for unicode.IsDigit(l.ch) {
			sb.WriteRune(l.ch)
			l.readChar()
		}
	}

	return sb.String()
}

// readString reads a quoted string, handling the usual escapes. Returns the
// decoded value and whether the string was terminated properly.
func (l *LiteralLexer) readString(quoteChar rune) (string, bool) {
	var sb strings.Builder
	l.readChar() // consume the opening quote

	for l.ch != 0 && l.ch != quoteChar && l.ch != '\n' {
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				sb.WriteRune('\n')
				l.readChar()
			case 'r':
				sb.WriteRune('\r')
				l.readChar()
			case 't':
				sb.WriteRune('\t')
				l.readChar()
			case '0':
				sb.WriteRune(0)
				l.readChar()
			case '\\':
				sb.WriteRune('\\')
				l.readChar()
			case '"':
				sb.WriteRune('"')
				l.readChar()
			case '\'':
				sb.WriteRune('\'')
				l.readChar()
			case 'u':
				l.readChar()
				hexDigits := make([]rune, 4)
				for i := 0; i < 4; i++ {
					if !isLiteralHexDigit(l.ch) {
						return sb.String(), false
					}
					hexDigits[i] = l.ch
					l.readChar()
				}
				val, err := strconv.ParseInt(string(hexDigits), 16, 32)
				if err != nil {
					return sb.String(), false
				}
				sb.WriteRune(rune(val))
			default:
				sb.WriteRune('\\')
				sb.WriteRune(l.ch)
				l.readChar()
			}
		} else {
			sb.WriteRune(l.ch)
			l.readChar()
		}
	}

	if l.ch != quoteChar {
		return sb.String(), false
	}
	l.readChar() // consume the closing quote
	return sb.String(), true
}

func isLiteralHexDigit(ch rune) bool {
	return unicode.IsDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}
