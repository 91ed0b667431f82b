// Package pyliteral parses the restricted Python-style literal notation used
// by HDM file headers: numbers, strings, booleans, None, lists, tuples and
// string-keyed dicts. The grammar is pure data; there is deliberately no
// identifier lookup, call syntax, or operator evaluation, so hostile header
// text cannot express anything executable.
package pyliteral

import (
	"fmt"
	"strconv"
	"strings"
)

// LiteralParser consumes tokens from the lexer and builds plain Go values:
// map[string]any, []any, string, int64, float64, bool and nil.
type LiteralParser struct {
	lexer  *LiteralLexer
	token  LiteralToken // current token
	peek   LiteralToken // next token
	errors []string
}

// NewLiteralParser creates a parser over the given lexer.
func NewLiteralParser(lexer *LiteralLexer) *LiteralParser {
	p := &LiteralParser{lexer: lexer}
	p.nextToken() // initialize current token
	p.nextToken() // initialize peek token
	return p
}

// Parse parses a single literal value from the input and requires the input
// to be fully consumed afterwards.
func Parse(input string) (any, error) {
	p := NewLiteralParser(NewLiteralLexer(input))
	return p.Parse()
}

// Parse is the entry point for parsing one complete literal.
func (p *LiteralParser) Parse() (any, error) {
	val := p.parseValue()
	if len(p.errors) == 0 && p.token.Type != LIT_EOF {
		p.addError(fmt.Sprintf("unexpected trailing %s after literal", p.token.String()))
	}
	if len(p.errors) > 0 {
		return nil, fmt.Errorf("literal parse errors: %s", strings.Join(p.errors, "; "))
	}
	return val, nil
}

// Errors returns any accumulated parsing errors.
func (p *LiteralParser) Errors() []string {
	return p.errors
}

func (p *LiteralParser) addError(msg string) {
	p.errors = append(p.errors, fmt.Sprintf("error at %d:%d: %s", p.token.Line, p.token.Column, msg))
}

func (p *LiteralParser) nextToken() {
	p.token = p.peek
	p.peek = p.lexer.NextToken()
}

// expect checks that the current token has the given type and consumes it.
func (p *LiteralParser) expect(t LiteralTokenType) bool {
	if p.token.Type == t {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf("expected %s, got %s", t.String(), p.token.String()))
	return false
}

// parseValue parses one value and leaves the parser positioned after it.
func (p *LiteralParser) parseValue() any {
	switch p.token.Type {
	case LIT_STRING:
		val := p.token.Literal
		p.nextToken()
		return val
	case LIT_NUMBER:
		return p.parseNumber(false)
	case LIT_MINUS:
		p.nextToken()
		if p.token.Type != LIT_NUMBER {
			p.addError(fmt.Sprintf("expected number after '-', got %s", p.token.String()))
			return nil
		}
		return p.parseNumber(true)
	case LIT_PLUS:
		p.nextToken()
		if p.token.Type != LIT_NUMBER {
			p.addError(fmt.Sprintf("expected number after '+', got %s", p.token.String()))
			return nil
		}
		return p.parseNumber(false)
	case LIT_TRUE:
		p.nextToken()
		return true
	case LIT_FALSE:
		p.nextToken()
		return false
	case LIT_NONE:
		p.nextToken()
		return nil
	case LIT_LBRACE:
		return p.parseDict()
	case LIT_LBRACKET:
		return p.parseList()
	case LIT_LPAREN:
		return p.parseTuple()
	default:
		p.addError(fmt.Sprintf("unexpected %s, want a literal value", p.token.String()))
		p.nextToken()
		return nil
	}
}

// parseNumber parses the current NUMBER token as int64 when possible, falling
// back to float64 for fractional and exponent forms.
func (p *LiteralParser) parseNumber(negative bool) any {
	lit := p.token.Literal
	p.nextToken()
	if i, err := strconv.ParseInt(lit, 0, 64); err == nil {
		if negative {
			return -i
		}
		return i
	}
	if f, err := strconv.ParseFloat(lit, 64); err == nil {
		if negative {
			return -f
		}
		return f
	}
	p.addError(fmt.Sprintf("could not parse %q as a number", lit))
	return nil
}

// parseDict parses '{' (string ':' value (',' ...)* ','?)? '}'. Keys must be
// strings; anything else in key position is rejected.
func (p *LiteralParser) parseDict() any {
	p.nextToken() // consume '{'
	result := make(map[string]any)

	for p.token.Type != LIT_RBRACE {
		if p.token.Type == LIT_EOF {
			p.addError("unterminated dict, missing '}'")
			return result
		}
		if p.token.Type != LIT_STRING {
			p.addError(fmt.Sprintf("dict key must be a string, got %s", p.token.String()))
			return result
		}
		key := p.token.Literal
		p.nextToken()
		if !p.expect(LIT_COLON) {
			return result
		}
		result[key] = p.parseValue()
		if len(p.errors) > 0 {
			return result
		}
		if p.token.Type == LIT_COMMA {
			p.nextToken() // trailing comma before '}' is allowed
			continue
		}
		break
	}
	p.expect(LIT_RBRACE)
	return result
}

// parseList parses '[' (value (',' ...)* ','?)? ']'.
func (p *LiteralParser) parseList() any {
	p.nextToken() // consume '['
	result := make([]any, 0)

	for p.token.Type != LIT_RBRACKET {
		if p.token.Type == LIT_EOF {
			p.addError("unterminated list, missing ']'")
			return result
		}
		result = append(result, p.parseValue())
		if len(p.errors) > 0 {
			return result
		}
		if p.token.Type == LIT_COMMA {
			p.nextToken()
			continue
		}
		break
	}
	p.expect(LIT_RBRACKET)
	return result
}

// parseTuple parses '(' ... ')'. A parenthesized single value without a
// trailing comma is just that value, matching Python literal semantics;
// anything else yields a []any.
func (p *LiteralParser) parseTuple() any {
	p.nextToken() // consume '('
	result := make([]any, 0)
	sawComma := false

	for p.token.Type != LIT_RPAREN {
		if p.token.Type == LIT_EOF {
			p.addError("unterminated tuple, missing ')'")
			return result
		}
		result = append(result, p.parseValue())
		if len(p.errors) > 0 {
			return result
		}
		if p.token.Type == LIT_COMMA {
			sawComma = true
			p.nextToken()
			continue
		}
		break
	}
	if !p.expect(LIT_RPAREN) {
		return result
	}
	if len(result) == 1 && !sawComma {
		return result[0]
	}
	return result
}
