package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenLt
	tokenLte
	tokenGt
	tokenGte
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

func (k tokenKind) comparison() bool {
	return k >= tokenEq && k <= tokenGte
}

func (k tokenKind) ordering() bool {
	return k >= tokenLt && k <= tokenGte
}

type token struct {
	kind tokenKind
	raw  string
}

type lexer struct {
	input  string
	pos    int
	tokens []token
}

func tokenize(input string) ([]token, error) {
	l := &lexer{input: input}
	for l.pos < len(l.input) {
		if err := l.step(); err != nil {
			return nil, err
		}
	}
	return l.tokens, nil
}

func (l *lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *lexer) emit(kind tokenKind, raw string) {
	l.tokens = append(l.tokens, token{kind: kind, raw: raw})
}

// pair emits double when the next byte is second, otherwise single. A zero
// single kind means the lone byte is invalid.
func (l *lexer) pair(second byte, double tokenKind, single *tokenKind) error {
	first := l.input[l.pos]
	l.pos++
	if l.peek() == second {
		l.pos++
		l.emit(double, string([]byte{first, second}))
		return nil
	}
	if single == nil {
		return fmt.Errorf("expr: unexpected %q; use %q", first, string([]byte{first, second}))
	}
	l.emit(*single, string(first))
	return nil
}

func (l *lexer) step() error {
	ch := l.peek()
	switch {
	case isSpace(ch):
		l.pos++
		return nil
	case ch == '(':
		l.pos++
		l.emit(tokenLParen, "(")
		return nil
	case ch == ')':
		l.pos++
		l.emit(tokenRParen, ")")
		return nil
	case ch == '!':
		not := tokenNot
		return l.pair('=', tokenNeq, &not)
	case ch == '=':
		return l.pair('=', tokenEq, nil)
	case ch == '&':
		return l.pair('&', tokenAnd, nil)
	case ch == '|':
		return l.pair('|', tokenOr, nil)
	case ch == '<':
		lt := tokenLt
		return l.pair('=', tokenLte, &lt)
	case ch == '>':
		gt := tokenGt
		return l.pair('=', tokenGte, &gt)
	case ch == '"' || ch == '\'':
		return l.quoted(ch)
	default:
		l.word()
		return nil
	}
}

func (l *lexer) quoted(quote byte) error {
	start := l.pos
	l.pos++
	escaped := false
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		l.pos++
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == quote:
			body := l.input[start+1 : l.pos-1]
			if quote == '\'' {
				l.emit(tokenString, singleQuoted.Replace(body))
				return nil
			}
			value, err := strconv.Unquote(`"` + body + `"`)
			if err != nil {
				return fmt.Errorf("expr: invalid string literal: %w", err)
			}
			l.emit(tokenString, value)
			return nil
		}
	}
	return errors.New("expr: unterminated string literal")
}

func (l *lexer) word() {
	start := l.pos
	for l.pos < len(l.input) && !isDelimiter(l.input[l.pos]) {
		l.pos++
	}
	raw := l.input[start:l.pos]
	switch strings.ToLower(raw) {
	case "true", "false":
		l.emit(tokenBool, strings.ToLower(raw))
	case "null", "nil":
		l.emit(tokenNull, "null")
	case "and":
		l.emit(tokenAnd, "&&")
	case "or":
		l.emit(tokenOr, "||")
	case "not":
		l.emit(tokenNot, "!")
	default:
		if looksLikeNumber(raw) {
			l.emit(tokenNumber, raw)
		} else {
			l.emit(tokenIdentifier, raw)
		}
	}
}

var singleQuoted = strings.NewReplacer(`\\`, `\`, `\'`, `'`)

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDelimiter(c byte) bool {
	return isSpace(c) || strings.IndexByte("()!=&|<>\"'", c) >= 0
}

func looksLikeNumber(raw string) bool {
	if raw == "" {
		return false
	}
	_, err := strconv.ParseFloat(raw, 64)
	return err == nil
}
