package expr

import (
	"errors"
	"fmt"
	"strconv"
)

type node interface {
	eval(s scope) (bool, error)
}

type orNode struct{ left, right node }

func (n orNode) eval(s scope) (bool, error) {
	ok, err := n.left.eval(s)
	if err != nil || ok {
		return ok, err
	}
	return n.right.eval(s)
}

type andNode struct{ left, right node }

func (n andNode) eval(s scope) (bool, error) {
	ok, err := n.left.eval(s)
	if err != nil || !ok {
		return false, err
	}
	return n.right.eval(s)
}

type notNode struct{ inner node }

func (n notNode) eval(s scope) (bool, error) {
	ok, err := n.inner.eval(s)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

type truthyNode struct{ identifier string }

func (n truthyNode) eval(s scope) (bool, error) {
	value, ok := s.lookup(n.identifier)
	return ok && truthy(value), nil
}

type operandKind int

const (
	operandIdentifier operandKind = iota
	operandString
	operandNumber
	operandBool
	operandNull
)

// operand is either a field reference or a literal. A bare word on the
// right of a comparison that names no field reads as a string.
type operand struct {
	kind   operandKind
	raw    string
	number float64
	bare   bool
}

func (o operand) resolve(s scope) any {
	switch o.kind {
	case operandIdentifier:
		value, ok := s.lookup(o.raw)
		if !ok && o.bare {
			return o.raw
		}
		return value
	case operandString:
		return o.raw
	case operandNumber:
		return o.number
	case operandBool:
		return o.raw == "true"
	default:
		return nil
	}
}

type compareNode struct {
	left, right operand
	op          tokenKind
}

func (n compareNode) literalKind() operandKind {
	if n.left.kind != operandIdentifier {
		return n.left.kind
	}
	return n.right.kind
}

func (n compareNode) eval(s scope) (bool, error) {
	left, right := n.left.resolve(s), n.right.resolve(s)

	if n.op.ordering() {
		a, okA := coerceNumber(left)
		b, okB := coerceNumber(right)
		if !okA || !okB {
			return false, nil
		}
		switch n.op {
		case tokenLt:
			return a < b, nil
		case tokenLte:
			return a <= b, nil
		case tokenGt:
			return a > b, nil
		default:
			return a >= b, nil
		}
	}

	var equal bool
	switch n.literalKind() {
	case operandNull:
		equal = left == nil && right == nil
	case operandBool:
		a, _ := coerceBool(left)
		b, _ := coerceBool(right)
		equal = a == b
	case operandNumber:
		a, okA := coerceNumber(left)
		b, okB := coerceNumber(right)
		equal = okA && okB && a == b
	default:
		a, okA := coerceNumber(left)
		b, okB := coerceNumber(right)
		if n.literalKind() == operandIdentifier && okA && okB {
			equal = a == b
		} else {
			equal = coerceString(left) == coerceString(right)
		}
	}
	if n.op == tokenEq {
		return equal, nil
	}
	return !equal, nil
}

type parser struct {
	tokens []token
	pos    int
}

func parse(tokens []token) (node, error) {
	p := &parser{tokens: tokens}
	n, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("expr: unexpected token %q", p.tokens[p.pos].raw)
	}
	return n, nil
}

func (p *parser) or() (node, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.match(tokenOr) {
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) and() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.match(tokenAnd) {
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) unary() (node, error) {
	if p.match(tokenNot) {
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return p.primary()
}

func (p *parser) primary() (node, error) {
	if p.match(tokenLParen) {
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		if !p.match(tokenRParen) {
			return nil, errors.New("expr: missing closing ')'")
		}
		return inner, nil
	}
	if p.pos >= len(p.tokens) {
		return nil, errors.New("expr: empty expression")
	}

	left, err := p.operand()
	if err != nil {
		return nil, err
	}
	op, ok := p.comparison()
	if !ok {
		if left.kind != operandIdentifier {
			return nil, fmt.Errorf("expr: literal %q must be compared", left.raw)
		}
		return truthyNode{identifier: left.raw}, nil
	}
	right, err := p.operand()
	if err != nil {
		return nil, err
	}
	right.bare = right.kind == operandIdentifier
	if left.kind != operandIdentifier && right.kind != operandIdentifier {
		return nil, errors.New("expr: comparison needs at least one field")
	}
	n := compareNode{left: left, right: right, op: op}
	if op.ordering() {
		switch n.literalKind() {
		case operandNull, operandBool, operandString:
			return nil, fmt.Errorf("expr: %s needs numeric operands", opString(op))
		}
	}
	return n, nil
}

func (p *parser) comparison() (tokenKind, bool) {
	if p.pos >= len(p.tokens) || !p.tokens[p.pos].kind.comparison() {
		return 0, false
	}
	kind := p.tokens[p.pos].kind
	p.pos++
	return kind, true
}

func (p *parser) operand() (operand, error) {
	if p.pos >= len(p.tokens) {
		return operand{}, errors.New("expr: missing operand")
	}
	tok := p.tokens[p.pos]
	p.pos++
	switch tok.kind {
	case tokenIdentifier:
		return operand{kind: operandIdentifier, raw: tok.raw}, nil
	case tokenString:
		return operand{kind: operandString, raw: tok.raw}, nil
	case tokenNumber:
		f, err := strconv.ParseFloat(tok.raw, 64)
		if err != nil {
			return operand{}, fmt.Errorf("expr: invalid number literal %q", tok.raw)
		}
		return operand{kind: operandNumber, raw: tok.raw, number: f}, nil
	case tokenBool:
		return operand{kind: operandBool, raw: tok.raw}, nil
	case tokenNull:
		return operand{kind: operandNull, raw: tok.raw}, nil
	default:
		return operand{}, fmt.Errorf("expr: expected field or literal, got %q", tok.raw)
	}
}

func (p *parser) match(kind tokenKind) bool {
	if p.pos >= len(p.tokens) || p.tokens[p.pos].kind != kind {
		return false
	}
	p.pos++
	return true
}

func opString(kind tokenKind) string {
	switch kind {
	case tokenEq:
		return "=="
	case tokenNeq:
		return "!="
	case tokenLt:
		return "<"
	case tokenLte:
		return "<="
	case tokenGt:
		return ">"
	case tokenGte:
		return ">="
	default:
		return "?"
	}
}
