package coordinator

import (
	"fmt"
	"strings"

	"github.com/SRI-AIC/valet-sub000/internal/match"
	"github.com/SRI-AIC/valet-sub000/internal/tseq"
)

// BoolExpr is a boolean tree over recorded-extractor-name atoms, the
// operand to the `when` coordinator. seq is the token sequence currently
// being evaluated, excluded from each atom's recorded-match check so that
// a rule's own match within seq can't satisfy a when guard over it.
type BoolExpr interface {
	Eval(resolver Resolver, seq tseq.Sequence) bool
}

type boolName string

func (n boolName) Eval(resolver Resolver, seq tseq.Sequence) bool {
	return resolver.Recorded(string(n), seq)
}

type boolNot struct{ operand BoolExpr }

func (n boolNot) Eval(resolver Resolver, seq tseq.Sequence) bool { return !n.operand.Eval(resolver, seq) }

type boolAnd struct{ operands []BoolExpr }

func (n boolAnd) Eval(resolver Resolver, seq tseq.Sequence) bool {
	for _, op := range n.operands {
		if !op.Eval(resolver, seq) {
			return false
		}
	}
	return true
}

type boolOr struct{ operands []BoolExpr }

func (n boolOr) Eval(resolver Resolver, seq tseq.Sequence) bool {
	for _, op := range n.operands {
		if op.Eval(resolver, seq) {
			return true
		}
	}
	return false
}

// ParseBoolExpr parses the `when` boolean grammar: or/and/not over bare
// extractor names and parentheses.
func ParseBoolExpr(expr string) (BoolExpr, error) {
	p := &boolParser{src: expr}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, &SyntaxError{Offset: p.pos, Message: "unexpected trailing input"}
	}
	return node, nil
}

// SyntaxError reports a malformed coordinator or boolean expression.
type SyntaxError struct {
	Offset  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("coordinator: syntax error at offset %d: %s", e.Offset, e.Message)
}

type boolParser struct {
	src string
	pos int
}

func (p *boolParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *boolParser) eof() bool { return p.pos >= len(p.src) }

func (p *boolParser) peekWord(word string) bool {
	p.skipSpace()
	if !strings.HasPrefix(p.src[p.pos:], word) {
		return false
	}
	after := p.pos + len(word)
	if after < len(p.src) && isNameByte(p.src[after]) {
		return false
	}
	return true
}

func isNameByte(c byte) bool {
	return c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (p *boolParser) parseOr() (BoolExpr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	ops := []BoolExpr{left}
	for p.peekWord("or") {
		p.pos += 2
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		ops = append(ops, right)
	}
	if len(ops) == 1 {
		return ops[0], nil
	}
	return boolOr{operands: ops}, nil
}

func (p *boolParser) parseAnd() (BoolExpr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	ops := []BoolExpr{left}
	for p.peekWord("and") {
		p.pos += 3
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		ops = append(ops, right)
	}
	if len(ops) == 1 {
		return ops[0], nil
	}
	return boolAnd{operands: ops}, nil
}

func (p *boolParser) parseUnary() (BoolExpr, error) {
	if p.peekWord("not") {
		p.pos += 3
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return boolNot{operand: operand}, nil
	}
	p.skipSpace()
	if !p.eof() && p.src[p.pos] == '(' {
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.eof() || p.src[p.pos] != ')' {
			return nil, &SyntaxError{Offset: p.pos, Message: "expected ')'"}
		}
		p.pos++
		return inner, nil
	}
	start := p.pos
	for p.pos < len(p.src) && isNameByte(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return nil, &SyntaxError{Offset: start, Message: "expected extractor name"}
	}
	return boolName(p.src[start:p.pos]), nil
}

// When implements the `when(boolean, F)` operator: F's matches pass
// through unchanged for the current token sequence only if boolean
// evaluates true against the document-level recorded-match set.
func When(boolean BoolExpr, resolver Resolver, feed Feed) Feed {
	return FeedFunc(func(seq tseq.Sequence) []match.Match {
		if !boolean.Eval(resolver, seq) {
			return nil
		}
		return feed.Run(seq)
	})
}
