package tokentest

import (
	"fmt"
	"strings"
)

// SyntaxError reports a malformed token test expression, with the byte
// offset into the source string where parsing failed.
type SyntaxError struct {
	Offset  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("tokentest: syntax error at offset %d: %s", e.Offset, e.Message)
}

// Importer resolves the external inputs a token test expression can name:
// references to other tests, word lists loaded from files, and radius
// expanders. A rule set's manager implements this.
type Importer interface {
	ResolveTest(name string) (TokenTest, error)
	ReadWordFile(path string) ([]string, error)
	RadiusExpander() RadiusExpander
}

// Parse parses a token test expression (the right-hand side of a `name:
// expr` statement) against imp for name and file resolution.
func Parse(expr string, imp Importer) (TokenTest, error) {
	p := &parser{src: expr, imp: imp}
	p.skipSpace()
	tt, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, &SyntaxError{Offset: p.pos, Message: "unexpected trailing input"}
	}
	return tt, nil
}

type parser struct {
	src string
	pos int
	imp Importer
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peekWord(word string) bool {
	p.skipSpace()
	if !strings.HasPrefix(p.src[p.pos:], word) {
		return false
	}
	after := p.pos + len(word)
	if after < len(p.src) {
		c := p.src[after]
		if isWordByte(c) {
			return false
		}
	}
	return true
}

func (p *parser) consumeWord(word string) { p.pos += len(word) }

func isWordByte(c byte) bool {
	return c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (p *parser) parseOr() (TokenTest, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	operands := []TokenTest{left}
	for p.peekWord("or") {
		p.consumeWord("or")
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		operands = append(operands, right)
	}
	if len(operands) == 1 {
		return operands[0], nil
	}
	return &Or{Operands: operands}, nil
}

func (p *parser) parseAnd() (TokenTest, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	operands := []TokenTest{left}
	for p.peekWord("and") {
		p.consumeWord("and")
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		operands = append(operands, right)
	}
	if len(operands) == 1 {
		return operands[0], nil
	}
	return &And{Operands: operands}, nil
}

func (p *parser) parseUnary() (TokenTest, error) {
	if p.peekWord("not") {
		p.consumeWord("not")
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Not{Operand: operand}, nil
	}
	return p.parseAtom()
}

func (p *parser) parseAtom() (TokenTest, error) {
	p.skipSpace()
	if p.eof() {
		return nil, &SyntaxError{Offset: p.pos, Message: "expected atom, found end of input"}
	}
	switch p.src[p.pos] {
	case '(':
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
	case '/':
		return p.parseRegex()
	case '<':
		return p.parseSubstring()
	case '{':
		return p.parseBraced("")
	case '&':
		return p.parseRef()
	case 'f':
		if p.pos+1 < len(p.src) && p.src[p.pos+1] == '{' {
			return p.parseFileMembership()
		}
		return p.parseLookup()
	default:
		return p.parseLookup()
	}
}

func (p *parser) parseUntil(delim byte) (string, error) {
	start := p.pos
	for p.pos < len(p.src) {
		if p.src[p.pos] == '\\' && p.pos+1 < len(p.src) {
			p.pos += 2
			continue
		}
		if p.src[p.pos] == delim {
			s := p.src[start:p.pos]
			p.pos++
			return s, nil
		}
		p.pos++
	}
	return "", &SyntaxError{Offset: start, Message: fmt.Sprintf("unterminated, expected %q", delim)}
}

func (p *parser) parseFlags(valid string) string {
	start := p.pos
	for p.pos < len(p.src) && strings.IndexByte(valid, p.src[p.pos]) >= 0 {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) parseRegex() (TokenTest, error) {
	p.pos++ // consume '/'
	pattern, err := p.parseUntil('/')
	if err != nil {
		return nil, err
	}
	flags := p.parseFlags("i")
	return NewRegex(pattern, strings.Contains(flags, "i"))
}

func (p *parser) parseSubstring() (TokenTest, error) {
	p.pos++ // consume '<'
	sub, err := p.parseUntil('>')
	if err != nil {
		return nil, err
	}
	flags := p.parseFlags("i")
	return NewSubstring(sub, strings.Contains(flags, "i")), nil
}

func (p *parser) parseBraced(label string) (TokenTest, error) {
	p.pos++ // consume '{'
	body, err := p.parseUntil('}')
	if err != nil {
		return nil, err
	}
	words := strings.Fields(body)
	p.skipSpace()
	if !p.eof() && p.src[p.pos] == 'R' {
		p.pos++
		approx := p.parseFlags("a")
		_ = approx
		return NewRadius(p.imp.RadiusExpander(), words, false), nil
	}
	flags := p.parseFlags("is")
	if label != "" {
		return NewLookup(label, words), nil
	}
	return NewMembership(words, strings.Contains(flags, "i"), strings.Contains(flags, "s")), nil
}

func (p *parser) parseFileMembership() (TokenTest, error) {
	p.pos++ // consume 'f'
	p.pos++ // consume '{'
	path, err := p.parseUntil('}')
	if err != nil {
		return nil, err
	}
	words, err := p.imp.ReadWordFile(path)
	if err != nil {
		return nil, err
	}
	flags := p.parseFlags("is")
	return NewMembership(words, strings.Contains(flags, "i"), strings.Contains(flags, "s")), nil
}

func (p *parser) parseRef() (TokenTest, error) {
	p.pos++ // consume '&'
	start := p.pos
	for p.pos < len(p.src) && isWordByte(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return nil, &SyntaxError{Offset: start, Message: "expected name after '&'"}
	}
	name := p.src[start:p.pos]
	return &Ref{Name: name, Resolve: p.imp.ResolveTest}, nil
}

// parseLookup parses `label[tok tok ...]`, the annotation-based lookup
// atom (POS[...], NER[...], LEMMA[...], or any custom layer name).
func (p *parser) parseLookup() (TokenTest, error) {
	start := p.pos
	for p.pos < len(p.src) && isWordByte(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return nil, &SyntaxError{Offset: start, Message: "expected identifier"}
	}
	label := p.src[start:p.pos]
	if p.eof() || p.src[p.pos] != '[' {
		return nil, &SyntaxError{Offset: p.pos, Message: fmt.Sprintf("expected '[' after label %q", label)}
	}
	p.pos++
	body, err := p.parseUntil(']')
	if err != nil {
		return nil, err
	}
	return NewLookup(label, strings.Fields(body)), nil
}

// ParseClusterImport parses a `c{labels;clusters}` definition, returning
// one named membership test per cluster. labels and clusters are both
// semicolon-separated lists of the same length: the i-th label names a
// membership test over the whitespace-separated words (newlines count as
// whitespace) of the i-th cluster body.
func ParseClusterImport(labels, clusters string) (map[string]TokenTest, error) {
	names := strings.Split(labels, ";")
	bodies := strings.Split(clusters, ";")
	if len(names) != len(bodies) {
		return nil, fmt.Errorf("tokentest: cluster import has %d labels but %d clusters", len(names), len(bodies))
	}
	out := make(map[string]TokenTest, len(names))
	for i, name := range names {
		name = strings.TrimSpace(name)
		words := strings.Fields(bodies[i])
		out[name] = NewMembership(words, false, false)
	}
	return out, nil
}
