package rulelang

import "testing"

func TestParsesSimpleTestStatement(t *testing.T) {
	src := "fruit: {apple banana}i\n"
	p := New(src)
	stmts := p.Statements()
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	if stmts[0].Name() != "fruit" {
		t.Errorf("expected name 'fruit', got %q", stmts[0].Name())
	}
	if stmts[0].Op != ":" {
		t.Errorf("expected op ':', got %q", stmts[0].Op)
	}
	if stmts[0].Expression() != "{apple banana}i" {
		t.Errorf("expected expression '{apple banana}i', got %q", stmts[0].Expression())
	}
}

func TestContinuationLineExtendsExpression(t *testing.T) {
	src := "greeting -> hello\n  world\n"
	p := New(src)
	stmts := p.Statements()
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	if stmts[0].Expression() != "hello\n  world" {
		t.Errorf("unexpected expression: %q", stmts[0].Expression())
	}
}

func TestBlankLineTerminatesStatement(t *testing.T) {
	src := "a: <foo>\n\nb: <bar>\n"
	p := New(src)
	stmts := p.Statements()
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}
}

func TestBrokenLineReported(t *testing.T) {
	src := "this is not valid\n"
	p := New(src)
	regions := p.Regions()
	if len(regions) != 1 {
		t.Fatalf("expected 1 region, got %d", len(regions))
	}
	if _, ok := regions[0].(*BrokenRegion); !ok {
		t.Fatalf("expected a BrokenRegion, got %T", regions[0])
	}
}

func TestCommentRegion(t *testing.T) {
	src := "# a comment\nfruit: <apple>\n"
	p := New(src)
	regions := p.Regions()
	if len(regions) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(regions))
	}
	if _, ok := regions[0].(CommentRegion); !ok {
		t.Fatalf("expected a CommentRegion first, got %T", regions[0])
	}
}

func TestBindingsParsed(t *testing.T) {
	src := "rule ~ [n=2] match(color, _)\n"
	p := New(src)
	stmts := p.Statements()
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	if stmts[0].Bindings["n"] != "2" {
		t.Errorf("expected binding n=2, got %+v", stmts[0].Bindings)
	}
	if stmts[0].Expression() != "match(color, _)" {
		t.Errorf("expected bindings stripped from expression, got %q", stmts[0].Expression())
	}
}

func TestMacroDefinition(t *testing.T) {
	src := "greet(x) = hello x\n"
	p := New(src)
	stmts := p.Statements()
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	if stmts[0].Name() != "greet(x)" {
		t.Errorf("expected macro name 'greet(x)', got %q", stmts[0].Name())
	}
	if stmts[0].Expression() != "hello x" {
		t.Errorf("expected macro body 'hello x', got %q", stmts[0].Expression())
	}
}
