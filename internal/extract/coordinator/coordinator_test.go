package coordinator

import (
	"testing"

	"github.com/SRI-AIC/valet-sub000/internal/match"
	"github.com/SRI-AIC/valet-sub000/internal/tseq"
)

type fakeExtractor struct {
	matches []match.Match
}

func (f *fakeExtractor) Scan(seq tseq.Sequence) []match.Match { return f.matches }
func (f *fakeExtractor) MatchesAt(seq tseq.Sequence, at int) []match.Match {
	var out []match.Match
	for _, m := range f.matches {
		if m.Begin() == at {
			out = append(out, m)
		}
	}
	return out
}

type fakeResolver struct {
	extractors map[string]NamedExtractor
	recorded   map[string]bool
}

func (r *fakeResolver) Extractor(name string) (NamedExtractor, error) { return r.extractors[name], nil }
func (r *fakeResolver) Recorded(name string, seq tseq.Sequence) bool   { return r.recorded[name] }

func seqOf(n int) *tseq.InMemory {
	toks := make([]tseq.Token, n)
	for i := range toks {
		toks[i] = tseq.Token{Text: "w"}
	}
	return tseq.NewInMemory("s", "", toks)
}

func fam(seq tseq.Sequence, name string, b, e int) match.Match {
	return match.NewFAMatch(seq, name, b, e, nil, nil)
}

func TestMatchOperator(t *testing.T) {
	seq := seqOf(10)
	color := &fakeExtractor{matches: []match.Match{fam(seq, "color", 2, 3), fam(seq, "color", 8, 9)}}
	resolver := &fakeResolver{extractors: map[string]NamedExtractor{"color": color}}
	feed := Match("color", resolver, Base{})
	got := feed.Run(seq)
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
}

func TestFilterInvert(t *testing.T) {
	seq := seqOf(10)
	base := &fakeExtractor{matches: []match.Match{fam(seq, "sentence", 0, 10)}}
	color := &fakeExtractor{matches: nil}
	resolver := &fakeResolver{extractors: map[string]NamedExtractor{"sentence": base, "color": color}}
	feed, err := Parse(`filter(color, sentence, invert)`, resolver)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	got := feed.Run(seq)
	if len(got) != 1 {
		t.Fatalf("expected the sentence match to pass since color never matched, got %d", len(got))
	}
}

func TestUnionDedupesByExtent(t *testing.T) {
	seq := seqOf(10)
	a := &fakeExtractor{matches: []match.Match{fam(seq, "a", 0, 2)}}
	b := &fakeExtractor{matches: []match.Match{fam(seq, "b", 0, 2)}}
	resolver := &fakeResolver{extractors: map[string]NamedExtractor{"a": a, "b": b}}
	feed, err := Parse(`union(a, b)`, resolver)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	got := feed.Run(seq)
	if len(got) != 1 {
		t.Fatalf("expected 1 deduped match, got %d", len(got))
	}
}

func TestCountOperator(t *testing.T) {
	seq := seqOf(10)
	inner := &fakeExtractor{matches: []match.Match{fam(seq, "n", 1, 2), fam(seq, "n", 3, 4), fam(seq, "n", 5, 6)}}
	outer := &fakeExtractor{matches: []match.Match{fam(seq, "span", 0, 10)}}
	resolver := &fakeResolver{extractors: map[string]NamedExtractor{"n": inner, "span": outer}}
	feed, err := Parse(`count(n, span, 2)`, resolver)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if got := feed.Run(seq); len(got) != 1 {
		t.Fatalf("expected the span to pass count>=2, got %d", len(got))
	}
	feed2, err := Parse(`count(n, span, 5)`, resolver)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if got := feed2.Run(seq); len(got) != 0 {
		t.Fatalf("expected the span to fail count>=5, got %d", len(got))
	}
}

func TestWhenUsesRecordedState(t *testing.T) {
	seq := seqOf(10)
	base := &fakeExtractor{matches: []match.Match{fam(seq, "x", 0, 1)}}
	resolver := &fakeResolver{extractors: map[string]NamedExtractor{"x": base}, recorded: map[string]bool{"flag": true}}
	feed, err := Parse(`when(flag, x)`, resolver)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if got := feed.Run(seq); len(got) != 1 {
		t.Fatalf("expected when(true) to pass through, got %d", len(got))
	}
	resolver.recorded["flag"] = false
	if got := feed.Run(seq); len(got) != 0 {
		t.Fatalf("expected when(false) to suppress matches, got %d", len(got))
	}
}
