package parsefa

import (
	"testing"

	"github.com/SRI-AIC/valet-sub000/internal/extract/regexir"
	"github.com/SRI-AIC/valet-sub000/internal/extract/tokentest"
	"github.com/SRI-AIC/valet-sub000/internal/match"
	"github.com/SRI-AIC/valet-sub000/internal/tseq"
)

type stubResolver struct{ tests map[string]tokentest.TokenTest }

func (r *stubResolver) Test(name string) (tokentest.TokenTest, error) { return r.tests[name], nil }
func (r *stubResolver) MatchesAt(name string, seq tseq.Sequence, at int) ([]match.Match, error) {
	return nil, nil
}

// buildTree makes "dog" --nsubj--> "barks" (barks is the root).
func buildTree() *tseq.InMemory {
	toks := []tseq.Token{{Text: "dog"}, {Text: "barks"}}
	seq := tseq.NewInMemory("s", "dog barks", toks)
	seq.AddEdge(0, 1, "nsubj")
	seq.AddEdge(1, tseq.RootParent, "root")
	return seq
}

func TestUpEdgeWalk(t *testing.T) {
	node, err := regexir.Parse(`/nsubj`)
	if err != nil {
		t.Fatal(err)
	}
	m := NewMatcher("r1", node, &stubResolver{}, false)
	got := m.Matches(buildTree(), 0)
	if len(got) != 1 {
		t.Fatalf("expected one match, got %d", len(got))
	}
	arc, ok := got[0].(*match.FAArcMatch)
	if !ok || arc.End() != 1 {
		t.Fatalf("expected arc match ending at parent index 1, got %+v", got[0])
	}
}

func TestDownEdgeRestriction(t *testing.T) {
	node, err := regexir.Parse(`\nsubj`)
	if err != nil {
		t.Fatal(err)
	}
	m := NewMatcher("r2", node, &stubResolver{}, false)
	// From the root (index 1), the nsubj edge goes down to 0.
	got := m.Matches(buildTree(), 1)
	if len(got) != 1 || got[0].End() != 0 {
		t.Fatalf("expected down-edge match ending at 0, got %+v", got)
	}
	// From the child (index 0), nsubj only goes up, so \\nsubj should not match.
	got2 := m.Matches(buildTree(), 0)
	if len(got2) != 0 {
		t.Fatalf("expected no down-edge match from child, got %+v", got2)
	}
}

func TestWalkToRoot(t *testing.T) {
	node, err := regexir.Parse(`/nsubj /root`)
	if err != nil {
		t.Fatal(err)
	}
	m := NewMatcher("r3", node, &stubResolver{}, false)
	got := m.Matches(buildTree(), 0)
	if len(got) != 1 {
		t.Fatalf("expected one match, got %d", len(got))
	}
	if _, ok := got[0].(*match.FARootMatch); !ok {
		t.Fatalf("expected FARootMatch when walk reaches the root sentinel, got %T", got[0])
	}
}
