package tokentest

import (
	"testing"

	"github.com/SRI-AIC/valet-sub000/internal/tseq"
)

func seqOf(words ...string) *tseq.InMemory {
	toks := make([]tseq.Token, len(words))
	offset := 0
	for i, w := range words {
		toks[i] = tseq.Token{Text: w, Offset: offset, Length: len(w)}
		offset += len(w) + 1
	}
	return tseq.NewInMemory("t1", joinWithSpace(words), toks)
}

func joinWithSpace(words []string) string {
	out := ""
	for i, w := range words {
		if i > 0 {
			out += " "
		}
		out += w
	}
	return out
}

type stubImporter struct {
	tests map[string]TokenTest
}

func (s *stubImporter) ResolveTest(name string) (TokenTest, error) { return s.tests[name], nil }
func (s *stubImporter) ReadWordFile(path string) ([]string, error) { return []string{path}, nil }
func (s *stubImporter) RadiusExpander() RadiusExpander              { return NoopExpander{} }

func TestRegexMatchesAt(t *testing.T) {
	tt, err := NewRegex(`^[A-Z]\w+$`, false)
	if err != nil {
		t.Fatal(err)
	}
	seq := seqOf("Apple", "banana")
	if !tt.MatchesAt(seq, 0) {
		t.Errorf("expected match at 0")
	}
	if tt.MatchesAt(seq, 1) {
		t.Errorf("expected no match at 1")
	}
}

func TestMembershipCaseInsensitive(t *testing.T) {
	tt := NewMembership([]string{"Cat", "Dog"}, true, false)
	seq := seqOf("cat", "fish")
	if !tt.MatchesAt(seq, 0) {
		t.Errorf("expected case-insensitive membership match")
	}
	if tt.MatchesAt(seq, 1) {
		t.Errorf("expected no match for fish")
	}
}

func TestLookupAnnotation(t *testing.T) {
	seq := seqOf("run")
	seq.Tokens[0].Annotations = map[string]any{"pos": "VERB"}
	tt := NewLookup("pos", []string{"VERB", "NOUN"})
	if !tt.MatchesAt(seq, 0) {
		t.Errorf("expected lookup to match VERB")
	}
	if _, ok := tt.Requirements()[RequirePOS]; !ok {
		t.Errorf("expected POS requirement")
	}
}

func TestParseAndOrNot(t *testing.T) {
	imp := &stubImporter{tests: map[string]TokenTest{}}
	tt, err := Parse(`not <foo>i and (/bar/ or {baz qux}i)`, imp)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	seq := seqOf("BAZ")
	if !tt.MatchesAt(seq, 0) {
		t.Errorf("expected expression to match BAZ via membership")
	}
}

func TestParseRef(t *testing.T) {
	imp := &stubImporter{tests: map[string]TokenTest{"isFruit": NewMembership([]string{"apple"}, false, false)}}
	tt, err := Parse(`&isFruit`, imp)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	seq := seqOf("apple")
	if !tt.MatchesAt(seq, 0) {
		t.Errorf("expected ref to resolve and match")
	}
}

func TestParseClusterImport(t *testing.T) {
	tests, err := ParseClusterImport("fruit;veg", "apple banana;carrot potato")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tests["fruit"].MatchesAt(seqOf("apple"), 0) {
		t.Errorf("expected fruit cluster to match apple")
	}
	if tests["veg"].MatchesAt(seqOf("apple"), 0) {
		t.Errorf("expected veg cluster not to match apple")
	}
}
