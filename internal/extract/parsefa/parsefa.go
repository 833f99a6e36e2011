// Package parsefa implements the edge-consuming (parse) automaton
// matcher: the same NFA shape as package phrase, but each Symbol/Test
// transition consumes one dependency edge instead of one token, and the
// match span is inclusive and may run backwards (toward the root).
package parsefa

import (
	"strings"

	"github.com/SRI-AIC/valet-sub000/internal/extract/fa"
	"github.com/SRI-AIC/valet-sub000/internal/extract/regexir"
	"github.com/SRI-AIC/valet-sub000/internal/extract/tokentest"
	"github.com/SRI-AIC/valet-sub000/internal/match"
	"github.com/SRI-AIC/valet-sub000/internal/tseq"
)

// Resolver supplies the named references an arc automaton calls out to.
type Resolver interface {
	Test(name string) (tokentest.TokenTest, error)
	MatchesAt(name string, seq tseq.Sequence, at int) ([]match.Match, error)
}

// Matcher runs an arc automaton over a token sequence's dependency graph.
type Matcher struct {
	Name            string
	Automaton       *fa.Automaton
	Resolver        Resolver
	CaseInsensitive bool
}

// NewMatcher compiles node into an arc Matcher bound to resolver.
func NewMatcher(name string, node *regexir.Node, resolver Resolver, caseInsensitive bool) *Matcher {
	return &Matcher{Name: name, Automaton: fa.Compile(node), Resolver: resolver, CaseInsensitive: caseInsensitive}
}

type visitKey struct{ state, at int }

type walkResult struct {
	end        int
	submatches []match.Match
}

func labelSeq(label string) *tseq.InMemory {
	return tseq.NewInMemory("", label, []tseq.Token{{Text: label, Offset: 0, Length: len(label)}})
}

func (m *Matcher) labelMatches(t fa.Transition, label string) bool {
	text, lit := label, t.Text
	if t.CaseFold || m.CaseInsensitive {
		text = strings.ToLower(text)
		lit = strings.ToLower(lit)
	}
	return text == lit
}

// edges returns the candidate (neighbor index, label) pairs reachable from
// at in the direction dir allows. tseq.RootParent (-1) is a valid neighbor,
// denoting the walk has reached the dependency root.
func edges(seq tseq.Sequence, at int, dir regexir.Direction) []tseq.Edge {
	var out []tseq.Edge
	if dir == regexir.DirAny || dir == regexir.DirUp {
		out = append(out, seq.Up(at)...)
	}
	if dir == regexir.DirAny || dir == regexir.DirDown {
		out = append(out, seq.Down(at)...)
	}
	return out
}

// walk performs one recursive transit over the arc automaton, guarding
// against cycles with a (state, token) visited set that persists for the
// whole traversal rooted at the initial start position.
func (m *Matcher) walk(seq tseq.Sequence, state, at int, submatches []match.Match, visited map[visitKey]bool) []walkResult {
	key := visitKey{state, at}
	if visited[key] {
		return nil
	}
	visited[key] = true

	var results []walkResult
	if m.Automaton.IsFinal(state) {
		cp := append([]match.Match{}, submatches...)
		results = append(results, walkResult{end: at, submatches: cp})
	}

	s := m.Automaton.States[state]
	if s.Kind == fa.Callout {
		if s.CalloutNext < 0 {
			return results
		}
		if at == tseq.RootParent {
			return results
		}
		subs, err := m.Resolver.MatchesAt(s.CalloutName, seq, at)
		if err != nil {
			return results
		}
		for _, sm := range subs {
			next := append(append([]match.Match{}, submatches...), sm)
			results = append(results, m.walk(seq, s.CalloutNext, sm.End(), next, visited)...)
		}
		return results
	}

	for _, t := range s.Transitions {
		switch t.Kind {
		case fa.Null:
			results = append(results, m.walk(seq, t.To, at, submatches, visited)...)
		case fa.Symbol:
			if at == tseq.RootParent {
				continue
			}
			for _, e := range edges(seq, at, t.Direction) {
				if m.labelMatches(t, e.Label) {
					results = append(results, m.walk(seq, t.To, e.Other, submatches, visited)...)
				}
			}
		case fa.Test:
			if at == tseq.RootParent {
				continue
			}
			tt, err := m.Resolver.Test(t.TestName)
			if err != nil || tt == nil {
				continue
			}
			for _, e := range edges(seq, at, t.Direction) {
				if tt.MatchesAt(labelSeq(e.Label), 0) {
					results = append(results, m.walk(seq, t.To, e.Other, submatches, visited)...)
				}
			}
		}
	}
	return results
}

// Matches returns every match starting exactly at start. Unlike the
// phrase matcher it does not drop zero-length results: a walk that reaches
// a final state without following an edge yields a match whose begin and
// end are both start.
func (m *Matcher) Matches(seq tseq.Sequence, start int) []match.Match {
	results := m.walk(seq, m.Automaton.Start, start, nil, map[visitKey]bool{})
	out := make([]match.Match, 0, len(results))
	for _, r := range results {
		if r.end == tseq.RootParent {
			out = append(out, match.NewFARootMatch(seq, m.Name, start, nil))
			continue
		}
		out = append(out, match.NewFAArcMatch(seq, m.Name, start, r.end, nil, r.submatches))
	}
	return out
}

// Scan tries every start position in [0,end) in turn (parse matching does
// not jump ahead past a match's end the way phrase scanning does) and
// emits every successful walk found from each.
func (m *Matcher) Scan(seq tseq.Sequence) []match.Match {
	var out []match.Match
	for start := 0; start < seq.Len(); start++ {
		out = append(out, m.Matches(seq, start)...)
	}
	return out
}
