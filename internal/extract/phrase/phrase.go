// Package phrase implements the token-consuming (phrase) automaton
// matcher compiled from a regexir tree via the fa package, plus the
// built-in extractors START, END, ROOT, and ANY.
package phrase

import (
	"strings"

	"github.com/SRI-AIC/valet-sub000/internal/extract/fa"
	"github.com/SRI-AIC/valet-sub000/internal/extract/regexir"
	"github.com/SRI-AIC/valet-sub000/internal/extract/tokentest"
	"github.com/SRI-AIC/valet-sub000/internal/match"
	"github.com/SRI-AIC/valet-sub000/internal/tseq"
)

// DefaultMaxMatch bounds the token span any single match may cover, to
// keep a runaway `*`/`+` pattern from walking an entire document.
const DefaultMaxMatch = 300

// Resolver supplies the named references a compiled automaton can call
// out to: token tests for Test transitions and other extractors (phrase,
// parse, or coordinator) for Callout states.
type Resolver interface {
	Test(name string) (tokentest.TokenTest, error)
	// MatchesAt returns every match of the named extractor starting
	// exactly at position at within seq.
	MatchesAt(name string, seq tseq.Sequence, at int) ([]match.Match, error)
}

// Matcher runs an automaton over a token sequence.
type Matcher struct {
	Name            string
	Automaton       *fa.Automaton
	Resolver        Resolver
	MaxMatch        int
	CaseInsensitive bool
}

// NewMatcher compiles node into a Matcher bound to resolver.
func NewMatcher(name string, node *regexir.Node, resolver Resolver, caseInsensitive bool) *Matcher {
	return &Matcher{
		Name:            name,
		Automaton:       fa.Compile(node),
		Resolver:        resolver,
		MaxMatch:        DefaultMaxMatch,
		CaseInsensitive: caseInsensitive,
	}
}

type walkResult struct {
	end        int
	submatches []match.Match
}

func (m *Matcher) symbolMatches(seq tseq.Sequence, at int, t fa.Transition) bool {
	text := seq.Text(at)
	lit := t.Text
	if t.CaseFold || m.CaseInsensitive {
		text = strings.ToLower(text)
		lit = strings.ToLower(lit)
	}
	return text == lit
}

// walk performs the recursive match-from-state traversal: at each state it
// (a) records a result if the state is final, (b) follows every outgoing
// transition the current token (or a callout) satisfies. seen guards
// against infinite epsilon loops within one token position; it is reset
// whenever a transition consumes a token or a callout advances position.
func (m *Matcher) walk(seq tseq.Sequence, state, at, start int, submatches []match.Match, seen map[int]bool) []walkResult {
	if at-start > m.MaxMatch {
		return nil
	}
	if seen[state] {
		return nil
	}
	seen[state] = true

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
		subs, err := m.Resolver.MatchesAt(s.CalloutName, seq, at)
		if err != nil {
			return results
		}
		for _, sm := range subs {
			next := append(append([]match.Match{}, submatches...), sm)
			results = append(results, m.walk(seq, s.CalloutNext, sm.End(), start, next, map[int]bool{})...)
		}
		return results
	}

	for _, t := range s.Transitions {
		switch t.Kind {
		case fa.Null:
			results = append(results, m.walk(seq, t.To, at, start, submatches, seen)...)
		case fa.Symbol:
			if at < seq.Len() && m.symbolMatches(seq, at, t) {
				results = append(results, m.walk(seq, t.To, at+1, start, submatches, map[int]bool{})...)
			}
		case fa.Test:
			if at < seq.Len() {
				tt, err := m.Resolver.Test(t.TestName)
				if err == nil && tt != nil && tt.MatchesAt(seq, at) {
					sm := match.NewFAMatch(seq, t.TestName, at, at+1, nil, nil)
					next := append(append([]match.Match{}, submatches...), sm)
					results = append(results, m.walk(seq, t.To, at+1, start, next, map[int]bool{})...)
				}
			}
		}
	}
	return results
}

// Matches returns every match starting exactly at start, dropping
// zero-length matches (end == start), per the phrase-automaton contract.
func (m *Matcher) Matches(seq tseq.Sequence, start int) []match.Match {
	results := m.walk(seq, m.Automaton.Start, start, start, nil, map[int]bool{})
	out := make([]match.Match, 0, len(results))
	for _, r := range results {
		if r.end == start {
			continue
		}
		out = append(out, match.NewFAMatch(seq, m.Name, start, r.end, nil, r.submatches))
	}
	return out
}

// Match returns the single longest match starting at start, or nil.
func (m *Matcher) Match(seq tseq.Sequence, start int) match.Match {
	ms := m.Matches(seq, start)
	var best match.Match
	for _, cand := range ms {
		if best == nil || cand.End() > best.End() {
			best = cand
		}
	}
	return best
}

// Search advances start until a match is found (or the sequence is
// exhausted), returning the first (leftmost) one found.
func (m *Matcher) Search(seq tseq.Sequence, from int) match.Match {
	for start := from; start <= seq.Len(); start++ {
		if best := m.Match(seq, start); best != nil {
			return best
		}
	}
	return nil
}

// Scan repeatedly searches, resuming each subsequent search immediately
// after the previous match's end, yielding one (the longest) match per
// successful search.
func (m *Matcher) Scan(seq tseq.Sequence) []match.Match {
	var out []match.Match
	at := 0
	for at <= seq.Len() {
		best := m.Search(seq, at)
		if best == nil {
			break
		}
		out = append(out, best)
		at = best.End()
		if best.End() == best.Begin() {
			at++ // never happens for Matches()-sourced results, but guards against stalling
		}
	}
	return out
}
