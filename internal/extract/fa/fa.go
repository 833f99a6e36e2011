// Package fa provides the shared NFA representation and Thompson-style
// compiler used by both the phrase (token-consuming) and parse
// (edge-consuming) extractors. Matching itself lives in the phrase and
// parsefa packages, since the two kinds consume different things (a
// token vs. a dependency edge) and apply different bounds/cycle rules;
// this package only builds and exposes the automaton shape.
package fa

import "github.com/SRI-AIC/valet-sub000/internal/extract/regexir"

// TransitionKind distinguishes the three non-callout transition variants.
type TransitionKind int

const (
	Null TransitionKind = iota
	Symbol
	Test
)

// Transition is one outgoing edge of a Normal state. To is the destination
// state id.
type Transition struct {
	Kind      TransitionKind
	To        int
	Text      string
	CaseFold  bool
	Direction regexir.Direction // meaningful only for parse-extractor Symbol/Test transitions
	TestName  string
}

// StateKind distinguishes a Normal state (plain transition list) from a
// Callout state (a single distinguished exit reached only after a
// referenced extractor has been consulted).
type StateKind int

const (
	Normal StateKind = iota
	Callout
)

// State is one NFA state.
type State struct {
	ID                int
	Kind              StateKind
	Transitions       []Transition // Normal states only
	CalloutName       string       // Callout states only
	CalloutDirection  regexir.Direction
	CalloutNext       int // the single epsilon-exit target of a Callout state
}

// Automaton is a complete compiled NFA: a state table, a start state, and
// a final-state set.
type Automaton struct {
	States []*State
	Start  int
	Final  map[int]bool
}

func (a *Automaton) newState() *State {
	s := &State{ID: len(a.States)}
	a.States = append(a.States, s)
	return s
}

type patch func(to int)

type fragment struct {
	start int
	out   []patch
}

func patchAll(out []patch, to int) {
	for _, p := range out {
		p(to)
	}
}

type builder struct {
	a *Automaton
}

func (b *builder) addTransition(s *State, kind TransitionKind, text string, caseFold bool, dir regexir.Direction, testName string) patch {
	idx := len(s.Transitions)
	s.Transitions = append(s.Transitions, Transition{Kind: kind, To: -1, Text: text, CaseFold: caseFold, Direction: dir, TestName: testName})
	return func(to int) { s.Transitions[idx].To = to }
}

func (b *builder) literal(text string, caseFold bool, dir regexir.Direction) fragment {
	s := b.a.newState()
	p := b.addTransition(s, Symbol, text, caseFold, dir, "")
	return fragment{start: s.ID, out: []patch{p}}
}

func (b *builder) testRef(name string, dir regexir.Direction) fragment {
	s := b.a.newState()
	p := b.addTransition(s, Test, "", false, dir, name)
	return fragment{start: s.ID, out: []patch{p}}
}

func (b *builder) calloutRef(name string, dir regexir.Direction) fragment {
	s := b.a.newState()
	s.Kind = Callout
	s.CalloutName = name
	s.CalloutDirection = dir
	s.CalloutNext = -1
	id := s.ID
	p := func(to int) { b.a.States[id].CalloutNext = to }
	return fragment{start: id, out: []patch{p}}
}

func (b *builder) concat(frags []fragment) fragment {
	if len(frags) == 0 {
		// empty concatenation matches the empty string: a single state
		// whose sole null transition is the fragment's dangling exit.
		s := b.a.newState()
		p := b.addTransition(s, Null, "", false, regexir.DirAny, "")
		return fragment{start: s.ID, out: []patch{p}}
	}
	cur := frags[0]
	for _, next := range frags[1:] {
		patchAll(cur.out, next.start)
		cur = fragment{start: cur.start, out: next.out}
	}
	return cur
}

func (b *builder) altern(frags []fragment) fragment {
	if len(frags) == 1 {
		return frags[0]
	}
	s := b.a.newState()
	var out []patch
	for _, f := range frags {
		p := b.addTransition(s, Null, "", false, regexir.DirAny, "")
		p(f.start)
		out = append(out, f.out...)
	}
	return fragment{start: s.ID, out: out}
}

func (b *builder) star(f fragment) fragment {
	s := b.a.newState()
	enter := b.addTransition(s, Null, "", false, regexir.DirAny, "")
	enter(f.start)
	exit := b.addTransition(s, Null, "", false, regexir.DirAny, "")
	patchAll(f.out, s.ID)
	return fragment{start: s.ID, out: []patch{exit}}
}

func (b *builder) plus(f fragment) fragment {
	s := b.a.newState()
	loop := b.addTransition(s, Null, "", false, regexir.DirAny, "")
	loop(f.start)
	exit := b.addTransition(s, Null, "", false, regexir.DirAny, "")
	patchAll(f.out, s.ID)
	return fragment{start: f.start, out: []patch{exit}}
}

func (b *builder) opt(f fragment) fragment {
	s := b.a.newState()
	enter := b.addTransition(s, Null, "", false, regexir.DirAny, "")
	enter(f.start)
	skip := b.addTransition(s, Null, "", false, regexir.DirAny, "")
	out := append([]patch{skip}, f.out...)
	return fragment{start: s.ID, out: out}
}

func (b *builder) compile(n *regexir.Node) fragment {
	switch n.Kind {
	case regexir.NodeLiteral:
		return b.literal(n.Literal, n.CaseFold, n.Direction)
	case regexir.NodeTestRef:
		return b.testRef(n.Name, n.Direction)
	case regexir.NodeCalloutRef:
		return b.calloutRef(n.Name, n.Direction)
	case regexir.NodeConcat:
		frags := make([]fragment, len(n.Children))
		for i, c := range n.Children {
			frags[i] = b.compile(c)
		}
		return b.concat(frags)
	case regexir.NodeAltern:
		frags := make([]fragment, len(n.Children))
		for i, c := range n.Children {
			frags[i] = b.compile(c)
		}
		return b.altern(frags)
	case regexir.NodeStar:
		return b.star(b.compile(n.Child))
	case regexir.NodePlus:
		return b.plus(b.compile(n.Child))
	case regexir.NodeOpt:
		return b.opt(b.compile(n.Child))
	default:
		panic("fa: unknown node kind")
	}
}

// Compile builds an Automaton from a parsed regexir tree.
func Compile(n *regexir.Node) *Automaton {
	a := &Automaton{}
	b := &builder{a: a}
	frag := b.compile(n)
	final := a.newState() // Normal state with no transitions: a dead end that is simply Final.
	patchAll(frag.out, final.ID)
	a.Start = frag.start
	a.Final = map[int]bool{final.ID: true}
	return a
}

// NullClosure returns the set of state ids reachable from start via zero
// or more Null transitions, start included.
func (a *Automaton) NullClosure(start int) map[int]bool {
	closure := map[int]bool{start: true}
	stack := []int{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		s := a.States[id]
		if s.Kind != Normal {
			continue
		}
		for _, t := range s.Transitions {
			if t.Kind == Null && !closure[t.To] {
				closure[t.To] = true
				stack = append(stack, t.To)
			}
		}
	}
	return closure
}

// IsFinal reports whether id is in the final-state set. A Callout state is
// not final on its own account; a walk reaches a final state only after
// following its exit.
func (a *Automaton) IsFinal(id int) bool {
	if a.Final[id] {
		return true
	}
	return false
}
