// Package manager ties the five extractor kinds together: it resolves the
// dotted names a rule file references (within its own namespace, across an
// explicit `<-` import, or up through an enclosing directory's manager),
// compiles each extractor lazily on first use, memoizes Scan/Matches/Search/
// Match results per token sequence, and tracks the document-level recorded-
// match state the `when` coordinator consults.
package manager

import (
	"fmt"
	"sync"

	"github.com/SRI-AIC/valet-sub000/internal/extract/coordinator"
	"github.com/SRI-AIC/valet-sub000/internal/extract/frame"
	"github.com/SRI-AIC/valet-sub000/internal/extract/parsefa"
	"github.com/SRI-AIC/valet-sub000/internal/extract/phrase"
	"github.com/SRI-AIC/valet-sub000/internal/extract/regexir"
	"github.com/SRI-AIC/valet-sub000/internal/extract/tokentest"
	"github.com/SRI-AIC/valet-sub000/internal/match"
	"github.com/SRI-AIC/valet-sub000/internal/matchcache"
	"github.com/SRI-AIC/valet-sub000/internal/tseq"
)

// Kind distinguishes the five extractor kinds a Manager can hold.
type Kind int

const (
	KindTest Kind = iota
	KindPhrase
	KindParse
	KindCoord
	KindFrame
)

func (k Kind) String() string {
	switch k {
	case KindTest:
		return "test"
	case KindPhrase:
		return "phrase"
	case KindParse:
		return "parse"
	case KindCoord:
		return "coordinator"
	case KindFrame:
		return "frame"
	default:
		return "unknown"
	}
}

// entry holds one registered extractor definition, compiled at most once
// the first time anything resolves it.
type entry struct {
	kind            Kind
	name            string
	caseInsensitive bool
	substitutions   map[string]string

	testExpr  string
	coordExpr string
	frameExpr string
	node      *regexir.Node // phrase / parse, parsed eagerly at definition time

	once          sync.Once
	compileErr    error
	test          tokentest.TokenTest
	phraseMatcher *phrase.Matcher
	parseMatcher  *parsefa.Matcher
	coordFeed     coordinator.Feed
	frameExt      *frame.Extractor
}

func (e *entry) compile(owner *Manager) error {
	e.once.Do(func() {
		r := &boundResolver{m: owner, subs: e.substitutions}
		switch e.kind {
		case KindTest:
			if e.test == nil { // not already pre-seeded (e.g. a lexicon import)
				e.test, e.compileErr = tokentest.Parse(e.testExpr, r)
			}
		case KindPhrase:
			e.phraseMatcher = phrase.NewMatcher(e.name, e.node, r, e.caseInsensitive)
		case KindParse:
			e.parseMatcher = parsefa.NewMatcher(e.name, e.node, r, e.caseInsensitive)
		case KindCoord:
			e.coordFeed, e.compileErr = coordinator.Parse(e.coordExpr, r)
		case KindFrame:
			e.frameExt, e.compileErr = frame.Parse(e.name, e.frameExpr)
		}
	})
	return e.compileErr
}

// Manager is one rule-file namespace: its own defined extractors, any
// explicitly `<-` imported child namespaces, and (for a nested directory of
// rule files) a Parent to fall back to for plain-name lookups.
type Manager struct {
	Name    string
	Parent  *Manager
	Imports map[string]*Manager

	AllowRedefinition bool
	BuiltinDataDir    string
	SourceDir         string

	// Cache, if set, is written through with a lossy Record snapshot of
	// every Scan/Matches/Search/Match result, for external observability
	// or cross-process reuse (see internal/matchcache). It is never read
	// from to answer a lookup: correctness is owned entirely by the
	// in-process resultCache below, keyed so that a different token
	// sequence never collides with a cached result for another one.
	Cache matchcache.Cache

	entries map[string]*entry
	order   []string

	mu          sync.Mutex
	resultCache map[matchcache.Key][]match.Match
	// recorded maps docID -> name -> the set of sequence ids in which name
	// has matched. Recorded excludes the sequence currently being
	// evaluated from that set before asking whether it's non-empty, so a
	// rule matching within the same sequence a `when` guard is being
	// evaluated against never satisfies that guard.
	recorded   map[string]map[string]map[string]bool
	currentDoc string
	wordFiles  map[string][]string
}

// New creates an empty, named Manager.
func New(name string) *Manager {
	return &Manager{
		Name:        name,
		Imports:     make(map[string]*Manager),
		entries:     make(map[string]*entry),
		resultCache: make(map[matchcache.Key][]match.Match),
		recorded:    make(map[string]map[string]map[string]bool),
		wordFiles:   make(map[string][]string),
	}
}

// UnresolvedNameError reports that a dotted name could not be found in this
// Manager, any of its imports, or any enclosing Parent.
type UnresolvedNameError struct{ Name string }

func (e *UnresolvedNameError) Error() string {
	return fmt.Sprintf("manager: unresolved name %q", e.Name)
}

// CalloutTypeError reports that a name resolved to an extractor of the
// wrong kind for how it was referenced (e.g. a frame used as a phrase
// callout).
type CalloutTypeError struct {
	Name string
	Want Kind
	Got  Kind
}

func (e *CalloutTypeError) Error() string {
	return fmt.Sprintf("manager: %q is a %s, not a %s", e.Name, e.Got, e.Want)
}

// RedefinitionError reports a second definition of name when the Manager's
// AllowRedefinition flag is false (the default: the first wins).
type RedefinitionError struct{ Name string }

func (e *RedefinitionError) Error() string {
	return fmt.Sprintf("manager: %q is already defined", e.Name)
}

// applySubstitutions rewrites name through subs to a fixed point: while name
// names a key, follow it, stopping the instant a name repeats (guards
// against a substitution cycle instead of looping forever).
func applySubstitutions(name string, subs map[string]string) string {
	seen := map[string]bool{name: true}
	for {
		next, ok := subs[name]
		if !ok || seen[next] {
			return name
		}
		name = next
		seen[name] = true
	}
}

func splitDotted(name string) (head, rest string, has bool) {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return name[:i], name[i+1:], true
		}
	}
	return name, "", false
}

// lookup resolves name (already substitution-rewritten by the caller) to
// its entry and the Manager instance that owns it: first as a dotted import
// reference, then as a local definition, then by falling back to Parent.
func (m *Manager) lookup(name string) (*entry, *Manager, error) {
	if head, rest, ok := splitDotted(name); ok {
		if child, ok := m.Imports[head]; ok {
			return child.lookup(rest)
		}
		return nil, nil, &UnresolvedNameError{Name: name}
	}
	if e, ok := m.entries[name]; ok {
		return e, m, nil
	}
	if m.Parent != nil {
		return m.Parent.lookup(name)
	}
	return nil, nil, &UnresolvedNameError{Name: name}
}

func (m *Manager) root() *Manager {
	r := m
	for r.Parent != nil {
		r = r.Parent
	}
	return r
}

// Requirements aggregates the NLP annotation layers every defined token
// test in this Manager (and its imports) depends on, compiling each as
// needed to discover them.
func (m *Manager) Requirements() map[tokentest.Requirement]struct{} {
	out := make(map[tokentest.Requirement]struct{})
	for _, name := range m.order {
		e := m.entries[name]
		if e.kind != KindTest {
			continue
		}
		if err := e.compile(m); err != nil {
			continue
		}
		if e.test == nil {
			continue
		}
		for r := range e.test.Requirements() {
			out[r] = struct{}{}
		}
	}
	for _, child := range m.Imports {
		for r := range child.Requirements() {
			out[r] = struct{}{}
		}
	}
	return out
}

// BeginDocument starts a fresh recorded-match scope for docID, shared by
// this Manager and its entire import tree (the when operator's recorded
// state is document-global, not per-namespace). It also drops every
// memoized result in the tree, since a when result computed under the
// previous document's recorded state does not carry over.
func (m *Manager) BeginDocument(docID string) {
	r := m.root()
	var drop func(*Manager)
	drop = func(mm *Manager) {
		mm.invalidate()
		for _, child := range mm.Imports {
			drop(child)
		}
	}
	drop(r)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recorded[docID]; !ok {
		r.recorded[docID] = make(map[string]map[string]bool)
	}
	r.currentDoc = docID
}

// EndDocument clears the ambient "current document" pointer (but not the
// recorded state itself, which ClearRecorded removes explicitly).
func (m *Manager) EndDocument() {
	r := m.root()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentDoc = ""
}

// ClearRecorded discards the recorded-match state for docID entirely.
func (m *Manager) ClearRecorded(docID string) {
	r := m.root()
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.recorded, docID)
}

// Record marks name as having matched in seq, within the current document.
func (m *Manager) Record(name string, seq tseq.Sequence) {
	r := m.root()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.currentDoc == "" {
		return
	}
	ids, ok := r.recorded[r.currentDoc][name]
	if !ok {
		ids = make(map[string]bool)
		r.recorded[r.currentDoc][name] = ids
	}
	ids[seqID(seq)] = true
}

// Recorded reports whether name has matched in some token sequence of the
// current document other than seq itself. A match recorded only against
// seq (the sequence currently being evaluated) does not count: the when
// guard is asking about other sentences, not the one it's gating.
func (m *Manager) Recorded(name string, seq tseq.Sequence) bool {
	r := m.root()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.currentDoc == "" {
		return false
	}
	ids := r.recorded[r.currentDoc][name]
	if len(ids) == 0 {
		return false
	}
	if ids[seqID(seq)] {
		return len(ids) > 1
	}
	return true
}

func seqID(seq tseq.Sequence) string {
	if im, ok := seq.(*tseq.InMemory); ok {
		return im.ID
	}
	return fmt.Sprintf("%p", seq)
}

func (m *Manager) cached(op, name string, seq tseq.Sequence, start, end int, compute func() ([]match.Match, error)) ([]match.Match, error) {
	key := matchcache.Key{SeqID: seqID(seq), Op: op, Name: name, Start: start, End: end}
	m.mu.Lock()
	if cached, ok := m.resultCache[key]; ok {
		m.mu.Unlock()
		return cached, nil
	}
	m.mu.Unlock()

	results, err := compute()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.resultCache[key] = results
	m.mu.Unlock()

	if m.Cache != nil {
		m.Cache.Put(key, toRecords(results))
	}
	if len(results) > 0 {
		m.Record(name, seq)
	}
	return results, nil
}

func toRecords(ms []match.Match) []matchcache.Record {
	out := make([]matchcache.Record, 0, len(ms))
	for _, mm := range ms {
		kind := "fa"
		switch mm.(type) {
		case *match.FAArcMatch:
			kind = "arc"
		case *match.FARootMatch:
			kind = "root"
		case *match.CoordMatch:
			kind = "coord"
		}
		out = append(out, matchcache.Record{Name: mm.Name(), Begin: mm.Begin(), End: mm.End(), Kind: kind})
	}
	return out
}

// invalidate drops every memoized result for this Manager instance, used
// after a definition so a stale compiled entry can never be served again,
// and by BeginDocument at each document boundary.
func (m *Manager) invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resultCache = make(map[matchcache.Key][]match.Match)
}

// Scan runs the named extractor over the whole of seq.
func (m *Manager) Scan(name string, seq tseq.Sequence) ([]match.Match, error) {
	return m.cached("scan", name, seq, 0, -1, func() ([]match.Match, error) {
		return m.computeScan(name, seq)
	})
}

// MatchesAt returns every match of the named extractor starting exactly at
// position at.
func (m *Manager) MatchesAt(name string, seq tseq.Sequence, at int) ([]match.Match, error) {
	return m.cached("matches", name, seq, at, -1, func() ([]match.Match, error) {
		return m.computeMatchesAt(name, seq, at)
	})
}

// Search advances from from until the named extractor produces a match,
// returning the first (leftmost) one found.
func (m *Manager) Search(name string, seq tseq.Sequence, from int) (match.Match, error) {
	results, err := m.cached("search", name, seq, from, -1, func() ([]match.Match, error) {
		r, err := m.computeSearch(name, seq, from)
		if err != nil || r == nil {
			return nil, err
		}
		return []match.Match{r}, nil
	})
	if err != nil || len(results) == 0 {
		return nil, err
	}
	return results[0], nil
}

// Match returns the single longest match of the named extractor starting at
// start, or nil.
func (m *Manager) Match(name string, seq tseq.Sequence, start int) (match.Match, error) {
	ms, err := m.MatchesAt(name, seq, start)
	if err != nil {
		return nil, err
	}
	return longest(ms), nil
}

func longest(ms []match.Match) match.Match {
	var best match.Match
	for _, cand := range ms {
		if best == nil {
			best = cand
			continue
		}
		_, bhi := match.Extent(best)
		_, chi := match.Extent(cand)
		if chi > bhi {
			best = cand
		}
	}
	return best
}

func (m *Manager) computeScan(name string, seq tseq.Sequence) ([]match.Match, error) {
	if bm, ok := builtinExtractors[name]; ok {
		return scanBuiltin(bm, seq), nil
	}
	e, owner, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	if err := e.compile(owner); err != nil {
		return nil, err
	}
	switch e.kind {
	case KindTest:
		return scanTest(e.test, name, seq), nil
	case KindPhrase:
		return e.phraseMatcher.Scan(seq), nil
	case KindParse:
		return e.parseMatcher.Scan(seq), nil
	case KindCoord:
		return e.coordFeed.Run(seq), nil
	default:
		return nil, &CalloutTypeError{Name: name, Want: KindPhrase, Got: e.kind}
	}
}

// scanTest emits a one-token FAMatch at every position a token test holds,
// so a bare token test can be named directly as a coordinator operand
// (e.g. `match(period, _)`) or scanned on its own.
func scanTest(t tokentest.TokenTest, name string, seq tseq.Sequence) []match.Match {
	var out []match.Match
	for at := 0; at < seq.Len(); at++ {
		if t.MatchesAt(seq, at) {
			out = append(out, match.NewFAMatch(seq, name, at, at+1, nil, nil))
		}
	}
	return out
}

func (m *Manager) computeMatchesAt(name string, seq tseq.Sequence, at int) ([]match.Match, error) {
	if bm, ok := builtinExtractors[name]; ok {
		return bm.Matches(seq, at), nil
	}
	e, owner, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	if err := e.compile(owner); err != nil {
		return nil, err
	}
	switch e.kind {
	case KindTest:
		if at < seq.Len() && e.test.MatchesAt(seq, at) {
			return []match.Match{match.NewFAMatch(seq, name, at, at+1, nil, nil)}, nil
		}
		return nil, nil
	case KindPhrase:
		return e.phraseMatcher.Matches(seq, at), nil
	case KindParse:
		return e.parseMatcher.Matches(seq, at), nil
	case KindCoord:
		var out []match.Match
		for _, cm := range e.coordFeed.Run(seq) {
			if lo, _ := match.Extent(cm); lo == at {
				out = append(out, cm)
			}
		}
		return out, nil
	default:
		return nil, &CalloutTypeError{Name: name, Want: KindPhrase, Got: e.kind}
	}
}

func (m *Manager) computeSearch(name string, seq tseq.Sequence, from int) (match.Match, error) {
	for start := from; start <= seq.Len(); start++ {
		ms, err := m.computeMatchesAt(name, seq, start)
		if err != nil {
			return nil, err
		}
		if best := longest(ms); best != nil {
			return best, nil
		}
	}
	return nil, nil
}

func scanBuiltin(bm builtinMatcher, seq tseq.Sequence) []match.Match {
	var out []match.Match
	for at := 0; at <= seq.Len(); at++ {
		out = append(out, bm.Matches(seq, at)...)
	}
	return out
}

// Frame runs the named frame extractor over seq, compiling it on first use.
func (m *Manager) Frame(name string, seq tseq.Sequence) ([]*match.Frame, error) {
	e, owner, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	if e.kind != KindFrame {
		return nil, &CalloutTypeError{Name: name, Want: KindFrame, Got: e.kind}
	}
	if err := e.compile(owner); err != nil {
		return nil, err
	}
	return e.frameExt.Run(seq, frameResolver{m: owner})
}

// Names returns every name defined directly on this Manager (not its
// imports or Parent), in definition order, along with its Kind. Used by
// tooling (cmd/valet, internal/matchserver) that needs to enumerate a rule
// set rather than resolve one name at a time.
func (m *Manager) Names() []NamedKind {
	out := make([]NamedKind, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, NamedKind{Name: name, Kind: m.entries[name].kind})
	}
	return out
}

// NamedKind pairs a defined name with its extractor Kind.
type NamedKind struct {
	Name string
	Kind Kind
}

// Test resolves name to a compiled token test.
func (m *Manager) Test(name string) (tokentest.TokenTest, error) {
	if name == "ANY" {
		if _, _, err := m.lookup(name); err != nil {
			return tokentest.Any{}, nil
		}
	}
	e, owner, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	if e.kind != KindTest {
		return nil, &CalloutTypeError{Name: name, Want: KindTest, Got: e.kind}
	}
	if err := e.compile(owner); err != nil {
		return nil, err
	}
	return e.test, nil
}
