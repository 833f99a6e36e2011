package manager

import (
	"github.com/SRI-AIC/valet-sub000/internal/extract/coordinator"
	"github.com/SRI-AIC/valet-sub000/internal/extract/frame"
	"github.com/SRI-AIC/valet-sub000/internal/extract/phrase"
	"github.com/SRI-AIC/valet-sub000/internal/extract/tokentest"
	"github.com/SRI-AIC/valet-sub000/internal/match"
	"github.com/SRI-AIC/valet-sub000/internal/tseq"
)

// builtinMatcher is satisfied by the phrase package's hardcoded START/END/
// ROOT extractors: they aren't compiled automatons, so they bypass entry
// entirely and are dispatched by name.
type builtinMatcher interface {
	Matches(seq tseq.Sequence, at int) []match.Match
}

var builtinExtractors = map[string]builtinMatcher{
	"START": phrase.Start{},
	"END":   phrase.End{},
	"ROOT":  phrase.Root{},
}

// boundResolver is the Resolver every compiled extractor kind is handed: it
// rewrites a referenced name through the entry's own substitutions (a
// `[k=v,...]` bindings block attached at definition) before resolving it
// against the owning Manager, so a parameterized rule's formal names get
// rebound to whatever the definition site supplied.
type boundResolver struct {
	m    *Manager
	subs map[string]string
}

func (b *boundResolver) resolveName(name string) string {
	return applySubstitutions(name, b.subs)
}

// tokentest.Importer

func (b *boundResolver) ResolveTest(name string) (tokentest.TokenTest, error) {
	return b.m.Test(b.resolveName(name))
}

func (b *boundResolver) ReadWordFile(path string) ([]string, error) {
	return b.m.readWordFile(path)
}

func (b *boundResolver) RadiusExpander() tokentest.RadiusExpander {
	return tokentest.NoopExpander{}
}

// phrase.Resolver / parsefa.Resolver

func (b *boundResolver) Test(name string) (tokentest.TokenTest, error) {
	return b.m.Test(b.resolveName(name))
}

func (b *boundResolver) MatchesAt(name string, seq tseq.Sequence, at int) ([]match.Match, error) {
	return b.m.MatchesAt(b.resolveName(name), seq, at)
}

// coordinator.Resolver

func (b *boundResolver) Extractor(name string) (coordinator.NamedExtractor, error) {
	resolved := b.resolveName(name)
	if _, _, err := b.m.lookup(resolved); err != nil {
		if _, ok := builtinExtractors[resolved]; !ok {
			return nil, err
		}
	}
	return extractorHandle{m: b.m, name: resolved}, nil
}

func (b *boundResolver) Recorded(name string, seq tseq.Sequence) bool {
	return b.m.Recorded(b.resolveName(name), seq)
}

// frameResolver adapts a Manager to frame.Resolver. It is a distinct type
// from boundResolver (rather than an added method on it) because
// frame.Resolver and coordinator.Resolver both declare an Extractor method
// with a different named return interface (frame.NamedExtractor vs.
// coordinator.NamedExtractor) — Go requires the exact declared type for
// interface satisfaction, so one type cannot implement both signatures.
type frameResolver struct{ m *Manager }

func (r frameResolver) Extractor(name string) (frame.NamedExtractor, error) {
	if _, _, err := r.m.lookup(name); err != nil {
		if _, ok := builtinExtractors[name]; !ok {
			return nil, err
		}
	}
	return extractorHandle{m: r.m, name: name}, nil
}

func (r frameResolver) Frame(name string) (*frame.Extractor, error) {
	e, owner, err := r.m.lookup(name)
	if err != nil {
		return nil, err
	}
	if e.kind != KindFrame {
		return nil, &CalloutTypeError{Name: name, Want: KindFrame, Got: e.kind}
	}
	if err := e.compile(owner); err != nil {
		return nil, err
	}
	return e.frameExt, nil
}

func (r frameResolver) IsFrame(name string) bool {
	e, _, err := r.m.lookup(name)
	return err == nil && e.kind == KindFrame
}

// extractorHandle adapts a Manager+name pair to coordinator.NamedExtractor,
// routing every call back through the Manager's cached entry points.
type extractorHandle struct {
	m    *Manager
	name string
}

func (h extractorHandle) Scan(seq tseq.Sequence) []match.Match {
	ms, _ := h.m.Scan(h.name, seq)
	return ms
}

func (h extractorHandle) MatchesAt(seq tseq.Sequence, at int) []match.Match {
	ms, _ := h.m.MatchesAt(h.name, seq, at)
	return ms
}
