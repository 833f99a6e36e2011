// Package tokentest implements the token test extractor: boolean
// predicates over a single token, the smallest building block every other
// extractor kind compiles against.
package tokentest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/SRI-AIC/valet-sub000/internal/tseq"
)

// Requirement names an NLP annotation layer a test depends on.
type Requirement string

const (
	RequirePOS      Requirement = "POS"
	RequireNER      Requirement = "NER"
	RequireLemma    Requirement = "LEMMA"
	RequireEmbedding Requirement = "EMBEDDINGS"
)

// TokenTest evaluates a predicate against one token of a sequence.
type TokenTest interface {
	MatchesAt(seq tseq.Sequence, at int) bool
	Requirements() map[Requirement]struct{}
}

func noReqs() map[Requirement]struct{} { return nil }

func union(sets ...map[Requirement]struct{}) map[Requirement]struct{} {
	out := make(map[Requirement]struct{})
	for _, s := range sets {
		for r := range s {
			out[r] = struct{}{}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Any matches every token; it backs the built-in ANY test.
type Any struct{}

func (Any) MatchesAt(seq tseq.Sequence, at int) bool            { return true }
func (Any) Requirements() map[Requirement]struct{}              { return nil }

// Regex matches token text against a compiled regular expression.
type Regex struct {
	re *regexp.Regexp
}

// NewRegex compiles pattern, applying case-insensitivity when requested.
func NewRegex(pattern string, caseInsensitive bool) (*Regex, error) {
	if caseInsensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("tokentest: bad regex %q: %w", pattern, err)
	}
	return &Regex{re: re}, nil
}

func (t *Regex) MatchesAt(seq tseq.Sequence, at int) bool {
	return t.re.MatchString(seq.Text(at))
}

func (t *Regex) Requirements() map[Requirement]struct{} { return nil }

// Substring matches when the token text contains sub.
type Substring struct {
	sub             string
	caseInsensitive bool
}

func NewSubstring(sub string, caseInsensitive bool) *Substring {
	if caseInsensitive {
		sub = strings.ToLower(sub)
	}
	return &Substring{sub: sub, caseInsensitive: caseInsensitive}
}

func (t *Substring) MatchesAt(seq tseq.Sequence, at int) bool {
	text := seq.Text(at)
	if t.caseInsensitive {
		text = strings.ToLower(text)
	}
	return strings.Contains(text, t.sub)
}

func (t *Substring) Requirements() map[Requirement]struct{} { return nil }

// Membership matches when the token's surface (or lemma, when useLemma is
// set) is a member of a fixed word list.
type Membership struct {
	members         map[string]struct{}
	caseInsensitive bool
	useLemma        bool
}

// NewMembership builds a membership test over words, lower-cased at
// construction time when caseInsensitive is set.
func NewMembership(words []string, caseInsensitive, useLemma bool) *Membership {
	members := make(map[string]struct{}, len(words))
	for _, w := range words {
		if caseInsensitive {
			w = strings.ToLower(w)
		}
		members[w] = struct{}{}
	}
	return &Membership{members: members, caseInsensitive: caseInsensitive, useLemma: useLemma}
}

func (t *Membership) MatchesAt(seq tseq.Sequence, at int) bool {
	key := seq.Text(at)
	if t.useLemma {
		vals := tseq.AnnotationStrings(seq.Annotation("lemma", at))
		for _, v := range vals {
			if t.has(v) {
				return true
			}
		}
		return false
	}
	return t.has(key)
}

func (t *Membership) has(s string) bool {
	if t.caseInsensitive {
		s = strings.ToLower(s)
	}
	_, ok := t.members[s]
	return ok
}

func (t *Membership) Requirements() map[Requirement]struct{} {
	if t.useLemma {
		return map[Requirement]struct{}{RequireLemma: {}}
	}
	return nil
}

// Lookup inspects a named annotation layer (POS, NER, LEMMA, or any custom
// layer produced by the NLP pipeline) and requires membership in a fixed
// set. Annotation values that are sets (multiple NER tags on one token,
// say) match if any element is a member.
type Lookup struct {
	label   string
	members map[string]struct{}
}

// NewLookup builds a lookup test over an annotation layer.
func NewLookup(label string, words []string) *Lookup {
	members := make(map[string]struct{}, len(words))
	for _, w := range words {
		members[w] = struct{}{}
	}
	return &Lookup{label: label, members: members}
}

func (t *Lookup) MatchesAt(seq tseq.Sequence, at int) bool {
	vals := tseq.AnnotationStrings(seq.Annotation(t.label, at))
	for _, v := range vals {
		if _, ok := t.members[v]; ok {
			return true
		}
	}
	return false
}

func (t *Lookup) Requirements() map[Requirement]struct{} {
	switch strings.ToUpper(t.label) {
	case "POS":
		return map[Requirement]struct{}{RequirePOS: {}}
	case "NER":
		return map[Requirement]struct{}{RequireNER: {}}
	case "LEMMA":
		return map[Requirement]struct{}{RequireLemma: {}}
	default:
		return nil
	}
}

// RadiusExpander widens a fixed term list to a larger set of related terms,
// typically via a word-embedding nearest-neighbor lookup. The core ships
// only a no-op expander; a real implementation is an external concern.
type RadiusExpander interface {
	Expand(terms []string) []string
}

// NoopExpander returns terms unchanged; it lets the radius-test grammar and
// requirement aggregation be exercised without a real embedding model.
type NoopExpander struct{}

func (NoopExpander) Expand(terms []string) []string { return terms }

// Radius matches when the token's surface appears in the expansion of a
// fixed term list under an embedding-backed expander.
type Radius struct {
	expander        RadiusExpander
	caseInsensitive bool
	expanded        map[string]struct{}
}

// NewRadius builds a radius test. The expansion is computed eagerly at
// construction time; callers that want lazy expansion should wrap expander.
func NewRadius(expander RadiusExpander, terms []string, caseInsensitive bool) *Radius {
	if expander == nil {
		expander = NoopExpander{}
	}
	expanded := make(map[string]struct{})
	for _, t := range expander.Expand(terms) {
		if caseInsensitive {
			t = strings.ToLower(t)
		}
		expanded[t] = struct{}{}
	}
	return &Radius{expander: expander, caseInsensitive: caseInsensitive, expanded: expanded}
}

func (t *Radius) MatchesAt(seq tseq.Sequence, at int) bool {
	text := seq.Text(at)
	if t.caseInsensitive {
		text = strings.ToLower(text)
	}
	_, ok := t.expanded[text]
	return ok
}

func (t *Radius) Requirements() map[Requirement]struct{} {
	return map[Requirement]struct{}{RequireEmbedding: {}}
}

// Not negates an operand.
type Not struct{ Operand TokenTest }

func (t *Not) MatchesAt(seq tseq.Sequence, at int) bool { return !t.Operand.MatchesAt(seq, at) }
func (t *Not) Requirements() map[Requirement]struct{}   { return t.Operand.Requirements() }

// And is a short-circuiting conjunction of operands.
type And struct{ Operands []TokenTest }

func (t *And) MatchesAt(seq tseq.Sequence, at int) bool {
	for _, op := range t.Operands {
		if !op.MatchesAt(seq, at) {
			return false
		}
	}
	return true
}

func (t *And) Requirements() map[Requirement]struct{} {
	sets := make([]map[Requirement]struct{}, len(t.Operands))
	for i, op := range t.Operands {
		sets[i] = op.Requirements()
	}
	return union(sets...)
}

// Or is a short-circuiting disjunction of operands.
type Or struct{ Operands []TokenTest }

func (t *Or) MatchesAt(seq tseq.Sequence, at int) bool {
	for _, op := range t.Operands {
		if op.MatchesAt(seq, at) {
			return true
		}
	}
	return false
}

func (t *Or) Requirements() map[Requirement]struct{} {
	sets := make([]map[Requirement]struct{}, len(t.Operands))
	for i, op := range t.Operands {
		sets[i] = op.Requirements()
	}
	return union(sets...)
}

// Ref is a deferred reference to another named test, resolved lazily so
// that forward references and substitutions within a rule set work the
// same way a direct definition would.
type Ref struct {
	Name    string
	Resolve func(name string) (TokenTest, error)
	cached  TokenTest
}

func (t *Ref) resolve() (TokenTest, error) {
	if t.cached != nil {
		return t.cached, nil
	}
	tt, err := t.Resolve(t.Name)
	if err != nil {
		return nil, err
	}
	t.cached = tt
	return tt, nil
}

func (t *Ref) MatchesAt(seq tseq.Sequence, at int) bool {
	tt, err := t.resolve()
	if err != nil {
		return false
	}
	return tt.MatchesAt(seq, at)
}

func (t *Ref) Requirements() map[Requirement]struct{} {
	tt, err := t.resolve()
	if err != nil {
		return nil
	}
	return tt.Requirements()
}
