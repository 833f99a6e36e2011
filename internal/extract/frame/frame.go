// Package frame implements the frame extractor: a projection from a
// matched anchor, through its submatch tree, into a named bag of fields.
package frame

import (
	"fmt"
	"strings"

	"github.com/SRI-AIC/valet-sub000/internal/match"
	"github.com/SRI-AIC/valet-sub000/internal/tseq"
)

// NamedExtractor is the anchor extractor a frame projects over.
type NamedExtractor interface {
	Scan(seq tseq.Sequence) []match.Match
}

// Resolver supplies the anchor extractor and, for nested-frame slots,
// other frame extractors by name.
type Resolver interface {
	Extractor(name string) (NamedExtractor, error)
	Frame(name string) (*Extractor, error)
	// IsFrame reports whether name resolves to a frame extractor rather
	// than a plain extractor, used to decide whether a slot's matches
	// should be nested-frame-projected.
	IsFrame(name string) bool
}

// Slot is one `field = path` clause: path is the whitespace-separated
// name sequence passed to match.Query.
type Slot struct {
	Field string
	Path  []string
}

// Extractor is a compiled `name $ frame(anchor, slot = path, ...)`
// definition.
type Extractor struct {
	Name       string
	AnchorName string
	Slots      []Slot
}

// SyntaxError reports a malformed frame expression.
type SyntaxError struct {
	Offset  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("frame: syntax error at offset %d: %s", e.Offset, e.Message)
}

// Parse parses `frame(anchor, slot1 = n1 n2, slot2 = n3, ...)`.
func Parse(name, expr string) (*Extractor, error) {
	expr = strings.TrimSpace(expr)
	if !strings.HasPrefix(expr, "frame(") || !strings.HasSuffix(expr, ")") {
		return nil, &SyntaxError{Offset: 0, Message: "expected frame(anchor, slot = path, ...)"}
	}
	body := expr[len("frame(") : len(expr)-1]
	parts := splitTopLevel(body)
	if len(parts) == 0 {
		return nil, &SyntaxError{Offset: 0, Message: "frame() requires an anchor"}
	}
	ex := &Extractor{Name: name, AnchorName: strings.TrimSpace(parts[0])}
	for _, part := range parts[1:] {
		eq := strings.Index(part, "=")
		if eq < 0 {
			return nil, &SyntaxError{Offset: 0, Message: fmt.Sprintf("expected 'slot = path' in %q", part)}
		}
		field := strings.TrimSpace(part[:eq])
		path := strings.Fields(part[eq+1:])
		if field == "" || len(path) == 0 {
			return nil, &SyntaxError{Offset: 0, Message: fmt.Sprintf("malformed slot clause %q", part)}
		}
		ex.Slots = append(ex.Slots, Slot{Field: field, Path: path})
	}
	return ex, nil
}

func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}

// Run projects ex over every match of its anchor extractor, merging
// frames whose anchor matches share an extent.
func (ex *Extractor) Run(seq tseq.Sequence, resolver Resolver) ([]*match.Frame, error) {
	anchorExt, err := resolver.Extractor(ex.AnchorName)
	if err != nil {
		return nil, err
	}
	if anchorExt == nil {
		return nil, fmt.Errorf("frame: unresolved anchor extractor %q", ex.AnchorName)
	}
	byExtent := make(map[[2]int]*match.Frame)
	var order [][2]int
	for _, anchor := range anchorExt.Scan(seq) {
		f := match.NewFrame(seq, ex.Name, anchor)
		for _, slot := range ex.Slots {
			hits := match.Query(anchor, slot.Path...)
			last := slot.Path[len(slot.Path)-1]
			for _, h := range hits {
				if resolver.IsFrame(last) {
					nested, err := resolver.Frame(last)
					if err != nil || nested == nil {
						f.AddField(slot.Field, h)
						continue
					}
					nestedFrames, err := nested.runFromSingle(seq, resolver, h)
					if err != nil {
						continue
					}
					for _, nf := range nestedFrames {
						f.AddField(slot.Field, nf)
					}
					continue
				}
				f.AddField(slot.Field, h)
			}
		}
		key := [2]int{anchor.Begin(), anchor.End()}
		if existing, ok := byExtent[key]; ok {
			existing.Merge(f)
			continue
		}
		byExtent[key] = f
		order = append(order, key)
	}
	out := make([]*match.Frame, 0, len(order))
	for _, k := range order {
		out = append(out, byExtent[k])
	}
	return out, nil
}

// runFromSingle projects a nested frame extractor over one already-matched
// submatch rather than re-scanning the anchor extractor, since the
// submatch is already the anchor instance to project from.
func (ex *Extractor) runFromSingle(seq tseq.Sequence, resolver Resolver, anchor match.Match) ([]*match.Frame, error) {
	f := match.NewFrame(seq, ex.Name, anchor)
	for _, slot := range ex.Slots {
		hits := match.Query(anchor, slot.Path...)
		last := slot.Path[len(slot.Path)-1]
		for _, h := range hits {
			if resolver.IsFrame(last) {
				nested, err := resolver.Frame(last)
				if err == nil && nested != nil {
					nestedFrames, err := nested.runFromSingle(seq, resolver, h)
					if err == nil {
						for _, nf := range nestedFrames {
							f.AddField(slot.Field, nf)
						}
						continue
					}
				}
			}
			f.AddField(slot.Field, h)
		}
	}
	return []*match.Frame{f}, nil
}
