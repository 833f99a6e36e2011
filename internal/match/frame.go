package match

import "github.com/SRI-AIC/valet-sub000/internal/tseq"

// Frame is the structured record projected by a frame extractor: a named
// bag of fields anchored to the match that triggered it. Field values are
// either a single Match/string or a list of them; SetField always
// overwrites, AddField appends unless the value is already present
// (turning a scalar field into a list the first time a second value
// arrives).
type Frame struct {
	base
	Anchor Match
	Fields map[string]*FrameField
}

// FrameField holds the one or more values recorded under a field name.
// Values are typically Match, nested *Frame, or string.
type FrameField struct {
	Values []any
}

// NewFrame builds an empty frame anchored at anchor.
func NewFrame(seq tseq.Sequence, name string, anchor Match) *Frame {
	begin, end := 0, 0
	if anchor != nil {
		begin, end = anchor.Begin(), anchor.End()
	}
	return &Frame{
		base:   base{seq: seq, name: name, begin: begin, end: end},
		Anchor: anchor,
		Fields: make(map[string]*FrameField),
	}
}

func (f *Frame) MatchingText() string {
	if f.Anchor != nil {
		return f.Anchor.MatchingText()
	}
	return ""
}

func (f *Frame) Overlaps(other Match) bool {
	if f.Anchor != nil {
		return f.Anchor.Overlaps(other)
	}
	return false
}

func (f *Frame) Covers(index int) bool {
	if f.Anchor != nil {
		return f.Anchor.Covers(index)
	}
	return false
}

// Submatches exposes the anchor so Query/AllSubmatches can traverse into a
// frame the same way they traverse into any other match.
func (f *Frame) Submatches() []Match {
	if f.Anchor == nil {
		return nil
	}
	return []Match{f.Anchor}
}

// SetField overwrites field with a single value.
func (f *Frame) SetField(field string, value any) {
	f.Fields[field] = &FrameField{Values: []any{value}}
}

// AddField appends value to field, creating it if necessary and
// deduplicating against the existing values (by extent for Matches, the
// same equality Match uses everywhere else; by equality for everything
// else).
func (f *Frame) AddField(field string, value any) {
	ff, ok := f.Fields[field]
	if !ok {
		f.Fields[field] = &FrameField{Values: []any{value}}
		return
	}
	for _, v := range ff.Values {
		if v == value {
			return
		}
		if a, ok := v.(Match); ok {
			if b, ok := value.(Match); ok && a.Begin() == b.Begin() && a.End() == b.End() {
				return
			}
		}
	}
	ff.Values = append(ff.Values, value)
}

// Field returns the values recorded under field, or nil if absent.
func (f *Frame) Field(field string) []any {
	ff, ok := f.Fields[field]
	if !ok {
		return nil
	}
	return ff.Values
}

// Merge copies every field of other into f via AddField, used when two
// frame matches share the same anchor extent and should be combined
// instead of reported separately.
func (f *Frame) Merge(other *Frame) {
	for name, ff := range other.Fields {
		for _, v := range ff.Values {
			f.AddField(name, v)
		}
	}
}

// Subsumes reports whether f has at least the fields and values other has,
// used to drop a frame that adds nothing beyond one already recorded.
func (f *Frame) Subsumes(other *Frame) bool {
	for name, ff := range other.Fields {
		mine, ok := f.Fields[name]
		if !ok {
			return false
		}
		for _, v := range ff.Values {
			found := false
			for _, mv := range mine.Values {
				if mv == v {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// AsJSONSerializable renders the frame as a plain map suitable for
// json.Marshal. When withOffsets is set, any field value that is itself a
// Match is rendered as an object carrying its text and span instead of
// being flattened to a string.
func (f *Frame) AsJSONSerializable(withOffsets bool) map[string]any {
	out := make(map[string]any, len(f.Fields)+1)
	out["name"] = f.name
	fields := make(map[string]any, len(f.Fields))
	for name, ff := range f.Fields {
		vals := make([]any, 0, len(ff.Values))
		for _, v := range ff.Values {
			vals = append(vals, renderFieldValue(v, withOffsets))
		}
		if len(vals) == 1 {
			fields[name] = vals[0]
		} else {
			fields[name] = vals
		}
	}
	out["fields"] = fields
	if f.Anchor != nil {
		out["begin"] = f.Anchor.Begin()
		out["end"] = f.Anchor.End()
		out["text"] = f.Anchor.MatchingText()
	}
	return out
}

func renderFieldValue(v any, withOffsets bool) any {
	switch t := v.(type) {
	case *Frame:
		return t.AsJSONSerializable(withOffsets)
	case Match:
		if !withOffsets {
			return t.MatchingText()
		}
		return map[string]any{
			"text":  t.MatchingText(),
			"begin": t.Begin(),
			"end":   t.End(),
		}
	default:
		return t
	}
}
