package tseq

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Document groups one or more token sequences (typically one per sentence)
// under a single identifier, the unit across which a Manager's recorded-
// match set and the matchserver's session both operate.
type Document struct {
	ID        string
	Sequences []*InMemory
}

// NewDocument allocates a fresh UUID for id when id is empty, matching the
// teacher's practice of generating request-scoped identifiers at the
// boundary rather than leaving them to the caller.
func NewDocument(id string, sequences []*InMemory) *Document {
	if id == "" {
		id = uuid.NewString()
	}
	return &Document{ID: id, Sequences: sequences}
}

// wireToken is the JSON wire shape pushed by matchserver clients: character
// offsets and a flat annotation map, plus a parent index for dependency
// edges (RootParent for a root token).
type wireToken struct {
	Text        string         `json:"text"`
	Offset      int            `json:"offset"`
	Length      int            `json:"length"`
	Annotations map[string]any `json:"annotations,omitempty"`
	Parent      int            `json:"parent"`
	DepLabel    string         `json:"dep_label,omitempty"`
}

type wireSequence struct {
	ID     string      `json:"id"`
	Source string      `json:"source"`
	Tokens []wireToken `json:"tokens"`
}

type wireDocument struct {
	ID        string         `json:"id,omitempty"`
	Sequences []wireSequence `json:"sequences"`
}

// DecodeDocument parses the JSON document shape a matchserver client POSTs:
// one or more annotated token sequences with explicit parent indices for
// dependency edges.
func DecodeDocument(data []byte) (*Document, error) {
	var wd wireDocument
	if err := json.Unmarshal(data, &wd); err != nil {
		return nil, fmt.Errorf("tseq: decoding document: %w", err)
	}

	seqs := make([]*InMemory, 0, len(wd.Sequences))
	for _, ws := range wd.Sequences {
		toks := make([]Token, len(ws.Tokens))
		for i, wt := range ws.Tokens {
			toks[i] = Token{Text: wt.Text, Offset: wt.Offset, Length: wt.Length, Annotations: wt.Annotations}
		}
		seq := NewInMemory(ws.ID, ws.Source, toks)
		for i, wt := range ws.Tokens {
			// A token with no dependency relation omits dep_label entirely;
			// Parent alone is ambiguous with token index 0, so DepLabel is
			// the sentinel for "this token carries an edge".
			if wt.DepLabel != "" {
				seq.AddEdge(i, wt.Parent, wt.DepLabel)
			}
		}
		seqs = append(seqs, seq)
	}
	return NewDocument(wd.ID, seqs), nil
}
