package manager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SRI-AIC/valet-sub000/internal/extract/tokentest"
	"github.com/SRI-AIC/valet-sub000/internal/tseq"
)

// plainSeq builds an InMemory sequence whose tokens are the given words
// joined by single spaces, with Offset/Length computed against that joined
// source so MatchingText() round-trips correctly.
func plainSeq(id string, words ...string) *tseq.InMemory {
	toks := make([]tseq.Token, len(words))
	var b []byte
	for i, w := range words {
		if i > 0 {
			b = append(b, ' ')
		}
		toks[i] = tseq.Token{Text: w, Offset: len(b), Length: len(w)}
		b = append(b, w...)
	}
	return tseq.NewInMemory(id, string(b), toks)
}

func TestDefineTestScansEveryMatchingToken(t *testing.T) {
	m := New("root")
	require.NoError(t, m.DefineTest("period", "{.}", nil))

	seq := plainSeq("doc", "a", ".", "b", ".", "c", ".")
	ms, err := m.Scan("period", seq)
	require.NoError(t, err)
	assert.Len(t, ms, 3)
}

func TestDefinePhraseScanAndSearch(t *testing.T) {
	m := New("root")
	require.NoError(t, m.DefinePhrase("greeting", `"hello" "world"`, false, nil))

	seq := plainSeq("doc", "hello", "world", "again")
	ms, err := m.Scan("greeting", seq)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, 0, ms[0].Begin())
	assert.Equal(t, 2, ms[0].End())

	found, err := m.Search("greeting", seq, 0)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "hello world", found.MatchingText())
}

func TestDefineParseWalksDependencyEdges(t *testing.T) {
	m := New("root")
	require.NoError(t, m.DefineParse("nsubj", "nsubj", nil))

	seq := plainSeq("doc", "Fido", "barks")
	seq.AddEdge(1, tseq.RootParent, "root")
	seq.AddEdge(0, 1, "nsubj")

	ms, err := m.MatchesAt("nsubj", seq, 0)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, 1, ms[0].End())
}

func TestCoordinatorMatchAndSelect(t *testing.T) {
	m := New("root")
	require.NoError(t, m.DefineTest("adj", "pos[JJ]", nil))
	require.NoError(t, m.DefineTest("noun", "pos[NN NNS]", nil))
	require.NoError(t, m.DefinePhrase("np", "&adj+ &noun", false, nil))
	require.NoError(t, m.DefineCoord("in_np", "select(noun,np)", nil))

	seq := plainSeq("doc", "Long", "pants", "and", "short", "sleeve", "shirt", ".")
	seq.Tokens[0].Annotations = map[string]any{"pos": "JJ"}
	seq.Tokens[1].Annotations = map[string]any{"pos": "NNS"}
	seq.Tokens[3].Annotations = map[string]any{"pos": "JJ"}
	seq.Tokens[4].Annotations = map[string]any{"pos": "NN"}
	seq.Tokens[5].Annotations = map[string]any{"pos": "NN"}

	np, err := m.Scan("np", seq)
	require.NoError(t, err)
	assert.Len(t, np, 2)

	inNP, err := m.Scan("in_np", seq)
	require.NoError(t, err)
	assert.Len(t, inNP, 2)
}

func TestRedefinitionRejectedUnlessAllowed(t *testing.T) {
	m := New("root")
	require.NoError(t, m.DefineTest("x", "{a}", nil))

	err := m.DefineTest("x", "{b}", nil)
	var redef *RedefinitionError
	require.ErrorAs(t, err, &redef)
	assert.Equal(t, "x", redef.Name)

	m.AllowRedefinition = true
	require.NoError(t, m.DefineTest("x", "{b}", nil))

	seq := plainSeq("doc", "b")
	ms, err := m.Scan("x", seq)
	require.NoError(t, err)
	assert.Len(t, ms, 1, "invalidate must drop the stale cached entry after redefinition")
}

func TestSubstitutionsRebindReferencedNames(t *testing.T) {
	m := New("root")
	require.NoError(t, m.DefineTest("fruit", "{apple}", nil))
	require.NoError(t, m.DefineTest("veg", "{carrot}", nil))
	require.NoError(t, m.DefinePhrase("item", "&thing", false, map[string]string{"thing": "fruit"}))

	seq := plainSeq("doc", "apple", "carrot")
	ms, err := m.Scan("item", seq)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, 0, ms[0].Begin())
}

func TestRequirementsAggregatesAnnotationLayers(t *testing.T) {
	m := New("root")
	require.NoError(t, m.DefineTest("adj", "pos[JJ]", nil))
	require.NoError(t, m.DefineTest("punct", "{.}", nil))

	reqs := m.Requirements()
	_, hasPOS := reqs[tokentest.RequirePOS]
	assert.True(t, hasPOS)
	assert.Len(t, reqs, 1, "a plain membership test contributes no annotation requirement")
}

func TestRecordedExcludesItsOwnSequence(t *testing.T) {
	m := New("root")
	require.NoError(t, m.DefineTest("hello", "{hello}", nil))

	seq1 := plainSeq("s1", "hello")
	seq2 := plainSeq("s2", "world")
	m.BeginDocument("doc1")
	_, err := m.Scan("hello", seq1)
	require.NoError(t, err)

	assert.False(t, m.Recorded("hello", seq1),
		"a match within seq1 itself must not satisfy a when guard evaluated against seq1")
	assert.True(t, m.Recorded("hello", seq2),
		"a match recorded against a different sequence of the same document must satisfy the guard")
	m.EndDocument()

	assert.False(t, m.Recorded("hello", seq2), "Recorded must be false once no document is current")

	m.ClearRecorded("doc1")
	m.BeginDocument("doc1")
	assert.False(t, m.Recorded("hello", seq2), "ClearRecorded must wipe the prior document's state")
}

func TestUnresolvedNameError(t *testing.T) {
	m := New("root")
	_, _, err := m.lookup("nope")
	var unresolved *UnresolvedNameError
	require.ErrorAs(t, err, &unresolved)
}

func TestCalloutTypeErrorOnWrongKind(t *testing.T) {
	m := New("root")
	require.NoError(t, m.DefinePhrase("greeting", `"hi"`, false, nil))

	_, err := m.Test("greeting")
	var callout *CalloutTypeError
	require.ErrorAs(t, err, &callout)
	assert.Equal(t, KindTest, callout.Want)
	assert.Equal(t, KindPhrase, callout.Got)
}

func TestTestFallsBackToAnyForBuiltinName(t *testing.T) {
	m := New("root")
	tt, err := m.Test("ANY")
	require.NoError(t, err)
	seq := plainSeq("doc", "whatever")
	assert.True(t, tt.MatchesAt(seq, 0))
}
