package phrase

import (
	"github.com/SRI-AIC/valet-sub000/internal/match"
	"github.com/SRI-AIC/valet-sub000/internal/tseq"
)

// Start matches a single zero-width span at token index 0.
type Start struct{}

func (Start) Matches(seq tseq.Sequence, at int) []match.Match {
	if at != 0 {
		return nil
	}
	return []match.Match{match.NewFAMatch(seq, "START", 0, 0, nil, nil)}
}

// End matches a single zero-width span at the end of the sequence.
type End struct{}

func (End) Matches(seq tseq.Sequence, at int) []match.Match {
	n := seq.Len()
	if at != n {
		return nil
	}
	return []match.Match{match.NewFAMatch(seq, "END", n, n, nil, nil)}
}

// Root matches, starting from a root token, the contiguous run of root
// tokens (tokens whose up-dependencies include the sentinel root parent)
// beginning there. It is used to anchor parse expressions that want to
// start walking from the top of a dependency tree.
type Root struct{}

func (Root) Matches(seq tseq.Sequence, at int) []match.Match {
	if !isRoot(seq, at) {
		return nil
	}
	end := at
	for end < seq.Len() && isRoot(seq, end) {
		end++
	}
	return []match.Match{match.NewFAMatch(seq, "ROOT", at, end, nil, nil)}
}

func isRoot(seq tseq.Sequence, i int) bool {
	if i < 0 || i >= seq.Len() {
		return false
	}
	ups := seq.Up(i)
	if len(ups) == 0 {
		return true
	}
	for _, e := range ups {
		if e.Other == tseq.RootParent {
			return true
		}
	}
	return false
}
