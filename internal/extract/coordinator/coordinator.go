// Package coordinator implements the operator algebra that combines named
// extractors (and other coordinators) into higher-level matches: set
// operations, positional filters, joins across the dependency graph, and
// the document-level "when" guard.
package coordinator

import (
	"github.com/SRI-AIC/valet-sub000/internal/match"
	"github.com/SRI-AIC/valet-sub000/internal/tseq"
)

// NamedExtractor is anything a coordinator can name as an operand: a
// phrase matcher, a parse matcher, or another coordinator's feed.
type NamedExtractor interface {
	Scan(seq tseq.Sequence) []match.Match
	MatchesAt(seq tseq.Sequence, at int) []match.Match
}

// Resolver supplies named extractors and the document-level recorded-match
// state the `when` operator consults.
type Resolver interface {
	Extractor(name string) (NamedExtractor, error)
	// Recorded reports whether name has matched in some token sequence of
	// the current document other than seq itself: a rule matching within
	// the very sequence being evaluated doesn't count, only a match
	// recorded against a genuinely different sequence does.
	Recorded(name string, seq tseq.Sequence) bool
}

// Feed produces a materialized list of matches for a token sequence. It is
// the coordinator analogue of a phrase/parse Matcher's Scan.
type Feed interface {
	Run(seq tseq.Sequence) []match.Match
}

// FeedFunc adapts a plain function to Feed.
type FeedFunc func(seq tseq.Sequence) []match.Match

func (f FeedFunc) Run(seq tseq.Sequence) []match.Match { return f(seq) }

// Base is the coordinator tree leaf `_`: one match spanning the entire
// input bounds.
type Base struct{}

func (Base) Run(seq tseq.Sequence) []match.Match {
	return []match.Match{match.NewCoordMatch(seq, "_", 0, seq.Len())}
}

func extentWithin(lo, hi int, m match.Match) bool {
	b, e := match.Extent(m)
	return b >= lo && e <= hi
}

func extentEqual(a, b match.Match) bool {
	ab, ae := match.Extent(a)
	bb, be := match.Extent(b)
	return ab == bb && ae == be
}

// Match implements the `match(name, F)` operator: for each feed match m,
// emit matches of name whose extent is contained in m, recording m as
// Supermatch and the inner match as Submatch.
func Match(name string, resolver Resolver, feed Feed) Feed {
	return FeedFunc(func(seq tseq.Sequence) []match.Match {
		ext, err := resolver.Extractor(name)
		if err != nil {
			return nil
		}
		var out []match.Match
		for _, m := range feed.Run(seq) {
			lo, hi := match.Extent(m)
			for _, cand := range ext.Scan(seq) {
				if !extentWithin(lo, hi, cand) {
					continue
				}
				cb, ce := match.Extent(cand)
				cm := match.NewCoordMatch(seq, name, cb, ce)
				cm.Submatch = cand
				cm.Supermatch = m
				out = append(out, cm)
			}
		}
		return out
	})
}

// Select implements `select(name, F)`: a pure tree walk over each feed
// match's submatch tree, with no re-running of the named extractor.
func Select(name string, feed Feed) Feed {
	return FeedFunc(func(seq tseq.Sequence) []match.Match {
		var out []match.Match
		for _, m := range feed.Run(seq) {
			for _, d := range match.AllSubmatches(m, name) {
				db, de := match.Extent(d)
				cm := match.NewCoordMatch(seq, name, db, de)
				cm.Submatch = d
				cm.Supermatch = m
				out = append(out, cm)
			}
		}
		return out
	})
}

// Filter implements `filter(name, F[, invert])`: emits m iff name matches
// within m's span (or does not, if invert).
func Filter(name string, resolver Resolver, feed Feed, invert bool) Feed {
	return FeedFunc(func(seq tseq.Sequence) []match.Match {
		ext, err := resolver.Extractor(name)
		if err != nil {
			return nil
		}
		var out []match.Match
		for _, m := range feed.Run(seq) {
			lo, hi := match.Extent(m)
			var hit match.Match
			for _, cand := range ext.Scan(seq) {
				if extentWithin(lo, hi, cand) {
					hit = cand
					break
				}
			}
			if invert {
				if hit == nil {
					out = append(out, m)
				}
				continue
			}
			if hit != nil {
				mb, me := match.Extent(m)
				cm := match.NewCoordMatch(seq, m.Name(), mb, me)
				cm.Submatch = hit
				cm.Supermatch = m
				out = append(out, cm)
			}
		}
		return out
	})
}

// PositionalKind distinguishes the positional/counted filter family.
type PositionalKind int

const (
	Prefix PositionalKind = iota
	Suffix
	Near
	Precedes
	Follows
	Count
)

// Positional implements prefix/suffix/near/precedes/follows/count. n is
// the token-distance window (ignored by Count, which instead uses n as
// the minimum submatch count); invert negates the test.
func Positional(kind PositionalKind, name string, resolver Resolver, feed Feed, n int, invert bool) Feed {
	return FeedFunc(func(seq tseq.Sequence) []match.Match {
		ext, err := resolver.Extractor(name)
		if err != nil {
			return nil
		}
		cands := ext.Scan(seq)
		var out []match.Match
		for _, m := range feed.Run(seq) {
			lo, hi := match.Extent(m)
			ok := positionalHolds(kind, cands, lo, hi, n)
			if ok != invert {
				out = append(out, m)
			}
		}
		return out
	})
}

func positionalHolds(kind PositionalKind, cands []match.Match, lo, hi, n int) bool {
	switch kind {
	case Prefix:
		return precedesHolds(cands, lo, 0)
	case Suffix:
		return followsHolds(cands, hi, 0)
	case Precedes:
		return precedesHolds(cands, lo, n)
	case Follows:
		return followsHolds(cands, hi, n)
	case Near:
		return precedesHolds(cands, lo, n) || followsHolds(cands, hi, n)
	case Count:
		count := 0
		for _, c := range cands {
			cb, ce := match.Extent(c)
			if cb >= lo && ce <= hi {
				count++
			}
		}
		return count >= n
	default:
		return false
	}
}

func precedesHolds(cands []match.Match, lo, n int) bool {
	for _, c := range cands {
		_, ce := match.Extent(c)
		if ce <= lo && lo-ce <= n {
			return true
		}
	}
	return false
}

func followsHolds(cands []match.Match, hi, n int) bool {
	for _, c := range cands {
		cb, _ := match.Extent(c)
		if cb >= hi && cb-hi <= n {
			return true
		}
	}
	return false
}

// Union implements `union(F1,...,Fk)`: the set union of operand matches,
// deduplicated by equal extent. One match is emitted per distinct extent,
// named after the first operand match seen there, with every equal-extent
// operand match (the first included) recorded as a Member.
func Union(feeds ...Feed) Feed {
	return FeedFunc(func(seq tseq.Sequence) []match.Match {
		return setOp(seq, feeds, func(counts []int, total int) bool { return true })
	})
}

// Intersection implements `inter(F1,...,Fk)`: matches whose extent appears
// in every feed, carrying all the input matches as submatches.
func Intersection(feeds ...Feed) Feed {
	return FeedFunc(func(seq tseq.Sequence) []match.Match {
		return setOp(seq, feeds, func(counts []int, total int) bool {
			for _, c := range counts {
				if c == 0 {
					return false
				}
			}
			return true
		})
	})
}

// Diff implements `diff(F1,...,Fk)`: matches of F1 whose extent appears in
// no other feed.
func Diff(feeds ...Feed) Feed {
	return FeedFunc(func(seq tseq.Sequence) []match.Match {
		if len(feeds) == 0 {
			return nil
		}
		first := feeds[0].Run(seq)
		excluded := make(map[[2]int]bool)
		for _, f := range feeds[1:] {
			for _, m := range f.Run(seq) {
				b, e := match.Extent(m)
				excluded[[2]int{b, e}] = true
			}
		}
		var out []match.Match
		for _, m := range first {
			b, e := match.Extent(m)
			if !excluded[[2]int{b, e}] {
				out = append(out, m)
			}
		}
		return out
	})
}

func setOp(seq tseq.Sequence, feeds []Feed, keep func(counts []int, total int) bool) []match.Match {
	type group struct {
		rep     match.Match
		members []match.Match
		counts  []int
	}
	order := make([][2]int, 0)
	groups := make(map[[2]int]*group)
	key := func(m match.Match) [2]int {
		b, e := match.Extent(m)
		return [2]int{b, e}
	}
	for fi, f := range feeds {
		for _, m := range f.Run(seq) {
			k := key(m)
			g, ok := groups[k]
			if !ok {
				g = &group{rep: m, counts: make([]int, len(feeds))}
				groups[k] = g
				order = append(order, k)
			}
			g.members = append(g.members, m)
			g.counts[fi]++
		}
	}
	var out []match.Match
	for _, k := range order {
		g := groups[k]
		if !keep(g.counts, len(feeds)) {
			continue
		}
		b, e := match.Extent(g.rep)
		cm := match.NewCoordMatch(seq, g.rep.Name(), b, e)
		cm.Members = g.members
		out = append(out, cm)
	}
	return out
}

// JoinKind distinguishes the two-feed positional joins.
type JoinKind int

const (
	Contains JoinKind = iota
	ContainedBy
	Overlaps
)

// Join implements contains/contained_by/overlaps, emitting from the left
// feed whenever the relation holds against some match of the right feed.
func Join(kind JoinKind, left, right Feed) Feed {
	return FeedFunc(func(seq tseq.Sequence) []match.Match {
		rs := right.Run(seq)
		var out []match.Match
		for _, l := range left.Run(seq) {
			lo, hi := match.Extent(l)
			for _, r := range rs {
				ro, rh := match.Extent(r)
				var ok bool
				switch kind {
				case Contains:
					ok = lo <= ro && rh <= hi
				case ContainedBy:
					ok = ro <= lo && hi <= rh
				case Overlaps:
					ok = lo < rh && ro < hi
				}
				if ok {
					lb, le := match.Extent(l)
					cm := match.NewCoordMatch(seq, l.Name(), lb, le)
					cm.Left = l
					cm.Right = r
					out = append(out, cm)
					break
				}
			}
		}
		return out
	})
}

// Connects implements `connects(name, L, R)`: name must resolve to a parse
// extractor. For each left match, for every token index in its span, the
// parse extractor is run from that index; if the walk lands inside some
// right match, the parse match is emitted with Left/Right set.
func Connects(name string, resolver Resolver, left, right Feed) Feed {
	return FeedFunc(func(seq tseq.Sequence) []match.Match {
		ext, err := resolver.Extractor(name)
		if err != nil {
			return nil
		}
		rs := right.Run(seq)
		var out []match.Match
		for _, l := range left.Run(seq) {
			lo, hi := match.Extent(l)
			for i := lo; i <= hi; i++ {
				if !l.Covers(i) {
					continue
				}
				for _, walk := range ext.MatchesAt(seq, i) {
					wb, we := match.Extent(walk)
					for _, r := range rs {
						if r.Covers(we) {
							cm := match.NewCoordMatch(seq, name, wb, we)
							cm.Left = l
							cm.Right = r
							cm.Submatch = walk
							out = append(out, cm)
						}
					}
				}
			}
		}
		return out
	})
}

// Widen implements `widen(F)`: expands every CoordMatch's extent to cover
// its Left/Right operands. Non-coordinator matches pass through unchanged.
func Widen(feed Feed) Feed {
	return FeedFunc(func(seq tseq.Sequence) []match.Match {
		ms := feed.Run(seq)
		for _, m := range ms {
			if cm, ok := m.(*match.CoordMatch); ok {
				cm.Widen(false)
			}
		}
		return ms
	})
}

// Merge implements `merge(F)`: consecutive or overlapping matches are
// combined into a single match spanning their union, with the originals
// recorded as Members.
func Merge(feed Feed) Feed {
	return FeedFunc(func(seq tseq.Sequence) []match.Match {
		ms := feed.Run(seq)
		match.Sort(ms)
		var out []match.Match
		var cur *match.CoordMatch
		for _, m := range ms {
			b, e := match.Extent(m)
			if cur != nil && b <= cur.End() {
				if e > cur.End() {
					cur.SetExtent(cur.Begin(), e)
				}
				cur.Members = append(cur.Members, m)
				continue
			}
			cur = match.NewCoordMatch(seq, m.Name(), b, e)
			cur.Members = []match.Match{m}
			out = append(out, cur)
		}
		return out
	})
}
