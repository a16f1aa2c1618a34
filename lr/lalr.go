package lr

import (
	"math"

	"golang.org/x/tools/container/intsets"
)

// LALR(1) lookaheads are computed on top of the LR(0) automaton, following
// "Compilers: Principles, Techniques, and Tools", section 4.7.5: for every
// kernel item K of a state we compute the LR(1)-closure of [K, #], where # is
// a dummy lookahead. A lookahead a ≠ # found on an item is generated
// spontaneously for the item's successor; # tells us that lookaheads propagate
// from K to the successor. Epsilon items are not part of any kernel, but they
// are completed items and need lookaheads as well, so they are treated as
// successors within their own state.

// dummyLookahead is never a valid token type of a terminal.
const dummyLookahead = math.MinInt32

// laKey identifies an item within a CFSM state.
type laKey struct {
	state int
	item  Item
}

type laLink struct {
	from, to laKey
}

func (lrgen *TableGenerator) computeLALRLookaheads() map[laKey]*intsets.Sparse {
	la := make(map[laKey]*intsets.Sparse)
	lookahead := func(k laKey) *intsets.Sparse {
		if la[k] == nil {
			la[k] = &intsets.Sparse{}
		}
		return la[k]
	}
	var links []laLink
	lrgen.dfa.eachState(func(state *CFSMState) {
		for _, K := range state.Items() {
			if !K.isKernel() {
				continue
			}
			from := laKey{state.ID, K}
			lookahead(from)
			items, las := lrgen.ga.lr1Closure(K)
			for n, i := range items {
				var to laKey
				if A := i.PeekSymbol(); A != nil {
					succ := lrgen.dfa.Successor(state, A)
					if succ == nil {
						continue
					}
					to = laKey{succ.ID, i.Advance()}
				} else if i.rule.IsEps() {
					to = laKey{state.ID, i}
				} else {
					continue
				}
				for _, a := range las[n].AppendTo(nil) {
					if a == dummyLookahead {
						if to != from {
							links = append(links, laLink{from, to})
						}
					} else {
						lookahead(to).Insert(a)
					}
				}
			}
		}
	})
	for changed := true; changed; {
		changed = false
		for _, l := range links {
			if addAll(lookahead(l.to), lookahead(l.from)) {
				changed = true
			}
		}
	}
	tracer().Debugf("LALR(1): %d lookahead sets, %d propagation links", len(la), len(links))
	return la
}

// lr1Closure computes the LR(1)-closure of [K, #]. It returns the items in
// order of discovery together with their lookahead sets.
func (ga *LRAnalysis) lr1Closure(K Item) ([]Item, []*intsets.Sparse) {
	items := []Item{K}
	start := &intsets.Sparse{}
	start.Insert(dummyLookahead)
	las := []*intsets.Sparse{start}
	index := map[Item]int{K: 0}
	for changed := true; changed; {
		changed = false
		for n := 0; n < len(items); n++ {
			B := items[n].PeekSymbol()
			if B == nil || B.IsTerminal() {
				continue
			}
			beta := items[n].rule.rhs[items[n].dot+1:]
			f := &intsets.Sparse{}
			if ga.firstOfSequence(beta, f) {
				f.UnionWith(las[n])
			}
			for _, r := range ga.g.rulesFor(B) {
				i, _ := StartItem(r)
				if m, ok := index[i]; ok {
					if addAll(las[m], f) {
						changed = true
					}
					continue
				}
				index[i] = len(items)
				items = append(items, i)
				s := &intsets.Sparse{}
				s.Copy(f)
				las = append(las, s)
				changed = true
			}
		}
	}
	return items, las
}
