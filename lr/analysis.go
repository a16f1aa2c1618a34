package lr

import (
	"fmt"

	"golang.org/x/tools/container/intsets"
)

// LRAnalysis is an object for grammar analysis: it computes the set of
// epsilon-derivable non-terminals, and FIRST and FOLLOW sets for every
// non-terminal. Sets contain token types of terminals.
type LRAnalysis struct {
	g        *Grammar
	nullable map[*Symbol]bool
	first    map[*Symbol]*intsets.Sparse
	follow   map[*Symbol]*intsets.Sparse
}

// Analysis creates an analyser for a grammar and runs the analysis.
func Analysis(g *Grammar) *LRAnalysis {
	ga := &LRAnalysis{
		g:        g,
		nullable: make(map[*Symbol]bool),
		first:    make(map[*Symbol]*intsets.Sparse),
		follow:   make(map[*Symbol]*intsets.Sparse),
	}
	for _, A := range g.nonterminals {
		ga.first[A] = &intsets.Sparse{}
		ga.follow[A] = &intsets.Sparse{}
	}
	ga.computeNullable()
	ga.computeFirst()
	ga.computeFollow()
	return ga
}

// Grammar returns the grammar this analyser operates on.
func (ga *LRAnalysis) Grammar() *Grammar {
	return ga.g
}

// Nullable is true if A derives the empty word.
func (ga *LRAnalysis) Nullable(A *Symbol) bool {
	return ga.nullable[A]
}

// First returns FIRST(A). For a terminal A this is the set containing A's
// token type. The returned set is a copy.
func (ga *LRAnalysis) First(A *Symbol) *intsets.Sparse {
	s := &intsets.Sparse{}
	if A == nil {
		return s
	}
	if A.IsTerminal() {
		s.Insert(A.Value)
		return s
	}
	if f := ga.first[A]; f != nil {
		s.Copy(f)
	}
	return s
}

// Follow returns FOLLOW(A) for a non-terminal A. The returned set is a copy.
func (ga *LRAnalysis) Follow(A *Symbol) *intsets.Sparse {
	s := &intsets.Sparse{}
	if f := ga.follow[A]; f != nil {
		s.Copy(f)
	}
	return s
}

// firstOfSequence computes FIRST of a sequence of symbols, unioned into set,
// and reports whether the whole sequence is nullable.
func (ga *LRAnalysis) firstOfSequence(syms []*Symbol, set *intsets.Sparse) bool {
	for _, A := range syms {
		if A.IsTerminal() {
			set.Insert(A.Value)
			return false
		}
		set.UnionWith(ga.first[A])
		if !ga.nullable[A] {
			return false
		}
	}
	return true
}

func (ga *LRAnalysis) computeNullable() {
	for changed := true; changed; {
		changed = false
		for _, r := range ga.g.rules {
			if ga.nullable[r.LHS] {
				continue
			}
			all := true
			for _, A := range r.rhs {
				if A.IsTerminal() || !ga.nullable[A] {
					all = false
					break
				}
			}
			if all {
				ga.nullable[r.LHS] = true
				changed = true
			}
		}
	}
}

func (ga *LRAnalysis) computeFirst() {
	for changed := true; changed; {
		changed = false
		for _, r := range ga.g.rules {
			if ga.firstOfSequenceInto(r.rhs, ga.first[r.LHS]) {
				changed = true
			}
		}
	}
}

// firstOfSequenceInto adds FIRST(syms) to target and reports a change.
func (ga *LRAnalysis) firstOfSequenceInto(syms []*Symbol, target *intsets.Sparse) bool {
	f := &intsets.Sparse{}
	ga.firstOfSequence(syms, f)
	return addAll(target, f)
}

// addAll adds all elements of src to dst and reports whether dst grew.
// intsets.Sparse.UnionWith may report a change for a word-wise difference
// even if dst already contains src, so fixed-point loops must not rely on it.
func addAll(dst, src *intsets.Sparse) bool {
	if src.SubsetOf(dst) {
		return false
	}
	dst.UnionWith(src)
	return true
}

func (ga *LRAnalysis) computeFollow() {
	for changed := true; changed; {
		changed = false
		for _, r := range ga.g.rules {
			for k, B := range r.rhs {
				if B.IsTerminal() {
					continue
				}
				rest := r.rhs[k+1:]
				f := &intsets.Sparse{}
				if ga.firstOfSequence(rest, f) {
					f.UnionWith(ga.follow[r.LHS])
				}
				if addAll(ga.follow[B], f) {
					changed = true
				}
			}
		}
	}
}

// Dump traces FIRST and FOLLOW sets of all non-terminals.
func (ga *LRAnalysis) Dump() {
	for _, A := range ga.g.nonterminals {
		tracer().Debugf("FIRST(%s)  = %s", A, ga.setString(ga.first[A]))
		tracer().Debugf("FOLLOW(%s) = %s", A, ga.setString(ga.follow[A]))
	}
}

// setString formats a set of token types with the names of the terminals.
func (ga *LRAnalysis) setString(s *intsets.Sparse) string {
	names := make([]string, 0, s.Len())
	for _, t := range s.AppendTo(nil) {
		if A := ga.g.terminalByValue(t); A != nil {
			names = append(names, A.Name)
		} else {
			names = append(names, fmt.Sprintf("%d", t))
		}
	}
	return fmt.Sprintf("%v", names)
}

func (g *Grammar) terminalByValue(v int) *Symbol {
	for _, A := range g.terminals {
		if A.Value == v {
			return A
		}
	}
	return nil
}
