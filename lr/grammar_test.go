package lr

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"golang.org/x/tools/container/intsets"
)

func makeDocGrammar(t *testing.T) *Grammar {
	b := NewGrammarBuilder("G")
	b.LHS("S").N("A").T("a", 1).End()
	b.LHS("A").N("B").N("D").End()
	b.LHS("B").T("b", 2).End()
	b.LHS("B").Epsilon()
	b.LHS("D").T("d", 3).End()
	b.LHS("D").Epsilon()
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestGrammarBuilder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.lr")
	defer teardown()
	//
	g := makeDocGrammar(t)
	g.Dump()
	if g.Size() != 7 {
		t.Errorf("expected 7 rules including start rule, have %d", g.Size())
	}
	if r := g.Rule(0).String(); r != "[S'] ::= [S #eof]" {
		t.Errorf("expected augmented start rule, have %s", r)
	}
	if g.Start().Name != "S" {
		t.Errorf("expected start symbol S, is %v", g.Start())
	}
	if !g.Rule(4).IsEps() {
		t.Errorf("expected rule 4 to be an epsilon rule: %v", g.Rule(4))
	}
	S, A := g.SymbolByName("S"), g.SymbolByName("A")
	if A.IsTerminal() || A.Value <= 3 {
		t.Errorf("expected non-terminal A to have a value above all terminals, is %d", A.Value)
	}
	if S.Value >= A.Value {
		t.Errorf("expected non-terminals numbered in order of declaration")
	}
	if g.Terminal(2).Name != "b" {
		t.Errorf("expected terminal b for token type 2")
	}
	if items := g.FindNonTermRules(g.SymbolByName("B"), false); items.Size() != 1 {
		t.Errorf("expected 1 non-epsilon rule for B, have %d", items.Size())
	}
}

func TestGrammarErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.lr")
	defer teardown()
	//
	b := NewGrammarBuilder("Undefined")
	b.LHS("S").N("X").T("a", 1).End()
	_, err := b.Grammar()
	var gerr *GrammarError
	if !errors.As(err, &gerr) || gerr.Symbol != "X" {
		t.Errorf("expected grammar error for undefined X, got %v", err)
	}
	//
	b = NewGrammarBuilder("Unreachable")
	b.LHS("S").T("a", 1).End()
	b.LHS("U").T("b", 2).End()
	_, err = b.Grammar()
	if !errors.As(err, &gerr) || gerr.Symbol != "U" {
		t.Errorf("expected grammar error for unreachable U, got %v", err)
	}
	//
	b = NewGrammarBuilder("TokenClash")
	b.LHS("S").T("a", 1).T("b", 1).End()
	if _, err = b.Grammar(); err == nil {
		t.Errorf("expected error for two terminals with the same token type")
	}
	//
	b = NewGrammarBuilder("EOF")
	b.LHS("S").T("a", -1).End()
	if _, err = b.Grammar(); err == nil {
		t.Errorf("expected error for terminal using the end-of-input token type")
	}
}

func TestFirstAndFollow(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.lr")
	defer teardown()
	//
	g := makeDocGrammar(t)
	ga := Analysis(g)
	ga.Dump()
	A, B, S := g.SymbolByName("A"), g.SymbolByName("B"), g.SymbolByName("S")
	if !ga.Nullable(A) || ga.Nullable(S) {
		t.Errorf("expected A to be nullable and S not to be")
	}
	if f := ga.First(A).AppendTo(nil); len(f) != 2 || f[0] != 2 || f[1] != 3 {
		t.Errorf("expected FIRST(A) = [2 3], is %v", f)
	}
	if f := ga.First(S).AppendTo(nil); len(f) != 3 {
		t.Errorf("expected FIRST(S) = [1 2 3], is %v", f)
	}
	if f := ga.Follow(B).AppendTo(nil); len(f) != 2 || f[0] != 1 || f[1] != 3 {
		t.Errorf("expected FOLLOW(B) = [1 3], is %v", f)
	}
	if f := ga.Follow(S).AppendTo(nil); len(f) != 1 || f[0] != -1 {
		t.Errorf("expected FOLLOW(S) = [#eof], is %v", f)
	}
}

func TestAddAllReportsGrowth(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.lr")
	defer teardown()
	//
	var dst, src intsets.Sparse
	dst.Insert(1)
	dst.Insert(2)
	src.Insert(1)
	if addAll(&dst, &src) {
		t.Errorf("adding a subset must not report growth")
	}
	src.Insert(70)
	if !addAll(&dst, &src) || dst.Len() != 3 {
		t.Errorf("expected dst to grow to 3 elements, have %s", dst.String())
	}
	if addAll(&dst, &src) {
		t.Errorf("adding the same set twice must not report growth")
	}
}
