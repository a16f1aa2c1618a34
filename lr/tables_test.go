package lr

import (
	"bytes"
	"encoding/gob"
	"strings"
	"testing"

	"github.com/npillmayer/lrkit"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

// The classic grammar which is LALR(1), but not SLR(1):
//
//     S ➞ L = R | R
//     L ➞ * R | id
//     R ➞ L
//
func makeAssignmentGrammar(t *testing.T) *Grammar {
	b := NewGrammarBuilder("Assignment")
	b.LHS("S").N("L").T("=", 1).N("R").End()
	b.LHS("S").N("R").End()
	b.LHS("L").T("*", 2).N("R").End()
	b.LHS("L").T("id", 3).End()
	b.LHS("R").N("L").End()
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func makeTables(t *testing.T, g *Grammar, s Strategy) *TableGenerator {
	lrgen := NewTableGenerator(Analysis(g), WithStrategy(s))
	if err := lrgen.CreateTables(); err != nil {
		t.Fatal(err)
	}
	return lrgen
}

func TestSLRConflictResolvedByLALR(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.lr")
	defer teardown()
	//
	g := makeAssignmentGrammar(t)
	slr := makeTables(t, g, SLR)
	if !slr.HasConflicts || len(slr.Conflicts()) != 1 {
		t.Fatalf("expected exactly 1 SLR conflict, have %d", len(slr.Conflicts()))
	}
	c := slr.Conflicts()[0]
	if c.Kind != ShiftReduce || c.Terminal != "=" || c.Resolution != "shift" {
		t.Errorf("unexpected conflict: %v", &c)
	}
	lalr := makeTables(t, g, LALR)
	if lalr.HasConflicts {
		t.Errorf("expected grammar to be LALR(1), have conflicts: %v", lalr.Conflicts())
	}
	if slr.CFSM().StateCount() != lalr.CFSM().StateCount() {
		t.Errorf("SLR and LALR tables should share the LR(0) automaton")
	}
	tables := lalr.Tables()
	if exp := tables.Expected(0); len(exp) != 2 || exp[0] != "*" || exp[1] != "id" {
		t.Errorf("expected terminals [* id] in state 0, have %v", exp)
	}
	if len(lalr.AcceptingStates()) != 1 {
		t.Errorf("expected exactly one state with an accept action")
	}
}

// Left-recursive expressions:
//
//     E ➞ E + T | T
//     T ➞ id | ( E )
//
func TestExpressionGrammar(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.lr")
	defer teardown()
	//
	b := NewGrammarBuilder("Expr")
	b.LHS("E").N("E").T("+", 1).N("T").End()
	b.LHS("E").N("T").End()
	b.LHS("T").T("id", 2).End()
	b.LHS("T").T("(", 3).N("E").T(")", 4).End()
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	ga := Analysis(g)
	E, T := g.SymbolByName("E"), g.SymbolByName("T")
	if f := ga.First(E).AppendTo(nil); len(f) != 2 || f[0] != 2 || f[1] != 3 {
		t.Errorf("expected FIRST(E) = [2 3], is %v", f)
	}
	for _, A := range []*Symbol{E, T} {
		if f := ga.Follow(A).AppendTo(nil); len(f) != 3 || f[0] != -1 || f[1] != 1 || f[2] != 4 {
			t.Errorf("expected FOLLOW(%s) = [#eof 1 4], is %v", A, f)
		}
	}
	for _, s := range []Strategy{SLR, LALR} {
		if lrgen := makeTables(t, g, s); lrgen.HasConflicts {
			t.Errorf("expected no conflicts for strategy %v, have %v", s, lrgen.Conflicts())
		}
	}
}

func TestDanglingElseShifts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.lr")
	defer teardown()
	//
	b := NewGrammarBuilder("If")
	b.LHS("S").T("if", 1).N("E").T("then", 2).N("S").End()
	b.LHS("S").T("if", 1).N("E").T("then", 2).N("S").T("else", 3).N("S").End()
	b.LHS("S").T("other", 4).End()
	b.LHS("E").T("e", 5).End()
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	lrgen := makeTables(t, g, LALR)
	if len(lrgen.Conflicts()) != 1 {
		t.Fatalf("expected 1 conflict, have %v", lrgen.Conflicts())
	}
	c := lrgen.Conflicts()[0]
	if c.Kind != ShiftReduce || c.Terminal != "else" || c.Rules[0] != 1 {
		t.Errorf("unexpected conflict: %v", &c)
	}
	a1, a2 := lrgen.ActionTable().Values(c.State, 3)
	if a1 != ShiftAction || a2 != 1 {
		t.Errorf("expected shift with losing reduce 1 on else, have (%d,%d)", a1, a2)
	}
	var buf bytes.Buffer
	if err := lrgen.ConflictReport(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "shift/reduce") {
		t.Errorf("expected conflict report to name the conflict kind, is\n%s", buf.String())
	}
}

func TestReduceReduceEarliestRuleWins(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.lr")
	defer teardown()
	//
	b := NewGrammarBuilder("RR")
	b.LHS("S").N("A").End()
	b.LHS("S").N("B").End()
	b.LHS("A").T("x", 1).End()
	b.LHS("B").T("x", 1).End()
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []Strategy{SLR, LALR} {
		lrgen := makeTables(t, g, s)
		if len(lrgen.Conflicts()) != 1 {
			t.Fatalf("%s: expected 1 conflict, have %v", s, lrgen.Conflicts())
		}
		c := lrgen.Conflicts()[0]
		if c.Kind != ReduceReduce || c.Rules[0] != 3 || c.Rules[1] != 4 || c.Resolution != "reduce 3" {
			t.Errorf("%s: unexpected conflict: %v", s, &c)
		}
		if a := lrgen.ActionTable().Value(c.State, lrkit.EOF); a != 3 {
			t.Errorf("%s: expected reduce 3 on #eof, have %d", s, a)
		}
	}
}

func TestTablesAreDeterministic(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.lr")
	defer teardown()
	//
	t1 := makeTables(t, makeAssignmentGrammar(t), LALR).Tables()
	t2 := makeTables(t, makeAssignmentGrammar(t), LALR).Tables()
	if !t1.Equal(t2) {
		t.Errorf("expected table construction to be deterministic")
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(t1); err != nil {
		t.Fatal(err)
	}
	t3 := &Tables{}
	if err := gob.NewDecoder(&buf).Decode(t3); err != nil {
		t.Fatal(err)
	}
	if !t1.Equal(t3) {
		t.Errorf("expected decoded tables to equal the original")
	}
	if t3.Rule(1).String() != "[S] ::= [L = R]" || t3.Rule(4).Arity() != 1 {
		t.Errorf("unexpected rule info after decoding: %v", t3.Rule(1))
	}
}

func TestExports(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.lr")
	defer teardown()
	//
	lrgen := makeTables(t, makeDocGrammar(t), SLR)
	var dot, html bytes.Buffer
	if err := lrgen.CFSM().CFSM2GraphViz(&dot); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(dot.String(), "digraph {") {
		t.Errorf("expected Graphviz output")
	}
	if err := ActionTableAsHTML(lrgen, &html); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html.String(), "ACTION table") {
		t.Errorf("expected HTML table output")
	}
}
