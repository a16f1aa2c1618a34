package syntax

import (
	"errors"
	"strings"
	"testing"

	"github.com/npillmayer/lrkit"
	"github.com/npillmayer/lrkit/lr"
	"github.com/npillmayer/lrkit/lr/parser"
	"github.com/npillmayer/lrkit/lr/scanner"
	"github.com/npillmayer/lrkit/lr/scanner/mlmatch"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func helloWorld(t *testing.T) Syntax {
	src, err := FromArrays([][]string{
		{"Start", `"Hello"`, `"World"`},
		{Ignored, "`whitespaces`"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return src
}

func build(t *testing.T, src Syntax, opts ...BuildOption) *Artifacts {
	a, err := Build(src, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestHelloWorld(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.syntax")
	defer teardown()
	//
	a := build(t, helloWorld(t), WithName("hello"))
	if a.Tables.HasConflicts() {
		t.Errorf("hello world grammar should not have conflicts")
	}
	var ignored []string
	scan := a.Scanner("\tHello \r\n\tWorld\n", scanner.WithListener(
		scanner.ListenerFunc(func(tok lrkit.Token, ign bool) {
			if ign {
				ignored = append(ignored, tok.Lexeme())
			}
		})))
	var reductions []string
	count := parser.SemanticFunc(func(rule *lr.RuleInfo, children []interface{}) (interface{}, error) {
		reductions = append(reductions, rule.LHS)
		return len(children), nil
	})
	result, err := a.Parser().Parse(scan, count)
	if err != nil {
		t.Fatal(err)
	}
	if len(reductions) != 1 || reductions[0] != "Start" || result != 2 {
		t.Errorf("expected a single reduction of Start, have %v", reductions)
	}
	expected := []string{"\t", " \r\n\t", "\n"}
	if len(ignored) != len(expected) {
		t.Fatalf("expected ignored tokens %q, have %q", expected, ignored)
	}
	for i := range expected {
		if ignored[i] != expected[i] {
			t.Errorf("ignored token #%d: expected %q, have %q", i, expected[i], ignored[i])
		}
	}
}

func TestHelloUniverse(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.syntax")
	defer teardown()
	//
	a := build(t, helloWorld(t))
	result, err := a.Parse("Hello Universe", parser.TreeBuilder{})
	if result != nil {
		t.Errorf("expected no result, have %v", result)
	}
	var perr *parser.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected a parse error, have %v", err)
	}
	if perr.Lexeme != "Universe" || perr.Column != 7 || perr.Span.From() != 6 {
		t.Errorf("expected error at token Universe, have %v", perr)
	}
	if len(perr.Expected) != 1 || perr.Expected[0] != `"World"` {
		t.Errorf("expected \"World\" as only valid terminal, have %v", perr.Expected)
	}
	var lexerr *scanner.LexError
	if !errors.As(err, &lexerr) || lexerr.Text != "Universe" {
		t.Errorf("expected parse error to wrap a lexical error, have %v", perr.Cause)
	}
}

func TestReduceReduceConflict(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.syntax")
	defer teardown()
	//
	src, err := FromArrays([][]string{
		{"S", "A"},
		{"S", "B"},
		{"A", `"x"`},
		{"B", `"x"`},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, strategy := range []lr.Strategy{lr.LALR, lr.SLR} {
		a := build(t, src, WithStrategy(strategy))
		conflicts := a.Conflicts()
		if len(conflicts) != 1 {
			t.Fatalf("expected 1 conflict, have %d", len(conflicts))
		}
		c := conflicts[0]
		if c.Kind != lr.ReduceReduce || len(c.Rules) != 2 || c.Rules[0] >= c.Rules[1] {
			t.Errorf("expected reduce/reduce conflict resolved to the first rule, have %v", &c)
		}
		if !strings.Contains(c.Error(), "A") || !strings.Contains(c.Error(), "B") {
			t.Errorf("expected conflict to name both rules, have %v", &c)
		}
		result, err := a.Parse("x", parser.TreeBuilder{})
		if err != nil {
			t.Fatal(err)
		}
		if s := result.(*parser.Node).String(); s != "(S (A x))" {
			t.Errorf("expected rule declared first to win, have %s", s)
		}
	}
}

func TestNestedCharactersStaySyntactic(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.syntax")
	defer teardown()
	//
	src, err := FromArrays([][]string{
		{"Start", "P"},
		{"P", `'('`, "P", `')'`},
		{"P", `'x'`},
	})
	if err != nil {
		t.Fatal(err)
	}
	sep, err := Separate(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(sep.Lexer) != 0 || len(sep.Parser) != 3 || len(sep.Tokens) != 3 {
		t.Errorf("expected P to be syntactic, have lexer rules\n%s", sep.Lexer)
	}
	a := build(t, src)
	result, err := a.Parse("((x))", parser.TreeBuilder{})
	if err != nil {
		t.Fatal(err)
	}
	if s := result.(*parser.Node).String(); s != "(Start (P ( (P ( (P x) )) )))" {
		t.Errorf("unexpected tree %s", s)
	}
	if _, err := a.Parse("((x)", nil); err == nil {
		t.Errorf("expected error for unbalanced input")
	}
}

func TestMaximalMunch(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.syntax")
	defer teardown()
	//
	src, err := FromArrays([][]string{
		{"S", `"World"`},
		{"S", "`identifier`"},
		{Ignored, "`spaces`"},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, matcher := range []string{scanner.DefaultMatcher, mlmatch.Name} {
		a := build(t, src, WithMatcher(matcher))
		for input, sym := range map[string]string{
			"World":    `"World"`,
			"Worlds":   "identifier",
			" World2 ": "identifier",
			"Wor":      "identifier",
		} {
			result, err := a.Parse(input, parser.TreeBuilder{})
			if err != nil {
				t.Errorf("%s: %q: %v", matcher, input, err)
				continue
			}
			leaf := result.(*parser.Node).Children[0]
			if leaf.Symbol != sym {
				t.Errorf("%s: %q: expected token %s, have %s", matcher, input, sym, leaf.Symbol)
			}
		}
	}
}

func TestSeparatedExpressions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.syntax")
	defer teardown()
	//
	src, err := FromArrays([][]string{
		{"Sum", "Sum", `'+'`, "Term"},
		{"Sum", "Term"},
		{"Term", "num"},
		{"num", "d"},
		{"num", "num", "d"},
		{"d", `'0'`, "..", `'9'`},
		{Ignored, "`spaces`"},
	})
	if err != nil {
		t.Fatal(err)
	}
	a := build(t, src)
	result, err := a.Parse("12 + 3+4", parser.PrintSemantic{})
	if err != nil {
		t.Fatal(err)
	}
	if result != "12 + 3 + 4" {
		t.Errorf("unexpected result %q", result)
	}
	if _, err := a.Parse("12 + + 4", nil); err == nil {
		t.Errorf("expected error for missing operand")
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.syntax")
	defer teardown()
	//
	src, err := FromArrays([][]string{
		{"List", `'('`, "Items", `')'`},
		{"Items"},
		{"Items", "Items", "`identifier`"},
		{"Items", "Items", "`integer`"},
		{Ignored, "`whitespaces`"},
	})
	if err != nil {
		t.Fatal(err)
	}
	a1, a2 := build(t, src), build(t, src)
	if !a1.Equal(a2) {
		t.Errorf("two builds from the same syntax differ")
	}
	if a1.Equal(build(t, helloWorld(t))) {
		t.Errorf("builds from different syntaxes should differ")
	}
	if _, err := a1.Parse("( a 1\n b2 )", nil); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestBuildErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.syntax")
	defer teardown()
	//
	for i, rules := range [][][]string{
		{{"S", "`opt`"}, {"opt"}, {"opt", `'a'`}},                   // nullable category
		{{"S", "`a`"}, {"a", `'x'`, "b"}, {"b", `'y'`, "a"}},         // indirect recursion
		{{"S", "`a`"}, {"a", `'x'`}, {"a", "a", `'y'`, "a"}},         // recursion in the middle
		{{"S", `"a"`}, {"S", `"b"`}, {Ignored, "`nosuchcategory`"}}, // undefined
	} {
		src, err := FromArrays(rules)
		if err != nil {
			t.Fatalf("syntax #%d: %v", i, err)
		}
		if _, err := Build(src); err == nil {
			t.Errorf("expected build of syntax #%d to fail", i)
		}
	}
	if _, err := Build(helloWorld(t), WithMatcher("no-such-matcher")); err == nil {
		t.Errorf("expected build to fail for unknown matcher")
	}
}
