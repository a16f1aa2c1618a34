package syntax

import (
	"errors"
	"testing"

	"github.com/npillmayer/lrkit/lr"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestFromArrays(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.syntax")
	defer teardown()
	//
	src, err := FromArrays([][]string{
		{"S", `"a"`, `'b'`, "`c`", `'0'`, "..", `'9'`, "T"},
		{"T"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if s := src[0].String(); s != "S ::= \"a\" 'b' `c` '0' .. '9' T" {
		t.Errorf("unexpected rule %s", s)
	}
	if s := src[1].String(); s != "T ::=" {
		t.Errorf("unexpected empty rule %s", s)
	}
	for i, rules := range [][][]string{
		{{}},
		{{"S", `"unterminated`}},
		{{"S", `'ab'`}},
		{{"S", `""`}},
		{{"S", "`c"}},
		{{"S", `'a'`, ".."}},
		{{"S", "-", `'a'`}},
		{{"S", `'z'`, "..", `'a'`}},
		{{"", `"a"`}},
	} {
		if _, err := FromArrays(rules); err == nil {
			t.Errorf("expected error for rules #%d %v", i, rules)
		}
	}
}

func TestSeparate(t *testing.T) {
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
	sep, err := Separate(src)
	if err != nil {
		t.Fatal(err)
	}
	if sep.Start != "Sum" {
		t.Errorf("expected start symbol Sum, have %s", sep.Start)
	}
	names := []string{`"+"`, "Term", "spaces"}
	if len(sep.Tokens) != len(names) {
		t.Fatalf("expected tokens %v, have %v", names, sep.Tokens)
	}
	for i, n := range names {
		if sep.Tokens[i].Name != n || int(sep.Tokens[i].TokType) != i+1 {
			t.Errorf("token #%d: expected %s/%d, have %v", i, n, i+1, sep.Tokens[i])
		}
	}
	if !sep.Tokens[0].Literal || sep.Tokens[0].Text != "+" || !sep.Tokens[2].Ignored {
		t.Errorf("unexpected token declarations %v", sep.Tokens)
	}
	if len(sep.Ignored) != 1 || sep.Ignored[0] != "spaces" {
		t.Errorf("expected spaces to be ignored, have %v", sep.Ignored)
	}
	if len(sep.Parser) != 2 || sep.Parser[0].String() != "Sum ::= Sum \"+\" `Term`" {
		t.Errorf("unexpected parser rules:\n%s", sep.Parser)
	}
	lexer := make(map[string]bool)
	for _, r := range sep.Lexer {
		lexer[r.LHS] = true
	}
	for _, n := range []string{"Term", "num", "d", "space", "spaces"} {
		if !lexer[n] {
			t.Errorf("expected %s in lexer rules:\n%s", n, sep.Lexer)
		}
	}
	if lexer["Sum"] {
		t.Errorf("start symbol must not be lexical")
	}
	defs, err := sep.LexerDefs()
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 3 || defs[1].Pattern.Nullable() || !defs[2].Ignored {
		t.Errorf("unexpected lexer definitions %v", defs)
	}
	g, err := sep.Grammar("sum")
	if err != nil {
		t.Fatal(err)
	}
	if g.Name != "sum" {
		t.Errorf("expected grammar name sum, have %s", g.Name)
	}
}

func TestIgnoredRules(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.syntax")
	defer teardown()
	//
	src, err := FromArrays([][]string{
		{"S", `"a"`},
		{Ignored, "`whitespaces`"},
		{Ignored, `'#'`, "comment_chars"},
	})
	if err != nil {
		t.Fatal(err)
	}
	sep, err := Separate(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(sep.Ignored) != 2 || sep.Ignored[0] != "whitespaces" || sep.Ignored[1] != Ignored {
		t.Errorf("expected ignored categories [whitespaces ignored], have %v", sep.Ignored)
	}
	if len(sep.Tokens) != 3 || sep.Tokens[2].Name != Ignored || !sep.Tokens[2].Ignored {
		t.Errorf("unexpected tokens %v", sep.Tokens)
	}
}

func TestSeparationErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.syntax")
	defer teardown()
	//
	for i, rules := range [][][]string{
		{{"S", "Foo"}},                                         // undefined non-terminal
		{{"S", "`nosuch`"}},                                    // undefined category
		{{"S", `'a'`, "..", `'z'`, "T"}, {"T", `"t"`}},         // range in syntactic rule
		{{"S", "`T`"}, {"T", `"x"`, "U"}, {"U", `"y"`}},        // referenced, but syntactic
		{{"S", "`spaces`"}, {Ignored, "`spaces`"}},             // ignored and terminal
		{{Ignored, "`spaces`"}},                                // no parser rules
		{{"S", `"a"`}, {Ignored}},                              // empty ignored rule
		{{"S", `"a"`, "T"}, {"T", "d", "-", "T"}, {"d", `'x'`}}, // recursive difference
	} {
		src, err := FromArrays(rules)
		if err != nil {
			t.Fatalf("rules #%d: %v", i, err)
		}
		sep, err := Separate(src)
		if err == nil && i == 7 {
			_, err = sep.LexerDefs()
		}
		var gerr *lr.GrammarError
		if !errors.As(err, &gerr) {
			t.Errorf("expected a grammar error for rules #%d, have %v", i, err)
		}
	}
}
