package syntax

import (
	"errors"
	"strings"
	"testing"

	"github.com/npillmayer/lrkit/lr/parser"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

const listEBNF = `
List   = "(" [ Items ] ")" .
Items  = Item { "," Item } .
Item   = integer | name .
name   = letter { letter | digit } .
ignored = spaces .
`

func TestParseEBNF(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.syntax")
	defer teardown()
	//
	src, err := ParseEBNF("list", strings.NewReader(listEBNF), "List")
	if err != nil {
		t.Fatal(err)
	}
	if s := src[0].String(); s != `List ::= "(" List_opt1 ")"` {
		t.Errorf("unexpected first rule %s", s)
	}
	text := src.String()
	for _, r := range []string{
		"List_opt1 ::=\n",
		"Items_rep1 ::= Items_rep1 \",\" Item\n",
		"Item ::= `integer`\n",
		"Item ::= `name`\n",
		"name ::= letter name_rep1\n",
		"name_rep1 ::= name_rep1 digit\n",
		"ignored ::= spaces\n",
	} {
		if !strings.Contains(text, r) {
			t.Errorf("expected rule %q in\n%s", r, text)
		}
	}
	a := build(t, src, WithName("list"))
	if a.Tables.HasConflicts() {
		t.Errorf("list grammar should not have conflicts")
	}
	for _, input := range []string{"()", "( a1, 42 ,b )", "(x)"} {
		if _, err := a.Parse(input, nil); err != nil {
			t.Errorf("%q: %v", input, err)
		}
	}
	_, err = a.Parse("(a1,)", nil)
	var perr *parser.ParseError
	if !errors.As(err, &perr) || perr.Lexeme != ")" || len(perr.Expected) != 2 {
		t.Errorf("expected error at ')' with 2 valid terminals, have %v", err)
	}
}

func TestParseEBNFLexical(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.syntax")
	defer teardown()
	//
	src, err := ParseEBNF("hex", strings.NewReader(`
Number = hex .
hex    = "0x" hexdigit { hexdigit } .
hexdigit = "0" … "9" | "a" … "f" .
`), "Number")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(src.String(), "hexdigit ::= '0' .. '9'\n") {
		t.Errorf("expected a character range for hexdigit in\n%s", src)
	}
	a := build(t, src)
	result, err := a.Parse("0x1f", parser.TreeBuilder{})
	if err != nil {
		t.Fatal(err)
	}
	if s := result.(*parser.Node).String(); s != "(Number 0x1f)" {
		t.Errorf("unexpected tree %s", s)
	}
}

func TestParseEBNFErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.syntax")
	defer teardown()
	//
	for i, src := range []string{
		`S = "a" `,             // missing period
		`S = Foo .`,            // undefined
		`S = "a" . T = "b" .`,  // unreachable
		`T = "a" .`,            // no start production
		`S = "a" | ( "b" .`,    // unbalanced group
	} {
		if _, err := ParseEBNF("bad", strings.NewReader(src), "S"); err == nil {
			t.Errorf("expected error for EBNF #%d", i)
		}
	}
}
