package syntax

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"unicode"
	"unicode/utf8"

	"golang.org/x/exp/ebnf"
)

// ParseEBNF reads rules in EBNF notation, as used for the Go language
// specification:
//
//     Start      = "Hello" "World" .
//     ignored    = whitespaces .
//
// The grammar is verified for the start production and lowered into a Syntax.
// Alternatives become separate rules, options, groups and repetitions become
// helper non-terminals (X_opt1, X_grp1, X_rep1). Within lexical productions
// (names not starting with an upper case letter) single character tokens become
// characters, and "a" … "z" becomes a character range. Syntactic productions
// refer to lexical productions as categories (`name`). A production named
// ignored describes ignored input. Names of standard rules may be used without
// defining them.
func ParseEBNF(name string, r io.Reader, start string) (Syntax, error) {
	g, err := ebnf.Parse(name, r)
	if err != nil {
		return nil, fmt.Errorf("ebnf %s: %w", name, err)
	}
	std, err := standardRules()
	if err != nil {
		return nil, err
	}
	// verify a copy which knows about standard rules and ignored input
	vg := make(ebnf.Grammar, len(g))
	for n, p := range g {
		vg[n] = p
	}
	for _, p := range g {
		walkNames(p.Expr, func(n string) {
			if _, ok := g[n]; !ok && std[n] != nil {
				vg[n] = &ebnf.Production{Name: &ebnf.Name{String: n}, Expr: &ebnf.Token{String: n}}
			}
		})
	}
	root := start
	if _, ok := g[Ignored]; ok {
		root = "Ω"
		for vg[root] != nil {
			root += "'"
		}
		vg[root] = &ebnf.Production{
			Name: &ebnf.Name{String: root},
			Expr: ebnf.Sequence{&ebnf.Name{String: start}, &ebnf.Name{String: Ignored}},
		}
	}
	if g[start] == nil {
		return nil, fmt.Errorf("ebnf %s: no start production %s", name, start)
	}
	if err := ebnf.Verify(vg, root); err != nil {
		return nil, fmt.Errorf("ebnf %s: %w", name, err)
	}
	prods := make([]*ebnf.Production, 0, len(g))
	for _, p := range g {
		if p.Name.String != start {
			prods = append(prods, p)
		}
	}
	sort.Slice(prods, func(i, j int) bool {
		return prods[i].Pos().Offset < prods[j].Pos().Offset
	})
	prods = append([]*ebnf.Production{g[start]}, prods...)
	el := &ebnfLowering{helpers: make(map[string]int)}
	for _, p := range prods {
		if err := el.production(p.Name.String, p.Expr, isLexicalName(p.Name.String)); err != nil {
			return nil, err
		}
	}
	tracer().Debugf("EBNF %s: %d productions, %d rules", name, len(prods), len(el.rules))
	return FromArrays(el.rules)
}

func isLexicalName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return !unicode.IsUpper(r)
}

func walkNames(x ebnf.Expression, f func(string)) {
	switch x := x.(type) {
	case ebnf.Alternative:
		for _, y := range x {
			walkNames(y, f)
		}
	case ebnf.Sequence:
		for _, y := range x {
			walkNames(y, f)
		}
	case *ebnf.Name:
		f(x.String)
	case *ebnf.Group:
		walkNames(x.Body, f)
	case *ebnf.Option:
		walkNames(x.Body, f)
	case *ebnf.Repetition:
		walkNames(x.Body, f)
	}
}

type ebnfLowering struct {
	rules   [][]string
	helpers map[string]int // counter per production and kind
}

func (el *ebnfLowering) helper(owner, kind string) string {
	key := owner + "_" + kind
	el.helpers[key]++
	return fmt.Sprintf("%s%d", key, el.helpers[key])
}

// production emits the rules for a production and then the rules of its
// helpers.
func (el *ebnfLowering) production(lhs string, x ebnf.Expression, lexical bool) error {
	var pending []func() error
	var alts []ebnf.Expression
	if a, ok := x.(ebnf.Alternative); ok {
		alts = a
	} else {
		alts = []ebnf.Expression{x}
	}
	for _, alt := range alts {
		rule := []string{lhs}
		var items []ebnf.Expression
		switch a := alt.(type) {
		case nil:
		case ebnf.Sequence:
			items = a
		default:
			items = []ebnf.Expression{a}
		}
		for _, item := range items {
			switch y := item.(type) {
			case *ebnf.Name:
				if !lexical && isLexicalName(y.String) {
					rule = append(rule, "`"+y.String+"`")
				} else {
					rule = append(rule, y.String)
				}
			case *ebnf.Token:
				if y.String == "" {
					return fmt.Errorf("ebnf: empty token in production %s", lhs)
				}
				if lexical && utf8.RuneCountInString(y.String) == 1 {
					r, _ := utf8.DecodeRuneInString(y.String)
					rule = append(rule, strconv.QuoteRune(r))
				} else {
					rule = append(rule, strconv.Quote(y.String))
				}
			case *ebnf.Range:
				lo, _ := utf8.DecodeRuneInString(y.Begin.String)
				hi, _ := utf8.DecodeRuneInString(y.End.String)
				rule = append(rule, strconv.QuoteRune(lo), "..", strconv.QuoteRune(hi))
			case *ebnf.Group:
				h := el.helper(lhs, "grp")
				body := y.Body
				pending = append(pending, func() error { return el.production(h, body, lexical) })
				rule = append(rule, h)
			case *ebnf.Option:
				h := el.helper(lhs, "opt")
				body := y.Body
				pending = append(pending, func() error {
					el.rules = append(el.rules, []string{h})
					return el.production(h, body, lexical)
				})
				rule = append(rule, h)
			case *ebnf.Repetition:
				h := el.helper(lhs, "rep")
				body := y.Body
				pending = append(pending, func() error {
					el.rules = append(el.rules, []string{h})
					return el.repetition(h, body, lexical)
				})
				rule = append(rule, h)
			default:
				return fmt.Errorf("ebnf: cannot handle %T in production %s", item, lhs)
			}
		}
		el.rules = append(el.rules, rule)
	}
	for _, f := range pending {
		if err := f(); err != nil {
			return err
		}
	}
	return nil
}

// repetition emits left recursive rules h ➞ h x for every alternative x of
// the body.
func (el *ebnfLowering) repetition(h string, body ebnf.Expression, lexical bool) error {
	start := len(el.rules)
	if err := el.production(h, body, lexical); err != nil {
		return err
	}
	for i := start; i < len(el.rules); i++ {
		r := el.rules[i]
		if r[0] != h {
			continue
		}
		el.rules[i] = append([]string{h, h}, r[1:]...)
	}
	return nil
}
