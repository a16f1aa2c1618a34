package syntax

import (
	"strconv"

	"github.com/npillmayer/lrkit/lr"
	"github.com/npillmayer/lrkit/lr/scanner"
)

// LexerDefs creates token definitions for the scanner, one for every token
// declaration. Lexical rules are lowered to patterns: references are inlined,
// direct left recursion
//
//     X ➞ A | X B    becomes    A B*
//
// and direct right recursion
//
//     X ➞ A | B X    becomes    B* A
//
// Any other form of recursion is an error.
func (sep *Separation) LexerDefs() ([]scanner.TokenDef, error) {
	l := &lowering{rules: sep.lexical, done: make(map[string]*scanner.Pattern),
		active: make(map[string]bool)}
	defs := make([]scanner.TokenDef, 0, len(sep.Tokens))
	for _, t := range sep.Tokens {
		var p *scanner.Pattern
		if t.Literal {
			p = scanner.Literal(t.Text)
		} else {
			var err error
			if p, err = l.lower(t.Name); err != nil {
				return nil, err
			}
		}
		if p.Nullable() {
			return nil, syntaxError(t.Name, "lexical category matches the empty string")
		}
		tracer().Debugf("token %s = %v", t.Name, p)
		defs = append(defs, scanner.TokenDef{Name: t.Name, TokType: t.TokType, Pattern: p, Ignored: t.Ignored})
	}
	return defs, nil
}

type lowering struct {
	rules  map[string][]parsedRule
	done   map[string]*scanner.Pattern
	active map[string]bool
}

func (l *lowering) lower(name string) (*scanner.Pattern, error) {
	if p, ok := l.done[name]; ok {
		return p, nil
	}
	if l.active[name] {
		return nil, syntaxError(name, "indirect recursion in lexical rule")
	}
	rules, ok := l.rules[name]
	if !ok {
		return nil, syntaxError(name, "not a lexical category")
	}
	l.active[name] = true
	defer delete(l.active, name)
	var bases, heads, tails []*scanner.Pattern
	empty := false
	for _, pr := range rules {
		elems, left, right, err := splitRecursion(name, pr.elems)
		if err != nil {
			return nil, err
		}
		p, err := l.sequence(elems)
		if err != nil {
			return nil, err
		}
		switch {
		case left:
			tails = append(tails, p)
		case right:
			heads = append(heads, p)
		case p == nil:
			empty = true
		default:
			bases = append(bases, p)
		}
	}
	if len(tails) > 0 && len(heads) > 0 {
		return nil, syntaxError(name, "lexical rule is both left and right recursive")
	}
	var base *scanner.Pattern
	if len(bases) > 0 {
		base = scanner.Alt(bases...)
		if empty {
			base = scanner.Opt(base)
		}
	} else if !empty {
		return nil, syntaxError(name, "lexical rule has no terminating alternative")
	}
	var p *scanner.Pattern
	switch {
	case len(tails) > 0:
		p = concat(base, scanner.Star(scanner.Alt(tails...)))
	case len(heads) > 0:
		p = concat(scanner.Star(scanner.Alt(heads...)), base)
	default:
		p = base
	}
	if p == nil {
		return nil, syntaxError(name, "lexical rule matches the empty string only")
	}
	l.done[name] = p
	return p, nil
}

// concat concatenates two patterns, one of which may be nil (empty).
func concat(a, b *scanner.Pattern) *scanner.Pattern {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return scanner.Seq(a, b)
}

// splitRecursion strips a recursive reference to name at the start or end of
// a rule.
func splitRecursion(name string, elems []*element) ([]*element, bool, bool, error) {
	isSelf := func(e *element) bool {
		return (e.kind == elName || e.kind == elRef) && e.text == name
	}
	left := len(elems) > 0 && isSelf(elems[0])
	right := len(elems) > 1 && isSelf(elems[len(elems)-1])
	if left && right {
		return nil, false, false, syntaxError(name, "lexical rule is both left and right recursive")
	}
	switch {
	case left:
		elems = elems[1:]
	case right:
		elems = elems[:len(elems)-1]
	}
	if (left || right) && len(elems) == 0 {
		return nil, false, false, syntaxError(name, "lexical rule derives itself")
	}
	for _, e := range elems {
		var err error
		e.names(func(n string, ref bool) {
			if n == name {
				err = syntaxError(name, "lexical rule is recursive in the middle")
			}
		})
		if err != nil {
			return nil, false, false, err
		}
	}
	return elems, left, right, nil
}

// sequence lowers a list of elements. It returns nil for an empty list.
func (l *lowering) sequence(elems []*element) (*scanner.Pattern, error) {
	if len(elems) == 0 {
		return nil, nil
	}
	ps := make([]*scanner.Pattern, len(elems))
	for i, e := range elems {
		p, err := l.element(e)
		if err != nil {
			return nil, err
		}
		ps[i] = p
	}
	return scanner.Seq(ps...), nil
}

func (l *lowering) element(e *element) (*scanner.Pattern, error) {
	switch e.kind {
	case elLiteral:
		return scanner.Literal(e.text), nil
	case elChar, elRange:
		return scanner.Class(e.lo, e.hi), nil
	case elDiff:
		ranges, err := l.charset(e)
		if err != nil {
			return nil, err
		}
		if len(ranges) == 0 {
			return nil, syntaxError("", "character set difference %v is empty", e.strings())
		}
		return scanner.ClassOf(ranges), nil
	}
	return l.lower(e.text)
}

// charset computes the set of runes an element stands for.
func (l *lowering) charset(e *element) ([]scanner.RuneRange, error) {
	switch e.kind {
	case elChar, elRange:
		return []scanner.RuneRange{{Lo: e.lo, Hi: e.hi}}, nil
	case elDiff:
		a, err := l.charset(e.left)
		if err != nil {
			return nil, err
		}
		b, err := l.charset(e.right)
		if err != nil {
			return nil, err
		}
		return scanner.SubtractRanges(a, b), nil
	}
	p, err := l.element(e)
	if err != nil {
		return nil, err
	}
	ranges, ok := patternRanges(p)
	if !ok {
		return nil, syntaxError(e.text, "operand of '-' is not a character set")
	}
	return ranges, nil
}

func patternRanges(p *scanner.Pattern) ([]scanner.RuneRange, bool) {
	switch p.Op {
	case scanner.OpClass:
		return p.Ranges, true
	case scanner.OpLiteral:
		r := []rune(p.Text)
		if len(r) != 1 {
			return nil, false
		}
		return []scanner.RuneRange{{Lo: r[0], Hi: r[0]}}, true
	case scanner.OpAlt:
		var all []scanner.RuneRange
		for _, sub := range p.Subs {
			ranges, ok := patternRanges(sub)
			if !ok {
				return nil, false
			}
			all = append(all, ranges...)
		}
		return scanner.NormalizeRanges(all), true
	}
	return nil, false
}

// --- Parser grammar --------------------------------------------------------

// Grammar creates the parser grammar. Terminals carry the token types of the
// token declarations.
func (sep *Separation) Grammar(name string) (*lr.Grammar, error) {
	b := lr.NewGrammarBuilder(name)
	for _, pr := range sep.parser {
		rb := b.LHS(pr.lhs)
		for _, e := range pr.elems {
			var tname string
			switch {
			case e.kind == elLiteral:
				tname = strconv.Quote(e.text)
			case e.kind == elChar:
				tname = strconv.Quote(string(e.lo))
			case e.kind == elRef || sep.lexical[e.text] != nil:
				tname = e.text
			default:
				rb.N(e.text)
				continue
			}
			t := sep.tokens[tname]
			if t == nil {
				return nil, syntaxError(tname, "terminal without token declaration")
			}
			rb.T(tname, int(t.TokType))
		}
		if len(pr.elems) == 0 {
			rb.Epsilon()
		} else {
			rb.End()
		}
	}
	return b.Grammar()
}
