package syntax

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/npillmayer/lrkit/lr"
)

// Ignored is the left hand side of rules describing input which is scanned,
// but not passed on to the parser.
const Ignored = "ignored"

// Rule is a rule in source form. RHS elements use the notation described in
// the package documentation.
type Rule struct {
	LHS string
	RHS []string
}

func (r Rule) String() string {
	if len(r.RHS) == 0 {
		return r.LHS + " ::="
	}
	return r.LHS + " ::= " + strings.Join(r.RHS, " ")
}

// Syntax is a list of rules. The left hand side of the first rule which is not
// an Ignored rule is the start symbol.
type Syntax []Rule

func (s Syntax) String() string {
	var b strings.Builder
	for _, r := range s {
		b.WriteString(r.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// FromArrays creates a syntax from arrays of strings. The first element of each
// array is the left hand side of a rule. FromArrays checks the notation of
// every element.
func FromArrays(rules [][]string) (Syntax, error) {
	src := make(Syntax, 0, len(rules))
	for _, arr := range rules {
		if len(arr) == 0 {
			return nil, syntaxError("", "empty rule")
		}
		r := Rule{LHS: arr[0], RHS: append([]string(nil), arr[1:]...)}
		if _, err := parseRule(r); err != nil {
			return nil, err
		}
		src = append(src, r)
	}
	return src, nil
}

func syntaxError(sym string, format string, args ...interface{}) error {
	return &lr.GrammarError{Grammar: "syntax", Symbol: sym, Msg: fmt.Sprintf(format, args...)}
}

// --- Elements --------------------------------------------------------------

type elemKind int

const (
	elLiteral elemKind = iota // "text"
	elChar                    // 'c'
	elRange                   // 'a' .. 'z'
	elDiff                    // x - y
	elRef                     // `name`
	elName                    // Name
)

type element struct {
	kind        elemKind
	text        string // literal text or referenced name
	lo, hi      rune
	left, right *element
}

// strings renders an element in source notation.
func (e *element) strings() []string {
	switch e.kind {
	case elLiteral:
		return []string{strconv.Quote(e.text)}
	case elChar:
		return []string{strconv.QuoteRune(e.lo)}
	case elRange:
		return []string{strconv.QuoteRune(e.lo), "..", strconv.QuoteRune(e.hi)}
	case elDiff:
		s := append(e.left.strings(), "-")
		return append(s, e.right.strings()...)
	case elRef:
		return []string{"`" + e.text + "`"}
	}
	return []string{e.text}
}

// names calls f for every name referenced by e.
func (e *element) names(f func(name string, ref bool)) {
	switch e.kind {
	case elRef:
		f(e.text, true)
	case elName:
		f(e.text, false)
	case elDiff:
		e.left.names(f)
		e.right.names(f)
	}
}

// charLevel is true for characters, ranges and differences.
func (e *element) charLevel() bool {
	return e.kind == elChar || e.kind == elRange || e.kind == elDiff
}

type parsedRule struct {
	lhs   string
	elems []*element
}

func (pr parsedRule) rule() Rule {
	r := Rule{LHS: pr.lhs}
	for _, e := range pr.elems {
		r.RHS = append(r.RHS, e.strings()...)
	}
	return r
}

func parseRule(r Rule) (parsedRule, error) {
	if r.LHS != Ignored && !isIdent(r.LHS) {
		return parsedRule{}, syntaxError(r.LHS, "left hand side must be an identifier")
	}
	p := &rhsParser{rhs: r.RHS, lhs: r.LHS}
	var elems []*element
	for p.pos < len(p.rhs) {
		e, err := p.difference()
		if err != nil {
			return parsedRule{}, err
		}
		elems = append(elems, e)
	}
	return parsedRule{lhs: r.LHS, elems: elems}, nil
}

type rhsParser struct {
	lhs string
	rhs []string
	pos int
}

func (p *rhsParser) peek(s string) bool {
	return p.pos < len(p.rhs) && p.rhs[p.pos] == s
}

// difference = operand { "-" operand }
func (p *rhsParser) difference() (*element, error) {
	left, err := p.operand()
	if err != nil {
		return nil, err
	}
	for p.peek("-") {
		p.pos++
		right, err := p.operand()
		if err != nil {
			return nil, err
		}
		left = &element{kind: elDiff, left: left, right: right}
	}
	return left, nil
}

// operand = atom [ ".." atom ]
func (p *rhsParser) operand() (*element, error) {
	lo, err := p.atom()
	if err != nil {
		return nil, err
	}
	if !p.peek("..") {
		return lo, nil
	}
	p.pos++
	hi, err := p.atom()
	if err != nil {
		return nil, err
	}
	if lo.kind != elChar || hi.kind != elChar {
		return nil, syntaxError(p.lhs, "range operator needs characters as bounds")
	}
	if lo.lo > hi.lo {
		return nil, syntaxError(p.lhs, "empty range %q .. %q", lo.lo, hi.lo)
	}
	return &element{kind: elRange, lo: lo.lo, hi: hi.lo}, nil
}

func (p *rhsParser) atom() (*element, error) {
	if p.pos >= len(p.rhs) {
		return nil, syntaxError(p.lhs, "operator without right operand")
	}
	s := p.rhs[p.pos]
	p.pos++
	switch {
	case s == ".." || s == "-":
		return nil, syntaxError(p.lhs, "misplaced operator %s", s)
	case strings.HasPrefix(s, `"`):
		text, err := strconv.Unquote(s)
		if err != nil || text == "" {
			return nil, syntaxError(p.lhs, "malformed literal %s", s)
		}
		return &element{kind: elLiteral, text: text}, nil
	case strings.HasPrefix(s, "'"):
		text, err := strconv.Unquote(s)
		if err != nil || utf8.RuneCountInString(text) != 1 {
			return nil, syntaxError(p.lhs, "malformed character %s", s)
		}
		r, _ := utf8.DecodeRuneInString(text)
		return &element{kind: elChar, lo: r, hi: r}, nil
	case strings.HasPrefix(s, "`"):
		name, err := strconv.Unquote(s)
		if err != nil || !isIdent(name) {
			return nil, syntaxError(p.lhs, "malformed reference %s", s)
		}
		return &element{kind: elRef, text: name}, nil
	case isIdent(s):
		return &element{kind: elName, text: s}, nil
	}
	return nil, syntaxError(p.lhs, "cannot interpret %q", s)
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if !(unicode.IsLetter(r) || r == '_' || (i > 0 && unicode.IsDigit(r))) {
			return false
		}
	}
	return true
}
