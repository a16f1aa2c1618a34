package lr

import (
	"fmt"
	"strings"

	"github.com/npillmayer/lrkit"
	"github.com/npillmayer/lrkit/lr/iteratable"
)

// EOFName is the name of the end-of-input terminal.
const EOFName = "#eof"

// --- Symbols ---------------------------------------------------------------

// Symbol is a grammar symbol, i.e. a terminal or a non-terminal.
// For terminals, Value is the token type the scanner will produce for it.
// Non-terminals are numbered by the grammar, with values greater than every
// terminal's token type.
type Symbol struct {
	Name     string
	Value    int
	terminal bool
}

// IsTerminal is a predicate.
func (A *Symbol) IsTerminal() bool {
	return A.terminal
}

// TokenType returns the symbol's value as a token type. Both terminals and
// non-terminals serve as columns of parser tables.
func (A *Symbol) TokenType() lrkit.TokType {
	return lrkit.TokType(A.Value)
}

func (A *Symbol) String() string {
	return A.Name
}

// --- Rules -----------------------------------------------------------------

// Rule is a type for rules of a grammar. Rules cannot be shared between grammars.
type Rule struct {
	Serial int     // order number of this rule within a grammar
	LHS    *Symbol // symbol of left hand side
	rhs    []*Symbol
}

// RHS returns the right hand side of a rule.
func (r *Rule) RHS() []*Symbol {
	return r.rhs
}

// IsEps is true for epsilon-rules.
func (r *Rule) IsEps() bool {
	return len(r.rhs) == 0
}

// String formats a rule like
//
//     [S] ::= [A a #eof]
//
func (r *Rule) String() string {
	return fmt.Sprintf("[%v] ::= %v", r.LHS, symbolsString(r.rhs))
}

func symbolsString(syms []*Symbol) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, A := range syms {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(A.Name)
	}
	b.WriteByte(']')
	return b.String()
}

// --- Grammar ---------------------------------------------------------------

// Grammar is a type for a context-free grammar. Rule 0 is always the augmented
// start rule S' ➞ S #eof, which is created by the grammar builder. Client rules
// are numbered starting from 1, in order of declaration.
type Grammar struct {
	Name         string
	rules        []*Rule
	terminals    []*Symbol // in order of declaration, #eof first
	nonterminals []*Symbol // in order of declaration, S' first
	symbols      map[string]*Symbol
	eof          *Symbol
}

// Size returns the number of rules, including the augmented start rule.
func (g *Grammar) Size() int {
	return len(g.rules)
}

// Rule gets a grammar rule by its serial number.
func (g *Grammar) Rule(no int) *Rule {
	if no < 0 || no >= len(g.rules) {
		return nil
	}
	return g.rules[no]
}

// Start returns the client's start symbol, i.e. the first symbol of the
// augmented start rule's RHS.
func (g *Grammar) Start() *Symbol {
	return g.rules[0].rhs[0]
}

// EOF returns the end-of-input terminal.
func (g *Grammar) EOF() *Symbol {
	return g.eof
}

// SymbolByName finds a symbol of the grammar.
func (g *Grammar) SymbolByName(name string) *Symbol {
	return g.symbols[name]
}

// Terminal returns the terminal with a given token type, or nil.
func (g *Grammar) Terminal(tokval lrkit.TokType) *Symbol {
	return g.terminalByValue(int(tokval))
}

// EachTerminal iterates over all terminals of the grammar, in order of
// declaration. The end-of-input terminal comes first.
func (g *Grammar) EachTerminal(mapper func(A *Symbol) interface{}) []interface{} {
	var r []interface{}
	for _, A := range g.terminals {
		r = append(r, mapper(A))
	}
	return r
}

// EachNonTerminal iterates over all non-terminals of the grammar, in order of
// declaration. The augmented start symbol comes first.
func (g *Grammar) EachNonTerminal(mapper func(A *Symbol) interface{}) []interface{} {
	var r []interface{}
	for _, A := range g.nonterminals {
		r = append(r, mapper(A))
	}
	return r
}

// EachSymbol iterates over all symbols of the grammar: terminals first, then
// non-terminals.
func (g *Grammar) EachSymbol(mapper func(A *Symbol) interface{}) []interface{} {
	r := g.EachTerminal(mapper)
	return append(r, g.EachNonTerminal(mapper)...)
}

// FindNonTermRules returns a set of start items for all rules with LHS A.
// If includeEpsilons is false, epsilon-rules are skipped.
func (g *Grammar) FindNonTermRules(A *Symbol, includeEpsilons bool) *iteratable.Set {
	iset := newItemSet()
	for _, r := range g.rules {
		if r.LHS == A && (includeEpsilons || !r.IsEps()) {
			item, _ := StartItem(r)
			iset.Add(item)
		}
	}
	return iset
}

func (g *Grammar) rulesFor(A *Symbol) []*Rule {
	var rules []*Rule
	for _, r := range g.rules {
		if r.LHS == A {
			rules = append(rules, r)
		}
	}
	return rules
}

// Dump is a debugging helper, tracing all rules of a grammar.
func (g *Grammar) Dump() {
	tracer().Debugf("--- %s --------------------------------------------", g.Name)
	for _, r := range g.rules {
		tracer().Debugf("%3d: %s", r.Serial, r.String())
	}
	tracer().Debugf("-------------------------------------------------------")
}

// --- Errors ----------------------------------------------------------------

// GrammarError is a fatal error found while constructing a grammar or its
// tables: undefined or unreachable symbols, or malformed rules.
type GrammarError struct {
	Grammar string // name of the grammar
	Symbol  string // offending symbol, if any
	Msg     string
}

func (e *GrammarError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("grammar %q: %s", e.Grammar, e.Msg)
	}
	return fmt.Sprintf("grammar %q: symbol %s: %s", e.Grammar, e.Symbol, e.Msg)
}

// --- Grammar Builder -------------------------------------------------------

// GrammarBuilder is a builder type for grammars. Create one with NewGrammarBuilder.
// Rules are added with calls like
//
//     b.LHS("S").N("A").T("a", 1).End()   // S  ➞  A a
//     b.LHS("A").Epsilon()                // A  ➞
//
// The LHS of the first rule is the start symbol. The builder augments the grammar
// with a rule S' ➞ S #eof.
type GrammarBuilder struct {
	g        *Grammar
	lhs      []string // LHS names in order of first appearance
	rules    []*ruleDraft
	tokvals  map[string]int
	tokorder []string
	err      error
}

type ruleDraft struct {
	lhs string
	rhs []draftSymbol
}

type draftSymbol struct {
	name     string
	terminal bool
}

// RuleBuilder is a builder for a single rule.
type RuleBuilder struct {
	gb    *GrammarBuilder
	draft *ruleDraft
}

// NewGrammarBuilder gets a new grammar builder, given the name of the grammar to build.
func NewGrammarBuilder(gname string) *GrammarBuilder {
	return &GrammarBuilder{
		g:       &Grammar{Name: gname},
		tokvals: make(map[string]int),
	}
}

func (gb *GrammarBuilder) fail(sym string, format string, args ...interface{}) {
	if gb.err == nil {
		gb.err = &GrammarError{Grammar: gb.g.Name, Symbol: sym, Msg: fmt.Sprintf(format, args...)}
	}
}

// LHS starts a rule given the symbol name of the left hand side.
func (gb *GrammarBuilder) LHS(s string) *RuleBuilder {
	if s == "" {
		gb.fail("", "empty left hand side of rule #%d", len(gb.rules)+1)
	}
	seen := false
	for _, n := range gb.lhs {
		if n == s {
			seen = true
			break
		}
	}
	if !seen {
		gb.lhs = append(gb.lhs, s)
	}
	return &RuleBuilder{gb: gb, draft: &ruleDraft{lhs: s}}
}

// N appends a non-terminal to the RHS of a rule.
func (rb *RuleBuilder) N(s string) *RuleBuilder {
	rb.draft.rhs = append(rb.draft.rhs, draftSymbol{name: s})
	return rb
}

// T appends a terminal to the RHS of a rule. tokval is the token type the
// scanner will produce for the terminal.
func (rb *RuleBuilder) T(s string, tokval int) *RuleBuilder {
	gb := rb.gb
	if tokval == int(lrkit.EOF) {
		gb.fail(s, "token type %d is reserved for end of input", tokval)
	}
	if v, ok := gb.tokvals[s]; ok && v != tokval {
		gb.fail(s, "terminal declared with token types %d and %d", v, tokval)
	} else if !ok {
		for _, other := range gb.tokorder {
			if gb.tokvals[other] == tokval {
				gb.fail(s, "token type %d already used by terminal %s", tokval, other)
			}
		}
		gb.tokvals[s] = tokval
		gb.tokorder = append(gb.tokorder, s)
	}
	rb.draft.rhs = append(rb.draft.rhs, draftSymbol{name: s, terminal: true})
	return rb
}

// End ends a rule.
func (rb *RuleBuilder) End() *Rule {
	rb.gb.rules = append(rb.gb.rules, rb.draft)
	return nil
}

// Epsilon sets an epsilon as the RHS of a rule and ends the rule.
func (rb *RuleBuilder) Epsilon() *Rule {
	if len(rb.draft.rhs) > 0 {
		rb.gb.fail(rb.draft.lhs, "epsilon rule with non-empty right hand side")
	}
	return rb.End()
}

// Grammar returns the grammar constructed by the builder. It checks that every
// non-terminal used is defined, and that every non-terminal is reachable from
// the start symbol.
func (gb *GrammarBuilder) Grammar() (*Grammar, error) {
	if gb.err != nil {
		return nil, gb.err
	}
	g := gb.g
	if len(gb.rules) == 0 {
		return nil, &GrammarError{Grammar: g.Name, Msg: "grammar has no rules"}
	}
	g.symbols = make(map[string]*Symbol)
	g.eof = &Symbol{Name: EOFName, Value: int(lrkit.EOF), terminal: true}
	g.terminals = []*Symbol{g.eof}
	g.symbols[EOFName] = g.eof
	maxval := 0
	for _, name := range gb.tokorder {
		if _, isLHS := gb.tokvals[name]; isLHS && gb.definesLHS(name) {
			return nil, &GrammarError{Grammar: g.Name, Symbol: name, Msg: "used as terminal and as left hand side"}
		}
		A := &Symbol{Name: name, Value: gb.tokvals[name], terminal: true}
		g.terminals = append(g.terminals, A)
		g.symbols[name] = A
		if A.Value > maxval {
			maxval = A.Value
		}
	}
	start := gb.lhs[0]
	startPrime := start + "'"
	for g.symbols[startPrime] != nil || gb.definesLHS(startPrime) {
		startPrime += "'"
	}
	for i, name := range append([]string{startPrime}, gb.lhs...) {
		A := &Symbol{Name: name, Value: maxval + 1 + i}
		g.nonterminals = append(g.nonterminals, A)
		g.symbols[name] = A
	}
	g.rules = append(g.rules, &Rule{
		Serial: 0,
		LHS:    g.symbols[startPrime],
		rhs:    []*Symbol{g.symbols[start], g.eof},
	})
	for i, d := range gb.rules {
		r := &Rule{Serial: i + 1, LHS: g.symbols[d.lhs]}
		for _, ds := range d.rhs {
			A := g.symbols[ds.name]
			if A == nil {
				return nil, &GrammarError{Grammar: g.Name, Symbol: ds.name,
					Msg: fmt.Sprintf("undefined non-terminal in rule %s", d)}
			}
			if !ds.terminal && A.IsTerminal() {
				return nil, &GrammarError{Grammar: g.Name, Symbol: ds.name,
					Msg: "terminal used as non-terminal"}
			}
			r.rhs = append(r.rhs, A)
		}
		g.rules = append(g.rules, r)
	}
	if err := g.checkReachable(); err != nil {
		return nil, err
	}
	return g, nil
}

func (gb *GrammarBuilder) definesLHS(name string) bool {
	for _, n := range gb.lhs {
		if n == name {
			return true
		}
	}
	return false
}

func (d *ruleDraft) String() string {
	var b strings.Builder
	b.WriteString(d.lhs)
	b.WriteString(" ➞")
	for _, s := range d.rhs {
		b.WriteByte(' ')
		b.WriteString(s.name)
	}
	return b.String()
}

// checkReachable finds non-terminals which are not reachable from the start symbol.
func (g *Grammar) checkReachable() error {
	reached := map[*Symbol]bool{g.rules[0].LHS: true}
	todo := []*Symbol{g.rules[0].LHS}
	for len(todo) > 0 {
		A := todo[0]
		todo = todo[1:]
		for _, r := range g.rulesFor(A) {
			for _, B := range r.rhs {
				if !B.IsTerminal() && !reached[B] {
					reached[B] = true
					todo = append(todo, B)
				}
			}
		}
	}
	for _, A := range g.nonterminals {
		if !reached[A] {
			return &GrammarError{Grammar: g.Name, Symbol: A.Name,
				Msg: "non-terminal is not reachable from the start symbol"}
		}
	}
	return nil
}
