/*
Package parser provides a table-driven shift-reduce parser. Clients have to
use the tools of package lr to prepare the parse tables. The parser utilizes
these tables to create a right derivation for a given input, provided through
a scanner interface, and calls semantic actions on every reduction.

Usage

Clients construct a grammar, usually by using a grammar builder, and create
tables from it:

	b := lr.NewGrammarBuilder("Signed Variables Grammar")
	b.LHS("Var").N("Sign").T("a", 1).End()  // Var  --> Sign a
	b.LHS("Sign").T("+", 2).End()           // Sign --> +
	b.LHS("Sign").T("-", 3).End()           // Sign --> -
	b.LHS("Sign").Epsilon()                 // Sign -->
	g, err := b.Grammar()
	lrgen := lr.NewTableGenerator(lr.Analysis(g))
	err = lrgen.CreateTables()

Then parse some input:

	p := parser.NewParser(lrgen.Tables())
	result, err := p.Parse(scan, parser.TreeBuilder{})

A Parser holds immutable data only. Every call to Parse creates its own
parse stack, therefore one parser may serve any number of concurrent parses.

Errors

Without further configuration, the parser stops at the first error. A
*ParseError carries the position of the offending token and the terminals
which would have been valid. Input the scanner could not match arrives as a
token of type scanner.Invalid and results in a *ParseError wrapping the
*scanner.LexError.

With option WithRecovery the parser tries to resynchronize in panic mode and
collects errors into an ErrorList. Semantic actions are no longer called after
the first error and the parse result is nil.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package parser

import (
	"fmt"

	"github.com/npillmayer/lrkit"
	"github.com/npillmayer/lrkit/lr"
	"github.com/npillmayer/lrkit/lr/scanner"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'lrkit.parser'.
func tracer() tracing.Trace {
	return tracing.Select("lrkit.parser")
}

// Parser is a table driven LR parser. Create one with parser.NewParser(...)
type Parser struct {
	tables    *lr.Tables
	maxErrors int // 0 => no recovery
	trace     bool
}

// Option configures a parser.
type Option func(*Parser)

// WithRecovery enables panic mode error recovery. The parser will stop after
// maxErrors errors.
func WithRecovery(maxErrors int) Option {
	return func(p *Parser) {
		if maxErrors < 1 {
			maxErrors = 1
		}
		p.maxErrors = maxErrors
	}
}

// WithTracing makes the parser log every step.
func WithTracing(on bool) Option {
	return func(p *Parser) {
		p.trace = on
	}
}

// NewParser creates a parser for a set of tables.
func NewParser(tables *lr.Tables, opts ...Option) *Parser {
	p := &Parser{tables: tables}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Tables returns the tables the parser works on.
func (p *Parser) Tables() *lr.Tables {
	return p.tables
}

// We store state-IDs, symbol values and spans on the parse stack, plus the
// semantic value of a symbol. For terminals this is the token.
type stackitem struct {
	state int
	sym   int
	span  lrkit.Span
	value interface{}
}

// run is the state of a single parse.
type run struct {
	p        *Parser
	t        *lr.Tables
	sem      SemanticAction
	stack    []stackitem
	errs     ErrorList
	lexerrs  []error
	failed   bool // semantic actions are off
	suppress bool // no new errors until next shift
	retry    lrkit.Span
	depth    int // stack depth chosen for recovery on token at retry
}

// Parse starts a new parse, given a scanner tokenizing the input. The scanner's
// error handler is replaced to collect lexical errors. If sem is nil, the
// input is validated only.
//
// Parse returns the value returned by sem.OnAccept, or an error.
func (p *Parser) Parse(scan scanner.Tokenizer, sem SemanticAction) (interface{}, error) {
	if p.tables == nil || p.tables.Action == nil || p.tables.Goto == nil {
		tracer().Errorf("parser not initialized")
		return nil, fmt.Errorf("parser not initialized")
	}
	if sem == nil {
		sem = Validate{}
	}
	r := &run{
		p:     p,
		t:     p.tables,
		sem:   sem,
		stack: make([]stackitem, 0, 64),
		depth: -1,
	}
	scan.SetErrorHandler(func(err error) {
		r.lexerrs = append(r.lexerrs, err)
	})
	return r.parse(scan)
}

// ParseInput scans and parses an input string. It is equivalent to calling
// Parse with a scanner created from lex.
func (p *Parser) ParseInput(lex *scanner.Automaton, input string, sem SemanticAction,
	opts ...scanner.ScanOption) (interface{}, error) {
	//
	if lex == nil {
		return nil, fmt.Errorf("parser needs a scanning automaton")
	}
	return p.Parse(lex.Scanner(input, opts...), sem)
}

func (r *run) parse(scan scanner.Tokenizer) (interface{}, error) {
	tracer().Debugf("~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~")
	r.stack = append(r.stack, stackitem{state: 0, sym: 0}) // push S0
	token, ok := r.next(scan)
	if !ok {
		return nil, r.result()
	}
	for {
		tokval := token.TokType()
		tos := r.stack[len(r.stack)-1]
		action := r.t.Action.Value(tos.state, tokval)
		if r.p.trace {
			tracer().Infof("state %d, token %q/%d: %s", tos.state, token.Lexeme(), tokval,
				valstring(action, r.t.Action))
		}
		switch {
		case action == r.t.Action.NullValue():
			if !r.syntaxError(token) {
				return nil, r.result()
			}
			if r.depth < 0 { // no state could continue: drop the lookahead
				tracer().Debugf("recovery: skipping token %q", token.Lexeme())
				if token, ok = r.next(scan); !ok {
					return nil, r.result()
				}
			}
		case action == lr.AcceptAction:
			tracer().Debugf("accept")
			if r.failed {
				return nil, r.result()
			}
			result, err := r.sem.OnAccept(tos.value)
			if err != nil {
				return nil, fmt.Errorf("semantic action on accept: %w", err)
			}
			return result, nil
		case action == lr.ShiftAction:
			nextstate := int(r.t.Goto.Value(tos.state, tokval))
			tracer().Debugf("shifting, next state = %d", nextstate)
			r.stack = append(r.stack, // push a terminal state onto stack
				stackitem{state: nextstate, sym: int(tokval), span: token.Span(), value: token})
			r.suppress, r.depth = false, -1
			if token, ok = r.next(scan); !ok {
				return nil, r.result()
			}
		case action > 0: // reduce action
			if err := r.reduce(int(action), token); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("illegal action %d in state %d", action, tos.state)
		}
	}
}

// reduce performs a reduce action for a rule
//
//    LHS --> X1 ... Xn   (with X being terminals or non-terminals)
//
// Symbols X1 to Xn are represented on the stack as states
//
//    [TOS]  Sn(Xn, span_n) ... S1(X1, span1)  ...
//
func (r *run) reduce(serial int, lookahead lrkit.Token) error {
	rule := r.t.Rule(serial)
	if rule == nil {
		return fmt.Errorf("reduce with unknown rule %d", serial)
	}
	tracer().Debugf("reduce %v", rule)
	k := rule.Arity()
	handle := r.stack[len(r.stack)-k:]
	var handlespan lrkit.Span
	children := make([]interface{}, k)
	for i, item := range handle {
		if item.sym != rule.RHSValues[i] {
			tracer().Errorf("expected %s on stack, got %d", rule.RHS[i], item.sym)
		}
		handlespan = handlespan.Extend(item.span)
		children[i] = item.value
	}
	if handlespan.IsNull() { // resulted from an epsilon production
		pos := lookahead.Span().From()
		handlespan = lrkit.Span{pos, pos} // epsilon was just before lookahead
	}
	r.stack = r.stack[:len(r.stack)-k]
	var value interface{}
	if !r.failed {
		v, err := r.sem.OnReduce(rule, children)
		if err != nil {
			return fmt.Errorf("semantic action for rule %v: %w", rule, err)
		}
		value = v
	}
	exposed := r.stack[len(r.stack)-1].state
	nextstate := r.t.Goto.Value(exposed, lrkit.TokType(rule.LHSValue))
	if nextstate == r.t.Goto.NullValue() {
		return fmt.Errorf("no GOTO entry for state %d and %s", exposed, rule.LHS)
	}
	tracer().Debugf("reduced to next state = %d", nextstate)
	r.stack = append(r.stack, // push a non-terminal state onto stack
		stackitem{state: int(nextstate), sym: rule.LHSValue, span: handlespan, value: value})
	return nil
}

// next reads the next token. Tokens of type Invalid are passed on, to be
// reported as syntax errors. next returns false if the scanner failed.
func (r *run) next(scan scanner.Tokenizer) (lrkit.Token, bool) {
	token := scan.NextToken()
	if token.TokType() != scanner.Invalid && len(r.lexerrs) > 0 {
		r.failed = true
		r.errs = append(r.errs, r.lexerrs...)
		r.lexerrs = r.lexerrs[:0]
		return token, false
	}
	return token, true
}

func (r *run) recovering() bool {
	return r.p.maxErrors > 0
}

// syntaxError records an error for the lookahead token and, in recovery mode,
// pops the stack down to a state which has an action for the lookahead. If the
// same token has been retried before, the search starts below the previously
// chosen stack depth. r.depth is left < 0 if no such state exists.
//
// syntaxError returns false if the parse has to stop.
func (r *run) syntaxError(token lrkit.Token) bool {
	tos := r.stack[len(r.stack)-1]
	if !r.suppress || len(r.lexerrs) > 0 {
		r.errs = append(r.errs, r.makeError(token, tos.state))
	}
	r.failed = true
	if !r.recovering() || len(r.errs) >= r.p.maxErrors {
		return false
	}
	r.suppress = true
	limit := len(r.stack)
	if r.depth >= 0 && r.retry == token.Span() {
		limit = r.depth
	}
	r.retry, r.depth = token.Span(), -1
	tokval := token.TokType()
	for d := limit - 1; d >= 0; d-- {
		if r.t.Action.Value(r.stack[d].state, tokval) != r.t.Action.NullValue() {
			tracer().Debugf("recovery: resuming in state %d", r.stack[d].state)
			r.stack = r.stack[:d+1]
			r.depth = d
			return true
		}
	}
	return tokval != lrkit.EOF
}

func (r *run) makeError(token lrkit.Token, state int) *ParseError {
	e := &ParseError{
		Span:     token.Span(),
		Lexeme:   token.Lexeme(),
		Token:    token,
		State:    state,
		Expected: r.t.Expected(state),
	}
	if pos, ok := token.(lrkit.Positioned); ok {
		e.Line, e.Column = pos.Line(), pos.Column()
	}
	if n := len(r.lexerrs); n > 0 {
		e.Cause = r.lexerrs[n-1]
		r.lexerrs = r.lexerrs[:0]
	}
	tracer().Debugf("%v", e)
	return e
}

// result returns the error(s) of a failed parse.
func (r *run) result() error {
	if len(r.errs) == 0 {
		return fmt.Errorf("parse failed")
	}
	if !r.recovering() {
		return r.errs[0]
	}
	return r.errs
}

// --- Helpers ----------------------------------------------------------

// valstring is a short helper to stringify an action table entry.
func valstring(v int32, m *lr.Table) string {
	if v == m.NullValue() {
		return "<none>"
	} else if v == lr.AcceptAction {
		return "<accept>"
	} else if v == lr.ShiftAction {
		return "<shift>"
	}
	return fmt.Sprintf("reduce %d", v)
}
