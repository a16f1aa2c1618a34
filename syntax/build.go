package syntax

import (
	"fmt"

	"github.com/npillmayer/lrkit/lr"
	"github.com/npillmayer/lrkit/lr/parser"
	"github.com/npillmayer/lrkit/lr/scanner"
)

// Settings controls how artifacts are built from a syntax.
type Settings struct {
	Name     string      // name of the grammar
	Strategy lr.Strategy // LALR or SLR
	Matcher  string      // name of a registered scanner.Matcher
}

// BuildOption configures Build.
type BuildOption func(*Settings)

// WithName sets the name of the grammar.
func WithName(name string) BuildOption {
	return func(s *Settings) {
		s.Name = name
	}
}

// WithStrategy selects the table construction strategy. Default is LALR.
func WithStrategy(strategy lr.Strategy) BuildOption {
	return func(s *Settings) {
		s.Strategy = strategy
	}
}

// WithMatcher selects the scanner matcher by name. Default is
// scanner.DefaultMatcher.
func WithMatcher(name string) BuildOption {
	return func(s *Settings) {
		s.Matcher = name
	}
}

// NewSettings applies options to the default settings.
func NewSettings(opts ...BuildOption) Settings {
	s := Settings{Name: "syntax", Strategy: lr.LALR, Matcher: scanner.DefaultMatcher}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Artifacts are the products of a build: a scanning automaton and parse tables.
// Both are immutable and may be shared by concurrent parses.
type Artifacts struct {
	Lexer  *scanner.Automaton
	Tables *lr.Tables
}

// Build separates a syntax, compiles the scanner and creates the parse tables.
// Conflicts do not make Build fail; they are resolved and may be inspected
// with Artifacts.Conflicts.
func Build(src Syntax, opts ...BuildOption) (*Artifacts, error) {
	settings := NewSettings(opts...)
	sep, err := Separate(src)
	if err != nil {
		return nil, err
	}
	defs, err := sep.LexerDefs()
	if err != nil {
		return nil, err
	}
	lex, err := scanner.Compile(defs, scanner.WithMatcher(settings.Matcher))
	if err != nil {
		return nil, fmt.Errorf("syntax %s: %w", settings.Name, err)
	}
	g, err := sep.Grammar(settings.Name)
	if err != nil {
		return nil, err
	}
	lrgen := lr.NewTableGenerator(lr.Analysis(g), lr.WithStrategy(settings.Strategy))
	if err := lrgen.CreateTables(); err != nil {
		return nil, err
	}
	a := &Artifacts{Lexer: lex, Tables: lrgen.Tables()}
	if a.Tables.HasConflicts() {
		tracer().Infof("syntax %s: %d conflicts resolved", settings.Name, len(a.Tables.Conflicts))
	}
	return a, nil
}

// Conflicts returns the conflicts resolved during table construction.
func (a *Artifacts) Conflicts() []lr.Conflict {
	return a.Tables.Conflicts
}

// Parser creates a parser for the tables.
func (a *Artifacts) Parser(opts ...parser.Option) *parser.Parser {
	return parser.NewParser(a.Tables, opts...)
}

// Scanner creates a scanner for an input string, e.g. to register listeners
// before calling Parser().Parse(…).
func (a *Artifacts) Scanner(input string, opts ...scanner.ScanOption) *scanner.Scanner {
	return a.Lexer.Scanner(input, opts...)
}

// Parse scans and parses an input string.
func (a *Artifacts) Parse(input string, sem parser.SemanticAction, opts ...scanner.ScanOption) (interface{}, error) {
	return a.Parser().ParseInput(a.Lexer, input, sem, opts...)
}

// Equal compares two sets of artifacts structurally.
func (a *Artifacts) Equal(other *Artifacts) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.Lexer.Equal(other.Lexer) && a.Tables.Equal(other.Tables)
}
