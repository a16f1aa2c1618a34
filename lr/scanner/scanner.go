/*
Package scanner compiles token definitions into a scanning automaton and
defines the interface for scanners to be used with parsers of package lr.

Token definitions pair a token type with a Pattern, a small regular
expression tree. Compile hands the definitions to a Matcher, which does the
actual pattern matching. Two matchers are provided: one backed by lexmachine
(the default, living in this package) and one backed by maleeni (living in
sub-package mlmatch). Clients may register their own matchers.

    defs := []scanner.TokenDef{
        {Name: `"Hello"`, TokType: 1, Pattern: scanner.Literal("Hello")},
        {Name: "spaces", TokType: 2, Pattern: scanner.Plus(scanner.Class(' ', ' ', '\t', '\t')), Ignored: true},
    }
    lex, err := scanner.Compile(defs)
    scan := lex.Scanner("Hello  Hello")
    for tok := scan.NextToken(); tok.TokType() != lrkit.EOF; tok = scan.NextToken() {
        …
    }

The automaton is immutable and may be used by any number of scanners
concurrently. Scanners implement the Tokenizer interface.

Scanners always select the longest match. If more than one token definition
matches a longest match, the definition appearing first wins.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package scanner

import (
	"fmt"

	"github.com/npillmayer/lrkit"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'lrkit.scanner'.
func tracer() tracing.Trace {
	return tracing.Select("lrkit.scanner")
}

// EOF is the token type for end of input.
// Invalid is the token type of tokens covering input no definition matches.
const (
	EOF     = lrkit.EOF
	Invalid = lrkit.TokType(-2)
)

// Tokenizer is a scanner interface.
type Tokenizer interface {
	NextToken() lrkit.Token
	SetErrorHandler(func(error))
}

// Default error reporting function for scanners
func logError(e error) {
	tracer().Errorf("scanner error: " + e.Error())
}

// --- Default tokens --------------------------------------------------------

// DefaultToken is the token type produced by scanners of this package.
// Line and column are 1-based, column counts runes.
type DefaultToken struct {
	kind    lrkit.TokType
	lexeme  string
	Val     interface{}
	span    lrkit.Span
	line    int
	column  int
	ignored bool
}

var _ lrkit.Token = DefaultToken{}
var _ lrkit.Positioned = DefaultToken{}

// MakeDefaultToken creates a token without position information.
func MakeDefaultToken(typ lrkit.TokType, lexeme string, span lrkit.Span) DefaultToken {
	return DefaultToken{
		kind:   typ,
		lexeme: lexeme,
		span:   span,
	}
}

// TokType is part of interface lrkit.Token.
func (t DefaultToken) TokType() lrkit.TokType {
	return t.kind
}

// Value is part of interface lrkit.Token.
func (t DefaultToken) Value() interface{} {
	return t.Val
}

// Lexeme is part of interface lrkit.Token.
func (t DefaultToken) Lexeme() string {
	return t.lexeme
}

// Span is part of interface lrkit.Token.
func (t DefaultToken) Span() lrkit.Span {
	return t.span
}

// Line is part of interface lrkit.Positioned.
func (t DefaultToken) Line() int {
	return t.line
}

// Column is part of interface lrkit.Positioned.
func (t DefaultToken) Column() int {
	return t.column
}

// Ignored is true for tokens which are not passed on to a parser.
func (t DefaultToken) Ignored() bool {
	return t.ignored
}

func (t DefaultToken) String() string {
	return fmt.Sprintf("<%d|%q@%d:%d>", t.kind, t.lexeme, t.line, t.column)
}

// Lexeme is a helper function to receive a string from a token.
func Lexeme(token interface{}) string {
	switch t := token.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case lrkit.Token:
		return t.Lexeme()
	default:
		return fmt.Sprintf("%v", t)
	}
}
