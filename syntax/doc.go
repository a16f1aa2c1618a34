/*
Package syntax is the front-end of lrkit. It reads a combined set of lexical
and syntactic rules, separates them into a lexer grammar and a parser grammar,
and builds a scanning automaton and LR tables from them.

Rules are given as arrays of strings. The first element is the left hand side:

    src, err := syntax.FromArrays([][]string{
        {"Start", `"Hello"`, `"World"`},
        {syntax.Ignored, "`whitespaces`"},
    })
    artifacts, err := syntax.Build(src)
    result, err := artifacts.Parse("Hello World", parser.TreeBuilder{})

Right hand side elements are

    "text"        a literal terminal (Go string literal escapes)
    'c'           a single character (Go rune literal escapes)
    `name`        a lexical category, user defined or one of StandardRules
    'a' .. 'z'    a character range
    x - y         a character set difference
    Name          a non-terminal

Non-terminals whose rules consist of character level constructs only are
lexical: they become tokens of the scanner. Everything else belongs to the
parser grammar. Rules with left hand side Ignored describe input which is
scanned but never handed to the parser, e.g. whitespace or comments.

Alternatively, rules may be written in EBNF, see ParseEBNF.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package syntax

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'lrkit.syntax'.
func tracer() tracing.Trace {
	return tracing.Select("lrkit.syntax")
}
