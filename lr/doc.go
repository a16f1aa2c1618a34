/*
Package lr implements the construction of LR parser tables.

Building a Grammar

Grammars are specified using a grammar builder object. Clients add
rules, consisting of non-terminal symbols and terminals. Terminals
carry a token value of type int. Grammars may contain epsilon-productions.

Example:

    b := lr.NewGrammarBuilder("G")
    b.LHS("S").N("A").T("a", 1).End()  // S  ->  A a
    b.LHS("A").N("B").N("D").End()     // A  ->  B D
    b.LHS("B").T("b", 2).End()         // B  ->  b
    b.LHS("B").Epsilon()               // B  ->
    b.LHS("D").T("d", 3).End()         // D  ->  d
    b.LHS("D").Epsilon()               // D  ->
    g, err := b.Grammar()

The builder augments the grammar with a start rule, which becomes rule 0:

   0: [S'] ::= [S #eof]
   1: [S] ::= [A a]
   2: [A] ::= [B D]
   3: [B] ::= [b]
   4: [B] ::= []
   5: [D] ::= [d]
   6: [D] ::= []

Static Grammar Analysis

After the grammar is complete, it has to be analysed. For this end, the
grammar is subjected to an LRAnalysis object, which computes FIRST and
FOLLOW sets for the grammar and determines all epsilon-derivable non-terminals.

    ga := lr.Analysis(g)             // analyser for grammar above
    ga.First(g.SymbolByName("A"))    // => {2 3}, i.e. 'b' and 'd'
    ga.Nullable(g.SymbolByName("A")) // => true

Parser Construction

Using grammar analysis as input, a bottom-up parser can be constructed.
First a characteristic finite state machine (CFSM) is built from the
grammar. The CFSM will then be transformed into a GOTO table and an ACTION
table, either for an SLR(1) or (the default) for an LALR(1) parser.
The CFSM is made available to the client for debugging purposes.
It can be exported to Graphviz's Dot-format.

    lrgen := lr.NewTableGenerator(ga, lr.WithStrategy(lr.LALR))
    err := lrgen.CreateTables()       // construct LR parser tables
    tables := lrgen.Tables()          // immutable, may be cached with encoding/gob

Conflicts do not stop table construction. Shift/reduce conflicts are resolved
in favour of shift, reduce/reduce conflicts in favour of the rule declared
first. Every resolution is recorded and may be inspected with Conflicts() or
printed with ConflictReport().

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package lr

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'lrkit.lr'.
func tracer() tracing.Trace {
	return tracing.Select("lrkit.lr")
}
