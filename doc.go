/*
Package lrkit is a grammar-driven parser generator toolkit.

Clients describe a language by a set of rules, mixing lexical rules
(characters, character ranges, literals) and syntactic rules (nonterminals).
LRKit separates these rules into a lexer grammar and a parser grammar,
compiles a scanner automaton and SLR(1) or LALR(1) parser tables from them,
and executes the tables against input, calling client semantics on every
reduction. Compiled tables may be cached on disk. Package structure is
as follows:

■ syntax: Package syntax holds the rule source format, the separation of
lexical and syntactic rules, standard lexer rules and an EBNF front-end.
It glues everything together in syntax.Build.

■ lr: Package lr implements grammars, grammar analysis and the construction
of LR parser tables, together with supporting data structures. Sub-packages
contain the scanner (lr/scanner), the parsing engine (lr/parser) and a cache
for compiled tables (lr/cache).

The base package contains data types which are used throughout all the other packages.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package lrkit
