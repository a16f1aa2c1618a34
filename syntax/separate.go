package syntax

import (
	"sort"
	"strconv"

	"github.com/npillmayer/lrkit"
	"github.com/npillmayer/lrkit/lr/scanner"
)

// TokenDecl declares a terminal the scanner has to produce.
type TokenDecl struct {
	Name    string        // `"Hello"` for literals, the category name otherwise
	TokType lrkit.TokType // 1…n in declaration order
	Literal bool          // Name is a quoted literal
	Text    string        // literal text
	Ignored bool          // scanned, but not passed to the parser
}

// Separation is the result of separating a syntax into a lexer grammar and a
// parser grammar.
type Separation struct {
	Start   string      // start symbol of the parser grammar
	Parser  Syntax      // syntactic rules; terminals as literals or `category`
	Lexer   Syntax      // lexical rules, including referenced standard rules
	Ignored []string    // names of ignored categories
	Tokens  []TokenDecl // in declaration order

	parser  []parsedRule
	lexical map[string][]parsedRule
	tokens  map[string]*TokenDecl
}

// Separate partitions a syntax into lexical and syntactic rules.
//
// A non-terminal is lexical if all of its rules consist of literals,
// characters, ranges, differences, references and lexical non-terminals, and
// at least one of them contains a character, range, difference or lexical
// non-terminal. Non-terminals referenced with backticks or named by Ignored
// rules are lexical whenever their rules allow it. Other non-terminals are
// lexical only if their rules can be lowered to a pattern (see LexerDefs);
// P ➞ '(' P ')' | 'x' is syntactic. The start symbol is always syntactic.
//
// Tokens are declared in order of first occurrence within the syntax. If two
// tokens match input of equal length, the one declared first wins.
func Separate(src Syntax) (*Separation, error) {
	sep := &Separation{
		lexical: make(map[string][]parsedRule),
		tokens:  make(map[string]*TokenDecl),
	}
	var all []parsedRule      // rules defining non-terminals, user rules first
	var source []sourceRule   // syntax in source order
	var ignoredNames []string // categories named by ignored rules
	var ignoredSingle []Rule  // ignored rules naming a category
	defs := make(map[string][]parsedRule)
	forced := make(map[string]bool) // must be lexical
	for _, r := range src {
		pr, err := parseRule(r)
		if err != nil {
			return nil, err
		}
		if pr.lhs != Ignored {
			if sep.Start == "" {
				sep.Start = pr.lhs
			}
			all = append(all, pr)
			defs[pr.lhs] = append(defs[pr.lhs], pr)
			source = append(source, sourceRule{rule: pr})
			continue
		}
		switch {
		case len(pr.elems) == 0:
			return nil, syntaxError(Ignored, "empty ignored rule")
		case len(pr.elems) == 1 && (pr.elems[0].kind == elRef || pr.elems[0].kind == elName):
			name := pr.elems[0].text
			ignoredNames = append(ignoredNames, name)
			ignoredSingle = append(ignoredSingle, pr.rule())
			forced[name] = true
			source = append(source, sourceRule{ignored: name})
		default:
			forced[Ignored] = true
			all = append(all, pr)
			defs[Ignored] = append(defs[Ignored], pr)
			source = append(source, sourceRule{ignored: Ignored})
		}
	}
	if sep.Start == "" {
		return nil, syntaxError("", "syntax has no parser rules")
	}
	if err := pullStandardRules(&all, defs, ignoredNames); err != nil {
		return nil, err
	}
	for _, pr := range all {
		for _, e := range pr.elems {
			e.names(func(name string, ref bool) {
				if ref {
					forced[name] = true
				}
			})
		}
	}
	lexical := classify(defs, sep.Start, forced)
	for name := range forced {
		if !lexical[name] {
			return nil, syntaxError(name, "is referenced as lexical category, but has syntactic rules")
		}
	}
	for _, pr := range all {
		if lexical[pr.lhs] {
			sep.lexical[pr.lhs] = append(sep.lexical[pr.lhs], pr)
			sep.Lexer = append(sep.Lexer, pr.rule())
			continue
		}
		for _, e := range pr.elems {
			if e.kind == elRange || e.kind == elDiff {
				return nil, syntaxError(pr.lhs, "mixes character ranges or differences with syntactic rules")
			}
		}
		sep.parser = append(sep.parser, pr)
	}
	sep.Lexer = append(sep.Lexer, ignoredSingle...)
	// declare tokens in order of first occurrence
	for _, sr := range source {
		if sr.ignored != "" {
			if err := sep.declare(sr.ignored, "", false, true); err != nil {
				return nil, err
			}
			continue
		}
		if lexical[sr.rule.lhs] {
			continue
		}
		for _, e := range sr.rule.elems {
			var err error
			switch {
			case e.kind == elLiteral:
				err = sep.declare(strconv.Quote(e.text), e.text, true, false)
			case e.kind == elChar:
				err = sep.declare(strconv.Quote(string(e.lo)), string(e.lo), true, false)
			case e.kind == elRef || lexical[e.text]:
				err = sep.declare(e.text, "", false, false)
			}
			if err != nil {
				return nil, err
			}
		}
	}
	sep.Tokens = make([]TokenDecl, 0, len(sep.tokens))
	for i := 1; i <= len(sep.tokens); i++ {
		for _, t := range sep.tokens {
			if t.TokType == lrkit.TokType(i) {
				sep.Tokens = append(sep.Tokens, *t)
				break
			}
		}
	}
	for _, pr := range sep.parser {
		sep.Parser = append(sep.Parser, sep.normalize(pr))
	}
	tracer().Debugf("separated syntax: %d parser rules, %d lexer rules, %d tokens",
		len(sep.Parser), len(sep.Lexer), len(sep.Tokens))
	return sep, nil
}

type sourceRule struct {
	rule    parsedRule
	ignored string // name of the ignored category, for ignored rules
}

// declare adds a token declaration, if not already present.
func (sep *Separation) declare(name, text string, literal, ignored bool) error {
	if t, ok := sep.tokens[name]; ok {
		if t.Ignored != ignored {
			return syntaxError(name, "is ignored and used as parser terminal")
		}
		return nil
	}
	sep.tokens[name] = &TokenDecl{
		Name:    name,
		TokType: lrkit.TokType(len(sep.tokens) + 1),
		Literal: literal,
		Text:    text,
		Ignored: ignored,
	}
	if ignored {
		sep.Ignored = append(sep.Ignored, name)
	}
	return nil
}

// normalize renders a syntactic rule with characters as literals and lexical
// non-terminals as references.
func (sep *Separation) normalize(pr parsedRule) Rule {
	r := Rule{LHS: pr.lhs, RHS: make([]string, 0, len(pr.elems))}
	for _, e := range pr.elems {
		switch {
		case e.kind == elChar:
			r.RHS = append(r.RHS, strconv.Quote(string(e.lo)))
		case e.kind == elName && sep.lexical[e.text] != nil:
			r.RHS = append(r.RHS, "`"+e.text+"`")
		default:
			r.RHS = append(r.RHS, e.strings()...)
		}
	}
	return r
}

// pullStandardRules adds standard rules for every name which is referenced,
// but not defined. Names in extra are lexical categories.
func pullStandardRules(all *[]parsedRule, defs map[string][]parsedRule, extra []string) error {
	std, err := standardRules()
	if err != nil {
		return err
	}
	for _, name := range extra {
		if _, ok := defs[name]; ok {
			continue
		}
		rules, ok := std[name]
		if !ok {
			return syntaxError(name, "undefined lexical category")
		}
		defs[name] = rules
		*all = append(*all, rules...)
	}
	for i := 0; i < len(*all); i++ { // *all grows while iterating
		var undefined error
		for _, e := range (*all)[i].elems {
			e.names(func(name string, ref bool) {
				if _, ok := defs[name]; ok || undefined != nil {
					return
				}
				rules, ok := std[name]
				if !ok {
					if ref {
						undefined = syntaxError(name, "undefined lexical category")
					} else {
						undefined = syntaxError(name, "undefined non-terminal")
					}
					return
				}
				tracer().Debugf("using standard rule %s", name)
				defs[name] = rules
				*all = append(*all, rules...)
			})
		}
		if undefined != nil {
			return undefined
		}
	}
	return nil
}

// classify finds the lexical non-terminals.
func classify(defs map[string][]parsedRule, start string, forced map[string]bool) map[string]bool {
	// charLevel: least fixed point
	charLevel := make(map[string]bool)
	for name := range forced {
		charLevel[name] = true
	}
	for changed := true; changed; {
		changed = false
		for name, rules := range defs {
			if charLevel[name] {
				continue
			}
			for _, pr := range rules {
				for _, e := range pr.elems {
					if e.charLevel() || (e.kind == elName && charLevel[e.text]) {
						charLevel[name] = true
						changed = true
					}
				}
			}
		}
	}
	// lexical: greatest fixed point within charLevel
	lexical := make(map[string]bool)
	for name := range defs {
		if name != start && charLevel[name] {
			lexical[name] = true
		}
	}
	shrink := func() {
		for changed := true; changed; {
			changed = false
			for name := range lexical {
				ok := true
				for _, pr := range defs[name] {
					for _, e := range pr.elems {
						e.names(func(n string, ref bool) {
							if !lexical[n] {
								ok = false
							}
						})
					}
				}
				if !ok {
					delete(lexical, name)
					changed = true
				}
			}
		}
	}
	shrink()
	// Non-terminals which cannot be lowered to a pattern, e.g. P ➞ ( P ) | x,
	// are syntactic unless forced. Errors for forced ones are reported by
	// LexerDefs.
	for demoted := true; demoted; {
		demoted = false
		l := &lowering{rules: make(map[string][]parsedRule, len(lexical)),
			done: make(map[string]*scanner.Pattern), active: make(map[string]bool)}
		names := make([]string, 0, len(lexical))
		for name := range lexical {
			l.rules[name] = defs[name]
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if forced[name] {
				continue
			}
			if _, err := l.lower(name); err != nil {
				tracer().Debugf("%s is not regular and stays syntactic: %v", name, err)
				delete(lexical, name)
				demoted = true
				break
			}
		}
		if demoted {
			shrink()
		}
	}
	return lexical
}
