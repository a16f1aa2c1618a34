package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/npillmayer/lrkit"
	"github.com/npillmayer/lrkit/lr"
)

// SemanticAction is called by the parser on every reduction and on accept.
// Children are lrkit.Token values for terminals and the values returned from
// earlier reductions for non-terminals, in RHS order. The value returned from
// OnReduce becomes the value of the rule's LHS.
//
// Reductions happen in a deterministic bottom-up order for a given input.
type SemanticAction interface {
	OnReduce(rule *lr.RuleInfo, children []interface{}) (interface{}, error)
	OnAccept(result interface{}) (interface{}, error)
}

// SemanticFunc adapts a function to the SemanticAction interface. OnAccept
// returns the value of the start symbol.
type SemanticFunc func(rule *lr.RuleInfo, children []interface{}) (interface{}, error)

// OnReduce is part of interface SemanticAction.
func (f SemanticFunc) OnReduce(rule *lr.RuleInfo, children []interface{}) (interface{}, error) {
	return f(rule, children)
}

// OnAccept is part of interface SemanticAction.
func (f SemanticFunc) OnAccept(result interface{}) (interface{}, error) {
	return result, nil
}

// Validate does nothing. Use it to check input against a grammar.
type Validate struct{}

// OnReduce is part of interface SemanticAction.
func (Validate) OnReduce(*lr.RuleInfo, []interface{}) (interface{}, error) {
	return nil, nil
}

// OnAccept is part of interface SemanticAction.
func (Validate) OnAccept(interface{}) (interface{}, error) {
	return nil, nil
}

// PrintSemantic prints every reduction to W. The value of a non-terminal is
// the concatenation of the lexemes it covers, separated by blanks.
type PrintSemantic struct {
	W io.Writer
}

// OnReduce is part of interface SemanticAction.
func (ps PrintSemantic) OnReduce(rule *lr.RuleInfo, children []interface{}) (interface{}, error) {
	parts := make([]string, 0, len(children))
	for _, c := range children {
		if s := childText(c); s != "" {
			parts = append(parts, s)
		}
	}
	text := strings.Join(parts, " ")
	if ps.W != nil {
		if _, err := fmt.Fprintf(ps.W, "%s\t%q\n", rule, text); err != nil {
			return nil, err
		}
	}
	return text, nil
}

// OnAccept is part of interface SemanticAction.
func (ps PrintSemantic) OnAccept(result interface{}) (interface{}, error) {
	return result, nil
}

func childText(c interface{}) string {
	switch v := c.(type) {
	case lrkit.Token:
		return v.Lexeme()
	case string:
		return v
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", c)
}

// --- Parse trees -----------------------------------------------------------

// Node is a node of a parse tree, as built by TreeBuilder. Leafs carry a
// token, inner nodes a rule.
type Node struct {
	Symbol   string
	Rule     *lr.RuleInfo // nil for leafs
	Token    lrkit.Token  // nil for inner nodes
	Children []*Node
}

// Span returns the input span covered by a node.
func (n *Node) Span() lrkit.Span {
	if n.Token != nil {
		return n.Token.Span()
	}
	var span lrkit.Span
	for _, ch := range n.Children {
		span = span.Extend(ch.Span())
	}
	return span
}

// String renders a tree in bracket notation, e.g. "(Start Hello World)".
func (n *Node) String() string {
	if n == nil {
		return "()"
	}
	if n.Token != nil {
		return n.Token.Lexeme()
	}
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(n.Symbol)
	for _, ch := range n.Children {
		b.WriteByte(' ')
		b.WriteString(ch.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Dump writes an indented representation of a tree.
func (n *Node) Dump(w io.Writer) {
	n.dump(w, 0)
}

func (n *Node) dump(w io.Writer, level int) {
	indent := strings.Repeat("  ", level)
	if n.Token != nil {
		fmt.Fprintf(w, "%s%s %q\n", indent, n.Symbol, n.Token.Lexeme())
		return
	}
	fmt.Fprintf(w, "%s%s\n", indent, n.Symbol)
	for _, ch := range n.Children {
		ch.dump(w, level+1)
	}
}

// TreeBuilder builds a parse tree of *Node values.
type TreeBuilder struct{}

// OnReduce is part of interface SemanticAction.
func (TreeBuilder) OnReduce(rule *lr.RuleInfo, children []interface{}) (interface{}, error) {
	node := &Node{Symbol: rule.LHS, Rule: rule, Children: make([]*Node, len(children))}
	for i, c := range children {
		switch v := c.(type) {
		case *Node:
			node.Children[i] = v
		case lrkit.Token:
			node.Children[i] = &Node{Symbol: rule.RHS[i], Token: v}
		default:
			return nil, fmt.Errorf("tree builder: unexpected child of type %T", c)
		}
	}
	return node, nil
}

// OnAccept is part of interface SemanticAction.
func (TreeBuilder) OnAccept(result interface{}) (interface{}, error) {
	return result, nil
}
