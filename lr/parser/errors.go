package parser

import (
	"fmt"
	"strings"

	"github.com/npillmayer/lrkit"
)

// ParseError is reported if the parse tables have no action for a lookahead
// token.
type ParseError struct {
	Span     lrkit.Span
	Line     int // 1-based, 0 if unknown
	Column   int // 1-based, in runes
	Lexeme   string
	Token    lrkit.Token
	Expected []string // names of valid terminals, in declaration order
	State    int
	Cause    error // *scanner.LexError for unmatched input
}

// Unwrap returns the lexical error, if any.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("syntax error")
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d, column %d", e.Line, e.Column)
	} else {
		fmt.Fprintf(&b, " at %v", e.Span)
	}
	if e.Token != nil && e.Token.TokType() == lrkit.EOF {
		b.WriteString(": unexpected end of input")
	} else {
		fmt.Fprintf(&b, ": unexpected %q", e.Lexeme)
	}
	if len(e.Expected) > 0 {
		fmt.Fprintf(&b, ", expected one of %s", strings.Join(e.Expected, " "))
	}
	return b.String()
}

// ErrorList collects the errors of a parse with error recovery.
// Elements are of type *ParseError or *scanner.LexError.
type ErrorList []error

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	msgs := make([]string, len(l))
	for i, err := range l {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d errors:\n%s", len(l), strings.Join(msgs, "\n"))
}
