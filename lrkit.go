package lrkit

import "fmt"

// --- A general purpose interface for tokens --------------------------------

// TokType is a category type for a Token. Grammars assign token types to their
// terminals, starting at 1 in order of declaration.
type TokType int

// EOF is the token type of the end-of-input token. It is identical to
// text/scanner.EOF.
const EOF TokType = -1

// TokTypeStringer is a type to be provided by a scanner/parser combination to be able
// to print out token categories.
type TokTypeStringer func(TokType) string

// Tokens represent input tokens. They are usually produced by a scanner and
// reflect terminals in a language.
//
// An example would be a token for a floating point numer:
//
//    TokType = 7           // identifier for this kind of tokens (grammar specific)
//    Lexeme  = "3.1416"    // lexeme how it appreared in the input stream
//    Value   = nil         // may be set by semantic actions
//    Span    = 67…73       // occured from byte position 67 in the input stream
//
type Token interface {
	TokType() TokType
	Lexeme() string
	Value() interface{}
	Span() Span
}

// Positioned is implemented by tokens which know about their line and column
// within the input.
type Positioned interface {
	Line() int   // 1-based line number
	Column() int // 1-based column, counted in runes
}

// --- Spans ------------------------------------------------------------

// Span is a small type for capturing a length of input token run. For every
// terminal and non-terminal, a parser will track which input positions
// this symbol covers. A span denotes a start position and the position just
// behind the end.
type Span [2]uint64 // (x…y)

// From returns the start value of a span.
func (s Span) From() uint64 {
	return s[0]
}

// To returns the end value of a span.
func (s Span) To() uint64 {
	return s[1]
}

// Len returns the length of (x…y)
func (s Span) Len() uint64 {
	return s[1] - s[0]
}

// IsNull is true for the zero span.
func (s Span) IsNull() bool {
	return s == Span{}
}

// Extend returns the smallest span covering s and other. Null spans are
// neutral.
func (s Span) Extend(other Span) Span {
	if s.IsNull() {
		return other
	}
	if other.IsNull() {
		return s
	}
	if other[0] < s[0] {
		s[0] = other[0]
	}
	if other[1] > s[1] {
		s[1] = other[1]
	}
	return s
}

func (s Span) String() string {
	return fmt.Sprintf("(%d…%d)", s[0], s[1])
}
