package scanner

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// PatternOp is the operator of a pattern node.
type PatternOp int

// Pattern operators.
const (
	OpLiteral PatternOp = iota // a literal string
	OpClass                    // a set of runes
	OpSeq                      // concatenation of sub-patterns
	OpAlt                      // alternatives
	OpStar                     // zero or more repetitions
	OpPlus                     // one or more repetitions
	OpOpt                      // optional
)

// RuneRange is an inclusive range of runes.
type RuneRange struct {
	Lo, Hi rune
}

// Pattern is a regular expression tree. Patterns are independent of any
// concrete matcher implementation and may be serialized with encoding/gob.
type Pattern struct {
	Op     PatternOp
	Text   string      // OpLiteral
	Ranges []RuneRange // OpClass: sorted, non-overlapping, non-adjacent
	Subs   []*Pattern  // OpSeq, OpAlt: any number; OpStar, OpPlus, OpOpt: exactly one
}

// Literal creates a pattern matching the string s.
func Literal(s string) *Pattern {
	return &Pattern{Op: OpLiteral, Text: s}
}

// Class creates a character class from pairs of runes, each pair denoting an
// inclusive range.
func Class(bounds ...rune) *Pattern {
	var rr []RuneRange
	for i := 0; i+1 < len(bounds); i += 2 {
		rr = append(rr, RuneRange{bounds[i], bounds[i+1]})
	}
	return ClassOf(rr)
}

// ClassOf creates a character class from a list of rune ranges.
func ClassOf(ranges []RuneRange) *Pattern {
	return &Pattern{Op: OpClass, Ranges: NormalizeRanges(ranges)}
}

// Seq creates a concatenation. A sequence of one pattern is the pattern itself.
func Seq(ps ...*Pattern) *Pattern {
	if len(ps) == 1 {
		return ps[0]
	}
	return &Pattern{Op: OpSeq, Subs: ps}
}

// Alt creates an alternation. An alternation of one pattern is the pattern itself.
func Alt(ps ...*Pattern) *Pattern {
	if len(ps) == 1 {
		return ps[0]
	}
	return &Pattern{Op: OpAlt, Subs: ps}
}

// Star creates a pattern matching p zero or more times.
func Star(p *Pattern) *Pattern {
	return &Pattern{Op: OpStar, Subs: []*Pattern{p}}
}

// Plus creates a pattern matching p one or more times.
func Plus(p *Pattern) *Pattern {
	return &Pattern{Op: OpPlus, Subs: []*Pattern{p}}
}

// Opt creates a pattern matching p or nothing.
func Opt(p *Pattern) *Pattern {
	return &Pattern{Op: OpOpt, Subs: []*Pattern{p}}
}

// Nullable is true if p matches the empty string.
func (p *Pattern) Nullable() bool {
	switch p.Op {
	case OpLiteral:
		return p.Text == ""
	case OpClass:
		return false
	case OpSeq:
		for _, sub := range p.Subs {
			if !sub.Nullable() {
				return false
			}
		}
		return true
	case OpAlt:
		for _, sub := range p.Subs {
			if sub.Nullable() {
				return true
			}
		}
		return len(p.Subs) == 0
	case OpStar, OpOpt:
		return true
	case OpPlus:
		return p.Subs[0].Nullable()
	}
	return false
}

// Validate checks the structure of a pattern tree.
func (p *Pattern) Validate() error {
	if p == nil {
		return fmt.Errorf("nil pattern")
	}
	switch p.Op {
	case OpLiteral:
		if !utf8.ValidString(p.Text) {
			return fmt.Errorf("literal %q is not valid UTF-8", p.Text)
		}
	case OpClass:
		if len(p.Ranges) == 0 {
			return fmt.Errorf("empty character class")
		}
		for _, r := range p.Ranges {
			if r.Lo > r.Hi || r.Lo < 0 || r.Hi > utf8.MaxRune {
				return fmt.Errorf("malformed character range %s", r)
			}
		}
	case OpSeq, OpAlt:
		if len(p.Subs) == 0 {
			return fmt.Errorf("empty %s", p.Op)
		}
	case OpStar, OpPlus, OpOpt:
		if len(p.Subs) != 1 {
			return fmt.Errorf("%s needs exactly one operand", p.Op)
		}
	default:
		return fmt.Errorf("unknown pattern operator %d", p.Op)
	}
	for _, sub := range p.Subs {
		if err := sub.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (op PatternOp) String() string {
	switch op {
	case OpLiteral:
		return "literal"
	case OpClass:
		return "class"
	case OpSeq:
		return "sequence"
	case OpAlt:
		return "alternation"
	case OpStar:
		return "star"
	case OpPlus:
		return "plus"
	case OpOpt:
		return "option"
	}
	return fmt.Sprintf("PatternOp(%d)", int(op))
}

func (r RuneRange) String() string {
	if r.Lo == r.Hi {
		return strconv.QuoteRune(r.Lo)
	}
	return strconv.QuoteRune(r.Lo) + ".." + strconv.QuoteRune(r.Hi)
}

// String renders a pattern in a regular expression like notation, for
// debugging purposes.
func (p *Pattern) String() string {
	var b strings.Builder
	p.write(&b)
	return b.String()
}

func (p *Pattern) write(b *strings.Builder) {
	switch p.Op {
	case OpLiteral:
		b.WriteString(strconv.Quote(p.Text))
	case OpClass:
		b.WriteByte('[')
		for i, r := range p.Ranges {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(r.String())
		}
		b.WriteByte(']')
	case OpSeq, OpAlt:
		sep := " "
		if p.Op == OpAlt {
			sep = " | "
		}
		b.WriteByte('(')
		for i, sub := range p.Subs {
			if i > 0 {
				b.WriteString(sep)
			}
			sub.write(b)
		}
		b.WriteByte(')')
	case OpStar, OpPlus, OpOpt:
		p.Subs[0].write(b)
		b.WriteString(map[PatternOp]string{OpStar: "*", OpPlus: "+", OpOpt: "?"}[p.Op])
	}
}

// --- Rune range arithmetic -------------------------------------------------

// NormalizeRanges sorts ranges and merges overlapping or adjacent ones.
func NormalizeRanges(ranges []RuneRange) []RuneRange {
	if len(ranges) == 0 {
		return nil
	}
	rr := make([]RuneRange, len(ranges))
	copy(rr, ranges)
	sort.Slice(rr, func(i, j int) bool { return rr[i].Lo < rr[j].Lo })
	out := rr[:1]
	for _, r := range rr[1:] {
		last := &out[len(out)-1]
		if r.Lo <= last.Hi+1 {
			if r.Hi > last.Hi {
				last.Hi = r.Hi
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// SubtractRanges returns the runes of a which are not in b.
func SubtractRanges(a, b []RuneRange) []RuneRange {
	a, b = NormalizeRanges(a), NormalizeRanges(b)
	var out []RuneRange
	for _, r := range a {
		lo := r.Lo
		for _, s := range b {
			if s.Hi < lo || s.Lo > r.Hi {
				continue
			}
			if s.Lo > lo {
				out = append(out, RuneRange{lo, s.Lo - 1})
			}
			lo = s.Hi + 1
			if lo > r.Hi {
				break
			}
		}
		if lo <= r.Hi {
			out = append(out, RuneRange{lo, r.Hi})
		}
	}
	return out
}

// RangesSize returns the number of runes covered by a list of normalized ranges.
func RangesSize(ranges []RuneRange) int {
	n := 0
	for _, r := range ranges {
		n += int(r.Hi-r.Lo) + 1
	}
	return n
}
