/*
Package mlmatch provides a scanner.Matcher backed by maleeni, a lexer generator
working on runes. Importing the package registers the matcher under the name
"maleeni":

    import _ "github.com/npillmayer/lrkit/lr/scanner/mlmatch"

    lex, err := scanner.Compile(defs, scanner.WithMatcher("maleeni"))

Other than the default lexmachine matcher, maleeni supports character classes
of arbitrary Unicode ranges.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package mlmatch

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	mlcompiler "github.com/nihei9/maleeni/compiler"
	mldriver "github.com/nihei9/maleeni/driver"
	mlspec "github.com/nihei9/maleeni/spec"
	"github.com/npillmayer/lrkit/lr/scanner"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'lrkit.scanner'.
func tracer() tracing.Trace {
	return tracing.Select("lrkit.scanner")
}

// Name is the name the matcher is registered with.
const Name = "maleeni"

func init() {
	scanner.RegisterMatcher(Matcher{})
}

// Matcher is a scanner.Matcher using maleeni.
type Matcher struct{}

// Name is part of interface scanner.Matcher.
func (Matcher) Name() string {
	return Name
}

// Compile is part of interface scanner.Matcher.
func (Matcher) Compile(defs []scanner.TokenDef) (scanner.Machine, error) {
	entries := make([]*mlspec.LexEntry, 0, len(defs))
	kinds := make(map[mlspec.LexKindName]int, len(defs))
	for i, d := range defs {
		var b strings.Builder
		if err := render(&b, d.Pattern); err != nil {
			return nil, fmt.Errorf("maleeni: token %s: %w", d.Name, err)
		}
		kind := mlspec.LexKindName(fmt.Sprintf("t_%d", i+1))
		kinds[kind] = i
		tracer().Debugf("maleeni pattern for %s: %s", d.Name, b.String())
		entries = append(entries, &mlspec.LexEntry{
			Kind:    kind,
			Pattern: mlspec.LexPattern(b.String()),
		})
	}
	clspec, err, cErrs := mlcompiler.Compile(&mlspec.LexSpec{Name: "lrkit", Entries: entries},
		mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMax))
	if err != nil {
		if len(cErrs) > 0 {
			cerr := cErrs[0]
			return nil, fmt.Errorf("maleeni: %v: %v %s", cerr.Kind, cerr.Cause, cerr.Detail)
		}
		return nil, fmt.Errorf("maleeni: %w", err)
	}
	m := &machine{spec: mldriver.NewLexSpec(clspec), defs: make([]int, len(clspec.KindNames))}
	for id, k := range clspec.KindNames {
		if def, ok := kinds[k]; ok {
			m.defs[id] = def
		} else {
			m.defs[id] = -1
		}
	}
	return m, nil
}

type machine struct {
	spec mldriver.LexSpec
	defs []int // kind ID => index of token definition
}

func (m *machine) Cursor(input []byte) scanner.Cursor {
	lex, err := mldriver.NewLexer(m.spec, bytes.NewReader(input))
	return &cursor{m: m, lex: lex, err: err}
}

type cursor struct {
	m   *machine
	lex *mldriver.Lexer
	err error
}

func (c *cursor) Next() (int, []byte, error) {
	if c.err != nil {
		return -1, nil, c.err
	}
	tok, err := c.lex.Next()
	if err != nil {
		c.err = err
		return -1, nil, err
	}
	if tok.EOF {
		c.err = io.EOF
		return -1, nil, io.EOF
	}
	text := tok.Lexeme
	if tok.Invalid {
		return -1, nil, &scanner.NoMatch{Text: text}
	}
	id := int(tok.KindID)
	if id <= 0 || id >= len(c.m.defs) || c.m.defs[id] < 0 {
		return -1, nil, &scanner.NoMatch{Text: text}
	}
	return c.m.defs[id], text, nil
}

// --- Rendering patterns ----------------------------------------------------

// codePoint renders a code point expression, which takes either 4 or 6 hex digits.
func codePoint(r rune) string {
	if r > 0xFFFF {
		return fmt.Sprintf(`\u{%06X}`, r)
	}
	return fmt.Sprintf(`\u{%04X}`, r)
}

var surrogates = []scanner.RuneRange{{Lo: 0xD800, Hi: 0xDFFF}}

// byteRanges splits a rune range into ranges whose UTF-8 encodings are a
// product of byte ranges, and appends them to out. maleeni's compiler splits
// ranges only where the encoding length changes, and then pairs the bytes of
// the lower and upper bound position by position; [α-ω] would otherwise
// compile to <CE-CF><B1-89> and match nothing.
func byteRanges(r scanner.RuneRange, out []scanner.RuneRange) []scanner.RuneRange {
	for _, top := range []rune{0x7F, 0x7FF, 0xFFFF} {
		if r.Lo <= top && r.Hi > top {
			out = byteRanges(scanner.RuneRange{Lo: r.Lo, Hi: top}, out)
			return byteRanges(scanner.RuneRange{Lo: top + 1, Hi: r.Hi}, out)
		}
	}
	if r.Hi < utf8.RuneSelf {
		return append(out, r)
	}
	for i := uint(1); i < utf8.UTFMax; i++ {
		m := rune(1)<<(6*i) - 1 // continuation bytes carry 6 bits each
		if r.Lo&^m == r.Hi&^m {
			continue
		}
		if r.Lo&m != 0 {
			out = byteRanges(scanner.RuneRange{Lo: r.Lo, Hi: r.Lo | m}, out)
			return byteRanges(scanner.RuneRange{Lo: (r.Lo | m) + 1, Hi: r.Hi}, out)
		}
		if r.Hi&m != m {
			out = byteRanges(scanner.RuneRange{Lo: r.Lo, Hi: (r.Hi &^ m) - 1}, out)
			return byteRanges(scanner.RuneRange{Lo: r.Hi &^ m, Hi: r.Hi}, out)
		}
	}
	return append(out, r)
}

func render(b *strings.Builder, p *scanner.Pattern) error {
	switch p.Op {
	case scanner.OpLiteral:
		if p.Text == "" {
			return fmt.Errorf("empty literal")
		}
		b.WriteString(mlspec.EscapePattern(p.Text))
	case scanner.OpClass:
		var ranges []scanner.RuneRange
		for _, r := range scanner.SubtractRanges(p.Ranges, surrogates) {
			ranges = byteRanges(r, ranges)
		}
		if len(ranges) == 0 {
			return fmt.Errorf("empty character class")
		}
		b.WriteByte('[')
		for _, r := range ranges {
			b.WriteString(codePoint(r.Lo))
			if r.Hi > r.Lo {
				b.WriteByte('-')
				b.WriteString(codePoint(r.Hi))
			}
		}
		b.WriteByte(']')
	case scanner.OpSeq, scanner.OpAlt:
		sep := ""
		if p.Op == scanner.OpAlt {
			sep = "|"
		}
		b.WriteByte('(')
		for i, sub := range p.Subs {
			if i > 0 {
				b.WriteString(sep)
			}
			if err := render(b, sub); err != nil {
				return err
			}
		}
		b.WriteByte(')')
	case scanner.OpStar, scanner.OpPlus, scanner.OpOpt:
		b.WriteByte('(')
		if err := render(b, p.Subs[0]); err != nil {
			return err
		}
		b.WriteByte(')')
		b.WriteString(map[scanner.PatternOp]string{scanner.OpStar: "*", scanner.OpPlus: "+", scanner.OpOpt: "?"}[p.Op])
	default:
		return fmt.Errorf("unknown pattern operator %d", p.Op)
	}
	return nil
}
