package scanner

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

// lexmachine adapter
//
// lexmachine works on bytes. Patterns are translated into lexmachine's
// regular expression syntax, with literals and character classes rendered
// as UTF-8 byte sequences. Character classes containing non-ASCII runes are
// supported if they either contain every rune from U+0080 upwards, or at most
// maxExpandedRunes non-ASCII runes.

const maxExpandedRunes = 256

type lexmachineMatcher struct{}

func (lexmachineMatcher) Name() string {
	return "lexmachine"
}

// Compile is part of interface Matcher.
func (lexmachineMatcher) Compile(defs []TokenDef) (Machine, error) {
	lexer := lexmachine.NewLexer()
	for i, d := range defs {
		var b bytes.Buffer
		if err := renderLM(&b, d.Pattern); err != nil {
			return nil, fmt.Errorf("lexmachine: token %s: %w", d.Name, err)
		}
		tracer().Debugf("lexmachine pattern for %s: %q", d.Name, b.String())
		lexer.Add(b.Bytes(), makeToken(i))
	}
	if err := lexer.Compile(); err != nil {
		tracer().Errorf("Error compiling DFA: %v", err)
		return nil, err
	}
	return &lmMachine{lexer: lexer}, nil
}

// makeToken is an action which wraps a scanned match into a token, carrying
// the index of the token definition as its type.
func makeToken(def int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(def, nil, m), nil
	}
}

type lmMachine struct {
	lexer *lexmachine.Lexer
}

func (lm *lmMachine) Cursor(input []byte) Cursor {
	s, err := lm.lexer.Scanner(input)
	return &lmCursor{scanner: s, err: err}
}

type lmCursor struct {
	scanner *lexmachine.Scanner
	err     error
}

func (c *lmCursor) Next() (int, []byte, error) {
	if c.err != nil {
		return -1, nil, c.err
	}
	tok, err, eof := c.scanner.Next()
	if eof {
		return -1, nil, io.EOF
	}
	if err != nil {
		ui, is := err.(*machines.UnconsumedInput)
		if !is {
			return -1, nil, err
		}
		text := c.scanner.Text
		start, fail := ui.StartTC, ui.FailTC
		if fail <= start {
			_, size := utf8.DecodeRune(text[start:])
			fail = start + size
		}
		for fail < len(text) && !utf8.RuneStart(text[fail]) {
			fail++
		}
		if fail > len(text) {
			fail = len(text)
		}
		c.scanner.TC = fail
		return -1, nil, &NoMatch{Text: text[start:fail]}
	}
	token := tok.(*lexmachine.Token)
	return token.Type, token.Lexeme, nil
}

// --- Rendering patterns ----------------------------------------------------

func isLMMeta(c byte) bool {
	switch c {
	case '\\', '.', '+', '*', '?', '(', ')', '|', '[', ']', '^', '-':
		return true
	}
	return false
}

func isLMClassMeta(c byte) bool {
	switch c {
	case '\\', ']', '[', '-', '^':
		return true
	}
	return false
}

func writeLMLiteral(b *bytes.Buffer, s []byte) {
	for _, c := range s {
		if isLMMeta(c) {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
}

func writeLMClassByte(b *bytes.Buffer, c byte) {
	if isLMClassMeta(c) {
		b.WriteByte('\\')
	}
	b.WriteByte(c)
}

func renderLM(b *bytes.Buffer, p *Pattern) error {
	switch p.Op {
	case OpLiteral:
		if p.Text == "" {
			return fmt.Errorf("empty literal")
		}
		writeLMLiteral(b, []byte(p.Text))
	case OpClass:
		return renderLMClass(b, p.Ranges)
	case OpSeq:
		for _, sub := range p.Subs {
			if err := renderLMGroup(b, sub); err != nil {
				return err
			}
		}
	case OpAlt:
		b.WriteByte('(')
		for i, sub := range p.Subs {
			if i > 0 {
				b.WriteByte('|')
			}
			if err := renderLM(b, sub); err != nil {
				return err
			}
		}
		b.WriteByte(')')
	case OpStar, OpPlus, OpOpt:
		if err := renderLMGroup(b, p.Subs[0]); err != nil {
			return err
		}
		b.WriteByte(map[PatternOp]byte{OpStar: '*', OpPlus: '+', OpOpt: '?'}[p.Op])
	default:
		return fmt.Errorf("unknown pattern operator %d", p.Op)
	}
	return nil
}

// renderLMGroup renders p as an operand which may be followed by a
// repetition operator.
func renderLMGroup(b *bytes.Buffer, p *Pattern) error {
	if p.Op == OpClass || p.Op == OpAlt {
		return renderLM(b, p)
	}
	b.WriteByte('(')
	if err := renderLM(b, p); err != nil {
		return err
	}
	b.WriteByte(')')
	return nil
}

// renderLMClass renders a character class. The ASCII part becomes a bracket
// expression, the non-ASCII part an alternation of UTF-8 byte sequences.
func renderLMClass(b *bytes.Buffer, ranges []RuneRange) error {
	var ascii, wide []RuneRange
	for _, r := range ranges {
		if r.Lo <= utf8.RuneSelf-1 {
			hi := r.Hi
			if hi > utf8.RuneSelf-1 {
				hi = utf8.RuneSelf - 1
			}
			ascii = append(ascii, RuneRange{r.Lo, hi})
		}
		if r.Hi >= utf8.RuneSelf {
			lo := r.Lo
			if lo < utf8.RuneSelf {
				lo = utf8.RuneSelf
			}
			wide = append(wide, RuneRange{lo, r.Hi})
		}
	}
	var alts [][]byte
	if len(ascii) > 0 {
		var cls bytes.Buffer
		cls.WriteByte('[')
		for _, r := range ascii {
			writeLMClassByte(&cls, byte(r.Lo))
			if r.Hi > r.Lo {
				cls.WriteByte('-')
				writeLMClassByte(&cls, byte(r.Hi))
			}
		}
		cls.WriteByte(']')
		alts = append(alts, cls.Bytes())
	}
	if len(wide) == 1 && wide[0].Lo == utf8.RuneSelf && wide[0].Hi == utf8.MaxRune {
		// any multi-byte UTF-8 sequence
		alts = append(alts, []byte{'[', 0xC0, '-', 0xFF, ']', '[', 0x80, '-', 0xBF, ']', '+'})
	} else if len(wide) > 0 {
		if n := RangesSize(wide); n > maxExpandedRunes {
			return fmt.Errorf("character class with %d non-ASCII runes not supported, use matcher maleeni", n)
		}
		for _, r := range wide {
			for c := r.Lo; c <= r.Hi; c++ {
				var lit bytes.Buffer
				buf := make([]byte, utf8.UTFMax)
				writeLMLiteral(&lit, buf[:utf8.EncodeRune(buf, c)])
				alts = append(alts, lit.Bytes())
			}
		}
	}
	if len(alts) == 1 && len(wide) == 0 {
		b.Write(alts[0])
		return nil
	}
	b.WriteByte('(')
	b.Write(bytes.Join(alts, []byte{'|'}))
	b.WriteByte(')')
	return nil
}
