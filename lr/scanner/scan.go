package scanner

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/npillmayer/lrkit"
)

// LexError is reported if no token definition matches the input at a position.
type LexError struct {
	Offset int    // byte offset of the unmatched text
	Line   int    // 1-based line
	Column int    // 1-based column, in runes
	Text   string // the unmatched text
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexical error at line %d, column %d: unexpected %q", e.Line, e.Column, e.Text)
}

// TokenListener is notified of every token a scanner produces, including
// ignored ones.
type TokenListener interface {
	TokenReceived(tok lrkit.Token, ignored bool)
}

// ListenerFunc adapts a function to the TokenListener interface.
type ListenerFunc func(tok lrkit.Token, ignored bool)

// TokenReceived is part of interface TokenListener.
func (f ListenerFunc) TokenReceived(tok lrkit.Token, ignored bool) {
	f(tok, ignored)
}

// ScanOption configures a scanner.
type ScanOption func(*Scanner)

// WithListener registers a token listener.
func WithListener(l TokenListener) ScanOption {
	return func(s *Scanner) {
		s.AddListener(l)
	}
}

// WithErrorHandler sets the error handler of a scanner.
func WithErrorHandler(h func(error)) ScanOption {
	return func(s *Scanner) {
		s.SetErrorHandler(h)
	}
}

// Scanner is a cursor over one input, driven by an automaton. Scanners are
// not safe for concurrent use, but any number of scanners may share an
// automaton.
type Scanner struct {
	auto      *Automaton
	input     []byte
	cursor    Cursor
	offset    int
	line, col int
	done      bool
	pending   *match // match following a run of unmatched text
	listeners []TokenListener
	Error     func(error) // error handler
}

var _ Tokenizer = (*Scanner)(nil)

// Scanner creates a scanner for an input string.
func (a *Automaton) Scanner(input string, opts ...ScanOption) *Scanner {
	s := &Scanner{
		auto:  a,
		input: []byte(input),
		line:  1,
		col:   1,
		Error: logError,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetErrorHandler sets an error handler for the scanner.
func (s *Scanner) SetErrorHandler(h func(error)) {
	if h == nil {
		s.Error = logError
		return
	}
	s.Error = h
}

// AddListener registers a token listener.
func (s *Scanner) AddListener(l TokenListener) {
	if l != nil {
		s.listeners = append(s.listeners, l)
	}
}

// NextToken is part of the Tokenizer interface. Ignored tokens are passed to
// listeners, but skipped. A run of input not matched by any definition is
// reported as a *LexError to the error handler and returned as a single token
// of type Invalid.
// At the end of input, NextToken returns EOF tokens.
func (s *Scanner) NextToken() lrkit.Token {
	if s.cursor == nil && !s.done {
		machine, err := s.auto.compiled()
		if err != nil {
			s.done = true
			s.Error(err)
		} else {
			s.cursor = machine.Cursor(s.input)
		}
	}
	for !s.done {
		def, lexeme, err := s.next()
		if errors.Is(err, io.EOF) {
			s.done = true
			break
		}
		start, line, col := s.offset, s.line, s.col
		var nomatch *NoMatch
		if errors.As(err, &nomatch) {
			lexeme = s.unmatched(nomatch.Text)
		} else if err != nil {
			s.done = true
			s.Error(err)
			break
		}
		s.advance(lexeme)
		span := lrkit.Span{uint64(start), uint64(s.offset)}
		if nomatch != nil {
			s.Error(&LexError{Offset: start, Line: line, Column: col, Text: string(lexeme)})
			return DefaultToken{kind: Invalid, lexeme: string(lexeme), span: span, line: line, column: col}
		}
		d := s.auto.defs[def]
		tok := DefaultToken{
			kind:    d.TokType,
			lexeme:  string(lexeme),
			span:    span,
			line:    line,
			column:  col,
			ignored: d.Ignored,
		}
		tracer().Debugf("token %s = %v", d.Name, tok)
		for _, l := range s.listeners {
			l.TokenReceived(tok, d.Ignored)
		}
		if !d.Ignored {
			return tok
		}
	}
	end := uint64(len(s.input))
	return DefaultToken{kind: EOF, span: lrkit.Span{end, end}, line: s.line, column: s.col}
}

type match struct {
	def    int
	lexeme []byte
	err    error
}

func (s *Scanner) next() (int, []byte, error) {
	if m := s.pending; m != nil {
		s.pending = nil
		return m.def, m.lexeme, m.err
	}
	return s.cursor.Next()
}

// unmatched collects a run of unmatched text into one piece. The match
// following the run is kept for the next call.
func (s *Scanner) unmatched(text []byte) []byte {
	run := append([]byte(nil), text...)
	for {
		def, lexeme, err := s.cursor.Next()
		var nomatch *NoMatch
		if !errors.As(err, &nomatch) {
			s.pending = &match{def: def, lexeme: lexeme, err: err}
			return run
		}
		run = append(run, nomatch.Text...)
	}
}

func (s *Scanner) advance(lexeme []byte) {
	s.offset += len(lexeme)
	for len(lexeme) > 0 {
		r, size := utf8.DecodeRune(lexeme)
		lexeme = lexeme[size:]
		if r == '\n' {
			s.line++
			s.col = 1
		} else {
			s.col++
		}
	}
}
