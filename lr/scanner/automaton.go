package scanner

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sort"
	"sync"

	"github.com/npillmayer/lrkit"
)

// TokenDef defines a token: a name, the token type for the parser, and the
// pattern the token matches. Ignored tokens are scanned, but never handed to
// a parser.
type TokenDef struct {
	Name    string
	TokType lrkit.TokType
	Pattern *Pattern
	Ignored bool
}

// --- Matchers --------------------------------------------------------------

// Matcher is a strategy for pattern matching. A matcher compiles a list of
// token definitions into a Machine. Machines must select the longest match and
// prefer the definition appearing first for matches of equal length.
type Matcher interface {
	Name() string
	Compile(defs []TokenDef) (Machine, error)
}

// Machine is a compiled matcher. It must be safe for concurrent use.
type Machine interface {
	Cursor(input []byte) Cursor
}

// Cursor scans a single input. Next returns the index of the matching token
// definition and the lexeme. At end of input it returns io.EOF. If no
// definition matches, it returns a *NoMatch error, carrying the text skipped.
// The text of all lexemes and NoMatch errors, concatenated, is the input.
type Cursor interface {
	Next() (def int, lexeme []byte, err error)
}

// NoMatch is returned by cursors for input no definition matches.
type NoMatch struct {
	Text []byte
}

func (nm *NoMatch) Error() string {
	return fmt.Sprintf("no token matches %q", nm.Text)
}

var matchers = struct {
	sync.RWMutex
	m map[string]Matcher
}{m: make(map[string]Matcher)}

// DefaultMatcher is the name of the matcher used if no other is selected.
const DefaultMatcher = "lexmachine"

// RegisterMatcher makes a matcher available by name. Registering a name twice
// replaces the matcher.
func RegisterMatcher(m Matcher) {
	matchers.Lock()
	defer matchers.Unlock()
	matchers.m[m.Name()] = m
}

// LookupMatcher finds a registered matcher.
func LookupMatcher(name string) (Matcher, bool) {
	matchers.RLock()
	defer matchers.RUnlock()
	m, ok := matchers.m[name]
	return m, ok
}

// Matchers returns the names of all registered matchers, sorted.
func Matchers() []string {
	matchers.RLock()
	defer matchers.RUnlock()
	names := make([]string, 0, len(matchers.m))
	for n := range matchers.m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func init() {
	RegisterMatcher(lexmachineMatcher{})
}

// --- Automaton -------------------------------------------------------------

// Automaton is a compiled set of token definitions. It is immutable and may
// be shared by any number of concurrent scanners.
type Automaton struct {
	defs    []TokenDef
	matcher string
	once    sync.Once
	machine Machine
	err     error
}

// CompileOption configures compilation of an automaton.
type CompileOption func(*Automaton)

// WithMatcher selects a registered matcher by name.
func WithMatcher(name string) CompileOption {
	return func(a *Automaton) {
		if name != "" {
			a.matcher = name
		}
	}
}

// Compile validates token definitions and compiles them into an automaton.
// Definitions are matched with declaration-order priority: for matches of
// equal length, the definition appearing first wins.
func Compile(defs []TokenDef, opts ...CompileOption) (*Automaton, error) {
	a := &Automaton{matcher: DefaultMatcher}
	for _, opt := range opts {
		opt(a)
	}
	if err := validateDefs(defs); err != nil {
		return nil, err
	}
	a.defs = make([]TokenDef, len(defs))
	copy(a.defs, defs)
	if _, err := a.compiled(); err != nil {
		return nil, err
	}
	tracer().Infof("compiled %d token definitions with matcher %s", len(defs), a.matcher)
	return a, nil
}

func validateDefs(defs []TokenDef) error {
	if len(defs) == 0 {
		return fmt.Errorf("scanner: no token definitions")
	}
	seen := make(map[lrkit.TokType]string, len(defs))
	for _, d := range defs {
		if d.Name == "" {
			return fmt.Errorf("scanner: token definition without a name")
		}
		if d.TokType == EOF || d.TokType == Invalid {
			return fmt.Errorf("scanner: token %s uses reserved token type %d", d.Name, d.TokType)
		}
		if other, ok := seen[d.TokType]; ok {
			return fmt.Errorf("scanner: tokens %s and %s share token type %d", other, d.Name, d.TokType)
		}
		seen[d.TokType] = d.Name
		if err := d.Pattern.Validate(); err != nil {
			return fmt.Errorf("scanner: token %s: %w", d.Name, err)
		}
		if d.Pattern.Nullable() {
			return fmt.Errorf("scanner: token %s matches the empty string", d.Name)
		}
	}
	return nil
}

// compiled returns the machine, compiling it on first use.
func (a *Automaton) compiled() (Machine, error) {
	a.once.Do(func() {
		m, ok := LookupMatcher(a.matcher)
		if !ok {
			a.err = fmt.Errorf("scanner: no matcher registered as %q", a.matcher)
			return
		}
		a.machine, a.err = m.Compile(a.defs)
	})
	return a.machine, a.err
}

// Defs returns a copy of the token definitions.
func (a *Automaton) Defs() []TokenDef {
	defs := make([]TokenDef, len(a.defs))
	copy(defs, a.defs)
	return defs
}

// MatcherName returns the name of the matcher the automaton uses.
func (a *Automaton) MatcherName() string {
	return a.matcher
}

// TokenName returns the name of the token definition for a token type.
func (a *Automaton) TokenName(t lrkit.TokType) string {
	switch t {
	case EOF:
		return "#eof"
	case Invalid:
		return "#invalid"
	}
	for _, d := range a.defs {
		if d.TokType == t {
			return d.Name
		}
	}
	return fmt.Sprintf("%d", t)
}

// Equal compares two automata for equal definitions and matcher.
func (a *Automaton) Equal(other *Automaton) bool {
	if a == nil || other == nil {
		return a == other
	}
	if a.matcher != other.matcher || len(a.defs) != len(other.defs) {
		return false
	}
	for k, d := range a.defs {
		o := other.defs[k]
		if d.Name != o.Name || d.TokType != o.TokType || d.Ignored != o.Ignored ||
			d.Pattern.String() != o.Pattern.String() {
			return false
		}
	}
	return true
}

type gobAutomaton struct {
	Matcher string
	Defs    []TokenDef
}

// GobEncode is part of interface gob.GobEncoder. Only the definitions and the
// matcher name are stored; the machine is recompiled on first use.
func (a *Automaton) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(gobAutomaton{Matcher: a.matcher, Defs: a.defs})
	return buf.Bytes(), err
}

// GobDecode is part of interface gob.GobDecoder.
func (a *Automaton) GobDecode(data []byte) error {
	var ga gobAutomaton
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&ga); err != nil {
		return err
	}
	if err := validateDefs(ga.Defs); err != nil {
		return err
	}
	a.matcher, a.defs = ga.Matcher, ga.Defs
	return nil
}
