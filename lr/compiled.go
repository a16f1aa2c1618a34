package lr

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"strings"

	"github.com/npillmayer/lrkit"
	"github.com/npillmayer/lrkit/lr/sparse"
)

// Table is a parser table, i.e. an ACTION table or a GOTO table. Rows are CFSM
// states, columns are symbol values. Every cell may hold a second value, which
// for ACTION tables is the action that lost conflict resolution.
type Table struct {
	matrix *sparse.IntMatrix
	mincol lrkit.TokType // lowest value for index j => offset for access
}

func (t *Table) column(tt lrkit.TokType) (int, bool) {
	j := int(tt - t.mincol)
	return j, j >= 0 && j < t.matrix.N()
}

func (t *Table) add(i int, tt lrkit.TokType, val int32) {
	j, ok := t.column(tt)
	if !ok {
		panic(fmt.Sprintf("lr.Table.add() with column out of range: %d", tt))
	}
	t.matrix.Add(i, j, val)
}

func (t *Table) set(i int, tt lrkit.TokType, val int32) {
	j, ok := t.column(tt)
	if !ok {
		panic(fmt.Sprintf("lr.Table.set() with column out of range: %d", tt))
	}
	t.matrix.Set(i, j, val)
}

// NullValue is the value of empty cells.
func (t *Table) NullValue() int32 {
	return t.matrix.NullValue()
}

// Value returns the primary entry for state i and symbol value tt. Unknown
// states or symbols yield the null value.
func (t *Table) Value(i int, tt lrkit.TokType) int32 {
	a, _ := t.Values(i, tt)
	return a
}

// Values returns both entries for state i and symbol value tt.
func (t *Table) Values(i int, tt lrkit.TokType) (int32, int32) {
	j, ok := t.column(tt)
	if !ok || i < 0 || i >= t.matrix.M() {
		return t.NullValue(), t.NullValue()
	}
	return t.matrix.Values(i, j)
}

// Rows returns the number of states covered by the table.
func (t *Table) Rows() int {
	return t.matrix.M()
}

// Equal compares two tables cell by cell.
func (t *Table) Equal(other *Table) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.mincol == other.mincol && t.matrix.Equal(other.matrix)
}

type gobTable struct {
	MinCol int
	Matrix *sparse.IntMatrix
}

// GobEncode is part of interface gob.GobEncoder.
func (t *Table) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(gobTable{MinCol: int(t.mincol), Matrix: t.matrix})
	return buf.Bytes(), err
}

// GobDecode is part of interface gob.GobDecoder.
func (t *Table) GobDecode(data []byte) error {
	var gt gobTable
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&gt); err != nil {
		return err
	}
	if gt.Matrix == nil {
		return fmt.Errorf("lr.Table: missing matrix")
	}
	t.mincol, t.matrix = lrkit.TokType(gt.MinCol), gt.Matrix
	return nil
}

// --- Compiled tables -------------------------------------------------------

// SymbolInfo describes a grammar symbol within compiled tables.
type SymbolInfo struct {
	Name     string
	Value    int
	Terminal bool
}

// RuleInfo describes a grammar rule within compiled tables. It is the rule
// type semantic actions receive.
type RuleInfo struct {
	Serial    int
	LHS       string
	LHSValue  int
	RHS       []string
	RHSValues []int
}

// Arity returns the number of RHS symbols.
func (r *RuleInfo) Arity() int {
	return len(r.RHS)
}

// String formats a rule like "[S] ::= [A a]".
func (r *RuleInfo) String() string {
	return fmt.Sprintf("[%s] ::= [%s]", r.LHS, strings.Join(r.RHS, " "))
}

// Tables is the immutable result of table construction. It contains everything
// a parser needs and does not reference the grammar. Tables may be serialized
// with encoding/gob and shared between any number of parsers.
type Tables struct {
	Name       string
	Strategy   Strategy
	Symbols    []SymbolInfo // terminals in declaration order, then non-terminals
	Rules      []RuleInfo   // indexed by serial number
	Action     *Table
	Goto       *Table
	Conflicts  []Conflict
	StateCount int
}

// Tables exports the tables of the generator. CreateTables() must have been
// called before.
func (lrgen *TableGenerator) Tables() *Tables {
	if lrgen.actiontable == nil {
		tracer().Errorf("tables not yet generated; call CreateTables() first")
		return nil
	}
	g := lrgen.g
	t := &Tables{
		Name:       g.Name,
		Strategy:   lrgen.strategy,
		Action:     lrgen.actiontable,
		Goto:       lrgen.gototable,
		Conflicts:  append([]Conflict(nil), lrgen.conflicts...),
		StateCount: lrgen.dfa.StateCount(),
	}
	g.EachSymbol(func(A *Symbol) interface{} {
		t.Symbols = append(t.Symbols, SymbolInfo{Name: A.Name, Value: A.Value, Terminal: A.IsTerminal()})
		return nil
	})
	for _, r := range g.rules {
		info := RuleInfo{Serial: r.Serial, LHS: r.LHS.Name, LHSValue: r.LHS.Value}
		for _, A := range r.rhs {
			info.RHS = append(info.RHS, A.Name)
			info.RHSValues = append(info.RHSValues, A.Value)
		}
		t.Rules = append(t.Rules, info)
	}
	return t
}

// Rule returns the rule with a given serial number, or nil.
func (t *Tables) Rule(serial int) *RuleInfo {
	if serial < 0 || serial >= len(t.Rules) {
		return nil
	}
	return &t.Rules[serial]
}

// Symbol returns the symbol with a given value, or nil.
func (t *Tables) Symbol(value int) *SymbolInfo {
	for k := range t.Symbols {
		if t.Symbols[k].Value == value {
			return &t.Symbols[k]
		}
	}
	return nil
}

// SymbolByName returns the symbol with a given name, or nil.
func (t *Tables) SymbolByName(name string) *SymbolInfo {
	for k := range t.Symbols {
		if t.Symbols[k].Name == name {
			return &t.Symbols[k]
		}
	}
	return nil
}

// Expected returns the names of all terminals with a non-empty action in a
// state, in declaration order.
func (t *Tables) Expected(state int) []string {
	var exp []string
	for _, A := range t.Symbols {
		if !A.Terminal {
			continue
		}
		if t.Action.Value(state, lrkit.TokType(A.Value)) != t.Action.NullValue() {
			exp = append(exp, A.Name)
		}
	}
	return exp
}

// HasConflicts is true if table construction had to resolve conflicts.
func (t *Tables) HasConflicts() bool {
	return len(t.Conflicts) > 0
}

// Equal compares two compiled tables structurally.
func (t *Tables) Equal(other *Tables) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Name != other.Name || t.Strategy != other.Strategy || t.StateCount != other.StateCount {
		return false
	}
	if len(t.Symbols) != len(other.Symbols) || len(t.Rules) != len(other.Rules) ||
		len(t.Conflicts) != len(other.Conflicts) {
		return false
	}
	for k, A := range t.Symbols {
		if A != other.Symbols[k] {
			return false
		}
	}
	for k := range t.Rules {
		if t.Rules[k].String() != other.Rules[k].String() || t.Rules[k].LHSValue != other.Rules[k].LHSValue {
			return false
		}
	}
	for k := range t.Conflicts {
		if t.Conflicts[k].Error() != other.Conflicts[k].Error() {
			return false
		}
	}
	return t.Action.Equal(other.Action) && t.Goto.Equal(other.Goto)
}
