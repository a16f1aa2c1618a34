package lr

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
)

// ConflictKind classifies table conflicts.
type ConflictKind int

// Kinds of conflicts.
const (
	ShiftReduce ConflictKind = iota
	ReduceReduce
)

func (k ConflictKind) String() string {
	if k == ShiftReduce {
		return "shift/reduce"
	}
	return "reduce/reduce"
}

// Conflict records an ambiguity found during table construction, together with
// the way it has been resolved. Conflicts are not fatal: shift wins over reduce,
// and the rule declared first wins a reduce/reduce conflict.
type Conflict struct {
	Kind       ConflictKind
	State      int      // CFSM state
	Terminal   string   // lookahead terminal
	Rules      []int    // serials of the rules involved, winner first for reduce/reduce
	RuleTexts  []string // the rules, formatted
	Resolution string   // "shift" or "reduce <serial>"
}

func (c *Conflict) Error() string {
	return fmt.Sprintf("%s conflict in state %d on %s between %s: resolved as %s",
		c.Kind, c.State, c.Terminal, c.involved(), c.Resolution)
}

func (c *Conflict) involved() string {
	parts := make([]string, 0, len(c.RuleTexts)+1)
	if c.Kind == ShiftReduce {
		parts = append(parts, "shift")
	}
	for k, r := range c.Rules {
		text := ""
		if k < len(c.RuleTexts) {
			text = " " + c.RuleTexts[k]
		}
		parts = append(parts, fmt.Sprintf("reduce %d%s", r, text))
	}
	return strings.Join(parts, " and ")
}

// ConflictReport writes a table of all conflicts of t to w.
func (t *Tables) ConflictReport(w io.Writer) error {
	return conflictReport(w, t.Name, t.Conflicts)
}

// ConflictReport writes a table of all conflicts found by the generator to w.
func (lrgen *TableGenerator) ConflictReport(w io.Writer) error {
	return conflictReport(w, lrgen.g.Name, lrgen.conflicts)
}

func conflictReport(w io.Writer, name string, conflicts []Conflict) error {
	if len(conflicts) == 0 {
		_, err := fmt.Fprintf(w, "grammar %s: no conflicts\n", name)
		return err
	}
	data := [][]string{{"State", "Lookahead", "Kind", "Rules", "Resolution"}}
	for _, c := range conflicts {
		data = append(data, []string{
			strconv.Itoa(c.State),
			c.Terminal,
			c.Kind.String(),
			strings.Join(c.RuleTexts, " | "),
			c.Resolution,
		})
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "grammar %s: %d conflicts\n%s\n", name, len(conflicts), out)
	return err
}
