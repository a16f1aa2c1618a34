package lr

import (
	"fmt"
	"sort"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
	"github.com/npillmayer/lrkit"
	"github.com/npillmayer/lrkit/lr/iteratable"
	"github.com/npillmayer/lrkit/lr/sparse"
	"golang.org/x/tools/container/intsets"
)

// Actions for parser action tables. Reduce actions are encoded as the serial
// number of the rule to reduce.
const (
	ShiftAction  = -1
	AcceptAction = -2
)

// Strategy selects the lookahead computation for reduce actions.
type Strategy int

// Strategies for table construction. LALR is the default.
const (
	LALR Strategy = iota // LALR(1), lookaheads propagated through the LR(0) automaton
	SLR                  // SLR(1), lookaheads are FOLLOW(LHS)
)

func (s Strategy) String() string {
	switch s {
	case LALR:
		return "LALR(1)"
	case SLR:
		return "SLR(1)"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// Option configures a table generator.
type Option func(*TableGenerator)

// WithStrategy selects SLR or LALR table construction.
func WithStrategy(s Strategy) Option {
	return func(lrgen *TableGenerator) {
		lrgen.strategy = s
	}
}

// === Closure and Goto-Set Operations =======================================

// Refer to "Crafting A Compiler" by Charles N. Fisher & Richard J. LeBlanc, Jr.
// Section 6.2.1 LR(0) Parsing

// Compute the closure of an item.
func (ga *LRAnalysis) closure(i Item) *iteratable.Set {
	S := newItemSet()
	S.Add(i)
	return ga.closureSet(S)
}

// Compute the closure of a set of items.
func (ga *LRAnalysis) closureSet(S *iteratable.Set) *iteratable.Set {
	C := S.Copy() // add start items to closure
	C.IterateOnce()
	for C.Next() {
		item := asItem(C.Item())
		A := item.PeekSymbol()           // get symbol A after dot
		if A != nil && !A.IsTerminal() { // A is non-terminal
			R := ga.g.FindNonTermRules(A, true)
			if New := R.Difference(C); !New.Empty() {
				C.Union(New)
			}
		}
	}
	return C
}

// gotoSet advances every item N ➞ … ●A … of closure over A.
func (ga *LRAnalysis) gotoSet(closure *iteratable.Set, A *Symbol) *iteratable.Set {
	gotoset := newItemSet()
	closure.Each(func(x interface{}) {
		i := asItem(x)
		if i.PeekSymbol() == A {
			gotoset.Add(i.Advance())
		}
	})
	return gotoset
}

func (ga *LRAnalysis) gotoSetClosure(i *iteratable.Set, A *Symbol) *iteratable.Set {
	gclosure := ga.closureSet(ga.gotoSet(i, A))
	tracer().Debugf("goto(%s) --%s--> %s", itemSetString(i), A, itemSetString(gclosure))
	return gclosure
}

// === CFSM Construction =====================================================

// CFSMState is a state within the CFSM for a grammar.
type CFSMState struct {
	ID     int             // serial ID of this state
	items  *iteratable.Set // configuration items within this state
	Accept bool            // is this an accepting state?
}

// CFSM edge between 2 states, directed and labeled with a grammar symbol
type cfsmEdge struct {
	from  *CFSMState
	to    *CFSMState
	label *Symbol
}

// Items returns the items of a state, kernel items first.
func (s *CFSMState) Items() []Item {
	items := make([]Item, 0, s.items.Size())
	s.items.Each(func(x interface{}) {
		items = append(items, asItem(x))
	})
	return items
}

// Dump is a debugging helper
func (s *CFSMState) Dump() {
	tracer().Debugf("--- state %03d -----------", s.ID)
	Dump(s.items)
	tracer().Debugf("-------------------------")
}

func (s *CFSMState) String() string {
	return fmt.Sprintf("(state %d | [%d])", s.ID, s.items.Size())
}

func (s *CFSMState) containsCompletedStartRule() bool {
	for _, x := range s.items.Values() {
		i := asItem(x)
		if i.rule.Serial == 0 && i.PeekSymbol() == nil {
			return true
		}
	}
	return false
}

// We need this for the set of states. It sorts states by serial ID.
func stateComparator(s1, s2 interface{}) int {
	c1 := s1.(*CFSMState)
	c2 := s2.(*CFSMState)
	return utils.IntComparator(c1.ID, c2.ID)
}

// CFSM is the characteristic finite state machine for a LR grammar, i.e. the
// LR(0) state diagram. Will be constructed by a TableGenerator.
// Clients normally do not use it directly. Nevertheless, there are some methods
// defined on it, e.g, for debugging purposes.
type CFSM struct {
	g       *Grammar        // this CFSM is for Grammar g
	states  *treeset.Set    // all the states
	edges   *arraylist.List // all the edges between states
	S0      *CFSMState      // start state
	cfsmIds int             // serial IDs for CFSM states
	succ    map[int]map[*Symbol]*CFSMState
}

// create an empty (initial) CFSM automata.
func emptyCFSM(g *Grammar) *CFSM {
	c := &CFSM{g: g}
	c.states = treeset.NewWith(stateComparator)
	c.edges = arraylist.New()
	c.succ = make(map[int]map[*Symbol]*CFSMState)
	return c
}

// Add a state to the CFSM. Checks first if state is present.
func (c *CFSM) addState(iset *iteratable.Set) *CFSMState {
	s := c.findStateByItems(iset)
	if s == nil {
		s = &CFSMState{ID: c.cfsmIds, items: iset}
		c.cfsmIds++
		c.states.Add(s)
	}
	return s
}

// Find a CFSM state by the contained item set.
func (c *CFSM) findStateByItems(iset *iteratable.Set) *CFSMState {
	it := c.states.Iterator()
	for it.Next() {
		s := it.Value().(*CFSMState)
		if s.items.Equals(iset) {
			return s
		}
	}
	return nil
}

func (c *CFSM) addEdge(s0, s1 *CFSMState, sym *Symbol) {
	c.edges.Add(&cfsmEdge{from: s0, to: s1, label: sym})
	if c.succ[s0.ID] == nil {
		c.succ[s0.ID] = make(map[*Symbol]*CFSMState)
	}
	c.succ[s0.ID][sym] = s1
}

// StateCount returns the number of states of the CFSM.
func (c *CFSM) StateCount() int {
	return c.states.Size()
}

// State returns the state with a given ID, or nil.
func (c *CFSM) State(id int) *CFSMState {
	for _, x := range c.states.Values() {
		if s := x.(*CFSMState); s.ID == id {
			return s
		}
	}
	return nil
}

// Successor returns the target of the edge from s labeled A, or nil.
func (c *CFSM) Successor(s *CFSMState, A *Symbol) *CFSMState {
	return c.succ[s.ID][A]
}

// eachState iterates over the states in order of their IDs.
func (c *CFSM) eachState(f func(s *CFSMState)) {
	it := c.states.Iterator()
	for it.Next() {
		f(it.Value().(*CFSMState))
	}
}

// === Table Generator =======================================================

// TableGenerator is a generator object to construct LR parser tables.
// Clients usually create a Grammar G, then a LRAnalysis-object for G,
// and then a table generator. TableGenerator.CreateTables() constructs
// the CFSM and parser tables for an LR-parser recognizing grammar G.
type TableGenerator struct {
	g            *Grammar
	ga           *LRAnalysis
	strategy     Strategy
	dfa          *CFSM
	gototable    *Table
	actiontable  *Table
	conflicts    []Conflict
	lookaheads   map[laKey]*intsets.Sparse // LALR only
	HasConflicts bool
}

// NewTableGenerator creates a new TableGenerator for a (previously analysed) grammar.
func NewTableGenerator(ga *LRAnalysis, opts ...Option) *TableGenerator {
	lrgen := &TableGenerator{g: ga.Grammar(), ga: ga}
	for _, opt := range opts {
		opt(lrgen)
	}
	return lrgen
}

// Strategy returns the lookahead strategy of the generator.
func (lrgen *TableGenerator) Strategy() Strategy {
	return lrgen.strategy
}

// CFSM returns the characteristic finite state machine (CFSM) for a grammar.
// The CFSM will be created, if it has not been constructed previously.
func (lrgen *TableGenerator) CFSM() *CFSM {
	if lrgen.dfa == nil {
		lrgen.dfa = lrgen.buildCFSM()
	}
	return lrgen.dfa
}

// GotoTable returns the GOTO table for LR-parsing a grammar. The tables have to be
// built by calling CreateTables() previously.
func (lrgen *TableGenerator) GotoTable() *Table {
	if lrgen.gototable == nil {
		tracer().P("lr", "gen").Errorf("tables not yet initialized")
	}
	return lrgen.gototable
}

// ActionTable returns the ACTION table for LR-parsing a grammar. The tables have to be
// built by calling CreateTables() previously.
func (lrgen *TableGenerator) ActionTable() *Table {
	if lrgen.actiontable == nil {
		tracer().P("lr", "gen").Errorf("tables not yet initialized")
	}
	return lrgen.actiontable
}

// Conflicts returns the conflicts found and resolved during table construction.
func (lrgen *TableGenerator) Conflicts() []Conflict {
	return lrgen.conflicts
}

// CreateTables creates the necessary data structures for an LR parser.
func (lrgen *TableGenerator) CreateTables() error {
	if lrgen.g == nil || len(lrgen.g.rules) == 0 {
		return &GrammarError{Msg: "cannot create tables for empty grammar"}
	}
	lrgen.dfa = lrgen.buildCFSM()
	lrgen.gototable = lrgen.BuildGotoTable()
	if lrgen.strategy == LALR {
		lrgen.lookaheads = lrgen.computeLALRLookaheads()
	}
	lrgen.actiontable = lrgen.buildActionTable()
	lrgen.HasConflicts = len(lrgen.conflicts) > 0
	tracer().Infof("%s tables for grammar %q: %d states, %d conflicts", lrgen.strategy,
		lrgen.g.Name, lrgen.dfa.StateCount(), len(lrgen.conflicts))
	return nil
}

// AcceptingStates returns all states of the CFSM which carry an accept action.
// Clients have to call CreateTables() first.
func (lrgen *TableGenerator) AcceptingStates() []int {
	if lrgen.dfa == nil {
		tracer().Errorf("tables not yet generated; call CreateTables() first")
		return nil
	}
	acc := make([]int, 0, 1)
	it := lrgen.dfa.edges.Iterator()
	for it.Next() {
		e := it.Value().(*cfsmEdge)
		if e.to.Accept {
			acc = append(acc, e.from.ID)
		}
	}
	sort.Ints(acc)
	return unique(acc)
}

// Construct the characteristic finite state machine CFSM for a grammar.
func (lrgen *TableGenerator) buildCFSM() *CFSM {
	tracer().Debugf("=== build CFSM ==================================================")
	G := lrgen.g
	cfsm := emptyCFSM(G)
	item, _ := StartItem(G.rules[0])
	closure0 := lrgen.ga.closure(item)
	cfsm.S0 = cfsm.addState(closure0)
	cfsm.S0.Dump()
	S := treeset.NewWith(stateComparator)
	S.Add(cfsm.S0)
	for S.Size() > 0 {
		s := S.Values()[0].(*CFSMState)
		S.Remove(s)
		G.EachSymbol(func(A *Symbol) interface{} {
			gotoset := lrgen.ga.gotoSetClosure(s.items, A)
			if gotoset.Empty() {
				return nil
			}
			snew := cfsm.findStateByItems(gotoset)
			if snew == nil {
				snew = cfsm.addState(gotoset)
				S.Add(snew)
				if snew.containsCompletedStartRule() {
					snew.Accept = true
				}
				snew.Dump()
			}
			cfsm.addEdge(s, snew, A)
			return nil
		})
	}
	tracer().Debugf("CFSM has %d states", cfsm.StateCount())
	return cfsm
}

// --- Tables ----------------------------------------------------------------

func (lrgen *TableGenerator) newTable() *Table {
	var maxtok, mintok int
	first := true
	lrgen.g.EachSymbol(func(A *Symbol) interface{} {
		if first || A.Value > maxtok {
			maxtok = A.Value
		}
		if first || A.Value < mintok {
			mintok = A.Value
		}
		first = false
		return nil
	})
	extent := maxtok - mintok + 1
	statescnt := lrgen.dfa.StateCount()
	tracer().Debugf("table of size %d x (%d-%d=%d)", statescnt, maxtok, mintok, extent)
	return &Table{
		matrix: sparse.NewIntMatrix(statescnt, extent, sparse.DefaultNullValue),
		mincol: lrkit.TokType(mintok),
	}
}

// BuildGotoTable builds the GOTO table. This is normally not called directly, but rather
// via CreateTables(). The GOTO table has entries for terminals as well as for
// non-terminals, as every CFSM edge is recorded.
func (lrgen *TableGenerator) BuildGotoTable() *Table {
	gototable := lrgen.newTable()
	it := lrgen.dfa.edges.Iterator()
	for it.Next() {
		e := it.Value().(*cfsmEdge)
		gototable.set(e.from.ID, e.label.TokenType(), int32(e.to.ID))
	}
	return gototable
}

// For building an ACTION table we iterate over all the states of the CFSM.
// An inner loop iterates over all the items within a CFSM-state.
// If an item has a terminal immediately after the dot, we produce a shift
// entry (accept for #eof). If an item's dot is behind the RHS of a rule,
// we produce a reduce-entry for the rule for each lookahead terminal, which is
// FOLLOW(LHS) for SLR, and the propagated lookahead set for LALR.
//
// Conflicts are resolved while inserting: shift wins over reduce, and the rule
// declared first wins a reduce/reduce conflict. The losing action is kept as
// the cell's second value.
func (lrgen *TableGenerator) buildActionTable() *Table {
	actions := lrgen.newTable()
	lrgen.conflicts = nil
	lrgen.dfa.eachState(func(state *CFSMState) {
		tracer().Debugf("--- state %d --------------------------------", state.ID)
		for _, i := range state.Items() {
			A := i.PeekSymbol()
			if A != nil && A.IsTerminal() {
				action := int32(ShiftAction)
				if A == lrgen.g.eof {
					action = AcceptAction
				}
				lrgen.putAction(actions, state, A, action)
				continue
			}
			if A == nil && i.rule.Serial > 0 {
				for _, la := range lrgen.lookaheadsFor(state, i).AppendTo(nil) {
					T := lrgen.g.terminalByValue(la)
					if T == nil {
						continue
					}
					lrgen.putAction(actions, state, T, int32(i.rule.Serial))
				}
			}
		}
	})
	sort.SliceStable(lrgen.conflicts, func(a, b int) bool {
		return lrgen.conflicts[a].State < lrgen.conflicts[b].State
	})
	return actions
}

func (lrgen *TableGenerator) lookaheadsFor(state *CFSMState, i Item) *intsets.Sparse {
	if lrgen.strategy == SLR {
		return lrgen.ga.Follow(i.rule.LHS)
	}
	if la := lrgen.lookaheads[laKey{state.ID, i}]; la != nil {
		return la
	}
	return &intsets.Sparse{}
}

// putAction inserts an action into the table, resolving conflicts.
func (lrgen *TableGenerator) putAction(actions *Table, state *CFSMState, T *Symbol, action int32) {
	tt := T.TokenType()
	current := actions.Value(state.ID, tt)
	if current == actions.NullValue() {
		actions.set(state.ID, tt, action)
		return
	}
	if current == action {
		return
	}
	isShift := func(a int32) bool { return a == ShiftAction || a == AcceptAction }
	var winner, loser int32
	var c Conflict
	switch {
	case isShift(current) && isShift(action):
		return // cannot happen for distinct actions on the same terminal
	case isShift(current) || isShift(action):
		winner, loser = current, action
		if isShift(action) {
			winner, loser = action, current
		}
		c = Conflict{Kind: ShiftReduce, Rules: []int{int(loser)}}
		c.Resolution = "shift"
	default:
		winner, loser = current, action
		if action < current {
			winner, loser = action, current
		}
		c = Conflict{Kind: ReduceReduce, Rules: []int{int(winner), int(loser)}}
		c.Resolution = fmt.Sprintf("reduce %d", winner)
	}
	c.State = state.ID
	c.Terminal = T.Name
	for _, r := range c.Rules {
		c.RuleTexts = append(c.RuleTexts, lrgen.g.rules[r].String())
	}
	tracer().Infof("%v", &c)
	lrgen.conflicts = append(lrgen.conflicts, c)
	actions.set(state.ID, tt, winner)
	actions.add(state.ID, tt, loser)
	tracer().Debugf("    %s", actionEntry(state.ID, tt, actions))
}

// ----------------------------------------------------------------------

func unique(in []int) []int { // from slice tricks
	if len(in) == 0 {
		return in
	}
	j := 0
	for i := 1; i < len(in); i++ {
		if in[j] == in[i] {
			continue
		}
		j++
		in[j] = in[i]
	}
	return in[:j+1]
}

func actionEntry(stateID int, la lrkit.TokType, aT *Table) string {
	a1, a2 := aT.Values(stateID, la)
	return fmt.Sprintf("Action(%s,%s)", valstring(a1, aT), valstring(a2, aT))
}

// valstring is a short helper to stringify an action table entry.
func valstring(v int32, m *Table) string {
	if v == m.NullValue() {
		return "<none>"
	} else if v == AcceptAction {
		return "<accept>"
	} else if v == ShiftAction {
		return "<shift>"
	}
	return fmt.Sprintf("<reduce %d>", v)
}
