package lr

import (
	"bytes"
	"fmt"

	"github.com/npillmayer/lrkit/lr/iteratable"
)

// Item is an LR(0) item, i.e. a rule with a dot somewhere within its RHS.
// Items are comparable and may be used as map keys.
type Item struct {
	rule *Rule
	dot  int
}

// StartItem returns an item with the dot before the RHS of rule r, together
// with the symbol after the dot (nil for epsilon rules).
func StartItem(r *Rule) (Item, *Symbol) {
	if r == nil {
		return Item{}, nil
	}
	i := Item{rule: r}
	return i, i.PeekSymbol()
}

// Rule returns the rule of an item.
func (i Item) Rule() *Rule {
	return i.rule
}

// Dot returns the position of the dot.
func (i Item) Dot() int {
	return i.dot
}

// PeekSymbol returns the symbol after the dot, or nil if the dot is at the end.
func (i Item) PeekSymbol() *Symbol {
	if i.rule == nil || i.dot >= len(i.rule.rhs) {
		return nil
	}
	return i.rule.rhs[i.dot]
}

// Advance returns a new item with the dot moved over the next symbol.
// Advancing a completed item returns the item itself.
func (i Item) Advance() Item {
	if i.rule == nil || i.dot >= len(i.rule.rhs) {
		return i
	}
	return Item{rule: i.rule, dot: i.dot + 1}
}

// Prefix returns the symbols before the dot.
func (i Item) Prefix() []*Symbol {
	if i.rule == nil {
		return nil
	}
	return i.rule.rhs[:i.dot]
}

// IsComplete is true if the dot is behind the last RHS symbol.
func (i Item) IsComplete() bool {
	return i.rule != nil && i.dot == len(i.rule.rhs)
}

// isKernel is true for kernel items: the initial item of the augmented start
// rule, and every item with the dot not in front.
func (i Item) isKernel() bool {
	return i.dot > 0 || i.rule.Serial == 0
}

func (i Item) String() string {
	if i.rule == nil {
		return "[]"
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "[%s] ::= [", i.rule.LHS.Name)
	for k, A := range i.rule.rhs {
		if k == i.dot {
			b.WriteString("●")
		} else if k > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(A.Name)
	}
	if i.dot == len(i.rule.rhs) {
		b.WriteString("●")
	}
	b.WriteByte(']')
	return b.String()
}

func asItem(x interface{}) Item {
	return x.(Item)
}

func newItemSet() *iteratable.Set {
	return iteratable.NewSet(0)
}

// Dump is a debugging helper, tracing every item of an item set.
func Dump(iset *iteratable.Set) {
	iset.Each(func(x interface{}) {
		tracer().Debugf("    %s", asItem(x))
	})
}

func itemSetString(S *iteratable.Set) string {
	var b bytes.Buffer
	b.WriteString("{")
	first := true
	S.Each(func(x interface{}) {
		if first {
			b.WriteString(" ")
			first = false
		} else {
			b.WriteString(", ")
		}
		b.WriteString(asItem(x).String())
	})
	b.WriteString(" }")
	return b.String()
}
