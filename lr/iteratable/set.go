package iteratable

import (
	"fmt"
	"strings"
)

// Set is a set of comparable items. Items keep their insertion order, which
// makes every iteration over a set deterministic.
//
// A set may be iterated over while it grows:
//
//     S.IterateOnce()
//     for S.Next() {
//         x := S.Item()
//         ...
//         S.Add(y)    // y will be visited by this loop, too
//     }
//
// Removing items during an iteration is not supported.
type Set struct {
	items  []interface{}
	index  map[interface{}]struct{}
	cursor int
}

// NewSet creates an empty set with an initial capacity.
func NewSet(capacity int) *Set {
	if capacity < 0 {
		capacity = 0
	}
	return &Set{
		items: make([]interface{}, 0, capacity),
		index: make(map[interface{}]struct{}, capacity),
	}
}

// Add adds an item, if not yet present. Returns true if the item has been new.
func (s *Set) Add(x interface{}) bool {
	if _, ok := s.index[x]; ok {
		return false
	}
	s.index[x] = struct{}{}
	s.items = append(s.items, x)
	return true
}

// Contains checks if x is a member of s.
func (s *Set) Contains(x interface{}) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[x]
	return ok
}

// Remove removes x from s. It is a no-op if x is not a member.
func (s *Set) Remove(x interface{}) {
	if !s.Contains(x) {
		return
	}
	delete(s.index, x)
	for i, y := range s.items {
		if y == x {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
}

// Size returns the number of items in s.
func (s *Set) Size() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Empty is true for the empty set.
func (s *Set) Empty() bool {
	return s.Size() == 0
}

// Values returns the items of s in insertion order. The returned slice is a copy.
func (s *Set) Values() []interface{} {
	if s == nil {
		return nil
	}
	v := make([]interface{}, len(s.items))
	copy(v, s.items)
	return v
}

// Copy creates a shallow copy of s.
func (s *Set) Copy() *Set {
	c := NewSet(s.Size())
	for _, x := range s.items {
		c.Add(x)
	}
	return c
}

// Union adds all items of other to s. Destructive!
func (s *Set) Union(other *Set) *Set {
	if other == nil {
		return s
	}
	for _, x := range other.items {
		s.Add(x)
	}
	return s
}

// Difference removes all items of other from s. Destructive!
func (s *Set) Difference(other *Set) *Set {
	if other == nil || other.Empty() {
		return s
	}
	kept := s.items[:0]
	for _, x := range s.items {
		if other.Contains(x) {
			delete(s.index, x)
			continue
		}
		kept = append(kept, x)
	}
	s.items = kept
	return s
}

// Equals is true if s and other contain the same items, regardless of order.
func (s *Set) Equals(other *Set) bool {
	if s.Size() != other.Size() {
		return false
	}
	for _, x := range s.items {
		if !other.Contains(x) {
			return false
		}
	}
	return true
}

// Each calls f for every item of s, in insertion order.
func (s *Set) Each(f func(interface{})) {
	if s == nil {
		return
	}
	for _, x := range s.items {
		f(x)
	}
}

// IterateOnce starts an iteration over s. See Next and Item.
func (s *Set) IterateOnce() {
	s.cursor = -1
}

// Next moves the iteration cursor. Returns false if no items are left.
func (s *Set) Next() bool {
	s.cursor++
	return s.cursor < len(s.items)
}

// Item returns the item under the iteration cursor.
func (s *Set) Item() interface{} {
	if s.cursor < 0 || s.cursor >= len(s.items) {
		return nil
	}
	return s.items[s.cursor]
}

func (s *Set) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, x := range s.items {
		if i > 0 {
			b.WriteString(", ")
		} else {
			b.WriteString(" ")
		}
		b.WriteString(fmt.Sprintf("%v", x))
	}
	b.WriteString(" }")
	return b.String()
}
