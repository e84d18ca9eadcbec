// Package counters stores status stacks: named, non-negative magnitudes kept
// on a combatant, a faction or a card instance.
package counters

// Stacks is an insertion-ordered collection of status stacks.
// A stack that drops to 0 is removed, so absence and 0 are the same thing.
// The zero value is ready to use.
type Stacks struct {
	order  []string
	values map[string]int
}

// NewStacks creates an empty collection.
func NewStacks() *Stacks {
	return &Stacks{values: make(map[string]int)}
}

// Get returns the stacks stored under id, or 0.
func (s *Stacks) Get(id string) int {
	if s == nil || s.values == nil {
		return 0
	}
	return s.values[id]
}

// Has reports whether id holds a non-zero value.
func (s *Stacks) Has(id string) bool {
	return s.Get(id) != 0
}

// Set stores value under id. Values at or below 0 remove the entry.
func (s *Stacks) Set(id string, value int) {
	if value <= 0 {
		s.remove(id)
		return
	}
	if s.values == nil {
		s.values = make(map[string]int)
	}
	if _, ok := s.values[id]; !ok {
		s.order = append(s.order, id)
	}
	s.values[id] = value
}

// Add adds delta to the value stored under id.
func (s *Stacks) Add(id string, delta int) {
	if delta == 0 {
		return
	}
	s.Set(id, s.Get(id)+delta)
}

// Remove reduces id by amount, never going below 0.
// Returns true if anything was removed.
func (s *Stacks) Remove(id string, amount int) bool {
	if amount <= 0 {
		return false
	}
	cur := s.Get(id)
	if cur <= 0 {
		return false
	}
	if cur > amount {
		s.Set(id, cur-amount)
	} else {
		s.Set(id, 0)
	}
	return true
}

func (s *Stacks) remove(id string) {
	if s == nil || s.values == nil {
		return
	}
	if _, ok := s.values[id]; !ok {
		return
	}
	delete(s.values, id)
	for i, k := range s.order {
		if k == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Keys returns a snapshot of the ids in insertion order. Callers may mutate
// the collection while iterating over the returned slice.
func (s *Stacks) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, len(s.order))
	copy(keys, s.order)
	return keys
}

// Len returns the number of non-zero entries.
func (s *Stacks) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// RemoveIf drops every entry for which drop returns true.
func (s *Stacks) RemoveIf(drop func(id string) bool) {
	for _, id := range s.Keys() {
		if drop(id) {
			s.remove(id)
		}
	}
}

// Copy creates a deep copy of the collection.
func (s *Stacks) Copy() *Stacks {
	cp := NewStacks()
	if s == nil {
		return cp
	}
	for _, id := range s.order {
		cp.Set(id, s.values[id])
	}
	return cp
}

// ToView converts the stacks to the view format, in insertion order.
func (s *Stacks) ToView() []StackView {
	if s == nil {
		return nil
	}
	views := make([]StackView, 0, len(s.order))
	for _, id := range s.order {
		views = append(views, StackView{ID: id, Stacks: s.values[id]})
	}
	return views
}

// StackView represents a status stack in the view format.
type StackView struct {
	ID     string `json:"id"`
	Stacks int    `json:"stacks"`
}
