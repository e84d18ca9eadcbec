package game

import "github.com/google/uuid"

// DefaultDedupeCapacity is how many recent command ids a session remembers.
const DefaultDedupeCapacity = 10000

// seenCommands is a bounded set of command ids. Once full, the oldest id
// is forgotten first.
type seenCommands struct {
	ring  []uuid.UUID
	index map[uuid.UUID]struct{}
	next  int
	size  int
}

func newSeenCommands(capacity int) *seenCommands {
	if capacity <= 0 {
		capacity = DefaultDedupeCapacity
	}
	return &seenCommands{
		ring:  make([]uuid.UUID, capacity),
		index: make(map[uuid.UUID]struct{}, capacity),
	}
}

func (c *seenCommands) Contains(id uuid.UUID) bool {
	_, ok := c.index[id]
	return ok
}

// Add records id, evicting the oldest entry when full.
func (c *seenCommands) Add(id uuid.UUID) {
	if c.Contains(id) {
		return
	}
	if c.size == len(c.ring) {
		delete(c.index, c.ring[c.next])
	} else {
		c.size++
	}
	c.ring[c.next] = id
	c.index[id] = struct{}{}
	c.next = (c.next + 1) % len(c.ring)
}

func (c *seenCommands) Len() int { return c.size }
