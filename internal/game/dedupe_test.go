package game

import (
	"testing"

	"github.com/google/uuid"
)

func TestSeenCommandsEvictsOldest(t *testing.T) {
	seen := newSeenCommands(2)
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	seen.Add(a)
	seen.Add(b)
	seen.Add(a)
	if seen.Len() != 2 {
		t.Fatalf("expected 2 ids, got %d", seen.Len())
	}

	seen.Add(c)
	if seen.Contains(a) {
		t.Error("oldest id should be evicted")
	}
	if !seen.Contains(b) || !seen.Contains(c) {
		t.Error("recent ids should be kept")
	}
}

func TestSeenCommandsDefaultCapacity(t *testing.T) {
	seen := newSeenCommands(0)
	if len(seen.ring) != DefaultDedupeCapacity {
		t.Fatalf("expected capacity %d, got %d", DefaultDedupeCapacity, len(seen.ring))
	}
}
