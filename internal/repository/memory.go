package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type memorySession struct {
	rec     SessionRecord
	entries []Entry
}

// MemoryJournal keeps journals in process memory. It is the default for
// development and tests.
type MemoryJournal struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*memorySession
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{sessions: make(map[uuid.UUID]*memorySession)}
}

func (m *MemoryJournal) CreateSession(ctx context.Context, rec SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[rec.ID]; ok {
		return fmt.Errorf("session %s already journaled", rec.ID)
	}
	m.sessions[rec.ID] = &memorySession{rec: rec}
	return nil
}

func (m *MemoryJournal) Append(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[entry.SessionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, entry.SessionID)
	}
	if want := int64(len(sess.entries)) + 1; entry.Seq != want {
		return fmt.Errorf("%w: got seq %d, want %d", ErrSequenceConflict, entry.Seq, want)
	}
	entry.Payload = append([]byte(nil), entry.Payload...)
	sess.entries = append(sess.entries, entry)
	return nil
}

func (m *MemoryJournal) Load(ctx context.Context, sessionID uuid.UUID) (SessionRecord, []Entry, error) {
	if err := ctx.Err(); err != nil {
		return SessionRecord{}, nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return SessionRecord{}, nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	return sess.rec, append([]Entry(nil), sess.entries...), nil
}

func (m *MemoryJournal) Close() error { return nil }
