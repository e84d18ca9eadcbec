package session

import (
	"sync"
	"time"

	"github.com/dueltower/duel-tower-server/internal/game"
	"github.com/google/uuid"
)

const subscriberBuffer = 64

// Update is published to subscribers for every accepted command.
type Update struct {
	SessionCode string           `json:"sessionCode"`
	Version     int64            `json:"version"`
	CommandID   string           `json:"commandId"`
	CommandType game.CommandType `json:"commandType"`
	PlayerID    string           `json:"playerId"`
	Events      []game.EventView `json:"events"`
}

// ApplyResult is the outcome of one command as seen by a client.
type ApplyResult struct {
	Accepted  bool             `json:"accepted"`
	Errors    []string         `json:"errors,omitempty"`
	Events    []game.EventView `json:"events,omitempty"`
	Version   int64            `json:"version"`
	CommandID string           `json:"commandId,omitempty"`
}

// Info describes a session without exposing its state.
type Info struct {
	ID        uuid.UUID `json:"sessionId"`
	Code      string    `json:"sessionCode"`
	GMID      string    `json:"gmId"`
	Seed      int64     `json:"seed,string"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session owns one combat. Every access to state goes through mu, which
// serializes commands within the session while sessions run in parallel.
type Session struct {
	mu sync.Mutex

	id        uuid.UUID
	code      string
	gmID      game.PlayerID
	createdAt time.Time

	state  *game.GameState
	engine *game.Engine
	replay *game.Replay

	seq     int64
	faulted error

	subscribers map[int]chan Update
	nextSubID   int
}

func (s *Session) info() Info {
	return Info{
		ID:        s.id,
		Code:      s.code,
		GMID:      string(s.gmID),
		Seed:      s.state.Seed,
		Version:   s.state.Version,
		CreatedAt: s.createdAt,
	}
}

func (s *Session) subscribe() (<-chan Update, func()) {
	ch := make(chan Update, subscriberBuffer)

	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

// publish must be called with mu held. A subscriber that is not keeping up
// loses the update rather than stalling the session.
func (s *Session) publish(u Update) (dropped int) {
	for _, ch := range s.subscribers {
		select {
		case ch <- u:
		default:
			dropped++
		}
	}
	return dropped
}

// closeSubscribers must be called with mu held.
func (s *Session) closeSubscribers() {
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
}
