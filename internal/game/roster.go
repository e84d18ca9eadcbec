package game

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidRoster is returned for malformed join or spawn requests.
	ErrInvalidRoster = errors.New("invalid roster change")
	// ErrRosterLocked is returned when the roster changes during combat.
	ErrRosterLocked = errors.New("combat already started")
)

// Stats are the four life stats every derived combat stat comes from.
type Stats struct {
	Body  int `json:"body"`
	Skill int `json:"skill"`
	Sense int `json:"sense"`
	Will  int `json:"will"`
}

// Loadout is what a player brings into a session.
type Loadout struct {
	Deck  []CardDefID
	EX    CardDefID
	Stats Stats
}

// JoinPlayer adds a player with the given loadout. Card instance ids are
// derived from the session, the player and the card's position in the
// loadout, and the deck is shuffled once with a seed derived from the
// player id, so the same join always produces the same deck.
//
// Joining again with the same id returns the existing player unchanged.
func JoinPlayer(s *GameState, cat *Catalog, pid PlayerID, lo Loadout) (*PlayerState, error) {
	pid = PlayerID(strings.TrimSpace(string(pid)))
	if pid == "" {
		return nil, fmt.Errorf("%w: player id is required", ErrInvalidRoster)
	}
	if ps := s.Player(pid); ps != nil {
		return ps, nil
	}
	if s.CombatActive() {
		return nil, ErrRosterLocked
	}

	for _, def := range lo.Deck {
		if _, ok := cat.LookupCard(def); !ok {
			return nil, fmt.Errorf("%w: unknown card %s", ErrInvalidRoster, def)
		}
	}
	if lo.EX != "" {
		bp, ok := cat.LookupCard(lo.EX)
		if !ok {
			return nil, fmt.Errorf("%w: unknown card %s", ErrInvalidRoster, lo.EX)
		}
		if bp.Definition.Type != CardTypeEX {
			return nil, fmt.Errorf("%w: %s is not an EX card", ErrInvalidRoster, lo.EX)
		}
	}

	ps := NewPlayerState(pid)
	ps.SetStats(lo.Stats.Body, lo.Stats.Skill, lo.Stats.Sense, lo.Stats.Will)
	ps.RefillToMax()

	for i, def := range lo.Deck {
		ci := newCardInstance(NewCardInstID(s.SessionID, pid, i), def, pid, ZoneDeck)
		s.AddCard(ci)
		ps.Deck = append(ps.Deck, ci.ID)
	}
	if lo.EX != "" {
		ci := newCardInstance(NewCardInstID(s.SessionID, pid, len(lo.Deck)), lo.EX, pid, ZoneEX)
		s.AddCard(ci)
		ps.EXCard = ci.ID
	}

	shuffleIDs(deriveRand(ShuffleSeed(s.Seed, pid)), ps.Deck)
	s.AddPlayer(ps)
	return ps, nil
}

// SpawnEnemy adds an enemy before combat. Spawning an existing id returns
// the existing enemy unchanged.
func SpawnEnemy(s *GameState, eid EnemyID, maxHP int) (*EnemyState, error) {
	eid = EnemyID(strings.TrimSpace(string(eid)))
	if eid == "" {
		return nil, fmt.Errorf("%w: enemy id is required", ErrInvalidRoster)
	}
	if es := s.Enemy(eid); es != nil {
		return es, nil
	}
	if s.CombatActive() {
		return nil, ErrRosterLocked
	}
	if maxHP <= 0 {
		return nil, fmt.Errorf("%w: max hp must be positive", ErrInvalidRoster)
	}
	es := NewEnemyState(eid, maxHP)
	s.AddEnemy(es)
	return es, nil
}
