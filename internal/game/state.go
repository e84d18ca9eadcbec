package game

import (
	"github.com/dueltower/duel-tower-server/internal/game/counters"
	"github.com/dueltower/duel-tower-server/internal/game/rules"
	"github.com/google/uuid"
)

// GameState is the authoritative aggregate of one session. Players and
// enemies are kept in maps for lookup and in join order for iteration.
type GameState struct {
	SessionID uuid.UUID
	Version   int64
	Seed      int64

	Players     map[PlayerID]*PlayerState
	PlayerOrder []PlayerID
	Enemies     map[EnemyID]*EnemyState
	EnemyOrder  []EnemyID
	Cards       map[CardInstID]*CardInstance

	Combat *CombatState
}

// NewGameState creates an empty session state at version 0.
func NewGameState(sessionID uuid.UUID, seed int64) *GameState {
	return &GameState{
		SessionID: sessionID,
		Seed:      seed,
		Players:   make(map[PlayerID]*PlayerState),
		Enemies:   make(map[EnemyID]*EnemyState),
		Cards:     make(map[CardInstID]*CardInstance),
	}
}

// Player returns the player or nil.
func (s *GameState) Player(id PlayerID) *PlayerState { return s.Players[id] }

// Enemy returns the enemy or nil.
func (s *GameState) Enemy(id EnemyID) *EnemyState { return s.Enemies[id] }

// Card returns the card instance or nil.
func (s *GameState) Card(id CardInstID) *CardInstance { return s.Cards[id] }

// AddPlayer registers a player. An existing player with the same id is kept.
func (s *GameState) AddPlayer(ps *PlayerState) bool {
	if _, ok := s.Players[ps.ID]; ok {
		return false
	}
	s.Players[ps.ID] = ps
	s.PlayerOrder = append(s.PlayerOrder, ps.ID)
	return true
}

// AddEnemy registers an enemy. An existing enemy with the same id is kept.
func (s *GameState) AddEnemy(es *EnemyState) bool {
	if _, ok := s.Enemies[es.ID]; ok {
		return false
	}
	s.Enemies[es.ID] = es
	s.EnemyOrder = append(s.EnemyOrder, es.ID)
	return true
}

// AddCard registers a card instance in the instance table.
func (s *GameState) AddCard(ci *CardInstance) {
	s.Cards[ci.ID] = ci
}

// PlayerRefs lists every player in join order.
func (s *GameState) PlayerRefs() []TargetRef {
	refs := make([]TargetRef, 0, len(s.PlayerOrder))
	for _, id := range s.PlayerOrder {
		refs = append(refs, PlayerRef{ID: id})
	}
	return refs
}

// EnemyRefs lists every enemy in spawn order.
func (s *GameState) EnemyRefs() []TargetRef {
	refs := make([]TargetRef, 0, len(s.EnemyOrder))
	for _, id := range s.EnemyOrder {
		refs = append(refs, EnemyRef{ID: id})
	}
	return refs
}

// AllRefs lists players then enemies.
func (s *GameState) AllRefs() []TargetRef {
	return append(s.PlayerRefs(), s.EnemyRefs()...)
}

// Opponents lists the combatants on the other side of actor.
func (s *GameState) Opponents(actor TargetRef) []TargetRef {
	if actor == nil {
		return nil
	}
	if actor.IsPlayer() {
		return s.EnemyRefs()
	}
	return s.PlayerRefs()
}

// Exists reports whether ref points at a registered combatant.
func (s *GameState) Exists(ref TargetRef) bool {
	switch r := ref.(type) {
	case PlayerRef:
		return s.Players[r.ID] != nil
	case EnemyRef:
		return s.Enemies[r.ID] != nil
	}
	return false
}

// HP returns the current hp of ref and its maximum.
func (s *GameState) HP(ref TargetRef) (int, int) {
	switch r := ref.(type) {
	case PlayerRef:
		ps := s.mustPlayer(r.ID)
		return ps.HP(), ps.MaxHP()
	case EnemyRef:
		es := s.mustEnemy(r.ID)
		return es.HP(), es.MaxHP()
	}
	invariantf("unknown target ref %T", ref)
	return 0, 0
}

// SetHP stores hp on ref, clamped to its bounds.
func (s *GameState) SetHP(ref TargetRef, hp int) {
	switch r := ref.(type) {
	case PlayerRef:
		s.mustPlayer(r.ID).SetHP(hp)
	case EnemyRef:
		s.mustEnemy(r.ID).SetHP(hp)
	default:
		invariantf("unknown target ref %T", ref)
	}
}

// CombatActive reports whether a combat exists and has not ended.
func (s *GameState) CombatActive() bool {
	return s.Combat != nil && s.Combat.Phase != rules.PhaseEnd
}

// CombatEnded reports whether the current combat has reached END.
func (s *GameState) CombatEnded() bool {
	return s.Combat != nil && s.Combat.Phase == rules.PhaseEnd
}

// IsTurnOf reports whether it is currently pid's turn.
func (s *GameState) IsTurnOf(pid PlayerID) bool {
	if s.Combat == nil {
		return false
	}
	cur, ok := s.Combat.CurrentActor().(PlayerRef)
	return ok && cur.ID == pid
}

func (s *GameState) mustPlayer(id PlayerID) *PlayerState {
	ps := s.Players[id]
	if ps == nil {
		invariantf("missing player: %s", id)
	}
	return ps
}

func (s *GameState) mustEnemy(id EnemyID) *EnemyState {
	es := s.Enemies[id]
	if es == nil {
		invariantf("missing enemy: %s", id)
	}
	return es
}

func (s *GameState) mustCard(id CardInstID) *CardInstance {
	ci := s.Cards[id]
	if ci == nil {
		invariantf("card instance missing: %s", id)
	}
	return ci
}

// CombatState is the metadata of one combat. It is replaced when a new
// combat starts.
type CombatState struct {
	Round            int
	TurnOrder        []TargetRef
	CurrentTurnIndex int
	Phase            rules.Phase

	// Initiatives maps actor keys to their 1d100 roll.
	Initiatives map[string]int
	// InitiativeTieGroups lists groups of two or more players that rolled
	// the same initiative.
	InitiativeTieGroups [][]string

	playerFaction *counters.Stacks
	enemyFaction  *counters.Stacks
}

func newCombatState() *CombatState {
	return &CombatState{
		Round:         1,
		Phase:         rules.PhaseInit,
		Initiatives:   make(map[string]int),
		playerFaction: counters.NewStacks(),
		enemyFaction:  counters.NewStacks(),
	}
}

// CurrentActor returns whose turn it is, or nil when the order is empty.
func (c *CombatState) CurrentActor() TargetRef {
	if c == nil || c.CurrentTurnIndex < 0 || c.CurrentTurnIndex >= len(c.TurnOrder) {
		return nil
	}
	return c.TurnOrder[c.CurrentTurnIndex]
}

// FactionStatuses returns the shared stacks of a faction.
func (c *CombatState) FactionStatuses(f Faction) *counters.Stacks {
	if f == FactionPlayers {
		return c.playerFaction
	}
	return c.enemyFaction
}

// enterPhase moves the combat to the given phase. An illegal move means the
// turn flow itself is broken.
func (c *CombatState) enterPhase(to rules.Phase) {
	next, err := rules.Transition(c.Phase, to)
	if err != nil {
		invariantf("%v", err)
	}
	c.Phase = next
}
