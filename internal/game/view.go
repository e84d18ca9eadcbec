package game

import (
	"github.com/dueltower/duel-tower-server/internal/game/counters"
	"github.com/dueltower/duel-tower-server/internal/game/rules"
)

// StateView is the JSON friendly, read-only picture of a session.
type StateView struct {
	SessionCode string              `json:"sessionCode"`
	SessionID   string              `json:"sessionId"`
	Version     int64               `json:"version"`
	Seed        int64               `json:"seed,string"`
	Players     []PlayerView        `json:"players"`
	Enemies     []EnemyView         `json:"enemies"`
	Combat      *CombatView         `json:"combat,omitempty"`
	Cards       map[string]CardView `json:"cards"`
}

// PlayerView is one player's state.
type PlayerView struct {
	PlayerID            string               `json:"playerId"`
	Deck                []string             `json:"deck"`
	Hand                []string             `json:"hand"`
	Grave               []string             `json:"grave"`
	Field               []string             `json:"field"`
	Excluded            []string             `json:"excluded"`
	EXCard              string               `json:"exCard,omitempty"`
	EXOnCooldown        bool                 `json:"exOnCooldown"`
	EXActivatable       bool                 `json:"exActivatable"`
	PendingDecision     *PendingView         `json:"pendingDecision,omitempty"`
	SwappedThisTurn     bool                 `json:"swappedThisTurn"`
	CardsPlayedThisTurn int                  `json:"cardsPlayedThisTurn"`
	UsedEXThisTurn      bool                 `json:"usedExThisTurn"`
	HP                  int                  `json:"hp"`
	MaxHP               int                  `json:"maxHp"`
	AP                  int                  `json:"ap"`
	MaxAP               int                  `json:"maxAp"`
	HandLimit           int                  `json:"handLimit"`
	FieldLimit          int                  `json:"fieldLimit"`
	Statuses            []counters.StackView `json:"statuses"`
}

// PendingView describes a pending decision.
type PendingView struct {
	Type      string `json:"type"`
	Reason    string `json:"reason"`
	Limit     *int   `json:"limit,omitempty"`
	PickCount *int   `json:"pickCount,omitempty"`
}

// EnemyView is one enemy's state.
type EnemyView struct {
	EnemyID  string               `json:"enemyId"`
	HP       int                  `json:"hp"`
	MaxHP    int                  `json:"maxHp"`
	Statuses []counters.StackView `json:"statuses"`
}

// CombatView is the combat metadata.
type CombatView struct {
	Round               int                             `json:"round"`
	Phase               string                          `json:"phase"`
	TurnOrder           []string                        `json:"turnOrder"`
	CurrentTurnIndex    int                             `json:"currentTurnIndex"`
	CurrentActor        string                          `json:"currentActor"`
	Initiatives         map[string]int                  `json:"initiatives"`
	InitiativeTieGroups [][]string                      `json:"initiativeTieGroups"`
	FactionStatuses     map[string][]counters.StackView `json:"factionStatuses"`
}

// CardView is one card instance.
type CardView struct {
	InstanceID string               `json:"instanceId"`
	DefID      string               `json:"defId"`
	OwnerID    string               `json:"ownerId"`
	Zone       string               `json:"zone"`
	Statuses   []counters.StackView `json:"statuses"`
}

// EventView is an event tagged with its type, for transports.
type EventView struct {
	Type    rules.EventType `json:"type"`
	Payload rules.Event     `json:"payload"`
}

// NewStateView renders s.
func NewStateView(code string, s *GameState) StateView {
	round := 0
	if s.Combat != nil {
		round = s.Combat.Round
	}

	v := StateView{
		SessionCode: code,
		SessionID:   s.SessionID.String(),
		Version:     s.Version,
		Seed:        s.Seed,
		Players:     make([]PlayerView, 0, len(s.PlayerOrder)),
		Enemies:     make([]EnemyView, 0, len(s.EnemyOrder)),
		Cards:       make(map[string]CardView, len(s.Cards)),
	}
	for _, pid := range s.PlayerOrder {
		v.Players = append(v.Players, newPlayerView(s.Players[pid], round))
	}
	for _, eid := range s.EnemyOrder {
		es := s.Enemies[eid]
		v.Enemies = append(v.Enemies, EnemyView{
			EnemyID:  string(es.ID),
			HP:       es.HP(),
			MaxHP:    es.MaxHP(),
			Statuses: es.Statuses.ToView(),
		})
	}
	for id, ci := range s.Cards {
		v.Cards[string(id)] = CardView{
			InstanceID: string(ci.ID),
			DefID:      string(ci.DefID),
			OwnerID:    string(ci.Owner),
			Zone:       string(ci.Zone),
			Statuses:   ci.Statuses.ToView(),
		}
	}
	if cs := s.Combat; cs != nil {
		initiatives := make(map[string]int, len(cs.Initiatives))
		for k, roll := range cs.Initiatives {
			initiatives[k] = roll
		}
		ties := make([][]string, len(cs.InitiativeTieGroups))
		for i, g := range cs.InitiativeTieGroups {
			ties[i] = append([]string(nil), g...)
		}
		v.Combat = &CombatView{
			Round:               cs.Round,
			Phase:               string(cs.Phase),
			TurnOrder:           actorKeys(cs.TurnOrder),
			CurrentTurnIndex:    cs.CurrentTurnIndex,
			CurrentActor:        ActorKey(cs.CurrentActor()),
			Initiatives:         initiatives,
			InitiativeTieGroups: ties,
			FactionStatuses: map[string][]counters.StackView{
				string(FactionPlayers): cs.FactionStatuses(FactionPlayers).ToView(),
				string(FactionEnemies): cs.FactionStatuses(FactionEnemies).ToView(),
			},
		}
	}
	return v
}

func newPlayerView(ps *PlayerState, round int) PlayerView {
	v := PlayerView{
		PlayerID:            string(ps.ID),
		Deck:                idStrings(ps.Deck),
		Hand:                idStrings(ps.Hand),
		Grave:               idStrings(ps.Grave),
		Field:               idStrings(ps.Field),
		Excluded:            idStrings(ps.Excluded),
		EXCard:              string(ps.EXCard),
		EXOnCooldown:        ps.EXOnCooldown(round),
		EXActivatable:       ps.EXActivatable,
		SwappedThisTurn:     ps.SwappedThisTurn,
		CardsPlayedThisTurn: ps.CardsPlayedThisTurn,
		UsedEXThisTurn:      ps.UsedEXThisTurn,
		HP:                  ps.HP(),
		MaxHP:               ps.MaxHP(),
		AP:                  ps.AP(),
		MaxAP:               ps.MaxAP(),
		HandLimit:           ps.HandLimit(),
		FieldLimit:          ps.FieldLimit(),
		Statuses:            ps.Statuses.ToView(),
	}
	switch d := ps.Pending.(type) {
	case DiscardToHandLimit:
		limit := d.Limit
		v.PendingDecision = &PendingView{Type: d.DecisionType(), Reason: d.Reason, Limit: &limit}
	case SearchPick:
		pick := d.PickCount
		v.PendingDecision = &PendingView{Type: d.DecisionType(), Reason: d.Reason, PickCount: &pick}
	}
	return v
}

// NewEventViews tags each event with its type.
func NewEventViews(events []rules.Event) []EventView {
	out := make([]EventView, len(events))
	for i, e := range events {
		out[i] = EventView{Type: e.Type(), Payload: e}
	}
	return out
}

func idStrings(ids []CardInstID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
