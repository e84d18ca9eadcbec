package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrBadEnvelope is returned for envelopes that cannot become a command.
var ErrBadEnvelope = errors.New("bad command envelope")

// Envelope is the wire form of a command. Optional fields are pointers so
// that absence can be told apart from zero.
type Envelope struct {
	Type            string   `json:"type"`
	CommandID       string   `json:"commandId,omitempty"`
	ExpectedVersion *int64   `json:"expectedVersion,omitempty"`
	PlayerID        string   `json:"playerId"`
	Count           *int     `json:"count,omitempty"`
	DiscardIDs      []string `json:"discardIds,omitempty"`
	CardID          string   `json:"cardId,omitempty"`
	TargetPlayerIDs []string `json:"targetPlayerIds,omitempty"`
	TargetEnemyIDs  []string `json:"targetEnemyIds,omitempty"`
}

// ParseEnvelope decodes an envelope from JSON.
func ParseEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	return env, nil
}

// Marshal encodes the envelope as JSON.
func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// NormalizedType returns the upper-cased, trimmed command type.
func (e Envelope) NormalizedType() CommandType {
	return CommandType(strings.ToUpper(strings.TrimSpace(e.Type)))
}

// Command turns the envelope into a command. A missing command id gets a
// fresh one and a missing expected version defaults to currentVersion.
func (e Envelope) Command(currentVersion int64) (Command, error) {
	typ := e.NormalizedType()
	if typ == "" {
		return nil, fmt.Errorf("%w: type is required", ErrBadEnvelope)
	}
	pid := PlayerID(strings.TrimSpace(e.PlayerID))
	if pid == "" {
		return nil, fmt.Errorf("%w: playerId is required", ErrBadEnvelope)
	}

	meta := CommandMeta{ID: uuid.New(), ExpectedVersion: currentVersion}
	if raw := strings.TrimSpace(e.CommandID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid commandId uuid", ErrBadEnvelope)
		}
		meta.ID = id
	}
	if e.ExpectedVersion != nil {
		meta.ExpectedVersion = *e.ExpectedVersion
	}

	switch typ {
	case CommandStartCombat:
		return StartCombatCommand{CommandMeta: meta, GMID: pid}, nil

	case CommandDraw:
		count := 1
		if e.Count != nil {
			count = *e.Count
		}
		return DrawCommand{CommandMeta: meta, PlayerID: pid, Count: count}, nil

	case CommandEndTurn:
		return EndTurnCommand{CommandMeta: meta, PlayerID: pid}, nil

	case CommandHandSwap:
		if len(e.DiscardIDs) != 1 {
			return nil, fmt.Errorf("%w: discardIds must have exactly 1 id for HAND_SWAP", ErrBadEnvelope)
		}
		id, err := parseInstID("discardIds", e.DiscardIDs[0])
		if err != nil {
			return nil, err
		}
		return HandSwapCommand{CommandMeta: meta, PlayerID: pid, DiscardID: id}, nil

	case CommandPlayCard:
		if strings.TrimSpace(e.CardID) == "" {
			return nil, fmt.Errorf("%w: cardId is required", ErrBadEnvelope)
		}
		id, err := parseInstID("cardId", e.CardID)
		if err != nil {
			return nil, err
		}
		return PlayCardCommand{CommandMeta: meta, PlayerID: pid, CardID: id, Selection: e.selection()}, nil

	case CommandUseEX:
		return UseEXCommand{CommandMeta: meta, PlayerID: pid, Selection: e.selection()}, nil

	case CommandDiscardToHandLimit:
		ids := make([]CardInstID, 0, len(e.DiscardIDs))
		for _, raw := range e.DiscardIDs {
			id, err := parseInstID("discardIds", raw)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		return DiscardToHandLimitCommand{CommandMeta: meta, PlayerID: pid, DiscardIDs: ids}, nil
	}

	return nil, fmt.Errorf("%w: unknown command type: %s", ErrBadEnvelope, e.Type)
}

func (e Envelope) selection() TargetSelection {
	var sel TargetSelection
	for _, id := range e.TargetPlayerIDs {
		sel.Targets = append(sel.Targets, PlayerRef{ID: PlayerID(strings.TrimSpace(id))})
	}
	for _, id := range e.TargetEnemyIDs {
		sel.Targets = append(sel.Targets, EnemyRef{ID: EnemyID(strings.TrimSpace(id))})
	}
	return sel
}

func parseInstID(field, raw string) (CardInstID, error) {
	id, err := ParseCardInstID(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: invalid %s uuid: %s", ErrBadEnvelope, field, raw)
	}
	return id, nil
}

// EnvelopeOf renders cmd back into its wire form, with the command id and
// expected version filled in. Decoding the result yields an equal command.
func EnvelopeOf(cmd Command) Envelope {
	meta := cmd.Meta()
	version := meta.ExpectedVersion
	env := Envelope{
		Type:            string(cmd.Type()),
		CommandID:       meta.ID.String(),
		ExpectedVersion: &version,
	}

	switch c := cmd.(type) {
	case StartCombatCommand:
		env.PlayerID = string(c.GMID)
	case DrawCommand:
		count := c.Count
		env.PlayerID = string(c.PlayerID)
		env.Count = &count
	case EndTurnCommand:
		env.PlayerID = string(c.PlayerID)
	case HandSwapCommand:
		env.PlayerID = string(c.PlayerID)
		env.DiscardIDs = []string{string(c.DiscardID)}
	case PlayCardCommand:
		env.PlayerID = string(c.PlayerID)
		env.CardID = string(c.CardID)
		env.setSelection(c.Selection)
	case UseEXCommand:
		env.PlayerID = string(c.PlayerID)
		env.setSelection(c.Selection)
	case DiscardToHandLimitCommand:
		env.PlayerID = string(c.PlayerID)
		for _, id := range c.DiscardIDs {
			env.DiscardIDs = append(env.DiscardIDs, string(id))
		}
	}
	return env
}

func (e *Envelope) setSelection(sel TargetSelection) {
	for _, t := range sel.Targets {
		switch r := t.(type) {
		case PlayerRef:
			e.TargetPlayerIDs = append(e.TargetPlayerIDs, string(r.ID))
		case EnemyRef:
			e.TargetEnemyIDs = append(e.TargetEnemyIDs, string(r.ID))
		}
	}
}
