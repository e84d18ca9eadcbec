package game

import (
	"strconv"

	"github.com/google/uuid"
)

// PlayerID identifies a human participant of a session.
type PlayerID string

// EnemyID identifies an enemy unit spawned into a session.
type EnemyID string

// CardDefID identifies a card definition in the catalog.
type CardDefID string

// CardInstID identifies one physical copy of a card inside a session.
type CardInstID string

// NewCardInstID derives a stable instance id from the session, the owner and
// the ordinal of the card within the owner's starting cards.
func NewCardInstID(session uuid.UUID, owner PlayerID, ordinal int) CardInstID {
	name := string(owner) + "|" + strconv.Itoa(ordinal)
	return CardInstID(uuid.NewSHA1(session, []byte(name)).String())
}

// ParseCardInstID validates the textual form of an instance id.
func ParseCardInstID(raw string) (CardInstID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", err
	}
	return CardInstID(id.String()), nil
}
