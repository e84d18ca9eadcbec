package game

const (
	DecisionDiscardToHandLimit = "DISCARD_TO_HAND_LIMIT"
	DecisionSearchPick         = "SEARCH_PICK"

	reasonHandLimitExceeded = "hand limit exceeded"
)

// PendingDecision is a blocking choice owed by a player. Implementations are
// DiscardToHandLimit and SearchPick.
type PendingDecision interface {
	DecisionType() string
	DecisionReason() string
	isPendingDecision()
}

// DiscardToHandLimit asks the player to discard down to Limit cards.
type DiscardToHandLimit struct {
	Reason string
	Limit  int
}

// SearchPick asks the player to pick PickCount cards from a search.
type SearchPick struct {
	Reason    string
	PickCount int
}

func (DiscardToHandLimit) DecisionType() string     { return DecisionDiscardToHandLimit }
func (d DiscardToHandLimit) DecisionReason() string { return d.Reason }
func (DiscardToHandLimit) isPendingDecision()       {}

func (SearchPick) DecisionType() string     { return DecisionSearchPick }
func (d SearchPick) DecisionReason() string { return d.Reason }
func (SearchPick) isPendingDecision()       {}
