package game

import "sort"

// CardDefinition is the static description of a card.
type CardDefinition struct {
	ID   CardDefID
	Name string
	Type CardType
	Cost int
	// Keywords maps keyword ids to their parameter. 0 or absent is inactive.
	Keywords  map[string]int
	ResolveTo Zone
	Token     bool
	Text      string
}

// Keyword returns the parameter of a keyword, 0 when absent.
func (d CardDefinition) Keyword(id string) int {
	return d.Keywords[id]
}

// ActiveKeywords returns the ids of keywords with a non-zero parameter,
// sorted so that hook order does not depend on map iteration.
func (d CardDefinition) ActiveKeywords() []string {
	ids := make([]string, 0, len(d.Keywords))
	for id, v := range d.Keywords {
		if v != 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Destination is where the card goes after being played.
func (d CardDefinition) Destination() Zone {
	if d.ResolveTo == "" {
		return ZoneGrave
	}
	return d.ResolveTo
}

// StatusKind is informational only.
type StatusKind string

const (
	StatusBuff    StatusKind = "BUFF"
	StatusDebuff  StatusKind = "DEBUFF"
	StatusNeutral StatusKind = "NEUTRAL"
)

// StatusScope says where a status is stored when applied.
type StatusScope string

const (
	ScopeCharacter StatusScope = "CHARACTER"
	ScopeFaction   StatusScope = "FACTION"
	ScopeCard      StatusScope = "CARD"
)

// StatusDefinition is the static description of a status.
type StatusDefinition struct {
	ID    string
	Name  string
	Kind  StatusKind
	Scope StatusScope
	// Priority orders damage and cost hooks; lower runs first.
	Priority            int
	PersistsAfterCombat bool
	// TargetRule marks statuses that constrain every enemy-one selection
	// made against their holder's side (taunt).
	TargetRule bool
	// IgnoresTargetRules marks statuses whose holder skips TargetRule
	// validation (confusion). Resolution still applies TargetRule statuses
	// when the final pick opposes the holder.
	IgnoresTargetRules bool
	Text               string
}

// KeywordDefinition is the static description of a keyword.
type KeywordDefinition struct {
	ID            string
	Name          string
	Parameterized bool
	Description   string
}
