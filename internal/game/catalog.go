package game

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

// CardEffect is the behaviour bound to one card definition.
type CardEffect interface {
	// Validate returns user facing errors. It must not mutate state.
	Validate(ec *EffectContext) []string
	// Resolve applies the card. It runs only after Validate succeeded.
	Resolve(ec *EffectContext)
}

// StatusEffect is the behaviour bound to one status definition. Embed
// NoopStatusEffect to implement only the hooks a status needs.
type StatusEffect interface {
	OnIncomingDamage(rt *StatusRuntime, owner StatusOwner, source, target TargetRef, amount int) int
	OnOutgoingDamage(rt *StatusRuntime, owner StatusOwner, source, target TargetRef, amount int) int
	OnCost(rt *StatusRuntime, actor TargetRef, card *CardInstance, def CardDefinition, cost int) int
	ValidatePlayCard(rt *StatusRuntime, actor TargetRef, card *CardInstance, def CardDefinition) []string
	OnAfterPlayCard(rt *StatusRuntime, actor TargetRef, card *CardInstance, def CardDefinition)
	ValidateUseEX(rt *StatusRuntime, actor TargetRef, card *CardInstance, def CardDefinition) []string
	OnAfterUseEX(rt *StatusRuntime, actor TargetRef, card *CardInstance, def CardDefinition)
	// ValidateEnemyOneTarget runs while validating; it must not mutate.
	ValidateEnemyOneTarget(rt *StatusRuntime, actor TargetRef, cardID CardInstID, chosen TargetRef, candidates []TargetRef) []string
	// OnResolveEnemyOneTarget may redirect the target and consume stacks.
	OnResolveEnemyOneTarget(rt *StatusRuntime, actor TargetRef, cardID CardInstID, chosen TargetRef, candidates []TargetRef) TargetRef
	OnTurnStart(rt *StatusRuntime, owner TargetRef, stacks int)
	OnTurnEnd(rt *StatusRuntime, owner TargetRef, stacks int)
}

// NoopStatusEffect implements every StatusEffect hook as a no-op.
type NoopStatusEffect struct{}

func (NoopStatusEffect) OnIncomingDamage(_ *StatusRuntime, _ StatusOwner, _, _ TargetRef, amount int) int {
	return amount
}

func (NoopStatusEffect) OnOutgoingDamage(_ *StatusRuntime, _ StatusOwner, _, _ TargetRef, amount int) int {
	return amount
}

func (NoopStatusEffect) OnCost(_ *StatusRuntime, _ TargetRef, _ *CardInstance, _ CardDefinition, cost int) int {
	return cost
}

func (NoopStatusEffect) ValidatePlayCard(*StatusRuntime, TargetRef, *CardInstance, CardDefinition) []string {
	return nil
}

func (NoopStatusEffect) OnAfterPlayCard(*StatusRuntime, TargetRef, *CardInstance, CardDefinition) {}

func (NoopStatusEffect) ValidateUseEX(*StatusRuntime, TargetRef, *CardInstance, CardDefinition) []string {
	return nil
}

func (NoopStatusEffect) OnAfterUseEX(*StatusRuntime, TargetRef, *CardInstance, CardDefinition) {}

func (NoopStatusEffect) ValidateEnemyOneTarget(*StatusRuntime, TargetRef, CardInstID, TargetRef, []TargetRef) []string {
	return nil
}

func (NoopStatusEffect) OnResolveEnemyOneTarget(_ *StatusRuntime, _ TargetRef, _ CardInstID, chosen TargetRef, _ []TargetRef) TargetRef {
	return chosen
}

func (NoopStatusEffect) OnTurnStart(*StatusRuntime, TargetRef, int) {}

func (NoopStatusEffect) OnTurnEnd(*StatusRuntime, TargetRef, int) {}

// KeywordEffect is the behaviour bound to one keyword. Embed
// NoopKeywordEffect to implement only the hooks a keyword needs.
type KeywordEffect interface {
	BlocksDiscard(rt KeywordRuntime, c DiscardCtx) bool
	// ValidateDiscard returns specific errors. When it returns none but
	// BlocksDiscard is true a generic error is reported.
	ValidateDiscard(rt KeywordRuntime, c DiscardCtx) []string
	OverrideMoveDestination(rt KeywordRuntime, c MoveCtx, current Zone) Zone
	OverrideEXActivatable(rt KeywordRuntime, c EXActivationCtx, current bool) bool
}

// NoopKeywordEffect implements every KeywordEffect hook as a no-op.
type NoopKeywordEffect struct{}

func (NoopKeywordEffect) BlocksDiscard(KeywordRuntime, DiscardCtx) bool { return false }

func (NoopKeywordEffect) ValidateDiscard(KeywordRuntime, DiscardCtx) []string { return nil }

func (NoopKeywordEffect) OverrideMoveDestination(_ KeywordRuntime, _ MoveCtx, current Zone) Zone {
	return current
}

func (NoopKeywordEffect) OverrideEXActivatable(_ KeywordRuntime, _ EXActivationCtx, current bool) bool {
	return current
}

// CardBlueprint pairs a card definition with its effect.
type CardBlueprint struct {
	Definition CardDefinition
	Effect     CardEffect
}

// StatusBlueprint pairs a status definition with its effect.
type StatusBlueprint struct {
	Definition StatusDefinition
	Effect     StatusEffect
}

// KeywordBlueprint pairs a keyword definition with its effect.
type KeywordBlueprint struct {
	Definition KeywordDefinition
	Effect     KeywordEffect
}

// Catalog is the frozen, process wide table of definitions and effects.
// It is safe for concurrent use because nothing mutates it after build.
type Catalog struct {
	cards    map[CardDefID]CardBlueprint
	statuses map[string]StatusBlueprint
	keywords map[string]KeywordBlueprint

	targetRules []string
}

// BuildCatalog validates blueprints and freezes them into a Catalog. Every
// problem found is reported, not only the first.
func BuildCatalog(cards []CardBlueprint, statuses []StatusBlueprint, keywords []KeywordBlueprint) (*Catalog, error) {
	c := &Catalog{
		cards:    make(map[CardDefID]CardBlueprint, len(cards)),
		statuses: make(map[string]StatusBlueprint, len(statuses)),
		keywords: make(map[string]KeywordBlueprint, len(keywords)),
	}
	var err error

	for _, bp := range statuses {
		id := bp.Definition.ID
		switch {
		case strings.TrimSpace(id) == "":
			err = multierr.Append(err, fmt.Errorf("status with empty id"))
			continue
		case bp.Effect == nil:
			err = multierr.Append(err, fmt.Errorf("status %s: missing effect", id))
		}
		if _, dup := c.statuses[id]; dup {
			err = multierr.Append(err, fmt.Errorf("duplicate status id: %s", id))
			continue
		}
		switch bp.Definition.Scope {
		case ScopeCharacter, ScopeFaction, ScopeCard:
		default:
			err = multierr.Append(err, fmt.Errorf("status %s: unknown scope %q", id, bp.Definition.Scope))
		}
		c.statuses[id] = bp
	}

	for _, bp := range keywords {
		id := bp.Definition.ID
		switch {
		case strings.TrimSpace(id) == "":
			err = multierr.Append(err, fmt.Errorf("keyword with empty id"))
			continue
		case bp.Effect == nil:
			err = multierr.Append(err, fmt.Errorf("keyword %s: missing effect", id))
		}
		if _, dup := c.keywords[id]; dup {
			err = multierr.Append(err, fmt.Errorf("duplicate keyword id: %s", id))
			continue
		}
		c.keywords[id] = bp
	}

	for _, bp := range cards {
		def := bp.Definition
		if strings.TrimSpace(string(def.ID)) == "" {
			err = multierr.Append(err, fmt.Errorf("card with empty id"))
			continue
		}
		if bp.Effect == nil {
			err = multierr.Append(err, fmt.Errorf("card %s: missing effect", def.ID))
		}
		if _, dup := c.cards[def.ID]; dup {
			err = multierr.Append(err, fmt.Errorf("duplicate card id: %s", def.ID))
			continue
		}
		if def.Cost < 0 {
			err = multierr.Append(err, fmt.Errorf("card %s: negative cost %d", def.ID, def.Cost))
		}
		for kw := range def.Keywords {
			if strings.TrimSpace(kw) == "" || strings.TrimSpace(kw) != kw {
				err = multierr.Append(err, fmt.Errorf("card %s: malformed keyword %q", def.ID, kw))
			}
		}
		c.cards[def.ID] = bp
	}

	if err != nil {
		return nil, err
	}

	for id, bp := range c.statuses {
		if bp.Definition.TargetRule {
			c.targetRules = append(c.targetRules, id)
		}
	}
	sort.Slice(c.targetRules, func(i, j int) bool {
		pi, pj := c.Priority(c.targetRules[i]), c.Priority(c.targetRules[j])
		if pi != pj {
			return pi < pj
		}
		return c.targetRules[i] < c.targetRules[j]
	})

	return c, nil
}

// Definition returns a card definition. A missing definition is a catalog
// integrity bug and raises an invariant violation.
func (c *Catalog) Definition(id CardDefID) CardDefinition {
	bp, ok := c.cards[id]
	if !ok {
		invariantf("missing card definition: %s", id)
	}
	return bp.Definition
}

// LookupCard returns a card blueprint if present.
func (c *Catalog) LookupCard(id CardDefID) (CardBlueprint, bool) {
	bp, ok := c.cards[id]
	return bp, ok
}

// CardEffect returns the effect bound to a card definition.
func (c *Catalog) CardEffect(id CardDefID) CardEffect {
	bp, ok := c.cards[id]
	if !ok {
		invariantf("missing card effect: %s", id)
	}
	return bp.Effect
}

// StatusDefinition returns a status definition if present.
func (c *Catalog) StatusDefinition(id string) (StatusDefinition, bool) {
	bp, ok := c.statuses[id]
	return bp.Definition, ok
}

// StatusEffect returns a status effect if present.
func (c *Catalog) StatusEffect(id string) (StatusEffect, bool) {
	bp, ok := c.statuses[id]
	if !ok || bp.Effect == nil {
		return nil, false
	}
	return bp.Effect, true
}

// Priority returns the hook priority of a status. Unknown statuses sort last.
func (c *Catalog) Priority(id string) int {
	if bp, ok := c.statuses[id]; ok {
		return bp.Definition.Priority
	}
	return math.MaxInt
}

// KeywordEffect returns a keyword effect if present. Unknown keywords are
// inert.
func (c *Catalog) KeywordEffect(id string) (KeywordEffect, bool) {
	bp, ok := c.keywords[id]
	if !ok || bp.Effect == nil {
		return nil, false
	}
	return bp.Effect, true
}

// TargetRules lists statuses that constrain enemy-one selections, by priority.
func (c *Catalog) TargetRules() []string {
	return c.targetRules
}

// CardIDs lists every card id, sorted.
func (c *Catalog) CardIDs() []CardDefID {
	ids := make([]CardDefID, 0, len(c.cards))
	for id := range c.cards {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// StatusIDs lists every status id, sorted.
func (c *Catalog) StatusIDs() []string {
	ids := make([]string, 0, len(c.statuses))
	for id := range c.statuses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// KeywordIDs lists every keyword id, sorted.
func (c *Catalog) KeywordIDs() []string {
	ids := make([]string, 0, len(c.keywords))
	for id := range c.keywords {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
