package game

import "github.com/dueltower/duel-tower-server/internal/game/rules"

// combatFlow drives turn and round progression for one command.
type combatFlow struct {
	state   *GameState
	catalog *Catalog
	sink    *rules.Sink
}

func newCombatFlow(s *GameState, cat *Catalog, sink *rules.Sink) combatFlow {
	return combatFlow{state: s, catalog: cat, sink: sink}
}

func (f combatFlow) combat() *CombatState {
	if f.state.Combat == nil {
		invariantf("combat not started")
	}
	return f.state.Combat
}

func (f combatFlow) zones() ZoneOps {
	return newZoneOps(f.state, f.catalog, f.sink)
}

// turnStart runs the start of actor's turn. Players also reset their turn
// flags and draw 2 cards with fewer than 4 in hand, else 1.
func (f combatFlow) turnStart(actor TargetRef) {
	f.combat().enterPhase(rules.PhaseTurnStart)
	newStatusRuntime(f.state, f.catalog, f.sink, sourceTurnStart).runTurnHooks(actor, true)

	p, ok := actor.(PlayerRef)
	if !ok {
		return
	}
	ps := f.state.mustPlayer(p.ID)
	ps.resetTurnFlags()

	draw := 1
	if len(ps.Hand) < 4 {
		draw = 2
	}
	f.zones().DrawWithRefill(ps, draw)
	ensureHandLimit(f.state, f.catalog, ps, f.sink)
	f.sink.Logf("%s draws %d (turn start)", ps.ID, draw)
}

// turnEnd runs the end of actor's turn. Players get their AP refilled.
func (f combatFlow) turnEnd(actor TargetRef) {
	f.combat().enterPhase(rules.PhaseTurnEnd)
	newStatusRuntime(f.state, f.catalog, f.sink, sourceTurnEnd).runTurnHooks(actor, false)

	if p, ok := actor.(PlayerRef); ok {
		ps := f.state.mustPlayer(p.ID)
		ps.SetAP(ps.MaxAP())
	}
}

// advance moves to the next actor. Wrapping past the end of the order
// starts a new round and expires EX cooldowns that ended before it.
func (f combatFlow) advance() {
	cs := f.combat()
	next := cs.CurrentTurnIndex + 1
	if next >= len(cs.TurnOrder) {
		next = 0
		cs.enterPhase(rules.PhaseRoundEnd)
		cs.Round++
		for _, pid := range f.state.PlayerOrder {
			ps := f.state.Players[pid]
			if ps.EXCooldownUntilRound > 0 && cs.Round > ps.EXCooldownUntilRound {
				ps.EXCooldownUntilRound = 0
			}
		}
		cs.enterPhase(rules.PhaseRoundStart)
	}
	cs.CurrentTurnIndex = next
}

// skipEnemies auto-plays enemy turns until a player is up. Enemies have no
// AI, so their turns only tick statuses. The loop is bounded in case the
// order holds no player.
func (f combatFlow) skipEnemies(label string) {
	cs := f.combat()
	guard := max(1, len(cs.TurnOrder)) * 2
	for ; guard > 0; guard-- {
		enemy, ok := cs.CurrentActor().(EnemyRef)
		if !ok {
			return
		}
		f.sink.Logf("%s %s (auto-skip: enemy AI not implemented)", enemy.Key(), label)
		f.turnStart(enemy)
		f.turnEnd(enemy)
		f.advance()
	}
}

// beginActorTurn starts the current actor's turn and opens its main phase.
func (f combatFlow) beginActorTurn() {
	cs := f.combat()
	actor := cs.CurrentActor()
	if actor == nil {
		invariantf("empty turn order")
	}
	f.turnStart(actor)
	cs.enterPhase(rules.PhaseMain)
}

// openCombat brings a freshly ordered combat to its first player turn.
func (f combatFlow) openCombat() {
	f.combat().enterPhase(rules.PhaseRoundStart)
	f.skipEnemies("opens combat")
	f.beginActorTurn()
}

// endTurn ends the current actor's turn and starts the next player's.
func (f combatFlow) endTurn() {
	cs := f.combat()
	current := cs.CurrentActor()
	f.sink.Logf("%s ends turn", ActorKey(current))
	f.turnEnd(current)
	f.advance()
	f.skipEnemies("turn")
	f.beginActorTurn()
}

// Outcome is the result of a victory check.
type Outcome string

const (
	OutcomeNone        Outcome = "NONE"
	OutcomePlayersWin  Outcome = "PLAYERS_WIN"
	OutcomePlayersLose Outcome = "PLAYERS_LOSE"
)

// CheckOutcome decides the combat outcome from current hp alone.
func CheckOutcome(s *GameState) Outcome {
	anyPlayer := false
	for _, ps := range s.Players {
		if ps.HP() > 0 {
			anyPlayer = true
			break
		}
	}
	if !anyPlayer {
		return OutcomePlayersLose
	}
	for _, es := range s.Enemies {
		if es.HP() > 0 {
			return OutcomeNone
		}
	}
	return OutcomePlayersWin
}

// checkVictory ends the combat once a side has no living member. It is a
// no-op outside combat and once the combat has ended.
func (f combatFlow) checkVictory() Outcome {
	cs := f.state.Combat
	if cs == nil || cs.Phase == rules.PhaseEnd {
		return OutcomeNone
	}

	prev := cs.Phase
	cs.enterPhase(rules.PhaseCheckVictory)
	outcome := CheckOutcome(f.state)
	if outcome == OutcomeNone {
		cs.enterPhase(prev)
		return outcome
	}

	cs.enterPhase(rules.PhaseEnd)
	for _, pid := range f.state.PlayerOrder {
		ps := f.state.Players[pid]
		if ps.Pending == nil {
			continue
		}
		f.sink.Add(rules.PendingDecisionCleared{PlayerID: string(pid), DecisionType: ps.Pending.DecisionType()})
		ps.Pending = nil
	}
	f.sink.Logf("combat ends: %s", outcome)
	newStatusRuntime(f.state, f.catalog, f.sink, sourceCombatEnd).combatEndCleanup()
	return outcome
}
