package game

import (
	"sort"
	"strings"

	"github.com/dueltower/duel-tower-server/internal/game/rules"
	"github.com/dueltower/duel-tower-server/internal/game/targeting"
)

// StartCombatCommand rolls initiative, deals opening hands and brings the
// combat to its first player turn. Only a GM may issue it.
type StartCombatCommand struct {
	CommandMeta
	GMID PlayerID
}

func (StartCombatCommand) Type() CommandType { return CommandStartCombat }

func (c StartCombatCommand) Validate(s *GameState, _ *Catalog) []string {
	var errs []string
	if s.Combat != nil && !s.CombatEnded() {
		errs = append(errs, "combat already started")
	}
	if len(s.Players) == 0 {
		errs = append(errs, "no players joined")
	}
	return errs
}

func (c StartCombatCommand) Handle(s *GameState, cat *Catalog) []rules.Event {
	sink := rules.NewSink()

	// A previous combat already ran its status cleanup when it reached END.
	order := s.AllRefs()
	cs := newCombatState()

	r := deriveRand(s.Seed ^ s.Version)
	byRoll := make(map[int][]TargetRef)
	for _, ref := range order {
		roll := r.Intn(100) + 1
		cs.Initiatives[ref.Key()] = roll
		byRoll[roll] = append(byRoll[roll], ref)
	}

	rolls := make([]int, 0, len(byRoll))
	for roll := range byRoll {
		rolls = append(rolls, roll)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(rolls)))
	for _, roll := range rolls {
		var tied []string
		for _, ref := range byRoll[roll] {
			if ref.IsPlayer() {
				tied = append(tied, ref.Key())
			}
		}
		if len(tied) >= 2 {
			cs.InitiativeTieGroups = append(cs.InitiativeTieGroups, tied)
		}
	}

	// Highest roll first; players win ties against enemies; join order
	// breaks the rest.
	sort.SliceStable(order, func(i, j int) bool {
		ri, rj := cs.Initiatives[order[i].Key()], cs.Initiatives[order[j].Key()]
		if ri != rj {
			return ri > rj
		}
		return order[i].IsPlayer() && !order[j].IsPlayer()
	})
	cs.TurnOrder = order
	s.Combat = cs

	zones := newZoneOps(s, cat, sink)
	for _, pid := range s.PlayerOrder {
		ps := s.Players[pid]
		ps.SwappedThisTurn = false
		ps.EXCooldownUntilRound = 0
		ps.EXActivatable = true
		ps.CardsPlayedThisTurn = 0
		ps.UsedEXThisTurn = false

		zones.DrawWithRefill(ps, 4)
		ensureHandLimit(s, cat, ps, sink)
		sink.Logf("%s draws 4 (combat start)", pid)
	}

	newCombatFlow(s, cat, sink).openCombat()

	for _, ref := range order {
		sink.Logf("initiative %s = %d", ref.Key(), cs.Initiatives[ref.Key()])
	}
	if len(cs.InitiativeTieGroups) > 0 {
		groups := make([]string, len(cs.InitiativeTieGroups))
		for i, g := range cs.InitiativeTieGroups {
			groups[i] = targeting.FormatKeys(g)
		}
		sink.Logf("initiative tie among players: [%s]", strings.Join(groups, ", "))
	}
	sink.Logf("%s starts combat. order=%s", c.GMID, targeting.JoinKeys(actorKeys(order)))
	sink.Add(rules.TurnAdvanced{ActorKey: ActorKey(cs.CurrentActor()), Round: cs.Round})

	return sink.Events()
}
