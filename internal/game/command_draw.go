package game

import "github.com/dueltower/duel-tower-server/internal/game/rules"

// DrawCommand draws cards outside the normal turn draw. It also works
// before combat starts.
type DrawCommand struct {
	CommandMeta
	PlayerID PlayerID
	Count    int
}

func (DrawCommand) Type() CommandType { return CommandDraw }

func (c DrawCommand) Validate(s *GameState, _ *Catalog) []string {
	var errs []string
	ps := s.Player(c.PlayerID)
	if ps == nil {
		errs = append(errs, "player not found")
	}
	if s.CombatEnded() {
		errs = append(errs, "combat ended")
	}
	if c.Count <= 0 {
		errs = append(errs, "count must be positive")
	}
	if ps != nil && ps.Pending != nil {
		errs = append(errs, "pending decision exists")
	}
	return errs
}

func (c DrawCommand) Handle(s *GameState, cat *Catalog) []rules.Event {
	sink := rules.NewSink()
	ps := s.mustPlayer(c.PlayerID)

	newZoneOps(s, cat, sink).DrawWithRefill(ps, c.Count)
	ensureHandLimit(s, cat, ps, sink)
	sink.Logf("%s draws %d", ps.ID, c.Count)

	return sink.Events()
}
