package game

import (
	"github.com/dueltower/duel-tower-server/internal/game/rules"
	"go.uber.org/zap"
)

const (
	errDuplicateCommand = "duplicate command"
	errVersionMismatch  = "version mismatch"
)

// Result is the outcome of processing one command. A rejected command has
// errors, no events and leaves State untouched.
type Result struct {
	Accepted bool
	Errors   []string
	Events   []rules.Event
	State    *GameState
}

// Engine processes commands for one session. It remembers recently seen
// command ids, so it must be used by one session only and, like the state,
// is not safe for concurrent use.
type Engine struct {
	catalog *Catalog
	logger  *zap.Logger
	seen    *seenCommands
	bus     *rules.EventBus
}

// NewEngine creates an engine over a frozen catalog. dedupeCapacity bounds
// the duplicate detection window; 0 or less uses DefaultDedupeCapacity.
func NewEngine(catalog *Catalog, logger *zap.Logger, dedupeCapacity int) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		catalog: catalog,
		logger:  logger,
		seen:    newSeenCommands(dedupeCapacity),
		bus:     rules.NewEventBus(),
	}
}

// Bus receives the events of every accepted command, synchronously and in
// order, before Process returns. Listeners must not call back into the
// engine.
func (e *Engine) Bus() *rules.EventBus {
	return e.bus
}

// Catalog returns the catalog the engine resolves definitions against.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Process runs one command: duplicate and version checks, validation,
// handling and the victory check. Only an accepted command bumps the
// version.
//
// The returned error is non-nil only for an invariant violation; the state
// must then be treated as corrupt.
func (e *Engine) Process(s *GameState, cmd Command) (Result, error) {
	meta := cmd.Meta()
	logger := e.logger.With(
		zap.String("command_id", meta.ID.String()),
		zap.String("command_type", string(cmd.Type())),
		zap.Int64("version", s.Version),
	)

	if e.seen.Contains(meta.ID) {
		return e.reject(logger, s, errDuplicateCommand), nil
	}
	if meta.ExpectedVersion != s.Version {
		logger.Debug("stale command", zap.Int64("expected_version", meta.ExpectedVersion))
		return e.reject(logger, s, errVersionMismatch), nil
	}

	var errs []string
	if err := e.guard(logger, func() { errs = cmd.Validate(s, e.catalog) }); err != nil {
		return Result{State: s}, err
	}
	if len(errs) > 0 {
		return e.reject(logger, s, errs...), nil
	}

	var events []rules.Event
	err := e.guard(logger, func() {
		events = cmd.Handle(s, e.catalog)
		sink := rules.NewSink()
		newCombatFlow(s, e.catalog, sink).checkVictory()
		events = append(events, sink.Events()...)
	})
	if err != nil {
		return Result{State: s}, err
	}

	s.Version++
	e.seen.Add(meta.ID)
	logger.Debug("command accepted",
		zap.Int("event_count", len(events)),
		zap.Int64("new_version", s.Version),
	)
	e.bus.PublishBatch(events)
	return Result{Accepted: true, Events: events, State: s}, nil
}

func (e *Engine) reject(logger *zap.Logger, s *GameState, errs ...string) Result {
	logger.Debug("command rejected", zap.Strings("errors", errs))
	return Result{Errors: errs, State: s}
}

// guard runs fn and turns an invariant violation raised inside it into an
// error. Any other panic propagates.
func (e *Engine) guard(logger *zap.Logger, fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		v, ok := r.(*InvariantViolation)
		if !ok {
			panic(r)
		}
		logger.Error("invariant violation", zap.Error(v))
		err = v
	}()
	fn()
	return nil
}
