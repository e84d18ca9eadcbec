package rules

import (
	"fmt"
	"sync"
)

// EventType indicates the category of a combat event.
type EventType string

const (
	EventLogAppended            EventType = "LOG_APPENDED"
	EventCardsMoved             EventType = "CARDS_MOVED"
	EventDeckShuffled           EventType = "DECK_SHUFFLED"
	EventDeckRefilled           EventType = "DECK_REFILLED"
	EventPendingDecisionSet     EventType = "PENDING_DECISION_SET"
	EventPendingDecisionCleared EventType = "PENDING_DECISION_CLEARED"
	EventTurnAdvanced           EventType = "TURN_ADVANCED"
)

// Event is one entry in the ordered, informational event log produced while
// a command is handled. Events are never replayed to rebuild state.
// The set of implementations is closed to this package.
type Event interface {
	Type() EventType
	isEvent()
}

// LogAppended carries one human readable log line.
type LogAppended struct {
	Line string `json:"line"`
}

// CardsMoved reports count cards moving between two zones of a player.
type CardsMoved struct {
	PlayerID string `json:"playerId"`
	From     string `json:"from"`
	To       string `json:"to"`
	Count    int    `json:"count"`
}

// DeckShuffled reports that a player's deck was reshuffled.
type DeckShuffled struct {
	PlayerID string `json:"playerId"`
}

// DeckRefilled reports that a player's grave was moved back into the deck.
type DeckRefilled struct {
	PlayerID string `json:"playerId"`
}

// PendingDecisionSet reports a new blocking decision owed by a player.
type PendingDecisionSet struct {
	PlayerID     string `json:"playerId"`
	DecisionType string `json:"decisionType"`
	Reason       string `json:"reason"`
}

// PendingDecisionCleared reports that a player's blocking decision is gone.
type PendingDecisionCleared struct {
	PlayerID     string `json:"playerId"`
	DecisionType string `json:"decisionType"`
}

// TurnAdvanced reports the actor whose turn it now is.
type TurnAdvanced struct {
	ActorKey string `json:"actorKey"`
	Round    int    `json:"round"`
}

func (LogAppended) Type() EventType            { return EventLogAppended }
func (CardsMoved) Type() EventType             { return EventCardsMoved }
func (DeckShuffled) Type() EventType           { return EventDeckShuffled }
func (DeckRefilled) Type() EventType           { return EventDeckRefilled }
func (PendingDecisionSet) Type() EventType     { return EventPendingDecisionSet }
func (PendingDecisionCleared) Type() EventType { return EventPendingDecisionCleared }
func (TurnAdvanced) Type() EventType           { return EventTurnAdvanced }

func (LogAppended) isEvent()            {}
func (CardsMoved) isEvent()             {}
func (DeckShuffled) isEvent()           {}
func (DeckRefilled) isEvent()           {}
func (PendingDecisionSet) isEvent()     {}
func (PendingDecisionCleared) isEvent() {}
func (TurnAdvanced) isEvent()           {}

// Describe renders an event as a single line, mostly for logs and tests.
func Describe(e Event) string {
	switch ev := e.(type) {
	case LogAppended:
		return ev.Line
	case CardsMoved:
		return fmt.Sprintf("%s moves %d %s->%s", ev.PlayerID, ev.Count, ev.From, ev.To)
	case DeckShuffled:
		return ev.PlayerID + " deck shuffled"
	case DeckRefilled:
		return ev.PlayerID + " deck refilled from grave"
	case PendingDecisionSet:
		return fmt.Sprintf("%s must resolve %s (%s)", ev.PlayerID, ev.DecisionType, ev.Reason)
	case PendingDecisionCleared:
		return fmt.Sprintf("%s resolved %s", ev.PlayerID, ev.DecisionType)
	case TurnAdvanced:
		return fmt.Sprintf("turn: %s (round %d)", ev.ActorKey, ev.Round)
	default:
		return string(e.Type())
	}
}

// Sink collects events in order. A discarding sink drops everything, which
// is what validation-time hooks write to.
type Sink struct {
	events  []Event
	discard bool
}

// NewSink creates a collecting sink.
func NewSink() *Sink {
	return &Sink{events: make([]Event, 0, 16)}
}

// DiscardSink creates a sink that drops every event.
func DiscardSink() *Sink {
	return &Sink{discard: true}
}

// Add appends an event.
func (s *Sink) Add(e Event) {
	if s == nil || s.discard {
		return
	}
	s.events = append(s.events, e)
}

// Log appends a LogAppended event.
func (s *Sink) Log(line string) {
	s.Add(LogAppended{Line: line})
}

// Logf appends a formatted LogAppended event.
func (s *Sink) Logf(format string, args ...any) {
	if s == nil || s.discard {
		return
	}
	s.Add(LogAppended{Line: fmt.Sprintf(format, args...)})
}

// Events returns a copy of the collected events.
func (s *Sink) Events() []Event {
	if s == nil {
		return nil
	}
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Len returns the number of collected events.
func (s *Sink) Len() int {
	if s == nil {
		return 0
	}
	return len(s.events)
}

// Listener defines a callback that reacts to published events.
type Listener func(Event)

// TypedListener defines a callback that reacts to a specific event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus fans accepted events out to subscribers synchronously.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]TypedListener
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	for _, listener := range bus.listeners {
		listener(event)
	}
	for _, listener := range bus.typedListeners[event.Type()] {
		listener.Callback(event)
	}
}

// PublishBatch publishes events in order.
func (bus *EventBus) PublishBatch(events []Event) {
	for _, event := range events {
		bus.Publish(event)
	}
}
