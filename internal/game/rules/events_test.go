package rules

import "testing"

func TestSinkCollectsInOrder(t *testing.T) {
	sink := NewSink()
	sink.Log("first")
	sink.Add(DeckShuffled{PlayerID: "p1"})
	sink.Logf("p1 draws %d", 2)

	events := sink.Events()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Type() != EventLogAppended {
		t.Fatalf("expected LOG_APPENDED first, got %s", events[0].Type())
	}
	if got := Describe(events[2]); got != "p1 draws 2" {
		t.Fatalf("unexpected third event %q", got)
	}
}

func TestDiscardSinkDropsEverything(t *testing.T) {
	sink := DiscardSink()
	sink.Log("ignored")
	sink.Add(TurnAdvanced{ActorKey: "PLAYER:p1", Round: 1})
	if sink.Len() != 0 {
		t.Fatalf("expected discard sink to stay empty, got %d", sink.Len())
	}

	var nilSink *Sink
	nilSink.Log("also ignored")
	if nilSink.Events() != nil {
		t.Fatalf("expected nil events from nil sink")
	}
}

func TestEventBusSubscribeTyped(t *testing.T) {
	bus := NewEventBus()

	turnCount := 0
	allCount := 0

	typed := bus.SubscribeTyped(EventTurnAdvanced, func(e Event) {
		turnCount++
	})
	all := bus.Subscribe(func(e Event) {
		allCount++
	})

	bus.PublishBatch([]Event{
		LogAppended{Line: "x"},
		TurnAdvanced{ActorKey: "PLAYER:p1", Round: 2},
	})
	if turnCount != 1 {
		t.Fatalf("expected turn count 1, got %d", turnCount)
	}
	if allCount != 2 {
		t.Fatalf("expected all count 2, got %d", allCount)
	}

	bus.Unsubscribe(typed)
	bus.Unsubscribe(all)
	bus.Publish(TurnAdvanced{ActorKey: "PLAYER:p1", Round: 3})
	if turnCount != 1 || allCount != 2 {
		t.Fatalf("expected no deliveries after unsubscribe, got turn=%d all=%d", turnCount, allCount)
	}
}

func TestDescribeCoversEveryEvent(t *testing.T) {
	cases := map[Event]string{
		CardsMoved{PlayerID: "p1", From: "HAND", To: "GRAVE", Count: 1}:            "p1 moves 1 HAND->GRAVE",
		DeckRefilled{PlayerID: "p1"}:                                               "p1 deck refilled from grave",
		PendingDecisionSet{PlayerID: "p1", DecisionType: "X", Reason: "r"}:         "p1 must resolve X (r)",
		PendingDecisionCleared{PlayerID: "p1", DecisionType: "X"}:                  "p1 resolved X",
		TurnAdvanced{ActorKey: "ENEMY:e1", Round: 4}:                               "turn: ENEMY:e1 (round 4)",
	}
	for ev, want := range cases {
		if got := Describe(ev); got != want {
			t.Errorf("Describe(%T) = %q, want %q", ev, got, want)
		}
	}
}
