package game

import (
	"github.com/dueltower/duel-tower-server/internal/game/rules"
)

// ZoneOps moves cards between the zones of one session. Every move keeps
// the owner's zone lists and CardInstance.Zone in agreement.
type ZoneOps struct {
	state   *GameState
	catalog *Catalog
	sink    *rules.Sink
}

func newZoneOps(s *GameState, cat *Catalog, sink *rules.Sink) ZoneOps {
	return ZoneOps{state: s, catalog: cat, sink: sink}
}

// DrawWithRefill draws up to count cards from the top of the deck. An empty
// deck is refilled from the grave and reshuffled; drawing stops early once
// both are empty. It returns how many cards were drawn.
func (z ZoneOps) DrawWithRefill(ps *PlayerState, count int) int {
	drawn := 0
	for i := 0; i < count; i++ {
		if len(ps.Deck) == 0 {
			z.refillFromGrave(ps)
			z.shuffleDeck(ps)
		}
		if len(ps.Deck) == 0 {
			break
		}
		top := ps.Deck[0]
		ps.Deck = ps.Deck[1:]
		ps.Hand = append(ps.Hand, top)
		z.state.mustCard(top).Zone = ZoneHand
		drawn++
	}
	return drawn
}

func (z ZoneOps) refillFromGrave(ps *PlayerState) {
	if len(ps.Grave) == 0 {
		return
	}
	for _, id := range ps.Grave {
		ps.Deck = append(ps.Deck, id)
		z.state.mustCard(id).Zone = ZoneDeck
	}
	ps.Grave = nil
	z.sink.Add(rules.DeckRefilled{PlayerID: string(ps.ID)})
}

func (z ZoneOps) shuffleDeck(ps *PlayerState) {
	r := deriveRand(z.state.Seed^z.state.Version, salt(string(ps.ID)))
	shuffleIDs(r, ps.Deck)
	z.sink.Add(rules.DeckShuffled{PlayerID: string(ps.ID)})
}

// Move moves id from one zone to another after keyword overrides. A token
// headed for a terminal zone vanishes instead.
func (z ZoneOps) Move(ps *PlayerState, id CardInstID, from, to Zone, reason MoveReason) {
	to = z.catalog.overrideMoveDestination(z.state, ps, id, from, to, reason)
	z.moveOrVanish(ps, id, from, to)
}

func (z ZoneOps) moveOrVanish(ps *PlayerState, id CardInstID, from, to Zone) {
	ci := z.state.mustCard(id)
	def := z.catalog.Definition(ci.DefID)

	if def.Token && to.terminal() {
		removeFromZone(ps, id, from)
		delete(z.state.Cards, id)
		z.sink.Log("token vanished")
		return
	}

	removeFromZone(ps, id, from)
	addToZone(ps, id, to)
	ci.Zone = to
	z.sink.Add(rules.CardsMoved{PlayerID: string(ps.ID), From: string(from), To: string(to), Count: 1})
}

func removeFromZone(ps *PlayerState, id CardInstID, from Zone) {
	switch from {
	case ZoneHand:
		ps.Hand = removeID(ps.Hand, id)
	case ZoneGrave:
		ps.Grave = removeID(ps.Grave, id)
	case ZoneField:
		ps.Field = removeID(ps.Field, id)
	case ZoneExcluded:
		ps.Excluded = removeID(ps.Excluded, id)
	case ZoneDeck:
		ps.Deck = removeID(ps.Deck, id)
	case ZoneEX:
		if ps.EXCard == id {
			ps.EXCard = ""
		}
	default:
		invariantf("unknown zone %q", from)
	}
}

func addToZone(ps *PlayerState, id CardInstID, to Zone) {
	switch to {
	case ZoneHand:
		ps.Hand = append(ps.Hand, id)
	case ZoneGrave:
		ps.Grave = append(ps.Grave, id)
	case ZoneField:
		ps.Field = append(ps.Field, id)
	case ZoneExcluded:
		ps.Excluded = append(ps.Excluded, id)
	case ZoneDeck:
		ps.Deck = append(ps.Deck, id)
	case ZoneEX:
		if ps.EXCard != "" && ps.EXCard != id {
			invariantf("ex slot of %s already holds %s", ps.ID, ps.EXCard)
		}
		ps.EXCard = id
	default:
		invariantf("unknown zone %q", to)
	}
}
