package game

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/dueltower/duel-tower-server/internal/game/counters"
	"golang.org/x/crypto/blake2b"
)

// ChecksumVersion identifies the canonical form hashed by ComputeChecksum.
const ChecksumVersion = 1

// Checksum is a digest of a game state. Two states with equal checksums
// hold the same zones, vitals, statuses, flags and combat metadata.
type Checksum struct {
	Hash    string `json:"hash"`
	Version int    `json:"version"`
}

// ComputeChecksum hashes the canonical representation of s with BLAKE2b-256.
func ComputeChecksum(s *GameState) Checksum {
	sum := blake2b.Sum256(canonicalState(s))
	return Checksum{Hash: hex.EncodeToString(sum[:]), Version: ChecksumVersion}
}

// VerifyChecksum reports whether s still matches expected.
func VerifyChecksum(s *GameState, expected Checksum) (bool, error) {
	if expected.Version != ChecksumVersion {
		return false, fmt.Errorf("unsupported checksum version: %d", expected.Version)
	}
	return ComputeChecksum(s).Hash == expected.Hash, nil
}

// canonicalState renders s independently of map iteration order. Zone
// lists keep their order since it is part of the state.
func canonicalState(s *GameState) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "GAME:%s|%d|%d\n", s.SessionID, s.Version, s.Seed)

	for _, pid := range s.PlayerOrder {
		ps := s.Players[pid]
		fmt.Fprintf(&buf, "PLAYER:%s|%d/%d/%d/%d|hp=%d|ap=%d|ex=%s|cd=%d|act=%t|swap=%t|played=%d|usedex=%t\n",
			pid, ps.Body(), ps.Skill(), ps.Sense(), ps.Will(), ps.HP(), ps.AP(),
			ps.EXCard, ps.EXCooldownUntilRound, ps.EXActivatable,
			ps.SwappedThisTurn, ps.CardsPlayedThisTurn, ps.UsedEXThisTurn)
		writeZone(&buf, ZoneDeck, ps.Deck)
		writeZone(&buf, ZoneHand, ps.Hand)
		writeZone(&buf, ZoneGrave, ps.Grave)
		writeZone(&buf, ZoneField, ps.Field)
		writeZone(&buf, ZoneExcluded, ps.Excluded)
		if ps.Pending != nil {
			fmt.Fprintf(&buf, "  PENDING:%s|%s|%+v\n", ps.Pending.DecisionType(), ps.Pending.DecisionReason(), ps.Pending)
		}
		writeStacks(&buf, ps.Statuses)
	}

	for _, eid := range s.EnemyOrder {
		es := s.Enemies[eid]
		fmt.Fprintf(&buf, "ENEMY:%s|hp=%d/%d\n", eid, es.HP(), es.MaxHP())
		writeStacks(&buf, es.Statuses)
	}

	ids := make([]string, 0, len(s.Cards))
	for id := range s.Cards {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	for _, id := range ids {
		ci := s.Cards[CardInstID(id)]
		fmt.Fprintf(&buf, "CARD:%s|%s|%s|%s\n", ci.ID, ci.DefID, ci.Owner, ci.Zone)
		writeStacks(&buf, ci.Statuses)
	}

	if cs := s.Combat; cs != nil {
		fmt.Fprintf(&buf, "COMBAT:%d|%s|%d\n", cs.Round, cs.Phase, cs.CurrentTurnIndex)
		buf.WriteString("  ORDER:")
		buf.WriteString(strings.Join(actorKeys(cs.TurnOrder), ","))
		buf.WriteString("\n")

		keys := make([]string, 0, len(cs.Initiatives))
		for k := range cs.Initiatives {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&buf, "  INIT:%s=%d\n", k, cs.Initiatives[k])
		}
		for _, g := range cs.InitiativeTieGroups {
			fmt.Fprintf(&buf, "  TIE:%s\n", strings.Join(g, ","))
		}
		buf.WriteString("  FACTION:" + string(FactionPlayers) + "\n")
		writeStacks(&buf, cs.FactionStatuses(FactionPlayers))
		buf.WriteString("  FACTION:" + string(FactionEnemies) + "\n")
		writeStacks(&buf, cs.FactionStatuses(FactionEnemies))
	}

	return buf.Bytes()
}

func writeZone(buf *bytes.Buffer, z Zone, ids []CardInstID) {
	buf.WriteString("  " + string(z) + ":")
	buf.WriteString(strings.Join(idStrings(ids), ","))
	buf.WriteString("\n")
}

// writeStacks sorts by id; insertion order is not part of the state.
func writeStacks(buf *bytes.Buffer, st *counters.Stacks) {
	views := st.ToView()
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })
	for _, v := range views {
		fmt.Fprintf(buf, "  STATUS:%s=%d\n", v.ID, v.Stacks)
	}
}
