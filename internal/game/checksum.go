package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/realmforge/realmforge-server-go/internal/game/cards"
	"github.com/realmforge/realmforge-server-go/internal/game/zones"
)

var checksumZones = []zones.Zone{
	zones.ZoneDraw,
	zones.ZoneHand,
	zones.ZoneDiscard,
	zones.ZonePlayed,
	zones.ZoneFrontier,
	zones.ZoneInterior,
}

// Checksum returns a SHA-256 hash of the full game state, hidden zones and
// random state included. Two games with the same checksum will behave the same
// from here on.
func (g *Game) Checksum() string {
	hash := sha256.Sum256(g.buildDeterministicRepresentation())
	return hex.EncodeToString(hash[:])
}

// buildDeterministicRepresentation writes every field that affects play in a
// fixed order. Listeners and loggers are not state.
func (g *Game) buildDeterministicRepresentation() []byte {
	var buf bytes.Buffer
	s := g.st

	rngState, err := s.src.MarshalBinary()
	if err != nil {
		panic(fmt.Sprintf("game: marshal random state: %v", err))
	}
	fmt.Fprintf(&buf, "GAME:%s|%d|%s|%d|%t|%d|%x\n",
		g.ID,
		s.turns.TurnNumber(),
		s.turns.CurrentPhase(),
		s.turns.ActivePlayer(),
		s.over,
		s.winner,
		rngState,
	)

	for _, p := range s.players {
		fmt.Fprintf(&buf, "PLAYER:%s|%s|%d|%d|%d|%d|%d|%v|%t|%d|%t|%d\n",
			p.ID, p.Name,
			p.Authority, p.Trade, p.Combat,
			p.D10, p.D4,
			factionNames(p.FactionsPlayed),
			p.NextShipFree, p.NextShipFreeMax, p.NextShipTop,
			p.PendingDiscards,
		)
		for _, z := range checksumZones {
			fmt.Fprintf(&buf, "ZONE:%s\n", z)
			for _, c := range p.Deck.Cards(z) {
				writeInstance(&buf, c)
			}
		}
	}

	buf.WriteString("ROW\n")
	for i, c := range s.row.Slots() {
		fmt.Fprintf(&buf, "SLOT:%d\n", i)
		if c != nil {
			writeInstance(&buf, c)
		}
	}
	for _, t := range s.row.DeckContents() {
		fmt.Fprintf(&buf, "TRADE:%s\n", t.ID)
	}

	if ch := s.choice; ch != nil {
		fmt.Fprintf(&buf, "CHOICE:%s|%s|%v|%t|%d|%s\n",
			ch.Kind, ch.PlayerID, ch.Options, ch.Optional, ch.Remaining, ch.SourceID)
	}
	for _, f := range s.queue {
		fmt.Fprintf(&buf, "FRAME:%d|%d|%s|%d|%s|%s|%t\n",
			f.kind, f.player, f.effect.Type, f.effect.Value, f.effect.Target, sourceID(f.source), f.copied)
	}
	return buf.Bytes()
}

func writeInstance(buf *bytes.Buffer, c *cards.Instance) {
	fmt.Fprintf(buf, "CARD:%s|%s|%d|%d|%d|%t|%t|%d|%d|%s|%t\n",
		c.ID, c.Type.ID,
		c.AttackBonus, c.TradeBonus, c.AuthorityBonus,
		c.Spent, c.RegenDirty, c.ArtSeed,
		c.Damage, c.Placement, c.Deployed,
	)
}
