package game

import (
	"github.com/realmforge/realmforge-server-go/internal/game/cards"
	"github.com/realmforge/realmforge-server-go/internal/game/rules"
	"github.com/realmforge/realmforge-server-go/internal/game/zones"
	"go.uber.org/zap"
)

// autoDrawEligible reports whether c fires its draw effect from the hand.
func autoDrawEligible(c *cards.Instance) bool {
	return c.Type.AutoDraw == cards.AutoDrawOnDraw && c.Type.HasDrawEffect() && !c.Spent
}

// resolveAutoDraw fires every eligible card in idx's hand, in hand order, and
// repeats over newly drawn cards until a pass finds nothing. It returns the
// number of cards drawn.
func (g *Game) resolveAutoDraw(idx int) int {
	p := g.st.players[idx]
	total, passes := 0, 0
	for {
		fired := false
		for _, c := range p.Deck.Cards(zones.ZoneHand) {
			if !autoDrawEligible(c) {
				continue
			}
			fired = true
			c.Spent = true
			evt := rules.NewEventWithAmount(rules.EventAutoDrawTrigger, p.ID, c.ID, "", c.Type.DrawValue())
			evt.CardType = c.Type.ID
			g.emit(evt)

			for _, drawn := range p.Deck.DrawN(c.Type.DrawValue()) {
				g.emit(rules.NewEvent(rules.EventAutoDrawCard, p.ID, c.ID, drawn.ID))
				total++
			}
		}
		if !fired {
			break
		}
		passes++
	}

	if passes > 0 {
		g.emit(rules.NewEventWithAmount(rules.EventAutoDrawComplete, p.ID, "", "", total))
		g.logger.Debug("auto-draw chain resolved",
			zap.String("player_id", p.ID),
			zap.Int("passes", passes),
			zap.Int("drawn", total),
		)
	}
	return total
}
