package game

import (
	"github.com/realmforge/realmforge-server-go/internal/game/cards"
	"github.com/realmforge/realmforge-server-go/internal/game/rules"
	"github.com/realmforge/realmforge-server-go/internal/game/zones"
	"go.uber.org/zap"
)

type frameKind int

const (
	frameEffect frameKind = iota
	// frameFinishScrap destroys the source once its scrap effects are done.
	frameFinishScrap
)

// frame is one pending step of effect resolution.
type frame struct {
	kind   frameKind
	player int
	effect cards.Effect
	source *cards.Instance
	// copied marks effects run through copy_ship; they cannot copy again.
	copied bool
}

// enqueue appends frames after everything already pending.
func (g *Game) enqueue(frames ...frame) {
	g.st.queue = append(g.st.queue, frames...)
}

// push runs frames before everything already pending.
func (g *Game) push(frames ...frame) {
	g.st.queue = append(frames, g.st.queue...)
}

// drain resolves queued effects until the queue is empty, a choice is
// outstanding, or the game ends.
func (g *Game) drain() {
	for g.st.choice == nil && len(g.st.queue) > 0 {
		if g.st.over {
			g.st.queue = nil
			return
		}
		f := g.st.queue[0]
		g.st.queue = g.st.queue[1:]
		switch f.kind {
		case frameFinishScrap:
			g.finishScrap(f)
		default:
			g.dispatch(f)
		}
	}
}

// cardFrames builds the primary effects of c followed by its ally effects when
// an ally is present right now.
func (g *Game) cardFrames(idx int, c *cards.Instance, copied bool) []frame {
	p := g.st.players[idx]
	var frames []frame
	for _, e := range c.Type.Effects {
		// An auto-drawn card already paid out its draw.
		if e.Type == cards.EffectDrawCards && c.Spent && c.Type.AutoDraw == cards.AutoDrawOnDraw && !copied {
			continue
		}
		frames = append(frames, frame{kind: frameEffect, player: idx, effect: e, source: c, copied: copied})
	}
	if c.Type.HasAlly() && checkAlly(p, c) {
		for _, e := range c.Type.AllyEffects {
			frames = append(frames, frame{kind: frameEffect, player: idx, effect: e, source: c, copied: copied})
		}
	}
	return frames
}

// scrapFrames removes c from play and queues its scrap effects, then its destruction.
func (g *Game) scrapFrames(idx int, c *cards.Instance) []frame {
	p := g.st.players[idx]
	p.Deck.Remove(c)
	frames := make([]frame, 0, len(c.Type.ScrapEffects)+1)
	for _, e := range c.Type.ScrapEffects {
		frames = append(frames, frame{kind: frameEffect, player: idx, effect: e, source: c})
	}
	return append(frames, frame{kind: frameFinishScrap, player: idx, source: c})
}

func (g *Game) finishScrap(f frame) {
	p := g.st.players[f.player]
	g.destroy(p, f.source)
	p.AdjustD10(-1)
}

// destroy permanently removes an instance that is already out of every zone.
func (g *Game) destroy(owner *Player, c *cards.Instance) {
	c.MarkScrapped()
	evt := rules.NewEvent(rules.EventCardScrapped, owner.ID, "", c.ID)
	evt.CardType = c.Type.ID
	g.emit(evt)
}

// checkAlly reports whether another card of c's faction is in play for p.
func checkAlly(p *Player, c *cards.Instance) bool {
	inPlay := append(p.Deck.Cards(zones.ZonePlayed), p.Deck.Bases()...)
	for _, other := range inPlay {
		if other != c && other.Type.Faction == c.Type.Faction {
			return true
		}
	}
	return false
}

func hasEffect(effects []cards.Effect, t cards.EffectType) bool {
	for _, e := range effects {
		if e.Type == t {
			return true
		}
	}
	return false
}

func (g *Game) dispatch(f frame) {
	p := g.st.players[f.player]
	e := f.effect
	g.logger.Debug("resolving effect",
		zap.String("player_id", p.ID),
		zap.Stringer("effect", e.Type),
		zap.Int("value", e.Value),
		zap.Stringer("source", f.source),
	)

	switch e.Type {
	case cards.EffectAddTrade:
		p.AddTrade(e.Value + f.source.BonusFor(e.Type))
	case cards.EffectAddCombat:
		p.AddCombat(e.Value + f.source.BonusFor(e.Type))
	case cards.EffectAddAuthority:
		p.AddAuthority(e.Value + f.source.BonusFor(e.Type))
	case cards.EffectDrawCards:
		for _, c := range p.Deck.DrawN(e.Value) {
			g.emit(rules.NewEvent(rules.EventCardDrawn, p.ID, sourceID(f.source), c.ID))
		}
	case cards.EffectOpponentDiscard:
		if target := g.nextLivingOpponent(f.player); target >= 0 {
			g.st.players[target].PendingDiscards += max(1, e.Value)
		}
	case cards.EffectScrapTradeRow:
		g.raiseChoice(newChoice(ChoiceScrapTradeRow, f, g.tradeRowOptions()))
	case cards.EffectScrapHandOrDiscard:
		g.raiseChoice(newChoice(ChoiceScrapHandOrDiscard, f, handAndDiscardOptions(p)))
	case cards.EffectDestroyBase:
		g.raiseChoice(newChoice(ChoiceDestroyBase, f, g.destroyBaseOptions(f.player)))
	case cards.EffectCopyShip:
		if f.copied {
			return
		}
		g.raiseChoice(newChoice(ChoiceCopyTarget, f, copyOptions(p, f.source)))
	case cards.EffectUpgradeCard:
		g.raiseChoice(newChoice(ChoiceUpgradeTarget, f, upgradeOptions(p, e.Target)))
	case cards.EffectNextShipFree:
		p.NextShipFree = true
		p.NextShipFreeMax = e.Value
	case cards.EffectNextShipTop:
		p.NextShipTop = true
	case cards.EffectSpawnUnit:
		target := e.Target
		if target == "" && f.source != nil {
			target = f.source.Type.Spawns
		}
		if target == "" {
			return
		}
		for i := 0; i < max(1, e.Value); i++ {
			g.spawnUnit(f.player, target, f.source)
		}
	case cards.EffectDeckFlow:
		p.AdjustD10(e.Value)
	default:
		g.logger.Debug("ignoring unknown effect", zap.Stringer("effect", e.Type))
	}
}

// spawnUnit creates a unit in the owner's discard pile and runs its primary
// effects straight away.
func (g *Game) spawnUnit(idx int, typeID string, spawner *cards.Instance) {
	p := g.st.players[idx]
	t := g.catalog.MustGet(typeID)
	unit := cards.NewSeededInstance(t, g.st.rng)
	p.Deck.Add(unit, zones.ZoneDiscard)

	evt := rules.NewEvent(rules.EventUnitSpawned, p.ID, sourceID(spawner), unit.ID)
	evt.CardType = t.ID
	g.emit(evt)

	frames := make([]frame, 0, len(t.Effects))
	for _, e := range t.Effects {
		frames = append(frames, frame{kind: frameEffect, player: idx, effect: e, source: unit})
	}
	g.push(frames...)
}

// destroyBase sends a base to its owner's discard pile, or out of the game if
// it is temporary.
func (g *Game) destroyBase(owner *Player, base *cards.Instance, by string) {
	evt := rules.NewEvent(rules.EventBaseDestroyed, owner.ID, by, base.ID)
	evt.CardType = base.Type.ID
	g.emit(evt)
	if base.Type.Temporary {
		owner.Deck.Remove(base)
		g.destroy(owner, base)
		return
	}
	owner.Deck.DestroyBase(base)
}

func sourceID(c *cards.Instance) string {
	if c == nil {
		return ""
	}
	return c.ID
}
