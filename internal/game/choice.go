package game

import (
	"fmt"
	"slices"

	"github.com/realmforge/realmforge-server-go/internal/game/cards"
	"github.com/realmforge/realmforge-server-go/internal/game/rules"
	"github.com/realmforge/realmforge-server-go/internal/game/zones"
	"go.uber.org/zap"
)

// ChoiceKind identifies what a pending choice decides.
type ChoiceKind int

const (
	ChoiceNone ChoiceKind = iota
	ChoiceDiscard
	ChoiceScrapTradeRow
	ChoiceScrapHandOrDiscard
	ChoiceUpgradeTarget
	ChoiceCopyTarget
	ChoiceDestroyBase
)

var choiceNames = map[ChoiceKind]string{
	ChoiceNone:               "NONE",
	ChoiceDiscard:            "DISCARD",
	ChoiceScrapTradeRow:      "SCRAP_TRADE_ROW",
	ChoiceScrapHandOrDiscard: "SCRAP_HAND_OR_DISCARD",
	ChoiceUpgradeTarget:      "UPGRADE_TARGET",
	ChoiceCopyTarget:         "COPY_TARGET",
	ChoiceDestroyBase:        "DESTROY_BASE",
}

func (k ChoiceKind) String() string {
	if name, ok := choiceNames[k]; ok {
		return name
	}
	return fmt.Sprintf("CHOICE_%d", int(k))
}

// Choice is a decision the engine is waiting on. Exactly one option is picked
// per resolution; optional choices may be declined with an empty selection.
type Choice struct {
	Kind     ChoiceKind
	PlayerID string
	// Options are the card instance ids that may be selected.
	Options  []string
	Optional bool
	// Remaining counts this pick and those still owed after it.
	Remaining int
	SourceID  string

	player int
	effect cards.Effect
	source *cards.Instance
}

func newChoice(kind ChoiceKind, f frame, options []string) *Choice {
	c := &Choice{
		Kind:      kind,
		Options:   options,
		Remaining: max(1, f.effect.Value),
		SourceID:  sourceID(f.source),
		player:    f.player,
		effect:    f.effect,
		source:    f.source,
	}
	switch kind {
	case ChoiceScrapTradeRow, ChoiceScrapHandOrDiscard:
		c.Optional = true
	case ChoiceUpgradeTarget, ChoiceCopyTarget, ChoiceDestroyBase:
		c.Remaining = 1
	}
	return c
}

func (c *Choice) clone(remap func(*cards.Instance) *cards.Instance) *Choice {
	cp := *c
	cp.Options = append([]string(nil), c.Options...)
	cp.source = remap(c.source)
	return &cp
}

// raiseChoice suspends resolution on ch. A choice with no options is skipped.
// A new choice may only replace one of the same kind for the same player.
func (g *Game) raiseChoice(ch *Choice) {
	if len(ch.Options) == 0 {
		g.logger.Debug("choice has no options", zap.Stringer("kind", ch.Kind))
		return
	}
	ch.PlayerID = g.st.players[ch.player].ID
	if cur := g.st.choice; cur != nil {
		if cur.Kind != ch.Kind || cur.player != ch.player {
			panic(fmt.Sprintf("game: %s choice for %s raised while %s choice for %s is pending",
				ch.Kind, ch.PlayerID, cur.Kind, cur.PlayerID))
		}
	}
	g.st.choice = ch
	evt := rules.NewEventWithAmount(rules.EventChoiceRequested, ch.PlayerID, ch.SourceID, "", ch.Remaining)
	evt.Data = ch.Kind.String()
	g.emit(evt)
}

// raiseDiscard asks idx to pay any discards owed from opponents' effects.
func (g *Game) raiseDiscard(idx int) {
	p := g.st.players[idx]
	if p.PendingDiscards <= 0 {
		return
	}
	if p.Deck.Len(zones.ZoneHand) == 0 {
		p.PendingDiscards = 0
		return
	}
	g.raiseChoice(&Choice{
		Kind:      ChoiceDiscard,
		Options:   instanceIDs(p.Deck.Cards(zones.ZoneHand)),
		Remaining: p.PendingDiscards,
		player:    idx,
	})
}

func (g *Game) resolveChoice(idx int, selection []string) error {
	const action = ActionResolveChoice
	p := g.st.players[idx]
	ch := g.st.choice
	if ch == nil {
		return rules.NewActionError(rules.ErrNoPendingChoice, action.String(), p.ID, "")
	}
	if ch.player != idx {
		return rules.NewActionError(rules.ErrNotYourTurn, action.String(), p.ID,
			"%s choice belongs to %s", ch.Kind, ch.PlayerID)
	}
	switch {
	case len(selection) > 1:
		return rules.NewActionError(rules.ErrInvalidChoice, action.String(), p.ID,
			"pick one option, got %d", len(selection))
	case len(selection) == 0 && !ch.Optional:
		return rules.NewActionError(rules.ErrInvalidChoice, action.String(), p.ID,
			"%s cannot be declined", ch.Kind)
	case len(selection) == 1 && !slices.Contains(ch.Options, selection[0]):
		return rules.NewActionError(rules.ErrInvalidTarget, action.String(), p.ID,
			"%q is not an option for %s", selection[0], ch.Kind)
	}

	g.st.choice = nil
	picked := ""
	if len(selection) == 1 {
		picked = selection[0]
	}
	evt := rules.NewEvent(rules.EventChoiceResolved, p.ID, ch.SourceID, picked)
	evt.Data = ch.Kind.String()
	g.emit(evt)

	if picked != "" {
		g.applyChoice(ch, picked)
	}
	g.drain()
	return nil
}

func (g *Game) applyChoice(ch *Choice, picked string) {
	p := g.st.players[ch.player]
	again := func(options []string) {
		if ch.Remaining <= 1 {
			return
		}
		next := *ch
		next.Options = options
		next.Remaining--
		g.raiseChoice(&next)
	}

	switch ch.Kind {
	case ChoiceDiscard:
		c, _, _ := p.Deck.Find(picked)
		p.Deck.Discard(c)
		g.emit(rules.NewEvent(rules.EventCardDiscarded, p.ID, "", c.ID))
		p.PendingDiscards--
		g.raiseDiscard(ch.player)

	case ChoiceScrapTradeRow:
		slot, _ := g.st.row.Find(picked)
		c := g.st.row.take(slot)
		c.MarkScrapped()
		evt := rules.NewEvent(rules.EventCardScrapped, p.ID, ch.SourceID, c.ID)
		evt.CardType = c.Type.ID
		evt.Data = "trade_row"
		g.emit(evt)
		g.st.row.Fill()
		again(g.tradeRowOptions())

	case ChoiceScrapHandOrDiscard:
		c, _, _ := p.Deck.Find(picked)
		p.Deck.Remove(c)
		g.destroy(p, c)
		p.AdjustD10(-1)
		again(handAndDiscardOptions(p))

	case ChoiceUpgradeTarget:
		c, _, _ := p.Deck.Find(picked)
		c.ApplyUpgrade(ch.effect.Upgrade, ch.effect.Value)
		evt := rules.NewEventWithAmount(rules.EventCardUpgraded, p.ID, ch.SourceID, c.ID, ch.effect.Value)
		evt.CardType = c.Type.ID
		evt.Data = ch.effect.Upgrade.String()
		g.emit(evt)

	case ChoiceCopyTarget:
		c, _, _ := p.Deck.Find(picked)
		g.push(g.cardFrames(ch.player, c, true)...)

	case ChoiceDestroyBase:
		for _, owner := range g.st.players {
			if base, z, ok := owner.Deck.Find(picked); ok && (z == zones.ZoneFrontier || z == zones.ZoneInterior) {
				g.destroyBase(owner, base, ch.SourceID)
				return
			}
		}
	}
}

func instanceIDs(list []*cards.Instance) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.ID
	}
	return out
}

func (g *Game) tradeRowOptions() []string {
	var out []string
	for _, c := range g.st.row.Slots() {
		if c != nil {
			out = append(out, c.ID)
		}
	}
	return out
}

func handAndDiscardOptions(p *Player) []string {
	return append(instanceIDs(p.Deck.Cards(zones.ZoneHand)), instanceIDs(p.Deck.Cards(zones.ZoneDiscard))...)
}

// copyOptions lists the other ships and units p has played this turn.
func copyOptions(p *Player, source *cards.Instance) []string {
	var out []string
	for _, c := range p.Deck.Cards(zones.ZonePlayed) {
		if c != source && !c.IsBase() {
			out = append(out, c.ID)
		}
	}
	return out
}

// upgradeOptions lists p's visible cards, restricted to one card type when
// typeID is set.
func upgradeOptions(p *Player, typeID string) []string {
	var out []string
	for _, z := range []zones.Zone{zones.ZoneHand, zones.ZonePlayed, zones.ZoneDiscard} {
		for _, c := range p.Deck.Cards(z) {
			if typeID == "" || c.Type.ID == typeID {
				out = append(out, c.ID)
			}
		}
	}
	return out
}

func (g *Game) destroyBaseOptions(idx int) []string {
	var out []string
	for j, other := range g.st.players {
		if j == idx || !other.IsAlive() {
			continue
		}
		out = append(out, instanceIDs(attackableBases(other))...)
	}
	return out
}
