package game

import (
	"math/rand/v2"

	"github.com/realmforge/realmforge-server-go/internal/game/cards"
	"github.com/realmforge/realmforge-server-go/internal/game/rules"
	"github.com/realmforge/realmforge-server-go/internal/game/zones"
)

// SelectionHook picks the card type for an empty trade row slot. Returning nil
// falls back to a random draw from the trade deck. Hooks run synchronously and
// must return quickly.
type SelectionHook func(row *TradeRow, ctx any) *cards.CardType

// TradeRow is the shared market.
type TradeRow struct {
	slots    []*cards.Instance
	deck     []*cards.CardType
	explorer *cards.CardType

	hook    SelectionHook
	hookCtx any

	rng *rand.Rand
}

// NewTradeRow builds an empty row of size slots backed by deck.
func NewTradeRow(size int, deck []*cards.CardType, explorer *cards.CardType, rng *rand.Rand) *TradeRow {
	return &TradeRow{
		slots:    make([]*cards.Instance, size),
		deck:     append([]*cards.CardType(nil), deck...),
		explorer: explorer,
		rng:      rng,
	}
}

// SetSelectionHook installs the refill override. A nil hook restores random refills.
func (r *TradeRow) SetSelectionHook(hook SelectionHook, ctx any) {
	r.hook = hook
	r.hookCtx = ctx
}

// Slots returns the current slot contents; empty slots are nil.
func (r *TradeRow) Slots() []*cards.Instance {
	return append([]*cards.Instance(nil), r.slots...)
}

// Slot returns the card in slot i, or nil.
func (r *TradeRow) Slot(i int) *cards.Instance {
	if i < 0 || i >= len(r.slots) {
		return nil
	}
	return r.slots[i]
}

// Size is the number of slots.
func (r *TradeRow) Size() int {
	return len(r.slots)
}

// Remaining is the number of card types left in the trade deck.
func (r *TradeRow) Remaining() int {
	return len(r.deck)
}

// DeckContents returns the remaining trade deck in order.
func (r *TradeRow) DeckContents() []*cards.CardType {
	return append([]*cards.CardType(nil), r.deck...)
}

// Explorer returns the always-available card type.
func (r *TradeRow) Explorer() *cards.CardType {
	return r.explorer
}

// Find returns the slot holding the instance with id.
func (r *TradeRow) Find(id string) (int, bool) {
	for i, c := range r.slots {
		if c != nil && c.ID == id {
			return i, true
		}
	}
	return -1, false
}

// Fill refills every empty slot. Slots stay empty once the trade deck runs out
// and the hook offers nothing.
func (r *TradeRow) Fill() {
	for i := range r.slots {
		if r.slots[i] != nil {
			continue
		}
		t := r.next()
		if t == nil {
			continue
		}
		r.slots[i] = cards.NewSeededInstance(t, r.rng)
	}
}

func (r *TradeRow) next() *cards.CardType {
	if r.hook != nil {
		if t := r.hook(r, r.hookCtx); t != nil {
			r.removeFromDeck(t)
			return t
		}
	}
	if len(r.deck) == 0 {
		return nil
	}
	i := r.rng.IntN(len(r.deck))
	t := r.deck[i]
	r.deck = append(r.deck[:i], r.deck[i+1:]...)
	return t
}

// removeFromDeck drops one copy of t if the deck still has it. Hooks may offer
// cards that were never in the deck.
func (r *TradeRow) removeFromDeck(t *cards.CardType) {
	for i, d := range r.deck {
		if d.ID == t.ID {
			r.deck = append(r.deck[:i], r.deck[i+1:]...)
			return
		}
	}
}

// take empties slot i and returns what was there.
func (r *TradeRow) take(i int) *cards.Instance {
	c := r.slots[i]
	r.slots[i] = nil
	return c
}

// price returns what p pays for t and whether the free-ship flag is consumed.
func price(p *Player, t *cards.CardType) (int, bool) {
	if p.NextShipFree && t.Kind == cards.KindShip &&
		(p.NextShipFreeMax == 0 || t.Cost <= p.NextShipFreeMax) {
		return 0, true
	}
	return t.Cost, false
}

// deliver pays for and places a purchased instance.
func deliver(p *Player, c *cards.Instance, cost int, usedFree bool) {
	p.Trade -= cost
	if usedFree {
		p.NextShipFree = false
		p.NextShipFreeMax = 0
	}
	if p.NextShipTop && c.Type.Kind == cards.KindShip {
		p.Deck.AddToDrawTop(c)
		p.NextShipTop = false
	} else {
		p.Deck.Add(c, zones.ZoneDiscard)
	}
	p.AdjustD10(1)
}

// Buy purchases the card in slot for p and refills the row.
func (r *TradeRow) Buy(slot int, p *Player) (*cards.Instance, error) {
	const action = "BUY_CARD"
	if slot < 0 || slot >= len(r.slots) {
		return nil, rules.NewActionError(rules.ErrInvalidTarget, action, p.ID, "slot %d out of range", slot)
	}
	c := r.slots[slot]
	if c == nil {
		return nil, rules.NewActionError(rules.ErrInvalidTarget, action, p.ID, "slot %d is empty", slot)
	}
	cost, usedFree := price(p, c.Type)
	if p.Trade < cost {
		return nil, rules.NewActionError(rules.ErrInsufficientTrade, action, p.ID,
			"%s costs %d, have %d", c.Type.Name, cost, p.Trade)
	}
	r.take(slot)
	deliver(p, c, cost, usedFree)
	r.Fill()
	return c, nil
}

// BuyExplorer purchases a fresh copy of the explorer card for p.
func (r *TradeRow) BuyExplorer(p *Player) (*cards.Instance, error) {
	const action = "BUY_EXPLORER"
	if r.explorer == nil {
		return nil, rules.NewActionError(rules.ErrInvalidTarget, action, p.ID, "no explorer card configured")
	}
	cost, usedFree := price(p, r.explorer)
	if p.Trade < cost {
		return nil, rules.NewActionError(rules.ErrInsufficientTrade, action, p.ID,
			"%s costs %d, have %d", r.explorer.Name, cost, p.Trade)
	}
	c := cards.NewSeededInstance(r.explorer, r.rng)
	deliver(p, c, cost, usedFree)
	return c, nil
}

func (r *TradeRow) clone(rng *rand.Rand, remap func(*cards.Instance) *cards.Instance) *TradeRow {
	cp := *r
	cp.rng = rng
	cp.deck = append([]*cards.CardType(nil), r.deck...)
	cp.slots = make([]*cards.Instance, len(r.slots))
	for i, c := range r.slots {
		if c != nil {
			cp.slots[i] = remap(c)
		}
	}
	return &cp
}
