package zones

import (
	"fmt"
	"math/rand/v2"

	"github.com/realmforge/realmforge-server-go/internal/game/cards"
	"github.com/realmforge/realmforge-server-go/internal/game/rules"
)

// Zone identifies one of the containers a player's cards live in.
type Zone int

const (
	ZoneNone Zone = iota
	ZoneDraw
	ZoneHand
	ZoneDiscard
	ZonePlayed
	ZoneFrontier
	ZoneInterior
)

var zoneNames = map[Zone]string{
	ZoneNone:     "NONE",
	ZoneDraw:     "DRAW",
	ZoneHand:     "HAND",
	ZoneDiscard:  "DISCARD",
	ZonePlayed:   "PLAYED",
	ZoneFrontier: "FRONTIER",
	ZoneInterior: "INTERIOR",
}

func (z Zone) String() string {
	if name, ok := zoneNames[z]; ok {
		return name
	}
	return fmt.Sprintf("ZONE_%d", int(z))
}

// Deck owns every card instance of one player, partitioned into zones.
// Index 0 of the draw pile is the top card.
type Deck struct {
	rng *rand.Rand

	draw     []*cards.Instance
	hand     []*cards.Instance
	discard  []*cards.Instance
	played   []*cards.Instance
	frontier []*cards.Instance
	interior []*cards.Instance
}

// New creates an empty deck that shuffles with rng.
func New(rng *rand.Rand) *Deck {
	if rng == nil {
		panic("zones: nil random source")
	}
	return &Deck{rng: rng}
}

func (d *Deck) zone(z Zone) *[]*cards.Instance {
	switch z {
	case ZoneDraw:
		return &d.draw
	case ZoneHand:
		return &d.hand
	case ZoneDiscard:
		return &d.discard
	case ZonePlayed:
		return &d.played
	case ZoneFrontier:
		return &d.frontier
	case ZoneInterior:
		return &d.interior
	default:
		panic(fmt.Sprintf("zones: no container for zone %s", z))
	}
}

var allZones = []Zone{ZoneDraw, ZoneHand, ZoneDiscard, ZonePlayed, ZoneFrontier, ZoneInterior}

// Cards returns a copy of the zone contents in order.
func (d *Deck) Cards(z Zone) []*cards.Instance {
	src := *d.zone(z)
	out := make([]*cards.Instance, len(src))
	copy(out, src)
	return out
}

// Len returns the number of cards in a zone.
func (d *Deck) Len(z Zone) int {
	return len(*d.zone(z))
}

// Available is the number of cards that can still be drawn this cycle.
func (d *Deck) Available() int {
	return len(d.draw) + len(d.discard)
}

// Bases returns frontier bases followed by interior bases.
func (d *Deck) Bases() []*cards.Instance {
	out := make([]*cards.Instance, 0, len(d.frontier)+len(d.interior))
	out = append(out, d.frontier...)
	return append(out, d.interior...)
}

// All returns every instance the deck owns, zone by zone.
func (d *Deck) All() []*cards.Instance {
	var out []*cards.Instance
	for _, z := range allZones {
		out = append(out, *d.zone(z)...)
	}
	return out
}

// Find locates an instance by id.
func (d *Deck) Find(id string) (*cards.Instance, Zone, bool) {
	for _, z := range allZones {
		for _, c := range *d.zone(z) {
			if c.ID == id {
				return c, z, true
			}
		}
	}
	return nil, ZoneNone, false
}

// ZoneOf reports where an instance currently is.
func (d *Deck) ZoneOf(c *cards.Instance) Zone {
	for _, z := range allZones {
		if indexOf(*d.zone(z), c) >= 0 {
			return z
		}
	}
	return ZoneNone
}

// Add places a new instance into a zone. The instance must not already be owned.
func (d *Deck) Add(c *cards.Instance, z Zone) {
	d.mustBeNew(c)
	p := d.zone(z)
	*p = append(*p, c)
}

// AddToDrawTop places a new instance on top of the draw pile.
func (d *Deck) AddToDrawTop(c *cards.Instance) {
	d.mustBeNew(c)
	d.draw = append([]*cards.Instance{c}, d.draw...)
}

func (d *Deck) mustBeNew(c *cards.Instance) {
	if c == nil {
		panic("zones: nil instance")
	}
	if c.Scrapped() {
		panic(fmt.Sprintf("zones: adding scrapped instance %s", c))
	}
	if z := d.ZoneOf(c); z != ZoneNone {
		panic(fmt.Sprintf("zones: instance %s already in %s", c, z))
	}
}

// Shuffle randomizes the draw pile and clears every auto-draw spent flag in it.
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.draw), func(i, j int) {
		d.draw[i], d.draw[j] = d.draw[j], d.draw[i]
	})
	for _, c := range d.draw {
		c.Spent = false
	}
}

// reshuffle moves the discard pile under the (empty) draw pile and shuffles it.
func (d *Deck) reshuffle() {
	d.draw = append(d.draw, d.discard...)
	d.discard = nil
	d.Shuffle()
}

func (d *Deck) popTop() *cards.Instance {
	if len(d.draw) == 0 {
		if len(d.discard) == 0 {
			return nil
		}
		d.reshuffle()
	}
	c := d.draw[0]
	d.draw = d.draw[1:]
	return c
}

// Draw moves the top card to the hand, reshuffling the discard first when the
// draw pile is empty. It returns nil when nothing is left to draw.
func (d *Deck) Draw() *cards.Instance {
	c := d.popTop()
	if c != nil {
		d.hand = append(d.hand, c)
	}
	return c
}

// DrawN draws up to n cards and returns those drawn.
func (d *Deck) DrawN(n int) []*cards.Instance {
	var drawn []*cards.Instance
	for i := 0; i < n; i++ {
		c := d.Draw()
		if c == nil {
			break
		}
		drawn = append(drawn, c)
	}
	return drawn
}

// DrawOrdered takes the next len(order) cards as a window and adds them to the
// hand in the order given. order must be a permutation of 0..len(order)-1 and
// may not ask for more cards than are available.
func (d *Deck) DrawOrdered(order []int) ([]*cards.Instance, error) {
	if err := ValidateOrder(order, d.Available()); err != nil {
		return nil, err
	}
	window := make([]*cards.Instance, 0, len(order))
	for len(window) < len(order) {
		window = append(window, d.popTop())
	}
	drawn := make([]*cards.Instance, 0, len(order))
	for _, idx := range order {
		d.hand = append(d.hand, window[idx])
		drawn = append(drawn, window[idx])
	}
	return drawn, nil
}

// ValidateOrder checks that order is a permutation drawable from available cards.
func ValidateOrder(order []int, available int) error {
	if len(order) > available {
		return fmt.Errorf("%w: %d cards requested, %d available", rules.ErrInvalidOrder, len(order), available)
	}
	seen := make([]bool, len(order))
	for _, idx := range order {
		if idx < 0 || idx >= len(order) {
			return fmt.Errorf("%w: index %d out of range", rules.ErrInvalidOrder, idx)
		}
		if seen[idx] {
			return fmt.Errorf("%w: index %d repeated", rules.ErrInvalidOrder, idx)
		}
		seen[idx] = true
	}
	return nil
}

// Move transfers an instance between zones by identity. The instance must be
// in from; anything else is a bug in the caller.
func (d *Deck) Move(c *cards.Instance, from, to Zone) {
	src := d.zone(from)
	i := indexOf(*src, c)
	if i < 0 {
		panic(fmt.Sprintf("zones: instance %s not in %s (found in %s)", c, from, d.ZoneOf(c)))
	}
	*src = append((*src)[:i], (*src)[i+1:]...)
	dst := d.zone(to)
	*dst = append(*dst, c)
}

// Discard moves a card from hand to discard.
func (d *Deck) Discard(c *cards.Instance) {
	d.Move(c, ZoneHand, ZoneDiscard)
}

// Play moves a card from hand to the played area.
func (d *Deck) Play(c *cards.Instance) {
	d.Move(c, ZoneHand, ZonePlayed)
}

// PlayBaseToFrontier moves a base from hand into the frontier.
func (d *Deck) PlayBaseToFrontier(c *cards.Instance) {
	d.playBase(c, ZoneFrontier, cards.PlacementFrontier)
}

// PlayBaseToInterior moves a base from hand into the interior.
func (d *Deck) PlayBaseToInterior(c *cards.Instance) {
	d.playBase(c, ZoneInterior, cards.PlacementInterior)
}

func (d *Deck) playBase(c *cards.Instance, z Zone, placement cards.Placement) {
	if !c.IsBase() {
		panic(fmt.Sprintf("zones: %s is not a base", c))
	}
	d.Move(c, ZoneHand, z)
	c.Placement = placement
	c.Deployed = false
	c.Damage = 0
}

// DestroyBase returns a base from its base zone to the discard pile.
func (d *Deck) DestroyBase(c *cards.Instance) {
	from := ZoneFrontier
	if c.Placement == cards.PlacementInterior {
		from = ZoneInterior
	}
	d.Move(c, from, ZoneDiscard)
	c.ResetBase()
}

// Remove takes an instance out of the deck entirely and reports where it was.
// The caller is responsible for scrapping it.
func (d *Deck) Remove(c *cards.Instance) Zone {
	z := d.ZoneOf(c)
	if z == ZoneNone {
		panic(fmt.Sprintf("zones: removing instance %s not owned by deck", c))
	}
	p := d.zone(z)
	i := indexOf(*p, c)
	*p = append((*p)[:i], (*p)[i+1:]...)
	if c.IsBase() {
		c.ResetBase()
	}
	return z
}

// EndTurn moves the played area and the hand to the discard pile. Bases stay.
func (d *Deck) EndTurn() {
	d.discard = append(d.discard, d.played...)
	d.discard = append(d.discard, d.hand...)
	d.played = nil
	d.hand = nil
}

// CloneWith deep-copies the deck. clone maps each instance to its copy so that
// references held elsewhere can be remapped consistently.
func (d *Deck) CloneWith(rng *rand.Rand, clone func(*cards.Instance) *cards.Instance) *Deck {
	cp := &Deck{rng: rng}
	for _, z := range allZones {
		src := *d.zone(z)
		if src == nil {
			continue
		}
		dst := make([]*cards.Instance, len(src))
		for i, c := range src {
			dst[i] = clone(c)
		}
		*cp.zone(z) = dst
	}
	return cp
}

// CheckInvariants returns an error if an instance appears twice or is scrapped.
func (d *Deck) CheckInvariants() error {
	seen := make(map[string]Zone)
	for _, z := range allZones {
		for _, c := range *d.zone(z) {
			if c.Scrapped() {
				return fmt.Errorf("scrapped instance %s still in %s", c, z)
			}
			if prev, dup := seen[c.ID]; dup {
				return fmt.Errorf("instance %s in both %s and %s", c, prev, z)
			}
			seen[c.ID] = z
		}
	}
	return nil
}

func indexOf(list []*cards.Instance, c *cards.Instance) int {
	for i, x := range list {
		if x == c {
			return i
		}
	}
	return -1
}
