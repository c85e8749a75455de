package game

import (
	"maps"

	"github.com/realmforge/realmforge-server-go/internal/game/cards"
	"github.com/realmforge/realmforge-server-go/internal/game/zones"
)

// Rules holds the tunable numbers of a match.
type Rules struct {
	StartingAuthority int
	BaseHandSize      int
	TradeRowSize      int
	StartingD10       int
}

// DefaultRules returns the standard rule set.
func DefaultRules() Rules {
	return Rules{
		StartingAuthority: 50,
		BaseHandSize:      5,
		TradeRowSize:      5,
		StartingD10:       5,
	}
}

// Player is one seat in a match.
type Player struct {
	ID   string
	Name string

	Authority int
	Trade     int
	Combat    int

	// D10 cycles 0..9; each wrap moves D4, which shifts hand size.
	D10 int
	D4  int

	FactionsPlayed map[cards.Faction]bool

	NextShipFree    bool
	NextShipFreeMax int // 0 means no cost limit
	NextShipTop     bool

	// PendingDiscards is raised by opponents and paid after this player's draw.
	PendingDiscards int

	Deck *zones.Deck

	// Transport is an opaque handle owned by the connection layer.
	Transport any
}

func newPlayer(id, name string, rules Rules, deck *zones.Deck) *Player {
	return &Player{
		ID:             id,
		Name:           name,
		Authority:      rules.StartingAuthority,
		D10:            rules.StartingD10,
		FactionsPlayed: make(map[cards.Faction]bool),
		Deck:           deck,
	}
}

// ResetTurn zeroes the turn pools and faction flags. Authority is untouched.
func (p *Player) ResetTurn() {
	p.Trade = 0
	p.Combat = 0
	clear(p.FactionsPlayed)
}

func (p *Player) AddTrade(amount int)     { p.Trade += amount }
func (p *Player) AddCombat(amount int)    { p.Combat += amount }
func (p *Player) AddAuthority(amount int) { p.Authority += amount }

// TakeDamage subtracts from authority, which may go negative.
func (p *Player) TakeDamage(amount int) {
	p.Authority -= amount
}

// IsAlive reports whether the player still has authority.
func (p *Player) IsAlive() bool {
	return p.Authority > 0
}

// HandSize is the number of cards drawn each turn.
func (p *Player) HandSize(base int) int {
	return max(1, base+p.D4)
}

// AdjustD10 moves the deck-flow tracker one step at a time. Wrapping past 9
// raises D4; wrapping below 0 lowers it, never under 0.
func (p *Player) AdjustD10(delta int) {
	for ; delta > 0; delta-- {
		p.D10++
		if p.D10 > 9 {
			p.D10 = 0
			p.D4++
		}
	}
	for ; delta < 0; delta++ {
		p.D10--
		if p.D10 < 0 {
			p.D10 = 9
			if p.D4 > 0 {
				p.D4--
			}
		}
	}
}

func (p *Player) clearShipFlags() {
	p.NextShipFree = false
	p.NextShipFreeMax = 0
	p.NextShipTop = false
}

func (p *Player) clone(deck *zones.Deck) *Player {
	cp := *p
	cp.FactionsPlayed = maps.Clone(p.FactionsPlayed)
	cp.Deck = deck
	return &cp
}
