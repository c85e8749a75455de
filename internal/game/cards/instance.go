package cards

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
)

// Instance is one physical copy of a card in a match.
type Instance struct {
	ID   string
	Type *CardType

	AttackBonus    int
	TradeBonus     int
	AuthorityBonus int

	// Spent is set once the auto-draw effect fired; cleared only by a shuffle.
	Spent bool
	// RegenDirty tells renderers the card art should be regenerated.
	RegenDirty bool
	ArtSeed    uint64

	// Base-only state.
	Damage    int
	Placement Placement
	Deployed  bool

	scrapped bool
}

// NewInstance allocates a fresh copy of t with no bonuses.
func NewInstance(t *CardType, artSeed uint64) *Instance {
	if t == nil {
		panic("cards: NewInstance with nil card type")
	}
	return &Instance{
		ID:      uuid.NewString(),
		Type:    t,
		ArtSeed: artSeed,
	}
}

// NewSeededInstance is NewInstance with the id and art seed drawn from rng, so
// a game dealt from the same seed gets the same instance ids.
func NewSeededInstance(t *CardType, rng *rand.Rand) *Instance {
	artSeed := rng.Uint64()
	id, err := uuid.NewRandomFromReader(randReader{rng})
	if err != nil {
		panic(fmt.Sprintf("cards: instance id: %v", err))
	}
	c := NewInstance(t, artSeed)
	c.ID = id.String()
	return c
}

type randReader struct{ rng *rand.Rand }

func (r randReader) Read(p []byte) (int, error) {
	for i := 0; i < len(p); i += 8 {
		v := r.rng.Uint64()
		for j := 0; j < 8 && i+j < len(p); j++ {
			p[i+j] = byte(v >> (8 * j))
		}
	}
	return len(p), nil
}

// ApplyUpgrade adds amount to the bonus selected by kind and marks the art dirty.
func (c *Instance) ApplyUpgrade(kind UpgradeKind, amount int) {
	c.mustLive()
	switch kind {
	case UpgradeAttack:
		c.AttackBonus += amount
	case UpgradeTrade:
		c.TradeBonus += amount
	case UpgradeAuthority:
		c.AuthorityBonus += amount
	default:
		return
	}
	c.RegenDirty = true
}

// TotalAttack is the printed combat value plus the permanent bonus.
func (c *Instance) TotalAttack() int {
	c.mustLive()
	return c.Type.BaseAttack() + c.AttackBonus
}

// TotalTrade is the printed trade value plus the permanent bonus.
func (c *Instance) TotalTrade() int {
	c.mustLive()
	return c.Type.BaseTrade() + c.TradeBonus
}

// TotalAuthority is the printed authority value plus the permanent bonus.
func (c *Instance) TotalAuthority() int {
	c.mustLive()
	return c.Type.BaseAuthority() + c.AuthorityBonus
}

// BonusFor returns the bonus that applies to a resource effect.
// A nil instance contributes nothing.
func (c *Instance) BonusFor(effectType EffectType) int {
	if c == nil {
		return 0
	}
	switch effectType {
	case EffectAddCombat:
		return c.AttackBonus
	case EffectAddTrade:
		return c.TradeBonus
	case EffectAddAuthority:
		return c.AuthorityBonus
	default:
		return 0
	}
}

// IsBase reports whether the instance is a copy of a base.
func (c *Instance) IsBase() bool {
	return c.Type.IsBase()
}

// ResetBase clears placement, damage and deployment.
func (c *Instance) ResetBase() {
	c.Damage = 0
	c.Placement = PlacementNone
	c.Deployed = false
}

// MarkScrapped destroys the instance. Scrapping twice is a contract violation.
func (c *Instance) MarkScrapped() {
	if c.scrapped {
		panic(fmt.Sprintf("cards: instance %s (%s) scrapped twice", c.ID, c.Type.ID))
	}
	c.scrapped = true
}

// Scrapped reports whether the instance has been removed from the game.
func (c *Instance) Scrapped() bool {
	return c.scrapped
}

// Clone returns an independent copy sharing the immutable card type.
func (c *Instance) Clone() *Instance {
	cp := *c
	return &cp
}

func (c *Instance) mustLive() {
	if c.scrapped {
		panic(fmt.Sprintf("cards: instance %s (%s) used after scrap", c.ID, c.Type.ID))
	}
}

func (c *Instance) String() string {
	return fmt.Sprintf("%s#%s", c.Type.ID, shortID(c.ID))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
