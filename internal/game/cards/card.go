package cards

// Effect is a single instruction on a card.
type Effect struct {
	Type  EffectType
	Value int
	// Target is an optional card type id. spawn_unit reads it as the unit to
	// create, upgrade_card as the only card type that may be upgraded.
	Target string
	// Upgrade names the bonus field for upgrade_card.
	Upgrade UpgradeKind
}

// CardType is the immutable definition shared by every copy of a card.
type CardType struct {
	ID      string
	Name    string
	Cost    int
	Faction Faction
	Kind    Kind

	Effects      []Effect
	AllyEffects  []Effect
	ScrapEffects []Effect

	// Spawns is the card type id a deployed base creates each turn.
	Spawns string
	// AutoDraw marks cards whose draw effect resolves while still in hand.
	AutoDraw AutoDrawTrigger

	// Base-only attributes.
	Defense   int
	Frontier  bool
	Temporary bool
}

// IsBase reports whether the type is a base.
func (t *CardType) IsBase() bool {
	return t.Kind == KindBase
}

// HasAlly reports whether the type carries ally effects.
func (t *CardType) HasAlly() bool {
	return len(t.AllyEffects) > 0
}

// HasScrap reports whether the type carries scrap effects.
func (t *CardType) HasScrap() bool {
	return len(t.ScrapEffects) > 0
}

// HasDrawEffect reports whether any primary effect draws cards.
func (t *CardType) HasDrawEffect() bool {
	return t.DrawValue() > 0
}

// DrawValue sums the primary draw_cards effects.
func (t *CardType) DrawValue() int {
	return t.sum(EffectDrawCards)
}

// BaseAttack is the printed combat contribution of the primary effects.
func (t *CardType) BaseAttack() int { return t.sum(EffectAddCombat) }

// BaseTrade is the printed trade contribution of the primary effects.
func (t *CardType) BaseTrade() int { return t.sum(EffectAddTrade) }

// BaseAuthority is the printed authority contribution of the primary effects.
func (t *CardType) BaseAuthority() int { return t.sum(EffectAddAuthority) }

func (t *CardType) sum(effectType EffectType) int {
	total := 0
	for _, e := range t.Effects {
		if e.Type == effectType {
			total += e.Value
		}
	}
	return total
}
