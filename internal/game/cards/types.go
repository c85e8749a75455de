package cards

import (
	"fmt"
	"strings"
)

// Faction identifies the allegiance printed on a card.
type Faction int

const (
	FactionNeutral Faction = iota
	FactionMerchant
	FactionWilds
	FactionKingdom
	FactionArtificer
)

// Factions lists every faction in declaration order.
var Factions = []Faction{FactionNeutral, FactionMerchant, FactionWilds, FactionKingdom, FactionArtificer}

var factionNames = map[Faction]string{
	FactionNeutral:   "neutral",
	FactionMerchant:  "merchant",
	FactionWilds:     "wilds",
	FactionKingdom:   "kingdom",
	FactionArtificer: "artificer",
}

func (f Faction) String() string {
	if name, ok := factionNames[f]; ok {
		return name
	}
	return fmt.Sprintf("faction_%d", int(f))
}

// ParseFaction converts a content name into a Faction.
func ParseFaction(s string) (Faction, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return FactionNeutral, nil
	}
	for f, name := range factionNames {
		if name == key {
			return f, nil
		}
	}
	return FactionNeutral, fmt.Errorf("unknown faction %q", s)
}

// Kind is the broad card category.
type Kind int

const (
	KindShip Kind = iota
	KindBase
	KindUnit
)

var kindNames = map[Kind]string{
	KindShip: "ship",
	KindBase: "base",
	KindUnit: "unit",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind_%d", int(k))
}

// ParseKind converts a content name into a Kind.
func ParseKind(s string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == key {
			return k, nil
		}
	}
	return KindShip, fmt.Errorf("unknown card kind %q", s)
}

// EffectType selects the handler that resolves an Effect.
// EffectUnknown is the zero value and resolves as a no-op.
type EffectType int

const (
	EffectUnknown EffectType = iota
	EffectAddTrade
	EffectAddCombat
	EffectAddAuthority
	EffectDrawCards
	EffectOpponentDiscard
	EffectScrapTradeRow
	EffectScrapHandOrDiscard
	EffectDestroyBase
	EffectCopyShip
	EffectNextShipFree
	EffectNextShipTop
	EffectUpgradeCard
	EffectSpawnUnit
	EffectDeckFlow
)

var effectNames = map[EffectType]string{
	EffectUnknown:            "unknown",
	EffectAddTrade:           "add_trade",
	EffectAddCombat:          "add_combat",
	EffectAddAuthority:       "add_authority",
	EffectDrawCards:          "draw_cards",
	EffectOpponentDiscard:    "opponent_discard",
	EffectScrapTradeRow:      "scrap_trade_row",
	EffectScrapHandOrDiscard: "scrap_hand_or_discard",
	EffectDestroyBase:        "destroy_base",
	EffectCopyShip:           "copy_ship",
	EffectNextShipFree:       "next_ship_free",
	EffectNextShipTop:        "next_ship_top",
	EffectUpgradeCard:        "upgrade_card",
	EffectSpawnUnit:          "spawn_unit",
	EffectDeckFlow:           "deck_flow",
}

func (t EffectType) String() string {
	if name, ok := effectNames[t]; ok {
		return name
	}
	return fmt.Sprintf("effect_%d", int(t))
}

// ParseEffectType never fails: names this build does not know map to
// EffectUnknown so newer content still loads.
func ParseEffectType(s string) EffectType {
	key := strings.ToLower(strings.TrimSpace(s))
	for t, name := range effectNames {
		if name == key {
			return t
		}
	}
	return EffectUnknown
}

// UpgradeKind names the permanent bonus field an upgrade adds to.
type UpgradeKind int

const (
	UpgradeNone UpgradeKind = iota
	UpgradeAttack
	UpgradeTrade
	UpgradeAuthority
)

var upgradeNames = map[UpgradeKind]string{
	UpgradeNone:      "",
	UpgradeAttack:    "attack",
	UpgradeTrade:     "trade",
	UpgradeAuthority: "authority",
}

func (u UpgradeKind) String() string {
	if name, ok := upgradeNames[u]; ok {
		return name
	}
	return fmt.Sprintf("upgrade_%d", int(u))
}

// ParseUpgradeKind converts a content name into an UpgradeKind.
func ParseUpgradeKind(s string) (UpgradeKind, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for u, name := range upgradeNames {
		if name == key {
			return u, nil
		}
	}
	return UpgradeNone, fmt.Errorf("unknown upgrade kind %q", s)
}

// AutoDrawTrigger controls whether a card's draw effect fires on its own.
type AutoDrawTrigger int

const (
	AutoDrawNone AutoDrawTrigger = iota
	AutoDrawOnDraw
)

func (a AutoDrawTrigger) String() string {
	if a == AutoDrawOnDraw {
		return "on_draw"
	}
	return "none"
}

// ParseAutoDrawTrigger converts a content name into an AutoDrawTrigger.
func ParseAutoDrawTrigger(s string) (AutoDrawTrigger, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return AutoDrawNone, nil
	case "on_draw":
		return AutoDrawOnDraw, nil
	default:
		return AutoDrawNone, fmt.Errorf("unknown auto_draw trigger %q", s)
	}
}

// Placement is the base zone a base instance occupies.
type Placement int

const (
	PlacementNone Placement = iota
	PlacementFrontier
	PlacementInterior
)

func (p Placement) String() string {
	switch p {
	case PlacementFrontier:
		return "frontier"
	case PlacementInterior:
		return "interior"
	default:
		return "none"
	}
}

// ParsePlacement converts a wire name into a Placement. Empty means no
// preference.
func ParsePlacement(s string) (Placement, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return PlacementNone, nil
	case "frontier":
		return PlacementFrontier, nil
	case "interior":
		return PlacementInterior, nil
	default:
		return PlacementNone, fmt.Errorf("unknown placement %q", s)
	}
}
