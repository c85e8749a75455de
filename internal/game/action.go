package game

import (
	"fmt"

	"github.com/realmforge/realmforge-server-go/internal/game/cards"
)

// ActionType discriminates player actions.
type ActionType int

const (
	ActionUnknown ActionType = iota
	ActionPlayCard
	ActionBuyCard
	ActionBuyExplorer
	ActionScrapCard
	ActionAttackPlayer
	ActionAttackBase
	ActionSubmitDrawOrder
	ActionResolveChoice
	ActionEndTurn
)

var actionNames = map[ActionType]string{
	ActionUnknown:         "UNKNOWN",
	ActionPlayCard:        "PLAY_CARD",
	ActionBuyCard:         "BUY_CARD",
	ActionBuyExplorer:     "BUY_EXPLORER",
	ActionScrapCard:       "SCRAP_CARD",
	ActionAttackPlayer:    "ATTACK_PLAYER",
	ActionAttackBase:      "ATTACK_BASE",
	ActionSubmitDrawOrder: "SUBMIT_DRAW_ORDER",
	ActionResolveChoice:   "RESOLVE_CHOICE",
	ActionEndTurn:         "END_TURN",
}

func (a ActionType) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("ACTION_%d", int(a))
}

// ParseActionType maps a wire name to an ActionType. Unknown names return
// ActionUnknown, which ProcessAction rejects.
func ParseActionType(s string) ActionType {
	for t, name := range actionNames {
		if name == s {
			return t
		}
	}
	return ActionUnknown
}

// Action is a request from a player. Only the fields relevant to Type are read.
type Action struct {
	Type     ActionType
	PlayerID string

	// CardID names the card for PlayCard, ScrapCard and AttackBase.
	CardID string
	// Slot is the trade row index for BuyCard.
	Slot int
	// Amount is the combat spent by an attack.
	Amount int
	// TargetPlayer is the defender for AttackPlayer; empty picks the next
	// living opponent.
	TargetPlayer string
	// Order is the draw permutation for SubmitDrawOrder; nil keeps pile order.
	Order []int
	// Selection answers a pending choice; empty declines an optional one.
	Selection []string
	// Placement chooses the zone for a base played with PlayCard.
	Placement cards.Placement
}
