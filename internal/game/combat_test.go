package game

import (
	"testing"

	"github.com/realmforge/realmforge-server-go/internal/game/cards"
	"github.com/realmforge/realmforge-server-go/internal/game/rules"
	"github.com/realmforge/realmforge-server-go/internal/game/zones"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttackBaseThenPlayer(t *testing.T) {
	g := newTestGame(t, 2)
	toMain(t, g)
	a := g.ActivePlayer()
	b, _ := g.Player("b")
	tower := placeBase(g, b, "tower", cards.PlacementFrontier)
	a.Combat = 5

	_, err := g.ProcessAction(Action{Type: ActionAttackPlayer, PlayerID: "a", TargetPlayer: "b", Amount: 1})
	requireCode(t, err, rules.ErrInvalidTarget)

	var destroyed []rules.Event
	g.SubscribeTyped(rules.EventBaseDestroyed, func(e rules.Event) { destroyed = append(destroyed, e) })

	act(t, g, Action{Type: ActionAttackBase, PlayerID: "a", CardID: tower.ID, Amount: 4})
	a, _ = g.Player("a")
	b, _ = g.Player("b")
	tower, _, _ = b.Deck.Find(tower.ID)
	assert.Equal(t, 1, a.Combat)
	assert.Equal(t, zones.ZoneDiscard, b.Deck.ZoneOf(tower))
	assert.Zero(t, tower.Damage)
	assert.Equal(t, cards.PlacementNone, tower.Placement)
	require.Len(t, destroyed, 1)
	assert.Equal(t, "a", destroyed[0].SourceID)

	act(t, g, Action{Type: ActionAttackPlayer, PlayerID: "a", TargetPlayer: "b", Amount: 1})
	assert.Equal(t, 49, b.Authority)
	assert.Zero(t, a.Combat)
}

func TestAttackBasePriority(t *testing.T) {
	g := newTestGame(t, 2)
	toMain(t, g)
	a := g.ActivePlayer()
	b, _ := g.Player("b")
	keep := placeBase(g, b, "keep", cards.PlacementInterior)
	tower := placeBase(g, b, "tower", cards.PlacementFrontier)
	a.Combat = 20

	assert.Equal(t, []string{tower.ID}, g.LegalTargets("b"))

	_, err := g.ProcessAction(Action{Type: ActionAttackBase, PlayerID: "a", CardID: keep.ID, Amount: 5})
	requireCode(t, err, rules.ErrInvalidTarget)

	act(t, g, Action{Type: ActionAttackBase, PlayerID: "a", CardID: tower.ID, Amount: 4})
	assert.Equal(t, []string{keep.ID}, g.LegalTargets("b"))

	act(t, g, Action{Type: ActionAttackBase, PlayerID: "a", CardID: keep.ID, Amount: 5})
	assert.Equal(t, []string{"b"}, g.LegalTargets("b"))
	assert.Nil(t, g.LegalTargets("nobody"))
}

func TestAttackValidation(t *testing.T) {
	g := newTestGame(t, 2)
	toMain(t, g)
	g.ActivePlayer().Combat = 3
	b, _ := g.Player("b")
	tower := placeBase(g, b, "tower", cards.PlacementFrontier)
	own := placeBase(g, g.ActivePlayer(), "tower", cards.PlacementFrontier)
	sum := g.Checksum()

	tests := []struct {
		name   string
		action Action
		code   error
	}{
		{"zero amount", Action{Type: ActionAttackBase, CardID: tower.ID, Amount: 0}, rules.ErrInvalidAmount},
		{"negative amount", Action{Type: ActionAttackBase, CardID: tower.ID, Amount: -2}, rules.ErrInvalidAmount},
		{"over pool", Action{Type: ActionAttackBase, CardID: tower.ID, Amount: 4}, rules.ErrInsufficientCombat},
		{"own base", Action{Type: ActionAttackBase, CardID: own.ID, Amount: 1}, rules.ErrUnknownCard},
		{"missing base", Action{Type: ActionAttackBase, CardID: "nope", Amount: 1}, rules.ErrUnknownCard},
		{"self", Action{Type: ActionAttackPlayer, TargetPlayer: "a", Amount: 1}, rules.ErrInvalidTarget},
		{"stranger", Action{Type: ActionAttackPlayer, TargetPlayer: "zed", Amount: 1}, rules.ErrUnknownPlayer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.action.PlayerID = "a"
			_, err := g.ProcessAction(tt.action)
			requireCode(t, err, tt.code)
			assert.Equal(t, sum, g.Checksum())
		})
	}
}

func TestAttackBaseInHandIsRejected(t *testing.T) {
	g := newTestGame(t, 2)
	toMain(t, g)
	g.ActivePlayer().Combat = 3
	b, _ := g.Player("b")
	held := give(g, b, "tower", zones.ZoneHand)

	_, err := g.ProcessAction(Action{Type: ActionAttackBase, PlayerID: "a", CardID: held.ID, Amount: 1})
	requireCode(t, err, rules.ErrInvalidTarget)
}

func TestBaseDamageClearsAtEndOfTurn(t *testing.T) {
	g := newTestGame(t, 2)
	toMain(t, g)
	g.ActivePlayer().Combat = 3
	b, _ := g.Player("b")
	keep := placeBase(g, b, "keep", cards.PlacementInterior)

	act(t, g, Action{Type: ActionAttackBase, PlayerID: "a", CardID: keep.ID, Amount: 3})
	assert.Equal(t, 3, keep.Damage)
	assert.Equal(t, zones.ZoneInterior, b.Deck.ZoneOf(keep))

	act(t, g, Action{Type: ActionEndTurn, PlayerID: "a"})
	assert.Zero(t, keep.Damage)
}

func TestTemporaryBaseIsScrappedWhenDestroyed(t *testing.T) {
	g := newTestGame(t, 2)
	toMain(t, g)
	g.ActivePlayer().Combat = 2
	b, _ := g.Player("b")
	camp := placeBase(g, b, "camp", cards.PlacementFrontier)
	before := len(b.Deck.All())

	act(t, g, Action{Type: ActionAttackBase, PlayerID: "a", CardID: camp.ID, Amount: 2})
	assert.True(t, camp.Scrapped())
	_, _, found := b.Deck.Find(camp.ID)
	assert.False(t, found)
	assert.Len(t, b.Deck.All(), before-1)
	assert.Equal(t, 5, b.D10, "destroyed bases do not cost their owner deck flow")
}

func TestAttackDefaultsToNextOpponent(t *testing.T) {
	g := newTestGame(t, 3)
	toMain(t, g)
	g.ActivePlayer().Combat = 4

	act(t, g, Action{Type: ActionAttackPlayer, PlayerID: "a", Amount: 4})
	b, _ := g.Player("b")
	c, _ := g.Player("c")
	assert.Equal(t, 46, b.Authority)
	assert.Equal(t, 50, c.Authority)
}

func TestOverkillPastZeroStillEliminates(t *testing.T) {
	g := newTestGame(t, 2)
	toMain(t, g)
	g.ActivePlayer().Combat = 80

	var over []rules.Event
	g.SubscribeTyped(rules.EventGameOver, func(e rules.Event) { over = append(over, e) })

	act(t, g, Action{Type: ActionAttackPlayer, PlayerID: "a", TargetPlayer: "b", Amount: 80})
	b, _ := g.Player("b")
	assert.Equal(t, -30, b.Authority)
	assert.True(t, g.IsOver())
	require.Len(t, over, 1)
	assert.Equal(t, "a", over[0].PlayerID)

	_, err := g.ProcessAction(Action{Type: ActionEndTurn, PlayerID: "a"})
	requireCode(t, err, rules.ErrGameOver)
}
