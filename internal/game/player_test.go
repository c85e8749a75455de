package game

import (
	"math/rand/v2"
	"testing"

	"github.com/realmforge/realmforge-server-go/internal/game/cards"
	"github.com/realmforge/realmforge-server-go/internal/game/zones"
	"github.com/stretchr/testify/assert"
)

func testPlayer() *Player {
	return newPlayer("p1", "Player One", DefaultRules(), zones.New(rand.New(rand.NewPCG(1, 1))))
}

func TestAdjustD10Wraparound(t *testing.T) {
	tests := []struct {
		name     string
		startD10 int
		startD4  int
		delta    int
		wantD10  int
		wantD4   int
	}{
		{"no wrap up", 5, 0, 3, 8, 0},
		{"overflow once", 8, 0, 3, 1, 1},
		{"overflow twice", 9, 2, 11, 0, 4},
		{"underflow once", 1, 2, -3, 8, 1},
		{"underflow floors d4", 0, 0, -1, 9, 0},
		{"exact boundary up", 9, 0, 1, 0, 1},
		{"exact boundary down", 0, 1, -1, 9, 0},
		{"zero delta", 4, 3, 0, 4, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPlayer()
			p.D10, p.D4 = tt.startD10, tt.startD4
			p.AdjustD10(tt.delta)
			assert.Equal(t, tt.wantD10, p.D10)
			assert.Equal(t, tt.wantD4, p.D4)
		})
	}
}

func TestHandSize(t *testing.T) {
	p := testPlayer()
	assert.Equal(t, 5, p.HandSize(5))
	p.D4 = 2
	assert.Equal(t, 7, p.HandSize(5))
	p.D4 = -10
	assert.Equal(t, 1, p.HandSize(5), "hand size never drops below one")
}

func TestResetTurnKeepsAuthority(t *testing.T) {
	p := testPlayer()
	p.AddTrade(4)
	p.AddCombat(3)
	p.AddAuthority(7)
	p.FactionsPlayed[cards.FactionWilds] = true

	p.ResetTurn()
	assert.Zero(t, p.Trade)
	assert.Zero(t, p.Combat)
	assert.Empty(t, p.FactionsPlayed)
	assert.Equal(t, 57, p.Authority, "authority has no ceiling and survives the reset")
}

func TestTakeDamageAndIsAlive(t *testing.T) {
	p := testPlayer()
	p.TakeDamage(49)
	assert.True(t, p.IsAlive())
	p.TakeDamage(3)
	assert.Equal(t, -2, p.Authority)
	assert.False(t, p.IsAlive())
}

func TestPlayerCloneIsIndependent(t *testing.T) {
	p := testPlayer()
	p.FactionsPlayed[cards.FactionMerchant] = true
	cp := p.clone(p.Deck)
	cp.FactionsPlayed[cards.FactionKingdom] = true
	cp.Authority = 1
	assert.Len(t, p.FactionsPlayed, 1)
	assert.Equal(t, 50, p.Authority)
}
