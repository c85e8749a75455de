package zones

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/realmforge/realmforge-server-go/internal/game/cards"
	"github.com/realmforge/realmforge-server-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	scoutType = &cards.CardType{ID: "scout", Name: "Scout", Kind: cards.KindShip}
	towerType = &cards.CardType{ID: "tower", Name: "Tower", Kind: cards.KindBase, Defense: 4, Frontier: true}
)

func newDeck(t *testing.T) *Deck {
	t.Helper()
	return New(rand.New(rand.NewPCG(1, 2)))
}

func fill(d *Deck, z Zone, n int) []*cards.Instance {
	out := make([]*cards.Instance, n)
	for i := range out {
		out[i] = cards.NewInstance(scoutType, 0)
		d.Add(out[i], z)
	}
	return out
}

func ids(list []*cards.Instance) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.ID
	}
	return out
}

func TestDrawReshufflesDiscardWhenEmpty(t *testing.T) {
	d := newDeck(t)
	discarded := fill(d, ZoneDiscard, 3)
	for _, c := range discarded {
		c.Spent = true
	}

	drawn := d.Draw()
	require.NotNil(t, drawn)
	assert.Equal(t, 2, d.Len(ZoneDraw))
	assert.Equal(t, 0, d.Len(ZoneDiscard))
	assert.Equal(t, 1, d.Len(ZoneHand))
	for _, c := range discarded {
		assert.False(t, c.Spent, "reshuffle clears spent flags")
	}
	require.NoError(t, d.CheckInvariants())
}

func TestDrawFromEmptyDeckIsNoOp(t *testing.T) {
	d := newDeck(t)
	assert.Nil(t, d.Draw())
	assert.Empty(t, d.DrawN(3))
	assert.Equal(t, 0, d.Len(ZoneHand))
}

func TestDrawNStopsWhenExhausted(t *testing.T) {
	d := newDeck(t)
	fill(d, ZoneDraw, 2)
	fill(d, ZoneDiscard, 1)
	drawn := d.DrawN(5)
	assert.Len(t, drawn, 3)
	assert.Equal(t, 0, d.Available())
}

func TestShuffleClearsSpentFlags(t *testing.T) {
	d := newDeck(t)
	pile := fill(d, ZoneDraw, 10)
	for _, c := range pile {
		c.Spent = true
	}
	d.Shuffle()
	assert.ElementsMatch(t, ids(pile), ids(d.Cards(ZoneDraw)))
	for _, c := range d.Cards(ZoneDraw) {
		assert.False(t, c.Spent)
	}
}

func TestDrawOrdered(t *testing.T) {
	d := newDeck(t)
	pile := fill(d, ZoneDraw, 3)

	drawn, err := d.DrawOrdered([]int{2, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, []string{pile[2].ID, pile[0].ID, pile[1].ID}, ids(drawn))
	assert.Equal(t, ids(drawn), ids(d.Cards(ZoneHand)))
}

func TestDrawOrderedSpansReshuffle(t *testing.T) {
	d := newDeck(t)
	fill(d, ZoneDraw, 1)
	fill(d, ZoneDiscard, 2)

	drawn, err := d.DrawOrdered([]int{1, 2, 0})
	require.NoError(t, err)
	assert.Len(t, drawn, 3)
	assert.Equal(t, 0, d.Available())
	require.NoError(t, d.CheckInvariants())
}

func TestDrawOrderedRejectsBadPermutations(t *testing.T) {
	tests := []struct {
		name  string
		order []int
	}{
		{"repeat", []int{0, 0, 1}},
		{"out of range", []int{0, 1, 3}},
		{"negative", []int{-1, 0}},
		{"too many", []int{0, 1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDeck(t)
			fill(d, ZoneDraw, 5)
			before := ids(d.Cards(ZoneDraw))

			_, err := d.DrawOrdered(tt.order)
			require.Error(t, err)
			assert.True(t, errors.Is(err, rules.ErrInvalidOrder))
			assert.Equal(t, before, ids(d.Cards(ZoneDraw)), "rejected order leaves the pile intact")
			assert.Equal(t, 0, d.Len(ZoneHand))
		})
	}
}

func TestMovesByIdentity(t *testing.T) {
	d := newDeck(t)
	hand := fill(d, ZoneHand, 3)

	d.Play(hand[0])
	d.Discard(hand[1])
	assert.Equal(t, ZonePlayed, d.ZoneOf(hand[0]))
	assert.Equal(t, ZoneDiscard, d.ZoneOf(hand[1]))
	assert.Equal(t, ZoneHand, d.ZoneOf(hand[2]))

	assert.Panics(t, func() { d.Play(hand[0]) }, "card no longer in hand")
	assert.Panics(t, func() { d.Add(hand[2], ZoneDiscard) }, "duplicate ownership")
}

func TestPlayBaseAndDestroy(t *testing.T) {
	d := newDeck(t)
	tower := cards.NewInstance(towerType, 0)
	d.Add(tower, ZoneHand)

	d.PlayBaseToFrontier(tower)
	assert.Equal(t, ZoneFrontier, d.ZoneOf(tower))
	assert.Equal(t, cards.PlacementFrontier, tower.Placement)
	assert.False(t, tower.Deployed)

	tower.Damage = 3
	tower.Deployed = true
	d.DestroyBase(tower)
	assert.Equal(t, ZoneDiscard, d.ZoneOf(tower))
	assert.Equal(t, cards.PlacementNone, tower.Placement)
	assert.Zero(t, tower.Damage)
	assert.False(t, tower.Deployed)

	scout := cards.NewInstance(scoutType, 0)
	d.Add(scout, ZoneHand)
	assert.Panics(t, func() { d.PlayBaseToInterior(scout) })
}

func TestEndTurnLeavesBases(t *testing.T) {
	d := newDeck(t)
	fill(d, ZoneHand, 2)
	fill(d, ZonePlayed, 3)
	tower := cards.NewInstance(towerType, 0)
	d.Add(tower, ZoneHand)
	d.PlayBaseToInterior(tower)

	d.EndTurn()
	assert.Equal(t, 0, d.Len(ZoneHand))
	assert.Equal(t, 0, d.Len(ZonePlayed))
	assert.Equal(t, 5, d.Len(ZoneDiscard))
	assert.Equal(t, 1, d.Len(ZoneInterior))
}

func TestRemoveAndConservation(t *testing.T) {
	d := newDeck(t)
	all := append(fill(d, ZoneDraw, 4), fill(d, ZoneHand, 2)...)
	victim := all[4]

	z := d.Remove(victim)
	victim.MarkScrapped()
	assert.Equal(t, ZoneHand, z)

	_, _, found := d.Find(victim.ID)
	assert.False(t, found)
	assert.Len(t, d.All(), 5)
	assert.Panics(t, func() { d.Remove(victim) })
	require.NoError(t, d.CheckInvariants())
}

func TestAddToDrawTop(t *testing.T) {
	d := newDeck(t)
	fill(d, ZoneDraw, 2)
	top := cards.NewInstance(scoutType, 0)
	d.AddToDrawTop(top)
	assert.Same(t, top, d.Draw())
}

func TestCloneWithIsDeep(t *testing.T) {
	d := newDeck(t)
	fill(d, ZoneDraw, 3)
	fill(d, ZoneHand, 2)

	memo := map[*cards.Instance]*cards.Instance{}
	cp := d.CloneWith(rand.New(rand.NewPCG(1, 2)), func(c *cards.Instance) *cards.Instance {
		if m, ok := memo[c]; ok {
			return m
		}
		memo[c] = c.Clone()
		return memo[c]
	})

	cp.Draw()
	assert.Equal(t, 3, d.Len(ZoneDraw))
	assert.Equal(t, 2, cp.Len(ZoneDraw))
	assert.Equal(t, ids(d.Cards(ZoneHand)), ids(cp.Cards(ZoneHand))[:2])
	assert.NotSame(t, d.Cards(ZoneHand)[0], cp.Cards(ZoneHand)[0])
}
