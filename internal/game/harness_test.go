package game

import (
	"testing"

	"github.com/realmforge/realmforge-server-go/internal/game/cards"
	"github.com/realmforge/realmforge-server-go/internal/game/rules"
	"github.com/realmforge/realmforge-server-go/internal/game/zones"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func eff(t cards.EffectType, value int) cards.Effect {
	return cards.Effect{Type: t, Value: value}
}

// testCatalog is a small card pool that touches every effect type.
func testCatalog(t *testing.T) *cards.Catalog {
	t.Helper()
	types := []*cards.CardType{
		{ID: "scout", Name: "Scout", Effects: []cards.Effect{eff(cards.EffectAddTrade, 1)}},
		{ID: "viper", Name: "Viper", Effects: []cards.Effect{eff(cards.EffectAddCombat, 1)}},
		{ID: "explorer", Name: "Explorer", Cost: 2,
			Effects:      []cards.Effect{eff(cards.EffectAddTrade, 2)},
			ScrapEffects: []cards.Effect{eff(cards.EffectAddCombat, 2)}},
		{ID: "trader", Name: "Trader", Cost: 3, Faction: cards.FactionMerchant,
			Effects:     []cards.Effect{eff(cards.EffectAddTrade, 2)},
			AllyEffects: []cards.Effect{eff(cards.EffectAddAuthority, 4)}},
		{ID: "courier", Name: "Courier", Cost: 2, Faction: cards.FactionMerchant,
			Effects:  []cards.Effect{eff(cards.EffectDrawCards, 1)},
			AutoDraw: cards.AutoDrawOnDraw},
		{ID: "scholar", Name: "Scholar", Cost: 2,
			Effects: []cards.Effect{eff(cards.EffectDrawCards, 1)}},
		{ID: "hawk", Name: "Hawk", Cost: 1, Faction: cards.FactionWilds,
			Effects:     []cards.Effect{eff(cards.EffectAddCombat, 2)},
			AllyEffects: []cards.Effect{eff(cards.EffectAddCombat, 2)}},
		{ID: "raider", Name: "Raider", Cost: 3, Faction: cards.FactionWilds,
			Effects: []cards.Effect{eff(cards.EffectAddCombat, 3), eff(cards.EffectOpponentDiscard, 1)}},
		{ID: "salvager", Name: "Salvager", Cost: 2, Faction: cards.FactionArtificer,
			Effects: []cards.Effect{eff(cards.EffectScrapHandOrDiscard, 1)}},
		{ID: "smith", Name: "Smith", Cost: 3, Faction: cards.FactionArtificer,
			Effects: []cards.Effect{{Type: cards.EffectUpgradeCard, Value: 1, Upgrade: cards.UpgradeAttack}}},
		{ID: "mimic", Name: "Mimic", Cost: 4,
			Effects: []cards.Effect{eff(cards.EffectCopyShip, 1)}},
		{ID: "saboteur", Name: "Saboteur", Cost: 3, Faction: cards.FactionKingdom,
			Effects: []cards.Effect{eff(cards.EffectDestroyBase, 1)}},
		{ID: "broker", Name: "Broker", Cost: 2, Faction: cards.FactionMerchant,
			Effects: []cards.Effect{eff(cards.EffectScrapTradeRow, 1)}},
		{ID: "patron", Name: "Patron", Cost: 4, Faction: cards.FactionKingdom,
			Effects: []cards.Effect{eff(cards.EffectNextShipFree, 3), eff(cards.EffectNextShipTop, 1)}},
		{ID: "surveyor", Name: "Surveyor", Cost: 1,
			Effects: []cards.Effect{eff(cards.EffectDeckFlow, 7), {Type: cards.EffectType(999)}}},
		{ID: "tower", Name: "Tower", Cost: 3, Faction: cards.FactionKingdom, Kind: cards.KindBase,
			Defense: 4, Frontier: true,
			Effects: []cards.Effect{eff(cards.EffectAddCombat, 1)}},
		{ID: "keep", Name: "Keep", Cost: 4, Faction: cards.FactionKingdom, Kind: cards.KindBase,
			Defense: 5,
			Effects: []cards.Effect{eff(cards.EffectAddAuthority, 2)}},
		{ID: "den", Name: "Den", Cost: 4, Faction: cards.FactionWilds, Kind: cards.KindBase,
			Defense: 3, Spawns: "wolf"},
		{ID: "camp", Name: "Camp", Cost: 1, Kind: cards.KindBase,
			Defense: 2, Frontier: true, Temporary: true},
		{ID: "wolf", Name: "Wolf", Faction: cards.FactionWilds, Kind: cards.KindUnit,
			Effects: []cards.Effect{eff(cards.EffectAddCombat, 1)}},
		{ID: "hatchery", Name: "Hatchery", Cost: 5, Faction: cards.FactionWilds,
			Effects: []cards.Effect{{Type: cards.EffectSpawnUnit, Value: 2, Target: "imp"}, eff(cards.EffectAddTrade, 1)}},
		{ID: "imp", Name: "Imp", Faction: cards.FactionWilds, Kind: cards.KindUnit,
			Effects: []cards.Effect{eff(cards.EffectScrapHandOrDiscard, 1)}},
	}
	c, err := cards.NewCatalog(types...)
	require.NoError(t, err)
	return c
}

func testDecks() *cards.DeckList {
	return &cards.DeckList{
		StartingDeck: []cards.DeckEntry{{Card: "scout", Count: 8}, {Card: "viper", Count: 2}},
		Explorer:     "explorer",
		TradeDeck: []cards.DeckEntry{
			{Card: "trader", Count: 4},
			{Card: "hawk", Count: 4},
			{Card: "raider", Count: 2},
			{Card: "salvager", Count: 2},
			{Card: "tower", Count: 2},
			{Card: "keep", Count: 1},
		},
	}
}

func newTestGame(t *testing.T, players int, opts ...func(*Config)) *Game {
	t.Helper()
	seats := make([]Seat, players)
	for i := range seats {
		seats[i] = Seat{ID: string(rune('a' + i)), Name: "Player " + string(rune('A'+i))}
	}
	cfg := Config{
		ID:      "test-game",
		Catalog: testCatalog(t),
		Decks:   testDecks(),
		Seats:   seats,
		Seed:    42,
		Logger:  zaptest.NewLogger(t),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	g, err := New(cfg)
	require.NoError(t, err)
	return g
}

// give creates a fresh instance of typeID in one of p's zones.
func give(g *Game, p *Player, typeID string, z zones.Zone) *cards.Instance {
	c := cards.NewInstance(g.catalog.MustGet(typeID), 0)
	p.Deck.Add(c, z)
	return c
}

// placeBase puts a deployed base straight into play for p.
func placeBase(g *Game, p *Player, typeID string, placement cards.Placement) *cards.Instance {
	c := give(g, p, typeID, zones.ZoneHand)
	if placement == cards.PlacementFrontier {
		p.Deck.PlayBaseToFrontier(c)
	} else {
		p.Deck.PlayBaseToInterior(c)
	}
	c.Deployed = true
	return c
}

// empty takes every card out of a zone without scrapping it.
func empty(p *Player, z zones.Zone) {
	for _, c := range p.Deck.Cards(z) {
		p.Deck.Remove(c)
	}
}

func act(t *testing.T, g *Game, a Action) *Choice {
	t.Helper()
	ch, err := g.ProcessAction(a)
	require.NoError(t, err)
	return ch
}

// toMain submits the identity draw order for the active player.
func toMain(t *testing.T, g *Game) {
	t.Helper()
	act(t, g, Action{Type: ActionSubmitDrawOrder, PlayerID: g.ActivePlayer().ID})
	require.Equal(t, rules.PhaseMain, g.Phase())
}

// passTurn takes the active player from wherever they are to the next turn.
func passTurn(t *testing.T, g *Game) {
	t.Helper()
	if g.Phase() == rules.PhaseDrawOrder {
		toMain(t, g)
	}
	act(t, g, Action{Type: ActionEndTurn, PlayerID: g.ActivePlayer().ID})
}

func play(t *testing.T, g *Game, c *cards.Instance) *Choice {
	t.Helper()
	return act(t, g, Action{Type: ActionPlayCard, PlayerID: g.ActivePlayer().ID, CardID: c.ID})
}

func requireCode(t *testing.T, err error, code error) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, code)
	var ae *rules.ActionError
	require.ErrorAs(t, err, &ae)
}
