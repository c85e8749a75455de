package game

import (
	"encoding/json"
	"slices"

	"github.com/realmforge/realmforge-server-go/internal/game/cards"
	"github.com/realmforge/realmforge-server-go/internal/game/zones"
)

// Spectator is the viewer id that sees every hand.
const Spectator = ""

// GameView is the state of a match as one viewer may see it.
type GameView struct {
	GameID         string       `json:"game_id"`
	Viewer         string       `json:"viewer,omitempty"`
	Turn           int          `json:"turn"`
	Phase          string       `json:"phase"`
	ActivePlayerID string       `json:"active_player_id"`
	GameOver       bool         `json:"game_over"`
	Winner         string       `json:"winner,omitempty"`
	Players        []PlayerView `json:"players"`
	TradeRow       TradeRowView `json:"trade_row"`
	Choice         *ChoiceView  `json:"choice,omitempty"`
}

// PlayerView is one seat. Hand is only filled for its owner and spectators;
// the draw pile is always a count.
type PlayerView struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Alive           bool       `json:"alive"`
	Authority       int        `json:"authority"`
	Trade           int        `json:"trade"`
	Combat          int        `json:"combat"`
	D10             int        `json:"d10"`
	D4              int        `json:"d4"`
	HandSize        int        `json:"hand_size"`
	FactionsPlayed  []string   `json:"factions_played"`
	NextShipFree    bool       `json:"next_ship_free"`
	NextShipTop     bool       `json:"next_ship_top"`
	PendingDiscards int        `json:"pending_discards"`
	HandCount       int        `json:"hand_count"`
	Hand            []CardView `json:"hand,omitempty"`
	DrawCount       int        `json:"draw_count"`
	Discard         []CardView `json:"discard"`
	Played          []CardView `json:"played"`
	Frontier        []CardView `json:"frontier"`
	Interior        []CardView `json:"interior"`
}

// CardView is one card instance.
type CardView struct {
	ID             string `json:"id"`
	TypeID         string `json:"type_id"`
	Name           string `json:"name"`
	Cost           int    `json:"cost"`
	Faction        string `json:"faction"`
	Kind           string `json:"kind"`
	Attack         int    `json:"attack"`
	Trade          int    `json:"trade"`
	Authority      int    `json:"authority"`
	AttackBonus    int    `json:"attack_bonus,omitempty"`
	TradeBonus     int    `json:"trade_bonus,omitempty"`
	AuthorityBonus int    `json:"authority_bonus,omitempty"`
	Spent          bool   `json:"spent,omitempty"`
	RegenDirty     bool   `json:"regen_dirty,omitempty"`
	ArtSeed        uint64 `json:"art_seed"`
	Defense        int    `json:"defense,omitempty"`
	Damage         int    `json:"damage,omitempty"`
	Placement      string `json:"placement,omitempty"`
	Deployed       bool   `json:"deployed,omitempty"`
}

// TradeRowView lists the market. Empty slots are nil.
type TradeRowView struct {
	Slots     []*CardView `json:"slots"`
	Explorer  *CardView   `json:"explorer,omitempty"`
	Remaining int         `json:"remaining"`
}

// ChoiceView describes the outstanding choice. Options are only shown to the
// chooser and spectators.
type ChoiceView struct {
	Kind      string   `json:"kind"`
	PlayerID  string   `json:"player_id"`
	SourceID  string   `json:"source_id,omitempty"`
	Optional  bool     `json:"optional"`
	Remaining int      `json:"remaining"`
	Options   []string `json:"options,omitempty"`
}

// View renders the game for viewerID. Spectator sees every hand. It never
// mutates the game.
func (g *Game) View(viewerID string) *GameView {
	view := &GameView{
		GameID:         g.ID,
		Viewer:         viewerID,
		Turn:           g.st.turns.TurnNumber(),
		Phase:          g.st.turns.CurrentPhase().String(),
		ActivePlayerID: g.ActivePlayer().ID,
		GameOver:       g.st.over,
		Winner:         g.Winner(),
	}

	for _, p := range g.st.players {
		pv := PlayerView{
			ID:              p.ID,
			Name:            p.Name,
			Alive:           p.IsAlive(),
			Authority:       p.Authority,
			Trade:           p.Trade,
			Combat:          p.Combat,
			D10:             p.D10,
			D4:              p.D4,
			HandSize:        p.HandSize(g.cfg.BaseHandSize),
			FactionsPlayed:  factionNames(p.FactionsPlayed),
			NextShipFree:    p.NextShipFree,
			NextShipTop:     p.NextShipTop,
			PendingDiscards: p.PendingDiscards,
			HandCount:       p.Deck.Len(zones.ZoneHand),
			DrawCount:       p.Deck.Len(zones.ZoneDraw),
			Discard:         cardViews(p.Deck.Cards(zones.ZoneDiscard)),
			Played:          cardViews(p.Deck.Cards(zones.ZonePlayed)),
			Frontier:        cardViews(p.Deck.Cards(zones.ZoneFrontier)),
			Interior:        cardViews(p.Deck.Cards(zones.ZoneInterior)),
		}
		if viewerID == Spectator || viewerID == p.ID {
			pv.Hand = cardViews(p.Deck.Cards(zones.ZoneHand))
		}
		view.Players = append(view.Players, pv)
	}

	for _, c := range g.st.row.Slots() {
		if c == nil {
			view.TradeRow.Slots = append(view.TradeRow.Slots, nil)
			continue
		}
		cv := newCardView(c)
		view.TradeRow.Slots = append(view.TradeRow.Slots, &cv)
	}
	if t := g.st.row.Explorer(); t != nil {
		view.TradeRow.Explorer = &CardView{
			TypeID:  t.ID,
			Name:    t.Name,
			Cost:    t.Cost,
			Faction: t.Faction.String(),
			Kind:    t.Kind.String(),
			Attack:  t.BaseAttack(),
			Trade:   t.BaseTrade(),
		}
	}
	view.TradeRow.Remaining = g.st.row.Remaining()

	if ch := g.st.choice; ch != nil {
		cv := &ChoiceView{
			Kind:      ch.Kind.String(),
			PlayerID:  ch.PlayerID,
			SourceID:  ch.SourceID,
			Optional:  ch.Optional,
			Remaining: ch.Remaining,
		}
		if viewerID == Spectator || viewerID == ch.PlayerID {
			cv.Options = append([]string(nil), ch.Options...)
		}
		view.Choice = cv
	}
	return view
}

// MarshalView renders the view for viewerID as JSON.
func (g *Game) MarshalView(viewerID string) ([]byte, error) {
	return json.Marshal(g.View(viewerID))
}

func newCardView(c *cards.Instance) CardView {
	cv := CardView{
		ID:             c.ID,
		TypeID:         c.Type.ID,
		Name:           c.Type.Name,
		Cost:           c.Type.Cost,
		Faction:        c.Type.Faction.String(),
		Kind:           c.Type.Kind.String(),
		Attack:         c.TotalAttack(),
		Trade:          c.TotalTrade(),
		Authority:      c.TotalAuthority(),
		AttackBonus:    c.AttackBonus,
		TradeBonus:     c.TradeBonus,
		AuthorityBonus: c.AuthorityBonus,
		Spent:          c.Spent,
		RegenDirty:     c.RegenDirty,
		ArtSeed:        c.ArtSeed,
	}
	if c.IsBase() {
		cv.Defense = c.Type.Defense
		cv.Damage = c.Damage
		cv.Deployed = c.Deployed
		if c.Placement != cards.PlacementNone {
			cv.Placement = c.Placement.String()
		}
	}
	return cv
}

func cardViews(list []*cards.Instance) []CardView {
	out := make([]CardView, 0, len(list))
	for _, c := range list {
		out = append(out, newCardView(c))
	}
	return out
}

func factionNames(played map[cards.Faction]bool) []string {
	out := make([]string, 0, len(played))
	for f, ok := range played {
		if ok {
			out = append(out, f.String())
		}
	}
	slices.Sort(out)
	return out
}
