package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/realmforge/realmforge-server-go/internal/game/cards"
	"github.com/realmforge/realmforge-server-go/internal/game/rules"
	"github.com/realmforge/realmforge-server-go/internal/game/zones"
	"go.uber.org/zap"
)

const (
	minPlayers = 2
	maxPlayers = 4
)

// Seat describes a player joining a match.
type Seat struct {
	ID   string
	Name string
}

// Config carries everything needed to set up a match.
type Config struct {
	ID      string
	Catalog *cards.Catalog
	Decks   *cards.DeckList
	Seats   []Seat
	Rules   Rules
	// Seed drives every shuffle and refill. Zero picks a time-based seed.
	Seed   uint64
	Logger *zap.Logger

	SelectionHook SelectionHook
	HookContext   any
}

// state is everything an action may mutate. It is deep-copied before each
// action and written back in place when the action is rejected.
type state struct {
	src *rand.PCG
	rng *rand.Rand

	players []*Player
	row     *TradeRow
	turns   *rules.TurnManager

	choice *Choice
	queue  []frame

	over   bool
	winner int

	// events raised by the action in progress
	events []rules.Event
}

// Game is the authoritative state of one match. It does no locking; callers
// serialize access.
type Game struct {
	ID      string
	catalog *cards.Catalog
	cfg     Rules
	logger  *zap.Logger
	bus     *rules.EventBus

	st *state
}

// New deals the starting decks, fills the trade row and starts the first turn.
func New(cfg Config) (*Game, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("game: catalog is required")
	}
	if cfg.Decks == nil {
		return nil, errors.New("game: deck list is required")
	}
	if n := len(cfg.Seats); n < minPlayers || n > maxPlayers {
		return nil, fmt.Errorf("game: %d players, need %d to %d", n, minPlayers, maxPlayers)
	}
	if err := cfg.Decks.Validate(cfg.Catalog); err != nil {
		return nil, fmt.Errorf("game: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	g := &Game{
		ID:      id,
		catalog: cfg.Catalog,
		cfg:     cfg.Rules.withDefaults(),
		logger:  logger.With(zap.String("game_id", id)),
		bus:     rules.NewEventBus(),
		st: &state{
			src:    src,
			rng:    rand.New(src),
			winner: -1,
		},
	}

	seen := make(map[string]bool, len(cfg.Seats))
	starting := cards.Expand(cfg.Catalog, cfg.Decks.StartingDeck)
	for _, seat := range cfg.Seats {
		pid := seat.ID
		if pid == "" {
			pid = uuid.NewString()
		}
		if seen[pid] {
			return nil, fmt.Errorf("game: duplicate player id %q", pid)
		}
		seen[pid] = true

		deck := zones.New(g.st.rng)
		for _, t := range starting {
			deck.Add(cards.NewSeededInstance(t, g.st.rng), zones.ZoneDraw)
		}
		deck.Shuffle()
		g.st.players = append(g.st.players, newPlayer(pid, seat.Name, g.cfg, deck))
	}

	var explorer *cards.CardType
	if cfg.Decks.Explorer != "" {
		explorer = cfg.Catalog.MustGet(cfg.Decks.Explorer)
	}
	g.st.row = NewTradeRow(g.cfg.TradeRowSize, cards.Expand(cfg.Catalog, cfg.Decks.TradeDeck), explorer, g.st.rng)
	g.st.row.SetSelectionHook(cfg.SelectionHook, cfg.HookContext)
	g.st.row.Fill()

	g.st.turns = rules.NewTurnManager(0)
	g.startTurn()
	// Nobody can be listening yet.
	g.st.events = nil

	g.logger.Info("game created",
		zap.Int("players", len(g.st.players)),
		zap.Uint64("seed", seed),
		zap.Int("trade_deck", g.st.row.Remaining()),
	)
	return g, nil
}

func (r Rules) withDefaults() Rules {
	def := DefaultRules()
	if r.StartingAuthority <= 0 {
		r.StartingAuthority = def.StartingAuthority
	}
	if r.BaseHandSize <= 0 {
		r.BaseHandSize = def.BaseHandSize
	}
	if r.TradeRowSize <= 0 {
		r.TradeRowSize = def.TradeRowSize
	}
	if r.StartingD10 < 0 || r.StartingD10 > 9 {
		r.StartingD10 = def.StartingD10
	}
	return r
}

// Subscribe registers a listener for every event.
func (g *Game) Subscribe(listener rules.Listener) int {
	return g.bus.Subscribe(listener)
}

// SubscribeTyped registers a listener for one event type.
func (g *Game) SubscribeTyped(eventType rules.EventType, listener rules.Listener) int {
	return g.bus.SubscribeTyped(eventType, listener)
}

// Unsubscribe removes a listener.
func (g *Game) Unsubscribe(handle int) {
	g.bus.Unsubscribe(handle)
}

// SetSelectionHook replaces the trade row refill override.
func (g *Game) SetSelectionHook(hook SelectionHook, ctx any) {
	g.st.row.SetSelectionHook(hook, ctx)
}

// Catalog returns the card definitions the match was built from.
func (g *Game) Catalog() *cards.Catalog { return g.catalog }

// Rules returns the match rules.
func (g *Game) Rules() Rules { return g.cfg }

// Players returns the seats in turn order.
func (g *Game) Players() []*Player {
	return append([]*Player(nil), g.st.players...)
}

// Player looks a player up by id.
func (g *Game) Player(id string) (*Player, bool) {
	idx := g.playerIndex(id)
	if idx < 0 {
		return nil, false
	}
	return g.st.players[idx], true
}

// ActivePlayer returns the player whose turn it is.
func (g *Game) ActivePlayer() *Player {
	return g.st.players[g.st.turns.ActivePlayer()]
}

// Phase returns the current turn phase.
func (g *Game) Phase() rules.Phase { return g.st.turns.CurrentPhase() }

// Turn returns the turn counter.
func (g *Game) Turn() int { return g.st.turns.TurnNumber() }

// TradeRow returns the shared market.
func (g *Game) TradeRow() *TradeRow { return g.st.row }

// IsOver reports whether the match has ended.
func (g *Game) IsOver() bool { return g.st.over }

// Winner returns the winner's id, or "" while the game runs or if nobody survived.
func (g *Game) Winner() string {
	if g.st.winner < 0 {
		return ""
	}
	return g.st.players[g.st.winner].ID
}

// PendingChoice returns a copy of the outstanding choice, or nil.
func (g *Game) PendingChoice() *Choice {
	if g.st.choice == nil {
		return nil
	}
	cp := *g.st.choice
	cp.Options = append([]string(nil), g.st.choice.Options...)
	return &cp
}

func (g *Game) playerIndex(id string) int {
	for i, p := range g.st.players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (g *Game) emit(evt rules.Event) {
	evt.Turn = g.st.turns.TurnNumber()
	g.st.events = append(g.st.events, evt)
}

// ProcessAction validates and applies one action. A rejected action returns a
// *rules.ActionError and leaves the game exactly as it was. On success the
// events it raised are published and any choice now outstanding is returned.
func (g *Game) ProcessAction(action Action) (*Choice, error) {
	name := action.Type.String()
	if g.st.over {
		return nil, rules.NewActionError(rules.ErrGameOver, name, action.PlayerID, "")
	}
	idx := g.playerIndex(action.PlayerID)
	if idx < 0 {
		return nil, rules.NewActionError(rules.ErrUnknownPlayer, name, action.PlayerID, "")
	}
	if g.st.choice != nil && action.Type != ActionResolveChoice {
		return nil, rules.NewActionError(rules.ErrPendingChoiceOutstanding, name, action.PlayerID,
			"%s must resolve %s first", g.st.choice.PlayerID, g.st.choice.Kind)
	}

	snap, originals := g.st.clone()
	if err := g.apply(idx, action); err != nil {
		g.st.restore(snap, originals)
		g.logger.Debug("action rejected",
			zap.String("action", name),
			zap.String("player_id", action.PlayerID),
			zap.Error(err),
		)
		return nil, err
	}

	events := g.st.events
	g.st.events = nil
	g.logger.Debug("action applied",
		zap.String("action", name),
		zap.String("player_id", action.PlayerID),
		zap.Int("events", len(events)),
	)
	g.bus.PublishBatch(events)
	return g.PendingChoice(), nil
}

func (g *Game) apply(idx int, a Action) error {
	switch a.Type {
	case ActionResolveChoice:
		if err := g.resolveChoice(idx, a.Selection); err != nil {
			return err
		}
	case ActionSubmitDrawOrder:
		return g.submitDrawOrder(idx, a.Order)
	case ActionEndTurn:
		return g.endTurn(idx)
	case ActionPlayCard, ActionBuyCard, ActionBuyExplorer, ActionScrapCard, ActionAttackPlayer, ActionAttackBase:
		if err := g.requireMain(idx, a.Type); err != nil {
			return err
		}
		if err := g.applyMain(idx, a); err != nil {
			return err
		}
	default:
		return rules.NewActionError(rules.ErrUnknownAction, a.Type.String(), g.st.players[idx].ID, "")
	}
	if !g.st.over && g.st.choice == nil && g.st.turns.CurrentPhase() == rules.PhaseMain {
		g.resolveAutoDraw(g.st.turns.ActivePlayer())
	}
	return nil
}

func (g *Game) applyMain(idx int, a Action) error {
	p := g.st.players[idx]
	switch a.Type {
	case ActionPlayCard:
		return g.playCard(idx, a.CardID, a.Placement)
	case ActionBuyCard:
		c, err := g.st.row.Buy(a.Slot, p)
		if err != nil {
			return err
		}
		g.emitPurchase(p, c)
	case ActionBuyExplorer:
		c, err := g.st.row.BuyExplorer(p)
		if err != nil {
			return err
		}
		g.emitPurchase(p, c)
	case ActionScrapCard:
		return g.scrapCard(idx, a.CardID)
	case ActionAttackPlayer:
		return g.attackPlayer(idx, a.TargetPlayer, a.Amount)
	case ActionAttackBase:
		return g.attackBase(idx, a.CardID, a.Amount)
	}
	return nil
}

func (g *Game) emitPurchase(p *Player, c *cards.Instance) {
	evt := rules.NewEvent(rules.EventCardPurchased, p.ID, "", c.ID)
	evt.CardType = c.Type.ID
	evt.Amount = c.Type.Cost
	g.emit(evt)
}

func (g *Game) requireActive(idx int, action ActionType) error {
	if g.st.turns.ActivePlayer() != idx {
		return rules.NewActionError(rules.ErrNotYourTurn, action.String(), g.st.players[idx].ID,
			"%s is active", g.ActivePlayer().ID)
	}
	return nil
}

func (g *Game) requirePhase(idx int, action ActionType, phase rules.Phase) error {
	if current := g.st.turns.CurrentPhase(); current != phase {
		return rules.NewActionError(rules.ErrWrongPhase, action.String(), g.st.players[idx].ID,
			"requires %s, game is in %s", phase, current)
	}
	return nil
}

func (g *Game) requireMain(idx int, action ActionType) error {
	if err := g.requireActive(idx, action); err != nil {
		return err
	}
	return g.requirePhase(idx, action, rules.PhaseMain)
}

// startTurn runs DrawOrder entry for the active player: pools reset, unused
// purchase flags lapse, new bases deploy and deployed bases fire.
func (g *Game) startTurn() {
	idx := g.st.turns.ActivePlayer()
	p := g.st.players[idx]
	p.ResetTurn()
	p.clearShipFlags()
	g.emit(rules.NewEvent(rules.EventTurnStart, p.ID, "", ""))
	g.logger.Info("turn started",
		zap.Int("turn", g.st.turns.TurnNumber()),
		zap.String("player_id", p.ID),
	)

	for _, b := range p.Deck.Bases() {
		if !b.Deployed {
			b.Deployed = true
			evt := rules.NewEvent(rules.EventBaseDeployed, p.ID, b.ID, "")
			evt.CardType = b.Type.ID
			g.emit(evt)
			continue
		}
		g.enqueue(g.cardFrames(idx, b, false)...)
		if b.Type.Spawns != "" && !hasEffect(b.Type.Effects, cards.EffectSpawnUnit) {
			g.enqueue(frame{
				kind:   frameEffect,
				player: idx,
				effect: cards.Effect{Type: cards.EffectSpawnUnit, Value: 1, Target: b.Type.Spawns},
				source: b,
			})
		}
	}
	g.drain()
}

func (g *Game) submitDrawOrder(idx int, order []int) error {
	const action = ActionSubmitDrawOrder
	if err := g.requireActive(idx, action); err != nil {
		return err
	}
	if err := g.requirePhase(idx, action, rules.PhaseDrawOrder); err != nil {
		return err
	}
	p := g.st.players[idx]
	n := min(p.HandSize(g.cfg.BaseHandSize), p.Deck.Available())
	if order == nil {
		order = make([]int, n)
		for i := range order {
			order[i] = i
		}
	}
	if len(order) != n {
		return rules.NewActionError(rules.ErrInvalidOrder, action.String(), p.ID,
			"expected %d indices, got %d", n, len(order))
	}
	drawn, err := p.Deck.DrawOrdered(order)
	if err != nil {
		return rules.NewActionError(rules.ErrInvalidOrder, action.String(), p.ID, "%v", err)
	}

	g.st.turns.AdvancePhase(idx)
	for _, c := range drawn {
		g.emit(rules.NewEvent(rules.EventCardDrawn, p.ID, "", c.ID))
	}
	g.resolveAutoDraw(idx)
	g.st.turns.AdvancePhase(idx)
	g.raiseDiscard(idx)
	return nil
}

func (g *Game) endTurn(idx int) error {
	if err := g.requireMain(idx, ActionEndTurn); err != nil {
		return err
	}
	p := g.st.players[idx]
	g.st.turns.AdvancePhase(idx)
	p.Deck.EndTurn()
	for _, other := range g.st.players {
		for _, b := range other.Deck.Bases() {
			b.Damage = 0
		}
	}
	g.emit(rules.NewEvent(rules.EventTurnEnd, p.ID, "", ""))

	next := g.nextLivingOpponent(idx)
	if next < 0 {
		next = idx
	}
	g.st.turns.AdvancePhase(next)
	g.startTurn()
	return nil
}

func (g *Game) playCard(idx int, cardID string, placement cards.Placement) error {
	const action = ActionPlayCard
	p := g.st.players[idx]
	c, z, ok := p.Deck.Find(cardID)
	if !ok {
		return rules.NewActionError(rules.ErrUnknownCard, action.String(), p.ID, "no card %q", cardID)
	}
	if z != zones.ZoneHand {
		return rules.NewActionError(rules.ErrInvalidTarget, action.String(), p.ID, "%s is in %s, not in hand", c, z)
	}

	if c.IsBase() {
		switch placement {
		case cards.PlacementFrontier:
			if !c.Type.Frontier {
				return rules.NewActionError(rules.ErrInvalidTarget, action.String(), p.ID,
					"%s cannot be placed on the frontier", c.Type.Name)
			}
		case cards.PlacementInterior:
		default:
			placement = cards.PlacementInterior
			if c.Type.Frontier {
				placement = cards.PlacementFrontier
			}
		}
		if placement == cards.PlacementFrontier {
			p.Deck.PlayBaseToFrontier(c)
		} else {
			p.Deck.PlayBaseToInterior(c)
		}
		p.FactionsPlayed[c.Type.Faction] = true
		evt := rules.NewEvent(rules.EventCardPlayed, p.ID, c.ID, "")
		evt.CardType = c.Type.ID
		evt.Data = placement.String()
		g.emit(evt)
		return nil
	}

	p.Deck.Play(c)
	p.FactionsPlayed[c.Type.Faction] = true
	evt := rules.NewEvent(rules.EventCardPlayed, p.ID, c.ID, "")
	evt.CardType = c.Type.ID
	g.emit(evt)
	g.enqueue(g.cardFrames(idx, c, false)...)
	g.drain()
	return nil
}

func (g *Game) scrapCard(idx int, cardID string) error {
	const action = ActionScrapCard
	p := g.st.players[idx]
	c, z, ok := p.Deck.Find(cardID)
	if !ok {
		return rules.NewActionError(rules.ErrUnknownCard, action.String(), p.ID, "no card %q", cardID)
	}
	switch z {
	case zones.ZonePlayed, zones.ZoneFrontier, zones.ZoneInterior:
	default:
		return rules.NewActionError(rules.ErrInvalidTarget, action.String(), p.ID, "%s is in %s", c, z)
	}
	if !c.Type.HasScrap() {
		return rules.NewActionError(rules.ErrInvalidTarget, action.String(), p.ID, "%s has no scrap effect", c.Type.Name)
	}
	g.enqueue(g.scrapFrames(idx, c)...)
	g.drain()
	return nil
}

// nextLivingOpponent returns the first living player after idx in turn order,
// or -1 when nobody else is alive.
func (g *Game) nextLivingOpponent(idx int) int {
	n := len(g.st.players)
	for k := 1; k < n; k++ {
		j := (idx + k) % n
		if g.st.players[j].IsAlive() {
			return j
		}
	}
	return -1
}

// clone deep-copies s. The returned map leads from each copied instance back
// to the live one it was taken from.
func (s *state) clone() (*state, map[*cards.Instance]*cards.Instance) {
	src := *s.src
	cp := &state{
		src:    &src,
		turns:  s.turns.Clone(),
		over:   s.over,
		winner: s.winner,
		events: append([]rules.Event(nil), s.events...),
	}
	cp.rng = rand.New(cp.src)

	memo := make(map[*cards.Instance]*cards.Instance)
	originals := make(map[*cards.Instance]*cards.Instance)
	remap := func(c *cards.Instance) *cards.Instance {
		if c == nil {
			return nil
		}
		if m, ok := memo[c]; ok {
			return m
		}
		m := c.Clone()
		memo[c] = m
		originals[m] = c
		return m
	}

	cp.players = make([]*Player, len(s.players))
	for i, p := range s.players {
		cp.players[i] = p.clone(p.Deck.CloneWith(cp.rng, remap))
	}
	cp.row = s.row.clone(cp.rng, remap)
	if s.choice != nil {
		cp.choice = s.choice.clone(remap)
	}
	if len(s.queue) > 0 {
		cp.queue = make([]frame, len(s.queue))
		for i, f := range s.queue {
			f.source = remap(f.source)
			cp.queue[i] = f
		}
	}
	return cp, originals
}

// restore writes snap back into the live objects of s, so players, decks,
// the trade row and card instances handed out earlier keep tracking the game.
// Instances created since the snapshot are dropped.
func (s *state) restore(snap *state, originals map[*cards.Instance]*cards.Instance) {
	back := func(c *cards.Instance) *cards.Instance {
		if c == nil {
			return nil
		}
		live := originals[c]
		*live = *c
		return live
	}

	*s.src = *snap.src
	s.turns = snap.turns
	s.over = snap.over
	s.winner = snap.winner
	s.events = snap.events

	for i, p := range s.players {
		deck := p.Deck
		*deck = *snap.players[i].Deck.CloneWith(s.rng, back)
		*p = *snap.players[i]
		p.Deck = deck
	}
	*s.row = *snap.row.clone(s.rng, back)

	s.choice = nil
	if snap.choice != nil {
		s.choice = snap.choice.clone(back)
	}
	s.queue = nil
	if len(snap.queue) > 0 {
		s.queue = make([]frame, len(snap.queue))
		for i, f := range snap.queue {
			f.source = back(f.source)
			s.queue[i] = f
		}
	}
}
