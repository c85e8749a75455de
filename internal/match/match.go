package match

import (
	"sync"
	"time"

	"github.com/realmforge/realmforge-server-go/internal/game"
	"github.com/realmforge/realmforge-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// State is the lifecycle of a match.
type State int

const (
	StateInProgress State = iota
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateInProgress:
		return "IN_PROGRESS"
	case StateFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// ViewFunc receives a freshly rendered view after every successful action.
type ViewFunc func(view []byte)

type subscriber struct {
	viewer string
	fn     ViewFunc
}

// Summary is a consistent copy of a match's public header.
type Summary struct {
	ID           string     `json:"id"`
	State        string     `json:"state"`
	Turn         int        `json:"turn"`
	Phase        string     `json:"phase"`
	ActivePlayer string     `json:"active_player"`
	Winner       string     `json:"winner,omitempty"`
	Players      []string   `json:"players"`
	Watchers     int        `json:"watchers"`
	CreateTime   time.Time  `json:"create_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
}

// Match owns one Game and serializes every call into it.
type Match struct {
	ID         string
	CreateTime time.Time

	mu      sync.Mutex
	game    *game.Game
	state   State
	endTime *time.Time
	subs    map[int]subscriber
	nextSub int
	rec     *Recording
	logger  *zap.Logger

	// replayDir receives the recording once the match finishes; empty disables saving.
	replayDir string
	saved     bool
}

func newMatch(g *game.Game, seed uint64, replayDir string, logger *zap.Logger) *Match {
	m := &Match{
		ID:         g.ID,
		CreateTime: time.Now(),
		game:       g,
		state:      StateInProgress,
		subs:       make(map[int]subscriber),
		rec:        newRecording(g, seed),
		logger:     logger.With(zap.String("match_id", g.ID)),
		replayDir:  replayDir,
	}
	// Listeners run inside Apply, so m.mu is already held.
	g.SubscribeTyped(rules.EventGameOver, func(e rules.Event) {
		now := time.Now()
		m.state = StateFinished
		m.endTime = &now
		m.logger.Info("match finished", zap.String("winner", e.PlayerID), zap.Int("turn", e.Turn))
	})
	g.SubscribeTyped(rules.EventPlayerEliminated, func(e rules.Event) {
		m.logger.Info("player eliminated", zap.String("player_id", e.PlayerID), zap.String("by", e.SourceID))
	})
	return m
}

// Apply runs one action. On success every subscriber gets a new view.
func (m *Match) Apply(action game.Action) (*game.Choice, error) {
	m.mu.Lock()
	choice, err := m.game.ProcessAction(action)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.rec.record(action, m.game.Checksum())
	pending := m.renderLocked()
	var toSave *Recording
	if m.state == StateFinished && m.replayDir != "" && !m.saved {
		m.saved = true
		toSave = m.rec.clone()
	}
	m.mu.Unlock()

	for _, p := range pending {
		p.fn(p.view)
	}
	if toSave != nil {
		if err := SaveRecording(m.replayDir, toSave); err != nil {
			m.logger.Error("save recording", zap.Error(err))
		} else {
			m.logger.Info("recording saved", zap.String("dir", m.replayDir), zap.Int("steps", len(toSave.Steps)))
		}
	}
	return choice, nil
}

// Recording returns a copy of the setup and every accepted action so far.
func (m *Match) Recording() *Recording {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec.clone()
}

type delivery struct {
	fn   ViewFunc
	view []byte
}

func (m *Match) renderLocked() []delivery {
	out := make([]delivery, 0, len(m.subs))
	cache := make(map[string][]byte)
	for _, s := range m.subs {
		view, ok := cache[s.viewer]
		if !ok {
			var err error
			view, err = m.game.MarshalView(s.viewer)
			if err != nil {
				m.logger.Error("render view", zap.String("viewer", s.viewer), zap.Error(err))
				continue
			}
			cache[s.viewer] = view
		}
		out = append(out, delivery{fn: s.fn, view: view})
	}
	return out
}

// View renders the match for viewer. Use game.Spectator to see every hand.
func (m *Match) View(viewer string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.game.MarshalView(viewer)
}

// Subscribe registers fn for views rendered for viewer and returns a
// function that removes it.
func (m *Match) Subscribe(viewer string, fn ViewFunc) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = subscriber{viewer: viewer, fn: fn}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subs, id)
		})
	}
}

// HasPlayer reports whether id holds a seat.
func (m *Match) HasPlayer(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.game.Player(id)
	return ok
}

// GetState returns the lifecycle state.
func (m *Match) GetState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// status returns the lifecycle state and whether anyone is subscribed.
func (m *Match) status() (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, len(m.subs) > 0
}

// Checksum returns the game state hash.
func (m *Match) Checksum() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.game.Checksum()
}

// Summary returns a consistent copy of the match header.
func (m *Match) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	players := make([]string, 0, len(m.game.Players()))
	watchers := 0
	for _, p := range m.game.Players() {
		players = append(players, p.ID)
	}
	for _, s := range m.subs {
		if s.viewer == game.Spectator {
			watchers++
		}
	}
	return Summary{
		ID:           m.ID,
		State:        m.state.String(),
		Turn:         m.game.Turn(),
		Phase:        m.game.Phase().String(),
		ActivePlayer: m.game.ActivePlayer().ID,
		Winner:       m.game.Winner(),
		Players:      players,
		Watchers:     watchers,
		CreateTime:   m.CreateTime,
		EndTime:      cloneTime(m.endTime),
	}
}

func cloneTime(src *time.Time) *time.Time {
	if src == nil {
		return nil
	}
	cp := *src
	return &cp
}
