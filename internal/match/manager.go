package match

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/realmforge/realmforge-server-go/internal/game"
	"github.com/realmforge/realmforge-server-go/internal/game/cards"
	"go.uber.org/zap"
)

var (
	ErrMatchNotFound   = errors.New("match not found")
	ErrTooManyMatches  = errors.New("too many live matches")
	ErrReplaysDisabled = errors.New("replay recording is disabled")
)

// Options are the settings shared by every match a Manager creates.
type Options struct {
	Rules game.Rules
	// Seed fixes every match's random source. Zero seeds each match from the clock.
	Seed       uint64
	MaxMatches int
	// ReplayDir stores recordings of finished matches. Empty disables saving.
	ReplayDir string
}

// Manager keeps the live matches of one server.
type Manager struct {
	catalog *cards.Catalog
	decks   *cards.DeckList
	opts    Options

	matches map[string]*Match
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewManager creates a manager that builds matches from catalog and decks.
func NewManager(catalog *cards.Catalog, decks *cards.DeckList, opts Options, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		catalog: catalog,
		decks:   decks,
		opts:    opts,
		matches: make(map[string]*Match),
		logger:  logger,
	}
}

// Create starts a match for seats in turn order. Finished matches nobody is
// watching are dropped first; only matches in progress count toward the limit.
func (m *Manager) Create(seats []game.Seat) (*Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := m.sweepLocked()
	if m.opts.MaxMatches > 0 && live >= m.opts.MaxMatches {
		return nil, fmt.Errorf("%w: limit is %d", ErrTooManyMatches, m.opts.MaxMatches)
	}
	seed := m.opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	g, err := game.New(game.Config{
		Catalog: m.catalog,
		Decks:   m.decks,
		Seats:   seats,
		Rules:   m.opts.Rules,
		Seed:    seed,
		Logger:  m.logger,
	})
	if err != nil {
		return nil, err
	}

	match := newMatch(g, seed, m.opts.ReplayDir, m.logger)
	m.matches[match.ID] = match
	m.logger.Info("match created",
		zap.String("match_id", match.ID),
		zap.Int("players", len(seats)),
	)
	return match, nil
}

// sweepLocked evicts idle finished matches and returns how many are still in
// progress.
func (m *Manager) sweepLocked() int {
	live := 0
	for id, match := range m.matches {
		state, watched := match.status()
		switch {
		case state == StateInProgress:
			live++
		case !watched:
			delete(m.matches, id)
			m.logger.Info("match evicted", zap.String("match_id", id))
		}
	}
	return live
}

// Get retrieves a match by id.
func (m *Manager) Get(id string) (*Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	match, ok := m.matches[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, id)
	}
	return match, nil
}

// Remove drops a match.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.matches, id)
	m.logger.Info("match removed", zap.String("match_id", id))
}

// All returns every live match.
func (m *Manager) All() []*Match {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Match, 0, len(m.matches))
	for _, match := range m.matches {
		out = append(out, match)
	}
	return out
}

// ActiveCount returns the number of matches still in progress.
func (m *Manager) ActiveCount() int {
	count := 0
	for _, match := range m.All() {
		if match.GetState() != StateFinished {
			count++
		}
	}
	return count
}

// Catalog returns the card definitions matches are built from.
func (m *Manager) Catalog() *cards.Catalog {
	return m.catalog
}

// VerifyReplay loads the saved recording of id and runs it again against the
// manager's content. It returns the rebuilt game.
func (m *Manager) VerifyReplay(id string) (*Recording, *game.Game, error) {
	if m.opts.ReplayDir == "" {
		return nil, nil, ErrReplaysDisabled
	}
	rec, err := LoadRecording(m.opts.ReplayDir, id)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrInvalidGameID) {
			return nil, nil, fmt.Errorf("%w: %s", ErrMatchNotFound, id)
		}
		return nil, nil, err
	}
	g, err := Replay(rec, m.catalog, m.decks)
	if err != nil {
		m.logger.Warn("replay verification failed", zap.String("match_id", id), zap.Error(err))
		return rec, nil, err
	}
	return rec, g, nil
}
