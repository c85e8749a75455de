package match

import (
	"compress/gzip"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/realmforge/realmforge-server-go/internal/game"
	"github.com/realmforge/realmforge-server-go/internal/game/cards"
)

const recordingVersion = 1

var (
	// ErrReplayDiverged means a recorded action produced a different state, or
	// was rejected, when run again.
	ErrReplayDiverged = errors.New("replay diverged from recording")
	// ErrInvalidGameID means a game id cannot name a file inside the replay dir.
	ErrInvalidGameID = errors.New("invalid game id")
)

// Recording is everything needed to rebuild a match: its setup and every
// accepted action with the checksum that followed it.
type Recording struct {
	GameID string
	Seed   uint64
	Rules  game.Rules
	Seats  []game.Seat
	// Initial is the checksum right after setup.
	Initial string
	Steps   []Step
}

// Step is one accepted action.
type Step struct {
	Action   game.Action
	Checksum string
}

func newRecording(g *game.Game, seed uint64) *Recording {
	seats := make([]game.Seat, 0, len(g.Players()))
	for _, p := range g.Players() {
		seats = append(seats, game.Seat{ID: p.ID, Name: p.Name})
	}
	return &Recording{
		GameID:  g.ID,
		Seed:    seed,
		Rules:   g.Rules(),
		Seats:   seats,
		Initial: g.Checksum(),
	}
}

func (r *Recording) record(a game.Action, checksum string) {
	a.Order = append([]int(nil), a.Order...)
	a.Selection = append([]string(nil), a.Selection...)
	r.Steps = append(r.Steps, Step{Action: a, Checksum: checksum})
}

func (r *Recording) clone() *Recording {
	cp := *r
	cp.Seats = append([]game.Seat(nil), r.Seats...)
	cp.Steps = append([]Step(nil), r.Steps...)
	return &cp
}

// Replay rebuilds the match from catalog and decks and runs every step,
// checking each checksum. It returns the rebuilt game.
func Replay(rec *Recording, catalog *cards.Catalog, decks *cards.DeckList) (*game.Game, error) {
	g, err := game.New(game.Config{
		ID:      rec.GameID,
		Catalog: catalog,
		Decks:   decks,
		Seats:   rec.Seats,
		Rules:   rec.Rules,
		Seed:    rec.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("rebuild match: %w", err)
	}
	if got := g.Checksum(); got != rec.Initial {
		return nil, fmt.Errorf("%w: setup checksum %s, recorded %s", ErrReplayDiverged, got, rec.Initial)
	}
	for i, step := range rec.Steps {
		if _, err := g.ProcessAction(step.Action); err != nil {
			return nil, fmt.Errorf("%w: step %d (%s) rejected: %v", ErrReplayDiverged, i, step.Action.Type, err)
		}
		if got := g.Checksum(); got != step.Checksum {
			return nil, fmt.Errorf("%w: step %d (%s) checksum %s, recorded %s",
				ErrReplayDiverged, i, step.Action.Type, got, step.Checksum)
		}
	}
	return g, nil
}

// recordingHeader precedes the recording in a saved file.
type recordingHeader struct {
	GameID    string
	Timestamp time.Time
	Version   int
	Steps     int
}

func recordingPath(dir, gameID string) (string, error) {
	if gameID == "" || gameID == "." || gameID == ".." || filepath.Base(gameID) != gameID {
		return "", fmt.Errorf("%w: %q", ErrInvalidGameID, gameID)
	}
	return filepath.Join(dir, gameID+".replay"), nil
}

// SaveRecording writes rec to dir as a gzipped gob file named after the game.
func SaveRecording(dir string, rec *Recording) error {
	path, err := recordingPath(dir, rec.GameID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	zw := gzip.NewWriter(file)
	enc := gob.NewEncoder(zw)
	header := recordingHeader{
		GameID:    rec.GameID,
		Timestamp: time.Now(),
		Version:   recordingVersion,
		Steps:     len(rec.Steps),
	}
	if err := enc.Encode(&header); err != nil {
		return fmt.Errorf("failed to encode header: %w", err)
	}
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to encode recording: %w", err)
	}
	return zw.Close()
}

// LoadRecording reads the recording of gameID from dir.
func LoadRecording(dir, gameID string) (*Recording, error) {
	path, err := recordingPath(dir, gameID)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	zr, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer zr.Close()

	dec := gob.NewDecoder(zr)
	var header recordingHeader
	if err := dec.Decode(&header); err != nil {
		return nil, fmt.Errorf("failed to decode header: %w", err)
	}
	if header.Version != recordingVersion {
		return nil, fmt.Errorf("unsupported recording version: %d", header.Version)
	}
	var rec Recording
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode recording: %w", err)
	}
	if len(rec.Steps) != header.Steps {
		return nil, fmt.Errorf("recording has %d steps, header says %d", len(rec.Steps), header.Steps)
	}
	return &rec, nil
}
