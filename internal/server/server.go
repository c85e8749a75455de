package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/realmforge/realmforge-server-go/internal/config"
	"github.com/realmforge/realmforge-server-go/internal/game"
	"github.com/realmforge/realmforge-server-go/internal/match"
	"go.uber.org/zap"
)

// Server exposes matches over HTTP and WebSocket.
//
//	POST /matches                    create a match
//	GET  /matches                    list match summaries
//	GET  /matches/{id}?viewer=ID     one view of a match
//	GET  /matches/{id}/ws?player=ID  live connection; no player means spectator
//	GET  /replays/{id}               re-run a saved recording and report the result
type Server struct {
	cfg      config.ServerConfig
	matches  *match.Manager
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewServer wires the HTTP routes for a match manager.
func NewServer(cfg config.ServerConfig, matches *match.Manager, logger *zap.Logger) *Server {
	return &Server{
		cfg:     cfg,
		matches: matches,
		hub:     NewHub(logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Any origin may connect; the game has no session cookies to protect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Hub returns the client hub. It must be running before clients connect.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /matches", s.handleCreateMatch)
	mux.HandleFunc("GET /matches", s.handleListMatches)
	mux.HandleFunc("GET /matches/{id}", s.handleGetMatch)
	mux.HandleFunc("GET /matches/{id}/ws", s.handleWebSocket)
	mux.HandleFunc("GET /replays/{id}", s.handleVerifyReplay)
	return mux
}

// ListenAndServe runs the hub and the HTTP server until ctx is cancelled,
// then shuts both down within the configured timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go s.hub.Run(hubCtx)

	srv := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("address", s.cfg.Address))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	stopHub()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"matches": s.matches.ActiveCount(),
	})
}

func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req CreateMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	seats := make([]game.Seat, 0, len(req.Players))
	for _, p := range req.Players {
		seats = append(seats, game.Seat{ID: strings.TrimSpace(p.ID), Name: strings.TrimSpace(p.Name)})
	}

	m, err := s.matches.Create(seats)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, match.ErrTooManyMatches) {
			status = http.StatusServiceUnavailable
		}
		s.logger.Warn("create match failed", zap.Int("players", len(seats)), zap.Error(err))
		writeError(w, status, err.Error(), "")
		return
	}
	writeJSON(w, http.StatusCreated, m.Summary())
}

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	all := s.matches.All()
	out := make([]match.Summary, 0, len(all))
	for _, m := range all {
		out = append(out, m.Summary())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}
	viewer := r.URL.Query().Get("viewer")
	if viewer != game.Spectator && !m.HasPlayer(viewer) {
		writeError(w, http.StatusNotFound, "no such player in match", "UNKNOWN_PLAYER")
		return
	}
	view, err := m.View(viewer)
	if err != nil {
		s.logger.Error("render view", zap.String("match_id", m.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "render failed", "")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(view)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}
	player := r.URL.Query().Get("player")
	if player != game.Spectator && !m.HasPlayer(player) {
		writeError(w, http.StatusNotFound, "no such player in match", "UNKNOWN_PLAYER")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newClient(s.hub, conn, m, player, s.logger)
	if !s.hub.join(c) {
		conn.Close()
		return
	}
	c.cancel = m.Subscribe(player, func(view []byte) {
		c.enqueue(stateMessage(m.ID, view))
	})
	c.sendView()

	go c.writePump()
	go c.readPump(s.cfg.ReadLimit)
}

func (s *Server) handleVerifyReplay(w http.ResponseWriter, r *http.Request) {
	rec, g, err := s.matches.VerifyReplay(r.PathValue("id"))
	switch {
	case errors.Is(err, match.ErrReplaysDisabled), errors.Is(err, match.ErrMatchNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "")
		return
	case errors.Is(err, match.ErrReplayDiverged):
		writeError(w, http.StatusConflict, err.Error(), "REPLAY_DIVERGED")
		return
	case err != nil:
		s.logger.Error("load recording", zap.String("match_id", r.PathValue("id")), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "recording unreadable", "")
		return
	}
	writeJSON(w, http.StatusOK, ReplayReport{
		GameID:   rec.GameID,
		Seed:     rec.Seed,
		Steps:    len(rec.Steps),
		Checksum: g.Checksum(),
		Winner:   g.Winner(),
	})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*match.Match, bool) {
	m, err := s.matches.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error(), "")
		return nil, false
	}
	return m, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, ErrorBody{Error: msg, Code: code})
}
