package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/realmforge/realmforge-server-go/internal/config"
	"github.com/realmforge/realmforge-server-go/internal/game"
	"github.com/realmforge/realmforge-server-go/internal/game/cards"
	"github.com/realmforge/realmforge-server-go/internal/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupTestServer(t *testing.T) (*httptest.Server, *Server) {
	t.Helper()
	catalog, err := cards.NewCatalog(
		&cards.CardType{ID: "scout", Name: "Scout", Effects: []cards.Effect{{Type: cards.EffectAddTrade, Value: 1}}},
		&cards.CardType{ID: "explorer", Name: "Explorer", Cost: 2, Effects: []cards.Effect{{Type: cards.EffectAddTrade, Value: 2}}},
	)
	require.NoError(t, err)
	decks := &cards.DeckList{
		StartingDeck: []cards.DeckEntry{{Card: "scout", Count: 10}},
		Explorer:     "explorer",
		TradeDeck:    []cards.DeckEntry{{Card: "explorer", Count: 10}},
	}
	logger := zaptest.NewLogger(t)
	mgr := match.NewManager(catalog, decks, match.Options{Seed: 3, MaxMatches: 4}, logger)
	cfg := config.ServerConfig{Address: ":0", ReadLimit: 65536, ShutdownTimeout: time.Second}
	srv := NewServer(cfg, mgr, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go srv.Hub().Run(ctx)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return ts, srv
}

func createMatch(t *testing.T, ts *httptest.Server) match.Summary {
	t.Helper()
	body := `{"players":[{"id":"a","name":"Ada"},{"id":"b","name":"Bo"}]}`
	resp, err := http.Post(ts.URL+"/matches", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var s match.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	return s
}

func connectWS(t *testing.T, ts *httptest.Server, matchID, player string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/matches/" + matchID + "/ws"
	if player != "" {
		url += "?player=" + player
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) OutboundMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg OutboundMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func readView(t *testing.T, conn *websocket.Conn) game.GameView {
	t.Helper()
	msg := readMsg(t, conn)
	require.Equal(t, MsgState, msg.Type, "got %s %s", msg.Code, msg.Message)
	var v game.GameView
	require.NoError(t, json.Unmarshal(msg.Data, &v))
	return v
}

func sendMsg(t *testing.T, conn *websocket.Conn, msg any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func TestCreateAndFetchMatch(t *testing.T) {
	ts, _ := setupTestServer(t)
	s := createMatch(t, ts)
	assert.Equal(t, []string{"a", "b"}, s.Players)
	assert.Equal(t, "IN_PROGRESS", s.State)
	assert.Equal(t, "DRAW_ORDER", s.Phase)

	resp, err := http.Get(ts.URL + "/matches/" + s.ID + "?viewer=b")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view game.GameView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, s.ID, view.GameID)
	assert.Equal(t, "b", view.Viewer)

	resp, err = http.Get(ts.URL + "/matches")
	require.NoError(t, err)
	defer resp.Body.Close()
	var list []match.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Len(t, list, 1)
}

func TestHTTPStatusCodes(t *testing.T) {
	ts, _ := setupTestServer(t)
	s := createMatch(t, ts)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"bad json", http.MethodPost, "/matches", "{", http.StatusBadRequest},
		{"one player", http.MethodPost, "/matches", `{"players":[{"id":"x"}]}`, http.StatusBadRequest},
		{"missing match", http.MethodGet, "/matches/nope", "", http.StatusNotFound},
		{"stranger view", http.MethodGet, "/matches/" + s.ID + "?viewer=zed", "", http.StatusNotFound},
		{"stranger socket", http.MethodGet, "/matches/" + s.ID + "/ws?player=zed", "", http.StatusNotFound},
		{"replays disabled", http.MethodGet, "/replays/" + s.ID, "", http.StatusNotFound},
		{"healthz", http.MethodGet, "/healthz", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, bytes.NewBufferString(tt.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestMatchLimit(t *testing.T) {
	ts, _ := setupTestServer(t)
	for i := 0; i < 4; i++ {
		createMatch(t, ts)
	}
	body := `{"players":[{"id":"a"},{"id":"b"}]}`
	resp, err := http.Post(ts.URL+"/matches", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestWebSocketActionsPushViews(t *testing.T) {
	ts, srv := setupTestServer(t)
	s := createMatch(t, ts)

	a := connectWS(t, ts, s.ID, "a")
	b := connectWS(t, ts, s.ID, "b")
	watcher := connectWS(t, ts, s.ID, "")

	first := readView(t, a)
	assert.Equal(t, "DRAW_ORDER", first.Phase)
	readView(t, b)
	readView(t, watcher)
	assert.Equal(t, 3, srv.Hub().Count(context.Background()))

	sendMsg(t, a, map[string]any{"type": "action", "action": "SUBMIT_DRAW_ORDER", "order": []int{4, 3, 2, 1, 0}})

	va := readView(t, a)
	assert.Equal(t, "MAIN", va.Phase)
	assert.Len(t, va.Players[0].Hand, 5)

	vb := readView(t, b)
	assert.Equal(t, "MAIN", vb.Phase)
	assert.Empty(t, vb.Players[0].Hand)
	assert.Equal(t, 5, vb.Players[0].HandCount)

	vw := readView(t, watcher)
	assert.Len(t, vw.Players[0].Hand, 5)

	sendMsg(t, b, map[string]any{"type": "action", "action": "END_TURN"})
	msg := readMsg(t, b)
	assert.Equal(t, MsgError, msg.Type)
	assert.Equal(t, "NOT_YOUR_TURN", msg.Code)

	sendMsg(t, a, map[string]any{"type": "action", "action": "BUY_EXPLORER"})
	msg = readMsg(t, a)
	assert.Equal(t, MsgError, msg.Type)
	assert.Equal(t, "INSUFFICIENT_TRADE", msg.Code)
}

func TestWebSocketBadMessages(t *testing.T) {
	ts, _ := setupTestServer(t)
	s := createMatch(t, ts)

	a := connectWS(t, ts, s.ID, "a")
	readView(t, a)
	watcher := connectWS(t, ts, s.ID, "")
	readView(t, watcher)

	tests := []struct {
		name string
		conn *websocket.Conn
		msg  string
		code string
	}{
		{"not json", a, "{nope", "BAD_MESSAGE"},
		{"unknown type", a, `{"type":"dance"}`, "BAD_MESSAGE"},
		{"unknown action", a, `{"type":"action","action":"FLY"}`, "UNKNOWN_ACTION"},
		{"bad placement", a, `{"type":"action","action":"PLAY_CARD","placement":"orbit"}`, "INVALID_TARGET"},
		{"spectator acts", watcher, `{"type":"action","action":"END_TURN"}`, "UNKNOWN_PLAYER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.conn.WriteMessage(websocket.TextMessage, []byte(tt.msg)))
			msg := readMsg(t, tt.conn)
			assert.Equal(t, MsgError, msg.Type)
			assert.Equal(t, tt.code, msg.Code)
		})
	}

	sendMsg(t, a, map[string]string{"type": "view"})
	v := readView(t, a)
	assert.Equal(t, "DRAW_ORDER", v.Phase)
}
