package server

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/realmforge/realmforge-server-go/internal/game"
	"github.com/realmforge/realmforge-server-go/internal/game/rules"
	"github.com/realmforge/realmforge-server-go/internal/match"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	sendBuffer = 64
)

var errSpectator = errors.New("spectators cannot act")

// Client is one WebSocket connection bound to a match, as a player or a
// spectator (empty playerID).
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	match    *match.Match
	playerID string
	logger   *zap.Logger

	send   chan []byte
	mu     sync.Mutex
	closed bool
	cancel func()
}

func newClient(hub *Hub, conn *websocket.Conn, m *match.Match, playerID string, logger *zap.Logger) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		match:    m,
		playerID: playerID,
		logger:   logger.With(zap.String("match_id", m.ID), zap.String("player_id", playerID)),
		send:     make(chan []byte, sendBuffer),
	}
}

// enqueue queues msg without blocking. A client that cannot keep up is dropped.
func (c *Client) enqueue(msg []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("send buffer full, dropping client")
		c.closed = true
		close(c.send)
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump feeds inbound messages to the match until the connection drops.
func (c *Client) readPump(readLimit int64) {
	defer func() {
		if c.cancel != nil {
			c.cancel()
		}
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		c.handleMessage(data)
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var msg InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendBadMessage("invalid message format")
		return
	}

	switch msg.Type {
	case MsgView:
		c.sendView()
	case MsgAction:
		c.handleAction(&msg)
	default:
		c.sendBadMessage("unknown message type: " + msg.Type)
	}
}

func (c *Client) handleAction(msg *InboundMessage) {
	if c.playerID == game.Spectator {
		c.enqueue(errorMessage(c.match.ID, rules.NewActionError(rules.ErrUnknownPlayer, msg.Action, "", "%v", errSpectator)))
		return
	}
	action, err := msg.ToAction(c.playerID)
	if err != nil {
		c.enqueue(errorMessage(c.match.ID, err))
		return
	}
	// Views for every subscriber, this client included, are pushed by the match.
	if _, err := c.match.Apply(action); err != nil {
		c.logger.Warn("action rejected",
			zap.String("action", action.Type.String()),
			zap.String("code", rules.CodeOf(err)),
			zap.Error(err),
		)
		c.enqueue(errorMessage(c.match.ID, err))
	}
}

func (c *Client) sendView() {
	view, err := c.match.View(c.playerID)
	if err != nil {
		c.logger.Error("render view", zap.Error(err))
		return
	}
	c.enqueue(stateMessage(c.match.ID, view))
}

func (c *Client) sendBadMessage(text string) {
	data, _ := json.Marshal(OutboundMessage{Type: MsgError, MatchID: c.match.ID, Code: "BAD_MESSAGE", Message: text})
	c.enqueue(data)
}
