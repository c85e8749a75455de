package server

import (
	"context"

	"go.uber.org/zap"
)

// Hub tracks connected clients so they can be closed together.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	count      chan chan int
	done       chan struct{}
	logger     *zap.Logger
}

// NewHub creates an idle hub. Call Run to start it.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		count:      make(chan chan int),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run owns the client set until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				c.close()
			}
			h.logger.Info("hub stopped", zap.Int("clients", len(h.clients)))
			h.clients = make(map[*Client]bool)
			return

		case c := <-h.register:
			h.clients[c] = true
			h.logger.Debug("client registered",
				zap.String("match_id", c.match.ID),
				zap.String("player_id", c.playerID),
				zap.Int("clients", len(h.clients)),
			)

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.close()
				h.logger.Debug("client unregistered",
					zap.String("match_id", c.match.ID),
					zap.String("player_id", c.playerID),
					zap.Int("clients", len(h.clients)),
				)
			}

		case reply := <-h.count:
			reply <- len(h.clients)
		}
	}
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		c.close()
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
		c.close()
	}
}

// Count returns the number of registered clients.
func (h *Hub) Count(ctx context.Context) int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-ctx.Done():
		return 0
	case <-h.done:
		return 0
	}
}
