package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/realmforge/realmforge-server-go/internal/game"
	"github.com/realmforge/realmforge-server-go/internal/game/cards"
	"github.com/realmforge/realmforge-server-go/internal/game/rules"
)

// Inbound message types.
const (
	MsgAction = "action"
	MsgView   = "view"
)

// Outbound message types.
const (
	MsgState = "state"
	MsgError = "error"
)

// InboundMessage is everything a client may send. Only action messages carry
// the action fields.
type InboundMessage struct {
	Type   string `json:"type"`
	Action string `json:"action,omitempty"`

	CardID       string   `json:"card_id,omitempty"`
	Slot         int      `json:"slot,omitempty"`
	Amount       int      `json:"amount,omitempty"`
	TargetPlayer string   `json:"target_player,omitempty"`
	Order        []int    `json:"order,omitempty"`
	Selection    []string `json:"selection,omitempty"`
	Placement    string   `json:"placement,omitempty"`
}

// ToAction decodes the action fields for playerID.
func (m *InboundMessage) ToAction(playerID string) (game.Action, error) {
	t := game.ParseActionType(m.Action)
	if t == game.ActionUnknown {
		return game.Action{}, fmt.Errorf("%w: %q", rules.ErrUnknownAction, m.Action)
	}
	placement, err := cards.ParsePlacement(m.Placement)
	if err != nil {
		return game.Action{}, fmt.Errorf("%w: %v", rules.ErrInvalidTarget, err)
	}
	return game.Action{
		Type:         t,
		PlayerID:     playerID,
		CardID:       m.CardID,
		Slot:         m.Slot,
		Amount:       m.Amount,
		TargetPlayer: m.TargetPlayer,
		Order:        m.Order,
		Selection:    m.Selection,
		Placement:    placement,
	}, nil
}

// OutboundMessage is everything the server sends.
type OutboundMessage struct {
	Type    string          `json:"type"`
	MatchID string          `json:"match_id,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
}

func stateMessage(matchID string, view []byte) []byte {
	data, _ := json.Marshal(OutboundMessage{Type: MsgState, MatchID: matchID, Data: view})
	return data
}

func errorMessage(matchID string, err error) []byte {
	msg := OutboundMessage{Type: MsgError, MatchID: matchID, Code: rules.CodeOf(err), Message: err.Error()}
	var ae *rules.ActionError
	if errors.As(err, &ae) && ae.Detail != "" {
		msg.Message = fmt.Sprintf("%s: %s", ae.Code, ae.Detail)
	}
	data, _ := json.Marshal(msg)
	return data
}

// ErrorBody is the JSON body of a failed HTTP request.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// SeatRequest is one player in a CreateMatchRequest.
type SeatRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateMatchRequest is the body of POST /matches.
type CreateMatchRequest struct {
	Players []SeatRequest `json:"players"`
}

// ReplayReport is the body of a successful GET /replays/{id}.
type ReplayReport struct {
	GameID   string `json:"game_id"`
	Seed     uint64 `json:"seed"`
	Steps    int    `json:"steps"`
	Checksum string `json:"checksum"`
	Winner   string `json:"winner,omitempty"`
}
