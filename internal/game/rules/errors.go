package rules

import (
	"errors"
	"fmt"
)

// Validation failures. Every rejected action carries one of these as its code.
var (
	ErrWrongPhase               = errors.New("action not allowed in current phase")
	ErrNotYourTurn              = errors.New("not the active player")
	ErrInsufficientTrade        = errors.New("insufficient trade")
	ErrInsufficientCombat       = errors.New("insufficient combat")
	ErrInvalidTarget            = errors.New("invalid target")
	ErrInvalidOrder             = errors.New("invalid draw order")
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrPendingChoiceOutstanding = errors.New("pending choice outstanding")
	ErrNoPendingChoice          = errors.New("no pending choice")
	ErrInvalidChoice            = errors.New("invalid choice")
	ErrGameOver                 = errors.New("game is over")
	ErrUnknownPlayer            = errors.New("unknown player")
	ErrUnknownCard              = errors.New("unknown card")
	ErrUnknownAction            = errors.New("unknown action")
)

// ActionError describes why an action was rejected.
type ActionError struct {
	Code     error
	Action   string
	PlayerID string
	Detail   string
}

// NewActionError builds an ActionError with a formatted detail message.
func NewActionError(code error, action, playerID, format string, args ...any) *ActionError {
	return &ActionError{
		Code:     code,
		Action:   action,
		PlayerID: playerID,
		Detail:   fmt.Sprintf(format, args...),
	}
}

func (e *ActionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s by %s rejected: %v", e.Action, e.PlayerID, e.Code)
	}
	return fmt.Sprintf("%s by %s rejected: %v: %s", e.Action, e.PlayerID, e.Code, e.Detail)
}

func (e *ActionError) Unwrap() error {
	return e.Code
}

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrWrongPhase, "WRONG_PHASE"},
	{ErrNotYourTurn, "NOT_YOUR_TURN"},
	{ErrInsufficientTrade, "INSUFFICIENT_TRADE"},
	{ErrInsufficientCombat, "INSUFFICIENT_COMBAT"},
	{ErrInvalidTarget, "INVALID_TARGET"},
	{ErrInvalidOrder, "INVALID_ORDER"},
	{ErrInvalidAmount, "INVALID_AMOUNT"},
	{ErrPendingChoiceOutstanding, "PENDING_CHOICE_OUTSTANDING"},
	{ErrNoPendingChoice, "NO_PENDING_CHOICE"},
	{ErrInvalidChoice, "INVALID_CHOICE"},
	{ErrGameOver, "GAME_OVER"},
	{ErrUnknownPlayer, "UNKNOWN_PLAYER"},
	{ErrUnknownCard, "UNKNOWN_CARD"},
	{ErrUnknownAction, "UNKNOWN_ACTION"},
}

// CodeOf returns the wire code for a validation error, or "INTERNAL" for
// anything else.
func CodeOf(err error) string {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "INTERNAL"
}
