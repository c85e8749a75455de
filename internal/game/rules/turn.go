package rules

import (
	"fmt"
)

// Phase is a step of a player's turn.
type Phase int

const (
	PhaseDrawOrder Phase = iota
	PhaseDraw
	PhaseMain
	PhaseEnd
)

var phaseNames = map[Phase]string{
	PhaseDrawOrder: "DRAW_ORDER",
	PhaseDraw:      "DRAW",
	PhaseMain:      "MAIN",
	PhaseEnd:       "END",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// turnSequence is the fixed order of phases within one turn.
var turnSequence = []Phase{PhaseDrawOrder, PhaseDraw, PhaseMain, PhaseEnd}

// TurnManager tracks the active player, turn number and current phase.
type TurnManager struct {
	orderIndex   int
	turnNumber   int
	activePlayer int
}

// NewTurnManager creates a turn manager at turn 1, DrawOrder, for the given seat.
func NewTurnManager(activePlayer int) *TurnManager {
	return &TurnManager{
		turnNumber:   1,
		activePlayer: activePlayer,
	}
}

// CurrentPhase returns the phase currently in progress.
func (tm *TurnManager) CurrentPhase() Phase {
	return turnSequence[tm.orderIndex]
}

// TurnNumber returns the current turn number (1-based).
func (tm *TurnManager) TurnNumber() int {
	return tm.turnNumber
}

// ActivePlayer returns the seat index of the player whose turn it is.
func (tm *TurnManager) ActivePlayer() int {
	return tm.activePlayer
}

// AdvancePhase moves to the next phase. Leaving End starts a new turn for
// nextActivePlayer and increments the turn number.
func (tm *TurnManager) AdvancePhase(nextActivePlayer int) Phase {
	tm.orderIndex++
	if tm.orderIndex >= len(turnSequence) {
		tm.orderIndex = 0
		tm.turnNumber++
		tm.activePlayer = nextActivePlayer
	}
	return tm.CurrentPhase()
}

// Clone returns an independent copy.
func (tm *TurnManager) Clone() *TurnManager {
	cp := *tm
	return &cp
}
