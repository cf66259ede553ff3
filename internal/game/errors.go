package game

import "errors"

// Typed errors surfaced to callers. Validation errors are detected before any
// event is appended, so a rejected action never changes state.
var (
	// ErrIllegalAction means the action violates the state-machine rules
	// (check facing a bet, raise below minimum, negative amount, action on a
	// finished hand). Recoverable: the caller may retry with a corrected
	// action.
	ErrIllegalAction = errors.New("illegal action")

	// ErrOutOfTurn means the action came from a seat that is not up.
	ErrOutOfTurn = errors.New("out of turn")

	// ErrInsufficientFunds means the amount exceeds the player's stack.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrCorruptReplay means an event sequence gap or a mismatch between the
	// stored events and the seed-derived deck was detected during replay.
	// Surfaced, never auto-repaired: silently reconstructing a different
	// state than what was live would break the replay guarantee.
	ErrCorruptReplay = errors.New("corrupt replay")

	// ErrHandInProgress means a new hand cannot start while one is live.
	ErrHandInProgress = errors.New("hand in progress")

	// ErrNoActiveHand means the game has no hand accepting actions.
	ErrNoActiveHand = errors.New("no active hand")

	// ErrGameNotFound means the manager has no game with the given ID.
	ErrGameNotFound = errors.New("game not found")

	// ErrGameExists means a game with the given ID is already registered.
	ErrGameExists = errors.New("game already exists")
)
