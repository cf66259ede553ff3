// Package event defines the append-only persistence model for hands: typed
// events with per-hand contiguous sequence numbers, periodic state snapshots,
// and the Store interface the engine persists through. Events are the source
// of truth; snapshots only bound replay cost.
package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrConcurrentMutation is returned when an append races another append for
// the same hand. The caller must retry after the in-flight action completes.
var ErrConcurrentMutation = errors.New("concurrent mutation")

// Type identifies the kind of a game event.
type Type string

const (
	TypeHandStarted       Type = "hand_started"
	TypeBlindPosted       Type = "blind_posted"
	TypeCardsDealt        Type = "cards_dealt"
	TypeActionTaken       Type = "action_taken"
	TypeStreetAdvanced    Type = "street_advanced"
	TypeShowdownEvaluated Type = "showdown_evaluated"
	TypePotAwarded        Type = "pot_awarded"
	TypeHandCompleted     Type = "hand_completed"
)

// Event is an immutable fact about a hand. Sequence numbers are strictly
// increasing within a hand, starting at 1, with no gaps for committed events.
type Event struct {
	GameID   string          `json:"game_id"`
	HandNum  uint64          `json:"hand_num"`
	Seq      uint64          `json:"seq"`
	Type     Type            `json:"type"`
	PlayerID string          `json:"player_id,omitempty"`
	Amount   int             `json:"amount,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	At       time.Time       `json:"at"`
}

// Decode unmarshals the event payload into v.
func (e *Event) Decode(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("event %s/%d seq %d has no payload", e.GameID, e.HandNum, e.Seq)
	}
	return json.Unmarshal(e.Payload, v)
}

// Encode marshals v into the event payload, panicking on failure. Payload
// types are closed structs defined in this package; a marshal failure is a
// programming error, not an input error.
func (e *Event) Encode(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("encode %s payload: %v", e.Type, err))
	}
	e.Payload = data
}

// Snapshot is a point-in-time materialization of hand and game state after
// applying events up to LastSeq. It is a cache, never a source of truth:
// deleting snapshots must not change replay results.
type Snapshot struct {
	GameID  string          `json:"game_id"`
	HandNum uint64          `json:"hand_num"`
	LastSeq uint64          `json:"last_seq"`
	State   json.RawMessage `json:"state"`
	At      time.Time       `json:"at"`
}

// Store is the persistence interface the engine depends on. Implementations
// must make AppendEvents atomic: either every event in the batch is durable or
// none are.
type Store interface {
	// AppendEvents durably appends a batch of events for one hand. It fails
	// with ErrConcurrentMutation when any sequence number already exists,
	// which is how racing writers for the same hand are detected.
	AppendEvents(ctx context.Context, events []Event) error

	// LoadEvents returns the committed events for a hand with Seq >= fromSeq,
	// ordered by sequence number.
	LoadEvents(ctx context.Context, gameID string, handNum uint64, fromSeq uint64) ([]Event, error)

	// SaveSnapshot stores a snapshot, replacing any earlier snapshot for the
	// same hand.
	SaveSnapshot(ctx context.Context, snap Snapshot) error

	// LoadSnapshot returns the latest snapshot for a hand, or nil when none
	// exists.
	LoadSnapshot(ctx context.Context, gameID string, handNum uint64) (*Snapshot, error)
}
