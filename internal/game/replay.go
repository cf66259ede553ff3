package game

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cardroom/holdem/internal/deck"
	"github.com/cardroom/holdem/internal/event"
)

// ReplayHand reconstructs a hand purely from its committed events, applying
// them through the same transition function used for live play. fromSnapshot
// optionally resumes from a stored snapshot; passing nil replays from the
// first event. Sequence gaps and card mismatches surface as ErrCorruptReplay.
func ReplayHand(ctx context.Context, store event.Store, gameID string, handNum uint64, fromSnapshot *event.Snapshot, now func() time.Time) (*Hand, error) {
	var h *Hand
	fromSeq := uint64(1)

	if fromSnapshot != nil {
		restored, err := restoreHand(fromSnapshot, now)
		if err != nil {
			return nil, err
		}
		h = restored
		fromSeq = fromSnapshot.LastSeq + 1
	}

	events, err := store.LoadEvents(ctx, gameID, handNum, fromSeq)
	if err != nil {
		return nil, err
	}
	if h == nil {
		if len(events) == 0 {
			return nil, fmt.Errorf("%w: no events for game %s hand %d", ErrCorruptReplay, gameID, handNum)
		}
		if events[0].Type != event.TypeHandStarted {
			return nil, fmt.Errorf("%w: first event is %s, not %s", ErrCorruptReplay, events[0].Type, event.TypeHandStarted)
		}
		h = &Hand{now: now}
	}

	for i := range events {
		if err := h.apply(&events[i]); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// ReplayStates reconstructs the ordered sequence of externally visible states
// of a hand, one per committed event. Used for historical-hand review.
func ReplayStates(ctx context.Context, store event.Store, gameID string, handNum uint64) ([]*PublicState, error) {
	events, err := store.LoadEvents(ctx, gameID, handNum, 1)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: no events for game %s hand %d", ErrCorruptReplay, gameID, handNum)
	}
	if events[0].Type != event.TypeHandStarted {
		return nil, fmt.Errorf("%w: first event is %s, not %s", ErrCorruptReplay, events[0].Type, event.TypeHandStarted)
	}

	h := &Hand{now: time.Now}
	states := make([]*PublicState, 0, len(events))
	for i := range events {
		if err := h.apply(&events[i]); err != nil {
			return nil, err
		}
		states = append(states, h.Public())
	}
	return states, nil
}

// snapshot serializes the hand for storage. The deck is not stored: it is a
// pure function of the seed and the number of cards drawn.
func (h *Hand) snapshot(at time.Time) (event.Snapshot, error) {
	state, err := json.Marshal(h)
	if err != nil {
		return event.Snapshot{}, err
	}
	return event.Snapshot{
		GameID:  h.GameID,
		HandNum: h.HandNum,
		LastSeq: h.NextSeq,
		State:   state,
		At:      at,
	}, nil
}

// restoreHand rebuilds a hand from snapshot state, reconstructing the deck
// from the seed and advancing it past the cards already dealt.
func restoreHand(snap *event.Snapshot, now func() time.Time) (*Hand, error) {
	h := &Hand{now: now}
	if err := json.Unmarshal(snap.State, h); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot for %s/%d: %v", ErrCorruptReplay, snap.GameID, snap.HandNum, err)
	}
	if h.NextSeq != snap.LastSeq {
		return nil, fmt.Errorf("%w: snapshot last seq %d does not match state seq %d", ErrCorruptReplay, snap.LastSeq, h.NextSeq)
	}
	h.deck = deck.NewSeeded(h.Seed)
	if err := h.deck.Skip(h.CardsDrawn); err != nil {
		return nil, fmt.Errorf("%w: snapshot draws exceed deck: %v", ErrCorruptReplay, err)
	}
	return h, nil
}
