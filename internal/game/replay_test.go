package game

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroom/holdem/internal/event"
	"github.com/cardroom/holdem/internal/store"
)

// playRecordedHand plays a full check/call hand, persisting every event, and
// returns the finished live hand.
func playRecordedHand(t *testing.T, st event.Store, seed string) *Hand {
	t.Helper()
	ctx := context.Background()

	h, events, err := NewHand("g1", 1, seed, 0, 5, 10, testSeats(200, 200, 200), fixedNow)
	require.NoError(t, err)
	require.NoError(t, st.AppendEvents(ctx, events))

	for !h.IsComplete() {
		p := h.Players[h.ActiveSeat]
		action := ActionCheck
		if p.Bet < h.CurrentBet {
			action = ActionCall
		}
		events, err := h.HandleAction(p.ID, action, 0)
		require.NoError(t, err)
		require.NoError(t, st.AppendEvents(ctx, events))
	}
	return h
}

func TestReplayMatchesLiveState(t *testing.T) {
	t.Parallel()

	st := store.NewMemory()
	live := playRecordedHand(t, st, "replay-seed")

	replayed, err := ReplayHand(context.Background(), st, "g1", 1, nil, fixedNow)
	require.NoError(t, err)

	liveJSON, err := json.Marshal(live)
	require.NoError(t, err)
	replayJSON, err := json.Marshal(replayed)
	require.NoError(t, err)
	assert.JSONEq(t, string(liveJSON), string(replayJSON),
		"replayed state must be byte-identical to live state")
	assert.Equal(t, live.Public(), replayed.Public())
}

func TestReplayFromSnapshotMatchesFullReplay(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := store.NewMemory()

	h, events, err := NewHand("g1", 1, "snap-seed", 0, 5, 10, testSeats(200, 200, 200), fixedNow)
	require.NoError(t, err)
	require.NoError(t, st.AppendEvents(ctx, events))

	// Snapshot mid-hand after every batch, exercising several cut points.
	for !h.IsComplete() {
		snap, err := h.snapshot(fixedNow())
		require.NoError(t, err)
		require.NoError(t, st.SaveSnapshot(ctx, snap))

		p := h.Players[h.ActiveSeat]
		action := ActionCheck
		if p.Bet < h.CurrentBet {
			action = ActionCall
		}
		events, err := h.HandleAction(p.ID, action, 0)
		require.NoError(t, err)
		require.NoError(t, st.AppendEvents(ctx, events))
	}

	full, err := ReplayHand(ctx, st, "g1", 1, nil, fixedNow)
	require.NoError(t, err)

	snap, err := st.LoadSnapshot(ctx, "g1", 1)
	require.NoError(t, err)
	require.NotNil(t, snap)

	resumed, err := ReplayHand(ctx, st, "g1", 1, snap, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, full.Public(), resumed.Public(),
		"snapshot plus suffix must equal the full replay")
	assert.Equal(t, h.Public(), resumed.Public())
}

func TestReplayStatesProgression(t *testing.T) {
	t.Parallel()

	st := store.NewMemory()
	playRecordedHand(t, st, "states-seed")

	states, err := ReplayStates(context.Background(), st, "g1", 1)
	require.NoError(t, err)
	require.NotEmpty(t, states)

	for i, state := range states {
		assert.Equal(t, uint64(i+1), state.Seq)
	}
	assert.False(t, states[0].Complete)
	assert.True(t, states[len(states)-1].Complete)
}

func TestReplayDetectsSequenceGap(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := store.NewMemory()
	playRecordedHand(t, src, "gap-seed")

	events, err := src.LoadEvents(ctx, "g1", 1, 1)
	require.NoError(t, err)
	require.Greater(t, len(events), 4)

	// Drop one mid-log event; replay must refuse the gapped log.
	h := &Hand{now: fixedNow}
	require.NoError(t, h.apply(&events[0]))
	require.NoError(t, h.apply(&events[1]))
	err = h.apply(&events[3])
	assert.ErrorIs(t, err, ErrCorruptReplay)
}

func TestReplayDetectsTamperedCards(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := store.NewMemory()
	playRecordedHand(t, src, "tamper-seed")

	events, err := src.LoadEvents(ctx, "g1", 1, 1)
	require.NoError(t, err)

	// Rewrite the seed in hand_started: the recorded cards no longer match
	// the deck that seed derives.
	var started event.HandStarted
	require.NoError(t, events[0].Decode(&started))
	started.Seed = "some-other-seed"
	events[0].Encode(started)

	dst := store.NewMemory()
	require.NoError(t, dst.AppendEvents(ctx, events))

	_, err = ReplayHand(ctx, dst, "g1", 1, nil, fixedNow)
	assert.ErrorIs(t, err, ErrCorruptReplay)
}

func TestReplayRejectsEmptyOrMalformedLog(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := store.NewMemory()

	_, err := ReplayHand(ctx, st, "missing", 9, nil, fixedNow)
	assert.ErrorIs(t, err, ErrCorruptReplay)

	// A log that does not open with hand_started is unusable.
	e := event.Event{GameID: "g2", HandNum: 1, Seq: 1, Type: event.TypeActionTaken, At: fixedNow()}
	e.Encode(event.ActionTaken{Seat: 0, Action: "check"})
	require.NoError(t, st.AppendEvents(ctx, []event.Event{e}))

	_, err = ReplayHand(ctx, st, "g2", 1, nil, fixedNow)
	assert.ErrorIs(t, err, ErrCorruptReplay)
}
