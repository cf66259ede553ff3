package game

import (
	"context"
	"errors"
	"testing"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroom/holdem/internal/event"
	"github.com/cardroom/holdem/internal/gameid"
	"github.com/cardroom/holdem/internal/store"
)

func testConfig(seed string) Config {
	return Config{
		GameID:        "table-1",
		SmallBlind:    5,
		BigBlind:      10,
		StartingChips: 200,
		MinPlayers:    2,
		MaxPlayers:    6,
		Seed:          seed,
		SnapshotEvery: 3,
	}
}

// playHand drives the current hand to completion with a check/call policy.
func playHand(t *testing.T, g *Game, state *PublicState) *PublicState {
	t.Helper()
	ctx := context.Background()
	for !state.Complete {
		action := ActionCheck
		if state.ToCall > 0 {
			action = ActionCall
		}
		next, err := g.ApplyAction(ctx, state.ActiveID, action, 0)
		require.NoError(t, err)
		state = next
	}
	return state
}

func TestGameLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := store.NewMemory()
	g, err := NewGame(testConfig("life"), st, []string{"alice", "bob", "carol"})
	require.NoError(t, err)

	assert.Nil(t, g.Public(), "no state before the first hand")

	state, err := g.StartHand(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), state.HandNum)
	assert.False(t, state.Complete)

	state = playHand(t, g, state)
	assert.Equal(t, "showdown", state.Reason)
	assert.Same(t, state, g.Public(), "published state is the last returned state")

	total := 0
	for _, seat := range g.Seats() {
		total += seat.Chips
		if seat.Chips == 0 {
			assert.True(t, seat.Out)
		}
	}
	assert.Equal(t, 600, total)

	// The next hand advances the number and rotates the button.
	state2, err := g.StartHand(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), state2.HandNum)
	assert.Equal(t, uint64(2), g.HandNum())
}

func TestStartHandWhileRunning(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g, err := NewGame(testConfig("busy"), store.NewMemory(), []string{"a", "b"})
	require.NoError(t, err)

	_, err = g.StartHand(ctx)
	require.NoError(t, err)
	_, err = g.StartHand(ctx)
	assert.ErrorIs(t, err, ErrHandInProgress)
}

func TestApplyActionWithoutHand(t *testing.T) {
	t.Parallel()

	g, err := NewGame(testConfig("idle"), store.NewMemory(), []string{"a", "b"})
	require.NoError(t, err)

	_, err = g.ApplyAction(context.Background(), "a", ActionCheck, 0)
	assert.ErrorIs(t, err, ErrNoActiveHand)
}

func TestNewGameValidation(t *testing.T) {
	t.Parallel()

	st := store.NewMemory()

	cfg := testConfig("v")
	cfg.GameID = ""
	_, err := NewGame(cfg, st, []string{"a", "b"})
	assert.Error(t, err)

	cfg = testConfig("v")
	cfg.BigBlind = cfg.SmallBlind
	_, err = NewGame(cfg, st, []string{"a", "b"})
	assert.Error(t, err)

	_, err = NewGame(testConfig("v"), st, []string{"a"})
	assert.Error(t, err, "below min players")

	_, err = NewGame(testConfig("v"), st, []string{"a", "a"})
	assert.Error(t, err, "duplicate player ids")
}

func TestNotifyReceivesEveryPublication(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var published []*PublicState
	g, err := NewGame(testConfig("notify"), store.NewMemory(), []string{"a", "b", "c"},
		WithNotify(func(s *PublicState) { published = append(published, s) }))
	require.NoError(t, err)

	state, err := g.StartHand(ctx)
	require.NoError(t, err)
	playHand(t, g, state)

	require.NotEmpty(t, published)
	assert.False(t, published[0].Complete)
	assert.True(t, published[len(published)-1].Complete)
	for i := 1; i < len(published); i++ {
		assert.Greater(t, published[i].Seq, published[i-1].Seq,
			"publications arrive in commit order")
	}
}

func TestNotifyMayReenterGame(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var g *Game
	var seen []uint64
	notify := func(s *PublicState) {
		// Re-entering the game from the callback must not deadlock.
		seats := g.Seats()
		assert.NotEmpty(t, seats)
		assert.Same(t, s, g.Public())
		seen = append(seen, s.Seq)
	}

	g, err := NewGame(testConfig("reenter"), store.NewMemory(), []string{"a", "b", "c"},
		WithNotify(notify))
	require.NoError(t, err)

	state, err := g.StartHand(ctx)
	require.NoError(t, err)
	playHand(t, g, state)
	assert.NotEmpty(t, seen)
}

func TestStepReloadsAfterPartialMutation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := store.NewMemory()
	g, err := NewGame(testConfig("partial"), st, []string{"a", "b", "c"})
	require.NoError(t, err)

	_, err = g.StartHand(ctx)
	require.NoError(t, err)
	before := g.hand.NextSeq

	// A mutation that applies events and then fails must not leave memory
	// ahead of the durable log.
	_, err = g.step(ctx, func(h *Hand) ([]event.Event, error) {
		p := h.Players[h.ActiveSeat]
		_, aerr := h.HandleAction(p.ID, ActionCall, 0)
		require.NoError(t, aerr)
		return nil, errors.New("mutation interrupted")
	})
	require.Error(t, err)

	assert.Equal(t, before, g.hand.NextSeq,
		"state rolls back to the last durable event")

	events, err := st.LoadEvents(ctx, "table-1", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, before, events[len(events)-1].Seq)

	// The hand remains playable after the rollback.
	state, err := g.ApplyAction(ctx, g.Public().ActiveID, ActionCall, 0)
	require.NoError(t, err)
	assert.Equal(t, before+1, state.Seq)
}

func TestSnapshotsSavedDuringPlay(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := store.NewMemory()
	g, err := NewGame(testConfig("snaps"), st, []string{"a", "b", "c"})
	require.NoError(t, err)

	state, err := g.StartHand(ctx)
	require.NoError(t, err)
	final := playHand(t, g, state)

	snap, err := st.LoadSnapshot(ctx, "table-1", 1)
	require.NoError(t, err)
	require.NotNil(t, snap, "snapshot cadence of 3 must have fired")
	assert.Greater(t, snap.LastSeq, uint64(0))
	assert.Less(t, snap.LastSeq, final.Seq)

	// The snapshot is a pure cache: resuming from it must converge on the
	// same final state as the full log.
	resumed, err := ReplayHand(ctx, st, "table-1", 1, snap, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, final, resumed.Public())
}

func TestRepeatedAllInsEventuallyEndGame(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g, err := NewGame(testConfig("bust"), store.NewMemory(), []string{"a", "b"})
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		state, err := g.StartHand(ctx)
		if err != nil {
			assert.ErrorIs(t, err, ErrIllegalAction, "game ends when one player remains")
			break
		}
		for !state.Complete {
			state, err = g.ApplyAction(ctx, state.ActiveID, ActionAllIn, 0)
			require.NoError(t, err)
		}

		total := 0
		for _, seat := range g.Seats() {
			total += seat.Chips
			if seat.Chips == 0 {
				assert.True(t, seat.Out, "busted seats are marked out")
			}
		}
		require.Equal(t, 400, total)
	}
}

func TestClockInjection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := store.NewMemory()
	mockClock := quartz.NewMock(t)
	g, err := NewGame(testConfig("clock"), st, []string{"a", "b"}, WithClock(mockClock))
	require.NoError(t, err)

	_, err = g.StartHand(ctx)
	require.NoError(t, err)

	events, err := st.LoadEvents(ctx, "table-1", 1, 1)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	for _, e := range events {
		assert.Equal(t, mockClock.Now(), e.At, "event timestamps come from the injected clock")
	}
}

func TestManagerGeneratesGameID(t *testing.T) {
	t.Parallel()

	m := NewManager(store.NewMemory(), zerolog.Nop())
	cfg := testConfig("gen")
	cfg.GameID = ""

	g, err := m.CreateGame(cfg, []string{"a", "b"})
	require.NoError(t, err)

	id := g.Config().GameID
	require.NotEmpty(t, id)
	assert.NoError(t, gameid.Validate(id))

	_, err = m.GetGame(id)
	assert.NoError(t, err)
}

func TestManagerRegistry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := store.NewMemory()
	m := NewManager(st, zerolog.Nop())

	cfg := testConfig("mgr")
	_, err := m.CreateGame(cfg, []string{"a", "b", "c"})
	require.NoError(t, err)

	_, err = m.CreateGame(cfg, []string{"x", "y"})
	assert.ErrorIs(t, err, ErrGameExists)

	_, err = m.GetGame("nope")
	assert.ErrorIs(t, err, ErrGameNotFound)

	state, err := m.StartHand(ctx, "table-1")
	require.NoError(t, err)

	state, err = m.ApplyAction(ctx, "table-1", state.ActiveID, ActionCall, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), state.HandNum)

	summaries := m.ListGames()
	require.Len(t, summaries, 1)
	assert.Equal(t, "table-1", summaries[0].ID)
	assert.Equal(t, uint64(1), summaries[0].HandsPlayed)

	_, err = m.RemoveGame("table-1")
	require.NoError(t, err)
	_, err = m.GetGame("table-1")
	assert.ErrorIs(t, err, ErrGameNotFound)

	// Removal never touches the stored events; the hand stays replayable.
	states, err := ReplayStates(ctx, st, "table-1", 1)
	require.NoError(t, err)
	assert.NotEmpty(t, states)
}
