package game

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/cardroom/holdem/internal/event"
)

// Config carries the table parameters for one game.
type Config struct {
	GameID        string `json:"game_id"`
	SmallBlind    int    `json:"small_blind"`
	BigBlind      int    `json:"big_blind"`
	StartingChips int    `json:"starting_chips"`
	MinPlayers    int    `json:"min_players"`
	MaxPlayers    int    `json:"max_players"`

	// Seed is the base table seed. Each hand derives its own seed from it and
	// the hand number, so a fixed table seed makes every hand reproducible.
	// Empty means a fresh random seed per hand.
	Seed string `json:"seed,omitempty"`

	// SnapshotEvery saves a snapshot each time this many events accumulate in
	// the current hand. Zero disables snapshots.
	SnapshotEvery uint64 `json:"snapshot_every,omitempty"`
}

// Validate checks the config for internal consistency.
func (c *Config) Validate() error {
	if c.GameID == "" {
		return fmt.Errorf("game id is required")
	}
	if c.SmallBlind <= 0 || c.BigBlind <= c.SmallBlind {
		return fmt.Errorf("invalid blinds %d/%d", c.SmallBlind, c.BigBlind)
	}
	if c.StartingChips < c.BigBlind {
		return fmt.Errorf("starting chips %d below big blind %d", c.StartingChips, c.BigBlind)
	}
	if c.MinPlayers < 2 {
		return fmt.Errorf("min players %d below 2", c.MinPlayers)
	}
	if c.MaxPlayers < c.MinPlayers || c.MaxPlayers > 10 {
		return fmt.Errorf("max players %d outside %d..10", c.MaxPlayers, c.MinPlayers)
	}
	return nil
}

// Seat is a table seat across hands. Chips here are authoritative between
// hands; during a hand the Hand's per-player stacks are authoritative and are
// copied back on completion.
type Seat struct {
	PlayerID string `json:"player_id"`
	Chips    int    `json:"chips"`
	Out      bool   `json:"out"`
}

// NotifyFunc is called with each newly published state after the game lock is
// released, so callbacks may safely re-enter the game. Callbacks for
// mutations racing on different goroutines may arrive out of order; Seq
// orders them.
type NotifyFunc func(*PublicState)

// Game serializes all mutations of one table behind a single mutex and
// persists every mutation as events before exposing its effects. The published
// state is swapped atomically, so readers never block on writers and never see
// a half-applied action.
type Game struct {
	cfg    Config
	store  event.Store
	clock  quartz.Clock
	log    zerolog.Logger
	notify NotifyFunc

	mu       sync.Mutex
	seats    []Seat
	button   int
	handNum  uint64
	hand     *Hand
	handSeat []int // hand seat index -> table seat index

	public atomic.Pointer[PublicState]
}

// GameOption configures a Game.
type GameOption func(*Game)

// WithLogger sets the logger. Defaults to a disabled logger.
func WithLogger(log zerolog.Logger) GameOption {
	return func(g *Game) { g.log = log }
}

// WithClock sets the time source, mockable in tests.
func WithClock(clock quartz.Clock) GameOption {
	return func(g *Game) { g.clock = clock }
}

// WithNotify registers a callback invoked after each state publication.
func WithNotify(fn NotifyFunc) GameOption {
	return func(g *Game) { g.notify = fn }
}

// NewGame creates a table with every player seated at the starting stack.
func NewGame(cfg Config, store event.Store, playerIDs []string, opts ...GameOption) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(playerIDs) < cfg.MinPlayers || len(playerIDs) > cfg.MaxPlayers {
		return nil, fmt.Errorf("%d players outside table range %d..%d", len(playerIDs), cfg.MinPlayers, cfg.MaxPlayers)
	}
	seen := make(map[string]bool, len(playerIDs))
	for _, id := range playerIDs {
		if id == "" || seen[id] {
			return nil, fmt.Errorf("player ids must be unique and non-empty")
		}
		seen[id] = true
	}

	g := &Game{
		cfg:    cfg,
		store:  store,
		clock:  quartz.NewReal(),
		log:    zerolog.Nop(),
		button: -1,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.With().Str("game_id", cfg.GameID).Logger()

	g.seats = make([]Seat, len(playerIDs))
	for i, id := range playerIDs {
		g.seats[i] = Seat{PlayerID: id, Chips: cfg.StartingChips}
	}
	return g, nil
}

// StartHand deals the next hand. The button rotates to the next seat still in
// the game; busted seats are skipped and never dealt in.
func (g *Game) StartHand(ctx context.Context) (*PublicState, error) {
	g.mu.Lock()
	state, err := g.startHandLocked(ctx)
	g.mu.Unlock()
	if err != nil {
		return nil, err
	}
	g.sendNotify(state)
	return state, nil
}

func (g *Game) startHandLocked(ctx context.Context) (*PublicState, error) {
	if g.hand != nil && !g.hand.IsComplete() {
		return nil, fmt.Errorf("%w: hand %d still running", ErrHandInProgress, g.handNum)
	}

	var live []int
	for i, s := range g.seats {
		if !s.Out && s.Chips > 0 {
			live = append(live, i)
		}
	}
	if len(live) < 2 {
		return nil, fmt.Errorf("%w: only %d players remain", ErrIllegalAction, len(live))
	}

	g.button = g.nextLiveSeat(g.button + 1)
	g.handNum++

	seats := make([]event.SeatInfo, len(live))
	button := 0
	for i, tableSeat := range live {
		seats[i] = event.SeatInfo{Seat: i, PlayerID: g.seats[tableSeat].PlayerID, Chips: g.seats[tableSeat].Chips}
		if tableSeat == g.button {
			button = i
		}
	}

	hand, events, err := NewHand(g.cfg.GameID, g.handNum, g.handSeed(), button,
		g.cfg.SmallBlind, g.cfg.BigBlind, seats, func() time.Time { return g.clock.Now() })
	if err != nil {
		return nil, err
	}

	if err := g.store.AppendEvents(ctx, events); err != nil {
		return nil, fmt.Errorf("append hand %d events: %w", g.handNum, err)
	}

	g.hand = hand
	g.handSeat = live
	g.log.Info().Uint64("hand", g.handNum).Int("button", g.button).
		Int("players", len(live)).Msg("hand started")
	return g.publish(), nil
}

// ApplyAction validates, persists and applies one player action. The events
// are durable before the new state becomes visible; a storage failure leaves
// the published state untouched and the in-memory hand is rebuilt from the
// store to discard the rejected mutation.
func (g *Game) ApplyAction(ctx context.Context, playerID string, action ActionType, amount int) (*PublicState, error) {
	g.mu.Lock()
	state, err := g.step(ctx, func(h *Hand) ([]event.Event, error) {
		return h.HandleAction(playerID, action, amount)
	})
	g.mu.Unlock()
	if err != nil {
		return nil, err
	}
	g.sendNotify(state)
	return state, nil
}

// ForceAction checks when legal and folds otherwise, on behalf of the acting
// player. Timeout enforcement above the engine calls this.
func (g *Game) ForceAction(ctx context.Context, playerID string) (*PublicState, error) {
	g.mu.Lock()
	state, err := g.step(ctx, func(h *Hand) ([]event.Event, error) {
		return h.ForceAction(playerID)
	})
	g.mu.Unlock()
	if err != nil {
		return nil, err
	}
	g.sendNotify(state)
	return state, nil
}

func (g *Game) step(ctx context.Context, mutate func(*Hand) ([]event.Event, error)) (*PublicState, error) {
	if g.hand == nil || g.hand.IsComplete() {
		return nil, ErrNoActiveHand
	}

	seq := g.hand.NextSeq
	events, err := mutate(g.hand)
	if err != nil {
		// A validation failure leaves state untouched. Anything that failed
		// after events applied left memory ahead of disk, so rebuild from the
		// durable log.
		if g.hand.NextSeq != seq {
			if rerr := g.reload(ctx); rerr != nil {
				g.log.Error().Err(rerr).Uint64("hand", g.handNum).Msg("reload after failed mutation")
			}
		}
		return nil, err
	}

	if err := g.store.AppendEvents(ctx, events); err != nil {
		if rerr := g.reload(ctx); rerr != nil {
			g.log.Error().Err(rerr).Uint64("hand", g.handNum).Msg("reload after failed append")
		}
		return nil, fmt.Errorf("append hand %d events: %w", g.handNum, err)
	}

	g.maybeSnapshot(ctx, uint64(len(events)))
	return g.publish(), nil
}

// publish settles a finished hand back into the table seats and swaps in the
// new public state. Called under the game lock; notification happens after
// the lock is released.
func (g *Game) publish() *PublicState {
	if g.hand.IsComplete() {
		for i, tableSeat := range g.handSeat {
			g.seats[tableSeat].Chips = g.hand.Players[i].Chips
			if g.seats[tableSeat].Chips == 0 {
				g.seats[tableSeat].Out = true
				g.log.Info().Str("player_id", g.seats[tableSeat].PlayerID).Msg("player busted")
			}
		}
		g.log.Info().Uint64("hand", g.handNum).Str("reason", g.hand.Reason).Msg("hand completed")
	}

	state := g.hand.Public()
	g.public.Store(state)
	return state
}

func (g *Game) sendNotify(state *PublicState) {
	if g.notify != nil {
		g.notify(state)
	}
}

// maybeSnapshot saves a snapshot when the hand crossed a snapshot boundary
// within the batch just appended. Snapshot failures are logged, not fatal: a
// snapshot is a cache, never the source of truth.
func (g *Game) maybeSnapshot(ctx context.Context, appended uint64) {
	every := g.cfg.SnapshotEvery
	if every == 0 || g.hand.IsComplete() {
		return
	}
	seq := g.hand.NextSeq
	if seq/every == (seq-appended)/every {
		return
	}

	snap, err := g.hand.snapshot(g.clock.Now())
	if err == nil {
		err = g.store.SaveSnapshot(ctx, snap)
	}
	if err != nil {
		g.log.Warn().Err(err).Uint64("hand", g.handNum).Uint64("seq", seq).Msg("snapshot failed")
		return
	}
	g.log.Debug().Uint64("hand", g.handNum).Uint64("seq", seq).Msg("snapshot saved")
}

// reload discards the in-memory hand and rebuilds it from durable events,
// resuming from the latest snapshot when one exists.
func (g *Game) reload(ctx context.Context) error {
	snap, err := g.store.LoadSnapshot(ctx, g.cfg.GameID, g.handNum)
	if err != nil {
		return err
	}
	hand, err := ReplayHand(ctx, g.store, g.cfg.GameID, g.handNum, snap, func() time.Time { return g.clock.Now() })
	if err != nil {
		return err
	}
	g.hand = hand
	g.public.Store(hand.Public())
	return nil
}

// Public returns the latest published state without taking the game lock, or
// nil before the first hand.
func (g *Game) Public() *PublicState {
	return g.public.Load()
}

// Config returns the table configuration.
func (g *Game) Config() Config {
	return g.cfg
}

// Seats returns a copy of the table seats.
func (g *Game) Seats() []Seat {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Seat(nil), g.seats...)
}

// HandNum returns the number of the most recently started hand.
func (g *Game) HandNum() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.handNum
}

// handSeed derives the per-hand seed. With a table seed set, hands are
// reproducible; otherwise each hand draws a fresh random seed, recorded in the
// hand_started event so replay still works.
func (g *Game) handSeed() string {
	if g.cfg.Seed != "" {
		return fmt.Sprintf("%s#%d", g.cfg.Seed, g.handNum)
	}
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("read random seed: %v", err))
	}
	return hex.EncodeToString(buf[:])
}

func (g *Game) nextLiveSeat(from int) int {
	n := len(g.seats)
	for i := 0; i < n; i++ {
		seat := ((from + i) % n + n) % n
		if !g.seats[seat].Out && g.seats[seat].Chips > 0 {
			return seat
		}
	}
	return 0
}
