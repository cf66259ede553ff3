package game

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cardroom/holdem/internal/event"
	"github.com/cardroom/holdem/internal/gameid"
)

// GameSummary holds lightweight per-table metadata for listings.
type GameSummary struct {
	ID          string `json:"id"`
	SmallBlind  int    `json:"small_blind"`
	BigBlind    int    `json:"big_blind"`
	StartChips  int    `json:"start_chips"`
	MinPlayers  int    `json:"min_players"`
	MaxPlayers  int    `json:"max_players"`
	HandsPlayed uint64 `json:"hands_played"`
	Complete    bool   `json:"complete"`
}

// Manager tracks the running games and routes commands to them by ID. It
// only guards the registry itself; each game carries its own lock, so slow
// hands on one table never block the others.
type Manager struct {
	logger zerolog.Logger
	store  event.Store

	mu    sync.RWMutex
	games map[string]*Game
}

// NewManager constructs an empty game manager backed by the given store.
func NewManager(store event.Store, logger zerolog.Logger) *Manager {
	return &Manager{
		logger: logger.With().Str("component", "game_manager").Logger(),
		store:  store,
		games:  make(map[string]*Game),
	}
}

// CreateGame registers a new table and seats its players. An empty config ID
// gets a generated one; an explicit ID must be unused.
func (m *Manager) CreateGame(cfg Config, playerIDs []string, opts ...GameOption) (*Game, error) {
	if cfg.GameID == "" {
		cfg.GameID = gameid.Generate()
	}
	opts = append([]GameOption{WithLogger(m.logger)}, opts...)
	g, err := NewGame(cfg, m.store, playerIDs, opts...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[cfg.GameID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrGameExists, cfg.GameID)
	}
	m.games[cfg.GameID] = g
	m.logger.Info().Str("game_id", cfg.GameID).Int("players", len(playerIDs)).Msg("game created")
	return g, nil
}

// GetGame retrieves a game by ID.
func (m *Manager) GetGame(id string) (*Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return g, nil
}

// StartHand starts the next hand on the given table.
func (m *Manager) StartHand(ctx context.Context, id string) (*PublicState, error) {
	g, err := m.GetGame(id)
	if err != nil {
		return nil, err
	}
	return g.StartHand(ctx)
}

// ApplyAction routes a player action to its table.
func (m *Manager) ApplyAction(ctx context.Context, id, playerID string, action ActionType, amount int) (*PublicState, error) {
	g, err := m.GetGame(id)
	if err != nil {
		return nil, err
	}
	return g.ApplyAction(ctx, playerID, action, amount)
}

// RemoveGame drops a table from the registry and returns it. Its events stay
// in the store and remain replayable.
func (m *Manager) RemoveGame(id string) (*Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	delete(m.games, id)
	m.logger.Info().Str("game_id", id).Msg("game removed")
	return g, nil
}

// ListGames returns a snapshot of the registered tables.
func (m *Manager) ListGames() []GameSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summaries := make([]GameSummary, 0, len(m.games))
	for id, g := range m.games {
		summary := GameSummary{
			ID:          id,
			SmallBlind:  g.cfg.SmallBlind,
			BigBlind:    g.cfg.BigBlind,
			StartChips:  g.cfg.StartingChips,
			MinPlayers:  g.cfg.MinPlayers,
			MaxPlayers:  g.cfg.MaxPlayers,
			HandsPlayed: g.HandNum(),
		}
		if state := g.Public(); state != nil {
			summary.Complete = state.Complete
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
