package main

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/cardroom/holdem/internal/config"
	"github.com/cardroom/holdem/internal/event"
	"github.com/cardroom/holdem/internal/game"
	"github.com/cardroom/holdem/internal/store"
)

// SimulateCmd plays hands with a check/call policy on every configured table.
// It exists to exercise the engine end to end and to generate event logs for
// the replay command.
type SimulateCmd struct {
	Config   string `short:"c" help:"HCL config file" default:"holdem.hcl"`
	Hands    int    `short:"n" help:"Hands to play per table" default:"10"`
	Players  int    `short:"p" help:"Players per table" default:"4"`
	Database string `help:"SQLite database path (overrides config)"`
	Seed     string `help:"Table seed for reproducible runs (overrides config)"`
	LogLevel string `help:"Log level" default:""`
	JSON     bool   `help:"Structured JSON logs"`
}

func (cmd *SimulateCmd) Run() error {
	cfg, err := config.Load(cmd.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := cfg.Engine.LogLevel
	if cmd.LogLevel != "" {
		level = cmd.LogLevel
	}
	logger := setupLogger(level)
	if cmd.JSON {
		logger = setupStructuredLogger(level)
	}

	dbPath := cfg.Engine.Database
	if cmd.Database != "" {
		dbPath = cmd.Database
	}
	var st event.Store
	if dbPath != "" {
		sq, err := store.OpenSQLite(dbPath)
		if err != nil {
			return err
		}
		defer sq.Close()
		st = sq
	} else {
		st = store.NewMemory()
	}

	manager := game.NewManager(st, logger)
	ctx := context.Background()

	var eg errgroup.Group
	for _, table := range cfg.Tables {
		eg.Go(func() error {
			return cmd.runTable(ctx, manager, cfg, table)
		})
	}
	return eg.Wait()
}

func (cmd *SimulateCmd) runTable(ctx context.Context, manager *game.Manager, cfg *config.Config, table config.TableConfig) error {
	seed := table.Seed
	if cmd.Seed != "" {
		seed = cmd.Seed
	}

	players := make([]string, cmd.Players)
	for i := range players {
		players[i] = fmt.Sprintf("%s-p%d", table.Name, i+1)
	}

	g, err := manager.CreateGame(game.Config{
		GameID:        table.Name,
		SmallBlind:    table.SmallBlind,
		BigBlind:      table.BigBlind,
		StartingChips: table.StartingChips,
		MinPlayers:    table.MinPlayers,
		MaxPlayers:    table.MaxPlayers,
		Seed:          seed,
		SnapshotEvery: uint64(cfg.Engine.SnapshotEvery),
	}, players)
	if err != nil {
		return err
	}

	total := cmd.Players * table.StartingChips
	for hand := 0; hand < cmd.Hands; hand++ {
		state, err := g.StartHand(ctx)
		if err != nil {
			// Down to one player with chips; the table is done.
			break
		}

		for !state.Complete {
			action := game.ActionCheck
			if state.ToCall > 0 {
				action = game.ActionCall
			}
			state, err = g.ApplyAction(ctx, state.ActiveID, action, 0)
			if err != nil {
				return fmt.Errorf("table %s hand %d: %w", table.Name, hand+1, err)
			}
		}

		if sum := stackTotal(g); sum != total {
			return fmt.Errorf("table %s hand %d: chips not conserved, %d != %d",
				table.Name, hand+1, sum, total)
		}
	}
	return nil
}

func stackTotal(g *game.Game) int {
	sum := 0
	for _, seat := range g.Seats() {
		sum += seat.Chips
	}
	return sum
}
