package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cardroom/holdem/internal/game"
	"github.com/cardroom/holdem/internal/store"
)

// ReplayCmd reconstructs every intermediate state of a stored hand from its
// event log and prints them in order.
type ReplayCmd struct {
	Database string `short:"d" help:"SQLite database path" required:""`
	Game     string `short:"g" help:"Game ID" required:""`
	Hand     uint64 `short:"n" help:"Hand number" default:"1"`
	JSON     bool   `help:"Print states as JSON lines"`
}

func (cmd *ReplayCmd) Run() error {
	st, err := store.OpenSQLite(cmd.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	states, err := game.ReplayStates(context.Background(), st, cmd.Game, cmd.Hand)
	if err != nil {
		return err
	}

	if cmd.JSON {
		enc := json.NewEncoder(os.Stdout)
		for _, state := range states {
			if err := enc.Encode(state); err != nil {
				return err
			}
		}
		return nil
	}

	for _, state := range states {
		printState(state)
	}
	return nil
}

func printState(s *game.PublicState) {
	board := strings.Join(s.Board, " ")
	if board == "" {
		board = "-"
	}

	fmt.Printf("#%-3d %-8s board: %-15s pot: %d\n", s.Seq, s.Street, board, s.PotTotal)
	for _, seat := range s.Seats {
		marker := " "
		if seat.Seat == s.ActiveSeat && !s.Complete {
			marker = "*"
		}
		fmt.Printf("  %s seat %d %-12s chips=%-5d bet=%-4d %s\n",
			marker, seat.Seat, seat.PlayerID, seat.Chips, seat.Bet, seat.Status)
	}
	if s.Complete {
		fmt.Printf("  hand complete (%s)\n", s.Reason)
		for _, payout := range s.Payouts {
			fmt.Printf("    seat %d wins %d\n", payout.Seat, payout.Amount)
		}
	}
	fmt.Println()
}
