package game

import (
	"sort"

	"github.com/cardroom/holdem/internal/evaluator"
	"github.com/cardroom/holdem/internal/event"
)

// Pot is a main or side pot, derived from player contribution levels. Pots
// are never stored as authoritative state; they are recomputed from the
// primitive facts (contributions and statuses) whenever needed.
type Pot struct {
	Amount   int   `json:"amount"`
	Level    int   `json:"level"`    // contribution level that closes this pot
	Eligible []int `json:"eligible"` // seats eligible to win, ascending
}

// BuildPots partitions the money committed so far into ordered pots.
//
// Contribution levels are the distinct cumulative bets of players still
// contesting the hand, ascending. Each level's pot takes the slice of every
// contesting player's contribution between the previous level and this one.
// Dead money from folded players lands entirely in the lowest pot. A folded
// player is never eligible for any pot; an all-in player is eligible only for
// pots at or below their own contribution level.
func BuildPots(players []*Player) []Pot {
	dead := 0
	levelSet := make(map[int]bool)
	for _, p := range players {
		if p.TotalBet == 0 {
			continue
		}
		if p.InHand() {
			levelSet[p.TotalBet] = true
		} else {
			dead += p.TotalBet
		}
	}

	levels := make([]int, 0, len(levelSet))
	for l := range levelSet {
		levels = append(levels, l)
	}
	sort.Ints(levels)

	if len(levels) == 0 {
		return nil
	}

	pots := make([]Pot, 0, len(levels))
	prev := 0
	for i, level := range levels {
		pot := Pot{Level: level}
		for _, p := range players {
			if p.InHand() && p.TotalBet >= level {
				pot.Amount += level - prev
				pot.Eligible = append(pot.Eligible, p.Seat)
			}
		}
		if i == 0 {
			pot.Amount += dead
		}
		pots = append(pots, pot)
		prev = level
	}
	return pots
}

// PotTotal sums the amounts across pots.
func PotTotal(pots []Pot) int {
	total := 0
	for _, pot := range pots {
		total += pot.Amount
	}
	return total
}

// DistributePots splits each pot among its eligible players tied for the best
// hand rank. The pot amount divides evenly by integer division; any remainder
// is awarded one chip at a time in seat order starting from the first winner
// clockwise of the button. The total awarded always equals the pot amount.
//
// A pot with a single eligible player is awarded without consulting ranks, so
// uncontested pots never require an evaluation.
func DistributePots(pots []Pot, ranks map[int]evaluator.HandRank, button, numSeats int) [][]event.PotShare {
	shares := make([][]event.PotShare, len(pots))
	for i, pot := range pots {
		winners := potWinners(pot, ranks)
		sortFromButton(winners, button, numSeats)

		base := pot.Amount / len(winners)
		remainder := pot.Amount % len(winners)
		split := make([]event.PotShare, len(winners))
		for j, seat := range winners {
			amount := base
			if j < remainder {
				amount++
			}
			split[j] = event.PotShare{Seat: seat, Amount: amount}
		}
		shares[i] = split
	}
	return shares
}

func potWinners(pot Pot, ranks map[int]evaluator.HandRank) []int {
	if len(pot.Eligible) == 1 {
		return []int{pot.Eligible[0]}
	}

	best := evaluator.HandRank(0)
	var winners []int
	for _, seat := range pot.Eligible {
		rank, ok := ranks[seat]
		if !ok {
			continue
		}
		switch evaluator.Compare(rank, best) {
		case 1:
			best = rank
			winners = []int{seat}
		case 0:
			winners = append(winners, seat)
		}
	}
	return winners
}

// sortFromButton orders seats clockwise starting from the seat after the
// button, which fixes the remainder tie-break deterministically.
func sortFromButton(seats []int, button, numSeats int) {
	key := func(seat int) int {
		return ((seat - button - 1) + numSeats) % numSeats
	}
	sort.Slice(seats, func(i, j int) bool {
		return key(seats[i]) < key(seats[j])
	})
}
