package game

import (
	"github.com/cardroom/holdem/internal/deck"
	"github.com/cardroom/holdem/internal/event"
)

// SeatView is the externally visible state of one seat. Hole cards are never
// included; showdown reveals happen through the rankings instead.
type SeatView struct {
	Seat     int    `json:"seat"`
	PlayerID string `json:"player_id"`
	Chips    int    `json:"chips"`
	Bet      int    `json:"bet"`
	TotalBet int    `json:"total_bet"`
	Status   string `json:"status"`
}

// PotView is a derived pot for display.
type PotView struct {
	Amount   int   `json:"amount"`
	Eligible []int `json:"eligible"`
}

// PublicState is the externally visible state of a game after a committed
// mutation. It is immutable once published; readers always observe either the
// pre- or fully-post-action state, never a partial mutation.
type PublicState struct {
	GameID     string             `json:"game_id"`
	HandNum    uint64             `json:"hand_num"`
	Seq        uint64             `json:"seq"`
	Street     string             `json:"street"`
	Board      []string           `json:"board"`
	Pots       []PotView          `json:"pots,omitempty"`
	PotTotal   int                `json:"pot_total"`
	Seats      []SeatView         `json:"seats"`
	ActiveSeat int                `json:"active_seat"`
	ActiveID   string             `json:"active_id,omitempty"`
	CurrentBet int                `json:"current_bet"`
	MinRaise   int                `json:"min_raise"`
	ToCall     int                `json:"to_call"`
	Complete   bool               `json:"complete"`
	Reason     string             `json:"reason,omitempty"`
	Payouts    []event.PotShare   `json:"payouts,omitempty"`
	Rankings   []event.PlayerRank `json:"rankings,omitempty"`
}

// Public materializes the externally visible state of the hand.
func (h *Hand) Public() *PublicState {
	s := &PublicState{
		GameID:     h.GameID,
		HandNum:    h.HandNum,
		Seq:        h.NextSeq,
		Street:     h.Street.String(),
		Board:      deck.Codes(h.Board),
		ActiveSeat: h.ActiveSeat,
		CurrentBet: h.CurrentBet,
		MinRaise:   h.MinRaise,
		Complete:   h.IsComplete(),
		Reason:     h.Reason,
		Payouts:    append([]event.PotShare(nil), h.Payouts...),
		Rankings:   append([]event.PlayerRank(nil), h.Rankings...),
	}

	s.Seats = make([]SeatView, len(h.Players))
	for i, p := range h.Players {
		s.Seats[i] = SeatView{
			Seat:     p.Seat,
			PlayerID: p.ID,
			Chips:    p.Chips,
			Bet:      p.Bet,
			TotalBet: p.TotalBet,
			Status:   p.Status.String(),
		}
	}

	if !h.IsComplete() {
		for _, pot := range BuildPots(h.Players) {
			s.Pots = append(s.Pots, PotView{Amount: pot.Amount, Eligible: pot.Eligible})
			s.PotTotal += pot.Amount
		}
		if h.ActiveSeat >= 0 {
			p := h.Players[h.ActiveSeat]
			s.ActiveID = p.ID
			s.ToCall = h.CurrentBet - p.Bet
		}
	}

	return s
}
