package game

import "github.com/cardroom/holdem/internal/deck"

// PlayerStatus tracks a player's standing within one hand.
type PlayerStatus int

const (
	PlayerActive PlayerStatus = iota
	PlayerFolded
	PlayerAllIn
	PlayerOut
)

func (s PlayerStatus) String() string {
	return [...]string{"active", "folded", "all_in", "out"}[s]
}

// Player represents a player in a hand. Seat numbers are hand-local positions
// in deal order.
type Player struct {
	Seat      int          `json:"seat"`
	ID        string       `json:"id"`
	Chips     int          `json:"chips"`
	HoleCards []deck.Card  `json:"hole_cards,omitempty"`
	Status    PlayerStatus `json:"status"`
	Bet       int          `json:"bet"`       // current bet this street
	TotalBet  int          `json:"total_bet"` // cumulative contribution this hand
}

// CanAct returns true if the player can still take actions this hand.
func (p *Player) CanAct() bool {
	return p.Status == PlayerActive
}

// InHand returns true if the player contests the pot (active or all-in).
func (p *Player) InHand() bool {
	return p.Status == PlayerActive || p.Status == PlayerAllIn
}
