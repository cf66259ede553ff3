package event

// SeatInfo describes one seat at the moment a hand starts.
type SeatInfo struct {
	Seat     int    `json:"seat"`
	PlayerID string `json:"player_id"`
	Chips    int    `json:"chips"`
}

// HandStarted opens a hand. The seed fully determines the deck ordering, so
// this event plus the action log is sufficient to replay the deal exactly.
type HandStarted struct {
	Seed       string     `json:"seed"`
	Button     int        `json:"button"`
	SmallBlind int        `json:"small_blind"`
	BigBlind   int        `json:"big_blind"`
	Seats      []SeatInfo `json:"seats"`
}

// BlindPosted records a forced bet.
type BlindPosted struct {
	Kind   string `json:"kind"` // "small" or "big"
	Seat   int    `json:"seat"`
	Amount int    `json:"amount"`
}

// CardsDealt records cards leaving the deck. Kind is "hole" (Seat set) or
// "flop"/"turn"/"river". The cards are persisted for audit; replay re-derives
// them from the seed and treats a mismatch as corruption.
type CardsDealt struct {
	Kind  string   `json:"kind"`
	Seat  int      `json:"seat,omitempty"`
	Cards []string `json:"cards"`
}

// ActionTaken records a validated player action. Level is the street bet level
// the acting player is at after the action; Paid is the chips moved by it.
type ActionTaken struct {
	Seat   int    `json:"seat"`
	Action string `json:"action"` // fold, check, call, bet, raise, all_in
	Level  int    `json:"level"`
	Paid   int    `json:"paid"`
	AllIn  bool   `json:"all_in,omitempty"`
}

// StreetAdvanced moves the hand to the next street. Per-street bets have been
// folded into cumulative totals when this applies.
type StreetAdvanced struct {
	Street string `json:"street"`
}

// PlayerRank records one showdown evaluation result.
type PlayerRank struct {
	Seat     int      `json:"seat"`
	Rank     uint32   `json:"rank"`
	Category string   `json:"category"`
	Cards    []string `json:"cards"`
}

// ShowdownEvaluated records the evaluated hands of every non-folded player.
type ShowdownEvaluated struct {
	Rankings []PlayerRank `json:"rankings"`
}

// PotShare is one winner's cut of a pot.
type PotShare struct {
	Seat   int `json:"seat"`
	Amount int `json:"amount"`
}

// PotAwarded distributes a single pot. Shares sum exactly to Amount; odd
// remainders have already been assigned deterministically.
type PotAwarded struct {
	PotIndex int        `json:"pot_index"`
	Amount   int        `json:"amount"`
	Level    int        `json:"level"`
	Shares   []PotShare `json:"shares"`
}

// HandCompleted closes a hand. Reason is "showdown" or "uncontested".
type HandCompleted struct {
	Reason      string     `json:"reason"`
	Payouts     []PotShare `json:"payouts"`
	FinalStacks []SeatInfo `json:"final_stacks"`
}
