package game

import (
	"fmt"
	"time"

	"github.com/cardroom/holdem/internal/deck"
	"github.com/cardroom/holdem/internal/evaluator"
	"github.com/cardroom/holdem/internal/event"
)

// Hand is the state of one played hand of poker. It mutates exclusively
// through apply, which is the same transition function for live play and
// replay: live play validates a command, constructs fully-populated events,
// and applies them; replay applies stored events. Identical event sequences
// therefore always produce identical state.
type Hand struct {
	GameID     string             `json:"game_id"`
	HandNum    uint64             `json:"hand_num"`
	Seed       string             `json:"seed"`
	Button     int                `json:"button"`
	SBSeat     int                `json:"sb_seat"`
	BBSeat     int                `json:"bb_seat"`
	SmallBlind int                `json:"small_blind"`
	BigBlind   int                `json:"big_blind"`
	Street     Street             `json:"street"`
	Board      []deck.Card        `json:"board"`
	Players    []*Player          `json:"players"`
	ActiveSeat int                `json:"active_seat"`
	CurrentBet int                `json:"current_bet"`
	MinRaise   int                `json:"min_raise"`
	LastRaiser int                `json:"last_raiser"`
	Acted      []bool             `json:"acted"`
	BBActed    bool               `json:"bb_acted"`
	CardsDrawn int                `json:"cards_drawn"`
	NextSeq    uint64             `json:"next_seq"`
	Reason     string             `json:"reason,omitempty"`
	Payouts    []event.PotShare   `json:"payouts,omitempty"`
	Rankings   []event.PlayerRank `json:"rankings,omitempty"`

	deck *deck.Deck
	now  func() time.Time
}

// NewHand starts a hand: it shuffles from the seed, posts blinds and deals
// hole cards, returning the hand plus the events that produced it. Seats are
// hand-local positions in deal order; button indexes into seats.
func NewHand(gameID string, handNum uint64, seed string, button, smallBlind, bigBlind int, seats []event.SeatInfo, now func() time.Time) (*Hand, []event.Event, error) {
	if len(seats) < 2 {
		return nil, nil, fmt.Errorf("at least 2 players required, got %d", len(seats))
	}
	if button < 0 || button >= len(seats) {
		return nil, nil, fmt.Errorf("button %d out of range", button)
	}
	if smallBlind <= 0 || bigBlind <= smallBlind {
		return nil, nil, fmt.Errorf("invalid blinds %d/%d", smallBlind, bigBlind)
	}

	h := &Hand{now: now}
	events := make([]event.Event, 0, 3+len(seats))

	start := event.Event{GameID: gameID, HandNum: handNum, Seq: 1, Type: event.TypeHandStarted, At: now()}
	start.Encode(event.HandStarted{
		Seed:       seed,
		Button:     button,
		SmallBlind: smallBlind,
		BigBlind:   bigBlind,
		Seats:      seats,
	})
	if err := h.apply(&start); err != nil {
		return nil, nil, err
	}
	events = append(events, start)

	for _, blind := range []struct {
		kind string
		seat int
		size int
	}{
		{"small", h.SBSeat, smallBlind},
		{"big", h.BBSeat, bigBlind},
	} {
		p := h.Players[blind.seat]
		amount := min(blind.size, p.Chips)
		e := h.nextEvent(event.TypeBlindPosted)
		e.PlayerID = p.ID
		e.Amount = amount
		e.Encode(event.BlindPosted{Kind: blind.kind, Seat: blind.seat, Amount: amount})
		if err := h.apply(&e); err != nil {
			return nil, nil, err
		}
		events = append(events, e)
	}

	for _, p := range h.Players {
		cards, err := h.deck.Peek(2)
		if err != nil {
			return nil, nil, err
		}
		e := h.nextEvent(event.TypeCardsDealt)
		e.PlayerID = p.ID
		e.Encode(event.CardsDealt{Kind: "hole", Seat: p.Seat, Cards: deck.Codes(cards)})
		if err := h.apply(&e); err != nil {
			return nil, nil, err
		}
		events = append(events, e)
	}

	return h, events, nil
}

// IsComplete returns true once payouts are recorded and the hand is immutable.
func (h *Hand) IsComplete() bool {
	return h.Street == Complete
}

// HandleAction validates and applies one action from the designated player.
// It returns the resulting events: the action itself plus any street
// advances, dealt cards, and showdown settlement it triggered. Validation
// failures return a typed error and leave state untouched.
func (h *Hand) HandleAction(playerID string, action ActionType, amount int) ([]event.Event, error) {
	if h.Street >= Showdown {
		return nil, fmt.Errorf("%w: hand is over", ErrIllegalAction)
	}
	seat := h.seatOf(playerID)
	if seat < 0 {
		return nil, fmt.Errorf("%w: unknown player %q", ErrIllegalAction, playerID)
	}
	if seat != h.ActiveSeat {
		return nil, fmt.Errorf("%w: seat %d is not up", ErrOutOfTurn, seat)
	}

	taken, err := h.validateAction(h.Players[seat], action, amount)
	if err != nil {
		return nil, err
	}

	e := h.nextEvent(event.TypeActionTaken)
	e.PlayerID = playerID
	e.Amount = taken.Paid
	e.Encode(taken)
	if err := h.apply(&e); err != nil {
		return nil, err
	}

	events := []event.Event{e}
	more, err := h.progress()
	if err != nil {
		return nil, err
	}
	return append(events, more...), nil
}

// ForceAction injects a check if legal, otherwise a fold, as if the player
// had submitted it. Turn-timeout policy layered above the engine uses this.
func (h *Hand) ForceAction(playerID string) ([]event.Event, error) {
	seat := h.seatOf(playerID)
	if seat < 0 {
		return nil, fmt.Errorf("%w: unknown player %q", ErrIllegalAction, playerID)
	}
	if seat != h.ActiveSeat {
		return nil, fmt.Errorf("%w: seat %d is not up", ErrOutOfTurn, seat)
	}
	if h.Players[seat].Bet == h.CurrentBet {
		return h.HandleAction(playerID, ActionCheck, 0)
	}
	return h.HandleAction(playerID, ActionFold, 0)
}

// validateAction checks legality and normalizes the action into its event
// payload. Amount is the total street bet level to reach for bet/raise and is
// ignored otherwise. A call short of the full amount is reclassified as an
// implicit all-in rather than rejected, which conserves chips.
func (h *Hand) validateAction(p *Player, action ActionType, amount int) (event.ActionTaken, error) {
	if amount < 0 {
		return event.ActionTaken{}, fmt.Errorf("%w: negative amount %d", ErrIllegalAction, amount)
	}

	taken := event.ActionTaken{Seat: p.Seat, Action: action.String()}

	switch action {
	case ActionFold:
		taken.Level = p.Bet

	case ActionCheck:
		if p.Bet != h.CurrentBet {
			return taken, fmt.Errorf("%w: cannot check, %d to call", ErrIllegalAction, h.CurrentBet-p.Bet)
		}
		taken.Level = p.Bet

	case ActionCall:
		owed := h.CurrentBet - p.Bet
		if owed <= 0 {
			return taken, fmt.Errorf("%w: nothing to call", ErrIllegalAction)
		}
		taken.Paid = min(owed, p.Chips)
		taken.Level = p.Bet + taken.Paid
		taken.AllIn = taken.Paid == p.Chips

	case ActionBet:
		if h.CurrentBet != 0 {
			return taken, fmt.Errorf("%w: facing a bet, raise instead", ErrIllegalAction)
		}
		paid := amount - p.Bet
		if paid <= 0 {
			return taken, fmt.Errorf("%w: bet must be positive", ErrIllegalAction)
		}
		if paid > p.Chips {
			return taken, fmt.Errorf("%w: bet %d exceeds stack %d", ErrInsufficientFunds, amount, p.Chips)
		}
		if amount < h.BigBlind && paid < p.Chips {
			return taken, fmt.Errorf("%w: bet below minimum %d", ErrIllegalAction, h.BigBlind)
		}
		taken.Paid = paid
		taken.Level = amount
		taken.AllIn = paid == p.Chips

	case ActionRaise:
		if h.CurrentBet == 0 {
			return taken, fmt.Errorf("%w: no bet to raise", ErrIllegalAction)
		}
		if h.Acted[p.Seat] {
			// Only a full raise reopens the action; a short all-in since this
			// player's turn leaves them with call or fold.
			return taken, fmt.Errorf("%w: action is not reopened", ErrIllegalAction)
		}
		paid := amount - p.Bet
		if amount <= h.CurrentBet {
			return taken, fmt.Errorf("%w: raise must exceed current bet %d", ErrIllegalAction, h.CurrentBet)
		}
		if paid > p.Chips {
			return taken, fmt.Errorf("%w: raise to %d exceeds stack %d", ErrInsufficientFunds, amount, p.Chips+p.Bet)
		}
		if amount < h.CurrentBet+h.MinRaise && paid < p.Chips {
			return taken, fmt.Errorf("%w: raise below minimum %d", ErrIllegalAction, h.CurrentBet+h.MinRaise)
		}
		taken.Paid = paid
		taken.Level = amount
		taken.AllIn = paid == p.Chips

	case ActionAllIn:
		if p.Chips == 0 {
			return taken, fmt.Errorf("%w: no chips to commit", ErrIllegalAction)
		}
		taken.Paid = p.Chips
		taken.Level = p.Bet + p.Chips
		taken.AllIn = true
		if taken.Level > h.CurrentBet && h.Acted[p.Seat] {
			// A shove past the current bet is a raise and is closed to a
			// player whose action was never reopened. An all-in call is fine.
			return taken, fmt.Errorf("%w: action is not reopened", ErrIllegalAction)
		}

	default:
		return taken, fmt.Errorf("%w: unknown action", ErrIllegalAction)
	}

	return taken, nil
}

// progress emits follow-up events until the hand needs another player
// decision or is complete: street advances with dealt cards, immediate
// runouts when everyone left is all-in, uncontested awards, and showdown
// settlement.
func (h *Hand) progress() ([]event.Event, error) {
	var events []event.Event
	for h.Street < Showdown {
		if h.countInHand() == 1 {
			final, err := h.finishUncontested()
			if err != nil {
				return nil, err
			}
			return append(events, final...), nil
		}
		if !h.roundComplete() {
			return events, nil
		}

		if h.Street == River {
			adv := h.nextEvent(event.TypeStreetAdvanced)
			adv.Encode(event.StreetAdvanced{Street: Showdown.String()})
			if err := h.apply(&adv); err != nil {
				return nil, err
			}
			events = append(events, adv)

			final, err := h.finishShowdown()
			if err != nil {
				return nil, err
			}
			return append(events, final...), nil
		}

		next := h.Street + 1
		adv := h.nextEvent(event.TypeStreetAdvanced)
		adv.Encode(event.StreetAdvanced{Street: next.String()})
		if err := h.apply(&adv); err != nil {
			return nil, err
		}
		events = append(events, adv)

		cards, err := h.deck.Peek(next.cardsFor())
		if err != nil {
			return nil, err
		}
		dealt := h.nextEvent(event.TypeCardsDealt)
		dealt.Encode(event.CardsDealt{Kind: next.String(), Cards: deck.Codes(cards)})
		if err := h.apply(&dealt); err != nil {
			return nil, err
		}
		events = append(events, dealt)
	}
	return events, nil
}

// roundComplete reports whether the current betting round is over: every
// player who can still act has acted since the last full raise and matched
// the current bet. Preflop the big blind keeps the option to act even when
// all bets merely match the blind.
func (h *Hand) roundComplete() bool {
	active := 0
	for _, p := range h.Players {
		if p.CanAct() {
			active++
			if p.Bet != h.CurrentBet {
				return false
			}
		}
	}
	if active == 0 {
		return true
	}

	for _, p := range h.Players {
		if p.CanAct() && !h.Acted[p.Seat] {
			if active == 1 {
				// Lone player still able to act has matched; nobody can
				// bet into them, the round is over.
				continue
			}
			return false
		}
	}

	if h.Street == Preflop && h.LastRaiser == -1 && active > 1 {
		if bb := h.Players[h.BBSeat]; bb.CanAct() && !h.BBActed {
			return false
		}
	}
	return true
}

func (h *Hand) finishUncontested() ([]event.Event, error) {
	winner := -1
	for _, p := range h.Players {
		if p.InHand() {
			winner = p.Seat
			break
		}
	}

	var events []event.Event
	for i, pot := range BuildPots(h.Players) {
		e := h.nextEvent(event.TypePotAwarded)
		e.Amount = pot.Amount
		e.Encode(event.PotAwarded{
			PotIndex: i,
			Amount:   pot.Amount,
			Level:    pot.Level,
			Shares:   []event.PotShare{{Seat: winner, Amount: pot.Amount}},
		})
		if err := h.apply(&e); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	final, err := h.completeHand("uncontested")
	if err != nil {
		return nil, err
	}
	return append(events, final), nil
}

func (h *Hand) finishShowdown() ([]event.Event, error) {
	ranks := make(map[int]evaluator.HandRank)
	var rankings []event.PlayerRank
	for _, p := range h.Players {
		if !p.InHand() {
			continue
		}
		cards := make([]deck.Card, 0, 7)
		cards = append(cards, p.HoleCards...)
		cards = append(cards, h.Board...)
		rank, err := evaluator.Evaluate(cards)
		if err != nil {
			return nil, err
		}
		ranks[p.Seat] = rank
		rankings = append(rankings, event.PlayerRank{
			Seat:     p.Seat,
			Rank:     uint32(rank),
			Category: rank.String(),
			Cards:    deck.Codes(p.HoleCards),
		})
	}

	eval := h.nextEvent(event.TypeShowdownEvaluated)
	eval.Encode(event.ShowdownEvaluated{Rankings: rankings})
	if err := h.apply(&eval); err != nil {
		return nil, err
	}
	events := []event.Event{eval}

	pots := BuildPots(h.Players)
	shares := DistributePots(pots, ranks, h.Button, len(h.Players))
	for i, pot := range pots {
		e := h.nextEvent(event.TypePotAwarded)
		e.Amount = pot.Amount
		e.Encode(event.PotAwarded{PotIndex: i, Amount: pot.Amount, Level: pot.Level, Shares: shares[i]})
		if err := h.apply(&e); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	final, err := h.completeHand("showdown")
	if err != nil {
		return nil, err
	}
	return append(events, final), nil
}

func (h *Hand) completeHand(reason string) (event.Event, error) {
	stacks := make([]event.SeatInfo, len(h.Players))
	for i, p := range h.Players {
		stacks[i] = event.SeatInfo{Seat: p.Seat, PlayerID: p.ID, Chips: p.Chips}
	}
	e := h.nextEvent(event.TypeHandCompleted)
	e.Encode(event.HandCompleted{Reason: reason, Payouts: h.Payouts, FinalStacks: stacks})
	if err := h.apply(&e); err != nil {
		return event.Event{}, err
	}
	return e, nil
}

func (h *Hand) nextEvent(t event.Type) event.Event {
	return event.Event{GameID: h.GameID, HandNum: h.HandNum, Seq: h.NextSeq + 1, Type: t, At: h.now()}
}

func (h *Hand) seatOf(playerID string) int {
	for _, p := range h.Players {
		if p.ID == playerID {
			return p.Seat
		}
	}
	return -1
}

// nextToAct returns the first seat from position `from` that can still act,
// or -1 when none can.
func (h *Hand) nextToAct(from int) int {
	n := len(h.Players)
	for i := 0; i < n; i++ {
		seat := (from + i) % n
		if h.Players[seat].CanAct() {
			return seat
		}
	}
	return -1
}

func (h *Hand) countInHand() int {
	count := 0
	for _, p := range h.Players {
		if p.InHand() {
			count++
		}
	}
	return count
}
