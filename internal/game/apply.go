package game

import (
	"fmt"

	"github.com/cardroom/holdem/internal/deck"
	"github.com/cardroom/holdem/internal/event"
)

// apply is the only mutator of hand state. Both live play and replay funnel
// every event through it, which is what makes replayed state identical to
// live state. It enforces sequence contiguity and, for dealt cards, verifies
// the recorded cards against the seed-derived deck.
func (h *Hand) apply(e *event.Event) error {
	if e.Seq != h.NextSeq+1 {
		return fmt.Errorf("%w: event seq %d after %d", ErrCorruptReplay, e.Seq, h.NextSeq)
	}

	var err error
	switch e.Type {
	case event.TypeHandStarted:
		err = h.applyHandStarted(e)
	case event.TypeBlindPosted:
		err = h.applyBlindPosted(e)
	case event.TypeCardsDealt:
		err = h.applyCardsDealt(e)
	case event.TypeActionTaken:
		err = h.applyActionTaken(e)
	case event.TypeStreetAdvanced:
		err = h.applyStreetAdvanced(e)
	case event.TypeShowdownEvaluated:
		err = h.applyShowdownEvaluated(e)
	case event.TypePotAwarded:
		err = h.applyPotAwarded(e)
	case event.TypeHandCompleted:
		err = h.applyHandCompleted(e)
	default:
		err = fmt.Errorf("%w: unknown event type %q", ErrCorruptReplay, e.Type)
	}
	if err != nil {
		return err
	}

	h.NextSeq = e.Seq
	return nil
}

func (h *Hand) applyHandStarted(e *event.Event) error {
	var p event.HandStarted
	if err := e.Decode(&p); err != nil {
		return err
	}

	h.GameID = e.GameID
	h.HandNum = e.HandNum
	h.Seed = p.Seed
	h.Button = p.Button
	h.SmallBlind = p.SmallBlind
	h.BigBlind = p.BigBlind
	h.Street = Preflop
	h.CurrentBet = 0
	h.MinRaise = p.BigBlind
	h.LastRaiser = -1
	h.ActiveSeat = -1
	h.deck = deck.NewSeeded(p.Seed)

	h.Players = make([]*Player, len(p.Seats))
	h.Acted = make([]bool, len(p.Seats))
	for i, seat := range p.Seats {
		h.Players[i] = &Player{Seat: i, ID: seat.PlayerID, Chips: seat.Chips}
	}

	if len(p.Seats) == 2 {
		// Heads-up: button posts the small blind and acts first preflop.
		h.SBSeat = h.Button
		h.BBSeat = (h.Button + 1) % 2
	} else {
		h.SBSeat = (h.Button + 1) % len(p.Seats)
		h.BBSeat = (h.Button + 2) % len(p.Seats)
	}
	return nil
}

func (h *Hand) applyBlindPosted(e *event.Event) error {
	var blind event.BlindPosted
	if err := e.Decode(&blind); err != nil {
		return err
	}

	p := h.Players[blind.Seat]
	p.Chips -= blind.Amount
	p.Bet += blind.Amount
	p.TotalBet += blind.Amount
	if p.Chips == 0 {
		p.Status = PlayerAllIn
	}

	if blind.Kind == "big" {
		// The bet level is the full big blind even when the blind poster is
		// short-stacked all-in for less.
		h.CurrentBet = h.BigBlind
		h.MinRaise = h.BigBlind
		h.ActiveSeat = h.nextToAct(blind.Seat + 1)
	}
	return nil
}

func (h *Hand) applyCardsDealt(e *event.Event) error {
	var dealt event.CardsDealt
	if err := e.Decode(&dealt); err != nil {
		return err
	}

	cards, err := h.deck.Draw(len(dealt.Cards))
	if err != nil {
		return err
	}
	for i, card := range cards {
		if card.Code() != dealt.Cards[i] {
			return fmt.Errorf("%w: recorded card %s does not match deck card %s at seq %d",
				ErrCorruptReplay, dealt.Cards[i], card.Code(), e.Seq)
		}
	}
	h.CardsDrawn += len(cards)

	if dealt.Kind == "hole" {
		h.Players[dealt.Seat].HoleCards = append([]deck.Card(nil), cards...)
	} else {
		h.Board = append(h.Board, cards...)
	}
	return nil
}

func (h *Hand) applyActionTaken(e *event.Event) error {
	var a event.ActionTaken
	if err := e.Decode(&a); err != nil {
		return err
	}

	p := h.Players[a.Seat]
	switch a.Action {
	case ActionFold.String():
		p.Status = PlayerFolded

	case ActionCheck.String():
		// No chips move.

	case ActionCall.String(), ActionBet.String(), ActionRaise.String(), ActionAllIn.String():
		p.Chips -= a.Paid
		p.Bet += a.Paid
		p.TotalBet += a.Paid
		if a.AllIn {
			p.Status = PlayerAllIn
		}

		if p.Bet > h.CurrentBet {
			raiseSize := p.Bet - h.CurrentBet
			h.CurrentBet = p.Bet
			h.LastRaiser = a.Seat
			if raiseSize >= h.MinRaise {
				// A full raise reopens the action for everyone else. A short
				// all-in raise does not, and does not grow the minimum.
				h.MinRaise = raiseSize
				for i := range h.Acted {
					h.Acted[i] = false
				}
			}
		}

	default:
		return fmt.Errorf("%w: unknown action %q at seq %d", ErrCorruptReplay, a.Action, e.Seq)
	}

	h.Acted[a.Seat] = true
	if h.Street == Preflop && a.Seat == h.BBSeat {
		h.BBActed = true
	}
	h.ActiveSeat = h.nextToAct(a.Seat + 1)
	return nil
}

func (h *Hand) applyStreetAdvanced(e *event.Event) error {
	var adv event.StreetAdvanced
	if err := e.Decode(&adv); err != nil {
		return err
	}

	// Per-street bets fold into the cumulative totals; pots are recomputed
	// from those totals on demand rather than stored.
	for _, p := range h.Players {
		p.Bet = 0
	}
	h.CurrentBet = 0
	h.MinRaise = h.BigBlind
	h.LastRaiser = -1
	for i := range h.Acted {
		h.Acted[i] = false
	}

	switch adv.Street {
	case Flop.String():
		h.Street = Flop
	case Turn.String():
		h.Street = Turn
	case River.String():
		h.Street = River
	case Showdown.String():
		h.Street = Showdown
		h.ActiveSeat = -1
		return nil
	default:
		return fmt.Errorf("%w: unknown street %q at seq %d", ErrCorruptReplay, adv.Street, e.Seq)
	}

	h.ActiveSeat = h.nextToAct(h.Button + 1)
	return nil
}

func (h *Hand) applyShowdownEvaluated(e *event.Event) error {
	var eval event.ShowdownEvaluated
	if err := e.Decode(&eval); err != nil {
		return err
	}
	h.Rankings = eval.Rankings
	return nil
}

func (h *Hand) applyPotAwarded(e *event.Event) error {
	var pot event.PotAwarded
	if err := e.Decode(&pot); err != nil {
		return err
	}
	for _, share := range pot.Shares {
		h.Players[share.Seat].Chips += share.Amount
		h.Payouts = append(h.Payouts, share)
	}
	return nil
}

func (h *Hand) applyHandCompleted(e *event.Event) error {
	var done event.HandCompleted
	if err := e.Decode(&done); err != nil {
		return err
	}

	// Final stacks are recorded for audit; a divergence means the event log
	// does not describe the state we reconstructed.
	for _, stack := range done.FinalStacks {
		if h.Players[stack.Seat].Chips != stack.Chips {
			return fmt.Errorf("%w: seat %d stack %d does not match recorded %d at seq %d",
				ErrCorruptReplay, stack.Seat, h.Players[stack.Seat].Chips, stack.Chips, e.Seq)
		}
	}

	for _, p := range h.Players {
		p.Bet = 0
	}
	h.Street = Complete
	h.Reason = done.Reason
	h.ActiveSeat = -1
	return nil
}
