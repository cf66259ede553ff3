// Package deck provides the canonical card representation and a
// deterministically seeded deck. The same generator always produces the same
// 52-card ordering, which is what makes hand replay from a seed possible.
package deck

import (
	"errors"
	rand "math/rand/v2"

	"github.com/cardroom/holdem/internal/randutil"
)

// ErrExhausted is returned when a draw asks for more cards than remain. It
// indicates a dealing logic defect; the hand must be aborted, never truncated.
var ErrExhausted = errors.New("deck exhausted")

// Deck is an ordered sequence of the 52 unique cards, consumed front-to-back.
type Deck struct {
	cards []Card
	drawn int
}

// New creates a full deck shuffled with the supplied generator using
// Fisher–Yates. Pass a generator from randutil so the permutation is a pure
// function of the seed.
func New(rng *rand.Rand) *Deck {
	d := &Deck{cards: make([]Card, 0, 52)}
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(suit, rank))
		}
	}
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
	return d
}

// NewSeeded creates a deck shuffled deterministically from a string seed.
func NewSeeded(seed string) *Deck {
	return New(randutil.NewFromString(seed))
}

// Draw removes and returns the next n cards.
func (d *Deck) Draw(n int) ([]Card, error) {
	if n > len(d.cards)-d.drawn {
		return nil, ErrExhausted
	}
	cards := d.cards[d.drawn : d.drawn+n]
	d.drawn += n
	return cards, nil
}

// Peek returns the next n cards without consuming them.
func (d *Deck) Peek(n int) ([]Card, error) {
	if n > len(d.cards)-d.drawn {
		return nil, ErrExhausted
	}
	return d.cards[d.drawn : d.drawn+n], nil
}

// Skip discards the next n cards. Used when restoring a hand from a snapshot:
// the deck is rebuilt from the seed and advanced past the cards already dealt.
func (d *Deck) Skip(n int) error {
	if n > len(d.cards)-d.drawn {
		return ErrExhausted
	}
	d.drawn += n
	return nil
}

// Drawn returns the number of cards consumed so far.
func (d *Deck) Drawn() int {
	return d.drawn
}

// Remaining returns the number of cards left.
func (d *Deck) Remaining() int {
	return len(d.cards) - d.drawn
}

// Cards returns the full ordering of the deck, including drawn cards.
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}
