// Package evaluator ranks poker hands. Evaluate takes 5-7 cards and returns a
// HandRank that totally orders hands: category first, then the deciding card
// ranks in descending significance. Two hands tie exactly when their ranks are
// equal, so the pot manager needs no comparison logic beyond Compare.
package evaluator

import (
	"fmt"
	"math/bits"

	"github.com/cardroom/holdem/internal/deck"
)

// Category enumerates poker hand categories ordered from weakest to strongest.
type Category uint8

const (
	HighCard Category = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// String returns a human-readable category name.
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// HandRank encodes the strength of a 5-card hand. The category occupies the
// high bits and the deciding card ranks are packed below it as nibbles, most
// significant first, so numeric comparison is hand comparison. Higher values
// are stronger; equal values are structural ties.
type HandRank uint32

// Category returns the hand category encoded in the rank.
func (hr HandRank) Category() Category {
	return Category(hr >> 20)
}

// String returns the category name for display.
func (hr HandRank) String() string {
	return hr.Category().String()
}

// Compare returns 1 if a is stronger, -1 if b is stronger and 0 for a tie.
func Compare(a, b HandRank) int {
	if a > b {
		return 1
	} else if a < b {
		return -1
	}
	return 0
}

func pack(cat Category, ranks ...deck.Rank) HandRank {
	v := HandRank(cat) << 20
	shift := 16
	for _, r := range ranks {
		v |= HandRank(r) << shift
		shift -= 4
	}
	return v
}

// Evaluate computes the best 5-card hand rank from 5 to 7 cards. Evaluation is
// pure: the same cards always yield the same rank.
func Evaluate(cards []deck.Card) (HandRank, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return 0, fmt.Errorf("evaluate requires 5-7 cards, got %d", len(cards))
	}

	// Rank bitmasks per suit and overall, bit i set for rank value i+2.
	var suitMasks [4]uint16
	var rankMask uint16
	var counts [15]int
	for _, c := range cards {
		bit := uint16(1) << (int(c.Rank) - 2)
		suitMasks[c.Suit] |= bit
		rankMask |= bit
		counts[c.Rank]++
	}

	// Straight flush: at most one suit can hold five cards of seven.
	for _, sm := range suitMasks {
		if bits.OnesCount16(sm) >= 5 {
			if high := straightHigh(sm); high > 0 {
				return pack(StraightFlush, high), nil
			}
		}
	}

	if quad := highestWithCount(counts, 4); quad > 0 {
		kicker := topRanksExcluding(rankMask, 1, quad)
		return pack(FourOfAKind, quad, kicker[0]), nil
	}

	if trip := highestWithCount(counts, 3); trip > 0 {
		// Second trip or best pair fills the full house.
		pair := deck.Rank(0)
		for r := deck.Ace; r >= deck.Two; r-- {
			if r != trip && counts[r] >= 2 {
				pair = r
				break
			}
		}
		if pair > 0 {
			return pack(FullHouse, trip, pair), nil
		}
	}

	for _, sm := range suitMasks {
		if bits.OnesCount16(sm) >= 5 {
			top := topRanksExcluding(sm, 5)
			return pack(Flush, top...), nil
		}
	}

	if high := straightHigh(rankMask); high > 0 {
		return pack(Straight, high), nil
	}

	if trip := highestWithCount(counts, 3); trip > 0 {
		kickers := topRanksExcluding(rankMask, 2, trip)
		return pack(ThreeOfAKind, trip, kickers[0], kickers[1]), nil
	}

	if hi := highestWithCount(counts, 2); hi > 0 {
		lo := deck.Rank(0)
		for r := hi - 1; r >= deck.Two; r-- {
			if counts[r] >= 2 {
				lo = r
				break
			}
		}
		if lo > 0 {
			kicker := topRanksExcluding(rankMask, 1, hi, lo)
			return pack(TwoPair, hi, lo, kicker[0]), nil
		}
		kickers := topRanksExcluding(rankMask, 3, hi)
		return pack(Pair, hi, kickers[0], kickers[1], kickers[2]), nil
	}

	top := topRanksExcluding(rankMask, 5)
	return pack(HighCard, top...), nil
}

// straightHigh returns the high card rank of the best straight in the mask, or
// 0 when there is none. The wheel (A-2-3-4-5) counts the ace low and returns 5.
func straightHigh(mask uint16) deck.Rank {
	const wheelMask = 0x100F // ace plus 2-3-4-5

	// Bitwise cascade identifies five consecutive set bits in one pass.
	seq := mask & (mask >> 1) & (mask >> 2) & (mask >> 3) & (mask >> 4)
	if seq != 0 {
		return deck.Rank(bits.Len16(seq) - 1 + 4 + 2)
	}
	if mask&wheelMask == wheelMask {
		return deck.Five
	}
	return 0
}

// highestWithCount returns the highest rank occurring exactly n times, or 0.
func highestWithCount(counts [15]int, n int) deck.Rank {
	for r := deck.Ace; r >= deck.Two; r-- {
		if counts[r] == n {
			return r
		}
	}
	return 0
}

// topRanksExcluding returns the n highest ranks present in the mask after
// removing the excluded ranks, in descending order.
func topRanksExcluding(mask uint16, n int, exclude ...deck.Rank) []deck.Rank {
	for _, r := range exclude {
		mask &^= 1 << (int(r) - 2)
	}
	out := make([]deck.Rank, 0, n)
	for len(out) < n && mask != 0 {
		top := bits.Len16(mask) - 1
		out = append(out, deck.Rank(top+2))
		mask &^= 1 << top
	}
	return out
}
