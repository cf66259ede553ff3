package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroom/holdem/internal/deck"
)

func mustHand(t *testing.T, codes ...string) []deck.Card {
	t.Helper()
	cards, err := deck.ParseAll(codes)
	require.NoError(t, err)
	return cards
}

func evaluate(t *testing.T, codes ...string) HandRank {
	t.Helper()
	rank, err := Evaluate(mustHand(t, codes...))
	require.NoError(t, err)
	return rank
}

func TestEvaluateCategories(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cards    []string
		category Category
	}{
		{"high card", []string{"As", "Kd", "9h", "6c", "3s"}, HighCard},
		{"pair", []string{"As", "Ad", "9h", "6c", "3s"}, Pair},
		{"two pair", []string{"As", "Ad", "9h", "9c", "3s"}, TwoPair},
		{"three of a kind", []string{"As", "Ad", "Ah", "6c", "3s"}, ThreeOfAKind},
		{"straight", []string{"9s", "8d", "7h", "6c", "5s"}, Straight},
		{"wheel straight", []string{"As", "2d", "3h", "4c", "5s"}, Straight},
		{"flush", []string{"As", "Js", "9s", "6s", "3s"}, Flush},
		{"full house", []string{"As", "Ad", "Ah", "3c", "3s"}, FullHouse},
		{"four of a kind", []string{"As", "Ad", "Ah", "Ac", "3s"}, FourOfAKind},
		{"straight flush", []string{"9s", "8s", "7s", "6s", "5s"}, StraightFlush},
		{"steel wheel", []string{"As", "2s", "3s", "4s", "5s"}, StraightFlush},
		{"seven cards pick flush over trips", []string{"As", "Ad", "Ah", "Ks", "9s", "6s", "3s"}, Flush},
		{"two trips form full house", []string{"As", "Ad", "Ah", "Kc", "Ks", "Kd", "3s"}, FullHouse},
		{"board straight from seven", []string{"2c", "2d", "9s", "8d", "7h", "6c", "5s"}, Straight},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rank := evaluate(t, tc.cards...)
			assert.Equal(t, tc.category, rank.Category())
		})
	}
}

func TestEvaluateCardCount(t *testing.T) {
	t.Parallel()

	_, err := Evaluate(mustHand(t, "As", "Kd", "9h", "6c"))
	assert.Error(t, err)
	_, err = Evaluate(mustHand(t, "As", "Kd", "9h", "6c", "3s", "2d", "2h", "2c"))
	assert.Error(t, err)
}

func TestKickersDecideTwoPair(t *testing.T) {
	t.Parallel()

	// Same two pair, aces over kings; the fifth card decides.
	queenKicker := evaluate(t, "As", "Ad", "Kh", "Kc", "Qs")
	jackKicker := evaluate(t, "Ah", "Ac", "Ks", "Kd", "Js")
	assert.Equal(t, 1, Compare(queenKicker, jackKicker))

	// Identical structure across suits is an exact tie.
	same := evaluate(t, "Ah", "Ac", "Ks", "Kd", "Qc")
	assert.Equal(t, 0, Compare(queenKicker, same))
}

func TestWheelIsLowestStraight(t *testing.T) {
	t.Parallel()

	wheel := evaluate(t, "As", "2d", "3h", "4c", "5s")
	sixHigh := evaluate(t, "2d", "3h", "4c", "5s", "6d")
	assert.Equal(t, -1, Compare(wheel, sixHigh), "ace plays low in the wheel")
}

func TestCategoryOrdering(t *testing.T) {
	t.Parallel()

	// One representative per category, ascending.
	hands := []HandRank{
		evaluate(t, "As", "Kd", "9h", "6c", "3s"),
		evaluate(t, "2s", "2d", "9h", "6c", "3s"),
		evaluate(t, "2s", "2d", "3h", "3c", "4s"),
		evaluate(t, "2s", "2d", "2h", "6c", "3s"),
		evaluate(t, "As", "2d", "3h", "4c", "5s"),
		evaluate(t, "2s", "7s", "9s", "Js", "3s"),
		evaluate(t, "2s", "2d", "2h", "3c", "3s"),
		evaluate(t, "2s", "2d", "2h", "2c", "3s"),
		evaluate(t, "As", "2s", "3s", "4s", "5s"),
	}

	for i := 1; i < len(hands); i++ {
		assert.Equal(t, 1, Compare(hands[i], hands[i-1]),
			"category %s must beat %s", hands[i].Category(), hands[i-1].Category())
		assert.Equal(t, -1, Compare(hands[i-1], hands[i]))
	}
}

func TestBestFiveOfSeven(t *testing.T) {
	t.Parallel()

	// The pair of twos must not drag down the ace-high flush.
	withNoise := evaluate(t, "2c", "2s", "As", "Js", "9s", "6s", "3s")
	clean := evaluate(t, "As", "Js", "9s", "6s", "3s")
	assert.Equal(t, 0, Compare(withNoise, clean))
}

func TestFullHouseRanking(t *testing.T) {
	t.Parallel()

	acesFullOfThrees := evaluate(t, "As", "Ad", "Ah", "3c", "3s")
	kingsFullOfAces := evaluate(t, "Ks", "Kd", "Kh", "Ac", "As")
	assert.Equal(t, 1, Compare(acesFullOfThrees, kingsFullOfAces),
		"trip rank dominates the pair rank")
}
