package game

import "sort"

// HandRank is the total order over three-card hands. Hands compare by this
// ordinal alone: there is no kicker comparison within a rank, so two
// different pairs are equal hands. That coarse tie-breaking is a deliberate
// simplification of the game rules, not an omission.
type HandRank int

const (
	HighCard HandRank = iota
	Pair
	Flush
	Straight
	ThreeOfAKind
	StraightFlush
)

var handRankNames = map[HandRank]string{
	HighCard:      "high card",
	Pair:          "pair",
	Flush:         "flush",
	Straight:      "straight",
	ThreeOfAKind:  "three of a kind",
	StraightFlush: "straight flush",
}

func (r HandRank) String() string {
	if name, ok := handRankNames[r]; ok {
		return name
	}

	return "unknown"
}

// EvaluateHand ranks a three-card hand. Pure and total: any card codes
// produce a rank, and the result is invariant under reordering.
func EvaluateHand(hand [3]Card) HandRank {
	ranks := []int{hand[0].HighRank(), hand[1].HighRank(), hand[2].HighRank()}
	sort.Ints(ranks)

	three := ranks[0] == ranks[2]
	straight := isStraight(ranks)
	flush := hand[0].Suit() == hand[1].Suit() && hand[1].Suit() == hand[2].Suit()

	switch {
	case straight && flush:
		return StraightFlush
	case three:
		return ThreeOfAKind
	case straight:
		return Straight
	case flush:
		return Flush
	case ranks[0] == ranks[1] || ranks[1] == ranks[2]:
		return Pair
	default:
		return HighCard
	}
}

// isStraight expects ranks sorted ascending with aces high. A-2-3 sorts to
// {2,3,14} and counts as a straight.
func isStraight(ranks []int) bool {
	if ranks[0] == 2 && ranks[1] == 3 && ranks[2] == 14 {
		return true
	}

	return ranks[1] == ranks[0]+1 && ranks[2] == ranks[1]+1
}
