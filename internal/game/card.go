package game

// Card is a coded playing card in [1,52]: rank and suit are packed as
// code = rank + 13*suit with rank 1 (ace) .. 13 (king) and suit 0..3.
type Card int

const DeckSize = 52

// Rank returns the raw rank 1..13, ace low.
func (c Card) Rank() int {
	return (int(c)-1)%13 + 1
}

// HighRank returns the rank with the ace mapped to 14 so that straights
// compare correctly.
func (c Card) HighRank() int {
	r := c.Rank()
	if r == 1 {
		return 14
	}

	return r
}

// Suit returns the suit ordinal 0..3.
func (c Card) Suit() int {
	return (int(c) - 1) / 13 % 4
}
