package game

import "math/big"

const (
	// BpsDenominator scales house-edge basis points.
	BpsDenominator = 10000

	// PokerMultiplier is the fixed payout multiplier of the poker game.
	PokerMultiplier = 2
)

// Dice rolls are uniform integers in [DiceRollMin, DiceRollMax].
const (
	DiceRollMin = 1
	DiceRollMax = 100
)

// diceThresholds maps a multiplier tier to the roll that must be exceeded
// to win.
var diceThresholds = map[int]int{
	2:  50,
	5:  80,
	10: 90,
}

// DiceThreshold returns the win threshold for a multiplier tier. The second
// return reports whether the tier exists.
func DiceThreshold(multiplier int) (int, bool) {
	threshold, ok := diceThresholds[multiplier]

	return threshold, ok
}

// DiceWin reports whether a roll beats the tier's threshold.
func DiceWin(roll, multiplier int) bool {
	threshold, ok := diceThresholds[multiplier]
	if !ok {
		return false
	}

	return roll > threshold
}

// Payout computes the winning payout under house-edge economics:
//
//	floor(amount * multiplier * (10000 - houseEdgeBps) / 10000)
//
// Integer arithmetic, truncating toward zero. The rounding direction is an
// observable economic property: changing it changes what players are owed.
// Inputs are never mutated.
func Payout(amount *big.Int, multiplier int, houseEdgeBps int) *big.Int {
	payout := new(big.Int).Mul(amount, big.NewInt(int64(multiplier)))
	payout.Mul(payout, big.NewInt(int64(BpsDenominator-houseEdgeBps)))

	return payout.Quo(payout, big.NewInt(BpsDenominator))
}
