package game

import (
	"math/big"
	"testing"
)

func units(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad fixture " + s)
	}

	return v
}

func TestPayout(t *testing.T) {
	cases := []struct {
		name       string
		amount     *big.Int
		multiplier int
		edgeBps    int
		want       *big.Int
	}{
		{
			name:       "DiceTier5",
			amount:     units("100000000000000000"), // 0.1
			multiplier: 5,
			edgeBps:    200,
			want:       units("490000000000000000"), // 0.49
		},
		{
			name:       "PokerWin",
			amount:     units("100000000000000000"), // 0.1
			multiplier: PokerMultiplier,
			edgeBps:    200,
			want:       units("196000000000000000"), // 0.196
		},
		{
			name:       "NoEdge",
			amount:     big.NewInt(100),
			multiplier: 2,
			edgeBps:    0,
			want:       big.NewInt(200),
		},
		{
			name:       "FloorsTowardZero",
			amount:     big.NewInt(3),
			multiplier: 2,
			edgeBps:    200,
			want:       big.NewInt(5), // 3*2*9800/10000 = 5.88
		},
		{
			name:       "ZeroAmount",
			amount:     big.NewInt(0),
			multiplier: 10,
			edgeBps:    200,
			want:       big.NewInt(0),
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			before := new(big.Int).Set(tc.amount)

			got := Payout(tc.amount, tc.multiplier, tc.edgeBps)
			if got.Cmp(tc.want) != 0 {
				t.Errorf("unexpected payout, want: %s, got: %s", tc.want, got)
			}

			if tc.amount.Cmp(before) != 0 {
				t.Errorf("input amount mutated: %s -> %s", before, tc.amount)
			}
		})
	}
}

// The house edge must never produce a payout above the edge-free maximum.
func TestPayoutNeverExceedsFairMaximum(t *testing.T) {
	amounts := []*big.Int{
		big.NewInt(1),
		big.NewInt(999),
		units("1000000000000000"),
		units("1000000000000000000"),
	}

	for _, amount := range amounts {
		for _, multiplier := range []int{2, 5, 10} {
			for _, edge := range []int{0, 100, 200, 500} {
				fair := new(big.Int).Mul(amount, big.NewInt(int64(multiplier)))

				got := Payout(amount, multiplier, edge)
				if got.Cmp(fair) > 0 {
					t.Errorf("payout(%s, %d, %d) = %s exceeds fair maximum %s",
						amount, multiplier, edge, got, fair)
				}
			}
		}
	}
}

func TestDiceWin(t *testing.T) {
	cases := []struct {
		name       string
		roll       int
		multiplier int
		want       bool
	}{
		{name: "Tier2AtThreshold", roll: 50, multiplier: 2, want: false},
		{name: "Tier2AboveThreshold", roll: 51, multiplier: 2, want: true},
		{name: "Tier5Win", roll: 85, multiplier: 5, want: true},
		{name: "Tier5Loss", roll: 50, multiplier: 5, want: false},
		{name: "Tier10AtThreshold", roll: 90, multiplier: 10, want: false},
		{name: "Tier10Win", roll: 91, multiplier: 10, want: true},
		{name: "UnknownTier", roll: 100, multiplier: 3, want: false},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := DiceWin(tc.roll, tc.multiplier); got != tc.want {
				t.Errorf("DiceWin(%d, %d): want %v, got %v", tc.roll, tc.multiplier, tc.want, got)
			}
		})
	}
}

func TestDiceThreshold(t *testing.T) {
	for multiplier, want := range map[int]int{2: 50, 5: 80, 10: 90} {
		got, ok := DiceThreshold(multiplier)
		if !ok || got != want {
			t.Errorf("threshold for %dx: want %d, got %d (ok=%v)", multiplier, want, got, ok)
		}
	}

	if _, ok := DiceThreshold(7); ok {
		t.Error("expected no threshold for unknown tier 7")
	}
}
