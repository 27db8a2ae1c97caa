package converter

import (
	"math/big"
	"testing"
)

func TestConvertAmountStringToUnits(t *testing.T) {
	cases := []struct {
		name    string
		amount  string
		want    string
		wantErr bool
	}{
		{
			name:   "Success",
			amount: "0.001",
			want:   "1000000000000000",
		},
		{
			name:   "Whole",
			amount: "100",
			want:   "100000000000000000000",
		},
		{
			name:   "Zero",
			amount: "0",
			want:   "0",
		},
		{
			name:   "FractionOnly",
			amount: ".5",
			want:   "500000000000000000",
		},
		{
			name:    "TooManyPlaces",
			amount:  "0.0000000000000000001",
			wantErr: true,
		},
		{
			name:    "Negative",
			amount:  "-1",
			wantErr: true,
		},
		{
			name:    "Garbage",
			amount:  "one",
			wantErr: true,
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := ConvertAmountStringToUnits(tc.amount)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", got)
				}

				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tc.want {
				t.Errorf("unexpected result, want: %s, got: %s", tc.want, got)
			}
		})
	}
}

func TestConvertAmountUnitsToString(t *testing.T) {
	cases := []struct {
		name   string
		amount string
		want   string
	}{
		{
			name:   "Success",
			amount: "1000000000000000",
			want:   "0.001",
		},
		{
			name:   "Whole",
			amount: "2000000000000000000",
			want:   "2",
		},
		{
			name:   "Zero",
			amount: "0",
			want:   "0",
		},
		{
			name:   "Payout",
			amount: "490000000000000000",
			want:   "0.49",
		},
		{
			name:   "NegativeWhole",
			amount: "-3000000000000000000",
			want:   "-3",
		},
		{
			name:   "NegativeFraction",
			amount: "-1500000000000000000",
			want:   "-1.5",
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			amount, ok := new(big.Int).SetString(tc.amount, 10)
			if !ok {
				t.Fatalf("bad fixture %q", tc.amount)
			}

			got := ConvertAmountUnitsToString(amount)
			if got != tc.want {
				t.Errorf("unexpected result, want: %s, got: %s", tc.want, got)
			}
		})
	}
}
