package converter

import (
	"fmt"
	"math/big"
	"strings"
)

// Decimals is the base-unit scale of every supported asset (wei-style).
const Decimals = 18

var unit = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

// ConvertAmountStringToUnits parses a decimal token amount ("0.001") into
// base units. Fractions beyond 18 places are rejected rather than rounded
// so that no wager ever gains or loses value in conversion.
func ConvertAmountStringToUnits(amount string) (*big.Int, error) {
	const op = "converter.ConvertAmountStringToUnits"

	whole, frac, _ := strings.Cut(amount, ".")

	if whole == "" {
		whole = "0"
	}

	if len(frac) > Decimals {
		return nil, fmt.Errorf("%s: more than %d decimal places in %q", op, Decimals, amount)
	}

	frac += strings.Repeat("0", Decimals-len(frac))

	result, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("%s: invalid amount %q", op, amount)
	}

	if result.Sign() < 0 {
		return nil, fmt.Errorf("%s: negative amount %q", op, amount)
	}

	return result, nil
}

// ConvertAmountUnitsToString renders base units as a decimal token amount
// with trailing zeros trimmed.
func ConvertAmountUnitsToString(amount *big.Int) string {
	if amount == nil {
		return "0"
	}

	sign := ""
	if amount.Sign() < 0 {
		sign = "-"
	}

	quo, rem := new(big.Int).QuoRem(new(big.Int).Abs(amount), unit, new(big.Int))

	if rem.Sign() == 0 {
		return sign + quo.String()
	}

	frac := strings.TrimRight(fmt.Sprintf("%018s", rem.String()), "0")

	return sign + quo.String() + "." + frac
}
