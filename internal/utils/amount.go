package utils

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// MaxBaseUnitDigits decimal width of a uint256
const MaxBaseUnitDigits = 78

// ToBaseUnits converts a human entered decimal into integer base units:
// truncate(amount * 10^decimals), never rounding away from zero.
// e.g. "1.23456" with 4 decimals -> 12345
func ToBaseUnits(amount string, decimals int) (*big.Int, error) {
	if amount == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}
	if decimals < 0 {
		return nil, fmt.Errorf("invalid decimals: %d", decimals)
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if dec.IsNegative() {
		return nil, fmt.Errorf("amount cannot be negative: %s", amount)
	}

	if dec.IsZero() {
		return new(big.Int), nil
	}

	// integer digits of amount * 10^decimals, checked before anything is expanded
	intDigits := int64(dec.NumDigits()) + int64(dec.Exponent()) + int64(decimals)
	if intDigits > MaxBaseUnitDigits {
		return nil, fmt.Errorf("amount %q exceeds %d base unit digits", amount, MaxBaseUnitDigits)
	}
	if intDigits <= 0 {
		return new(big.Int), nil
	}

	return dec.Shift(int32(decimals)).Truncate(0).BigInt(), nil
}

// FromBaseUnits converts base units back to a decimal string without trailing zeros
// e.g. 10000000 with 6 decimals -> "10"
func FromBaseUnits(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}
