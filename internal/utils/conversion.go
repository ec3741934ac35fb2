/*
This file contains common utility functions for converting raw on-chain
integer amounts into float64 token quantities with proper precision handling.
*/

package utils

import (
	"errors"
	"fmt"
	"math"

	sdkmath "cosmossdk.io/math"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidPrecision = errors.New("precision is invalid")
	ErrAmountNil        = errors.New("amount is nil")
	ErrAmountNegative   = errors.New("amount is negative")
	ErrNotFinite        = errors.New("value is not finite")
)

// RawSupplyToFloat64 converts a raw on-chain supply integer to a float64
// token quantity, dividing out the token's decimal precision. Contract
// supplies are stored as integers; without the precision the real quantity
// cannot be recovered.
func RawSupplyToFloat64(amount sdkmath.Int, decimals int) (float64, error) {
	if decimals < 0 || decimals > 18 {
		return 0, fmt.Errorf("%w: %d (must be between 0 and 18)", ErrInvalidPrecision, decimals)
	}
	if amount.IsNil() {
		return 0, ErrAmountNil
	}
	if amount.IsNegative() {
		return 0, ErrAmountNegative
	}

	dec := sdkmath.LegacyNewDecFromInt(amount)
	factor := sdkmath.LegacyNewDec(10).Power(uint64(decimals))
	scaled := dec.Quo(factor)

	value, err := scaled.Float64()
	if err != nil {
		return 0, fmt.Errorf("failed to convert decimal to float64: %w", err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, ErrNotFinite
	}
	return value, nil
}
