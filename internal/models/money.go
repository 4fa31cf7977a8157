// Package models provides data model definitions for HomeVault Core.
package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// CoerceAmount normalizes a monetary value to 2-decimal precision.
// Non-finite input (NaN, +/-Inf) coerces to 0.
func CoerceAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
