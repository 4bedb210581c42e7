package model

import (
	"math"
	"math/big"
)

// RoundMoney rounds v to two decimal places, halves away from zero. The exact
// binary value of v is rounded, so 1.005 (stored as 1.00499...) becomes 1.00.
func RoundMoney(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r := new(big.Rat).SetFloat64(v)
	neg := r.Sign() < 0
	r.Abs(r)
	r.Mul(r, big.NewRat(100, 1))
	r.Add(r, big.NewRat(1, 2))
	cents := new(big.Int).Quo(r.Num(), r.Denom())
	out, _ := new(big.Rat).SetFrac(cents, big.NewInt(100)).Float64()
	if neg {
		return -out
	}
	return out
}
