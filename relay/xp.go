package relay

import (
	"github.com/cockroachdb/apd/v3"
)

// XP policy: every successful swap earns a base award plus one bonus point
// per whole token swapped, capped.
const (
	baseXPAward = 10
	maxXPBonus  = 50
)

// XPForSwap computes the XP award for a swap of amountIn smallest units of a
// token with the given decimals. An unparseable amount earns the base award
// only; the swap itself already succeeded at this point.
func XPForSwap(amountIn string, decimals uint8) uint64 {
	d, _, err := apd.NewFromString(amountIn)
	if err != nil || d.Negative || d.Form != apd.Finite {
		return baseXPAward
	}
	d.Exponent -= int32(decimals)

	ctx := apd.BaseContext.WithPrecision(quotePrecision)
	ctx.Rounding = apd.RoundFloor
	whole := new(apd.Decimal)
	if _, err := ctx.Quantize(whole, d, 0); err != nil {
		return baseXPAward
	}
	tokens, err := whole.Int64()
	if err != nil || tokens > maxXPBonus {
		// Overflow or huge amounts hit the cap.
		return baseXPAward + maxXPBonus
	}
	if tokens < 0 {
		return baseXPAward
	}
	return baseXPAward + uint64(tokens)
}
