package util

import (
	"github.com/cockroachdb/apd/v3"
	"github.com/pkg/errors"
)

// amountPrecision covers NUMERIC(78,0), the widest integer an EVM uint256 can
// hold, so the conversions below never lose digits for realistic amounts.
const amountPrecision = 78

// ToSmallestUnit converts a human display amount ("1.5") into the token's
// smallest-unit integer string ("1500000000000000000" for 18 decimals).
// The scaling is exact: an amount with more fractional digits than the token
// supports is rejected instead of rounded.
func ToSmallestUnit(amount string, decimals uint8) (string, error) {
	d, _, err := apd.NewFromString(amount)
	if err != nil {
		return "", errors.Wrapf(err, "invalid amount %q", amount)
	}
	if d.Form != apd.Finite {
		return "", errors.Errorf("invalid amount %q", amount)
	}
	if d.Negative {
		return "", errors.Errorf("amount %q must not be negative", amount)
	}

	scaled := new(apd.Decimal).Set(d)
	scaled.Exponent += int32(decimals)

	ctx := apd.BaseContext.WithPrecision(amountPrecision)
	res := new(apd.Decimal)
	cond, err := ctx.Quantize(res, scaled, 0)
	if err != nil {
		return "", errors.Wrapf(err, "scaling amount %q", amount)
	}
	if cond&apd.Inexact != 0 {
		return "", errors.Errorf("amount %q has more than %d decimal places", amount, decimals)
	}
	return res.Text('f'), nil
}

// FromSmallestUnit converts a smallest-unit integer string back into a
// display amount with trailing zeros stripped.
func FromSmallestUnit(units string, decimals uint8) (string, error) {
	d, _, err := apd.NewFromString(units)
	if err != nil {
		return "", errors.Wrapf(err, "invalid smallest-unit amount %q", units)
	}
	if d.Form != apd.Finite || d.Exponent != 0 && !isInteger(d) {
		return "", errors.Errorf("smallest-unit amount %q is not an integer", units)
	}
	if d.IsZero() {
		return "0", nil
	}
	d.Exponent -= int32(decimals)
	d, _ = d.Reduce(d)
	return d.Text('f'), nil
}

// ParsePositive parses a display amount and requires it to be strictly
// positive. Used by the swap validation gate.
func ParsePositive(amount string) (*apd.Decimal, error) {
	d, _, err := apd.NewFromString(amount)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid amount %q", amount)
	}
	if d.Form != apd.Finite || d.Sign() <= 0 {
		return nil, errors.Errorf("amount %q must be a positive number", amount)
	}
	return d, nil
}

// ApplySlippage returns the minimum-received amount for a quoted output:
// floor(amountOut * (100 - slippagePercent) / 100), in smallest units.
func ApplySlippage(amountOut string, slippagePercent string) (string, error) {
	out, _, err := apd.NewFromString(amountOut)
	if err != nil {
		return "", errors.Wrapf(err, "invalid amount out %q", amountOut)
	}
	slip, _, err := apd.NewFromString(slippagePercent)
	if err != nil {
		return "", errors.Wrapf(err, "invalid slippage %q", slippagePercent)
	}
	hundred := apd.New(100, 0)
	if slip.Negative || slip.Cmp(hundred) >= 0 {
		return "", errors.Errorf("slippage %q out of range [0, 100)", slippagePercent)
	}

	ctx := apd.BaseContext.WithPrecision(amountPrecision)
	factor := new(apd.Decimal)
	if _, err := ctx.Sub(factor, hundred, slip); err != nil {
		return "", errors.WithStack(err)
	}
	scaled := new(apd.Decimal)
	if _, err := ctx.Mul(scaled, out, factor); err != nil {
		return "", errors.WithStack(err)
	}
	if _, err := ctx.Quo(scaled, scaled, hundred); err != nil {
		return "", errors.WithStack(err)
	}

	floorCtx := ctx
	floorCtx.Rounding = apd.RoundFloor
	res := new(apd.Decimal)
	if _, err := floorCtx.Quantize(res, scaled, 0); err != nil {
		return "", errors.WithStack(err)
	}
	return res.Text('f'), nil
}

func isInteger(d *apd.Decimal) bool {
	res := new(apd.Decimal)
	ctx := apd.BaseContext.WithPrecision(amountPrecision)
	cond, err := ctx.Quantize(res, d, 0)
	return err == nil && cond&apd.Inexact == 0
}
