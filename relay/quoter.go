package relay

import (
	"context"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/pkg/errors"

	"github.com/tokenquest/sdk-go/core/types"
)

// Quoter prices a swap. The production deployment delegates to the DEX
// router; the default implementation simulates it with a static rate table,
// matching the testnet demo behavior of the original service.
type Quoter interface {
	// Quote returns the expected output in the out-token's smallest unit
	// and the price impact percent for swapping amountIn (smallest units
	// of tokenIn).
	Quote(ctx context.Context, tokenIn, tokenOut types.TokenRef, amountIn string) (amountOut, priceImpact string, err error)
}

// simulatedPriceImpact mirrors the simplified calculation of the original
// router integration.
const simulatedPriceImpact = "0.1"

const quotePrecision = 78

// StaticRateQuoter prices swaps from a fixed USD price per token symbol.
type StaticRateQuoter struct {
	prices map[string]*apd.Decimal
}

var _ Quoter = (*StaticRateQuoter)(nil)

// NewStaticRateQuoter returns a quoter priced for the default testnet
// registry.
func NewStaticRateQuoter() *StaticRateQuoter {
	return &StaticRateQuoter{
		prices: map[string]*apd.Decimal{
			"WBNB": apd.New(600, 0),
			"BUSD": apd.New(1, 0),
			"USDT": apd.New(1, 0),
		},
	}
}

func (q *StaticRateQuoter) Quote(_ context.Context, tokenIn, tokenOut types.TokenRef, amountIn string) (string, string, error) {
	priceIn, ok := q.prices[strings.ToUpper(tokenIn.Symbol)]
	if !ok {
		return "", "", errors.Errorf("no liquidity for token %s", tokenIn.Symbol)
	}
	priceOut, ok := q.prices[strings.ToUpper(tokenOut.Symbol)]
	if !ok {
		return "", "", errors.Errorf("no liquidity for token %s", tokenOut.Symbol)
	}

	in, _, err := apd.NewFromString(amountIn)
	if err != nil {
		return "", "", errors.Wrapf(err, "invalid amount in %q", amountIn)
	}
	if in.Negative || in.Form != apd.Finite {
		return "", "", errors.Errorf("invalid amount in %q", amountIn)
	}

	ctx := apd.BaseContext.WithPrecision(quotePrecision)
	out := new(apd.Decimal)
	if _, err := ctx.Mul(out, in, priceIn); err != nil {
		return "", "", errors.WithStack(err)
	}
	if _, err := ctx.Quo(out, out, priceOut); err != nil {
		return "", "", errors.WithStack(err)
	}
	// Rescale between differing token decimals.
	out.Exponent += int32(tokenOut.Decimals) - int32(tokenIn.Decimals)

	floorCtx := ctx
	floorCtx.Rounding = apd.RoundFloor
	res := new(apd.Decimal)
	if _, err := floorCtx.Quantize(res, out, 0); err != nil {
		return "", "", errors.WithStack(err)
	}
	return res.Text('f'), simulatedPriceImpact, nil
}
