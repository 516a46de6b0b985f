package relay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenquest/sdk-go/core/registry"
	"github.com/tokenquest/sdk-go/core/types"
)

func token(t *testing.T, symbol string) types.TokenRef {
	t.Helper()
	tok, ok := registry.Default().BySymbol(symbol)
	require.True(t, ok)
	return tok
}

func TestStaticRateQuoter(t *testing.T) {
	q := NewStaticRateQuoter()
	ctx := context.Background()

	tests := []struct {
		name     string
		in       string
		out      string
		amountIn string
		want     string
	}{
		{
			name:     "one wbnb to busd",
			in:       "WBNB",
			out:      "BUSD",
			amountIn: "1000000000000000000",
			want:     "600000000000000000000",
		},
		{
			name:     "busd back to wbnb",
			in:       "BUSD",
			out:      "WBNB",
			amountIn: "600000000000000000000",
			want:     "1000000000000000000",
		},
		{
			name:     "stable to stable is one to one",
			in:       "BUSD",
			out:      "USDT",
			amountIn: "123450000000000000000",
			want:     "123450000000000000000",
		},
		{
			name:     "fractional result floors to smallest unit",
			in:       "BUSD",
			out:      "WBNB",
			amountIn: "1",
			want:     "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, impact, err := q.Quote(ctx, token(t, tt.in), token(t, tt.out), tt.amountIn)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, simulatedPriceImpact, impact)
		})
	}
}

func TestStaticRateQuoterRejectsBadInput(t *testing.T) {
	q := NewStaticRateQuoter()
	ctx := context.Background()

	_, _, err := q.Quote(ctx, token(t, "WBNB"), token(t, "BUSD"), "not-a-number")
	assert.Error(t, err)

	_, _, err = q.Quote(ctx, token(t, "WBNB"), token(t, "BUSD"), "-5")
	assert.Error(t, err)

	unknown := types.TokenRef{Symbol: "DOGE", Decimals: 18}
	_, _, err = q.Quote(ctx, unknown, token(t, "BUSD"), "1000")
	assert.ErrorContains(t, err, "no liquidity")
}
