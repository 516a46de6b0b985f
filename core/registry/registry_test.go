package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByAddressIsCaseInsensitive(t *testing.T) {
	reg := Default()

	tests := []struct {
		name    string
		address string
		symbol  string
		found   bool
	}{
		{
			name:    "checksummed casing",
			address: "0xae13d989daC2f0dEbFf460aC112a837C89BAa7cd",
			symbol:  "WBNB",
			found:   true,
		},
		{
			name:    "all lowercase",
			address: "0xae13d989dac2f0debff460ac112a837c89baa7cd",
			symbol:  "WBNB",
			found:   true,
		},
		{
			name:    "all uppercase hex",
			address: "0xAE13D989DAC2F0DEBFF460AC112A837C89BAA7CD",
			symbol:  "WBNB",
			found:   true,
		},
		{
			name:    "unregistered address",
			address: "0x0000000000000000000000000000000000000001",
			found:   false,
		},
		{
			name:    "malformed address",
			address: "not-an-address",
			found:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, ok := reg.ByAddress(tt.address)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.symbol, tok.Symbol)
			}
		})
	}
}

func TestBySymbol(t *testing.T) {
	reg := Default()

	tok, ok := reg.BySymbol("busd")
	require.True(t, ok)
	assert.Equal(t, "BUSD", tok.Symbol)
	assert.Equal(t, uint8(18), tok.Decimals)

	_, ok = reg.BySymbol("DOGE")
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	reg := Default()

	byAddr, ok := reg.Resolve("0x78867BbEeF44f2326bF8DDd1941a4439382EF2A7")
	require.True(t, ok)
	assert.Equal(t, "BUSD", byAddr.Symbol)

	bySym, ok := reg.Resolve("USDT")
	require.True(t, ok)
	assert.Equal(t, "USDT", bySym.Symbol)

	_, ok = reg.Resolve("nonsense")
	assert.False(t, ok)
}

func TestTokensOrderedBySymbol(t *testing.T) {
	tokens := Default().Tokens()
	require.Len(t, tokens, 3)
	assert.Equal(t, "BUSD", tokens[0].Symbol)
	assert.Equal(t, "USDT", tokens[1].Symbol)
	assert.Equal(t, "WBNB", tokens[2].Symbol)
}
