// Package registry holds the static token registry known at startup.
package registry

import (
	"sort"
	"strings"

	"github.com/tokenquest/sdk-go/core/types"
	"github.com/tokenquest/sdk-go/core/util"
)

// Registry indexes an immutable token set by address and by symbol. Both
// lookups are total: they report not-found explicitly instead of returning a
// zero value that callers have to guess about.
type Registry struct {
	byAddress map[string]types.TokenRef // lowercase hex -> token
	bySymbol  map[string]types.TokenRef // uppercase symbol -> token
}

// New builds a registry from the given tokens. Later duplicates (by address
// or symbol) replace earlier ones.
func New(tokens ...types.TokenRef) *Registry {
	r := &Registry{
		byAddress: make(map[string]types.TokenRef, len(tokens)),
		bySymbol:  make(map[string]types.TokenRef, len(tokens)),
	}
	for _, tok := range tokens {
		r.byAddress[tok.Address.Hex()] = tok
		r.bySymbol[strings.ToUpper(tok.Symbol)] = tok
	}
	return r
}

// ByAddress looks a token up by its address string, case-insensitively.
func (r *Registry) ByAddress(address string) (types.TokenRef, bool) {
	addr, err := util.NewAddress(address)
	if err != nil {
		return types.TokenRef{}, false
	}
	tok, ok := r.byAddress[addr.Hex()]
	return tok, ok
}

// BySymbol looks a token up by its symbol key, case-insensitively.
func (r *Registry) BySymbol(symbol string) (types.TokenRef, bool) {
	tok, ok := r.bySymbol[strings.ToUpper(symbol)]
	return tok, ok
}

// Resolve accepts either an address or a symbol, trying the address form
// first. This mirrors what the swap form sends.
func (r *Registry) Resolve(ref string) (types.TokenRef, bool) {
	if tok, ok := r.ByAddress(ref); ok {
		return tok, true
	}
	return r.BySymbol(ref)
}

// Tokens returns all registered tokens, ordered by symbol.
func (r *Registry) Tokens() []types.TokenRef {
	out := make([]types.TokenRef, 0, len(r.bySymbol))
	for _, tok := range r.bySymbol {
		out = append(out, tok)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Default returns the BSC testnet registry the swap front end ships with.
func Default() *Registry {
	return New(
		types.TokenRef{
			Address:  util.MustNewAddress("0xae13d989daC2f0dEbFf460aC112a837C89BAa7cd"),
			Symbol:   "WBNB",
			Name:     "Wrapped BNB",
			Decimals: 18,
		},
		types.TokenRef{
			Address:  util.MustNewAddress("0x78867BbEeF44f2326bF8DDd1941a4439382EF2A7"),
			Symbol:   "BUSD",
			Name:     "BUSD Token",
			Decimals: 18,
		},
		types.TokenRef{
			Address:  util.MustNewAddress("0x7ef95a0FEE0Dd31b22626fF2be2D0E3c5e4D5DC0"),
			Symbol:   "USDT",
			Name:     "Tether USD",
			Decimals: 18,
		},
	)
}
