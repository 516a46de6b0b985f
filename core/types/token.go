package types

import "github.com/tokenquest/sdk-go/core/util"

// TokenRef describes one swappable token. Instances are immutable and come
// from the static registry known at startup.
type TokenRef struct {
	Address  util.Address `json:"address"`
	Symbol   string       `json:"symbol"`
	Name     string       `json:"name"`
	Decimals uint8        `json:"decimals"`
}
