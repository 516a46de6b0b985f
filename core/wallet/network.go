package wallet

import "github.com/tokenquest/sdk-go/core/types"

// RequiredNetwork is the fixed target network for all swaps. It is a build
// constant, not runtime-configurable by the user.
var RequiredNetwork = types.ChainDescriptor{
	ChainID:     "0x61", // 97
	Name:        "BSC Testnet",
	RPCURL:      "https://data-seed-prebsc-1-s1.binance.org:8545/",
	ExplorerURL: "https://testnet.bscscan.com",
	NativeCurrency: types.NativeCurrency{
		Name:     "Binance Coin",
		Symbol:   "tBNB",
		Decimals: 18,
	},
}
