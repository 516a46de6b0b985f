package types

// NativeCurrency describes the gas currency of a chain, as wallets expect it
// in a chain registration request.
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// ChainDescriptor is the fixed descriptor used to register the required
// network with a wallet that does not know it yet.
type ChainDescriptor struct {
	ChainID        string         `json:"chainId"` // 0x-prefixed hex
	Name           string         `json:"chainName"`
	RPCURL         string         `json:"rpcUrl"`
	ExplorerURL    string         `json:"blockExplorerUrl"`
	NativeCurrency NativeCurrency `json:"nativeCurrency"`
}
