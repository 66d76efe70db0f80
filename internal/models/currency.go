package models

// CurrencyType classification derived from the minimal denom
type CurrencyType string

const (
	CurrencyTypeNative        CurrencyType = "native"
	CurrencyTypeContractToken CurrencyType = "contract-token"
	CurrencyTypeOther         CurrencyType = "other"
)

// Currency fungible asset as resolved from the chain registry
type Currency struct {
	CoinDenom        string `yaml:"coinDenom" json:"coin_denom"`                                   // display symbol, e.g. "EVMOS"
	CoinMinimalDenom string `yaml:"coinMinimalDenom" json:"coin_minimal_denom"`                    // base unit identifier, e.g. "aevmos" or "erc20:0x..."
	CoinDecimals     int    `yaml:"coinDecimals" json:"coin_decimals"`                             // decimal precision
	ContractAddress  string `yaml:"contractAddress,omitempty" json:"contract_address,omitempty"` // only for contract-backed assets
}

// AmountValue decimal quantity denominated in a currency
type AmountValue struct {
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
}
