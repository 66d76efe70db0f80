package models

// FeatureEvmosERC20 chain feature that admits ERC-20 contract tokens to IBC transfers
const FeatureEvmosERC20 = "evmos-erc20"

// Bech32Config address prefixes of a chain
type Bech32Config struct {
	Bech32PrefixAccAddr  string `yaml:"bech32PrefixAccAddr" json:"bech32_prefix_acc_addr"`
	Bech32PrefixAccPub   string `yaml:"bech32PrefixAccPub" json:"bech32_prefix_acc_pub"`
	Bech32PrefixValAddr  string `yaml:"bech32PrefixValAddr" json:"bech32_prefix_val_addr"`
	Bech32PrefixValPub   string `yaml:"bech32PrefixValPub" json:"bech32_prefix_val_pub"`
	Bech32PrefixConsAddr string `yaml:"bech32PrefixConsAddr" json:"bech32_prefix_cons_addr"`
	Bech32PrefixConsPub  string `yaml:"bech32PrefixConsPub" json:"bech32_prefix_cons_pub"`
}

// NewBech32ConfigFromPrefix derives every prefix from the account prefix
func NewBech32ConfigFromPrefix(prefix string) Bech32Config {
	return Bech32Config{
		Bech32PrefixAccAddr:  prefix,
		Bech32PrefixAccPub:   prefix + "pub",
		Bech32PrefixValAddr:  prefix + "valoper",
		Bech32PrefixValPub:   prefix + "valoperpub",
		Bech32PrefixConsAddr: prefix + "valcons",
		Bech32PrefixConsPub:  prefix + "valconspub",
	}
}

// ChainInfo chain metadata resolved by chain identifier
type ChainInfo struct {
	ChainID      string       `json:"chain_id"`      // e.g. "evmos_9001-2"
	ChainName    string       `json:"chain_name"`
	EVMChainID   int64        `json:"evm_chain_id"`  // EIP-155 chain id of the EVM side
	RPCEndpoints []string     `json:"rpc_endpoints"` // EVM JSON-RPC endpoints
	Bech32Config Bech32Config `json:"bech32_config"`
	Features     []string     `json:"features"`
	Currencies   []Currency   `json:"currencies"`
}

// HasFeature checks whether the chain declares a feature flag
func (c *ChainInfo) HasFeature(feature string) bool {
	if c == nil {
		return false
	}
	for _, f := range c.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// FindCurrency looks up a currency by its minimal denom
func (c *ChainInfo) FindCurrency(coinMinimalDenom string) (*Currency, bool) {
	if c == nil {
		return nil, false
	}
	for i := range c.Currencies {
		if c.Currencies[i].CoinMinimalDenom == coinMinimalDenom {
			return &c.Currencies[i], true
		}
	}
	return nil, false
}
