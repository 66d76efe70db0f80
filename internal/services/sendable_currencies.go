package services

import (
	"math/big"

	"bridge-backend/internal/models"
	"bridge-backend/internal/utils"
)

// ChainGetter resolves chain metadata by chain id
type ChainGetter interface {
	GetChain(chainID string) (*models.ChainInfo, error)
}

// BalanceReader last known balance of an account, ok is false when never loaded
type BalanceReader interface {
	Balance(bech32Address, minimalDenom string) (*big.Int, bool)
}

// SendableFilter narrows currencies to those that can cross the IBC bridge
type SendableFilter struct {
	chains ChainGetter
}

// NewSendableFilter creates a filter over a registry snapshot
func NewSendableFilter(chains ChainGetter) *SendableFilter {
	return &SendableFilter{chains: chains}
}

// SendableCurrencies keeps native currencies, plus ERC-20 contract tokens when the chain
// has the evmos-erc20 feature. Everything else is dropped. Input order is preserved.
// An unknown chain is treated as having no features.
func (f *SendableFilter) SendableCurrencies(base []models.Currency, chainID string) []models.Currency {
	erc20Enabled := false
	if chain, err := f.chains.GetChain(chainID); err == nil {
		erc20Enabled = chain.HasFeature(models.FeatureEvmosERC20)
	}

	result := make([]models.Currency, 0, len(base))
	for _, currency := range base {
		switch utils.ClassifyCurrency(currency) {
		case models.CurrencyTypeNative:
			result = append(result, currency)
		case models.CurrencyTypeContractToken:
			if erc20Enabled {
				result = append(result, currency)
			}
		}
	}
	return result
}

// BaseSendableCurrencies is the general "what can this account send" step that feeds the
// filter: currencies whose loaded balance is zero are excluded, unloaded ones are kept.
func BaseSendableCurrencies(currencies []models.Currency, bech32Address string, balances BalanceReader) []models.Currency {
	result := make([]models.Currency, 0, len(currencies))
	for _, currency := range currencies {
		if balances != nil {
			if balance, ok := balances.Balance(bech32Address, currency.CoinMinimalDenom); ok && balance.Sign() <= 0 {
				continue
			}
		}
		result = append(result, currency)
	}
	return result
}
