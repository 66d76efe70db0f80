package utils

import (
	"fmt"
	"strings"

	"bridge-backend/internal/models"
)

// DenomHelper splits a minimal denom of the form "<type>:<contract>[:<denom>]"
type DenomHelper struct {
	denomType       string
	contractAddress string
	denom           string
}

// NewDenomHelper parses a minimal denom. Plain denoms ("aevmos", "ibc/...") are native.
func NewDenomHelper(minimalDenom string) (*DenomHelper, error) {
	// "(...)" suffixes carry display hints only
	if i := strings.Index(minimalDenom, "("); i >= 0 {
		minimalDenom = minimalDenom[:i]
	}
	if minimalDenom == "" {
		return nil, fmt.Errorf("empty denom")
	}

	parts := strings.SplitN(minimalDenom, ":", 3)
	switch len(parts) {
	case 1:
		return &DenomHelper{denom: parts[0]}, nil
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid denom: %s", minimalDenom)
		}
		return &DenomHelper{denomType: parts[0], contractAddress: parts[1], denom: parts[1]}, nil
	default:
		if parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return nil, fmt.Errorf("invalid denom: %s", minimalDenom)
		}
		return &DenomHelper{denomType: parts[0], contractAddress: parts[1], denom: parts[2]}, nil
	}
}

// Type returns the raw type prefix, "native" when there is none
func (d *DenomHelper) Type() string {
	if d.denomType == "" {
		return "native"
	}
	return d.denomType
}

// ContractAddress returns the contract part of a typed denom
func (d *DenomHelper) ContractAddress() string {
	return d.contractAddress
}

// Denom returns the denom without type and contract
func (d *DenomHelper) Denom() string {
	return d.denom
}

// Classify maps the type prefix onto the currency classification
func (d *DenomHelper) Classify() models.CurrencyType {
	switch strings.ToLower(d.Type()) {
	case "native":
		return models.CurrencyTypeNative
	case "erc20":
		return models.CurrencyTypeContractToken
	default:
		return models.CurrencyTypeOther
	}
}

// ClassifyCurrency returns the classification of a currency; unparseable denoms are "other"
func ClassifyCurrency(currency models.Currency) models.CurrencyType {
	helper, err := NewDenomHelper(currency.CoinMinimalDenom)
	if err != nil {
		return models.CurrencyTypeOther
	}
	return helper.Classify()
}

// CurrencyContractAddress returns the explicit contract address or the one encoded in the denom
func CurrencyContractAddress(currency models.Currency) string {
	if currency.ContractAddress != "" {
		return currency.ContractAddress
	}
	helper, err := NewDenomHelper(currency.CoinMinimalDenom)
	if err != nil {
		return ""
	}
	return helper.ContractAddress()
}
