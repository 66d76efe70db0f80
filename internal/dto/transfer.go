package dto

import (
	"bridge-backend/internal/models"
	"bridge-backend/internal/services"
)

// ==================== Transfer DTOs ====================

// TransferERC20Request body of POST /api/v1/transfers/erc20
type TransferERC20Request struct {
	ChainID      string `json:"chain_id"`                     // defaults to the session chain
	Denom        string `json:"denom" binding:"required"`     // minimal denom, e.g. "erc20:0x..."
	Recipient    string `json:"recipient" binding:"required"` // bech32
	Amount       string `json:"amount" binding:"required"`    // decimal, e.g. "1.5"
	MaxFeePerGas string `json:"max_fee_per_gas,omitempty"`    // wei, defaults from config
	GasLimit     uint64 `json:"gas_limit,omitempty"`          // defaults from config
}

// TransferERC20Response confirmed transfer
type TransferERC20Response struct {
	Success    bool                    `json:"success"`
	TransferID string                  `json:"transfer_id"`
	Receipt    *models.TransferReceipt `json:"receipt"`
}

// SendableCurrenciesResponse currencies eligible for IBC transfer
type SendableCurrenciesResponse struct {
	Success    bool                        `json:"success"`
	ChainID    string                      `json:"chain_id"`
	Address    string                      `json:"address"`
	Currencies []services.SendableCurrency `json:"currencies"`
}

// ErrorResponse uniform error body
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code"`
}
