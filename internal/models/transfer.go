package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AddressPair one account in both encodings
type AddressPair struct {
	Bech32 string `json:"bech32"`
	Hex    string `json:"hex"` // EIP-55 checksummed, 0x prefixed
}

// TransferRequest fully resolved ERC-20 transfer, built per call
type TransferRequest struct {
	Currency     Currency
	Sender       AddressPair
	Recipient    AddressPair
	Amount       *big.Int // base units
	MaxFeePerGas *big.Int
	GasLimit     uint64
}

// TransferReceipt confirmation observed on chain
type TransferReceipt struct {
	TxHash      common.Hash `json:"tx_hash"`
	Success     bool        `json:"success"`
	BlockNumber uint64      `json:"block_number"`
	BlockHash   common.Hash `json:"block_hash"`
	GasUsed     uint64      `json:"gas_used"`
}

// TransferStatus lifecycle stage reported to subscribers
type TransferStatus string

const (
	TransferStatusBroadcasted TransferStatus = "broadcasted"
	TransferStatusConfirmed   TransferStatus = "confirmed"
	TransferStatusFailed      TransferStatus = "failed"
)

// TransferEvent lifecycle notification published for a transfer
type TransferEvent struct {
	TransferID string         `json:"transfer_id"`
	ChainID    string         `json:"chain_id"`
	Sender     string         `json:"sender"`
	Recipient  string         `json:"recipient"`
	Denom      string         `json:"denom"`
	Amount     string         `json:"amount"` // decimal, as requested
	Status     TransferStatus `json:"status"`
	TxHash     string         `json:"tx_hash,omitempty"`
	Error      string         `json:"error,omitempty"`
	ErrorCode  string         `json:"error_code,omitempty"`
	Timestamp  int64          `json:"timestamp"`
}
