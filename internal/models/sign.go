package models

// EthSignType signature class requested from a signing provider
type EthSignType string

const (
	EthSignTypeMessage     EthSignType = "message"
	EthSignTypeTransaction EthSignType = "transaction"
	EthSignTypeEIP712      EthSignType = "eip-712"
)
