package dto

import "github.com/golang-jwt/jwt/v5"

// ==================== Auth DTOs ====================

// SessionClaims JWT claims of a wallet session
type SessionClaims struct {
	UserAddress string `json:"user_address"` // bech32 account address
	ChainID     string `json:"chain_id"`     // native chain id the session was opened on
	jwt.RegisteredClaims
}
