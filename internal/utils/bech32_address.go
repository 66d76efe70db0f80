package utils

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/ethereum/go-ethereum/common"
)

// Bech32Address raw account bytes that can be rendered as bech32 or hex
type Bech32Address struct {
	address []byte
}

// NewBech32Address wraps raw account bytes
func NewBech32Address(address []byte) Bech32Address {
	b := make([]byte, len(address))
	copy(b, address)
	return Bech32Address{address: b}
}

// FromBech32 decodes a bech32 string and checks it carries the expected prefix
func FromBech32(bech32Address, prefix string) (Bech32Address, error) {
	hrp, data, err := bech32.Decode(bech32Address)
	if err != nil {
		return Bech32Address{}, fmt.Errorf("invalid bech32 address %q: %w", bech32Address, err)
	}
	if prefix != "" && hrp != prefix {
		return Bech32Address{}, fmt.Errorf("unmatched bech32 prefix: expected %s, got %s", prefix, hrp)
	}

	address, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return Bech32Address{}, fmt.Errorf("invalid bech32 data: %w", err)
	}
	if len(address) == 0 {
		return Bech32Address{}, fmt.Errorf("empty bech32 address data")
	}

	return Bech32Address{address: address}, nil
}

// FromHex parses a 0x prefixed (or bare) hex address
func FromHex(hexAddress string) (Bech32Address, error) {
	s := strings.TrimPrefix(strings.TrimPrefix(hexAddress, "0x"), "0X")
	address, err := hex.DecodeString(s)
	if err != nil {
		return Bech32Address{}, fmt.Errorf("invalid hex address %q: %w", hexAddress, err)
	}
	if len(address) == 0 {
		return Bech32Address{}, fmt.Errorf("empty hex address")
	}
	return Bech32Address{address: address}, nil
}

// Bytes returns a copy of the raw address
func (a Bech32Address) Bytes() []byte {
	b := make([]byte, len(a.address))
	copy(b, a.address)
	return b
}

// ToBech32 encodes the address with the given prefix
func (a Bech32Address) ToBech32(prefix string) (string, error) {
	data, err := bech32.ConvertBits(a.address, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("failed to convert address bits: %w", err)
	}
	encoded, err := bech32.Encode(prefix, data)
	if err != nil {
		return "", fmt.Errorf("failed to encode bech32 address: %w", err)
	}
	return encoded, nil
}

// ToHex renders the address as 0x hex; mixedCase applies the EIP-55 checksum to 20 byte addresses
func (a Bech32Address) ToHex(mixedCase bool) string {
	if mixedCase && len(a.address) == common.AddressLength {
		return common.BytesToAddress(a.address).Hex()
	}
	return "0x" + hex.EncodeToString(a.address)
}

// EthereumAddress returns the address as an EVM account, which must be exactly 20 bytes
func (a Bech32Address) EthereumAddress() (common.Address, error) {
	if len(a.address) != common.AddressLength {
		return common.Address{}, fmt.Errorf("address length %d is not an EVM address", len(a.address))
	}
	return common.BytesToAddress(a.address), nil
}
