package clients

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"bridge-backend/internal/models"
	"bridge-backend/internal/utils"
)

// LocalSigner signs transaction payloads with an in-process private key
type LocalSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewLocalSigner parses a hex private key (with or without 0x)
func NewLocalSigner(privateKeyHex string) (*LocalSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &LocalSigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address EVM address of the key
func (s *LocalSigner) Address() common.Address {
	return s.address
}

// SignEthereum signs an unsigned transaction JSON payload and returns RLP bytes.
// The signer must be the bech32 rendering of the key's address.
func (s *LocalSigner) SignEthereum(ctx context.Context, chainID string, signer string, payload []byte, signType models.EthSignType) ([]byte, error) {
	if signType != models.EthSignTypeTransaction {
		return nil, fmt.Errorf("unsupported sign type: %s", signType)
	}

	signerAddr, err := utils.FromBech32(signer, "")
	if err != nil {
		return nil, fmt.Errorf("invalid signer: %w", err)
	}
	evmSigner, err := signerAddr.EthereumAddress()
	if err != nil {
		return nil, fmt.Errorf("invalid signer: %w", err)
	}
	if evmSigner != s.address {
		return nil, fmt.Errorf("signer %s does not match key address %s", signer, s.address.Hex())
	}

	tx := new(types.Transaction)
	if err := tx.UnmarshalJSON(payload); err != nil {
		return nil, fmt.Errorf("invalid transaction payload: %w", err)
	}

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(tx.ChainId()), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction for %s: %w", chainID, err)
	}

	return signedTx.MarshalBinary()
}
