package clients

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const erc20ABIJSON = `[
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

var erc20ABI = mustParseABI(erc20ABIJSON)

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(fmt.Sprintf("invalid ABI: %v", err))
	}
	return parsed
}

// ErrMalformedSignedTx signed bytes returned by a provider could not be decoded
var ErrMalformedSignedTx = errors.New("malformed signed transaction")

// EthBackend the subset of ethclient.Client used for ERC-20 transfers
type EthBackend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// ERC20TxClient builds, broadcasts and tracks ERC-20 transfers on one EVM chain
type ERC20TxClient struct {
	chainID      *big.Int
	backend      EthBackend
	pollInterval time.Duration
}

// NewERC20TxClient Create ERC-20 transaction client
func NewERC20TxClient(evmChainID int64, backend EthBackend, pollInterval time.Duration) *ERC20TxClient {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &ERC20TxClient{
		chainID:      big.NewInt(evmChainID),
		backend:      backend,
		pollInterval: pollInterval,
	}
}

// ChainID EIP-155 chain id of the client
func (c *ERC20TxClient) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// CreateERC20TokenTransferTx builds an unsigned EIP-1559 transaction calling transfer(to, amount)
func (c *ERC20TxClient) CreateERC20TokenTransferTx(
	ctx context.Context,
	contract common.Address,
	from common.Address,
	to common.Address,
	amount *big.Int,
	maxFeePerGas *big.Int,
	gasLimit uint64,
) (*types.Transaction, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid transfer amount")
	}
	// the ABI packer wraps values modulo 2^256
	if amount.BitLen() > 256 {
		return nil, fmt.Errorf("transfer amount overflows uint256")
	}
	if maxFeePerGas == nil || maxFeePerGas.Sign() <= 0 {
		return nil, fmt.Errorf("max fee per gas must be positive")
	}
	if gasLimit == 0 {
		return nil, fmt.Errorf("gas limit must be positive")
	}

	data, err := erc20ABI.Pack("transfer", to, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack transfer call: %w", err)
	}

	nonce, err := c.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	tipCap, err := c.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest gas tip cap: %w", err)
	}
	// the tip can never exceed the fee cap
	if tipCap.Cmp(maxFeePerGas) > 0 {
		tipCap = new(big.Int).Set(maxFeePerGas)
	}

	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   c.ChainID(),
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: new(big.Int).Set(maxFeePerGas),
		Gas:       gasLimit,
		To:        &contract,
		Value:     big.NewInt(0),
		Data:      data,
	}), nil
}

// BroadcastSignedTx decodes RLP signed bytes and submits them
func (c *ERC20TxClient) BroadcastSignedTx(ctx context.Context, signedTx []byte) (common.Hash, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(signedTx); err != nil {
		return common.Hash{}, fmt.Errorf("%w: %v", ErrMalformedSignedTx, err)
	}
	if tx.ChainId().Cmp(c.chainID) != 0 {
		return common.Hash{}, fmt.Errorf("%w: chain id %s, expected %s", ErrMalformedSignedTx, tx.ChainId(), c.chainID)
	}

	if err := c.backend.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return tx.Hash(), nil
}

// WaitForTransaction polls until a receipt is available. A missing receipt keeps polling;
// any other RPC error is returned. Only ctx bounds the wait.
func (c *ERC20TxClient) WaitForTransaction(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("failed to query receipt for %s: %w", txHash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// BalanceOf queries an ERC-20 balance
func (c *ERC20TxClient) BalanceOf(ctx context.Context, token common.Address, account common.Address) (*big.Int, error) {
	data, err := erc20ABI.Pack("balanceOf", account)
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf call: %w", err)
	}

	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call balanceOf: %w", err)
	}

	values, err := erc20ABI.Unpack("balanceOf", out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack balanceOf: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected balanceOf output length: %d", len(values))
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf output type %T", values[0])
	}
	return balance, nil
}

// NativeBalance queries the native coin balance through the EVM side
func (c *ERC20TxClient) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := c.backend.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query native balance: %w", err)
	}
	return balance, nil
}
