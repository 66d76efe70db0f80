package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"bridge-backend/internal/clients"
	"bridge-backend/internal/models"
	"bridge-backend/internal/utils"
)

// SignProvider signs EVM payloads on behalf of a session account
type SignProvider interface {
	SignEthereum(ctx context.Context, chainID string, signer string, payload []byte, signType models.EthSignType) ([]byte, error)
}

// ProviderSource obtains the signing provider for one transfer
type ProviderSource func(ctx context.Context) (SignProvider, error)

// TxClient builds, submits and tracks ERC-20 transfers on one chain
type TxClient interface {
	CreateERC20TokenTransferTx(ctx context.Context, contract, from, to common.Address, amount, maxFeePerGas *big.Int, gasLimit uint64) (*types.Transaction, error)
	BroadcastSignedTx(ctx context.Context, signedTx []byte) (common.Hash, error)
	WaitForTransaction(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// TxClientFactory returns the tx client of a chain
type TxClientFactory func(chainID string) (TxClient, error)

// BalanceEntry cached balance that can be refreshed
type BalanceEntry interface {
	// Fetch starts a refresh and returns immediately
	Fetch()
}

// BalanceCache looks up cached balances by account and minimal denom
type BalanceCache interface {
	GetEntry(bech32Address, minimalDenom string) (BalanceEntry, bool)
}

// TxEvents optional callbacks of a transfer
type TxEvents struct {
	// OnBroadcasted runs once, synchronously, right after a successful broadcast
	OnBroadcasted func(txHash []byte)
}

// EthereumAccountDeps collaborators of an EthereumAccount
type EthereumAccountDeps struct {
	Chains    ChainGetter
	Providers ProviderSource
	TxClients TxClientFactory
	Balances  BalanceCache // optional
}

// EthereumAccount sends ERC-20 tokens from a bech32 session account on an EVM chain
type EthereumAccount struct {
	chainID string
	chain   *models.ChainInfo
	sender  models.AddressPair
	deps    EthereumAccountDeps
}

// NewEthereumAccount resolves the chain and both encodings of the session address
func NewEthereumAccount(chainID string, senderBech32 string, deps EthereumAccountDeps) (*EthereumAccount, error) {
	if deps.Chains == nil || deps.Providers == nil || deps.TxClients == nil {
		return nil, fmt.Errorf("ethereum account requires chains, providers and tx clients")
	}

	chain, err := deps.Chains.GetChain(chainID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedChain, err)
	}

	sender, err := resolveAddress(senderBech32, chain.Bech32Config.Bech32PrefixAccAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: sender: %w", ErrAddressDecode, err)
	}

	return &EthereumAccount{
		chainID: chainID,
		chain:   chain,
		sender:  sender,
		deps:    deps,
	}, nil
}

// Sender session address in both encodings
func (a *EthereumAccount) Sender() models.AddressPair {
	return a.sender
}

// BroadcastERC20TokenTransfer converts amount into the token's base units, has the provider sign
// a transfer(recipient, value) call, broadcasts it, waits for the receipt and refreshes the
// sender's cached balance. The call is never retried; ctx only stops the waiting.
func (a *EthereumAccount) BroadcastERC20TokenTransfer(
	ctx context.Context,
	currency *models.Currency,
	recipientBech32 string,
	amount string,
	maxFeePerGas *big.Int,
	gasLimit uint64,
	events *TxEvents,
) (*models.TransferReceipt, error) {
	contract, err := erc20Contract(currency)
	if err != nil {
		return nil, err
	}

	provider, err := a.deps.Providers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	if provider == nil {
		return nil, ErrProviderUnavailable
	}

	recipient, err := resolveAddress(recipientBech32, a.chain.Bech32Config.Bech32PrefixAccAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: recipient: %w", ErrAddressDecode, err)
	}

	value, err := utils.ToBaseUnits(amount, currency.CoinDecimals)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}
	if value.BitLen() > 256 {
		return nil, fmt.Errorf("%w: %s does not fit in uint256", ErrInvalidAmount, amount)
	}

	if maxFeePerGas == nil || maxFeePerGas.Sign() <= 0 || gasLimit == 0 {
		return nil, fmt.Errorf("%w: max fee per gas and gas limit must be positive", ErrInvalidFee)
	}

	req := models.TransferRequest{
		Currency:     *currency,
		Sender:       a.sender,
		Recipient:    recipient,
		Amount:       value,
		MaxFeePerGas: maxFeePerGas,
		GasLimit:     gasLimit,
	}

	txClient, err := a.deps.TxClients(a.chainID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	tx, err := txClient.CreateERC20TokenTransferTx(
		ctx,
		contract,
		common.HexToAddress(req.Sender.Hex),
		common.HexToAddress(req.Recipient.Hex),
		req.Amount,
		req.MaxFeePerGas,
		req.GasLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	payload, err := tx.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction payload: %w", err)
	}

	signedTx, err := provider.SignEthereum(ctx, a.chainID, req.Sender.Bech32, payload, models.EthSignTypeTransaction)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigningRejected, err)
	}
	if len(signedTx) == 0 {
		return nil, fmt.Errorf("%w: provider returned no signed transaction", ErrSigningRejected)
	}

	txHash, err := txClient.BroadcastSignedTx(ctx, signedTx)
	if err != nil {
		if errors.Is(err, clients.ErrMalformedSignedTx) {
			return nil, fmt.Errorf("%w: %w", ErrSigningRejected, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	if events != nil && events.OnBroadcasted != nil {
		events.OnBroadcasted(txHash.Bytes())
	}

	receipt, err := txClient.WaitForTransaction(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w (tx %s)", ErrExecutionReverted, txHash.Hex())
	}

	a.refreshBalance(req.Sender.Bech32, req.Currency.CoinMinimalDenom)

	result := &models.TransferReceipt{
		TxHash:    txHash,
		Success:   true,
		BlockHash: receipt.BlockHash,
		GasUsed:   receipt.GasUsed,
	}
	if receipt.BlockNumber != nil {
		result.BlockNumber = receipt.BlockNumber.Uint64()
	}
	return result, nil
}

// refreshBalance absent entries mean nothing to refresh
func (a *EthereumAccount) refreshBalance(bech32Address, minimalDenom string) {
	if a.deps.Balances == nil {
		return
	}
	if entry, ok := a.deps.Balances.GetEntry(bech32Address, minimalDenom); ok && entry != nil {
		entry.Fetch()
	}
}

func erc20Contract(currency *models.Currency) (common.Address, error) {
	if currency == nil {
		return common.Address{}, ErrInvalidCurrency
	}
	if utils.ClassifyCurrency(*currency) != models.CurrencyTypeContractToken {
		return common.Address{}, fmt.Errorf("%w: %s is not an ERC-20 token", ErrInvalidCurrency, currency.CoinMinimalDenom)
	}
	contract := utils.CurrencyContractAddress(*currency)
	if !common.IsHexAddress(contract) {
		return common.Address{}, fmt.Errorf("%w: bad contract address %q", ErrInvalidCurrency, contract)
	}
	return common.HexToAddress(contract), nil
}

func resolveAddress(bech32Address, prefix string) (models.AddressPair, error) {
	addr, err := utils.FromBech32(bech32Address, prefix)
	if err != nil {
		return models.AddressPair{}, err
	}
	if _, err := addr.EthereumAddress(); err != nil {
		return models.AddressPair{}, err
	}
	return models.AddressPair{
		Bech32: bech32Address,
		Hex:    addr.ToHex(true),
	}, nil
}
