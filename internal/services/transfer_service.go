package services

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"bridge-backend/internal/metrics"
	"bridge-backend/internal/models"
	"bridge-backend/internal/utils"
)

// TransferEventPublisher publishes lifecycle events, implemented by events.TransferEventPublisher
type TransferEventPublisher interface {
	PublishTransferEvent(event models.TransferEvent) error
}

// TransferEventPusher pushes lifecycle events to a user, implemented by WebSocketPushService
type TransferEventPusher interface {
	PushTransferEvent(userAddress string, event models.TransferEvent)
}

// TransferInput ERC-20 transfer as requested by an API caller
type TransferInput struct {
	ChainID      string
	Sender       string // bech32 session address
	Denom        string // minimal denom of the currency
	Recipient    string // bech32
	Amount       string // decimal
	MaxFeePerGas *big.Int
	GasLimit     uint64
}

// TransferResult outcome of a confirmed transfer
type TransferResult struct {
	TransferID string                  `json:"transfer_id"`
	Receipt    *models.TransferReceipt `json:"receipt"`
}

// TransferService runs EthereumAccount transfers with logging, metrics and event fan-out
type TransferService struct {
	chains    ChainGetter
	providers ProviderSource
	txClients TxClientFactory
	balances  map[string]*BalanceStore // chainID -> store
	publisher TransferEventPublisher   // optional
	pusher    TransferEventPusher      // optional
	logger    *logrus.Logger
}

// TransferServiceDeps collaborators of TransferService
type TransferServiceDeps struct {
	Chains    ChainGetter
	Providers ProviderSource
	TxClients TxClientFactory
	Balances  map[string]*BalanceStore
	Publisher TransferEventPublisher
	Pusher    TransferEventPusher
	Logger    *logrus.Logger
}

// NewTransferService Create transfer service
func NewTransferService(deps TransferServiceDeps) *TransferService {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	balances := deps.Balances
	if balances == nil {
		balances = make(map[string]*BalanceStore)
	}
	return &TransferService{
		chains:    deps.Chains,
		providers: deps.Providers,
		txClients: deps.TxClients,
		balances:  balances,
		publisher: deps.Publisher,
		pusher:    deps.Pusher,
		logger:    logger,
	}
}

// BalanceStore store of a chain, nil when the chain has none
func (s *TransferService) BalanceStore(chainID string) *BalanceStore {
	return s.balances[chainID]
}

// TransferERC20 resolves the currency by denom and runs one transfer
func (s *TransferService) TransferERC20(ctx context.Context, in TransferInput) (*TransferResult, error) {
	transferID := uuid.NewString()
	start := time.Now()

	entry := s.logger.WithFields(logrus.Fields{
		"transfer_id": transferID,
		"chain_id":    in.ChainID,
		"sender":      in.Sender,
		"recipient":   in.Recipient,
		"denom":       in.Denom,
		"amount":      in.Amount,
	})
	entry.Info("ERC-20 transfer requested")

	metrics.TransfersInFlight.WithLabelValues(in.ChainID).Inc()
	defer metrics.TransfersInFlight.WithLabelValues(in.ChainID).Dec()

	event := models.TransferEvent{
		TransferID: transferID,
		ChainID:    in.ChainID,
		Sender:     in.Sender,
		Recipient:  in.Recipient,
		Denom:      in.Denom,
		Amount:     in.Amount,
	}

	receipt, err := s.transfer(ctx, in, func(txHash []byte) {
		hash := common.BytesToHash(txHash).Hex()
		metrics.TransfersBroadcasted.WithLabelValues(in.ChainID).Inc()
		entry.WithField("tx_hash", hash).Info("ERC-20 transfer broadcasted")

		broadcasted := event
		broadcasted.Status = models.TransferStatusBroadcasted
		broadcasted.TxHash = hash
		event.TxHash = hash
		s.emit(in.Sender, broadcasted)
	})

	outcome := "confirmed"
	if err != nil {
		outcome = ErrorCode(err)
	}
	metrics.TransfersTotal.WithLabelValues(in.ChainID, outcome).Inc()
	metrics.TransferDuration.WithLabelValues(in.ChainID, outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		entry.WithFields(logrus.Fields{
			"error":      err.Error(),
			"error_code": ErrorCode(err),
			"tx_hash":    event.TxHash,
		}).Warn("ERC-20 transfer failed")

		failed := event
		failed.Status = models.TransferStatusFailed
		failed.Error = err.Error()
		failed.ErrorCode = ErrorCode(err)
		s.emit(in.Sender, failed)
		return nil, err
	}

	entry.WithFields(logrus.Fields{
		"tx_hash":      receipt.TxHash.Hex(),
		"block_number": receipt.BlockNumber,
		"gas_used":     receipt.GasUsed,
	}).Info("ERC-20 transfer confirmed")

	confirmed := event
	confirmed.Status = models.TransferStatusConfirmed
	confirmed.TxHash = receipt.TxHash.Hex()
	s.emit(in.Sender, confirmed)

	return &TransferResult{TransferID: transferID, Receipt: receipt}, nil
}

func (s *TransferService) transfer(ctx context.Context, in TransferInput, onBroadcasted func([]byte)) (*models.TransferReceipt, error) {
	deps := EthereumAccountDeps{
		Chains:    s.chains,
		Providers: s.providers,
		TxClients: s.txClients,
	}

	var currency *models.Currency
	if chain, err := s.chains.GetChain(in.ChainID); err == nil {
		currency, _ = chain.FindCurrency(in.Denom)
	}

	if store, ok := s.balances[in.ChainID]; ok {
		deps.Balances = store
		if currency != nil {
			// make sure the sender's entry exists so the post-transfer refresh lands somewhere
			store.Track(in.Sender, *currency)
		}
	}

	account, err := NewEthereumAccount(in.ChainID, in.Sender, deps)
	if err != nil {
		return nil, err
	}

	return account.BroadcastERC20TokenTransfer(ctx, currency, in.Recipient, in.Amount, in.MaxFeePerGas, in.GasLimit, &TxEvents{
		OnBroadcasted: onBroadcasted,
	})
}

// emit fans an event out; publish failures are logged, never returned
func (s *TransferService) emit(userAddress string, event models.TransferEvent) {
	event.Timestamp = time.Now().Unix()
	if s.pusher != nil {
		s.pusher.PushTransferEvent(userAddress, event)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishTransferEvent(event); err != nil {
			s.logger.WithFields(logrus.Fields{
				"transfer_id": event.TransferID,
				"status":      event.Status,
				"error":       err.Error(),
			}).Warn("Failed to publish transfer event")
		}
	}
}

// SendableCurrencies currencies the session can send over IBC on a chain, with the loaded balance
func (s *TransferService) SendableCurrencies(chainID, bech32Address string) ([]SendableCurrency, error) {
	chain, err := s.chains.GetChain(chainID)
	if err != nil {
		return nil, err
	}

	var reader BalanceReader
	if store, ok := s.balances[chainID]; ok {
		reader = store
	}

	base := BaseSendableCurrencies(chain.Currencies, bech32Address, reader)
	currencies := NewSendableFilter(s.chains).SendableCurrencies(base, chainID)

	result := make([]SendableCurrency, 0, len(currencies))
	for _, currency := range currencies {
		item := SendableCurrency{
			Currency: currency,
			Type:     utils.ClassifyCurrency(currency),
		}
		if reader != nil {
			if balance, ok := reader.Balance(bech32Address, currency.CoinMinimalDenom); ok {
				item.Balance = utils.FromBaseUnits(balance, currency.CoinDecimals)
			}
		}
		result = append(result, item)
	}
	return result, nil
}

// SendableCurrency API view of a sendable currency
type SendableCurrency struct {
	models.Currency
	Type    models.CurrencyType `json:"type"`
	Balance string              `json:"balance,omitempty"`
}

// RefreshBalances starts a background refresh of every currency of the account on a chain
func (s *TransferService) RefreshBalances(chainID, bech32Address string) error {
	chain, err := s.chains.GetChain(chainID)
	if err != nil {
		return err
	}
	store, ok := s.balances[chainID]
	if !ok {
		return nil
	}
	for _, currency := range chain.Currencies {
		store.Track(bech32Address, currency).Fetch()
	}
	return nil
}
