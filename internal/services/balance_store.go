package services

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"bridge-backend/internal/models"
	"bridge-backend/internal/utils"
)

// BalanceFetcher loads the current balance of an account for a currency
type BalanceFetcher func(ctx context.Context, bech32Address string, currency models.Currency) (*big.Int, error)

// BalanceQuerier the balance calls of clients.ERC20TxClient
type BalanceQuerier interface {
	BalanceOf(ctx context.Context, token common.Address, account common.Address) (*big.Int, error)
	NativeBalance(ctx context.Context, account common.Address) (*big.Int, error)
}

// NewEVMBalanceFetcher reads native and ERC-20 balances through the EVM JSON-RPC side
func NewEVMBalanceFetcher(querier BalanceQuerier, bech32Prefix string) BalanceFetcher {
	return func(ctx context.Context, bech32Address string, currency models.Currency) (*big.Int, error) {
		addr, err := utils.FromBech32(bech32Address, bech32Prefix)
		if err != nil {
			return nil, err
		}
		account, err := addr.EthereumAddress()
		if err != nil {
			return nil, err
		}

		switch utils.ClassifyCurrency(currency) {
		case models.CurrencyTypeNative:
			return querier.NativeBalance(ctx, account)
		case models.CurrencyTypeContractToken:
			contract := utils.CurrencyContractAddress(currency)
			if !common.IsHexAddress(contract) {
				return nil, fmt.Errorf("bad contract address %q", contract)
			}
			return querier.BalanceOf(ctx, common.HexToAddress(contract), account)
		default:
			return nil, fmt.Errorf("unsupported currency %s", currency.CoinMinimalDenom)
		}
	}
}

// BalanceStore cached balances of one chain, keyed by account and minimal denom
type BalanceStore struct {
	chainID string
	fetcher BalanceFetcher
	timeout time.Duration
	logger  *logrus.Logger

	mu      sync.RWMutex
	entries map[string]*BalanceQuery
}

// NewBalanceStore Create balance store
func NewBalanceStore(chainID string, fetcher BalanceFetcher, timeout time.Duration, logger *logrus.Logger) *BalanceStore {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &BalanceStore{
		chainID: chainID,
		fetcher: fetcher,
		timeout: timeout,
		logger:  logger,
		entries: make(map[string]*BalanceQuery),
	}
}

func balanceKey(bech32Address, minimalDenom string) string {
	return bech32Address + "/" + minimalDenom
}

// Track returns the entry of an account/currency, creating it when missing
func (s *BalanceStore) Track(bech32Address string, currency models.Currency) *BalanceQuery {
	key := balanceKey(bech32Address, currency.CoinMinimalDenom)

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[key]; ok {
		return entry
	}
	entry := &BalanceQuery{
		store:    s,
		address:  bech32Address,
		currency: currency,
	}
	s.entries[key] = entry
	return entry
}

// GetEntry looks up a tracked entry
func (s *BalanceStore) GetEntry(bech32Address, minimalDenom string) (BalanceEntry, bool) {
	entry, ok := s.lookup(bech32Address, minimalDenom)
	if !ok {
		return nil, false
	}
	return entry, true
}

// Balance last loaded balance of a tracked entry
func (s *BalanceStore) Balance(bech32Address, minimalDenom string) (*big.Int, bool) {
	entry, ok := s.lookup(bech32Address, minimalDenom)
	if !ok {
		return nil, false
	}
	return entry.Balance()
}

func (s *BalanceStore) lookup(bech32Address, minimalDenom string) (*BalanceQuery, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[balanceKey(bech32Address, minimalDenom)]
	return entry, ok
}

// BalanceQuery one cached balance
type BalanceQuery struct {
	store    *BalanceStore
	address  string
	currency models.Currency

	mu        sync.RWMutex
	balance   *big.Int
	err       error
	fetchedAt time.Time
	fetching  bool
	pending   bool
	started   uint64
	applied   uint64
}

// Balance last loaded value, ok is false until the first successful load
func (q *BalanceQuery) Balance() (*big.Int, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.balance == nil {
		return nil, false
	}
	return new(big.Int).Set(q.balance), true
}

// Currency currency of the entry
func (q *BalanceQuery) Currency() models.Currency {
	return q.currency
}

// LastError error of the last load, nil after a success
func (q *BalanceQuery) LastError() error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.err
}

// FetchedAt time of the last successful load
func (q *BalanceQuery) FetchedAt() time.Time {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.fetchedAt
}

// Fetch refreshes in the background. Calls made while a refresh is in flight
// collapse into one more refresh that starts after it finishes.
func (q *BalanceQuery) Fetch() {
	q.mu.Lock()
	if q.fetching {
		q.pending = true
		q.mu.Unlock()
		return
	}
	q.fetching = true
	q.mu.Unlock()

	go q.fetchLoop()
}

func (q *BalanceQuery) fetchLoop() {
	for {
		ctx, cancel := context.WithTimeout(context.Background(), q.store.timeout)
		_ = q.refresh(ctx)
		cancel()

		q.mu.Lock()
		if !q.pending {
			q.fetching = false
			q.mu.Unlock()
			return
		}
		q.pending = false
		q.mu.Unlock()
	}
}

// Refresh loads the balance synchronously
func (q *BalanceQuery) Refresh(ctx context.Context) error {
	return q.refresh(ctx)
}

// refresh loads the balance; a result older than the one already stored is dropped
func (q *BalanceQuery) refresh(ctx context.Context) error {
	q.mu.Lock()
	q.started++
	seq := q.started
	q.mu.Unlock()

	balance, err := q.store.fetcher(ctx, q.address, q.currency)

	q.mu.Lock()
	defer q.mu.Unlock()
	if err != nil {
		q.store.logger.WithFields(logrus.Fields{
			"chain_id": q.store.chainID,
			"address":  q.address,
			"denom":    q.currency.CoinMinimalDenom,
			"error":    err.Error(),
		}).Warn("Balance refresh failed")
		if seq > q.applied {
			q.err = err
		}
		return err
	}
	if seq < q.applied {
		return nil
	}
	q.applied = seq
	q.err = nil
	q.balance = balance
	q.fetchedAt = time.Now()
	return nil
}
