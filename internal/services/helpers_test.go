package services

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"bridge-backend/internal/models"
	"bridge-backend/internal/utils"
)

const (
	testChainID        = "evmos_9001-2"
	testSender         = "evmos1t2htvpfl862vnwdqnuekd9p4ulh3h6hd4k0fm4"
	testSenderHex      = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	testRecipient      = "evmos1ld53vz2u580kpwmee6fvu048fsmut56eafewmq"
	testRecipientHex   = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
	testCosmosAddress  = "cosmos1t2htvpfl862vnwdqnuekd9p4ulh3h6hdhh78pa"
	testTokenContract  = "0xD4949664cD82660AaE99bEdc034a0deA8A0bd517"
	testTokenDenom     = "erc20:" + testTokenContract
	testNativeDenom    = "aevmos"
	testOtherDenom     = "cw20:juno1contract"
	testOtherChainID   = "osmosis-1"
	testOtherPrefix    = "osmo"
)

var (
	testToken = models.Currency{
		CoinDenom:        "WEVMOS",
		CoinMinimalDenom: testTokenDenom,
		CoinDecimals:     4,
	}
	testNative = models.Currency{CoinDenom: "EVMOS", CoinMinimalDenom: testNativeDenom, CoinDecimals: 18}
	testOther  = models.Currency{CoinDenom: "RAW", CoinMinimalDenom: testOtherDenom, CoinDecimals: 6}
	testHash   = common.HexToHash("0x9fc76417374aa880d4449a1f7f31ec597f00b1f6f3dd2d66f4c9c6c445836d8b")
)

func newTestRegistry() *utils.ChainRegistry {
	return utils.NewChainRegistry([]*models.ChainInfo{
		{
			ChainID:      testChainID,
			EVMChainID:   9001,
			Bech32Config: models.NewBech32ConfigFromPrefix("evmos"),
			Features:     []string{models.FeatureEvmosERC20},
			Currencies:   []models.Currency{testNative, testToken, testOther},
		},
		{
			ChainID:      testOtherChainID,
			Bech32Config: models.NewBech32ConfigFromPrefix(testOtherPrefix),
			Currencies:   []models.Currency{{CoinMinimalDenom: "uosmo", CoinDecimals: 6}, testToken},
		},
	})
}

type fakeProvider struct {
	mu       sync.Mutex
	calls    int
	chainID  string
	signer   string
	payload  []byte
	signType models.EthSignType
	signed   []byte
	err      error
}

func (p *fakeProvider) SignEthereum(ctx context.Context, chainID string, signer string, payload []byte, signType models.EthSignType) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.chainID = chainID
	p.signer = signer
	p.payload = payload
	p.signType = signType
	return p.signed, p.err
}

type fakeTxClient struct {
	mu           sync.Mutex
	createCalls  int
	broadcasts   int
	waits        int
	contract     common.Address
	from         common.Address
	to           common.Address
	amount       *big.Int
	createErr    error
	broadcastErr error
	receipt      *types.Receipt
	receiptErr   error
	signedTx     []byte
}

func (c *fakeTxClient) CreateERC20TokenTransferTx(ctx context.Context, contract, from, to common.Address, amount, maxFeePerGas *big.Int, gasLimit uint64) (*types.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.createCalls++
	c.contract, c.from, c.to, c.amount = contract, from, to, amount
	if c.createErr != nil {
		return nil, c.createErr
	}
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(9001),
		GasTipCap: big.NewInt(1),
		GasFeeCap: maxFeePerGas,
		Gas:       gasLimit,
		To:        &contract,
		Value:     big.NewInt(0),
	}), nil
}

func (c *fakeTxClient) BroadcastSignedTx(ctx context.Context, signedTx []byte) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.broadcasts++
	c.signedTx = signedTx
	if c.broadcastErr != nil {
		return common.Hash{}, c.broadcastErr
	}
	return testHash, nil
}

func (c *fakeTxClient) WaitForTransaction(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waits++
	if c.receiptErr != nil {
		return nil, c.receiptErr
	}
	return c.receipt, nil
}

func successReceipt() *types.Receipt {
	return &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      testHash,
		BlockNumber: big.NewInt(1234),
		BlockHash:   common.HexToHash("0x01"),
		GasUsed:     51234,
	}
}

type countingEntry struct {
	mu      sync.Mutex
	fetches int
}

func (e *countingEntry) Fetch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fetches++
}

type fakeBalanceCache struct {
	entries map[string]*countingEntry
	lookups []string
}

func (c *fakeBalanceCache) GetEntry(bech32Address, minimalDenom string) (BalanceEntry, bool) {
	key := bech32Address + "/" + minimalDenom
	c.lookups = append(c.lookups, key)
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return entry, true
}

var errBoom = errors.New("boom")
