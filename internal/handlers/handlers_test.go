package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"bridge-backend/internal/dto"
	"bridge-backend/internal/middleware"
	"bridge-backend/internal/models"
	"bridge-backend/internal/services"
)

const (
	sessionUser  = "evmos1t2htvpfl862vnwdqnuekd9p4ulh3h6hd4k0fm4"
	sessionChain = "evmos_9001-2"
)

type fakeTransfers struct {
	in     services.TransferInput
	result *services.TransferResult
	err    error
}

func (f *fakeTransfers) TransferERC20(ctx context.Context, in services.TransferInput) (*services.TransferResult, error) {
	f.in = in
	return f.result, f.err
}

type fakeCurrencies struct {
	chains     map[string][]services.SendableCurrency
	refreshed  []string
	lastChain  string
	lastSender string
}

func (f *fakeCurrencies) SendableCurrencies(chainID, bech32Address string) ([]services.SendableCurrency, error) {
	f.lastChain, f.lastSender = chainID, bech32Address
	currencies, ok := f.chains[chainID]
	if !ok {
		return nil, fmt.Errorf("chain not found: %s", chainID)
	}
	return currencies, nil
}

func (f *fakeCurrencies) RefreshBalances(chainID, bech32Address string) error {
	if _, ok := f.chains[chainID]; !ok {
		return fmt.Errorf("chain not found: %s", chainID)
	}
	f.refreshed = append(f.refreshed, chainID+"/"+bech32Address)
	return nil
}

type fakeChains struct{}

func (fakeChains) GetChain(chainID string) (*models.ChainInfo, error) {
	if chainID != sessionChain {
		return nil, fmt.Errorf("chain not found: %s", chainID)
	}
	return &models.ChainInfo{ChainID: sessionChain, EVMChainID: 9001}, nil
}

func (f fakeChains) GetAllChains() []*models.ChainInfo {
	chain, _ := f.GetChain(sessionChain)
	return []*models.ChainInfo{chain}
}

func withSession(c *gin.Context) {
	c.Set(middleware.ContextUserAddress, sessionUser)
	c.Set(middleware.ContextChainID, sessionChain)
	c.Next()
}

func newTestEngine(transfers *fakeTransfers, currencies *fakeCurrencies) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()

	transferHandler := NewTransferHandler(transfers, TransferDefaults{MaxFeePerGas: big.NewInt(20_000_000_000), GasLimit: 100000}, logger)
	chainHandler := NewChainConfigHandler(fakeChains{}, currencies, logger)

	r := gin.New()
	r.GET("/health", HealthCheckHandler)
	r.GET("/api/v1/chains", chainHandler.ListChainsHandler)
	r.GET("/api/v1/chains/:chainId", chainHandler.GetChainHandler)
	auth := r.Group("/api/v1", withSession)
	auth.GET("/chains/:chainId/sendable-currencies", chainHandler.SendableCurrenciesHandler)
	auth.POST("/chains/:chainId/balances/refresh", chainHandler.RefreshBalancesHandler)
	auth.POST("/transfers/erc20", transferHandler.TransferERC20Handler)
	return r
}

func serve(r *gin.Engine, method, target string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTransferERC20Handler(t *testing.T) {
	receipt := &models.TransferReceipt{TxHash: common.HexToHash("0xabc"), Success: true, BlockNumber: 7}
	transfers := &fakeTransfers{result: &services.TransferResult{TransferID: "t-1", Receipt: receipt}}
	r := newTestEngine(transfers, &fakeCurrencies{})

	w := serve(r, http.MethodPost, "/api/v1/transfers/erc20", dto.TransferERC20Request{
		Denom:     "erc20:0xD4949664cD82660AaE99bEdc034a0deA8A0bd517",
		Recipient: "evmos1ld53vz2u580kpwmee6fvu048fsmut56eafewmq",
		Amount:    "1.5",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.TransferERC20Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, "t-1", resp.TransferID)
	require.Equal(t, uint64(7), resp.Receipt.BlockNumber)

	require.Equal(t, sessionChain, transfers.in.ChainID)
	require.Equal(t, sessionUser, transfers.in.Sender)
	require.Equal(t, "1.5", transfers.in.Amount)
	require.Equal(t, int64(20_000_000_000), transfers.in.MaxFeePerGas.Int64())
	require.Equal(t, uint64(100000), transfers.in.GasLimit)
}

func TestTransferERC20HandlerOverrides(t *testing.T) {
	transfers := &fakeTransfers{result: &services.TransferResult{Receipt: &models.TransferReceipt{}}}
	r := newTestEngine(transfers, &fakeCurrencies{})

	w := serve(r, http.MethodPost, "/api/v1/transfers/erc20", dto.TransferERC20Request{
		ChainID:      "other_1-1",
		Denom:        "erc20:0x1",
		Recipient:    "evmos1x",
		Amount:       "1",
		MaxFeePerGas: "123",
		GasLimit:     60000,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "other_1-1", transfers.in.ChainID)
	require.Equal(t, int64(123), transfers.in.MaxFeePerGas.Int64())
	require.Equal(t, uint64(60000), transfers.in.GasLimit)
}

func TestTransferERC20HandlerBadRequests(t *testing.T) {
	transfers := &fakeTransfers{}
	r := newTestEngine(transfers, &fakeCurrencies{})

	w := serve(r, http.MethodPost, "/api/v1/transfers/erc20", map[string]string{"denom": "erc20:0x1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "INVALID_REQUEST")

	w = serve(r, http.MethodPost, "/api/v1/transfers/erc20", dto.TransferERC20Request{
		Denom: "erc20:0x1", Recipient: "evmos1x", Amount: "1", MaxFeePerGas: "1.5",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "INVALID_FEE")
	require.Empty(t, transfers.in.Denom, "service must not be called")
}

func TestTransferERC20HandlerErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrInvalidCurrency, http.StatusBadRequest, "INVALID_CURRENCY"},
		{fmt.Errorf("%w: recipient: bad checksum", services.ErrAddressDecode), http.StatusBadRequest, "ADDRESS_DECODE_ERROR"},
		{services.ErrInvalidAmount, http.StatusBadRequest, "INVALID_AMOUNT"},
		{services.ErrInvalidFee, http.StatusBadRequest, "INVALID_FEE"},
		{services.ErrUnsupportedChain, http.StatusNotFound, "UNSUPPORTED_CHAIN"},
		{services.ErrSigningRejected, http.StatusForbidden, "SIGNING_REJECTED"},
		{services.ErrExecutionReverted, http.StatusUnprocessableEntity, "EXECUTION_REVERTED"},
		{services.ErrProviderUnavailable, http.StatusServiceUnavailable, "PROVIDER_UNAVAILABLE"},
		{fmt.Errorf("%w: dial tcp: refused", services.ErrNetwork), http.StatusBadGateway, "NETWORK_ERROR"},
		{errors.New("unexpected"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			r := newTestEngine(&fakeTransfers{err: tt.err}, &fakeCurrencies{})
			w := serve(r, http.MethodPost, "/api/v1/transfers/erc20", dto.TransferERC20Request{
				Denom: "erc20:0x1", Recipient: "evmos1x", Amount: "1",
			})
			require.Equal(t, tt.status, w.Code)

			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.False(t, resp.Success)
			require.Equal(t, tt.code, resp.Code)
			require.Equal(t, tt.err.Error(), resp.Error)
		})
	}
}

func TestSendableCurrenciesHandler(t *testing.T) {
	currencies := &fakeCurrencies{chains: map[string][]services.SendableCurrency{
		sessionChain: {{
			Currency: models.Currency{CoinDenom: "EVMOS", CoinMinimalDenom: "aevmos", CoinDecimals: 18},
			Type:     models.CurrencyTypeNative,
			Balance:  "2",
		}},
	}}
	r := newTestEngine(&fakeTransfers{}, currencies)

	w := serve(r, http.MethodGet, "/api/v1/chains/"+sessionChain+"/sendable-currencies", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.SendableCurrenciesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, sessionUser, resp.Address)
	require.Len(t, resp.Currencies, 1)
	require.Equal(t, "aevmos", resp.Currencies[0].CoinMinimalDenom)
	require.Equal(t, "2", resp.Currencies[0].Balance)
	require.Equal(t, sessionUser, currencies.lastSender)

	w = serve(r, http.MethodGet, "/api/v1/chains/unknown-1/sendable-currencies", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRefreshBalancesHandler(t *testing.T) {
	currencies := &fakeCurrencies{chains: map[string][]services.SendableCurrency{sessionChain: nil}}
	r := newTestEngine(&fakeTransfers{}, currencies)

	w := serve(r, http.MethodPost, "/api/v1/chains/"+sessionChain+"/balances/refresh", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Equal(t, []string{sessionChain + "/" + sessionUser}, currencies.refreshed)

	w = serve(r, http.MethodPost, "/api/v1/chains/unknown-1/balances/refresh", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestChainHandlers(t *testing.T) {
	r := newTestEngine(&fakeTransfers{}, &fakeCurrencies{})

	w := serve(r, http.MethodGet, "/api/v1/chains", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"total":1`)

	w = serve(r, http.MethodGet, "/api/v1/chains/"+sessionChain, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"evm_chain_id":9001`)

	w = serve(r, http.MethodGet, "/api/v1/chains/unknown-1", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = serve(r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

type fakeHealth struct{ err error }

func (f fakeHealth) HealthCheck(ctx context.Context) error { return f.err }

func TestReadinessHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ready-ok", ReadinessHandler(map[string]HealthChecker{"kms": fakeHealth{}}))
	r.GET("/ready-bad", ReadinessHandler(map[string]HealthChecker{"kms": fakeHealth{}, "nats": fakeHealth{err: errors.New("NATS not connected")}}))

	w := serve(r, http.MethodGet, "/ready-ok", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodGet, "/ready-bad", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), "NATS not connected")
}
