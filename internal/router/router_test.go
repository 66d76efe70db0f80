package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"bridge-backend/internal/config"
	"bridge-backend/internal/handlers"
	"bridge-backend/internal/middleware"
	"bridge-backend/internal/models"
	"bridge-backend/internal/services"
	"bridge-backend/internal/utils"
)

type noTransfers struct{}

func (noTransfers) TransferERC20(ctx context.Context, in services.TransferInput) (*services.TransferResult, error) {
	return nil, services.ErrInvalidCurrency
}

func newTestRouter(t *testing.T, cors config.CORSConfig) (*gin.Engine, config.AuthConfig) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()

	cfg := &config.Config{
		Auth: config.AuthConfig{JWTSecret: "router-secret"},
		CORS: cors,
	}
	registry := utils.NewChainRegistry([]*models.ChainInfo{{
		ChainID:      "evmos_9001-2",
		Bech32Config: models.NewBech32ConfigFromPrefix("evmos"),
	}})
	transfers := services.NewTransferService(services.TransferServiceDeps{Chains: registry, Logger: logger})

	r := SetupRouter(cfg, Handlers{
		Chains:     handlers.NewChainConfigHandler(registry, transfers, logger),
		Transfers:  handlers.NewTransferHandler(noTransfers{}, handlers.TransferDefaults{}, logger),
		WebSocket:  handlers.NewWebSocketHandler(services.NewWebSocketPushService(logger), logger),
		Auth:       middleware.NewAuthMiddleware(cfg.Auth, logger),
		MetricsIPs: middleware.NewLocalhostOnly(logger, nil),
	}, logger)
	return r, cfg.Auth
}

func request(r *gin.Engine, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = "127.0.0.1:5000"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouterPublicRoutes(t *testing.T) {
	r, _ := newTestRouter(t, config.CORSConfig{})

	require.Equal(t, http.StatusOK, request(r, http.MethodGet, "/health", nil).Code)
	require.Equal(t, http.StatusOK, request(r, http.MethodGet, "/ready", nil).Code)
	require.Equal(t, http.StatusOK, request(r, http.MethodGet, "/api/v1/chains", nil).Code)
	require.Equal(t, http.StatusOK, request(r, http.MethodGet, "/metrics", nil).Code)
	require.Equal(t, http.StatusNotFound, request(r, http.MethodGet, "/nope", nil).Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.RemoteAddr = "203.0.113.9:5000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouterAuthenticatedRoutes(t *testing.T) {
	r, auth := newTestRouter(t, config.CORSConfig{})

	require.Equal(t, http.StatusUnauthorized, request(r, http.MethodPost, "/api/v1/transfers/erc20", nil).Code)
	require.Equal(t, http.StatusUnauthorized, request(r, http.MethodGet, "/api/v1/chains/evmos_9001-2/sendable-currencies", nil).Code)
	require.Equal(t, http.StatusUnauthorized, request(r, http.MethodGet, "/api/v1/ws", nil).Code)

	token, err := middleware.IssueSessionToken(auth, "evmos1t2htvpfl862vnwdqnuekd9p4ulh3h6hd4k0fm4", "evmos_9001-2", time.Hour)
	require.NoError(t, err)
	bearer := map[string]string{"Authorization": "Bearer " + token}

	w := request(r, http.MethodGet, "/api/v1/chains/evmos_9001-2/sendable-currencies", bearer)
	require.Equal(t, http.StatusOK, w.Code)

	// not a websocket handshake
	w = request(r, http.MethodGet, "/api/v1/ws", bearer)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouterCORS(t *testing.T) {
	r, _ := newTestRouter(t, config.CORSConfig{AllowedOrigins: []string{"https://app.example"}, AllowCredentials: true})

	w := request(r, http.MethodOptions, "/api/v1/transfers/erc20", map[string]string{"Origin": "https://app.example"})
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = request(r, http.MethodGet, "/health", map[string]string{"Origin": "https://evil.example"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	open, _ := newTestRouter(t, config.CORSConfig{})
	w = request(open, http.MethodGet, "/health", map[string]string{"Origin": "https://any.example"})
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
