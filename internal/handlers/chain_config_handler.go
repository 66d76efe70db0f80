// Chain Handlers - read-only chain metadata and per-session currency views
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bridge-backend/internal/dto"
	"bridge-backend/internal/middleware"
	"bridge-backend/internal/models"
	"bridge-backend/internal/services"
)

// ChainLister registered chains
type ChainLister interface {
	GetChain(chainID string) (*models.ChainInfo, error)
	GetAllChains() []*models.ChainInfo
}

// CurrencyService sendable currency computation and balance refresh
type CurrencyService interface {
	SendableCurrencies(chainID, bech32Address string) ([]services.SendableCurrency, error)
	RefreshBalances(chainID, bech32Address string) error
}

// ChainConfigHandler handles chain and currency queries
type ChainConfigHandler struct {
	chains     ChainLister
	currencies CurrencyService
	logger     *logrus.Logger
}

// NewChainConfigHandler creates a new ChainConfigHandler instance
func NewChainConfigHandler(chains ChainLister, currencies CurrencyService, logger *logrus.Logger) *ChainConfigHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ChainConfigHandler{
		chains:     chains,
		currencies: currencies,
		logger:     logger,
	}
}

// ListChainsHandler lists all chains
// GET /api/v1/chains
func (h *ChainConfigHandler) ListChainsHandler(c *gin.Context) {
	chains := h.chains.GetAllChains()
	c.JSON(http.StatusOK, gin.H{
		"chains": chains,
		"total":  len(chains),
	})
}

// GetChainHandler gets a single chain
// GET /api/v1/chains/:chainId
func (h *ChainConfigHandler) GetChainHandler(c *gin.Context) {
	chain, err := h.chains.GetChain(c.Param("chainId"))
	if err != nil {
		respondWithError(c, http.StatusNotFound, "UNSUPPORTED_CHAIN", "Chain not found", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"chain": chain})
}

// SendableCurrenciesHandler currencies the session account can send over IBC
// GET /api/v1/chains/:chainId/sendable-currencies
func (h *ChainConfigHandler) SendableCurrenciesHandler(c *gin.Context) {
	chainID := c.Param("chainId")
	address := middleware.UserAddress(c)

	currencies, err := h.currencies.SendableCurrencies(chainID, address)
	if err != nil {
		respondWithError(c, http.StatusNotFound, "UNSUPPORTED_CHAIN", "Chain not found", err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.SendableCurrenciesResponse{
		Success:    true,
		ChainID:    chainID,
		Address:    address,
		Currencies: currencies,
	})
}

// RefreshBalancesHandler starts a background balance refresh for the session account
// POST /api/v1/chains/:chainId/balances/refresh
func (h *ChainConfigHandler) RefreshBalancesHandler(c *gin.Context) {
	chainID := c.Param("chainId")
	address := middleware.UserAddress(c)

	if err := h.currencies.RefreshBalances(chainID, address); err != nil {
		respondWithError(c, http.StatusNotFound, "UNSUPPORTED_CHAIN", "Chain not found", err.Error())
		return
	}

	h.logger.WithFields(logrus.Fields{
		"chain_id": chainID,
		"address":  address,
	}).Debug("Balance refresh requested")

	c.JSON(http.StatusAccepted, gin.H{"success": true})
}
