package handlers

import (
	"context"
	"math/big"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bridge-backend/internal/dto"
	"bridge-backend/internal/middleware"
	"bridge-backend/internal/services"
)

// TransferRunner runs one ERC-20 transfer to completion
type TransferRunner interface {
	TransferERC20(ctx context.Context, in services.TransferInput) (*services.TransferResult, error)
}

// TransferDefaults fee parameters used when a request leaves them out
type TransferDefaults struct {
	MaxFeePerGas *big.Int
	GasLimit     uint64
}

// TransferHandler handles ERC-20 transfer requests
type TransferHandler struct {
	transfers TransferRunner
	defaults  TransferDefaults
	logger    *logrus.Logger
}

// NewTransferHandler creates a new TransferHandler instance
func NewTransferHandler(transfers TransferRunner, defaults TransferDefaults, logger *logrus.Logger) *TransferHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &TransferHandler{
		transfers: transfers,
		defaults:  defaults,
		logger:    logger,
	}
}

// TransferERC20Handler sends an ERC-20 token from the session account and waits for the receipt
// POST /api/v1/transfers/erc20
func (h *TransferHandler) TransferERC20Handler(c *gin.Context) {
	var req dto.TransferERC20Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err.Error())
		return
	}

	chainID := req.ChainID
	if chainID == "" {
		chainID = middleware.SessionChainID(c)
	}

	maxFeePerGas := h.defaults.MaxFeePerGas
	if req.MaxFeePerGas != "" {
		fee, ok := new(big.Int).SetString(req.MaxFeePerGas, 10)
		if !ok {
			respondWithError(c, http.StatusBadRequest, "INVALID_FEE", "Invalid max_fee_per_gas", "max_fee_per_gas must be an integer amount of wei")
			return
		}
		maxFeePerGas = fee
	}

	gasLimit := req.GasLimit
	if gasLimit == 0 {
		gasLimit = h.defaults.GasLimit
	}

	result, err := h.transfers.TransferERC20(c.Request.Context(), services.TransferInput{
		ChainID:      chainID,
		Sender:       middleware.UserAddress(c),
		Denom:        req.Denom,
		Recipient:    req.Recipient,
		Amount:       req.Amount,
		MaxFeePerGas: maxFeePerGas,
		GasLimit:     gasLimit,
	})
	if err != nil {
		respondWithTransferError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TransferERC20Response{
		Success:    true,
		TransferID: result.TransferID,
		Receipt:    result.Receipt,
	})
}
