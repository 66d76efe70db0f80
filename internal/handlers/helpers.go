package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bridge-backend/internal/dto"
	"bridge-backend/internal/services"
)

// respondWithError unified error response function
func respondWithError(c *gin.Context, statusCode int, code, errorMessage, message string) {
	c.JSON(statusCode, dto.ErrorResponse{
		Success: false,
		Error:   errorMessage,
		Message: message,
		Code:    code,
	})
}

// transferErrorStatus maps the transfer error taxonomy onto HTTP statuses
func transferErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrUnsupportedChain):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidCurrency),
		errors.Is(err, services.ErrAddressDecode),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidFee):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrSigningRejected):
		return http.StatusForbidden
	case errors.Is(err, services.ErrExecutionReverted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrProviderUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondWithTransferError(c *gin.Context, err error) {
	respondWithError(c, transferErrorStatus(err), services.ErrorCode(err), err.Error(), "")
}
