package services

import "errors"

// Transfer error taxonomy. Every failure is terminal for the call; none is retried.
var (
	ErrProviderUnavailable = errors.New("can't get the signing provider")
	ErrUnsupportedChain    = errors.New("unsupported chain")
	ErrInvalidCurrency     = errors.New("invalid currency, expected valid ERC-20 token")
	ErrAddressDecode       = errors.New("invalid address")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidFee          = errors.New("invalid fee parameters")
	ErrSigningRejected     = errors.New("signing rejected")
	ErrNetwork             = errors.New("network error")
	// on-chain revert reasons are not reliably available, so this stays generic
	ErrExecutionReverted = errors.New("EVM transaction execution rejected, please check all fields and retry")
)

// ErrorCode stable code for API responses and events
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrProviderUnavailable):
		return "PROVIDER_UNAVAILABLE"
	case errors.Is(err, ErrUnsupportedChain):
		return "UNSUPPORTED_CHAIN"
	case errors.Is(err, ErrInvalidCurrency):
		return "INVALID_CURRENCY"
	case errors.Is(err, ErrAddressDecode):
		return "ADDRESS_DECODE_ERROR"
	case errors.Is(err, ErrInvalidAmount):
		return "INVALID_AMOUNT"
	case errors.Is(err, ErrInvalidFee):
		return "INVALID_FEE"
	case errors.Is(err, ErrSigningRejected):
		return "SIGNING_REJECTED"
	case errors.Is(err, ErrExecutionReverted):
		return "EXECUTION_REVERTED"
	case errors.Is(err, ErrNetwork):
		return "NETWORK_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}
