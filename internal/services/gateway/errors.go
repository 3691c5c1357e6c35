package gateway

import "errors"

// Adapter errors
var (
	// ErrProviderUnavailable marks transient provider failures (network,
	// 5xx). Callers may retry the upstream call.
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	// ErrProviderRejected marks permanent rejections (4xx). Not retryable;
	// surfaced to the merchant-facing action.
	ErrProviderRejected = errors.New("payment provider rejected request")
	// ErrInvalidSignature marks a webhook body that fails verification.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrUnknownProvider marks a provider name with no registered adapter.
	ErrUnknownProvider = errors.New("unknown payment provider")
	// ErrMethodNotSupported marks a payment method no adapter handles.
	ErrMethodNotSupported = errors.New("payment method not supported")
)
