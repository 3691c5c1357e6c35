package webhook

import "errors"

// Service errors
var (
	// ErrProviderNotConfigured marks an inbound event for a provider with
	// no signing secret. Processing fails closed; unsigned events are
	// never applied.
	ErrProviderNotConfigured = errors.New("provider not configured")
	// ErrDeliveryFailed marks an outbound delivery that exhausted its
	// retry budget. It is reported, never fatal to the pipeline.
	ErrDeliveryFailed = errors.New("webhook delivery failed")
	// ErrDispatcherStopped marks an enqueue against a stopped dispatcher.
	ErrDispatcherStopped = errors.New("dispatcher stopped")
)
