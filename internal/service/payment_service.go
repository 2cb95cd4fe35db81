package service

import "context"

// Provider-side outcome values.
const (
	ProviderStatusSucceeded = "succeeded"
	ProviderStatusPending   = "pending"
	ProviderStatusFailed    = "failed"
)

// PaymentResult is the provider's answer to an authorization or refund.
type PaymentResult struct {
	ProviderRef string
	Status      string
}

// PaymentProvider is the tokenized-payment collaborator. The state machine
// treats it as opaque: it only needs a provider reference to reconcile the
// asynchronous outcome against later.
type PaymentProvider interface {
	Authorize(ctx context.Context, amountCents int64, paymentMethodID, customerID, description string) (*PaymentResult, error)
	Refund(ctx context.Context, paymentIntentID string, amountCents int64) (*PaymentResult, error)
}
