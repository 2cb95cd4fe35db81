package service

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/refund"
)

// StripeService implements PaymentProvider on Stripe PaymentIntents.
type StripeService struct{}

func NewStripeService() *StripeService {
	return &StripeService{}
}

func (s *StripeService) Authorize(ctx context.Context, amountCents int64, paymentMethodID, customerID, description string) (*PaymentResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountCents),
		Currency:           stripe.String(string(stripe.CurrencyUSD)),
		PaymentMethod:      stripe.String(paymentMethodID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
		Description:        stripe.String(description),
		// A card that needs 3DS comes back as an error instead of an
		// intent stuck in requires_action.
		ErrorOnRequiresAction: stripe.Bool(true),
	}
	if customerID != "" {
		params.Customer = stripe.String(customerID)
	}
	params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("error creating PaymentIntent: %w", err)
	}
	return &PaymentResult{ProviderRef: pi.ID, Status: string(pi.Status)}, nil
}

func (s *StripeService) Refund(ctx context.Context, paymentIntentID string, amountCents int64) (*PaymentResult, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
		Amount:        stripe.Int64(amountCents),
	}
	params.Context = ctx

	ref, err := refund.New(params)
	if err != nil {
		return nil, fmt.Errorf("error refunding PaymentIntent %s: %w", paymentIntentID, err)
	}
	return &PaymentResult{ProviderRef: ref.ID, Status: string(ref.Status)}, nil
}
