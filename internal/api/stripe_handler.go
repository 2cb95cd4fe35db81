package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"campuspark/internal/service"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

type StripeWebhookHandler struct {
	StripeSecret string
	Reconciler   *service.ReconcileService
}

func NewStripeWebhookHandler(stripeSecret string, reconciler *service.ReconcileService) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		StripeSecret: stripeSecret,
		Reconciler:   reconciler,
	}
}

// HandleWebhook verifies the provider signature and applies the event.
// Unverified payloads are rejected with no state change; events that match
// no reservation are acknowledged so the provider stops retrying them.
func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading webhook body: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sigHeader, h.StripeSecret)
	if err != nil {
		log.Printf("Webhook signature verification failed: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			log.Printf("Error parsing payment_intent.succeeded: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		receiptURL := ""
		if pi.LatestCharge != nil {
			receiptURL = pi.LatestCharge.ReceiptURL
		}
		if err := h.Reconciler.OnPaymentSucceeded(pi.ID, receiptURL); err != nil {
			log.Printf("DB error applying payment_intent.succeeded for %s: %v", pi.ID, err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

	case "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			log.Printf("Error parsing payment_intent.payment_failed: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := h.Reconciler.OnPaymentFailed(pi.ID); err != nil {
			log.Printf("DB error applying payment_intent.payment_failed for %s: %v", pi.ID, err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

	case "charge.refunded":
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			log.Printf("Error parsing charge.refunded: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if charge.PaymentIntent != nil && charge.PaymentIntent.ID != "" {
			if err := h.Reconciler.OnRefundSettled(charge.PaymentIntent.ID); err != nil {
				log.Printf("DB error applying charge.refunded for %s: %v", charge.PaymentIntent.ID, err)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
		}

	default:
		log.Printf("Unhandled event type: %s", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}
