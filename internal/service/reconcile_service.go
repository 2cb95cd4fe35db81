package service

import (
	"log"

	"campuspark/internal/clock"
	"campuspark/internal/db"
)

// ReconcileService translates asynchronous payment-provider events into
// reservation state transitions. Events are delivered at least once, so
// every handler must tolerate duplicates; events for unknown payment
// references are logged and dropped, never surfaced as failures.
type ReconcileService struct {
	Store    ReservationStore
	Lots     LotStore
	Notifier Notifier
	Clock    clock.Clock
}

func NewReconcileService(store ReservationStore, lots LotStore, notifier Notifier, clk clock.Clock) *ReconcileService {
	return &ReconcileService{
		Store:    store,
		Lots:     lots,
		Notifier: notifier,
		Clock:    clk,
	}
}

// OnPaymentSucceeded flips pending -> active with payment completed and
// records the receipt reference. Replaying the same event matches no
// pending row and is a no-op, so notifications fire at most once.
func (s *ReconcileService) OnPaymentSucceeded(paymentIntentID, receiptURL string) error {
	res, err := s.Store.ConfirmPayment(paymentIntentID, receiptURL, s.Clock.Now())
	if err != nil {
		return err
	}
	if res == nil {
		log.Printf("Payment event for %s matched no pending reservation; dropping (already processed or orphaned)", paymentIntentID)
		return nil
	}
	if err := s.Notifier.NotifyReservationStatus(res, db.StatusActive); err != nil {
		log.Printf("Error notifying confirmation of reservation %s: %v", res.Code, err)
	}
	return nil
}

// OnPaymentFailed marks the payment failed. The reservation stays pending
// and its capacity is returned to the lot.
func (s *ReconcileService) OnPaymentFailed(paymentIntentID string) error {
	res, err := s.Store.FailPayment(paymentIntentID, s.Clock.Now())
	if err != nil {
		return err
	}
	if res == nil {
		log.Printf("Failed-payment event for %s matched no pending reservation; dropping", paymentIntentID)
		return nil
	}
	if err := s.Lots.ReleaseCapacity(res.LotID); err != nil {
		log.Printf("Error releasing capacity for lot %d after payment failure on %s: %v", res.LotID, res.Code, err)
	}
	return nil
}

// OnRefundSettled applies a provider-side refund that arrived out of band,
// e.g. one issued from the provider dashboard. A reservation already in a
// terminal state keeps it; only the payment state changes.
func (s *ReconcileService) OnRefundSettled(paymentIntentID string) error {
	res, err := s.Store.MarkRefunded(paymentIntentID, s.Clock.Now())
	if err != nil {
		return err
	}
	if res == nil {
		log.Printf("Refund event for %s matched no refundable reservation; dropping", paymentIntentID)
		return nil
	}
	if err := s.Notifier.NotifyReservationStatus(res, res.Status); err != nil {
		log.Printf("Error notifying refund of reservation %s: %v", res.Code, err)
	}
	return nil
}
