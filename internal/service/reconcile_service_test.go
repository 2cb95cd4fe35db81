package service

import (
	"testing"

	"campuspark/internal/clock"
	"campuspark/internal/db"
)

func pendingReservation(store *stubStore, intentID string) *db.Reservation {
	return store.add(&db.Reservation{
		Code:                  "RES-20240108-0099",
		LotID:                 1,
		UserEmail:             "casey@example.edu",
		RateType:              db.RateHourly,
		HourlyRate:            2.50,
		TotalPrice:            10.00,
		Status:                db.StatusPending,
		PaymentStatus:         db.PaymentPending,
		StartTime:             easternTime(9, 0),
		EndTime:               easternTime(13, 0),
		StripePaymentIntentID: intentID,
	})
}

func TestPaymentSucceededActivatesReservation(t *testing.T) {
	t.Parallel()
	store := newStubStore()
	notifier := &stubNotifier{}
	res := pendingReservation(store, "pi_abc")
	svc := NewReconcileService(store, newStubLots(hourlyLot()), notifier, fixedClock{now: easternTime(8, 30)})

	if err := svc.OnPaymentSucceeded("pi_abc", "https://receipt/1"); err != nil {
		t.Fatalf("succeeded event: %v", err)
	}

	stored := store.reservations[res.ID]
	if stored.Status != db.StatusActive || stored.PaymentStatus != db.PaymentCompleted {
		t.Fatalf("expected active/completed, got %s/%s", stored.Status, stored.PaymentStatus)
	}
	if stored.ReceiptURL != "https://receipt/1" {
		t.Fatalf("expected receipt recorded, got %q", stored.ReceiptURL)
	}
	if len(notifier.events) != 1 || notifier.events[0].status != db.StatusActive {
		t.Fatalf("expected one activation notification, got %+v", notifier.events)
	}
}

func TestPaymentSucceededIsIdempotent(t *testing.T) {
	t.Parallel()
	store := newStubStore()
	notifier := &stubNotifier{}
	res := pendingReservation(store, "pi_abc")
	svc := NewReconcileService(store, newStubLots(hourlyLot()), notifier, fixedClock{now: easternTime(8, 30)})

	if err := svc.OnPaymentSucceeded("pi_abc", "https://receipt/1"); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := svc.OnPaymentSucceeded("pi_abc", "https://receipt/1"); err != nil {
		t.Fatalf("duplicate delivery: %v", err)
	}

	stored := store.reservations[res.ID]
	if stored.Status != db.StatusActive || stored.PaymentStatus != db.PaymentCompleted {
		t.Fatalf("expected active/completed after duplicate, got %s/%s", stored.Status, stored.PaymentStatus)
	}
	if len(notifier.events) != 1 {
		t.Fatalf("expected a single notification across duplicate deliveries, got %d", len(notifier.events))
	}
}

func TestPaymentEventForUnknownReferenceIsDropped(t *testing.T) {
	t.Parallel()
	store := newStubStore()
	notifier := &stubNotifier{}
	svc := NewReconcileService(store, newStubLots(hourlyLot()), notifier, fixedClock{now: easternTime(8, 30)})

	if err := svc.OnPaymentSucceeded("pi_orphan", ""); err != nil {
		t.Fatalf("orphan event must not fail the delivery handler: %v", err)
	}
	if len(notifier.events) != 0 {
		t.Fatal("expected no notification for an orphan event")
	}
}

func TestPaymentFailedReleasesCapacity(t *testing.T) {
	t.Parallel()
	store := newStubStore()
	lots := newStubLots(hourlyLot())
	lots.lots[1].AvailableSpaces = 9
	res := pendingReservation(store, "pi_abc")
	svc := NewReconcileService(store, lots, &stubNotifier{}, fixedClock{now: easternTime(8, 30)})

	if err := svc.OnPaymentFailed("pi_abc"); err != nil {
		t.Fatalf("failed event: %v", err)
	}

	stored := store.reservations[res.ID]
	if stored.Status != db.StatusPending || stored.PaymentStatus != db.PaymentFailed {
		t.Fatalf("expected pending/failed, got %s/%s", stored.Status, stored.PaymentStatus)
	}
	if lots.lots[1].AvailableSpaces != 10 {
		t.Fatalf("expected capacity returned, got %d spaces", lots.lots[1].AvailableSpaces)
	}
}

func TestRefundSettledMarksCancelledRefunded(t *testing.T) {
	t.Parallel()
	store := newStubStore()
	res := store.add(&db.Reservation{
		Code:                  "RES-20240108-0100",
		LotID:                 1,
		Status:                db.StatusActive,
		PaymentStatus:         db.PaymentCompleted,
		StartTime:             easternTime(9, 0),
		EndTime:               easternTime(13, 0),
		StripePaymentIntentID: "pi_abc",
	})
	svc := NewReconcileService(store, newStubLots(hourlyLot()), &stubNotifier{}, fixedClock{now: easternTime(10, 0)})

	if err := svc.OnRefundSettled("pi_abc"); err != nil {
		t.Fatalf("refund event: %v", err)
	}
	stored := store.reservations[res.ID]
	if stored.Status != db.StatusCancelled || stored.PaymentStatus != db.PaymentRefunded {
		t.Fatalf("expected cancelled/refunded, got %s/%s", stored.Status, stored.PaymentStatus)
	}
}

func TestRefundSettledKeepsCompletedTerminal(t *testing.T) {
	t.Parallel()
	store := newStubStore()
	notifier := &stubNotifier{}
	res := store.add(&db.Reservation{
		Code:                  "RES-20240108-0101",
		LotID:                 1,
		Status:                db.StatusCompleted,
		PaymentStatus:         db.PaymentCompleted,
		StartTime:             easternTime(9, 0),
		EndTime:               easternTime(13, 0),
		StripePaymentIntentID: "pi_done",
	})
	svc := NewReconcileService(store, newStubLots(hourlyLot()), notifier, fixedClock{now: easternTime(14, 0)})

	if err := svc.OnRefundSettled("pi_done"); err != nil {
		t.Fatalf("refund event: %v", err)
	}
	stored := store.reservations[res.ID]
	if stored.Status != db.StatusCompleted {
		t.Fatalf("expected completed to stay terminal, got %s", stored.Status)
	}
	if stored.PaymentStatus != db.PaymentRefunded {
		t.Fatalf("expected refund recorded on payment state, got %s", stored.PaymentStatus)
	}
	if len(notifier.events) != 1 || notifier.events[0].status != db.StatusCompleted {
		t.Fatalf("expected notification carrying the kept status, got %+v", notifier.events)
	}
}

var _ clock.Clock = fixedClock{}
