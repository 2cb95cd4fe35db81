package service

import (
	"errors"
	"testing"

	"campuspark/internal/db"
)

func TestSweepCompletesExpiredReservations(t *testing.T) {
	t.Parallel()
	store := newStubStore()
	lots := newStubLots(hourlyLot())
	lots.lots[1].AvailableSpaces = 8
	notifier := &stubNotifier{}

	// Active reservation past its end time.
	store.add(&db.Reservation{
		Code: "RES-20240108-0001", LotID: 1,
		Status: db.StatusActive, PaymentStatus: db.PaymentCompleted,
		StartTime: easternTime(8, 0), EndTime: easternTime(10, 0),
	})
	// Pending reservation that never got paid: swept too, terminal
	// disposition "expired unused".
	store.add(&db.Reservation{
		Code: "RES-20240108-0002", LotID: 1,
		Status: db.StatusPending, PaymentStatus: db.PaymentPending,
		StartTime: easternTime(8, 0), EndTime: easternTime(10, 0),
	})
	// Still inside its window: untouched.
	stillRunning := store.add(&db.Reservation{
		Code: "RES-20240108-0003", LotID: 1,
		Status: db.StatusActive, PaymentStatus: db.PaymentCompleted,
		StartTime: easternTime(8, 0), EndTime: easternTime(18, 0),
	})

	svc := NewSweepService(store, lots, notifier, fixedClock{now: easternTime(11, 0)})
	count, err := svc.Sweep()
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 reservations swept, got %d", count)
	}
	if store.reservations[stillRunning.ID].Status != db.StatusActive {
		t.Fatal("expected in-window reservation untouched")
	}
	for _, id := range []int{1, 2} {
		if store.reservations[id].Status != db.StatusCompleted {
			t.Fatalf("expected reservation %d completed, got %s", id, store.reservations[id].Status)
		}
	}
	if len(notifier.events) != 2 {
		t.Fatalf("expected one notification per swept reservation, got %d", len(notifier.events))
	}
	if lots.lots[1].AvailableSpaces != 10 {
		t.Fatalf("expected both spaces returned, got %d", lots.lots[1].AvailableSpaces)
	}
}

func TestSweepNotificationFailureDoesNotAbort(t *testing.T) {
	t.Parallel()
	store := newStubStore()
	notifier := &stubNotifier{failFor: map[string]error{
		"RES-20240108-0001": errors.New("mail gateway down"),
	}}

	store.add(&db.Reservation{
		Code: "RES-20240108-0001", LotID: 1,
		Status: db.StatusActive, PaymentStatus: db.PaymentCompleted,
		StartTime: easternTime(8, 0), EndTime: easternTime(10, 0),
	})
	store.add(&db.Reservation{
		Code: "RES-20240108-0002", LotID: 1,
		Status: db.StatusActive, PaymentStatus: db.PaymentCompleted,
		StartTime: easternTime(8, 0), EndTime: easternTime(10, 0),
	})

	svc := NewSweepService(store, newStubLots(hourlyLot()), notifier, fixedClock{now: easternTime(11, 0)})
	count, err := svc.Sweep()
	if err != nil {
		t.Fatalf("sweep must not fail on notification errors: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected both reservations swept, got %d", count)
	}
	if len(notifier.events) != 1 || notifier.events[0].code != "RES-20240108-0002" {
		t.Fatalf("expected the second notification to still go out, got %+v", notifier.events)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	t.Parallel()
	store := newStubStore()
	notifier := &stubNotifier{}
	store.add(&db.Reservation{
		Code: "RES-20240108-0001", LotID: 1,
		Status: db.StatusActive, PaymentStatus: db.PaymentCompleted,
		StartTime: easternTime(8, 0), EndTime: easternTime(10, 0),
	})

	svc := NewSweepService(store, newStubLots(hourlyLot()), notifier, fixedClock{now: easternTime(11, 0)})
	first, err := svc.Sweep()
	if err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	second, err := svc.Sweep()
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if first != 1 || second != 0 {
		t.Fatalf("expected 1 then 0 swept, got %d then %d", first, second)
	}
	if len(notifier.events) != 1 {
		t.Fatalf("expected a single notification across repeated sweeps, got %d", len(notifier.events))
	}
}
