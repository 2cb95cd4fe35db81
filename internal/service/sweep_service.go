package service

import (
	"log"
	"time"

	"campuspark/internal/clock"
	"campuspark/internal/db"
)

// SweepStore finalizes elapsed reservations with a single conditional
// batch update, so overlapping sweeps are idempotent.
type SweepStore interface {
	CompleteExpired(now time.Time) ([]db.Reservation, error)
}

// SweepService is the recurring expiration sweeper. It completes every
// pending or active reservation whose window has elapsed; a pending
// reservation that never got paid is still completed, its terminal
// disposition being "expired unused".
type SweepService struct {
	Store    SweepStore
	Lots     LotStore
	Notifier Notifier
	Clock    clock.Clock
}

func NewSweepService(store SweepStore, lots LotStore, notifier Notifier, clk clock.Clock) *SweepService {
	return &SweepService{
		Store:    store,
		Lots:     lots,
		Notifier: notifier,
		Clock:    clk,
	}
}

// Sweep transitions all overdue reservations to completed and returns how
// many were transitioned. Notification failures are logged per reservation
// and never abort the sweep.
func (s *SweepService) Sweep() (int, error) {
	completed, err := s.Store.CompleteExpired(s.Clock.Now())
	if err != nil {
		return 0, err
	}
	if len(completed) == 0 {
		log.Println("Sweep: no reservations past their end time.")
		return 0, nil
	}

	var lotIDs []int
	for i := range completed {
		// Reservations whose payment failed already gave their space back.
		if completed[i].PaymentStatus != db.PaymentFailed {
			lotIDs = append(lotIDs, completed[i].LotID)
		}
	}
	if err := s.Lots.ReleaseCapacityBatch(lotIDs); err != nil {
		log.Printf("Sweep: error releasing capacity for completed reservations: %v", err)
	}

	for i := range completed {
		if err := s.Notifier.NotifyReservationStatus(&completed[i], db.StatusCompleted); err != nil {
			log.Printf("Sweep: error notifying completion of reservation %s: %v", completed[i].Code, err)
		}
	}

	log.Printf("Sweep: completed %d reservations.", len(completed))
	return len(completed), nil
}
