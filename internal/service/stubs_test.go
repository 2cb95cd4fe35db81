package service

import (
	"context"
	"time"

	"campuspark/internal/db"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// stubStore keeps reservations in memory and mirrors the repository's
// conditional-update semantics, so race-ordering tests behave like the real
// SQL transitions.
type stubStore struct {
	nextID       int
	reservations map[int]*db.Reservation
	refunds      []db.Refund
	extensions   []db.Extension
	createErr    error
	beforeCancel func()
	beforeExtend func()
}

func newStubStore() *stubStore {
	return &stubStore{nextID: 1, reservations: map[int]*db.Reservation{}}
}

func (s *stubStore) add(res *db.Reservation) *db.Reservation {
	res.ID = s.nextID
	s.nextID++
	s.reservations[res.ID] = res
	return res
}

func (s *stubStore) CreateReservation(res *db.Reservation) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.add(res)
	return nil
}

func (s *stubStore) GetReservationByCode(code string) (*db.Reservation, error) {
	for _, res := range s.reservations {
		if res.Code == code {
			copied := *res
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *stubStore) GetReservationByPaymentIntentID(paymentIntentID string) (*db.Reservation, error) {
	for _, res := range s.reservations {
		if res.StripePaymentIntentID == paymentIntentID {
			copied := *res
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *stubStore) ConfirmPayment(paymentIntentID, receiptURL string, now time.Time) (*db.Reservation, error) {
	for _, res := range s.reservations {
		if res.StripePaymentIntentID == paymentIntentID && res.Status == db.StatusPending {
			res.Status = db.StatusActive
			res.PaymentStatus = db.PaymentCompleted
			res.ReceiptURL = receiptURL
			res.UpdatedAt = now
			copied := *res
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *stubStore) FailPayment(paymentIntentID string, now time.Time) (*db.Reservation, error) {
	for _, res := range s.reservations {
		if res.StripePaymentIntentID == paymentIntentID &&
			res.Status == db.StatusPending && res.PaymentStatus == db.PaymentPending {
			res.PaymentStatus = db.PaymentFailed
			res.UpdatedAt = now
			copied := *res
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *stubStore) CancelReservation(id int, reason, finalPaymentStatus string, cancelledAt time.Time, refund *db.Refund) (bool, error) {
	if s.beforeCancel != nil {
		s.beforeCancel()
	}
	if refund != nil {
		s.refunds = append(s.refunds, *refund)
	}
	res, ok := s.reservations[id]
	if !ok || (res.Status != db.StatusPending && res.Status != db.StatusActive) {
		return false, nil
	}
	res.Status = db.StatusCancelled
	res.PaymentStatus = finalPaymentStatus
	res.CancelReason = reason
	res.CancelledAt = &cancelledAt
	res.UpdatedAt = cancelledAt
	return true, nil
}

func (s *stubStore) MarkRefunded(paymentIntentID string, now time.Time) (*db.Reservation, error) {
	for _, res := range s.reservations {
		if res.StripePaymentIntentID == paymentIntentID && res.PaymentStatus != db.PaymentRefunded {
			if res.Status == db.StatusPending || res.Status == db.StatusActive {
				res.Status = db.StatusCancelled
			}
			res.PaymentStatus = db.PaymentRefunded
			res.UpdatedAt = now
			copied := *res
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *stubStore) AppendExtension(id int, newEndTime time.Time, ext *db.Extension, now time.Time) (bool, error) {
	if s.beforeExtend != nil {
		s.beforeExtend()
	}
	s.extensions = append(s.extensions, *ext)
	res, ok := s.reservations[id]
	if !ok || res.Status != db.StatusActive {
		return false, nil
	}
	res.EndTime = newEndTime
	res.TotalPrice += ext.Amount
	res.UpdatedAt = now
	return true, nil
}

func (s *stubStore) GetRefunds(reservationID int) ([]db.Refund, error) {
	var out []db.Refund
	for _, ref := range s.refunds {
		if ref.ReservationID == reservationID {
			out = append(out, ref)
		}
	}
	return out, nil
}

func (s *stubStore) GetExtensions(reservationID int) ([]db.Extension, error) {
	var out []db.Extension
	for _, ext := range s.extensions {
		if ext.ReservationID == reservationID {
			out = append(out, ext)
		}
	}
	return out, nil
}

// CompleteExpired lets the same stub double as the sweep store.
func (s *stubStore) CompleteExpired(now time.Time) ([]db.Reservation, error) {
	var completed []db.Reservation
	for _, res := range s.reservations {
		if (res.Status == db.StatusPending || res.Status == db.StatusActive) && res.EndTime.Before(now) {
			res.Status = db.StatusCompleted
			res.UpdatedAt = now
			completed = append(completed, *res)
		}
	}
	return completed, nil
}

type stubLots struct {
	lots     map[int]*db.Lot
	released []int
}

func newStubLots(lots ...*db.Lot) *stubLots {
	s := &stubLots{lots: map[int]*db.Lot{}}
	for _, lot := range lots {
		s.lots[lot.ID] = lot
	}
	return s
}

func (s *stubLots) GetLot(id int) (*db.Lot, error) {
	lot, ok := s.lots[id]
	if !ok {
		return nil, nil
	}
	copied := *lot
	return &copied, nil
}

func (s *stubLots) ReserveCapacity(lotID int) (bool, error) {
	lot, ok := s.lots[lotID]
	if !ok || lot.AvailableSpaces <= 0 {
		return false, nil
	}
	lot.AvailableSpaces--
	return true, nil
}

func (s *stubLots) ReleaseCapacity(lotID int) error {
	if lot, ok := s.lots[lotID]; ok && lot.AvailableSpaces < lot.TotalSpaces {
		lot.AvailableSpaces++
	}
	s.released = append(s.released, lotID)
	return nil
}

func (s *stubLots) ReleaseCapacityBatch(lotIDs []int) error {
	for _, id := range lotIDs {
		s.ReleaseCapacity(id)
	}
	return nil
}

func (s *stubLots) UpdateLotSpaces(lotID, totalSpaces, availableSpaces int) error {
	if lot, ok := s.lots[lotID]; ok {
		lot.TotalSpaces = totalSpaces
		lot.AvailableSpaces = availableSpaces
	}
	return nil
}

type authorizeCall struct {
	amountCents     int64
	paymentMethodID string
}

type refundCall struct {
	paymentIntentID string
	amountCents     int64
}

type stubPayments struct {
	authorizes   []authorizeCall
	refunds      []refundCall
	authorizeErr error
	refundErr    error
}

func (s *stubPayments) Authorize(_ context.Context, amountCents int64, paymentMethodID, _, _ string) (*PaymentResult, error) {
	if s.authorizeErr != nil {
		return nil, s.authorizeErr
	}
	s.authorizes = append(s.authorizes, authorizeCall{amountCents: amountCents, paymentMethodID: paymentMethodID})
	return &PaymentResult{
		ProviderRef: "pi_test_" + string(rune('0'+len(s.authorizes))),
		Status:      ProviderStatusPending,
	}, nil
}

func (s *stubPayments) Refund(_ context.Context, paymentIntentID string, amountCents int64) (*PaymentResult, error) {
	if s.refundErr != nil {
		return nil, s.refundErr
	}
	s.refunds = append(s.refunds, refundCall{paymentIntentID: paymentIntentID, amountCents: amountCents})
	return &PaymentResult{ProviderRef: "re_test_1", Status: ProviderStatusSucceeded}, nil
}

type notifiedEvent struct {
	code   string
	status string
}

type stubNotifier struct {
	events  []notifiedEvent
	failFor map[string]error
}

func (s *stubNotifier) NotifyReservationStatus(res *db.Reservation, status string) error {
	if err, ok := s.failFor[res.Code]; ok {
		return err
	}
	s.events = append(s.events, notifiedEvent{code: res.Code, status: status})
	return nil
}
