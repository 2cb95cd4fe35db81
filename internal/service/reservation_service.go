package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"campuspark/internal/clock"
	"campuspark/internal/db"
	"campuspark/internal/entities"
	apperrors "campuspark/internal/errors"
	"campuspark/internal/pricing"
)

// ProviderTimeout bounds every payment-provider call. A timeout during
// cancel or extend fails closed: the reservation keeps its prior state.
const ProviderTimeout = 15 * time.Second

// ReservationStore is the persistence surface the state machine needs. All
// transition methods are atomic conditional updates so that concurrent
// writers (user cancellation, webhook reconciliation, the sweeper) serialize
// on the row's current status.
type ReservationStore interface {
	CreateReservation(res *db.Reservation) error
	GetReservationByCode(code string) (*db.Reservation, error)
	GetReservationByPaymentIntentID(paymentIntentID string) (*db.Reservation, error)
	ConfirmPayment(paymentIntentID, receiptURL string, now time.Time) (*db.Reservation, error)
	FailPayment(paymentIntentID string, now time.Time) (*db.Reservation, error)
	CancelReservation(id int, reason, finalPaymentStatus string, cancelledAt time.Time, refund *db.Refund) (bool, error)
	MarkRefunded(paymentIntentID string, now time.Time) (*db.Reservation, error)
	AppendExtension(id int, newEndTime time.Time, ext *db.Extension, now time.Time) (bool, error)
	GetRefunds(reservationID int) ([]db.Refund, error)
	GetExtensions(reservationID int) ([]db.Extension, error)
}

// LotStore reads rate info and maintains the capacity counters.
type LotStore interface {
	GetLot(id int) (*db.Lot, error)
	ReserveCapacity(lotID int) (bool, error)
	ReleaseCapacity(lotID int) error
	ReleaseCapacityBatch(lotIDs []int) error
	UpdateLotSpaces(lotID, totalSpaces, availableSpaces int) error
}

type ReservationService struct {
	Store    ReservationStore
	Lots     LotStore
	Payments PaymentProvider
	Notifier Notifier
	Clock    clock.Clock
}

func NewReservationService(store ReservationStore, lots LotStore, payments PaymentProvider, notifier Notifier, clk clock.Clock) *ReservationService {
	return &ReservationService{
		Store:    store,
		Lots:     lots,
		Payments: payments,
		Notifier: notifier,
		Clock:    clk,
	}
}

// NewReservationCode builds the user-visible code: RES-, the Eastern civil
// date, and a 4-digit random suffix. Assigned exactly once at creation;
// suffix collisions are accepted as rare and not retried.
func NewReservationCode(now time.Time) string {
	return fmt.Sprintf("RES-%s-%04d", clock.ToCivil(now).Format("20060102"), rand.Intn(10000))
}

// CreateReservation quotes a price, claims lot capacity, initiates a
// payment authorization, and persists the reservation as pending/pending.
// It returns without waiting for the provider's asynchronous confirmation;
// the webhook flips the reservation to active later.
func (s *ReservationService) CreateReservation(ctx context.Context, req *entities.ReservationRequest) (*entities.ReservationResponse, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, apperrors.ErrInvalidWindow
	}

	lot, err := s.Lots.GetLot(req.LotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, apperrors.ErrLotNotFound
	}

	rateType := db.RatePermit
	price := lot.SemesterRate
	if lot.RateType == db.RateHourly {
		rateType = db.RateHourly
		price = pricing.BillableAmount(req.StartTime, req.EndTime, lot.HourlyRate)
	}

	claimed, err := s.Lots.ReserveCapacity(lot.ID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, apperrors.ErrLotFull
	}

	now := s.Clock.Now()
	code := NewReservationCode(now)

	authCtx, cancel := context.WithTimeout(ctx, ProviderTimeout)
	defer cancel()
	result, err := s.Payments.Authorize(authCtx, pricing.Cents(price), req.PaymentMethodID, req.CustomerID,
		fmt.Sprintf("CampusPark reservation %s", code))
	if err != nil {
		if releaseErr := s.Lots.ReleaseCapacity(lot.ID); releaseErr != nil {
			log.Printf("Error releasing capacity for lot %d after failed authorization: %v", lot.ID, releaseErr)
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPayment, err)
	}

	reservation := &db.Reservation{
		Code:                  code,
		LotID:                 lot.ID,
		UserName:              req.UserName,
		UserEmail:             req.UserEmail,
		UserPhone:             req.UserPhone,
		VehiclePlate:          req.VehiclePlate,
		VehicleModel:          req.VehicleModel,
		RateType:              rateType,
		HourlyRate:            lot.HourlyRate,
		TotalPrice:            price,
		Status:                db.StatusPending,
		PaymentStatus:         db.PaymentPending,
		StartTime:             req.StartTime,
		EndTime:               req.EndTime,
		StripePaymentIntentID: result.ProviderRef,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.Store.CreateReservation(reservation); err != nil {
		// The authorization is outstanding at the provider; the webhook
		// for it will find no reservation and be dropped, so the charge
		// must be flagged for manual reconciliation.
		log.Printf("ALERT: reservation %s not persisted after authorization %s: %v", code, result.ProviderRef, err)
		if releaseErr := s.Lots.ReleaseCapacity(lot.ID); releaseErr != nil {
			log.Printf("Error releasing capacity for lot %d after failed persist: %v", lot.ID, releaseErr)
		}
		return nil, err
	}

	return s.toResponse(reservation), nil
}

// CancelReservation is allowed from pending or active. When the original
// payment completed, the unconsumed portion of the billable window is
// refunded through the provider before the state transition; a provider
// failure or timeout leaves the reservation untouched.
func (s *ReservationService) CancelReservation(ctx context.Context, code, reason string) (*entities.ReservationResponse, error) {
	res, err := s.Store.GetReservationByCode(code)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, apperrors.ErrNotFound
	}
	if res.Status != db.StatusPending && res.Status != db.StatusActive {
		return nil, apperrors.ErrAlreadyFinal
	}

	now := s.Clock.Now()
	finalPayment := db.PaymentFailed
	var refundRec *db.Refund

	if res.PaymentStatus == db.PaymentCompleted {
		finalPayment = db.PaymentRefunded
		amount := s.refundAmountAt(res, now)
		if amount > 0 {
			refundCtx, cancel := context.WithTimeout(ctx, ProviderTimeout)
			defer cancel()
			result, err := s.Payments.Refund(refundCtx, res.StripePaymentIntentID, pricing.Cents(amount))
			if err != nil {
				return nil, fmt.Errorf("%w: %v", apperrors.ErrPayment, err)
			}
			refundRec = &db.Refund{
				ReservationID:  res.ID,
				StripeRefundID: result.ProviderRef,
				Amount:         amount,
				Status:         result.Status,
				CreatedAt:      now,
			}
		}
	}

	applied, err := s.Store.CancelReservation(res.ID, reason, finalPayment, now, refundRec)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, apperrors.ErrAlreadyFinal
	}

	if res.PaymentStatus != db.PaymentFailed {
		if err := s.Lots.ReleaseCapacity(res.LotID); err != nil {
			log.Printf("Error releasing capacity for lot %d after cancellation of %s: %v", res.LotID, code, err)
		}
	}

	res.Status = db.StatusCancelled
	res.PaymentStatus = finalPayment
	res.CancelReason = reason
	res.CancelledAt = &now
	if err := s.Notifier.NotifyReservationStatus(res, db.StatusCancelled); err != nil {
		log.Printf("Error notifying cancellation of reservation %s: %v", code, err)
	}
	return s.toResponse(res), nil
}

// refundAmountAt sizes the refund for a cancellation happening at the given
// instant. Hourly reservations get back the unconsumed part of the billable
// window; permit reservations get the flat rate back only before the window
// starts.
func (s *ReservationService) refundAmountAt(res *db.Reservation, now time.Time) float64 {
	if res.RateType != db.RateHourly {
		if now.Before(res.StartTime) {
			return res.TotalPrice
		}
		return 0
	}
	elapsedEnd := now
	if elapsedEnd.After(res.EndTime) {
		elapsedEnd = res.EndTime
	}
	if elapsedEnd.Before(res.StartTime) {
		elapsedEnd = res.StartTime
	}
	return pricing.RefundableAmount(res.StartTime, elapsedEnd, res.HourlyRate, res.TotalPrice)
}

// ExtendReservation appends billable time to an active hourly reservation.
// The incremental charge is authorized first; any provider failure leaves
// the reservation unchanged and surfaces to the caller.
func (s *ReservationService) ExtendReservation(ctx context.Context, code string, req *entities.ExtendRequest) (*entities.ReservationResponse, error) {
	if req.AdditionalHours <= 0 {
		return nil, apperrors.ErrInvalidWindow
	}
	res, err := s.Store.GetReservationByCode(code)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, apperrors.ErrNotFound
	}
	if res.Status != db.StatusActive || res.RateType != db.RateHourly {
		return nil, apperrors.ErrNotExtendable
	}

	now := s.Clock.Now()
	newEnd := res.EndTime.Add(time.Duration(req.AdditionalHours * float64(time.Hour)))
	amount := pricing.BillableAmount(res.EndTime, newEnd, res.HourlyRate)

	ext := &db.Extension{
		ReservationID: res.ID,
		Hours:         req.AdditionalHours,
		Amount:        amount,
		CreatedAt:     now,
	}
	if amount > 0 {
		authCtx, cancel := context.WithTimeout(ctx, ProviderTimeout)
		defer cancel()
		result, err := s.Payments.Authorize(authCtx, pricing.Cents(amount), req.PaymentMethodID, "",
			fmt.Sprintf("CampusPark reservation %s extension", code))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrPayment, err)
		}
		ext.StripePaymentIntentID = result.ProviderRef
	}

	applied, err := s.Store.AppendExtension(res.ID, newEnd, ext, now)
	if err != nil {
		return nil, err
	}
	if !applied {
		// The reservation reached a terminal state between the charge and
		// the conditional update. The increment was already collected, so
		// it is refunded; if the refund also fails, the charge is flagged
		// for manual reconciliation.
		if ext.StripePaymentIntentID != "" {
			refundCtx, cancel := context.WithTimeout(ctx, ProviderTimeout)
			defer cancel()
			if _, refundErr := s.Payments.Refund(refundCtx, ext.StripePaymentIntentID, pricing.Cents(amount)); refundErr != nil {
				log.Printf("ALERT: extension charge %s for reservation %s not applied and not refunded: %v",
					ext.StripePaymentIntentID, code, refundErr)
			}
		}
		return nil, apperrors.ErrAlreadyFinal
	}

	res.EndTime = newEnd
	res.TotalPrice += amount
	return s.toResponse(res), nil
}

func (s *ReservationService) GetReservation(code string) (*entities.ReservationResponse, error) {
	res, err := s.Store.GetReservationByCode(code)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, apperrors.ErrNotFound
	}
	resp := s.toResponse(res)

	refunds, err := s.Store.GetRefunds(res.ID)
	if err != nil {
		return nil, err
	}
	for _, ref := range refunds {
		resp.Refunds = append(resp.Refunds, entities.RefundInfo{
			RefundID:  ref.StripeRefundID,
			Amount:    ref.Amount,
			Status:    ref.Status,
			CreatedAt: ref.CreatedAt,
		})
	}

	extensions, err := s.Store.GetExtensions(res.ID)
	if err != nil {
		return nil, err
	}
	for _, ext := range extensions {
		resp.Extensions = append(resp.Extensions, entities.ExtensionInfo{
			Hours:     ext.Hours,
			Amount:    ext.Amount,
			PaymentID: ext.StripePaymentIntentID,
			CreatedAt: ext.CreatedAt,
		})
	}
	return resp, nil
}

func (s *ReservationService) GetLotRate(lotID int) (*entities.LotRateResponse, error) {
	lot, err := s.Lots.GetLot(lotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, apperrors.ErrLotNotFound
	}
	return &entities.LotRateResponse{
		LotID:         lot.ID,
		Name:          lot.Name,
		RateType:      lot.RateType,
		HourlyRate:    lot.HourlyRate,
		SemesterRate:  lot.SemesterRate,
		IsMetered:     lot.IsMetered,
		HasEVCharging: lot.HasEVCharging,
		IsAccessible:  lot.IsAccessible,
	}, nil
}

func (s *ReservationService) toResponse(res *db.Reservation) *entities.ReservationResponse {
	return &entities.ReservationResponse{
		Code:          res.Code,
		LotID:         res.LotID,
		UserName:      res.UserName,
		UserEmail:     res.UserEmail,
		UserPhone:     res.UserPhone,
		VehiclePlate:  res.VehiclePlate,
		VehicleModel:  res.VehicleModel,
		RateType:      res.RateType,
		TotalPrice:    res.TotalPrice,
		Status:        res.Status,
		PaymentStatus: res.PaymentStatus,
		StartTime:     res.StartTime,
		EndTime:       res.EndTime,
		CancelReason:  res.CancelReason,
		CancelledAt:   res.CancelledAt,
		CreatedAt:     res.CreatedAt,
		UpdatedAt:     res.UpdatedAt,
	}
}
