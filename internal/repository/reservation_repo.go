package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campuspark/internal/db"

	"github.com/lib/pq"
)

type ReservationRepository struct {
	DB *sql.DB
}

func NewReservationRepository(database *sql.DB) *ReservationRepository {
	return &ReservationRepository{DB: database}
}

const reservationColumns = `id, code, lot_id, user_name, user_email, user_phone, vehicle_plate, vehicle_model,
	rate_type, hourly_rate, total_price, status, payment_status, start_time, end_time,
	stripe_payment_intent_id, receipt_url, cancel_reason, cancelled_at, created_at, updated_at`

func scanReservation(row interface{ Scan(...interface{}) error }) (*db.Reservation, error) {
	var res db.Reservation
	err := row.Scan(
		&res.ID, &res.Code, &res.LotID, &res.UserName, &res.UserEmail, &res.UserPhone,
		&res.VehiclePlate, &res.VehicleModel, &res.RateType, &res.HourlyRate, &res.TotalPrice,
		&res.Status, &res.PaymentStatus, &res.StartTime, &res.EndTime,
		&res.StripePaymentIntentID, &res.ReceiptURL, &res.CancelReason, &res.CancelledAt,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ReservationRepository) CreateReservation(res *db.Reservation) error {
	query := `
		INSERT INTO reservations
		(code, lot_id, user_name, user_email, user_phone, vehicle_plate, vehicle_model,
		 rate_type, hourly_rate, total_price, status, payment_status, start_time, end_time,
		 stripe_payment_intent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at, updated_at`
	return r.DB.QueryRow(query,
		res.Code,
		res.LotID,
		res.UserName,
		res.UserEmail,
		res.UserPhone,
		res.VehiclePlate,
		res.VehicleModel,
		res.RateType,
		res.HourlyRate,
		res.TotalPrice,
		res.Status,
		res.PaymentStatus,
		res.StartTime,
		res.EndTime,
		res.StripePaymentIntentID,
		res.CreatedAt,
		res.UpdatedAt,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
}

func (r *ReservationRepository) GetReservationByCode(code string) (*db.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE code = $1`
	res, err := scanReservation(r.DB.QueryRow(query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying reservation %s: %w", code, err)
	}
	return res, nil
}

// GetReservationByPaymentIntentID looks a reservation up by the provider's
// own payment reference. Webhook events only carry that reference.
func (r *ReservationRepository) GetReservationByPaymentIntentID(paymentIntentID string) (*db.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE stripe_payment_intent_id = $1`
	res, err := scanReservation(r.DB.QueryRow(query, paymentIntentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying reservation by payment intent %s: %w", paymentIntentID, err)
	}
	return res, nil
}

// ConfirmPayment atomically flips a pending reservation to active/completed.
// Returns nil without error when no pending reservation matches the payment
// reference, which covers both duplicate deliveries and orphaned events.
func (r *ReservationRepository) ConfirmPayment(paymentIntentID, receiptURL string, now time.Time) (*db.Reservation, error) {
	query := `
		UPDATE reservations
		SET status = $2, payment_status = $3, receipt_url = $4, updated_at = $5
		WHERE stripe_payment_intent_id = $1 AND status = $6
		RETURNING ` + reservationColumns
	res, err := scanReservation(r.DB.QueryRow(query,
		paymentIntentID, db.StatusActive, db.PaymentCompleted, receiptURL, now, db.StatusPending))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error confirming payment %s: %w", paymentIntentID, err)
	}
	return res, nil
}

// FailPayment marks a pending reservation's payment as failed. Status stays
// pending; the reservation is never activated.
func (r *ReservationRepository) FailPayment(paymentIntentID string, now time.Time) (*db.Reservation, error) {
	query := `
		UPDATE reservations
		SET payment_status = $2, updated_at = $3
		WHERE stripe_payment_intent_id = $1 AND status = $4 AND payment_status = $5
		RETURNING ` + reservationColumns
	res, err := scanReservation(r.DB.QueryRow(query,
		paymentIntentID, db.PaymentFailed, now, db.StatusPending, db.PaymentPending))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error failing payment %s: %w", paymentIntentID, err)
	}
	return res, nil
}

// CancelReservation transitions to cancelled only if the reservation is
// still pending or active, recording reason and time. The refund row, when
// present, is inserted even if the transition lost a race to another
// terminal transition: the provider refund has already settled and must
// not be dropped. Reports whether the transition applied.
func (r *ReservationRepository) CancelReservation(id int, reason, finalPaymentStatus string, cancelledAt time.Time, refund *db.Refund) (bool, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return false, fmt.Errorf("error starting cancel transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE reservations
		SET status = $2, payment_status = $3, cancel_reason = $4, cancelled_at = $5, updated_at = $5
		WHERE id = $1 AND status = ANY($6)`,
		id, db.StatusCancelled, finalPaymentStatus, reason, cancelledAt,
		pq.Array([]string{db.StatusPending, db.StatusActive}))
	if err != nil {
		return false, fmt.Errorf("error cancelling reservation %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading cancel result for reservation %d: %w", id, err)
	}

	if refund != nil {
		_, err = tx.Exec(`
			INSERT INTO reservation_refunds (reservation_id, stripe_refund_id, amount, status, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			id, refund.StripeRefundID, refund.Amount, refund.Status, refund.CreatedAt)
		if err != nil {
			return false, fmt.Errorf("error recording refund for reservation %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("error committing cancel for reservation %d: %w", id, err)
	}
	return rows > 0, nil
}

// MarkRefunded applies a settled provider refund arriving out of band.
// Pending and active reservations move to cancelled; reservations already
// in a terminal state keep it and only record the refunded payment state,
// so a dashboard refund of a finished reservation cannot reopen it.
func (r *ReservationRepository) MarkRefunded(paymentIntentID string, now time.Time) (*db.Reservation, error) {
	query := `
		UPDATE reservations
		SET status = CASE WHEN status = ANY($4) THEN $2 ELSE status END,
			payment_status = $3, updated_at = $5
		WHERE stripe_payment_intent_id = $1 AND payment_status <> $3
		RETURNING ` + reservationColumns
	res, err := scanReservation(r.DB.QueryRow(query,
		paymentIntentID, db.StatusCancelled, db.PaymentRefunded,
		pq.Array([]string{db.StatusPending, db.StatusActive}), now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error marking refund for payment intent %s: %w", paymentIntentID, err)
	}
	return res, nil
}

// AppendExtension extends end time and total price only while the
// reservation is still active, and appends the extension line. The line is
// kept even when the conditional update matches nothing because the
// incremental charge has already been authorized. Reports whether the
// extension applied.
func (r *ReservationRepository) AppendExtension(id int, newEndTime time.Time, ext *db.Extension, now time.Time) (bool, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return false, fmt.Errorf("error starting extension transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE reservations
		SET end_time = $2, total_price = total_price + $3, updated_at = $4
		WHERE id = $1 AND status = $5`,
		id, newEndTime, ext.Amount, now, db.StatusActive)
	if err != nil {
		return false, fmt.Errorf("error extending reservation %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading extension result for reservation %d: %w", id, err)
	}

	_, err = tx.Exec(`
		INSERT INTO reservation_extensions (reservation_id, hours, amount, stripe_payment_intent_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		id, ext.Hours, ext.Amount, ext.StripePaymentIntentID, ext.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("error recording extension for reservation %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("error committing extension for reservation %d: %w", id, err)
	}
	return rows > 0, nil
}

func (r *ReservationRepository) GetRefunds(reservationID int) ([]db.Refund, error) {
	rows, err := r.DB.Query(`
		SELECT id, reservation_id, stripe_refund_id, amount, status, created_at
		FROM reservation_refunds WHERE reservation_id = $1 ORDER BY created_at`, reservationID)
	if err != nil {
		return nil, fmt.Errorf("error querying refunds for reservation %d: %w", reservationID, err)
	}
	defer rows.Close()

	var refunds []db.Refund
	for rows.Next() {
		var ref db.Refund
		if err := rows.Scan(&ref.ID, &ref.ReservationID, &ref.StripeRefundID, &ref.Amount, &ref.Status, &ref.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning refund row: %w", err)
		}
		refunds = append(refunds, ref)
	}
	return refunds, rows.Err()
}

func (r *ReservationRepository) GetExtensions(reservationID int) ([]db.Extension, error) {
	rows, err := r.DB.Query(`
		SELECT id, reservation_id, hours, amount, stripe_payment_intent_id, created_at
		FROM reservation_extensions WHERE reservation_id = $1 ORDER BY created_at`, reservationID)
	if err != nil {
		return nil, fmt.Errorf("error querying extensions for reservation %d: %w", reservationID, err)
	}
	defer rows.Close()

	var extensions []db.Extension
	for rows.Next() {
		var ext db.Extension
		if err := rows.Scan(&ext.ID, &ext.ReservationID, &ext.Hours, &ext.Amount, &ext.StripePaymentIntentID, &ext.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning extension row: %w", err)
		}
		extensions = append(extensions, ext)
	}
	return extensions, rows.Err()
}
