package repository

import (
	"database/sql"
	"fmt"
	"time"

	"campuspark/internal/db"

	"github.com/lib/pq"
)

type SweepRepository struct {
	DB *sql.DB
}

func NewSweepRepository(database *sql.DB) *SweepRepository {
	return &SweepRepository{DB: database}
}

// CompleteExpired finalizes every pending or active reservation whose end
// time has elapsed, in one conditional batch update, and returns the rows
// actually transitioned. Re-running it against the same instant matches
// nothing, so overlapping sweeps are harmless.
func (r *SweepRepository) CompleteExpired(now time.Time) ([]db.Reservation, error) {
	query := `
		UPDATE reservations
		SET status = $1, updated_at = $2
		WHERE status = ANY($3) AND end_time < $2
		RETURNING id, code, lot_id, user_name, user_email, user_phone, payment_status, start_time, end_time`
	rows, err := r.DB.Query(query,
		db.StatusCompleted, now, pq.Array([]string{db.StatusPending, db.StatusActive}))
	if err != nil {
		return nil, fmt.Errorf("error completing expired reservations: %w", err)
	}
	defer rows.Close()

	var completed []db.Reservation
	for rows.Next() {
		var res db.Reservation
		err := rows.Scan(&res.ID, &res.Code, &res.LotID, &res.UserName, &res.UserEmail,
			&res.UserPhone, &res.PaymentStatus, &res.StartTime, &res.EndTime)
		if err != nil {
			return nil, fmt.Errorf("error scanning expired reservation: %w", err)
		}
		res.Status = db.StatusCompleted
		completed = append(completed, res)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating expired reservations: %w", err)
	}
	return completed, nil
}
