package repository

import (
	"database/sql"
	"strconv"

	"campuspark/internal/db"
)

type AdminRepository struct {
	DB *sql.DB
}

func NewAdminRepository(database *sql.DB) *AdminRepository {
	return &AdminRepository{DB: database}
}

func (r *AdminRepository) ListReservations(date, status string, lotID int) ([]db.Reservation, error) {
	query := `
	SELECT ` + reservationColumns + `
	FROM reservations
	WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if date != "" {
		query += " AND DATE(start_time AT TIME ZONE 'America/New_York') = $" + strconv.Itoa(idx)
		args = append(args, date)
		idx++
	}
	if status != "" {
		query += " AND status = $" + strconv.Itoa(idx)
		args = append(args, status)
		idx++
	}
	if lotID > 0 {
		query += " AND lot_id = $" + strconv.Itoa(idx)
		args = append(args, lotID)
		idx++
	}
	query += " ORDER BY start_time DESC"

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []db.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *res)
	}
	return reservations, rows.Err()
}
