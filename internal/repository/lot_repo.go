package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"campuspark/internal/db"

	"github.com/lib/pq"
)

type LotRepository struct {
	DB *sql.DB
}

func NewLotRepository(database *sql.DB) *LotRepository {
	return &LotRepository{DB: database}
}

func (r *LotRepository) GetLot(id int) (*db.Lot, error) {
	var lot db.Lot
	err := r.DB.QueryRow(`
		SELECT id, name, rate_type, hourly_rate, semester_rate, total_spaces, available_spaces,
		       is_metered, has_ev_charging, is_accessible
		FROM lots WHERE id = $1`, id).Scan(
		&lot.ID, &lot.Name, &lot.RateType, &lot.HourlyRate, &lot.SemesterRate,
		&lot.TotalSpaces, &lot.AvailableSpaces, &lot.IsMetered, &lot.HasEVCharging, &lot.IsAccessible,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying lot %d: %w", id, err)
	}
	return &lot, nil
}

// ReserveCapacity claims one space, guarded so concurrent create attempts
// for the same lot can never overbook. Reports whether a space was claimed.
func (r *LotRepository) ReserveCapacity(lotID int) (bool, error) {
	result, err := r.DB.Exec(`
		UPDATE lots SET available_spaces = available_spaces - 1
		WHERE id = $1 AND available_spaces > 0`, lotID)
	if err != nil {
		return false, fmt.Errorf("error reserving capacity in lot %d: %w", lotID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading capacity result for lot %d: %w", lotID, err)
	}
	return rows > 0, nil
}

func (r *LotRepository) ReleaseCapacity(lotID int) error {
	_, err := r.DB.Exec(`
		UPDATE lots SET available_spaces = LEAST(available_spaces + 1, total_spaces)
		WHERE id = $1`, lotID)
	if err != nil {
		return fmt.Errorf("error releasing capacity in lot %d: %w", lotID, err)
	}
	return nil
}

// ReleaseCapacityBatch returns one space per entry to each lot in the list.
// Duplicated ids release multiple spaces, which is what the sweeper needs.
func (r *LotRepository) ReleaseCapacityBatch(lotIDs []int) error {
	if len(lotIDs) == 0 {
		return nil
	}
	_, err := r.DB.Exec(`
		UPDATE lots l
		SET available_spaces = LEAST(l.available_spaces + freed.n, l.total_spaces)
		FROM (SELECT id, COUNT(*) AS n FROM unnest($1::int[]) AS id GROUP BY id) freed
		WHERE l.id = freed.id`, pq.Array(lotIDs))
	if err != nil {
		return fmt.Errorf("error releasing capacity batch: %w", err)
	}
	return nil
}

func (r *LotRepository) UpdateLotSpaces(lotID, totalSpaces, availableSpaces int) error {
	_, err := r.DB.Exec(`
		UPDATE lots SET total_spaces = $2, available_spaces = $3
		WHERE id = $1`, lotID, totalSpaces, availableSpaces)
	if err != nil {
		return fmt.Errorf("error updating spaces for lot %d: %w", lotID, err)
	}
	return nil
}
