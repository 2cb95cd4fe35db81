package service

import (
	"campuspark/internal/db"
	"campuspark/internal/repository"
)

type AdminService struct {
	adminRepo *repository.AdminRepository
	lots      LotStore
	sweeper   *SweepService
}

func NewAdminService(adminRepo *repository.AdminRepository, lots LotStore, sweeper *SweepService) *AdminService {
	return &AdminService{
		adminRepo: adminRepo,
		lots:      lots,
		sweeper:   sweeper,
	}
}

func (s *AdminService) ListReservations(date, status string, lotID int) ([]db.Reservation, error) {
	return s.adminRepo.ListReservations(date, status, lotID)
}

// ForceSweep runs the expiration sweep on demand and returns the count of
// reservations it completed.
func (s *AdminService) ForceSweep() (int, error) {
	return s.sweeper.Sweep()
}

func (s *AdminService) UpdateLotSpaces(lotID, totalSpaces, availableSpaces int) error {
	return s.lots.UpdateLotSpaces(lotID, totalSpaces, availableSpaces)
}
