package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"campuspark/internal/entities"
	"campuspark/internal/service"

	"github.com/gorilla/mux"
)

type AdminHandler struct {
	Service *service.AdminService
}

func NewAdminHandler(svc *service.AdminService) *AdminHandler {
	return &AdminHandler{Service: svc}
}

func (h *AdminHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	status := r.URL.Query().Get("status")
	lotID, _ := strconv.Atoi(r.URL.Query().Get("lot_id"))

	reservations, err := h.Service.ListReservations(date, status, lotID)
	if err != nil {
		http.Error(w, "Could not list reservations", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, reservations)
}

// ForceSweep runs the expiration sweep now and reports how many
// reservations it completed.
func (h *AdminHandler) ForceSweep(w http.ResponseWriter, r *http.Request) {
	count, err := h.Service.ForceSweep()
	if err != nil {
		http.Error(w, "Sweep failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entities.SweepResponse{Completed: count})
}

func (h *AdminHandler) UpdateLotSpaces(w http.ResponseWriter, r *http.Request) {
	lotID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid lot id", http.StatusBadRequest)
		return
	}
	var req struct {
		TotalSpaces     int `json:"total_spaces"`
		AvailableSpaces int `json:"available_spaces"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := h.Service.UpdateLotSpaces(lotID, req.TotalSpaces, req.AvailableSpaces); err != nil {
		http.Error(w, "Could not update lot spaces", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Lot spaces updated"})
}
