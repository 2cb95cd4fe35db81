package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"campuspark/internal/entities"
	apperrors "campuspark/internal/errors"
	"campuspark/internal/service"

	"github.com/gorilla/mux"
)

type ReservationHandler struct {
	Service *service.ReservationService
}

func NewReservationHandler(svc *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{Service: svc}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), apperrors.StatusFor(err))
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func (h *ReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req entities.ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	res, err := h.Service.CreateReservation(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *ReservationHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	res, err := h.Service.GetReservation(code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ReservationHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	var req entities.CancelRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	res, err := h.Service.CancelReservation(r.Context(), code, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ReservationHandler) ExtendReservation(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	var req entities.ExtendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	res, err := h.Service.ExtendReservation(r.Context(), code, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ReservationHandler) GetLotRate(w http.ResponseWriter, r *http.Request) {
	lotID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid lot id", http.StatusBadRequest)
		return
	}
	rate, err := h.Service.GetLotRate(lotID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rate)
}
