package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ukydev/transportpro/internal/apperr"
	"github.com/ukydev/transportpro/internal/authz"
	"github.com/ukydev/transportpro/internal/models"
	"github.com/ukydev/transportpro/internal/profit"
)

// TripService is the trip side of the fleet service.
type TripService interface {
	ListTrips(ctx context.Context, caller authz.Caller, filter models.TripFilter) ([]models.Trip, error)
	GetTrip(ctx context.Context, caller authz.Caller, id string) (*models.Trip, error)
	CreateTrip(ctx context.Context, caller authz.Caller, in models.TripInput) (*models.Trip, error)
	UpdateTrip(ctx context.Context, caller authz.Caller, id string, in models.TripInput) (*models.Trip, error)
	DeleteTrip(ctx context.Context, caller authz.Caller, id string) error
	CalculateTripProfit(caller authz.Caller, req models.TripProfitRequest) (profit.Breakdown, error)
}

// TripHandler serves /api/trips.
type TripHandler struct {
	trips TripService
}

// NewTripHandler creates a trip handler.
func NewTripHandler(trips TripService) *TripHandler {
	return &TripHandler{trips: trips}
}

// List returns trips filtered by status, vehicleId, from, to and limit.
func (h *TripHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := models.TripFilter{
		Status:    models.TripStatus(q.Get("status")),
		VehicleID: q.Get("vehicleId"),
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		writeError(w, r, apperr.Validation("invalid trip status %q", filter.Status))
		return
	}
	if filter.From, filter.To, err = dateRange(r); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.Limit, err = limitParam(r); err != nil {
		writeError(w, r, err)
		return
	}

	trips, err := h.trips.ListTrips(r.Context(), caller, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trips)
}

// Get returns one trip.
func (h *TripHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	trip, err := h.trips.GetTrip(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

// Create adds a trip.
func (h *TripHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in models.TripInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	trip, err := h.trips.CreateTrip(r.Context(), caller, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, trip)
}

// Update applies a partial trip update.
func (h *TripHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in models.TripInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	trip, err := h.trips.UpdateTrip(r.Context(), caller, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

// Delete removes a trip.
func (h *TripHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.trips.DeleteTrip(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Trip deleted")
}

// CalculateProfit runs the what-if trip calculator.
func (h *TripHandler) CalculateProfit(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req models.TripProfitRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.trips.CalculateTripProfit(caller, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func limitParam(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, apperr.Validation("invalid limit %q", raw)
	}
	return n, nil
}
