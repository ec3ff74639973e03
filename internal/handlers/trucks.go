package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ukydev/transportpro/internal/apperr"
	"github.com/ukydev/transportpro/internal/authz"
	"github.com/ukydev/transportpro/internal/models"
	"github.com/ukydev/transportpro/internal/profit"
)

// TruckService is the inventory side of the fleet service.
type TruckService interface {
	ListTrucks(ctx context.Context, caller authz.Caller, filter models.TruckFilter) ([]models.Truck, error)
	AvailableTrucks(ctx context.Context, caller authz.Caller) ([]models.Truck, error)
	GetTruck(ctx context.Context, caller authz.Caller, id string) (*models.Truck, error)
	CreateTruck(ctx context.Context, caller authz.Caller, in models.TruckInput) (*models.Truck, error)
	UpdateTruck(ctx context.Context, caller authz.Caller, id string, in models.TruckInput) (*models.Truck, error)
	UpdateTruckStatus(ctx context.Context, caller authz.Caller, id string, status models.TruckStatus) (*models.Truck, error)
	DeleteTruck(ctx context.Context, caller authz.Caller, id string) error
	CalculateTruckProfit(caller authz.Caller, req models.TruckProfitRequest) (profit.Breakdown, error)
}

// TruckHandler serves /api/trucks.
type TruckHandler struct {
	trucks TruckService
}

// NewTruckHandler creates a truck handler.
func NewTruckHandler(trucks TruckService) *TruckHandler {
	return &TruckHandler{trucks: trucks}
}

// resaleBreakdown is the calculator response for trucks, which names the
// net figure profit.
type resaleBreakdown struct {
	TotalExpenses float64 `json:"totalExpenses"`
	Profit        float64 `json:"profit"`
	ProfitMargin  float64 `json:"profitMargin"`
}

// List returns trucks filtered by status, model, from, to and limit.
func (h *TruckHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := models.TruckFilter{
		Status: models.TruckStatus(q.Get("status")),
		Model:  q.Get("model"),
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		writeError(w, r, apperr.Validation("invalid truck status %q", filter.Status))
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

	trucks, err := h.trucks.ListTrucks(r.Context(), caller, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trucks)
}

// Available returns trucks that can take a trip.
func (h *TruckHandler) Available(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	trucks, err := h.trucks.AvailableTrucks(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trucks)
}

// Get returns one truck.
func (h *TruckHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	truck, err := h.trucks.GetTruck(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, truck)
}

// Create adds a truck.
func (h *TruckHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in models.TruckInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	truck, err := h.trucks.CreateTruck(r.Context(), caller, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, truck)
}

// Update applies a partial truck update.
func (h *TruckHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in models.TruckInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	truck, err := h.trucks.UpdateTruck(r.Context(), caller, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, truck)
}

// UpdateStatus changes only a truck's status.
func (h *TruckHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Status models.TruckStatus `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Status == "" {
		writeError(w, r, apperr.Validation("status is required"))
		return
	}
	truck, err := h.trucks.UpdateTruckStatus(r.Context(), caller, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, truck)
}

// Delete removes a truck.
func (h *TruckHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.trucks.DeleteTruck(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Truck deleted")
}

// CalculateProfit runs the what-if resale calculator.
func (h *TruckHandler) CalculateProfit(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req models.TruckProfitRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.trucks.CalculateTruckProfit(caller, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resaleBreakdown{
		TotalExpenses: result.TotalExpenses,
		Profit:        result.NetProfit,
		ProfitMargin:  result.ProfitMargin,
	})
}
