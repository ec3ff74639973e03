package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ukydev/transportpro/internal/authz"
	"github.com/ukydev/transportpro/internal/reports"
)

// ReportService builds reports.
type ReportService interface {
	Overview(ctx context.Context, caller authz.Caller, q reports.Query) (*reports.Overview, error)
	Transport(ctx context.Context, caller authz.Caller, q reports.Query) (*reports.TransportReport, error)
	Inventory(ctx context.Context, caller authz.Caller, q reports.Query) (*reports.InventoryReport, error)
	ExportOverview(ctx context.Context, caller authz.Caller, q reports.Query) ([]byte, error)
	Dashboard(ctx context.Context, caller authz.Caller) (*reports.Dashboard, error)
	TripStats(ctx context.Context, caller authz.Caller) (*reports.TripStats, error)
	TruckStats(ctx context.Context, caller authz.Caller) (*reports.TruckStats, error)
	RecentTrips(ctx context.Context, caller authz.Caller, limit int) ([]reports.RecentTrip, error)
	FleetStatus(ctx context.Context, caller authz.Caller, limit int) ([]reports.FleetEntry, error)
}

// ReportHandler serves /api/reports, /api/dashboard and the trip and truck
// summaries.
type ReportHandler struct {
	reports ReportService
}

// NewReportHandler creates a report handler.
func NewReportHandler(reports ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Overview returns headline figures.
func (h *ReportHandler) Overview(w http.ResponseWriter, r *http.Request) {
	caller, q, err := h.query(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.reports.Overview(r.Context(), caller, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Transport returns the trip breakdown.
func (h *ReportHandler) Transport(w http.ResponseWriter, r *http.Request) {
	caller, q, err := h.query(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.reports.Transport(r.Context(), caller, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Inventory returns the truck breakdown.
func (h *ReportHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	caller, q, err := h.query(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.reports.Inventory(r.Context(), caller, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Export streams the overview as a PDF attachment.
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	caller, q, err := h.query(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := h.reports.ExportOverview(r.Context(), caller, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("transportpro-report-%s.pdf", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

// Dashboard returns the landing page summary.
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.reports.Dashboard(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// TripStats returns trip counts and totals.
func (h *ReportHandler) TripStats(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.reports.TripStats(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// TruckStats returns truck counts and totals.
func (h *ReportHandler) TruckStats(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.reports.TruckStats(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// RecentTrips returns the latest trips.
func (h *ReportHandler) RecentTrips(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := limitParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.reports.RecentTrips(r.Context(), caller, int(limit))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// FleetStatus returns trucks by most recent trip.
func (h *ReportHandler) FleetStatus(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := limitParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.reports.FleetStatus(r.Context(), caller, int(limit))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ReportHandler) query(r *http.Request) (authz.Caller, reports.Query, error) {
	caller, err := callerOf(r)
	if err != nil {
		return authz.Caller{}, reports.Query{}, err
	}
	from, to, err := dateRange(r)
	if err != nil {
		return authz.Caller{}, reports.Query{}, err
	}
	return caller, reports.Query{From: from, To: to, Status: r.URL.Query().Get("status")}, nil
}
