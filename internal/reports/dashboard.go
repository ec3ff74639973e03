package reports

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ukydev/transportpro/internal/authz"
	"github.com/ukydev/transportpro/internal/models"
)

const (
	defaultRecent = 5
	maxRecent     = 50
)

// Dashboard is the landing page summary. Monthly figures cover the
// calendar month of the build time.
type Dashboard struct {
	ActiveTrips          int     `json:"activeTrips"`
	TotalTrips           int     `json:"totalTrips"`
	CompletedTrips       int     `json:"completedTrips"`
	TotalTransportProfit float64 `json:"totalTransportProfit"`
	MonthlyProfit        float64 `json:"monthlyProfit"`
	// ProfitTrend is the percent change against the previous month, or 0
	// when that month made no profit.
	ProfitTrend float64 `json:"profitTrend"`

	TrucksInFleet       int     `json:"trucksInFleet"`
	TrucksSoldThisMonth int     `json:"trucksSoldThisMonth"`
	PendingNOCs         int     `json:"pendingNOCs"`
	TotalResaleProfit   float64 `json:"totalResaleProfit"`
	AvailableTrucks     int     `json:"availableTrucks"`
	InTransitTrucks     int     `json:"inTransitTrucks"`
}

// TripStats summarizes every trip.
type TripStats struct {
	Total            int                       `json:"total"`
	ByStatus         map[models.TripStatus]int `json:"byStatus"`
	TotalRevenue     float64                   `json:"totalRevenue"`
	TotalExpenses    float64                   `json:"totalExpenses"`
	TotalProfit      float64                   `json:"totalProfit"`
	AvgProfitPerTrip float64                   `json:"avgProfitPerTrip"`
	TotalDistance    float64                   `json:"totalDistance"`
}

// TruckStats summarizes every truck.
type TruckStats struct {
	Total             int                        `json:"total"`
	ByStatus          map[models.TruckStatus]int `json:"byStatus"`
	TotalInvestment   float64                    `json:"totalInvestment"`
	Sold              int                        `json:"sold"`
	TotalResaleProfit float64                    `json:"totalResaleProfit"`
	PendingNOCs       int                        `json:"pendingNOCs"`
}

// RecentTrip is the dashboard row for a trip.
type RecentTrip struct {
	ID          string            `json:"id"`
	TripID      string            `json:"tripId"`
	Source      string            `json:"source"`
	Destination string            `json:"destination"`
	VehicleID   string            `json:"vehicleId"`
	Status      models.TripStatus `json:"status"`
	TripDate    time.Time         `json:"tripDate"`
	NetProfit   float64           `json:"netProfit"`
}

// FleetEntry is the dashboard row for a truck.
type FleetEntry struct {
	ID                 string             `json:"id"`
	RegistrationNumber string             `json:"registrationNumber"`
	Model              string             `json:"model"`
	Status             models.TruckStatus `json:"status"`
	LastTripDate       *time.Time         `json:"lastTripDate,omitempty"`
}

// Dashboard reports the landing page summary over all trips and trucks.
func (s *Service) Dashboard(ctx context.Context, caller authz.Caller) (*Dashboard, error) {
	if err := authz.Require(caller, authz.ModuleReports, authz.ViewReports); err != nil {
		return nil, err
	}
	trips, trucks, err := s.loadBoth(ctx, Query{})
	if err != nil {
		return nil, err
	}
	return BuildDashboard(trips, trucks, time.Now()), nil
}

// TripStats summarizes all trips.
func (s *Service) TripStats(ctx context.Context, caller authz.Caller) (*TripStats, error) {
	if err := authz.Require(caller, authz.ModuleTransportation, authz.ViewTrips); err != nil {
		return nil, err
	}
	trips, err := s.loadTrips(ctx, Query{}, "")
	if err != nil {
		return nil, err
	}
	return BuildTripStats(trips), nil
}

// TruckStats summarizes all trucks.
func (s *Service) TruckStats(ctx context.Context, caller authz.Caller) (*TruckStats, error) {
	if err := authz.Require(caller, authz.ModuleInventory, authz.ViewInventory); err != nil {
		return nil, err
	}
	trucks, err := s.loadTrucks(ctx, Query{}, "")
	if err != nil {
		return nil, err
	}
	return BuildTruckStats(trucks), nil
}

// RecentTrips lists the latest trips by trip date. A limit of 0 means
// the default of five.
func (s *Service) RecentTrips(ctx context.Context, caller authz.Caller, limit int) ([]RecentTrip, error) {
	if err := authz.Require(caller, authz.ModuleTransportation, authz.ViewTrips); err != nil {
		return nil, err
	}
	trips, err := s.loadTrips(ctx, Query{}, "")
	if err != nil {
		return nil, err
	}
	return LatestTrips(trips, limit), nil
}

// FleetStatus lists trucks by most recent trip. A limit of 0 means the
// default of five.
func (s *Service) FleetStatus(ctx context.Context, caller authz.Caller, limit int) ([]FleetEntry, error) {
	if err := authz.Require(caller, authz.ModuleInventory, authz.ViewInventory); err != nil {
		return nil, err
	}
	trucks, err := s.loadTrucks(ctx, Query{}, "")
	if err != nil {
		return nil, err
	}
	return LatestFleet(trucks, limit), nil
}

// BuildDashboard aggregates the dashboard as of now.
func BuildDashboard(trips []models.Trip, trucks []models.Truck, now time.Time) *Dashboard {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prevStart := monthStart.AddDate(0, -1, 0)

	var total, current, previous, resale decimal.Decimal
	d := &Dashboard{TotalTrips: len(trips), TrucksInFleet: len(trucks)}

	for _, t := range trips {
		p := decimal.NewFromFloat(t.NetProfit)
		total = total.Add(p)
		switch date := t.Date(); {
		case !date.Before(monthStart):
			current = current.Add(p)
		case !date.Before(prevStart):
			previous = previous.Add(p)
		}
		if t.Status.IsActive() {
			d.ActiveTrips++
		}
		if t.Status == models.TripCompleted {
			d.CompletedTrips++
		}
	}

	for _, tr := range trucks {
		switch tr.Status {
		case models.TruckSold:
			if tr.ResaleProfit != nil {
				resale = resale.Add(decimal.NewFromFloat(*tr.ResaleProfit))
			}
			if tr.Sale != nil && tr.Sale.Date != nil && !tr.Sale.Date.Before(monthStart) {
				d.TrucksSoldThisMonth++
			}
		case models.TruckAvailable:
			d.AvailableTrucks++
		case models.TruckInTransit:
			d.InTransitTrucks++
		}
		if !tr.Documents.NOC {
			d.PendingNOCs++
		}
	}

	d.TotalTransportProfit = total.InexactFloat64()
	d.MonthlyProfit = current.InexactFloat64()
	if previous.IsPositive() {
		d.ProfitTrend = current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
	}
	d.TotalResaleProfit = resale.InexactFloat64()
	return d
}

// BuildTripStats aggregates trip counts and money totals.
func BuildTripStats(trips []models.Trip) *TripStats {
	var revenue, expenses, profit, distance decimal.Decimal
	st := &TripStats{Total: len(trips), ByStatus: map[models.TripStatus]int{}}
	for _, s := range []models.TripStatus{models.TripPending, models.TripInTransit, models.TripCompleted, models.TripCancelled} {
		st.ByStatus[s] = 0
	}

	for _, t := range trips {
		st.ByStatus[t.Status]++
		revenue = revenue.Add(decimal.NewFromFloat(t.CustomerPayment))
		expenses = expenses.Add(decimal.NewFromFloat(t.Expenses.Restrict(models.TripExpenseCategories).Total()))
		profit = profit.Add(decimal.NewFromFloat(t.NetProfit))
		distance = distance.Add(decimal.NewFromFloat(t.Distance))
	}

	st.TotalRevenue = revenue.InexactFloat64()
	st.TotalExpenses = expenses.InexactFloat64()
	st.TotalProfit = profit.InexactFloat64()
	st.TotalDistance = distance.InexactFloat64()
	if len(trips) > 0 {
		st.AvgProfitPerTrip = profit.Div(decimal.NewFromInt(int64(len(trips)))).Round(2).InexactFloat64()
	}
	return st
}

// BuildTruckStats aggregates truck counts, investment and resale profit.
func BuildTruckStats(trucks []models.Truck) *TruckStats {
	var investment, resale decimal.Decimal
	st := &TruckStats{Total: len(trucks), ByStatus: map[models.TruckStatus]int{}}
	for _, s := range []models.TruckStatus{models.TruckAvailable, models.TruckInTransit, models.TruckMaintenance, models.TruckSold} {
		st.ByStatus[s] = 0
	}

	for _, tr := range trucks {
		st.ByStatus[tr.Status]++
		if tr.PurchasePrice != nil {
			investment = investment.Add(decimal.NewFromFloat(*tr.PurchasePrice))
		}
		investment = investment.Add(decimal.NewFromFloat(tr.Expenses.Total()))
		if tr.Status == models.TruckSold {
			st.Sold++
			if tr.ResaleProfit != nil {
				resale = resale.Add(decimal.NewFromFloat(*tr.ResaleProfit))
			}
		}
		if !tr.Documents.NOC {
			st.PendingNOCs++
		}
	}

	st.TotalInvestment = investment.InexactFloat64()
	st.TotalResaleProfit = resale.InexactFloat64()
	return st
}

// LatestTrips returns up to limit trips, newest trip date first.
func LatestTrips(trips []models.Trip, limit int) []RecentTrip {
	sorted := append([]models.Trip(nil), trips...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date().After(sorted[j].Date())
	})
	sorted = sorted[:clampRecent(limit, len(sorted))]

	out := make([]RecentTrip, 0, len(sorted))
	for _, t := range sorted {
		out = append(out, RecentTrip{
			ID:          t.ID.Hex(),
			TripID:      t.TripID,
			Source:      t.Source,
			Destination: t.Destination,
			VehicleID:   t.VehicleID,
			Status:      t.Status,
			TripDate:    t.Date(),
			NetProfit:   t.NetProfit,
		})
	}
	return out
}

// LatestFleet returns up to limit trucks, most recent trip first. Trucks
// that never ran a trip come last.
func LatestFleet(trucks []models.Truck, limit int) []FleetEntry {
	sorted := append([]models.Truck(nil), trucks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].LastTripDate, sorted[j].LastTripDate
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		return a.After(*b)
	})
	sorted = sorted[:clampRecent(limit, len(sorted))]

	out := make([]FleetEntry, 0, len(sorted))
	for _, tr := range sorted {
		out = append(out, FleetEntry{
			ID:                 tr.ID.Hex(),
			RegistrationNumber: tr.RegistrationNumber,
			Model:              tr.Model,
			Status:             tr.Status,
			LastTripDate:       tr.LastTripDate,
		})
	}
	return out
}

func clampRecent(limit, n int) int {
	if limit <= 0 {
		limit = defaultRecent
	}
	if limit > maxRecent {
		limit = maxRecent
	}
	if limit > n {
		return n
	}
	return limit
}
