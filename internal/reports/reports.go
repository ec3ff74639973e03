// Package reports aggregates trips and trucks into overview, transport and
// inventory reports.
package reports

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ukydev/transportpro/internal/apperr"
	"github.com/ukydev/transportpro/internal/authz"
	"github.com/ukydev/transportpro/internal/db"
	"github.com/ukydev/transportpro/internal/models"
)

// topN bounds ranked report sections.
const topN = 20

// Query narrows the records a report covers. Trips are dated by start
// date, trucks by purchase date.
type Query struct {
	From   *time.Time
	To     *time.Time
	Status string
}

// KPIs are the headline figures of the overview.
type KPIs struct {
	TotalRevenue    float64 `json:"totalRevenue"`
	TotalProfit     float64 `json:"totalProfit"`
	TotalInvestment float64 `json:"totalInvestment"`
	ActiveTrips     int     `json:"activeTrips"`
}

// TransportPerformance summarizes trips.
type TransportPerformance struct {
	TotalTrips           int     `json:"totalTrips"`
	Completed            int     `json:"completed"`
	AvgProfitPerTrip     float64 `json:"avgProfitPerTrip"`
	TotalTransportProfit float64 `json:"totalTransportProfit"`
}

// InventoryPerformance summarizes trucks.
type InventoryPerformance struct {
	TotalTrucks          int     `json:"totalTrucks"`
	Sold                 int     `json:"sold"`
	PendingNOCs          int     `json:"pendingNOCs"`
	TotalInventoryProfit float64 `json:"totalInventoryProfit"`
}

// Overview combines trip and truck figures.
type Overview struct {
	KPIs      KPIs                 `json:"kpis"`
	Transport TransportPerformance `json:"transportPerformance"`
	Inventory InventoryPerformance `json:"inventoryPerformance"`
}

// TruckProfit ranks a vehicle by the profit of its trips.
type TruckProfit struct {
	VehicleID   string  `json:"vehicleId"`
	Trips       int     `json:"trips"`
	TotalProfit float64 `json:"totalProfit"`
}

// MonthlyTrips is one month of trip activity.
type MonthlyTrips struct {
	Month   string  `json:"month"`
	Trips   int     `json:"trips"`
	Revenue float64 `json:"revenue"`
	Profit  float64 `json:"profit"`
}

// TransportReport breaks trips down by truck, expense and month.
type TransportReport struct {
	TopTrucks          []TruckProfit      `json:"topTrucks"`
	ExpenseTotals      map[string]float64 `json:"expenseTotals"`
	MonthlyPerformance []MonthlyTrips     `json:"monthlyPerformance"`
}

// ModelSales ranks a truck model by resale profit.
type ModelSales struct {
	Model  string  `json:"model"`
	Sold   int     `json:"sold"`
	Profit float64 `json:"profit"`
}

// MonthlySales is one month of truck sales.
type MonthlySales struct {
	Month   string  `json:"month"`
	Sales   int     `json:"sales"`
	Revenue float64 `json:"revenue"`
	Profit  float64 `json:"profit"`
}

// InventoryReport breaks trucks down by model, expense and sale month.
type InventoryReport struct {
	TopSellingModels []ModelSales       `json:"topSellingModels"`
	ExpenseTotals    map[string]float64 `json:"expenseTotals"`
	MonthlySales     []MonthlySales     `json:"monthlySales"`
}

// Service builds reports.
type Service struct {
	trips  db.TripCollection
	trucks db.TruckCollection
}

// NewService creates a report service.
func NewService(trips db.TripCollection, trucks db.TruckCollection) *Service {
	return &Service{trips: trips, trucks: trucks}
}

// Overview reports headline figures over trips and trucks in range.
func (s *Service) Overview(ctx context.Context, caller authz.Caller, q Query) (*Overview, error) {
	if err := authz.Require(caller, authz.ModuleReports, authz.ViewReports); err != nil {
		return nil, err
	}
	trips, trucks, err := s.loadBoth(ctx, q)
	if err != nil {
		return nil, err
	}
	return BuildOverview(trips, trucks), nil
}

// Transport reports on trips in range.
func (s *Service) Transport(ctx context.Context, caller authz.Caller, q Query) (*TransportReport, error) {
	if err := authz.Require(caller, authz.ModuleReports, authz.ViewReports); err != nil {
		return nil, err
	}
	if q.Status != "" && !models.TripStatus(q.Status).IsValid() {
		return nil, apperr.Validation("invalid trip status %q", q.Status)
	}
	trips, err := s.loadTrips(ctx, q, models.TripStatus(q.Status))
	if err != nil {
		return nil, err
	}
	return BuildTransport(trips), nil
}

// Inventory reports on trucks in range.
func (s *Service) Inventory(ctx context.Context, caller authz.Caller, q Query) (*InventoryReport, error) {
	if err := authz.Require(caller, authz.ModuleReports, authz.ViewReports); err != nil {
		return nil, err
	}
	if q.Status != "" && !models.TruckStatus(q.Status).IsValid() {
		return nil, apperr.Validation("invalid truck status %q", q.Status)
	}
	trucks, err := s.loadTrucks(ctx, q, models.TruckStatus(q.Status))
	if err != nil {
		return nil, err
	}
	return BuildInventory(trucks), nil
}

// ExportOverview renders the overview as a PDF document.
func (s *Service) ExportOverview(ctx context.Context, caller authz.Caller, q Query) ([]byte, error) {
	if err := authz.Require(caller, authz.ModuleReports, authz.ExportReports); err != nil {
		return nil, err
	}
	trips, trucks, err := s.loadBoth(ctx, q)
	if err != nil {
		return nil, err
	}
	return RenderOverviewPDF(BuildOverview(trips, trucks), BuildTransport(trips), q, time.Now())
}

func (s *Service) loadTrips(ctx context.Context, q Query, status models.TripStatus) ([]models.Trip, error) {
	return s.trips.FindTrips(ctx, models.TripFilter{Status: status, From: q.From, To: q.To})
}

func (s *Service) loadTrucks(ctx context.Context, q Query, status models.TruckStatus) ([]models.Truck, error) {
	return s.trucks.FindTrucks(ctx, models.TruckFilter{Status: status, From: q.From, To: q.To})
}

func (s *Service) loadBoth(ctx context.Context, q Query) ([]models.Trip, []models.Truck, error) {
	trips, err := s.loadTrips(ctx, q, "")
	if err != nil {
		return nil, nil, err
	}
	trucks, err := s.loadTrucks(ctx, q, "")
	if err != nil {
		return nil, nil, err
	}
	return trips, trucks, nil
}

// BuildOverview aggregates the overview figures.
func BuildOverview(trips []models.Trip, trucks []models.Truck) *Overview {
	var tripRevenue, tripProfit, saleRevenue, resaleProfit, investment decimal.Decimal
	o := &Overview{}

	for _, t := range trips {
		tripRevenue = tripRevenue.Add(decimal.NewFromFloat(t.CustomerPayment))
		tripProfit = tripProfit.Add(decimal.NewFromFloat(t.NetProfit))
		if t.Status.IsActive() {
			o.KPIs.ActiveTrips++
		}
		if t.Status == models.TripCompleted {
			o.Transport.Completed++
		}
	}
	for _, tr := range trucks {
		if p := tr.SalePrice(); p != nil {
			saleRevenue = saleRevenue.Add(decimal.NewFromFloat(*p))
		}
		if tr.ResaleProfit != nil {
			resaleProfit = resaleProfit.Add(decimal.NewFromFloat(*tr.ResaleProfit))
		}
		if tr.PurchasePrice != nil {
			investment = investment.Add(decimal.NewFromFloat(*tr.PurchasePrice))
		}
		investment = investment.Add(decimal.NewFromFloat(tr.Expenses.Total()))
		if tr.Status == models.TruckSold {
			o.Inventory.Sold++
		}
		if !tr.Documents.NOC {
			o.Inventory.PendingNOCs++
		}
	}

	o.KPIs.TotalRevenue = tripRevenue.Add(saleRevenue).InexactFloat64()
	o.KPIs.TotalProfit = tripProfit.Add(resaleProfit).InexactFloat64()
	o.KPIs.TotalInvestment = investment.InexactFloat64()

	o.Transport.TotalTrips = len(trips)
	o.Transport.TotalTransportProfit = tripProfit.InexactFloat64()
	if len(trips) > 0 {
		o.Transport.AvgProfitPerTrip = tripProfit.Div(decimal.NewFromInt(int64(len(trips)))).Round(2).InexactFloat64()
	}

	o.Inventory.TotalTrucks = len(trucks)
	o.Inventory.TotalInventoryProfit = resaleProfit.InexactFloat64()
	return o
}

// BuildTransport aggregates trips per vehicle, expense bucket and month.
// Tyre and misc expenses are reported together as other.
func BuildTransport(trips []models.Trip) *TransportReport {
	byVehicle := map[string]*TruckProfit{}
	byMonth := map[string]*MonthlyTrips{}
	expenses := map[string]decimal.Decimal{
		"diesel": decimal.Zero,
		"tolls":  decimal.Zero,
		"driver": decimal.Zero,
		"other":  decimal.Zero,
	}

	for _, t := range trips {
		v := byVehicle[t.VehicleID]
		if v == nil {
			v = &TruckProfit{VehicleID: t.VehicleID}
			byVehicle[t.VehicleID] = v
		}
		v.Trips++
		v.TotalProfit = addMoney(v.TotalProfit, t.NetProfit)

		for category, amount := range t.Expenses.Restrict(models.TripExpenseCategories) {
			bucket := category
			if _, ok := expenses[bucket]; !ok {
				bucket = "other"
			}
			expenses[bucket] = expenses[bucket].Add(decimal.NewFromFloat(amount))
		}

		key := t.Date().Format("2006-01")
		m := byMonth[key]
		if m == nil {
			m = &MonthlyTrips{Month: key}
			byMonth[key] = m
		}
		m.Trips++
		m.Revenue = addMoney(m.Revenue, t.CustomerPayment)
		m.Profit = addMoney(m.Profit, t.NetProfit)
	}

	r := &TransportReport{
		TopTrucks:          []TruckProfit{},
		ExpenseTotals:      toFloats(expenses),
		MonthlyPerformance: []MonthlyTrips{},
	}
	for _, v := range byVehicle {
		r.TopTrucks = append(r.TopTrucks, *v)
	}
	sort.Slice(r.TopTrucks, func(i, j int) bool {
		if r.TopTrucks[i].TotalProfit != r.TopTrucks[j].TotalProfit {
			return r.TopTrucks[i].TotalProfit > r.TopTrucks[j].TotalProfit
		}
		return r.TopTrucks[i].VehicleID < r.TopTrucks[j].VehicleID
	})
	if len(r.TopTrucks) > topN {
		r.TopTrucks = r.TopTrucks[:topN]
	}
	for _, m := range byMonth {
		r.MonthlyPerformance = append(r.MonthlyPerformance, *m)
	}
	sort.Slice(r.MonthlyPerformance, func(i, j int) bool {
		return r.MonthlyPerformance[i].Month < r.MonthlyPerformance[j].Month
	})
	return r
}

// BuildInventory aggregates trucks per model, expense category and sale month.
func BuildInventory(trucks []models.Truck) *InventoryReport {
	byModel := map[string]*ModelSales{}
	byMonth := map[string]*MonthlySales{}
	expenses := map[string]decimal.Decimal{}
	for _, c := range models.TruckExpenseCategories {
		expenses[c] = decimal.Zero
	}

	for _, tr := range trucks {
		for category, amount := range tr.Expenses {
			if _, ok := expenses[category]; ok {
				expenses[category] = expenses[category].Add(decimal.NewFromFloat(amount))
			}
		}
		resale := 0.0
		if tr.ResaleProfit != nil {
			resale = *tr.ResaleProfit
		}

		if tr.Status == models.TruckSold {
			m := byModel[tr.Model]
			if m == nil {
				m = &ModelSales{Model: tr.Model}
				byModel[tr.Model] = m
			}
			m.Sold++
			m.Profit = addMoney(m.Profit, resale)
		}

		if tr.Sale == nil || tr.Sale.Date == nil {
			continue
		}
		key := tr.Sale.Date.Format("2006-01")
		row := byMonth[key]
		if row == nil {
			row = &MonthlySales{Month: key}
			byMonth[key] = row
		}
		row.Sales++
		if p := tr.SalePrice(); p != nil {
			row.Revenue = addMoney(row.Revenue, *p)
		}
		row.Profit = addMoney(row.Profit, resale)
	}

	r := &InventoryReport{
		TopSellingModels: []ModelSales{},
		ExpenseTotals:    toFloats(expenses),
		MonthlySales:     []MonthlySales{},
	}
	for _, m := range byModel {
		r.TopSellingModels = append(r.TopSellingModels, *m)
	}
	sort.Slice(r.TopSellingModels, func(i, j int) bool {
		if r.TopSellingModels[i].Profit != r.TopSellingModels[j].Profit {
			return r.TopSellingModels[i].Profit > r.TopSellingModels[j].Profit
		}
		return r.TopSellingModels[i].Model < r.TopSellingModels[j].Model
	})
	if len(r.TopSellingModels) > topN {
		r.TopSellingModels = r.TopSellingModels[:topN]
	}
	for _, m := range byMonth {
		r.MonthlySales = append(r.MonthlySales, *m)
	}
	sort.Slice(r.MonthlySales, func(i, j int) bool {
		return r.MonthlySales[i].Month < r.MonthlySales[j].Month
	})
	return r
}

func addMoney(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).InexactFloat64()
}

func toFloats(m map[string]decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v.InexactFloat64()
	}
	return out
}
