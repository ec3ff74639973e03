package fleet

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/transportpro/internal/apperr"
	"github.com/ukydev/transportpro/internal/authz"
	"github.com/ukydev/transportpro/internal/events"
	"github.com/ukydev/transportpro/internal/models"
	"github.com/ukydev/transportpro/internal/profit"
)

// ListTrips returns trips matching filter, newest first.
func (s *Service) ListTrips(ctx context.Context, caller authz.Caller, filter models.TripFilter) ([]models.Trip, error) {
	if err := authz.Require(caller, authz.ModuleTransportation, authz.ViewTrips); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperr.Validation("invalid trip status %q", filter.Status)
	}
	filter.Limit = listLimit(filter.Limit)
	return s.trips.FindTrips(ctx, filter)
}

// GetTrip returns one trip.
func (s *Service) GetTrip(ctx context.Context, caller authz.Caller, id string) (*models.Trip, error) {
	if err := authz.Require(caller, authz.ModuleTransportation, authz.ViewTrips); err != nil {
		return nil, err
	}
	return s.trips.FindTripByID(ctx, id)
}

// CreateTrip stores a new trip. The trip starts pending unless the input
// says otherwise; an in-transit trip takes its truck with it.
func (s *Service) CreateTrip(ctx context.Context, caller authz.Caller, in models.TripInput) (*models.Trip, error) {
	if err := authz.Require(caller, authz.ModuleTransportation, authz.CreateTrips); err != nil {
		return nil, err
	}
	if err := requireTripFields(in); err != nil {
		return nil, err
	}

	trip := &models.Trip{
		TripID:    newCode("TRP"),
		Status:    models.TripPending,
		Expenses:  models.ExpenseSet{},
		CreatedBy: caller.UserID,
		CreatedAt: time.Now(),
	}
	if err := applyTripInput(trip, in); err != nil {
		return nil, err
	}
	recomputeTrip(trip)

	err := s.run(ctx, func(ctx context.Context, changes *[]events.StatusChange) error {
		if err := s.couple(ctx, "", "", trip, false, changes); err != nil {
			return err
		}
		return s.trips.InsertTrip(ctx, trip)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"trip_id":    trip.TripID,
		"vehicle_id": trip.VehicleID,
		"status":     trip.Status,
		"net_profit": trip.NetProfit,
	}).Info("Trip created")
	return trip, nil
}

// UpdateTrip applies a partial update. Net profit is recomputed from the
// stored trip every time, whatever fields the input touches.
func (s *Service) UpdateTrip(ctx context.Context, caller authz.Caller, id string, in models.TripInput) (*models.Trip, error) {
	if err := authz.Require(caller, authz.ModuleTransportation, authz.EditTrips); err != nil {
		return nil, err
	}

	var updated *models.Trip
	err := s.run(ctx, func(ctx context.Context, changes *[]events.StatusChange) error {
		trip, err := s.trips.FindTripByID(ctx, id)
		if err != nil {
			return err
		}
		prevStatus, prevVehicle := trip.Status, trip.VehicleID

		if err := applyTripInput(trip, in); err != nil {
			return err
		}
		recomputeTrip(trip)

		if err := s.couple(ctx, prevStatus, prevVehicle, trip, false, changes); err != nil {
			return err
		}
		if err := s.trips.UpdateTrip(ctx, trip); err != nil {
			return err
		}
		updated = trip
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"trip_id": updated.TripID,
		"status":  updated.Status,
	}).Info("Trip updated")
	return updated, nil
}

// DeleteTrip removes a trip. Deleting an in-transit trip frees its truck.
func (s *Service) DeleteTrip(ctx context.Context, caller authz.Caller, id string) error {
	if err := authz.Require(caller, authz.ModuleTransportation, authz.DeleteTrips); err != nil {
		return err
	}

	return s.run(ctx, func(ctx context.Context, changes *[]events.StatusChange) error {
		trip, err := s.trips.FindTripByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.trips.DeleteTrip(ctx, trip.ID); err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"trip_id":    trip.TripID,
			"vehicle_id": trip.VehicleID,
			"status":     trip.Status,
		}).Info("Trip deleted")
		return s.couple(ctx, trip.Status, trip.VehicleID, trip, true, changes)
	})
}

// CalculateTripProfit is the what-if calculator; nothing is stored.
func (s *Service) CalculateTripProfit(caller authz.Caller, req models.TripProfitRequest) (profit.Breakdown, error) {
	if err := authz.Require(caller, authz.ModuleTransportation, authz.ViewTrips); err != nil {
		return profit.Breakdown{}, err
	}
	return profit.AdHocTrip(req.Expenses, req.CustomerPayment)
}

func requireTripFields(in models.TripInput) error {
	var missing []string
	for _, f := range []struct {
		name  string
		value *string
	}{{"source", in.Source}, {"destination", in.Destination}, {"goods", in.Goods}} {
		if f.value == nil || strings.TrimSpace(*f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if in.CustomerPayment == nil {
		missing = append(missing, "customerPayment")
	}
	if len(missing) > 0 {
		return apperr.Validation("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// applyTripInput copies caller-supplied fields onto trip. Expenses are
// replaced as a whole and limited to the trip categories.
func applyTripInput(trip *models.Trip, in models.TripInput) error {
	for _, f := range []struct {
		name string
		in   *string
		out  *string
	}{
		{"source", in.Source, &trip.Source},
		{"destination", in.Destination, &trip.Destination},
		{"goods", in.Goods, &trip.Goods},
	} {
		if f.in == nil {
			continue
		}
		v := strings.TrimSpace(*f.in)
		if v == "" {
			return apperr.Validation("%s must not be empty", f.name)
		}
		*f.out = v
	}

	if in.VehicleID != nil {
		reg := models.NormalizeRegistration(*in.VehicleID)
		if reg != "" && !models.ValidRegistration(reg) {
			return apperr.Validation("invalid vehicle registration number %q", reg)
		}
		trip.VehicleID = reg
	}
	if in.Distance != nil {
		if *in.Distance < 0 {
			return apperr.Validation("distance must not be negative")
		}
		trip.Distance = *in.Distance
	}
	if in.StartDate != nil {
		trip.StartDate = in.StartDate.Ptr()
	}
	if in.ReturnDate != nil {
		trip.ReturnDate = in.ReturnDate.Ptr()
	}
	if trip.StartDate != nil && trip.ReturnDate != nil && trip.ReturnDate.Before(*trip.StartDate) {
		return apperr.Validation("return date must not be before start date")
	}
	if in.Expenses != nil {
		expenses := in.Expenses.Restrict(models.TripExpenseCategories)
		if err := checkExpenses(expenses); err != nil {
			return err
		}
		trip.Expenses = expenses
	}
	if in.CustomerPayment != nil {
		if *in.CustomerPayment < 0 {
			return apperr.Validation("customer payment must not be negative")
		}
		trip.CustomerPayment = float64(*in.CustomerPayment)
	}
	if in.Status != nil {
		if !in.Status.IsValid() {
			return apperr.Validation("invalid trip status %q", *in.Status)
		}
		trip.Status = *in.Status
	}
	return nil
}
