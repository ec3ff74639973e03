package fleet

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/transportpro/internal/apperr"
	"github.com/ukydev/transportpro/internal/events"
	"github.com/ukydev/transportpro/internal/models"
)

// truckEffect is what a trip transition does to the trip's truck.
type truckEffect struct {
	status        models.TruckStatus
	stampLastTrip bool
	reason        string
}

// deleted marks the "to" side of a trip that is being removed.
const deleted models.TripStatus = ""

// tripTransitions maps a trip status change onto its truck:
//
//	any          -> in-transit  truck in-transit, lastTripDate = trip date
//	not complete -> completed   truck available
//	in-transit   -> cancelled   truck available
//	in-transit   -> (deleted)   truck available
//
// from is empty for a new trip.
func tripTransition(from, to models.TripStatus) (truckEffect, bool) {
	switch {
	case to == models.TripInTransit:
		return truckEffect{status: models.TruckInTransit, stampLastTrip: true, reason: events.ReasonTripStarted}, true
	case to == models.TripCompleted && from != models.TripCompleted:
		return truckEffect{status: models.TruckAvailable, reason: events.ReasonTripCompleted}, true
	case to == models.TripCancelled && from == models.TripInTransit:
		return truckEffect{status: models.TruckAvailable, reason: events.ReasonTripCancelled}, true
	case to == deleted && from == models.TripInTransit:
		return truckEffect{status: models.TruckAvailable, reason: events.ReasonTripDeleted}, true
	}
	return truckEffect{}, false
}

// couple applies the truck side of a trip that was in prevStatus on
// prevVehicle and is now in its current state, or gone when removed is set.
func (s *Service) couple(ctx context.Context, prevStatus models.TripStatus, prevVehicle string, trip *models.Trip, removed bool, changes *[]events.StatusChange) error {
	to, vehicle := trip.Status, trip.VehicleID
	if removed {
		to, vehicle = deleted, ""
	}

	// Leaving a truck, by reassignment or deletion, releases it.
	if prevVehicle != "" && prevVehicle != vehicle {
		if effect, ok := tripTransition(prevStatus, deleted); ok {
			if err := s.applyEffect(ctx, prevVehicle, effect, trip, changes); err != nil {
				return err
			}
		}
		prevStatus = ""
	}
	if vehicle == "" {
		return nil
	}
	effect, ok := tripTransition(prevStatus, to)
	if !ok {
		return nil
	}
	return s.applyEffect(ctx, vehicle, effect, trip, changes)
}

func (s *Service) applyEffect(ctx context.Context, registration string, effect truckEffect, trip *models.Trip, changes *[]events.StatusChange) error {
	truck, err := s.trucks.FindTruckByRegistration(ctx, registration)
	if apperr.Is(err, apperr.KindNotFound) {
		log.WithFields(log.Fields{
			"registration": registration,
			"trip_id":      trip.TripID,
		}).Warn("Trip references unknown truck, status not updated")
		return nil
	}
	if err != nil {
		return err
	}

	from := truck.Status
	truck.Status = effect.status
	if effect.stampLastTrip {
		date := trip.Date()
		truck.LastTripDate = &date
	}
	if err := s.trucks.UpdateTruck(ctx, truck); err != nil {
		return err
	}
	if from == effect.status {
		return nil
	}

	log.WithFields(log.Fields{
		"registration": registration,
		"from":         from,
		"to":           effect.status,
		"trip_id":      trip.TripID,
	}).Info("Truck status follows trip")
	*changes = append(*changes, events.StatusChange{
		RegistrationNumber: registration,
		From:               from,
		To:                 effect.status,
		Reason:             effect.reason,
		TripID:             trip.TripID,
		At:                 time.Now(),
	})
	return nil
}

// guardActiveTrips rejects an operation while the truck still has pending
// or in-transit trips.
func (s *Service) guardActiveTrips(ctx context.Context, registration, action string) error {
	active, err := s.trips.FindActiveTripsForTruck(ctx, registration)
	if err != nil {
		return err
	}
	if n := len(active); n > 0 {
		return apperr.Conflict(n, "cannot %s: truck %s has %d active trip(s)", action, registration, n)
	}
	return nil
}
