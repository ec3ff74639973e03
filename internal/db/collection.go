package db

import (
	"context"

	"github.com/ukydev/transportpro/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TripCollection defines the interface for trip data operations.
type TripCollection interface {
	InsertTrip(ctx context.Context, trip *models.Trip) error
	FindTripByID(ctx context.Context, id string) (*models.Trip, error)
	FindTrips(ctx context.Context, filter models.TripFilter) ([]models.Trip, error)
	// UpdateTrip stores trip if its version is still current and bumps it.
	UpdateTrip(ctx context.Context, trip *models.Trip) error
	DeleteTrip(ctx context.Context, id primitive.ObjectID) error
	// FindActiveTripsForTruck returns the pending and in-transit trips
	// assigned to a registration number.
	FindActiveTripsForTruck(ctx context.Context, registration string) ([]models.Trip, error)
}

// TruckCollection defines the interface for truck data operations.
type TruckCollection interface {
	InsertTruck(ctx context.Context, truck *models.Truck) error
	FindTruckByID(ctx context.Context, id string) (*models.Truck, error)
	FindTruckByRegistration(ctx context.Context, registration string) (*models.Truck, error)
	FindTrucks(ctx context.Context, filter models.TruckFilter) ([]models.Truck, error)
	UpdateTruck(ctx context.Context, truck *models.Truck) error
	DeleteTruck(ctx context.Context, id primitive.ObjectID) error
}

// Transactor runs a group of writes atomically.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
