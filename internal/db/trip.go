package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ukydev/transportpro/internal/apperr"
	"github.com/ukydev/transportpro/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoTripCollection implements TripCollection for MongoDB.
type MongoTripCollection struct {
	Collection *mongo.Collection
}

// InsertTrip inserts a trip and fills in its id, version and timestamps.
func (c *MongoTripCollection) InsertTrip(ctx context.Context, trip *models.Trip) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	now := time.Now()
	if trip.ID.IsZero() {
		trip.ID = primitive.NewObjectID()
	}
	trip.Version = 1
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = now
	}
	trip.UpdatedAt = now
	_, err := c.Collection.InsertOne(ctx, trip)
	return mapError(err, "trip")
}

// FindTripByID finds a trip by its ID. A malformed id resolves to nothing.
func (c *MongoTripCollection) FindTripByID(ctx context.Context, id string) (*models.Trip, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NotFound("trip")
	}
	var trip models.Trip
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&trip)
	if err != nil {
		return nil, mapError(err, "trip")
	}
	return &trip, nil
}

// FindTrips queries trips newest first.
func (c *MongoTripCollection) FindTrips(ctx context.Context, filter models.TripFilter) ([]models.Trip, error) {
	cursor, err := c.Collection.Find(ctx, tripQuery(filter), findOptions(filter.Limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	trips := []models.Trip{}
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, err
	}
	return trips, nil
}

// UpdateTrip replaces a trip guarded by its version.
func (c *MongoTripCollection) UpdateTrip(ctx context.Context, trip *models.Trip) error {
	next := *trip
	next.Version = trip.Version + 1
	next.UpdatedAt = time.Now()
	if err := replaceVersioned(ctx, c.Collection, trip.ID, trip.Version, &next, "trip"); err != nil {
		return err
	}
	*trip = next
	return nil
}

// DeleteTrip deletes a trip by its ID.
func (c *MongoTripCollection) DeleteTrip(ctx context.Context, id primitive.ObjectID) error {
	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return apperr.NotFound("trip")
	}
	return nil
}

// FindActiveTripsForTruck returns trips still holding the truck.
func (c *MongoTripCollection) FindActiveTripsForTruck(ctx context.Context, registration string) ([]models.Trip, error) {
	cursor, err := c.Collection.Find(ctx, bson.M{
		"vehicle_id": registration,
		"status":     bson.M{"$in": models.ActiveTripStatuses},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var trips []models.Trip
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, err
	}
	return trips, nil
}

func tripQuery(f models.TripFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.VehicleID != "" {
		filter["vehicle_id"] = models.NormalizeRegistration(f.VehicleID)
	}
	dateRange(filter, "start_date", f.From, f.To)
	return filter
}
