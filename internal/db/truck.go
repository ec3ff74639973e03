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

// MongoTruckCollection implements TruckCollection for MongoDB.
type MongoTruckCollection struct {
	Collection *mongo.Collection
}

// InsertTruck inserts a truck. A duplicate registration number is a conflict.
func (c *MongoTruckCollection) InsertTruck(ctx context.Context, truck *models.Truck) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	now := time.Now()
	if truck.ID.IsZero() {
		truck.ID = primitive.NewObjectID()
	}
	truck.Version = 1
	if truck.CreatedAt.IsZero() {
		truck.CreatedAt = now
	}
	truck.UpdatedAt = now
	_, err := c.Collection.InsertOne(ctx, truck)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict(1, "truck with registration number %s already exists", truck.RegistrationNumber)
	}
	return err
}

// FindTruckByID finds a truck by its ID.
func (c *MongoTruckCollection) FindTruckByID(ctx context.Context, id string) (*models.Truck, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NotFound("truck")
	}
	return c.findOne(ctx, bson.M{"_id": objectID})
}

// FindTruckByRegistration finds a truck by its normalized registration number.
func (c *MongoTruckCollection) FindTruckByRegistration(ctx context.Context, registration string) (*models.Truck, error) {
	return c.findOne(ctx, bson.M{"registration_number": models.NormalizeRegistration(registration)})
}

func (c *MongoTruckCollection) findOne(ctx context.Context, filter bson.M) (*models.Truck, error) {
	var truck models.Truck
	if err := c.Collection.FindOne(ctx, filter).Decode(&truck); err != nil {
		return nil, mapError(err, "truck")
	}
	return &truck, nil
}

// FindTrucks queries trucks newest first.
func (c *MongoTruckCollection) FindTrucks(ctx context.Context, filter models.TruckFilter) ([]models.Truck, error) {
	cursor, err := c.Collection.Find(ctx, truckQuery(filter), findOptions(filter.Limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	trucks := []models.Truck{}
	if err := cursor.All(ctx, &trucks); err != nil {
		return nil, err
	}
	return trucks, nil
}

// UpdateTruck replaces a truck guarded by its version.
func (c *MongoTruckCollection) UpdateTruck(ctx context.Context, truck *models.Truck) error {
	next := *truck
	next.Version = truck.Version + 1
	next.UpdatedAt = time.Now()
	err := replaceVersioned(ctx, c.Collection, truck.ID, truck.Version, &next, "truck")
	if apperr.Is(err, apperr.KindConflict) {
		return apperr.Conflict(1, "truck with registration number %s already exists", truck.RegistrationNumber)
	}
	if err != nil {
		return err
	}
	*truck = next
	return nil
}

// DeleteTruck deletes a truck by its ID.
func (c *MongoTruckCollection) DeleteTruck(ctx context.Context, id primitive.ObjectID) error {
	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return apperr.NotFound("truck")
	}
	return nil
}

func truckQuery(f models.TruckFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Model != "" {
		filter["model"] = f.Model
	}
	dateRange(filter, "purchase_date", f.From, f.To)
	return filter
}
