package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/transportpro/internal/apperr"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	TripsCollection  = "trips"
	TrucksCollection = "trucks"
	UsersCollection  = "users"
)

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	// Ping to verify connection
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// Store groups the collections of one database and runs multi-document
// writes atomically.
type Store struct {
	client       *mongo.Client
	database     *mongo.Database
	transactions bool

	Trips  *MongoTripCollection
	Trucks *MongoTruckCollection
	Users  *MongoUserCollection
}

// NewStore binds the collections of dbName. With transactions disabled,
// WithTransaction runs its function directly; standalone servers need this.
func NewStore(client *mongo.Client, dbName string, transactions bool) *Store {
	database := client.Database(dbName)
	return &Store{
		client:       client,
		database:     database,
		transactions: transactions,
		Trips:        &MongoTripCollection{Collection: database.Collection(TripsCollection)},
		Trucks:       &MongoTruckCollection{Collection: database.Collection(TrucksCollection)},
		Users:        &MongoUserCollection{Collection: database.Collection(UsersCollection)},
	}
}

// indexModels lists the indexes per collection name.
func indexModels() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		TrucksCollection: {
			{Keys: bson.D{{Key: "registration_number", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		TripsCollection: {
			{Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
}

// EnsureIndexes creates the indexes the services rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	for name, idx := range indexModels() {
		if _, err := s.database.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// WithTransaction runs fn inside a session transaction. The context handed
// to fn must be used for every store call that belongs to the transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.transactions {
		return fn(ctx)
	}
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// ErrVersionConflict reports that a document changed between read and write.
var ErrVersionConflict = errors.New("document was modified concurrently")

// mapError converts driver errors into domain errors.
func mapError(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.NotFound(entity)
	case mongo.IsDuplicateKeyError(err):
		return apperr.Conflict(1, "%s already exists", entity)
	default:
		return err
	}
}

func findOptions(limit int64) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return opts
}

// replaceVersioned replaces the document matching id and version, storing
// doc (which must already carry version+1). A miss is either a missing
// document or a stale version.
func replaceVersioned(ctx context.Context, coll *mongo.Collection, id interface{}, version int64, doc interface{}, entity string) error {
	if coll == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	result, err := coll.ReplaceOne(ctx, bson.M{"_id": id, "version": version}, doc)
	if err != nil {
		return mapError(err, entity)
	}
	if result.MatchedCount > 0 {
		return nil
	}
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound(entity)
	}
	return ErrVersionConflict
}

func dateRange(filter bson.M, field string, from, to *time.Time) {
	if from == nil && to == nil {
		return
	}
	r := bson.M{}
	if from != nil {
		r["$gte"] = *from
	}
	if to != nil {
		r["$lte"] = *to
	}
	filter[field] = r
}
