package fleet

import (
	"context"
	"sync"

	"github.com/ukydev/transportpro/internal/apperr"
	"github.com/ukydev/transportpro/internal/db"
	"github.com/ukydev/transportpro/internal/events"
	"github.com/ukydev/transportpro/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memTrips is an in-memory TripCollection with version checks.
type memTrips struct {
	mu        sync.Mutex
	items     map[primitive.ObjectID]models.Trip
	conflicts int // number of upcoming updates to fail as stale
}

func newMemTrips() *memTrips {
	return &memTrips{items: map[primitive.ObjectID]models.Trip{}}
}

func (m *memTrips) InsertTrip(_ context.Context, trip *models.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if trip.ID.IsZero() {
		trip.ID = primitive.NewObjectID()
	}
	trip.Version = 1
	m.items[trip.ID] = *trip
	return nil
}

func (m *memTrips) FindTripByID(_ context.Context, id string) (*models.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NotFound("trip")
	}
	trip, ok := m.items[oid]
	if !ok {
		return nil, apperr.NotFound("trip")
	}
	return &trip, nil
}

func (m *memTrips) FindTrips(_ context.Context, filter models.TripFilter) ([]models.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Trip{}
	for _, t := range m.items {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.VehicleID != "" && t.VehicleID != filter.VehicleID {
			continue
		}
		out = append(out, t)
	}
	if filter.Limit > 0 && int64(len(out)) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *memTrips) UpdateTrip(_ context.Context, trip *models.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.items[trip.ID]
	if !ok {
		return apperr.NotFound("trip")
	}
	if m.conflicts > 0 {
		m.conflicts--
		return db.ErrVersionConflict
	}
	if stored.Version != trip.Version {
		return db.ErrVersionConflict
	}
	trip.Version++
	m.items[trip.ID] = *trip
	return nil
}

func (m *memTrips) DeleteTrip(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return apperr.NotFound("trip")
	}
	delete(m.items, id)
	return nil
}

func (m *memTrips) FindActiveTripsForTruck(_ context.Context, registration string) ([]models.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Trip
	for _, t := range m.items {
		if t.VehicleID == registration && t.Status.IsActive() {
			out = append(out, t)
		}
	}
	return out, nil
}

// memTrucks is an in-memory TruckCollection with version checks.
type memTrucks struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Truck
}

func newMemTrucks() *memTrucks {
	return &memTrucks{items: map[primitive.ObjectID]models.Truck{}}
}

func (m *memTrucks) InsertTruck(_ context.Context, truck *models.Truck) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.items {
		if t.RegistrationNumber == truck.RegistrationNumber {
			return apperr.Conflict(1, "duplicate registration")
		}
	}
	if truck.ID.IsZero() {
		truck.ID = primitive.NewObjectID()
	}
	truck.Version = 1
	m.items[truck.ID] = *truck
	return nil
}

func (m *memTrucks) FindTruckByID(_ context.Context, id string) (*models.Truck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NotFound("truck")
	}
	truck, ok := m.items[oid]
	if !ok {
		return nil, apperr.NotFound("truck")
	}
	return &truck, nil
}

func (m *memTrucks) FindTruckByRegistration(_ context.Context, registration string) (*models.Truck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.items {
		if t.RegistrationNumber == registration {
			truck := t
			return &truck, nil
		}
	}
	return nil, apperr.NotFound("truck")
}

func (m *memTrucks) FindTrucks(_ context.Context, filter models.TruckFilter) ([]models.Truck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Truck{}
	for _, t := range m.items {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *memTrucks) UpdateTruck(_ context.Context, truck *models.Truck) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.items[truck.ID]
	if !ok {
		return apperr.NotFound("truck")
	}
	if stored.Version != truck.Version {
		return db.ErrVersionConflict
	}
	truck.Version++
	m.items[truck.ID] = *truck
	return nil
}

func (m *memTrucks) DeleteTruck(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return apperr.NotFound("truck")
	}
	delete(m.items, id)
	return nil
}

func (m *memTrucks) get(reg string) models.Truck {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.items {
		if t.RegistrationNumber == reg {
			return t
		}
	}
	return models.Truck{}
}

// directTx runs the function without a real transaction.
type directTx struct{ calls int }

func (d *directTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	d.calls++
	return fn(ctx)
}

type recordingPublisher struct {
	mu      sync.Mutex
	changes []events.StatusChange
}

func (r *recordingPublisher) PublishStatusChange(_ context.Context, c events.StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
	return nil
}
