package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/ukydev/transportpro/internal/authz"
	"github.com/ukydev/transportpro/internal/models"
	"github.com/ukydev/transportpro/internal/profit"
	"github.com/ukydev/transportpro/internal/reports"
	"github.com/ukydev/transportpro/internal/users"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockUserCollection is a mock implementation of UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserCollection) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockFleetService mocks both the trip and truck sides of the fleet service.
type MockFleetService struct {
	mock.Mock
}

func (m *MockFleetService) ListTrips(ctx context.Context, caller authz.Caller, filter models.TripFilter) ([]models.Trip, error) {
	args := m.Called(ctx, caller, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Trip), args.Error(1)
}

func (m *MockFleetService) GetTrip(ctx context.Context, caller authz.Caller, id string) (*models.Trip, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *MockFleetService) CreateTrip(ctx context.Context, caller authz.Caller, in models.TripInput) (*models.Trip, error) {
	args := m.Called(ctx, caller, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *MockFleetService) UpdateTrip(ctx context.Context, caller authz.Caller, id string, in models.TripInput) (*models.Trip, error) {
	args := m.Called(ctx, caller, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *MockFleetService) DeleteTrip(ctx context.Context, caller authz.Caller, id string) error {
	args := m.Called(ctx, caller, id)
	return args.Error(0)
}

func (m *MockFleetService) CalculateTripProfit(caller authz.Caller, req models.TripProfitRequest) (profit.Breakdown, error) {
	args := m.Called(caller, req)
	return args.Get(0).(profit.Breakdown), args.Error(1)
}

func (m *MockFleetService) ListTrucks(ctx context.Context, caller authz.Caller, filter models.TruckFilter) ([]models.Truck, error) {
	args := m.Called(ctx, caller, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Truck), args.Error(1)
}

func (m *MockFleetService) AvailableTrucks(ctx context.Context, caller authz.Caller) ([]models.Truck, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Truck), args.Error(1)
}

func (m *MockFleetService) GetTruck(ctx context.Context, caller authz.Caller, id string) (*models.Truck, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Truck), args.Error(1)
}

func (m *MockFleetService) CreateTruck(ctx context.Context, caller authz.Caller, in models.TruckInput) (*models.Truck, error) {
	args := m.Called(ctx, caller, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Truck), args.Error(1)
}

func (m *MockFleetService) UpdateTruck(ctx context.Context, caller authz.Caller, id string, in models.TruckInput) (*models.Truck, error) {
	args := m.Called(ctx, caller, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Truck), args.Error(1)
}

func (m *MockFleetService) UpdateTruckStatus(ctx context.Context, caller authz.Caller, id string, status models.TruckStatus) (*models.Truck, error) {
	args := m.Called(ctx, caller, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Truck), args.Error(1)
}

func (m *MockFleetService) DeleteTruck(ctx context.Context, caller authz.Caller, id string) error {
	args := m.Called(ctx, caller, id)
	return args.Error(0)
}

func (m *MockFleetService) CalculateTruckProfit(caller authz.Caller, req models.TruckProfitRequest) (profit.Breakdown, error) {
	args := m.Called(caller, req)
	return args.Get(0).(profit.Breakdown), args.Error(1)
}

// MockUserService is a mock implementation of UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) List(ctx context.Context, caller authz.Caller, filter users.Filter) ([]models.User, users.Stats, error) {
	args := m.Called(ctx, caller, filter)
	if args.Get(0) == nil {
		return nil, users.Stats{}, args.Error(2)
	}
	return args.Get(0).([]models.User), args.Get(1).(users.Stats), args.Error(2)
}

func (m *MockUserService) Get(ctx context.Context, caller authz.Caller, id string) (*models.User, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Create(ctx context.Context, caller authz.Caller, req models.CreateUserRequest) (*models.User, error) {
	args := m.Called(ctx, caller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, caller authz.Caller, id string, req models.UpdateUserRequest) (*models.User, error) {
	args := m.Called(ctx, caller, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Delete(ctx context.Context, caller authz.Caller, id string) error {
	args := m.Called(ctx, caller, id)
	return args.Error(0)
}

func (m *MockUserService) ResetPassword(ctx context.Context, caller authz.Caller, id, newPassword string) error {
	args := m.Called(ctx, caller, id, newPassword)
	return args.Error(0)
}

func (m *MockUserService) ToggleStatus(ctx context.Context, caller authz.Caller, id string) (*models.User, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockReportService is a mock implementation of ReportService
type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Overview(ctx context.Context, caller authz.Caller, q reports.Query) (*reports.Overview, error) {
	args := m.Called(ctx, caller, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reports.Overview), args.Error(1)
}

func (m *MockReportService) Transport(ctx context.Context, caller authz.Caller, q reports.Query) (*reports.TransportReport, error) {
	args := m.Called(ctx, caller, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reports.TransportReport), args.Error(1)
}

func (m *MockReportService) Inventory(ctx context.Context, caller authz.Caller, q reports.Query) (*reports.InventoryReport, error) {
	args := m.Called(ctx, caller, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reports.InventoryReport), args.Error(1)
}

func (m *MockReportService) ExportOverview(ctx context.Context, caller authz.Caller, q reports.Query) ([]byte, error) {
	args := m.Called(ctx, caller, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockReportService) Dashboard(ctx context.Context, caller authz.Caller) (*reports.Dashboard, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reports.Dashboard), args.Error(1)
}

func (m *MockReportService) TripStats(ctx context.Context, caller authz.Caller) (*reports.TripStats, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reports.TripStats), args.Error(1)
}

func (m *MockReportService) TruckStats(ctx context.Context, caller authz.Caller) (*reports.TruckStats, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reports.TruckStats), args.Error(1)
}

func (m *MockReportService) RecentTrips(ctx context.Context, caller authz.Caller, limit int) ([]reports.RecentTrip, error) {
	args := m.Called(ctx, caller, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reports.RecentTrip), args.Error(1)
}

func (m *MockReportService) FleetStatus(ctx context.Context, caller authz.Caller, limit int) ([]reports.FleetEntry, error) {
	args := m.Called(ctx, caller, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reports.FleetEntry), args.Error(1)
}

// MockPinger is a mock store health check.
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
