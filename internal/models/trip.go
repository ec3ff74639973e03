package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TripStatus is the lifecycle state of a trip.
type TripStatus string

const (
	TripPending   TripStatus = "pending"
	TripInTransit TripStatus = "in-transit"
	TripCompleted TripStatus = "completed"
	TripCancelled TripStatus = "cancelled"
)

// ActiveTripStatuses are the statuses that block truck maintenance and deletion.
var ActiveTripStatuses = []TripStatus{TripPending, TripInTransit}

// IsValid reports whether s is a known trip status.
func (s TripStatus) IsValid() bool {
	switch s {
	case TripPending, TripInTransit, TripCompleted, TripCancelled:
		return true
	default:
		return false
	}
}

// IsActive reports whether s is pending or in-transit.
func (s TripStatus) IsActive() bool {
	return s == TripPending || s == TripInTransit
}

// Trip represents one transport job.
type Trip struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TripID          string             `json:"tripId" bson:"trip_id"`
	Source          string             `json:"source" bson:"source"`
	Destination     string             `json:"destination" bson:"destination"`
	Goods           string             `json:"goods" bson:"goods"`
	VehicleID       string             `json:"vehicleId" bson:"vehicle_id"` // truck registration number
	Distance        float64            `json:"distance" bson:"distance"`    // in kilometers
	StartDate       *time.Time         `json:"startDate,omitempty" bson:"start_date,omitempty"`
	ReturnDate      *time.Time         `json:"returnDate,omitempty" bson:"return_date,omitempty"`
	Expenses        ExpenseSet         `json:"expenses" bson:"expenses"`
	CustomerPayment float64            `json:"customerPayment" bson:"customer_payment"`
	NetProfit       float64            `json:"netProfit" bson:"net_profit"` // derived
	Status          TripStatus         `json:"status" bson:"status"`
	CreatedBy       primitive.ObjectID `json:"createdBy,omitempty" bson:"created_by,omitempty"`
	Version         int64              `json:"version" bson:"version"`
	CreatedAt       time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updated_at"`
}

// Date is the date a trip is attributed to: its start date, falling back
// to its creation time.
func (t *Trip) Date() time.Time {
	if t.StartDate != nil && !t.StartDate.IsZero() {
		return *t.StartDate
	}
	return t.CreatedAt
}

// TripInput carries caller-supplied trip fields for create and update.
// Derived fields have no counterpart here, so any value a caller sends for
// them is dropped during decoding.
type TripInput struct {
	Source          *string     `json:"source"`
	Destination     *string     `json:"destination"`
	Goods           *string     `json:"goods"`
	VehicleID       *string     `json:"vehicleId"`
	Distance        *float64    `json:"distance"`
	StartDate       *FlexTime   `json:"startDate"`
	ReturnDate      *FlexTime   `json:"returnDate"`
	Expenses        ExpenseSet  `json:"expenses"`
	CustomerPayment *Amount     `json:"customerPayment"`
	Status          *TripStatus `json:"status"`
}

// TripFilter narrows trip listings.
type TripFilter struct {
	Status    TripStatus
	VehicleID string
	From      *time.Time
	To        *time.Time
	Limit     int64
}
