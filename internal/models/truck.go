package models

import (
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TruckStatus is the availability state of a truck.
type TruckStatus string

const (
	TruckAvailable   TruckStatus = "available"
	TruckInTransit   TruckStatus = "in-transit"
	TruckMaintenance TruckStatus = "maintenance"
	TruckSold        TruckStatus = "sold"
)

// IsValid reports whether s is a known truck status.
func (s TruckStatus) IsValid() bool {
	switch s {
	case TruckAvailable, TruckInTransit, TruckMaintenance, TruckSold:
		return true
	default:
		return false
	}
}

var registrationPattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z]{1,3}[0-9]{4}$`)

// NormalizeRegistration trims and uppercases a registration number.
func NormalizeRegistration(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidRegistration reports whether a normalized registration number looks
// like MH12AB1234.
func ValidRegistration(s string) bool {
	return registrationPattern.MatchString(s)
}

// Party identifies a seller or buyer.
type Party struct {
	Name          string `json:"name" bson:"name"`
	Contact       string `json:"contact" bson:"contact"`
	Address       string `json:"address" bson:"address"`
	AadhaarNumber string `json:"aadhaarNumber,omitempty" bson:"aadhaar_number,omitempty"`
	Email         string `json:"email,omitempty" bson:"email,omitempty"`
}

// Payment is one installment of a purchase or sale.
type Payment struct {
	Method string    `json:"method" bson:"method"` // "cash", "RTGS", "cheque", "UPI", "other"
	Amount float64   `json:"amount" bson:"amount"`
	Date   time.Time `json:"date" bson:"date"`
}

// Documents tracks which truck papers are on file.
type Documents struct {
	NOC       bool `json:"NOC" bson:"noc"`
	Insurance bool `json:"insurance" bson:"insurance"`
	Fitness   bool `json:"fitness" bson:"fitness"`
	Tax       bool `json:"tax" bson:"tax"`
}

// Sale records the resale of a truck. Any field may be missing while the
// sale is being negotiated.
type Sale struct {
	Buyer                Party      `json:"buyer" bson:"buyer"`
	Date                 *time.Time `json:"date,omitempty" bson:"date,omitempty"`
	Price                *float64   `json:"price,omitempty" bson:"price,omitempty"`
	Commission           *float64   `json:"commission,omitempty" bson:"commission,omitempty"`
	CommissionDealerName string     `json:"commissionDealerName,omitempty" bson:"commission_dealer_name,omitempty"`
	Payments             []Payment  `json:"payments,omitempty" bson:"payments,omitempty"`
}

// Truck represents one vehicle asset.
type Truck struct {
	ID                 primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TruckID            string             `json:"truckId" bson:"truck_id"`
	RegistrationNumber string             `json:"registrationNumber" bson:"registration_number"`
	Model              string             `json:"model" bson:"model"`
	ModelYear          int                `json:"modelYear,omitempty" bson:"model_year,omitempty"`
	Seller             Party              `json:"seller" bson:"seller"`
	PurchaseDate       time.Time          `json:"purchaseDate" bson:"purchase_date"`
	PurchasePrice      *float64           `json:"purchasePrice,omitempty" bson:"purchase_price,omitempty"`
	PurchasePayments   []Payment          `json:"purchasePayments" bson:"purchase_payments"`
	Documents          Documents          `json:"documents" bson:"documents"`
	Expenses           ExpenseSet         `json:"expenses" bson:"expenses"`
	Sale               *Sale              `json:"sale,omitempty" bson:"sale,omitempty"`
	ResaleProfit       *float64           `json:"resaleProfit,omitempty" bson:"resale_profit,omitempty"` // derived
	Status             TruckStatus        `json:"status" bson:"status"`
	LastTripDate       *time.Time         `json:"lastTripDate,omitempty" bson:"last_trip_date,omitempty"`
	CreatedBy          primitive.ObjectID `json:"createdBy,omitempty" bson:"created_by,omitempty"`
	Version            int64              `json:"version" bson:"version"`
	CreatedAt          time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt          time.Time          `json:"updatedAt" bson:"updated_at"`
}

// SalePrice returns the recorded sale price, or nil.
func (t *Truck) SalePrice() *float64 {
	if t.Sale == nil {
		return nil
	}
	return t.Sale.Price
}

// SaleCommission returns the recorded commission, or nil.
func (t *Truck) SaleCommission() *float64 {
	if t.Sale == nil {
		return nil
	}
	return t.Sale.Commission
}

// SaleInput is the caller-supplied part of a sale.
type SaleInput struct {
	Buyer                Party     `json:"buyer"`
	Date                 *FlexTime `json:"date"`
	Price                *Amount   `json:"price"`
	Commission           *Amount   `json:"commission"`
	CommissionDealerName string    `json:"commissionDealerName"`
	Payments             []Payment `json:"payments"`
}

// ToSale converts the input to a stored sale.
func (s *SaleInput) ToSale() *Sale {
	if s == nil {
		return nil
	}
	return &Sale{
		Buyer:                s.Buyer,
		Date:                 s.Date.Ptr(),
		Price:                s.Price.Float(),
		Commission:           s.Commission.Float(),
		CommissionDealerName: s.CommissionDealerName,
		Payments:             s.Payments,
	}
}

// TruckInput carries caller-supplied truck fields for create and update.
type TruckInput struct {
	RegistrationNumber *string      `json:"registrationNumber"`
	Model              *string      `json:"model"`
	ModelYear          *int         `json:"modelYear"`
	Seller             *Party       `json:"seller"`
	PurchaseDate       *FlexTime    `json:"purchaseDate"`
	PurchasePrice      *Amount      `json:"purchasePrice"`
	PurchasePayments   []Payment    `json:"purchasePayments"`
	Documents          *Documents   `json:"documents"`
	Expenses           ExpenseSet   `json:"expenses"`
	Sale               *SaleInput   `json:"sale"`
	Status             *TruckStatus `json:"status"`
}

// TruckFilter narrows truck listings.
type TruckFilter struct {
	Status TruckStatus
	Model  string
	From   *time.Time
	To     *time.Time
	Limit  int64
}
