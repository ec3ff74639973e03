package models

// TripProfitRequest is a what-if trip calculation. Fields stay raw so a
// missing value can be told apart from zero.
type TripProfitRequest struct {
	Expenses        map[string]any `json:"expenses"`
	CustomerPayment any            `json:"customerPayment"`
}

// TruckProfitRequest is a what-if resale calculation.
type TruckProfitRequest struct {
	PurchasePrice any            `json:"purchasePrice"`
	Expenses      map[string]any `json:"expenses"`
	SalePrice     any            `json:"salePrice"`
	Commission    any            `json:"commission"`
}
