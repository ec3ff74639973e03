// Package profit derives trip net profit and truck resale profit from
// expense records. Every function is pure; absent or non-numeric inputs
// count as zero and no result is ever NaN.
package profit

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/ukydev/transportpro/internal/apperr"
)

// NumericOrZero coerces v to a finite number. Nil, non-numeric, NaN and
// infinite values yield 0. Numeric strings are parsed.
func NumericOrZero(v any) float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		f = x
	case *float64:
		if x == nil {
			return 0
		}
		f = *x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Coerce converts a loosely typed expense payload into numeric amounts.
// A nil input yields nil.
func Coerce(raw map[string]any) map[string]float64 {
	if raw == nil {
		return nil
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		out[k] = NumericOrZero(v)
	}
	return out
}

func dec(v any) decimal.Decimal {
	return decimal.NewFromFloat(NumericOrZero(v))
}

func sum(expenses map[string]float64) decimal.Decimal {
	total := decimal.Zero
	for _, v := range expenses {
		total = total.Add(dec(v))
	}
	return total
}

// SumExpenses totals an expense set.
func SumExpenses(expenses map[string]float64) float64 {
	return sum(expenses).InexactFloat64()
}

// TripNetProfit is customerPayment minus the sum of expenses.
func TripNetProfit(customerPayment float64, expenses map[string]float64) float64 {
	return dec(customerPayment).Sub(sum(expenses)).InexactFloat64()
}

// TruckResaleProfit returns salePrice - (purchasePrice + expenses + commission),
// or nil when either salePrice or purchasePrice is missing. A missing
// commission counts as zero. Non-finite prices produce 0.
func TruckResaleProfit(purchasePrice *float64, expenses map[string]float64, salePrice, commission *float64) *float64 {
	if salePrice == nil || purchasePrice == nil {
		return nil
	}
	if !finite(*salePrice) || !finite(*purchasePrice) {
		zero := 0.0
		return &zero
	}
	cost := decimal.NewFromFloat(*purchasePrice).Add(sum(expenses)).Add(dec(commission))
	p := decimal.NewFromFloat(*salePrice).Sub(cost).InexactFloat64()
	return &p
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Breakdown is the result of a what-if calculation.
type Breakdown struct {
	TotalExpenses float64 `json:"totalExpenses"`
	NetProfit     float64 `json:"netProfit"`
	ProfitMargin  float64 `json:"profitMargin"`
}

// AdHocTrip computes a trip breakdown that is not tied to a stored trip.
// The margin is relative to customerPayment and rounded to 2 places.
func AdHocTrip(expenses map[string]any, customerPayment any) (Breakdown, error) {
	if expenses == nil || customerPayment == nil {
		return Breakdown{}, apperr.Validation("expenses and customerPayment are required")
	}
	total := sum(Coerce(expenses))
	payment := dec(customerPayment)
	net := payment.Sub(total)
	return Breakdown{
		TotalExpenses: total.InexactFloat64(),
		NetProfit:     net.InexactFloat64(),
		ProfitMargin:  margin(net, payment),
	}, nil
}

// AdHocTruck computes a resale breakdown for a truck that may not exist yet.
// The margin is relative to purchasePrice and rounded to 2 places.
func AdHocTruck(purchasePrice any, expenses map[string]any, salePrice, commission any) (Breakdown, error) {
	if purchasePrice == nil || salePrice == nil {
		return Breakdown{}, apperr.Validation("purchasePrice and salePrice are required")
	}
	purchase := dec(purchasePrice)
	total := sum(Coerce(expenses))
	net := dec(salePrice).Sub(purchase.Add(total).Add(dec(commission)))
	return Breakdown{
		TotalExpenses: total.InexactFloat64(),
		NetProfit:     net.InexactFloat64(),
		ProfitMargin:  margin(net, purchase),
	}, nil
}

func margin(net, base decimal.Decimal) float64 {
	if !base.IsPositive() {
		return 0
	}
	return net.Div(base).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}
