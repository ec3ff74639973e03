package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ukydev/transportpro/internal/profit"
)

// Trip expense categories.
var TripExpenseCategories = []string{"diesel", "driver", "tolls", "tyre", "misc"}

// Truck expense categories.
var TruckExpenseCategories = []string{
	"transportation", "tollCharges", "tyreCharges", "fattaExpenses", "driverCharges",
	"bodyWork", "paintExpenses", "builtlyExpenses", "diesel", "kamaniWork",
	"floorExpenses", "insuranceExpenses", "tyres", "painting", "misc",
}

// ExpenseSet maps an expense category to an amount. It decodes leniently:
// numeric strings are parsed and any other non-numeric value becomes 0.
type ExpenseSet map[string]float64

// UnmarshalJSON implements json.Unmarshaler.
func (e *ExpenseSet) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("expenses must be an object: %w", err)
	}
	*e = ExpenseSet(profit.Coerce(raw))
	return nil
}

// Restrict returns a copy holding only the given categories.
func (e ExpenseSet) Restrict(categories []string) ExpenseSet {
	out := make(ExpenseSet, len(categories))
	for _, c := range categories {
		if v, ok := e[c]; ok {
			out[c] = v
		}
	}
	return out
}

// Total is the sum of all amounts.
func (e ExpenseSet) Total() float64 {
	return profit.SumExpenses(e)
}

// Amount is a monetary input that decodes leniently, like ExpenseSet values.
type Amount float64

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*a = Amount(profit.NumericOrZero(raw))
	return nil
}

// Float returns the amount as a *float64, nil for a nil receiver.
func (a *Amount) Float() *float64 {
	if a == nil {
		return nil
	}
	v := float64(*a)
	return &v
}

// FlexTime accepts RFC3339 timestamps or plain YYYY-MM-DD dates.
type FlexTime struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *FlexTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// Ptr returns a pointer to the wrapped time, or nil for a nil receiver.
func (t *FlexTime) Ptr() *time.Time {
	if t == nil {
		return nil
	}
	v := t.Time
	return &v
}

// ParseDate parses an RFC3339 timestamp or a YYYY-MM-DD date (UTC).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	ts, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return ts, nil
}
