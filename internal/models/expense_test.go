package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpenseSet_UnmarshalLenient(t *testing.T) {
	var e ExpenseSet
	err := json.Unmarshal([]byte(`{"diesel": 1200, "driver": "800", "tolls": "n/a", "tyre": null, "misc": true}`), &e)
	require.NoError(t, err)

	assert.Equal(t, 1200.0, e["diesel"])
	assert.Equal(t, 800.0, e["driver"])
	assert.Equal(t, 0.0, e["tolls"])
	assert.Equal(t, 0.0, e["tyre"])
	assert.Equal(t, 0.0, e["misc"])
	assert.Equal(t, 2000.0, e.Total())
}

func TestExpenseSet_UnmarshalRejectsNonObject(t *testing.T) {
	var e ExpenseSet
	assert.Error(t, json.Unmarshal([]byte(`[1,2,3]`), &e))
}

func TestTripInput_DropsDerivedFields(t *testing.T) {
	var in TripInput
	err := json.Unmarshal([]byte(`{"source":"Pune","customerPayment":"5000","netProfit":999999,"expenses":{"diesel":100}}`), &in)
	require.NoError(t, err)
	require.NotNil(t, in.CustomerPayment)
	assert.Equal(t, Amount(5000), *in.CustomerPayment)
	assert.Equal(t, 100.0, in.Expenses["diesel"])
	assert.Nil(t, in.Status)
}

func TestTruckInput_PricesAcceptNumericStrings(t *testing.T) {
	var in TruckInput
	err := json.Unmarshal([]byte(`{"purchasePrice":"120000","sale":{"price":" 150000 ","commission":null}}`), &in)
	require.NoError(t, err)

	require.NotNil(t, in.PurchasePrice.Float())
	assert.Equal(t, 120000.0, *in.PurchasePrice.Float())
	sale := in.Sale.ToSale()
	require.NotNil(t, sale.Price)
	assert.Equal(t, 150000.0, *sale.Price)
	assert.Nil(t, sale.Commission)

	var absent TruckInput
	require.NoError(t, json.Unmarshal([]byte(`{"model":"Tata"}`), &absent))
	assert.Nil(t, absent.PurchasePrice.Float())
}

func TestExpenseSet_Restrict(t *testing.T) {
	e := ExpenseSet{"diesel": 10, "driver": 20, "bogus": 99}
	got := e.Restrict(TripExpenseCategories)
	assert.Equal(t, ExpenseSet{"diesel": 10, "driver": 20}, got)
	assert.Len(t, e, 3)
}

func TestFlexTime(t *testing.T) {
	var in struct {
		A *FlexTime `json:"a"`
		B *FlexTime `json:"b"`
		C *FlexTime `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"2024-03-05","b":"2024-03-05T10:00:00Z","c":null}`), &in))
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), in.A.Time)
	assert.Equal(t, 10, in.B.Hour())
	assert.Nil(t, in.C.Ptr())

	var bad struct {
		A *FlexTime `json:"a"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"a":"05/03/2024"}`), &bad))
}

func TestNormalizeRegistration(t *testing.T) {
	assert.Equal(t, "MH12AB1234", NormalizeRegistration("  mh12ab1234 "))
	assert.True(t, ValidRegistration("MH12AB1234"))
	assert.False(t, ValidRegistration("MH-12-AB-1234"))
}

func TestStatuses(t *testing.T) {
	assert.True(t, TripPending.IsActive())
	assert.True(t, TripInTransit.IsActive())
	assert.False(t, TripCompleted.IsActive())
	assert.False(t, TripStatus("paused").IsValid())
	assert.True(t, TruckMaintenance.IsValid())
	assert.False(t, TruckStatus("scrapped").IsValid())
}

func TestTrip_Date(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	trip := Trip{CreatedAt: created}
	assert.Equal(t, created, trip.Date())
	trip.StartDate = &start
	assert.Equal(t, start, trip.Date())
}
