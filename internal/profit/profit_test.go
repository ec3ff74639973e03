package profit

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/transportpro/internal/apperr"
)

func f(v float64) *float64 { return &v }

func TestNumericOrZero(t *testing.T) {
	var nilPtr *float64
	tests := []struct {
		name     string
		in       any
		expected float64
	}{
		{"nil", nil, 0},
		{"float", 12.5, 12.5},
		{"negative", -3.0, -3},
		{"int", 7, 7},
		{"int64", int64(9), 9},
		{"pointer", f(4), 4},
		{"nil pointer", nilPtr, 0},
		{"numeric string", " 150.25 ", 150.25},
		{"empty string", "", 0},
		{"garbage string", "abc", 0},
		{"json number", json.Number("42"), 42},
		{"bad json number", json.Number("x"), 0},
		{"bool", true, 0},
		{"NaN", math.NaN(), 0},
		{"Inf", math.Inf(1), 0},
		{"NaN string", "NaN", 0},
		{"struct", struct{}{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NumericOrZero(tt.in))
		})
	}
}

func TestTripNetProfit(t *testing.T) {
	tests := []struct {
		name     string
		payment  float64
		expenses map[string]float64
		expected float64
	}{
		{"empty expenses", 5000, map[string]float64{}, 5000},
		{"nil expenses", 5000, nil, 5000},
		{"full set", 50000, map[string]float64{"diesel": 12000, "driver": 5000, "tolls": 1500, "tyre": 0, "misc": 500}, 31000},
		{"partial set", 20000, map[string]float64{"diesel": 8000}, 12000},
		{"NaN expense counts as zero", 1000, map[string]float64{"diesel": math.NaN(), "tolls": 100}, 900},
		{"NaN payment counts as zero", math.NaN(), map[string]float64{"diesel": 100}, -100},
		{"loss", 1000, map[string]float64{"diesel": 2500}, -1500},
		{"decimal exact", 0.3, map[string]float64{"a": 0.1, "b": 0.2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TripNetProfit(tt.payment, tt.expenses)
			assert.False(t, math.IsNaN(got))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestTripNetProfit_Idempotent(t *testing.T) {
	expenses := map[string]float64{"diesel": 1234.56, "driver": 789.01}
	first := TripNetProfit(10000, expenses)
	second := TripNetProfit(10000, expenses)
	assert.Equal(t, first, second)
}

func TestTruckResaleProfit(t *testing.T) {
	t.Run("worked example", func(t *testing.T) {
		got := TruckResaleProfit(f(100000), map[string]float64{"diesel": 5000}, f(120000), f(2000))
		require.NotNil(t, got)
		assert.Equal(t, 13000.0, *got)
	})

	t.Run("missing sale price is undefined", func(t *testing.T) {
		got := TruckResaleProfit(f(100000), map[string]float64{"diesel": 5000, "bodyWork": 2000}, nil, f(2000))
		assert.Nil(t, got)
	})

	t.Run("missing purchase price is undefined", func(t *testing.T) {
		assert.Nil(t, TruckResaleProfit(nil, nil, f(120000), nil))
	})

	t.Run("commission defaults to zero", func(t *testing.T) {
		got := TruckResaleProfit(f(100000), nil, f(110000), nil)
		require.NotNil(t, got)
		assert.Equal(t, 10000.0, *got)
	})

	t.Run("net zero is distinct from undefined", func(t *testing.T) {
		got := TruckResaleProfit(f(100000), nil, f(100000), nil)
		require.NotNil(t, got)
		assert.Equal(t, 0.0, *got)
	})

	t.Run("non-numeric sale price normalizes to zero", func(t *testing.T) {
		got := TruckResaleProfit(f(100000), nil, f(math.NaN()), nil)
		require.NotNil(t, got)
		assert.Equal(t, 0.0, *got)
	})

	t.Run("NaN expense ignored", func(t *testing.T) {
		got := TruckResaleProfit(f(100), map[string]float64{"misc": math.NaN(), "tyres": 10}, f(200), nil)
		require.NotNil(t, got)
		assert.Equal(t, 90.0, *got)
	})
}

func TestAdHocTrip(t *testing.T) {
	t.Run("missing expenses", func(t *testing.T) {
		_, err := AdHocTrip(nil, 5000)
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("missing payment", func(t *testing.T) {
		_, err := AdHocTrip(map[string]any{}, nil)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("zero values are valid", func(t *testing.T) {
		b, err := AdHocTrip(map[string]any{}, 0.0)
		require.NoError(t, err)
		assert.Equal(t, 0.0, b.NetProfit)
		assert.Equal(t, 0.0, b.ProfitMargin)
	})

	t.Run("margin rounded to two places", func(t *testing.T) {
		b, err := AdHocTrip(map[string]any{"diesel": 1000.0, "tolls": "abc", "driver": "500"}, 4500.0)
		require.NoError(t, err)
		assert.Equal(t, 1500.0, b.TotalExpenses)
		assert.Equal(t, 3000.0, b.NetProfit)
		assert.Equal(t, 66.67, b.ProfitMargin)
	})
}

func TestAdHocTruck(t *testing.T) {
	t.Run("missing purchase price", func(t *testing.T) {
		_, err := AdHocTruck(nil, nil, 100.0, nil)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("missing sale price", func(t *testing.T) {
		_, err := AdHocTruck(100.0, nil, nil, nil)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("zero prices are valid", func(t *testing.T) {
		b, err := AdHocTruck(0.0, map[string]any{}, 0.0, nil)
		require.NoError(t, err)
		assert.Equal(t, 0.0, b.NetProfit)
		assert.Equal(t, 0.0, b.ProfitMargin)
	})

	t.Run("full calculation", func(t *testing.T) {
		b, err := AdHocTruck(300000.0, map[string]any{"bodyWork": 20000.0, "painting": 10000.0}, 360000.0, 5000.0)
		require.NoError(t, err)
		assert.Equal(t, 30000.0, b.TotalExpenses)
		assert.Equal(t, 25000.0, b.NetProfit)
		assert.Equal(t, 8.33, b.ProfitMargin)
	})
}
