package analysis

import (
	"math"
	"testing"
	"time"

	"valuescan/models"
)

// seriesFromCloses builds a daily series starting at a fixed date.
func seriesFromCloses(closes ...float64) []models.PricePoint {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make([]models.PricePoint, len(closes))
	for i, c := range closes {
		series[i] = models.PricePoint{Date: start.AddDate(0, 0, i), Close: c}
	}
	return series
}

func TestForecast_EmptySeries(t *testing.T) {
	result := Forecast(nil, DefaultForecastConfig)

	if result.Direction != models.DirectionNeutral {
		t.Errorf("direction = %s, want NEUTRAL", result.Direction)
	}
	if result.ProjectedPrice != 0 {
		t.Errorf("projected = %v, want 0", result.ProjectedPrice)
	}
	if result.HorizonDays != 30 {
		t.Errorf("horizon = %d, want 30", result.HorizonDays)
	}
}

func TestForecast_SinglePoint(t *testing.T) {
	series := seriesFromCloses(42.5)

	result := Forecast(series, DefaultForecastConfig)

	if result.Direction != models.DirectionNeutral {
		t.Errorf("direction = %s, want NEUTRAL (slope undefined with one point)", result.Direction)
	}
	if result.ProjectedPrice != 42.5 {
		t.Errorf("projected = %v, want last close 42.5", result.ProjectedPrice)
	}
}

func TestForecast_TwoPointTrend(t *testing.T) {
	// Two points ten days apart rising 100 -> 110: slope 1.0/day, so the
	// projection 30 days past the last point lands at 140.
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	series := []models.PricePoint{
		{Date: start, Close: 100.0},
		{Date: start.AddDate(0, 0, 10), Close: 110.0},
	}

	result := Forecast(series, DefaultForecastConfig)

	if math.Abs(result.ProjectedPrice-140.0) > 1e-9 {
		t.Errorf("projected = %v, want 140.0", result.ProjectedPrice)
	}
	if result.Direction != models.DirectionBullish {
		t.Errorf("direction = %s, want BULLISH", result.Direction)
	}
}

func TestForecast_Directions(t *testing.T) {
	tests := []struct {
		name   string
		series []models.PricePoint
		cfg    ForecastConfig
		want   models.Direction
	}{
		{
			name:   "steady rise is bullish",
			series: seriesFromCloses(100, 101, 102, 103, 104, 105),
			cfg:    DefaultForecastConfig,
			want:   models.DirectionBullish,
		},
		{
			name:   "steady decline is bearish",
			series: seriesFromCloses(105, 104, 103, 102, 101, 100),
			cfg:    DefaultForecastConfig,
			want:   models.DirectionBearish,
		},
		{
			name:   "flat series is neutral",
			series: seriesFromCloses(100, 100, 100, 100),
			cfg:    DefaultForecastConfig,
			want:   models.DirectionNeutral,
		},
		{
			name:   "small drift inside neutral band",
			series: seriesFromCloses(100, 100.01, 100.02, 100.01, 100.02),
			cfg:    ForecastConfig{HorizonDays: 30, NeutralBandPct: 2},
			want:   models.DirectionNeutral,
		},
		{
			name:   "strong move overrides band",
			series: seriesFromCloses(100, 105, 110, 115, 120),
			cfg:    ForecastConfig{HorizonDays: 30, NeutralBandPct: 2},
			want:   models.DirectionBullish,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Forecast(tt.series, tt.cfg)
			if result.Direction != tt.want {
				t.Errorf("direction = %s, want %s (projected %.4f)", result.Direction, tt.want, result.ProjectedPrice)
			}
		})
	}
}

func TestForecast_HorizonScalesProjection(t *testing.T) {
	series := seriesFromCloses(100, 101, 102, 103, 104) // slope 1.0/day

	short := Forecast(series, ForecastConfig{HorizonDays: 10})
	long := Forecast(series, ForecastConfig{HorizonDays: 60})

	if math.Abs(short.ProjectedPrice-114.0) > 1e-6 {
		t.Errorf("10-day projection = %v, want 114.0", short.ProjectedPrice)
	}
	if math.Abs(long.ProjectedPrice-164.0) > 1e-6 {
		t.Errorf("60-day projection = %v, want 164.0", long.ProjectedPrice)
	}
	if short.HorizonDays != 10 || long.HorizonDays != 60 {
		t.Errorf("horizons = %d/%d, want 10/60", short.HorizonDays, long.HorizonDays)
	}
}

func TestForecast_Idempotent(t *testing.T) {
	series := seriesFromCloses(100, 98, 103, 101, 107, 105)

	first := Forecast(series, DefaultForecastConfig)
	second := Forecast(series, DefaultForecastConfig)

	if first != second {
		t.Errorf("repeated forecast differs: %+v vs %+v", first, second)
	}
}
