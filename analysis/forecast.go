package analysis

import (
	"gonum.org/v1/gonum/stat"

	"valuescan/models"
)

// secondsPerDay converts Unix timestamps to ordinal day numbers for the
// regression's independent variable.
const secondsPerDay = 86400

// ForecastConfig controls the projection horizon and the band around the
// last close inside which a projection counts as NEUTRAL rather than
// bullish or bearish. The default band of zero keeps the classification
// effectively binary while still treating an exactly flat projection as
// neutral.
type ForecastConfig struct {
	HorizonDays    int
	NeutralBandPct float64
}

// DefaultForecastConfig projects 30 days ahead with no neutral band.
var DefaultForecastConfig = ForecastConfig{
	HorizonDays:    30,
	NeutralBandPct: 0,
}

// Forecast fits an ordinary-least-squares line over (ordinal day, close)
// pairs and projects the price HorizonDays past the last observation.
//
// Degraded inputs never fail: an empty series yields a zero-price neutral
// result, and a single observation (zero variance in x, undefined slope)
// yields the last close with a neutral direction.
func Forecast(series []models.PricePoint, cfg ForecastConfig) models.ForecastResult {
	result := models.ForecastResult{
		Direction:   models.DirectionNeutral,
		HorizonDays: cfg.HorizonDays,
	}

	if len(series) == 0 {
		return result
	}

	current := series[len(series)-1].Close
	if len(series) == 1 {
		result.ProjectedPrice = current
		return result
	}

	xs := make([]float64, len(series))
	ys := make([]float64, len(series))
	for i, p := range series {
		xs[i] = float64(p.Date.Unix()) / secondsPerDay
		ys[i] = p.Close
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	result.ProjectedPrice = alpha + beta*(xs[len(xs)-1]+float64(cfg.HorizonDays))

	result.Direction = classify(result.ProjectedPrice, current, cfg.NeutralBandPct)
	return result
}

// classify compares a projected price against the current one, applying the
// neutral band as a percentage of the current price.
func classify(projected, current, bandPct float64) models.Direction {
	if current <= 0 {
		return models.DirectionNeutral
	}
	changePct := (projected - current) / current * 100
	switch {
	case changePct > bandPct:
		return models.DirectionBullish
	case changePct < -bandPct:
		return models.DirectionBearish
	default:
		return models.DirectionNeutral
	}
}
