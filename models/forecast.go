package models

// Direction classifies the projected trend of a price series.
type Direction string

const (
	DirectionBullish Direction = "BULLISH"
	DirectionBearish Direction = "BEARISH"
	DirectionNeutral Direction = "NEUTRAL"
)

// ForecastResult is the output of the trend forecaster.
//
// An empty price series yields ProjectedPrice 0 with a NEUTRAL direction;
// that is an explicit degraded result, not an error.
type ForecastResult struct {
	ProjectedPrice float64   `json:"projected_price"`
	Direction      Direction `json:"direction"`
	HorizonDays    int       `json:"horizon_days"`
}
