package models

import (
	"time"

	"github.com/google/uuid"
)

// Report bundles everything the presentation layer needs to render one
// instrument: the normalized snapshot plus both derived results.
type Report struct {
	ID          uuid.UUID       `json:"id"`
	Symbol      string          `json:"symbol"`
	Quote       *Quote          `json:"quote"`
	Valuation   ValuationResult `json:"valuation"`
	Forecast    ForecastResult  `json:"forecast"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// NewReport creates a Report for the given quote and results.
func NewReport(quote *Quote, valuation ValuationResult, forecast ForecastResult) *Report {
	return &Report{
		ID:          uuid.New(),
		Symbol:      quote.Symbol,
		Quote:       quote,
		Valuation:   valuation,
		Forecast:    forecast,
		GeneratedAt: time.Now(),
	}
}
