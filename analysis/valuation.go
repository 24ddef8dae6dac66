// Package analysis implements the valuation and forecasting core: pure,
// deterministic functions over a normalized quote snapshot. Nothing in this
// package performs I/O or retains state between calls, so results are safe
// to cache by input.
package analysis

import (
	"math"

	"valuescan/models"
)

// grahamMultiplier is Benjamin Graham's constant: a maximum acceptable
// P/E of 15 times a maximum acceptable P/B of 1.5.
const grahamMultiplier = 22.5

// ValuationConfig controls how the margin between intrinsic value and market
// price is mapped to a verdict. Thresholds are percentages; the comparison is
// strictly greater-than, so a margin of exactly +15.0 with the default 15
// threshold is FAIRLY_VALUED. A zero threshold degenerates to a plain sign
// test.
type ValuationConfig struct {
	UndervaluedThresholdPct float64
	OvervaluedThresholdPct  float64
}

// DefaultValuationConfig uses a 15% band on both sides.
var DefaultValuationConfig = ValuationConfig{
	UndervaluedThresholdPct: 15,
	OvervaluedThresholdPct:  15,
}

// GrahamNumber returns sqrt(22.5 * EPS * BVPS) and true, or zero and false
// when either factor is non-positive. The formula is undefined for
// loss-making or negative-book-value companies (negative radicand); that is
// a domain rule, not a missing-data condition.
func GrahamNumber(eps, bvps float64) (float64, bool) {
	if eps <= 0 || bvps <= 0 {
		return 0, false
	}
	return math.Sqrt(grahamMultiplier * eps * bvps), true
}

// Evaluate computes the intrinsic value of the quoted instrument and
// classifies the market price against it. The quote's price is assumed
// positive, which the normalizer guarantees.
func Evaluate(quote *models.Quote, cfg ValuationConfig) models.ValuationResult {
	eps, _ := quote.EPS.Float64()
	bvps, _ := quote.BVPS.Float64()

	intrinsic, ok := GrahamNumber(eps, bvps)
	if !ok {
		return models.ValuationResult{Verdict: models.VerdictNotApplicable}
	}

	price, _ := quote.Price.Float64()
	margin := (intrinsic - price) / price * 100

	verdict := models.VerdictFairlyValued
	switch {
	case margin > cfg.UndervaluedThresholdPct:
		verdict = models.VerdictUndervalued
	case margin < -cfg.OvervaluedThresholdPct:
		verdict = models.VerdictOvervalued
	}

	return models.ValuationResult{
		IntrinsicValue: intrinsic,
		MarginPct:      margin,
		Verdict:        verdict,
	}
}
