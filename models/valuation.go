package models

// Verdict classifies a market price against the computed intrinsic value.
type Verdict string

const (
	VerdictUndervalued   Verdict = "UNDERVALUED"
	VerdictOvervalued    Verdict = "OVERVALUED"
	VerdictFairlyValued  Verdict = "FAIRLY_VALUED"
	VerdictNotApplicable Verdict = "NOT_APPLICABLE"
)

// ValuationResult is the output of the valuation engine. It is derived,
// recomputed on every call, and never persisted.
//
// When the Graham Number is undefined (EPS or BVPS non-positive) the verdict
// is NOT_APPLICABLE and IntrinsicValue holds zero as the sentinel; callers
// must check Applicable before reading IntrinsicValue or MarginPct.
type ValuationResult struct {
	IntrinsicValue float64 `json:"intrinsic_value"`
	MarginPct      float64 `json:"margin_pct"`
	Verdict        Verdict `json:"verdict"`
}

// Applicable reports whether the intrinsic value could be computed.
func (r ValuationResult) Applicable() bool {
	return r.Verdict != VerdictNotApplicable
}
