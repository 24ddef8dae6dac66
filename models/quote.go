package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Currency is the ISO code reported by the data provider. It only drives
// the display symbol; all computation is currency-agnostic.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyINR Currency = "INR"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyJPY Currency = "JPY"
)

// ParseCurrency maps a provider currency code to a known Currency,
// defaulting to USD for anything unrecognized.
func ParseCurrency(code string) Currency {
	switch Currency(code) {
	case CurrencyINR, CurrencyEUR, CurrencyGBP, CurrencyJPY, CurrencyUSD:
		return Currency(code)
	default:
		return CurrencyUSD
	}
}

// DisplaySymbol returns the glyph the presentation layer prefixes prices with.
func (c Currency) DisplaySymbol() string {
	switch c {
	case CurrencyINR:
		return "₹"
	case CurrencyEUR:
		return "€"
	case CurrencyGBP:
		return "£"
	case CurrencyJPY:
		return "¥"
	default:
		return "$"
	}
}

// PricePoint is one daily closing observation in a price series.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Quote is a normalized snapshot of one instrument. It is built once per
// fetch by the normalizer and never mutated afterwards; every optional
// provider field has already been defaulted, so downstream consumers never
// see a missing value.
type Quote struct {
	Symbol   string   `json:"symbol"`
	Name     string   `json:"name"`
	Currency Currency `json:"currency"`

	Price         decimal.Decimal `json:"price"`
	PreviousClose decimal.Decimal `json:"previous_close"`

	EPS  decimal.Decimal `json:"eps"`
	BVPS decimal.Decimal `json:"bvps"`

	PERatio          float64         `json:"pe_ratio"`
	PriceToBook      float64         `json:"price_to_book"`
	MarketCap        decimal.Decimal `json:"market_cap"`
	Week52High       decimal.Decimal `json:"week52_high"`
	Week52Low        decimal.Decimal `json:"week52_low"`
	DividendYieldPct float64         `json:"dividend_yield_pct"`

	Sector        string          `json:"sector"`
	Industry      string          `json:"industry"`
	Website       string          `json:"website"`
	Summary       string          `json:"summary"`
	AnalystTarget decimal.Decimal `json:"analyst_target"`
	AnalystRating string          `json:"analyst_rating"`

	Series []PricePoint `json:"series"`

	FetchedAt time.Time `json:"fetched_at"`
}

// Change returns the absolute move from the previous close. When the
// previous close was unknown the normalizer defaulted it to the current
// price, so this degrades to zero rather than failing.
func (q *Quote) Change() decimal.Decimal {
	return q.Price.Sub(q.PreviousClose)
}

// ChangePct returns the percentage move from the previous close, or zero
// when the previous close is zero.
func (q *Quote) ChangePct() float64 {
	if q.PreviousClose.IsZero() {
		return 0
	}
	pct, _ := q.Price.Sub(q.PreviousClose).
		Div(q.PreviousClose).
		Mul(decimal.NewFromInt(100)).
		Float64()
	return pct
}

// Closes returns the closing prices of the series in order.
func (q *Quote) Closes() []float64 {
	closes := make([]float64, len(q.Series))
	for i, p := range q.Series {
		closes[i] = p.Close
	}
	return closes
}

// Validate checks the record invariants: a non-empty symbol, a non-negative
// price, and a series with strictly increasing dates.
func (q *Quote) Validate() error {
	if q.Symbol == "" {
		return fmt.Errorf("quote has empty symbol")
	}
	if q.Price.IsNegative() {
		return fmt.Errorf("quote %s has negative price %s", q.Symbol, q.Price)
	}
	for i := 1; i < len(q.Series); i++ {
		if !q.Series[i].Date.After(q.Series[i-1].Date) {
			return fmt.Errorf("quote %s series not strictly ascending at index %d", q.Symbol, i)
		}
	}
	return nil
}
