package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"valuescan/models"
)

// MissingPriceError is returned when no usable current price could be
// obtained for a symbol. It is the only fatal condition in normalization;
// every other missing field degrades to a documented default.
type MissingPriceError struct {
	Symbol string
}

func (e *MissingPriceError) Error() string {
	return fmt.Sprintf("no usable price for symbol %s", e.Symbol)
}

// Raw field keys as reported by the provider's summary payload. Mirrors the
// key set of a Yahoo-style info mapping.
const (
	FieldShortName      = "shortName"
	FieldCurrency       = "currency"
	FieldPreviousClose  = "previousClose"
	FieldTrailingEPS    = "trailingEps"
	FieldBookValue      = "bookValue"
	FieldTrailingPE     = "trailingPE"
	FieldPriceToBook    = "priceToBook"
	FieldMarketCap      = "marketCap"
	FieldWeek52High     = "fiftyTwoWeekHigh"
	FieldWeek52Low      = "fiftyTwoWeekLow"
	FieldDividendYield  = "dividendYield"
	FieldSector         = "sector"
	FieldIndustry       = "industry"
	FieldWebsite        = "website"
	FieldSummary        = "longBusinessSummary"
	FieldAnalystTarget  = "targetMeanPrice"
	FieldAnalystRating  = "recommendationKey"
)

// Defaults applied when a provider field is absent.
const (
	defaultSector  = "Unknown"
	defaultSummary = "Summary unavailable."
)

// Normalize maps a raw provider field mapping into a fully populated Quote.
// The price is mandatory and obtained separately (see YahooService.GetPrice);
// a non-finite or non-positive price yields *MissingPriceError. All other
// absent fields default per the rules below:
//
//   - name            -> symbol
//   - currency        -> USD
//   - previous close  -> price (change degrades to zero)
//   - EPS, BVPS, P/E, P/B, market cap, 52-week range, dividend yield,
//     analyst target -> 0
//   - sector, industry -> "Unknown"
//   - summary         -> placeholder text
//
// The series is sorted ascending and de-duplicated by calendar day before
// the record is built, with non-finite closes dropped, so the Quote's
// strictly-increasing invariant always holds.
func Normalize(symbol string, raw map[string]any, price float64, series []models.PricePoint) (*models.Quote, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return nil, &MissingPriceError{Symbol: symbol}
	}

	priceDec := decimal.NewFromFloat(price)

	quote := &models.Quote{
		Symbol:           symbol,
		Name:             stringField(raw, FieldShortName, symbol),
		Currency:         models.ParseCurrency(stringField(raw, FieldCurrency, "")),
		Price:            priceDec,
		PreviousClose:    decimalField(raw, FieldPreviousClose, priceDec),
		EPS:              decimalField(raw, FieldTrailingEPS, decimal.Zero),
		BVPS:             decimalField(raw, FieldBookValue, decimal.Zero),
		PERatio:          floatField(raw, FieldTrailingPE, 0),
		PriceToBook:      floatField(raw, FieldPriceToBook, 0),
		MarketCap:        decimalField(raw, FieldMarketCap, decimal.Zero),
		Week52High:       decimalField(raw, FieldWeek52High, decimal.Zero),
		Week52Low:        decimalField(raw, FieldWeek52Low, decimal.Zero),
		DividendYieldPct: floatField(raw, FieldDividendYield, 0) * 100,
		Sector:           stringField(raw, FieldSector, defaultSector),
		Industry:         stringField(raw, FieldIndustry, defaultSector),
		Website:          stringField(raw, FieldWebsite, ""),
		Summary:          stringField(raw, FieldSummary, defaultSummary),
		AnalystTarget:    decimalField(raw, FieldAnalystTarget, decimal.Zero),
		AnalystRating:    stringField(raw, FieldAnalystRating, "none"),
		Series:           normalizeSeries(series),
		FetchedAt:        time.Now(),
	}

	return quote, nil
}

// normalizeSeries sorts observations by date, drops non-finite closes, and
// collapses duplicate calendar days keeping the later value.
func normalizeSeries(series []models.PricePoint) []models.PricePoint {
	clean := make([]models.PricePoint, 0, len(series))
	for _, p := range series {
		if math.IsNaN(p.Close) || math.IsInf(p.Close, 0) {
			continue
		}
		clean = append(clean, p)
	}

	sort.SliceStable(clean, func(i, j int) bool {
		return clean[i].Date.Before(clean[j].Date)
	})

	deduped := clean[:0]
	for _, p := range clean {
		if len(deduped) > 0 && sameDay(deduped[len(deduped)-1].Date, p.Date) {
			deduped[len(deduped)-1] = p
			continue
		}
		deduped = append(deduped, p)
	}

	return deduped
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// floatField extracts a numeric raw field, tolerating the JSON number types
// a decoded payload may carry.
func floatField(raw map[string]any, key string, fallback float64) float64 {
	v, ok := raw[key]
	if !ok || v == nil {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return fallback
		}
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return fallback
	}
}

func decimalField(raw map[string]any, key string, fallback decimal.Decimal) decimal.Decimal {
	v, ok := raw[key]
	if !ok || v == nil {
		return fallback
	}
	f := floatField(raw, key, math.NaN())
	if math.IsNaN(f) {
		return fallback
	}
	return decimal.NewFromFloat(f)
}

func stringField(raw map[string]any, key, fallback string) string {
	if v, ok := raw[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
