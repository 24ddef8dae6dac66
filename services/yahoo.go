package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"valuescan/models"
	"valuescan/observability"
)

const (
	defaultYahooBaseURL = "https://query1.finance.yahoo.com"
	summaryModules      = "price,summaryDetail,defaultKeyStatistics,financialData,assetProfile"

	// Yahoo rejects requests without a browser-looking user agent.
	yahooUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// YahooService fetches quotes, fundamentals, and price history from the
// Yahoo Finance chart and quoteSummary endpoints.
type YahooService struct {
	httpClient *http.Client
	baseURL    string
}

// NewYahooService creates a new YahooService instance
func NewYahooService(baseURL string, timeout time.Duration) *YahooService {
	if baseURL == "" {
		baseURL = defaultYahooBaseURL
	}
	return &YahooService{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// GetPrice resolves the current price for a symbol using a two-step
// fallback: the chart endpoint's regular market price, then the last close
// of a one-day history. When neither yields a price the call fails with
// *MissingPriceError, which is fatal for the request.
func (s *YahooService) GetPrice(ctx context.Context, symbol string) (float64, error) {
	body, err := WithCircuitBreaker(ctx, BreakerYahooChart, func() ([]byte, error) {
		return s.fetchChart(ctx, symbol, "1d")
	})
	if err != nil {
		return 0, fmt.Errorf("failed to fetch price for %s: %w", symbol, err)
	}

	if price := gjson.GetBytes(body, "chart.result.0.meta.regularMarketPrice"); price.Exists() && price.Float() > 0 {
		return price.Float(), nil
	}

	// Fallback: last non-null close of the 1-day window
	closes := gjson.GetBytes(body, "chart.result.0.indicators.quote.0.close").Array()
	for i := len(closes) - 1; i >= 0; i-- {
		if closes[i].Type != gjson.Null && closes[i].Float() > 0 {
			return closes[i].Float(), nil
		}
	}

	return 0, &MissingPriceError{Symbol: symbol}
}

// GetSummary fetches company metadata and fundamentals, returning a raw
// field mapping keyed as the normalizer expects. Callers treat a failure
// here as non-fatal: the quote degrades to defaults instead.
func (s *YahooService) GetSummary(ctx context.Context, symbol string) (map[string]any, error) {
	// Retry inside the breaker, matching fetchChart: one logical call
	// counts once against the breaker no matter how many attempts it took.
	body, err := WithCircuitBreaker(ctx, BreakerYahooSummary, func() ([]byte, error) {
		endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s", s.baseURL, url.PathEscape(symbol))
		params := url.Values{}
		params.Set("modules", summaryModules)

		var body []byte
		err := WithRetry(ctx, DefaultRetryConfig, func() error {
			var err error
			body, err = s.get(ctx, endpoint+"?"+params.Encode(), "summary")
			return err
		})
		return body, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch summary for %s: %w", symbol, err)
	}

	result := gjson.GetBytes(body, "quoteSummary.result.0")
	if !result.Exists() {
		if desc := gjson.GetBytes(body, "quoteSummary.error.description"); desc.Exists() {
			return nil, fmt.Errorf("summary for %s rejected: %s", symbol, desc.String())
		}
		return nil, fmt.Errorf("summary for %s missing result", symbol)
	}

	raw := make(map[string]any)
	putString(raw, FieldShortName, result.Get("price.shortName"))
	putString(raw, FieldCurrency, result.Get("price.currency"))
	putFloat(raw, FieldPreviousClose, result.Get("summaryDetail.previousClose.raw"))
	putFloat(raw, FieldTrailingEPS, result.Get("defaultKeyStatistics.trailingEps.raw"))
	putFloat(raw, FieldBookValue, result.Get("defaultKeyStatistics.bookValue.raw"))
	putFloat(raw, FieldTrailingPE, result.Get("summaryDetail.trailingPE.raw"))
	putFloat(raw, FieldPriceToBook, result.Get("defaultKeyStatistics.priceToBook.raw"))
	putFloat(raw, FieldMarketCap, result.Get("summaryDetail.marketCap.raw"))
	putFloat(raw, FieldWeek52High, result.Get("summaryDetail.fiftyTwoWeekHigh.raw"))
	putFloat(raw, FieldWeek52Low, result.Get("summaryDetail.fiftyTwoWeekLow.raw"))
	putFloat(raw, FieldDividendYield, result.Get("summaryDetail.dividendYield.raw"))
	putString(raw, FieldSector, result.Get("assetProfile.sector"))
	putString(raw, FieldIndustry, result.Get("assetProfile.industry"))
	putString(raw, FieldWebsite, result.Get("assetProfile.website"))
	putString(raw, FieldSummary, result.Get("assetProfile.longBusinessSummary"))
	putFloat(raw, FieldAnalystTarget, result.Get("financialData.targetMeanPrice.raw"))
	putString(raw, FieldAnalystRating, result.Get("financialData.recommendationKey"))

	return raw, nil
}

// GetHistory fetches daily closes for the given range (e.g. "1y").
// Null closes in the payload are skipped.
func (s *YahooService) GetHistory(ctx context.Context, symbol, rng string) ([]models.PricePoint, error) {
	body, err := WithCircuitBreaker(ctx, BreakerYahooChart, func() ([]byte, error) {
		return s.fetchChart(ctx, symbol, rng)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", symbol, err)
	}

	timestamps := gjson.GetBytes(body, "chart.result.0.timestamp").Array()
	closes := gjson.GetBytes(body, "chart.result.0.indicators.quote.0.close").Array()
	if len(timestamps) != len(closes) {
		return nil, fmt.Errorf("history for %s malformed: %d timestamps vs %d closes",
			symbol, len(timestamps), len(closes))
	}

	series := make([]models.PricePoint, 0, len(closes))
	for i, c := range closes {
		if c.Type == gjson.Null {
			continue
		}
		series = append(series, models.PricePoint{
			Date:  time.Unix(timestamps[i].Int(), 0).UTC(),
			Close: c.Float(),
		})
	}

	return series, nil
}

// fetchChart retrieves the raw chart payload for a symbol and range,
// retrying transient failures.
func (s *YahooService) fetchChart(ctx context.Context, symbol, rng string) ([]byte, error) {
	var body []byte

	err := WithRetry(ctx, DefaultRetryConfig, func() error {
		endpoint := fmt.Sprintf("%s/v8/finance/chart/%s", s.baseURL, url.PathEscape(symbol))
		params := url.Values{}
		params.Set("range", rng)
		params.Set("interval", "1d")

		var err error
		body, err = s.get(ctx, endpoint+"?"+params.Encode(), "chart")
		return err
	})
	if err != nil {
		return nil, err
	}

	if desc := gjson.GetBytes(body, "chart.error.description"); desc.Exists() {
		return nil, fmt.Errorf("chart request rejected: %s", desc.String())
	}

	return body, nil
}

func (s *YahooService) get(ctx context.Context, rawURL, operation string) ([]byte, error) {
	start := time.Now()
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest("yahoo", operation)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", yahooUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		metrics.RecordExternalAPIError("yahoo", operation, "transport")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	metrics.RecordExternalAPIDuration("yahoo", operation, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		metrics.RecordExternalAPIError("yahoo", operation, fmt.Sprintf("http_%d", resp.StatusCode))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordExternalAPIError("yahoo", operation, "read")
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return body, nil
}

func putFloat(raw map[string]any, key string, res gjson.Result) {
	if res.Exists() && res.Type != gjson.Null {
		raw[key] = res.Float()
	}
}

func putString(raw map[string]any, key string, res gjson.Result) {
	if res.Exists() && res.String() != "" {
		raw[key] = res.String()
	}
}
