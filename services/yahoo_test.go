package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// freshBreakers isolates each test from global circuit breaker state.
func freshBreakers(t *testing.T) {
	t.Helper()
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))
}

func newTestYahoo(t *testing.T, handler http.HandlerFunc) (*YahooService, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewYahooService(server.URL, 5*time.Second), server
}

const chartFixture = `{
  "chart": {
    "result": [{
      "meta": {"regularMarketPrice": 123.45, "currency": "USD"},
      "timestamp": [1717200000, 1717286400, 1717372800],
      "indicators": {"quote": [{"close": [100.0, null, 102.0]}]}
    }],
    "error": null
  }
}`

const chartNoMetaPriceFixture = `{
  "chart": {
    "result": [{
      "meta": {"currency": "USD"},
      "timestamp": [1717200000, 1717286400],
      "indicators": {"quote": [{"close": [null, 101.5]}]}
    }],
    "error": null
  }
}`

const chartAllNullFixture = `{
  "chart": {
    "result": [{
      "meta": {"currency": "USD"},
      "timestamp": [1717200000],
      "indicators": {"quote": [{"close": [null]}]}
    }],
    "error": null
  }
}`

const summaryFixture = `{
  "quoteSummary": {
    "result": [{
      "price": {"shortName": "Apple Inc.", "currency": "USD"},
      "summaryDetail": {
        "previousClose": {"raw": 122.0},
        "trailingPE": {"raw": 28.5},
        "marketCap": {"raw": 2900000000000},
        "fiftyTwoWeekHigh": {"raw": 199.6},
        "fiftyTwoWeekLow": {"raw": 124.2},
        "dividendYield": {"raw": 0.0044}
      },
      "defaultKeyStatistics": {
        "trailingEps": {"raw": 6.13},
        "bookValue": {"raw": 4.25},
        "priceToBook": {"raw": 35.2}
      },
      "financialData": {
        "targetMeanPrice": {"raw": 180.0},
        "recommendationKey": "buy"
      },
      "assetProfile": {
        "sector": "Technology",
        "industry": "Consumer Electronics",
        "website": "https://www.apple.com",
        "longBusinessSummary": "Designs and sells consumer electronics."
      }
    }],
    "error": null
  }
}`

func TestYahooService_GetPrice(t *testing.T) {
	freshBreakers(t)

	svc, _ := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v8/finance/chart/AAPL") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("range") != "1d" {
			t.Errorf("range = %s, want 1d", r.URL.Query().Get("range"))
		}
		fmt.Fprint(w, chartFixture)
	})

	price, err := svc.GetPrice(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetPrice() error = %v", err)
	}
	if price != 123.45 {
		t.Errorf("price = %v, want 123.45", price)
	}
}

func TestYahooService_GetPrice_FallsBackToLastClose(t *testing.T) {
	freshBreakers(t)

	svc, _ := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartNoMetaPriceFixture)
	})

	price, err := svc.GetPrice(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetPrice() error = %v", err)
	}
	if price != 101.5 {
		t.Errorf("price = %v, want last non-null close 101.5", price)
	}
}

func TestYahooService_GetPrice_MissingEverywhere(t *testing.T) {
	freshBreakers(t)

	svc, _ := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartAllNullFixture)
	})

	_, err := svc.GetPrice(context.Background(), "GHOST")
	if err == nil {
		t.Fatal("expected error")
	}

	var missing *MissingPriceError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingPriceError, got %T: %v", err, err)
	}
}

func TestYahooService_GetPrice_ProviderRejection(t *testing.T) {
	freshBreakers(t)

	svc, _ := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	})

	_, err := svc.GetPrice(context.Background(), "DELISTED")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "delisted") {
		t.Errorf("error should carry provider description, got: %v", err)
	}
}

func TestYahooService_GetSummary(t *testing.T) {
	freshBreakers(t)

	svc, _ := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v10/finance/quoteSummary/AAPL") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, summaryFixture)
	})

	raw, err := svc.GetSummary(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetSummary() error = %v", err)
	}

	if raw[FieldShortName] != "Apple Inc." {
		t.Errorf("shortName = %v", raw[FieldShortName])
	}
	if raw[FieldTrailingEPS] != 6.13 {
		t.Errorf("trailingEps = %v, want 6.13", raw[FieldTrailingEPS])
	}
	if raw[FieldBookValue] != 4.25 {
		t.Errorf("bookValue = %v, want 4.25", raw[FieldBookValue])
	}
	if raw[FieldSector] != "Technology" {
		t.Errorf("sector = %v", raw[FieldSector])
	}
	if raw[FieldAnalystRating] != "buy" {
		t.Errorf("recommendationKey = %v", raw[FieldAnalystRating])
	}
	if _, ok := raw["beta"]; ok {
		t.Error("unexpected key in raw mapping")
	}
}

func TestYahooService_GetHistory(t *testing.T) {
	freshBreakers(t)

	svc, _ := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("range") != "1y" {
			t.Errorf("range = %s, want 1y", r.URL.Query().Get("range"))
		}
		fmt.Fprint(w, chartFixture)
	})

	series, err := svc.GetHistory(context.Background(), "AAPL", "1y")
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}

	// Null close in the middle is skipped
	if len(series) != 2 {
		t.Fatalf("series length = %d, want 2", len(series))
	}
	if series[0].Close != 100.0 || series[1].Close != 102.0 {
		t.Errorf("closes = %v/%v, want 100/102", series[0].Close, series[1].Close)
	}
	if !series[0].Date.Before(series[1].Date) {
		t.Error("series dates should ascend")
	}
}

func TestYahooService_GetSummary_RetriesServerErrors(t *testing.T) {
	freshBreakers(t)

	var calls int
	svc, _ := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, summaryFixture)
	})

	raw, err := svc.GetSummary(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetSummary() after retries error = %v", err)
	}
	if raw[FieldShortName] != "Apple Inc." {
		t.Errorf("shortName = %v", raw[FieldShortName])
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestYahooService_GetSummary_ExhaustedRetriesCountOnceAgainstBreaker(t *testing.T) {
	freshBreakers(t)

	var calls int
	svc, _ := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := svc.GetSummary(context.Background(), "AAPL"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4 (initial attempt plus 3 retries)", calls)
	}

	// All attempts happen inside one breaker execution
	status := GetGlobalRegistry().Status()[BreakerYahooSummary]
	if status.Requests != 1 {
		t.Errorf("breaker requests = %d, want 1", status.Requests)
	}
	if status.TotalFailures != 1 {
		t.Errorf("breaker failures = %d, want 1", status.TotalFailures)
	}
}

func TestYahooService_RetriesServerErrors(t *testing.T) {
	freshBreakers(t)

	var calls int
	svc, _ := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, chartFixture)
	})

	price, err := svc.GetPrice(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetPrice() after retries error = %v", err)
	}
	if price != 123.45 {
		t.Errorf("price = %v, want 123.45", price)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestYahooService_SendsUserAgent(t *testing.T) {
	freshBreakers(t)

	svc, _ := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla") {
			t.Errorf("User-Agent = %q, want browser-looking value", ua)
		}
		fmt.Fprint(w, chartFixture)
	})

	if _, err := svc.GetPrice(context.Background(), "AAPL"); err != nil {
		t.Fatalf("GetPrice() error = %v", err)
	}
}
