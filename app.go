package main

import (
	"context"
	"errors"
	"fmt"

	"valuescan/analysis"
	"valuescan/config"
	"valuescan/models"
	"valuescan/observability"
	"valuescan/services"
)

// MarketDataProvider is the fetch boundary the app depends on. The real
// implementation is services.YahooService; tests substitute a stub.
type MarketDataProvider interface {
	GetPrice(ctx context.Context, symbol string) (float64, error)
	GetSummary(ctx context.Context, symbol string) (map[string]any, error)
	GetHistory(ctx context.Context, symbol, rng string) ([]models.PricePoint, error)
}

// App wires the provider, the cache, and the valuation/forecast core
// together. The core functions stay pure; all I/O and caching happens here.
type App struct {
	cfg      *config.Config
	provider MarketDataProvider
	cache    *services.MarketDataCache
}

// NewApp creates a new App
func NewApp(cfg *config.Config, provider MarketDataProvider, cache *services.MarketDataCache) *App {
	return &App{
		cfg:      cfg,
		provider: provider,
		cache:    cache,
	}
}

// FetchQuote returns the normalized snapshot for a symbol, serving from the
// TTL cache when possible. Only a missing price fails the call; absent
// metadata and absent history degrade to the normalizer's defaults.
func (a *App) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	metrics := observability.GetMetrics()

	if cached, ok := a.cache.Get(symbol, services.CacheTypeQuote); ok {
		metrics.RecordCacheHit(services.CacheTypeQuote)
		return cached.(*models.Quote), nil
	}
	metrics.RecordCacheMiss(services.CacheTypeQuote)

	log := observability.WithSymbol(symbol)

	price, err := a.provider.GetPrice(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve price: %w", err)
	}

	raw, err := a.provider.GetSummary(ctx, symbol)
	if err != nil {
		log.Warn("summary unavailable, degrading to defaults", "error", err)
		raw = map[string]any{}
	}

	series, err := a.provider.GetHistory(ctx, symbol, a.cfg.Provider.HistoryRange)
	if err != nil {
		log.Warn("history unavailable, forecast will be neutral", "error", err)
		series = nil
	}

	quote, err := services.Normalize(symbol, raw, price, series)
	if err != nil {
		return nil, err
	}

	a.cache.Set(symbol, services.CacheTypeQuote, quote)
	return quote, nil
}

// Analyze fetches a symbol's data and runs the valuation engine and trend
// forecaster over it, bundling both results into a Report.
func (a *App) Analyze(ctx context.Context, symbol string) (*models.Report, error) {
	metrics := observability.GetMetrics()
	metrics.RecordAnalysisRequest(symbol)
	timer := metrics.NewTimer()

	quote, err := a.FetchQuote(ctx, symbol)
	if err != nil {
		timer.ObserveAnalysis(symbol, "error")
		var missing *services.MissingPriceError
		if errors.As(err, &missing) {
			metrics.RecordAnalysisError(symbol, "missing_price")
		} else {
			metrics.RecordAnalysisError(symbol, "fetch")
		}
		return nil, err
	}

	valuation := analysis.Evaluate(quote, analysis.ValuationConfig{
		UndervaluedThresholdPct: a.cfg.Valuation.UndervaluedThresholdPct,
		OvervaluedThresholdPct:  a.cfg.Valuation.OvervaluedThresholdPct,
	})
	forecast := analysis.Forecast(quote.Series, analysis.ForecastConfig{
		HorizonDays:    a.cfg.Forecast.HorizonDays,
		NeutralBandPct: a.cfg.Forecast.NeutralBandPct,
	})

	metrics.RecordValuation(string(valuation.Verdict), valuation.MarginPct)
	metrics.RecordForecast(string(forecast.Direction))
	timer.ObserveAnalysis(symbol, "ok")

	observability.WithSymbol(symbol).Info("analysis complete",
		"verdict", valuation.Verdict,
		"direction", forecast.Direction,
		"margin_pct", valuation.MarginPct)

	return models.NewReport(quote, valuation, forecast), nil
}

// GetHistory returns the price series for a symbol over the given range,
// bypassing quote normalization. Used by the charting endpoint.
func (a *App) GetHistory(ctx context.Context, symbol, rng string) ([]models.PricePoint, error) {
	cacheType := services.CacheTypeHistory + ":" + rng
	metrics := observability.GetMetrics()

	if cached, ok := a.cache.Get(symbol, cacheType); ok {
		metrics.RecordCacheHit(services.CacheTypeHistory)
		return cached.([]models.PricePoint), nil
	}
	metrics.RecordCacheMiss(services.CacheTypeHistory)

	series, err := a.provider.GetHistory(ctx, symbol, rng)
	if err != nil {
		return nil, err
	}

	a.cache.Set(symbol, cacheType, series)
	return series, nil
}

// InvalidateSymbol drops all cached data for a symbol, forcing the next
// request to hit the provider.
func (a *App) InvalidateSymbol(symbol string) {
	a.cache.InvalidateSymbol(symbol)
}
