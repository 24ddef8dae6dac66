package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Provider configuration
	Provider ProviderConfig

	// Valuation configuration
	Valuation ValuationConfig

	// Forecast configuration
	Forecast ForecastConfig

	// Cache configuration
	Cache CacheConfig

	// HTTP configuration
	HTTP HTTPConfig
}

// ProviderConfig holds market data provider configuration
type ProviderConfig struct {
	BaseURL        string
	TimeoutSeconds int
	HistoryRange   string
}

// ValuationConfig holds valuation threshold configuration
type ValuationConfig struct {
	UndervaluedThresholdPct float64
	OvervaluedThresholdPct  float64
}

// ForecastConfig holds trend forecast configuration
type ForecastConfig struct {
	HorizonDays    int
	NeutralBandPct float64
}

// CacheConfig holds market data cache configuration
type CacheConfig struct {
	TTL time.Duration
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port               int
	CORSAllowedOrigins string
	TimeoutSeconds     int
}

// Cache TTL bounds: anything shorter than a minute hammers the provider,
// anything past a day serves stale prices.
const (
	minCacheTTL = time.Minute
	maxCacheTTL = 24 * time.Hour
)

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Provider: ProviderConfig{
			BaseURL:        getEnvString("PROVIDER_BASE_URL", "https://query1.finance.yahoo.com"),
			TimeoutSeconds: getEnvInt("PROVIDER_TIMEOUT_SECONDS", 30),
			HistoryRange:   getEnvString("PROVIDER_HISTORY_RANGE", "1y"),
		},
		Valuation: ValuationConfig{
			UndervaluedThresholdPct: getEnvFloatUnbounded("VALUATION_UNDERVALUED_THRESHOLD_PCT", 15),
			OvervaluedThresholdPct:  getEnvFloatUnbounded("VALUATION_OVERVALUED_THRESHOLD_PCT", 15),
		},
		Forecast: ForecastConfig{
			HorizonDays:    getEnvInt("FORECAST_HORIZON_DAYS", 30),
			NeutralBandPct: getEnvFloatUnbounded("FORECAST_NEUTRAL_BAND_PCT", 0),
		},
		Cache: CacheConfig{
			TTL: time.Duration(getEnvInt("CACHE_TTL_SECONDS", 900)) * time.Second,
		},
		HTTP: HTTPConfig{
			Port:               getEnvInt("HTTP_PORT", 8080),
			CORSAllowedOrigins: getEnvString("CORS_ALLOWED_ORIGINS", "*"),
			TimeoutSeconds:     getEnvInt("HTTP_TIMEOUT_SECONDS", 60),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Valuation.UndervaluedThresholdPct < 0 {
		return fmt.Errorf("VALUATION_UNDERVALUED_THRESHOLD_PCT must be non-negative, got %.2f",
			c.Valuation.UndervaluedThresholdPct)
	}
	if c.Valuation.OvervaluedThresholdPct < 0 {
		return fmt.Errorf("VALUATION_OVERVALUED_THRESHOLD_PCT must be non-negative, got %.2f",
			c.Valuation.OvervaluedThresholdPct)
	}
	if c.Forecast.HorizonDays <= 0 {
		return fmt.Errorf("FORECAST_HORIZON_DAYS must be positive, got %d", c.Forecast.HorizonDays)
	}
	if c.Forecast.NeutralBandPct < 0 {
		return fmt.Errorf("FORECAST_NEUTRAL_BAND_PCT must be non-negative, got %.2f",
			c.Forecast.NeutralBandPct)
	}
	if c.Cache.TTL < minCacheTTL || c.Cache.TTL > maxCacheTTL {
		return fmt.Errorf("CACHE_TTL_SECONDS must be between %v and %v, got %v",
			minCacheTTL, maxCacheTTL, c.Cache.TTL)
	}
	if c.Provider.TimeoutSeconds <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT_SECONDS must be positive, got %d", c.Provider.TimeoutSeconds)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be a valid port, got %d", c.HTTP.Port)
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloatUnbounded(key string, defaultValue float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			BaseURL:        "",
			TimeoutSeconds: 5,
			HistoryRange:   "1y",
		},
		Valuation: ValuationConfig{
			UndervaluedThresholdPct: 15,
			OvervaluedThresholdPct:  15,
		},
		Forecast: ForecastConfig{
			HorizonDays:    30,
			NeutralBandPct: 0,
		},
		Cache: CacheConfig{
			TTL: 15 * time.Minute,
		},
		HTTP: HTTPConfig{
			Port:               8080,
			CORSAllowedOrigins: "*",
			TimeoutSeconds:     60,
		},
	}
}
