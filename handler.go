package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"valuescan/config"
	"valuescan/services"
)

// APIHandler handles HTTP API requests
type APIHandler struct {
	app *App
	cfg *config.Config
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(app *App, cfg *config.Config) *APIHandler {
	return &APIHandler{app: app, cfg: cfg}
}

// handleHealth returns the health status of the application
func (h *APIHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, map[string]interface{}{
		"status":        "ok",
		"cache_entries": h.app.cache.Len(),
	})
}

// handleAnalyze runs the valuation engine and trend forecaster for a symbol
func (h *APIHandler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var raw string

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var req struct {
			Symbol string `json:"symbol"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.jsonError(w, "invalid request body", http.StatusBadRequest)
			return
		}
		raw = req.Symbol
	} else {
		if err := r.ParseForm(); err != nil {
			h.jsonError(w, "invalid form body", http.StatusBadRequest)
			return
		}
		raw = r.FormValue("symbol")
	}

	symbol, err := h.normalizeSymbol(raw)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.app.Analyze(r.Context(), symbol)
	if err != nil {
		h.jsonError(w, err.Error(), h.statusForError(err))
		return
	}

	h.jsonResponse(w, report)
}

// handleGetQuote returns the normalized snapshot for a symbol
func (h *APIHandler) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	symbol, err := h.normalizeSymbol(chi.URLParam(r, "symbol"))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	quote, err := h.app.FetchQuote(r.Context(), symbol)
	if err != nil {
		h.jsonError(w, err.Error(), h.statusForError(err))
		return
	}

	h.jsonResponse(w, quote)
}

// handleGetHistory returns the price series for a symbol
func (h *APIHandler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	symbol, err := h.normalizeSymbol(chi.URLParam(r, "symbol"))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rng := r.URL.Query().Get("range")
	if rng == "" {
		rng = h.cfg.Provider.HistoryRange
	}
	if !validRange(rng) {
		h.jsonError(w, fmt.Sprintf("invalid range %q", rng), http.StatusBadRequest)
		return
	}

	series, err := h.app.GetHistory(r.Context(), symbol, rng)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}

	h.jsonResponse(w, map[string]interface{}{
		"symbol": symbol,
		"range":  rng,
		"series": series,
	})
}

// handleInvalidateCache drops cached data for a symbol
func (h *APIHandler) handleInvalidateCache(w http.ResponseWriter, r *http.Request) {
	symbol, err := h.normalizeSymbol(chi.URLParam(r, "symbol"))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.app.InvalidateSymbol(symbol)
	h.jsonResponse(w, map[string]interface{}{"invalidated": symbol})
}

// statusForError maps a missing price to 404: the symbol effectively does
// not exist for us. Everything else on the fetch path is an upstream fault.
func (h *APIHandler) statusForError(err error) int {
	var missing *services.MissingPriceError
	if errors.As(err, &missing) {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

var symbolPattern = regexp.MustCompile(`^[A-Z0-9.-]+$`)

// normalizeSymbol uppercases, trims, and validates a ticker symbol
func (h *APIHandler) normalizeSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", fmt.Errorf("symbol is required")
	}
	if len(symbol) > 20 {
		return "", fmt.Errorf("symbol too long (max 20 characters)")
	}
	if !symbolPattern.MatchString(symbol) {
		return "", fmt.Errorf("invalid symbol format (alphanumeric, dots, and dashes only)")
	}
	return symbol, nil
}

// validRange accepts the chart ranges the provider understands
func validRange(rng string) bool {
	switch rng {
	case "1d", "5d", "1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max":
		return true
	default:
		return false
	}
}

// jsonResponse writes a JSON response
func (h *APIHandler) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// jsonError writes a JSON error response
func (h *APIHandler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
