package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCircuitBreakerRegistry_GetBreaker(t *testing.T) {
	registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)

	breaker1 := registry.GetBreaker(BreakerYahooChart)
	if breaker1 == nil {
		t.Fatal("expected breaker to be created")
	}

	// Second call returns the same instance
	breaker2 := registry.GetBreaker(BreakerYahooChart)
	if breaker1 != breaker2 {
		t.Error("expected same breaker instance")
	}

	breaker3 := registry.GetBreaker(BreakerYahooSummary)
	if breaker1 == breaker3 {
		t.Error("expected different breaker for different endpoint")
	}
}

func TestCircuitBreakerRegistry_Execute_Success(t *testing.T) {
	registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)

	result, err := registry.Execute(context.Background(), "test-endpoint", func() (any, error) {
		return "success", nil
	})

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if result != "success" {
		t.Errorf("expected 'success', got %v", result)
	}
}

func TestCircuitBreakerRegistry_Execute_TripsOnRepeatedFailure(t *testing.T) {
	registry := NewCircuitBreakerRegistry(CircuitBreakerConfig{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
	})

	failing := errors.New("upstream down")
	for i := 0; i < 5; i++ {
		registry.Execute(context.Background(), "flaky", func() (any, error) {
			return nil, failing
		})
	}

	// Breaker is now open: calls are rejected without invoking fn
	invoked := false
	_, err := registry.Execute(context.Background(), "flaky", func() (any, error) {
		invoked = true
		return nil, nil
	})

	if err == nil {
		t.Fatal("expected rejection from open breaker")
	}
	if !strings.Contains(err.Error(), "circuit breaker open") {
		t.Errorf("expected open-breaker error, got: %v", err)
	}
	if invoked {
		t.Error("function should not run while breaker is open")
	}

	status := registry.Status()["flaky"]
	if status.State != "open" {
		t.Errorf("breaker state = %s, want open", status.State)
	}
}

func TestCircuitBreakerRegistry_Execute_ContextAlreadyDone(t *testing.T) {
	registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := registry.Execute(ctx, "test-endpoint", func() (any, error) {
		return "unreachable", nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
}

func TestWithCircuitBreaker_TypedResult(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	got, err := WithCircuitBreaker(context.Background(), "typed", func() (int, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("result = %d, want 42", got)
	}

	_, err = WithCircuitBreaker(context.Background(), "typed", func() (int, error) {
		return 0, errors.New("boom")
	})
	if err == nil {
		t.Error("expected error to propagate")
	}
}
