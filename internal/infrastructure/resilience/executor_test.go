package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExecuteBreakerDisabledCallsThrough(t *testing.T) {
	exec := NewExecutor(Config{BreakerEnabled: false})

	calls := 0
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one call, got %d", calls)
	}
}

func TestExecuteNeverRetries(t *testing.T) {
	exec := NewExecutor(Config{BreakerEnabled: true})

	calls := 0
	wantErr := errors.New("backend down")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return wantErr
	}, nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one attempt, got %d", calls)
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	exec := NewExecutor(Config{
		BreakerEnabled:     true,
		BreakerMinRequests: 3,
		BreakerOpenTimeout: time.Minute,
	})

	backendErr := errors.New("backend down")
	for i := 0; i < 3; i++ {
		_ = exec.Execute(context.Background(), "op", func(context.Context) error {
			return backendErr
		}, nil)
	}

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatal("callback must not run while breaker is open")
		return nil
	}, nil)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open-circuit error, got %v", err)
	}
}

func TestBreakerIgnoresNonRecordedFailures(t *testing.T) {
	exec := NewExecutor(Config{
		BreakerEnabled:     true,
		BreakerMinRequests: 2,
	})

	classifier := func(error) ErrorClassification {
		return ErrorClassification{RecordFailure: false}
	}

	callerErr := errors.New("bad request")
	for i := 0; i < 5; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return callerErr
		}, classifier)
		if !errors.Is(err, callerErr) {
			t.Fatalf("attempt %d: expected caller error, got %v", i, err)
		}
	}
}
