package dendrite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/capitan"
)

func waitForHook(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for hook")
	}
}

func TestInterpretStartedHook(t *testing.T) {
	var wg sync.WaitGroup
	var requestIDReceived string
	var providerReceived string
	var promptReceived string
	var tempReceived float64

	wg.Add(1)
	listener := capitan.Hook(InterpretStarted, func(_ context.Context, e *capitan.Event) {
		defer wg.Done()
		requestIDReceived, _ = RequestIDKey.From(e)
		providerReceived, _ = ProviderKey.From(e)
		promptReceived, _ = PromptKey.From(e)
		tempReceived, _ = TemperatureKey.From(e)
	})
	defer listener.Close()

	provider := NewMockProviderWithResponse(validResponse)
	interp, err := NewInterpreter("tree parameters", testSchema(), provider)
	if err != nil {
		t.Fatalf("failed to create interpreter: %v", err)
	}
	_, _ = interp.Interpret(context.Background(), "a tall pine")

	waitForHook(t, &wg)

	if requestIDReceived == "" {
		t.Error("Request ID was not set in hook")
	}
	if providerReceived != "mock" {
		t.Errorf("Expected provider 'mock', got %q", providerReceived)
	}
	if promptReceived != "a tall pine" {
		t.Errorf("Expected prompt 'a tall pine', got %q", promptReceived)
	}
	if tempReceived == 0 {
		t.Error("Temperature was not set in hook")
	}
}

func TestInterpretCompletedHook(t *testing.T) {
	var wg sync.WaitGroup
	var attemptsReceived int
	var confidenceReceived float64
	var defaultedReceived int

	wg.Add(1)
	listener := capitan.Hook(InterpretCompleted, func(_ context.Context, e *capitan.Event) {
		defer wg.Done()
		attemptsReceived, _ = AttemptsKey.From(e)
		confidenceReceived, _ = ConfidenceKey.From(e)
		defaultedReceived, _ = DefaultedKeysKey.From(e)
	})
	defer listener.Close()

	provider := NewMockProviderWithResponse(validResponse)
	interp, err := NewInterpreter("tree parameters", testSchema(), provider)
	if err != nil {
		t.Fatalf("failed to create interpreter: %v", err)
	}
	_, _ = interp.Interpret(context.Background(), "a tall pine")

	waitForHook(t, &wg)

	if attemptsReceived != 1 {
		t.Errorf("Expected 1 attempt, got %d", attemptsReceived)
	}
	if confidenceReceived <= 0 {
		t.Error("Expected positive confidence")
	}
	if defaultedReceived != 0 {
		t.Errorf("Expected 0 defaulted keys, got %d", defaultedReceived)
	}
}

func TestAttemptFailedHook(t *testing.T) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errorTypes []string

	wg.Add(DefaultMaxRetries + 1)
	listener := capitan.Hook(AttemptFailed, func(_ context.Context, e *capitan.Event) {
		defer wg.Done()
		errType, _ := ErrorTypeKey.From(e)
		mu.Lock()
		errorTypes = append(errorTypes, errType)
		mu.Unlock()
	})
	defer listener.Close()

	provider := NewMockProviderWithResponse("not json")
	interp, err := NewInterpreter("tree parameters", testSchema(), provider)
	if err != nil {
		t.Fatalf("failed to create interpreter: %v", err)
	}
	_, _ = interp.Interpret(context.Background(), "a tall pine")

	waitForHook(t, &wg)

	mu.Lock()
	defer mu.Unlock()
	if len(errorTypes) != DefaultMaxRetries+1 {
		t.Fatalf("Expected %d failed attempts, got %d", DefaultMaxRetries+1, len(errorTypes))
	}
	for _, errType := range errorTypes {
		if errType != "parse_error" {
			t.Errorf("Expected parse_error, got %q", errType)
		}
	}
}

func TestFallbackAppliedHook(t *testing.T) {
	var wg sync.WaitGroup
	var attemptsReceived int
	var defaultedReceived int

	wg.Add(1)
	listener := capitan.Hook(FallbackApplied, func(_ context.Context, e *capitan.Event) {
		defer wg.Done()
		attemptsReceived, _ = AttemptsKey.From(e)
		defaultedReceived, _ = DefaultedKeysKey.From(e)
	})
	defer listener.Close()

	provider := NewMockProviderWithResponse("not json")
	interp, err := NewInterpreter("tree parameters", testSchema(), provider)
	if err != nil {
		t.Fatalf("failed to create interpreter: %v", err)
	}
	_, _ = interp.Interpret(context.Background(), "a tall pine")

	waitForHook(t, &wg)

	if attemptsReceived != DefaultMaxRetries+1 {
		t.Errorf("Expected %d attempts, got %d", DefaultMaxRetries+1, attemptsReceived)
	}
	if defaultedReceived != testSchema().Len() {
		t.Errorf("Expected all %d keys defaulted, got %d", testSchema().Len(), defaultedReceived)
	}
}

func TestProviderCallCompletedHook(t *testing.T) {
	var wg sync.WaitGroup
	var providerReceived string
	var totalTokens int

	wg.Add(1)
	listener := capitan.Hook(ProviderCallCompleted, func(_ context.Context, e *capitan.Event) {
		defer wg.Done()
		providerReceived, _ = ProviderKey.From(e)
		totalTokens, _ = TotalTokensKey.From(e)
	})
	defer listener.Close()

	provider := NewMockProviderWithResponse(validResponse)
	interp, err := NewInterpreter("tree parameters", testSchema(), provider)
	if err != nil {
		t.Fatalf("failed to create interpreter: %v", err)
	}
	_, _ = interp.Interpret(context.Background(), "a tall pine")

	waitForHook(t, &wg)

	if providerReceived != "mock" {
		t.Errorf("Expected provider 'mock', got %q", providerReceived)
	}
	if totalTokens == 0 {
		t.Error("Expected token usage in hook")
	}
}
