package dendrite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zoobzio/pipz"
)

func TestWithTimeout(t *testing.T) {
	slowPipeline := pipz.Apply("slow", func(ctx context.Context, req *InterpretRequest) (*InterpretRequest, error) {
		select {
		case <-time.After(100 * time.Millisecond):
		case <-ctx.Done():
			return req, ctx.Err()
		}
		req.Response = "slow response"
		return req, nil
	})

	pipeline := WithTimeout(10 * time.Millisecond)(slowPipeline)

	req := &InterpretRequest{Prompt: testPrompt()}
	if _, err := pipeline.Process(context.Background(), req); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected DeadlineExceeded, got %v", err)
	}
}

func TestWithRetry(t *testing.T) {
	attempts := 0
	failingPipeline := pipz.Apply("failing", func(_ context.Context, req *InterpretRequest) (*InterpretRequest, error) {
		attempts++
		if attempts < 3 {
			return req, errors.New("temporary error")
		}
		req.Response = "success after retries"
		return req, nil
	})

	pipeline := WithRetry(3)(failingPipeline)

	result, err := pipeline.Process(context.Background(), &InterpretRequest{Prompt: testPrompt()})
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if result.Response != "success after retries" {
		t.Errorf("Unexpected response: %s", result.Response)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestWithBackoff(t *testing.T) {
	attempts := 0
	var timestamps []time.Time
	failingPipeline := pipz.Apply("failing", func(_ context.Context, req *InterpretRequest) (*InterpretRequest, error) {
		attempts++
		timestamps = append(timestamps, time.Now())
		if attempts < 3 {
			return req, errors.New("temporary error")
		}
		req.Response = "recovered"
		return req, nil
	})

	pipeline := WithBackoff(3, 10*time.Millisecond)(failingPipeline)

	result, err := pipeline.Process(context.Background(), &InterpretRequest{Prompt: testPrompt()})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.Response != "recovered" {
		t.Errorf("Unexpected response: %s", result.Response)
	}
	if len(timestamps) >= 3 {
		delay1 := timestamps[1].Sub(timestamps[0])
		delay2 := timestamps[2].Sub(timestamps[1])
		if delay2 < delay1 {
			t.Errorf("Expected increasing delays, got %v then %v", delay1, delay2)
		}
	}
}

func TestWithFallback(t *testing.T) {
	primary := pipz.Apply("primary", func(_ context.Context, req *InterpretRequest) (*InterpretRequest, error) {
		return req, errors.New("primary down")
	})

	fallbackProvider := NewMockProviderWithResponse(`{"trunk_length": 12}`)
	fallbackInterp, err := NewInterpreter("tree parameters", testSchema(), fallbackProvider)
	if err != nil {
		t.Fatalf("failed to create fallback interpreter: %v", err)
	}

	pipeline := WithFallback(fallbackInterp)(primary)

	result, err := pipeline.Process(context.Background(), &InterpretRequest{Prompt: testPrompt()})
	if err != nil {
		t.Fatalf("Expected fallback to answer, got %v", err)
	}
	if result.Response != `{"trunk_length": 12}` {
		t.Errorf("Unexpected response: %s", result.Response)
	}
}

func TestWithErrorHandler(t *testing.T) {
	var handled bool
	handler := pipz.Apply("observe", func(_ context.Context, e *pipz.Error[*InterpretRequest]) (*pipz.Error[*InterpretRequest], error) {
		handled = true
		return e, nil
	})

	failing := pipz.Apply("failing", func(_ context.Context, req *InterpretRequest) (*InterpretRequest, error) {
		return req, errors.New("boom")
	})

	pipeline := WithErrorHandler(handler)(failing)

	if _, err := pipeline.Process(context.Background(), &InterpretRequest{Prompt: testPrompt()}); err == nil {
		t.Error("Expected error to propagate")
	}
	if !handled {
		t.Error("Expected error handler to run")
	}
}

func TestOptionsCompose(t *testing.T) {
	provider := NewMockProviderWithResponse(validResponse)
	interp, err := NewInterpreter("tree parameters", testSchema(), provider,
		WithRetry(2),
		WithTimeout(time.Second),
	)
	if err != nil {
		t.Fatalf("failed to create interpreter: %v", err)
	}

	result, err := interp.Interpret(context.Background(), "a tree")
	if err != nil {
		t.Fatalf("Interpret failed: %v", err)
	}
	if result.UsedDefaults {
		t.Error("Expected a clean interpretation through the composed pipeline")
	}
}

func TestWithRetryRecoversTransportFailures(t *testing.T) {
	// One transport failure, then a good answer. Pipeline-level retry should
	// hide the failure from the interpreter loop entirely.
	provider := NewMockProvider().Script(
		[]string{"", validResponse},
		[]error{errors.New("connection reset"), nil},
	)
	interp, err := NewInterpreter("tree parameters", testSchema(), provider, WithRetry(2))
	if err != nil {
		t.Fatalf("failed to create interpreter: %v", err)
	}

	result, err := interp.Interpret(context.Background(), "a tree")
	if err != nil {
		t.Fatalf("Interpret failed: %v", err)
	}
	if result.Attempts != 1 {
		t.Errorf("Expected 1 interpreter attempt, got %d", result.Attempts)
	}
	if result.UsedDefaults {
		t.Error("Expected recovery without defaults")
	}
}
