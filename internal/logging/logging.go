// Package logging builds the daemon's zap logger and bridges dendrite's
// capitan hook events into it, so every interpretation attempt shows up in
// structured logs without the library depending on a logging framework.
package logging

import (
	"context"

	"github.com/zoobzio/capitan"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zoobzio/dendrite"
)

// New builds a zap logger. Format "json" gives production encoding,
// anything else the development console encoder.
func New(levelStr, format string) *zap.Logger {
	level := zapcore.InfoLevel
	switch levelStr {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	logger, _ := cfg.Build()
	return logger
}

// Bridge subscribes to dendrite's hook signals and forwards them to the
// logger. Close detaches all listeners.
type Bridge struct {
	listeners []interface{ Close() }
}

// NewBridge wires the interpret and provider signals to log.
func NewBridge(log *zap.Logger) *Bridge {
	b := &Bridge{}

	b.hook(dendrite.InterpretStarted, func(e *capitan.Event) {
		requestID, _ := dendrite.RequestIDKey.From(e)
		provider, _ := dendrite.ProviderKey.From(e)
		prompt, _ := dendrite.PromptKey.From(e)
		temp, _ := dendrite.TemperatureKey.From(e)
		log.Info("interpret started",
			zap.String("request_id", requestID),
			zap.String("provider", provider),
			zap.String("prompt", prompt),
			zap.Float64("temperature", temp),
		)
	})

	b.hook(dendrite.InterpretCompleted, func(e *capitan.Event) {
		requestID, _ := dendrite.RequestIDKey.From(e)
		attempts, _ := dendrite.AttemptsKey.From(e)
		confidence, _ := dendrite.ConfidenceKey.From(e)
		defaulted, _ := dendrite.DefaultedKeysKey.From(e)
		clipped, _ := dendrite.ClippedKeysKey.From(e)
		log.Info("interpret completed",
			zap.String("request_id", requestID),
			zap.Int("attempts", attempts),
			zap.Float64("confidence", confidence),
			zap.Int("defaulted_keys", defaulted),
			zap.Int("clipped_keys", clipped),
		)
	})

	b.hook(dendrite.AttemptFailed, func(e *capitan.Event) {
		requestID, _ := dendrite.RequestIDKey.From(e)
		attempt, _ := dendrite.AttemptKey.From(e)
		errMsg, _ := dendrite.ErrorKey.From(e)
		errType, _ := dendrite.ErrorTypeKey.From(e)
		log.Warn("interpret attempt failed",
			zap.String("request_id", requestID),
			zap.Int("attempt", attempt),
			zap.String("error", errMsg),
			zap.String("error_type", errType),
		)
	})

	b.hook(dendrite.FallbackApplied, func(e *capitan.Event) {
		requestID, _ := dendrite.RequestIDKey.From(e)
		attempts, _ := dendrite.AttemptsKey.From(e)
		defaulted, _ := dendrite.DefaultedKeysKey.From(e)
		clipped, _ := dendrite.ClippedKeysKey.From(e)
		log.Warn("interpret fell back to defaults",
			zap.String("request_id", requestID),
			zap.Int("attempts", attempts),
			zap.Int("defaulted_keys", defaulted),
			zap.Int("clipped_keys", clipped),
		)
	})

	b.hook(dendrite.ProviderCallCompleted, func(e *capitan.Event) {
		provider, _ := dendrite.ProviderKey.From(e)
		attempt, _ := dendrite.AttemptKey.From(e)
		durationMs, _ := dendrite.DurationMsKey.From(e)
		totalTokens, _ := dendrite.TotalTokensKey.From(e)
		log.Debug("provider call completed",
			zap.String("provider", provider),
			zap.Int("attempt", attempt),
			zap.Int("duration_ms", durationMs),
			zap.Int("total_tokens", totalTokens),
		)
	})

	b.hook(dendrite.ProviderCallFailed, func(e *capitan.Event) {
		provider, _ := dendrite.ProviderKey.From(e)
		attempt, _ := dendrite.AttemptKey.From(e)
		durationMs, _ := dendrite.DurationMsKey.From(e)
		errMsg, _ := dendrite.ErrorKey.From(e)
		log.Error("provider call failed",
			zap.String("provider", provider),
			zap.Int("attempt", attempt),
			zap.Int("duration_ms", durationMs),
			zap.String("error", errMsg),
		)
	})

	return b
}

func (b *Bridge) hook(signal capitan.Signal, fn func(*capitan.Event)) {
	listener := capitan.Hook(signal, func(_ context.Context, e *capitan.Event) {
		fn(e)
	})
	b.listeners = append(b.listeners, listener)
}

// Close detaches all hook listeners.
func (b *Bridge) Close() {
	for _, l := range b.listeners {
		l.Close()
	}
	b.listeners = nil
}
