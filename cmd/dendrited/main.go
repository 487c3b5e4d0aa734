// Command dendrited serves parameter interpretation over HTTP.
// It binds a configured LLM provider to the tree-geometry schema (or a
// schema file) and exposes POST /v1/interpret plus health and metrics
// endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/zoobzio/dendrite"
	"github.com/zoobzio/dendrite/internal/cache"
	"github.com/zoobzio/dendrite/internal/config"
	"github.com/zoobzio/dendrite/internal/logging"
	"github.com/zoobzio/dendrite/internal/server"
	"github.com/zoobzio/dendrite/providers/anthropic"
	"github.com/zoobzio/dendrite/providers/llamacpp"
	"github.com/zoobzio/dendrite/providers/openai"
	"github.com/zoobzio/dendrite/treegen"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "dendrited:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = log.Sync() }()

	bridge := logging.NewBridge(log)
	defer bridge.Close()

	schema, err := loadSchema(cfg)
	if err != nil {
		return err
	}

	provider, err := buildProvider(cfg.Provider)
	if err != nil {
		return err
	}

	interp, err := dendrite.NewInterpreter("tree geometry parameters", schema, provider,
		dendrite.WithTimeout(cfg.Provider.Timeout),
	)
	if err != nil {
		return err
	}
	interp.WithMaxRetries(cfg.Interpreter.MaxRetries)
	interp.WithDefaults(dendrite.InterpretInput{
		Temperature: cfg.Interpreter.Temperature,
		Seed:        cfg.Interpreter.Seed,
		Examples:    treegen.Examples(),
	})
	if !cfg.Interpreter.Grammar {
		interp.WithoutGrammar()
	}

	var resultCache *cache.Cache
	if cfg.Cache.Enabled {
		resultCache = cache.New(cache.Config{
			Address:  cfg.Cache.Address,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			TTL:      cfg.Cache.TTL,
		})
		defer resultCache.Close()
		if err := resultCache.Ping(context.Background()); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.New(interp, resultCache, log).Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening",
			zap.String("address", cfg.Server.Address),
			zap.String("provider", provider.Name()),
			zap.Int("parameters", schema.Len()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

func loadSchema(cfg *config.Config) (*dendrite.Schema, error) {
	if cfg.SchemaFile == "" {
		return treegen.Schema(), nil
	}
	return dendrite.LoadSchemaFile(cfg.SchemaFile)
}

func buildProvider(cfg config.ProviderConfig) (dendrite.Provider, error) {
	switch cfg.Kind {
	case "llamacpp":
		return llamacpp.New(llamacpp.Config{
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		}), nil
	case "openai":
		return openai.New(openai.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		}), nil
	case "anthropic":
		return anthropic.New(anthropic.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		}), nil
	}
	return nil, fmt.Errorf("unknown provider kind %q", cfg.Kind)
}
