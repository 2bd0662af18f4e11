package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/vibemindai/assistant/internal/ai"
	"github.com/vibemindai/assistant/internal/chat"
	"github.com/vibemindai/assistant/internal/config"
	"github.com/vibemindai/assistant/internal/db"
	"github.com/vibemindai/assistant/internal/httpapi"
	"github.com/vibemindai/assistant/internal/logging"
	"github.com/vibemindai/assistant/internal/metrics"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func runServer(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	if addr != "" {
		cfg.HTTPAddr = addr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := logging.Init(cfg.LogLevel, cfg.LogFormat, withCaller); err != nil {
		return err
	}
	if strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := chat.NewStore(cfg.DatabaseURL, db.PoolConfig{
		MinConns:       cfg.DBMinConns,
		MaxConns:       cfg.DBMaxConns,
		CommandTimeout: cfg.DBCommandTimeout,
	})
	if err := store.Initialize(ctx); err != nil {
		return errors.Wrap(err, "database initialization failed")
	}
	defer func() {
		if err := store.Shutdown(); err != nil {
			log.Error().Err(err).Msg("database shutdown")
		}
	}()

	provider, err := newProviderRegistry(cfg).GetStream(ctx, cfg.AIProvider, "")
	if err != nil {
		return err
	}

	col := metrics.NewCollector("assistant", nil)
	svc := chat.NewService(store, chat.NewLimiter(store, cfg.SessionTurnLimit), provider, chat.WithMetrics(col))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(cfg, store, svc, col),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		log.Info().
			Str("addr", cfg.HTTPAddr).
			Str("provider", cfg.AIProvider).
			Int("turn_limit", cfg.SessionTurnLimit).
			Msg("starting assistant server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
			return err
		}
		return nil
	})

	return eg.Wait()
}

func newProviderRegistry(cfg config.Config) *ai.Registry {
	reg := ai.NewRegistry()
	reg.Register("openai", func(_ context.Context, model string) (ai.Provider, error) {
		if strings.TrimSpace(model) == "" {
			model = cfg.OpenAIModel
		}
		if cfg.OpenAIAPIKey == "" {
			log.Warn().Msg("OPENAI_API_KEY is not set; every turn will get the fallback apology")
		}
		return ai.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, model, cfg.OpenAITemperature), nil
	})
	reg.Register("ollama", func(_ context.Context, model string) (ai.Provider, error) {
		if strings.TrimSpace(model) == "" {
			model = cfg.OllamaModel
		}
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, model, cfg.OpenAITemperature), nil
	})
	return reg
}
