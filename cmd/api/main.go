package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/cityvibes-assistant/cmd/mainconfig"
	"github.com/wolfman30/cityvibes-assistant/internal/api/router"
	"github.com/wolfman30/cityvibes-assistant/internal/app/bootstrap"
	"github.com/wolfman30/cityvibes-assistant/internal/channels/whatsapp"
	appconfig "github.com/wolfman30/cityvibes-assistant/internal/config"
	"github.com/wolfman30/cityvibes-assistant/internal/conversation"
	"github.com/wolfman30/cityvibes-assistant/internal/escalation"
	"github.com/wolfman30/cityvibes-assistant/internal/extract"
	"github.com/wolfman30/cityvibes-assistant/internal/llm"
	"github.com/wolfman30/cityvibes-assistant/internal/observability/metrics"
	"github.com/wolfman30/cityvibes-assistant/internal/relay"
	"github.com/wolfman30/cityvibes-assistant/internal/sales"
	"github.com/wolfman30/cityvibes-assistant/pkg/logging"
)

func main() {
	cfg, envLoaded := mainconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting cityvibes whatsapp assistant",
		"env", cfg.Env,
		"port", cfg.Port,
		"dotenv", envLoaded,
	)

	if err := cfg.LoadPrompts(); err != nil {
		logger.Error("failed to load prompts", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	metricsHandler, relayMetrics := setupRelayMetrics()
	handler, cleanup, err := buildHandler(context.Background(), cfg, logger, metricsHandler, relayMetrics)
	if err != nil {
		logger.Error("failed to wire server", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupRelayMetrics registers relay metrics on a dedicated registry.
func setupRelayMetrics() (http.Handler, *metrics.RelayMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewRelayMetrics(reg)
}

// buildHandler wires every component from cfg. The returned cleanup closes
// provider and Redis connections.
func buildHandler(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, metricsHandler http.Handler, relayMetrics *metrics.RelayMetrics) (http.Handler, func(), error) {
	chain, err := bootstrap.BuildLLMClient(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	var redisClient *redis.Client
	if cfg.SessionBackend == "redis" {
		redisClient = bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	}
	cleanup := func() {
		if err := chain.Close(); err != nil {
			logger.Warn("failed to close llm clients", "error", err)
		}
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}

	store, err := bootstrap.BuildSessionStore(cfg, redisClient, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	engine := conversation.NewEngine(
		llm.Observed(chain.Client, "conversation", relayMetrics),
		store,
		conversation.EngineConfig{
			Persona:     cfg.SystemPrompt,
			MaxTurns:    cfg.SessionMaxTurns,
			MaxTokens:   int32(cfg.ReplyMaxTokens),
			Temperature: float32(cfg.ReplyTemperature),
		},
		logger,
	)
	extractor := extract.New(llm.Observed(chain.Client, "extract", relayMetrics), logger)
	analyzer := sales.NewAnalyzer(
		sales.NewHTTPSource(cfg.SalesDataURL, cfg.SalesFetchTimeout),
		llm.Observed(chain.Client, "sales", relayMetrics),
		cfg.SalesPrompt,
		logger,
	)
	wa := whatsapp.NewClient(cfg.WhatsAppToken, cfg.PhoneNumberID, cfg.WhatsAppAPIBase, cfg.SendTimeout)
	escalator := escalation.NewEscalator(engine, extractor, wa, cfg.OperatorNumber, bootstrap.BuildNotifier(cfg, logger), logger)

	webhook := relay.NewHandler(relay.Deps{
		Engine:    engine,
		Sales:     analyzer,
		Sender:    wa,
		Sink:      bootstrap.BuildSheetSink(ctx, cfg, logger),
		Names:     extractor,
		Trigger:   escalation.NewTrigger(cfg.UserTriggerPhrases, cfg.BotTriggerPhrases),
		Escalator: escalator,
		IsAdmin:   cfg.IsAdmin,
		Metrics:   relayMetrics,
		Logger:    logger,
	})

	return router.New(&router.Config{
		Logger:         logger,
		VerifyWebhook:  whatsapp.VerificationHandler(cfg.VerifyToken),
		ReceiveWebhook: webhook.Webhook,
		MetricsHandler: metricsHandler,
	}), cleanup, nil
}
