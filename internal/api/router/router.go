package router

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/wolfman30/cityvibes-assistant/internal/http/middleware"
	"github.com/wolfman30/cityvibes-assistant/pkg/logging"
)

// HomeText is served on GET /.
const HomeText = "Cityvibes WhatsApp assistant is running"

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	VerifyWebhook  http.HandlerFunc
	ReceiveWebhook http.HandlerFunc
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/", home)
	r.Get("/health", healthCheck)
	r.Route("/webhook", func(r chi.Router) {
		if cfg.VerifyWebhook != nil {
			r.Get("/", cfg.VerifyWebhook)
		}
		if cfg.ReceiveWebhook != nil {
			r.Post("/", cfg.ReceiveWebhook)
		}
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}

func home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, HomeText)
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
