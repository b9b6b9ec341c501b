package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"alltube/internal/config"
	"alltube/internal/extractor"
	"alltube/internal/handlers"
	"alltube/internal/history"
	"alltube/internal/logging"
	"alltube/internal/metrics"
	"alltube/internal/middleware"
	"alltube/internal/stream"
	"alltube/internal/version"
)

func main() {
	startTime := time.Now()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	// Optional history store
	var hist *history.Store
	if cfg.HistoryPath != "" {
		hist, err = history.Open(context.Background(), cfg.HistoryPath)
		if err != nil {
			logging.Fatal("Failed to open history store: %v", err)
		}
		defer hist.Close()
	}

	metrics.InitializeMetrics()
	metrics.AppInfo.WithLabelValues(version.Version, version.Get().GoVersion).Set(1)
	if hist != nil {
		collector := metrics.NewCollector(hist, 30*time.Second)
		collector.Start()
		defer collector.Stop()
	}

	ext := extractor.New(cfg)
	resolveUserAgent(ext, cfg)
	pipeline := stream.NewPipeline(cfg)
	h := handlers.New(ext, pipeline, hist, cfg)

	router := setupRouter(h, cfg)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = cfg.LogHealthChecks
	handler := middleware.Logger(loggingConfig)(middleware.Metrics(middleware.DefaultMetricsConfig())(router))

	// WriteTimeout stays zero: media streams run for as long as the media
	// does. The streaming writer enforces its own per-write timeouts.
	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go handleShutdown(srv)

	logging.Info("Listening on :%d (started in %s)", cfg.Port, time.Since(startTime).Round(time.Millisecond))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}
}

// resolveUserAgent asks the extraction tool which user agent it sends, so
// media fetches present the same one. The configured value stays as the
// fallback when the tool cannot answer.
func resolveUserAgent(ext *extractor.Client, cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ua, err := ext.UserAgent(ctx)
	if err != nil || ua == "" {
		logging.Warn("Could not resolve extractor user agent, keeping configured default: %v", err)
		return
	}
	cfg.UserAgent = ua
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/info", h.GetInfo).Methods("GET")
	api.HandleFunc("/extractors", h.GetExtractors).Methods("GET")
	api.HandleFunc("/thumbnail", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/history", h.GetHistory).Methods("GET")

	r.HandleFunc("/stream", h.GetStream).Methods("GET", "HEAD")
	r.HandleFunc("/archive", h.GetArchive).Methods("GET")

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	return r
}

func handleShutdown(srv *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logging.Info("Received %s, shutting down", sig)

	// In-flight streams get a grace period; their contexts are canceled by
	// Shutdown closing the listeners and eventually by the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	}
	logging.Info("Shutdown complete")
}
