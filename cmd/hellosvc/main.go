package main

import (
	"context"
	"crypto/tls"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/awahed/hellosvc/internal/api"
	"github.com/awahed/hellosvc/internal/config"
	"github.com/awahed/hellosvc/internal/ratelimit"
	"github.com/awahed/hellosvc/internal/tlsutil"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config file (optional, defaults apply without one)")
	flag.Parse()

	// Configure structured logging
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// A .env file, if present, feeds the environment overrides.
	godotenv.Load()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if level := cfg.Log.SlogLevel(); level != slog.LevelInfo {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})))
	}

	// Create rate limiter (optional)
	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter, err = ratelimit.New(
			cfg.RateLimit.RequestsPerInterval,
			cfg.RateLimit.Interval,
			cfg.RateLimit.CleanupInterval,
			cfg.RateLimit.StaleAfter,
		)
		if err != nil {
			slog.Error("failed to create rate limiter", "error", err)
			os.Exit(1)
		}
		limiter.SetTrustedProxies(cfg.RateLimit.TrustedProxies)
		defer limiter.Close()
	}

	// Set up TLS (optional, plain HTTP by default)
	var tlsConfig *tls.Config
	if cfg.TLS.Cert != "" && cfg.TLS.Key != "" {
		certLoader, err := tlsutil.NewCertificateLoader(cfg.TLS.Cert, cfg.TLS.Key)
		if err != nil {
			slog.Error("failed to load TLS certificate", "error", err)
			os.Exit(1)
		}
		defer certLoader.Close()
		tlsConfig = tlsutil.NewServerTLSConfig(certLoader)
	}

	// Create metrics collector and server (optional)
	var metrics *api.Collector
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metrics = api.NewCollector()
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", metrics.Handler())
		metricsServer = &http.Server{
			Addr:    cfg.Metrics.ListenAddr,
			Handler: metricsMux,
		}
	}

	// Build the route table and server
	handler := api.NewHandler(cfg.Responses)
	server := api.NewServer(api.ServerDeps{
		Handler:      api.NewRouter(handler),
		RateLimiter:  limiter,
		Metrics:      metrics,
		ListenAddr:   cfg.Server.ListenAddr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		TLSConfig:    tlsConfig,
	})

	slog.Info("hellosvc configured",
		"listen_addr", cfg.Server.ListenAddr,
		"routes", len(handler.Routes()),
		"rate_limit", cfg.RateLimit.Enabled,
		"metrics", cfg.Metrics.Enabled,
		"tls", tlsConfig != nil,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	errCh := make(chan error, 2)

	go func() {
		errCh <- server.Start()
	}()

	if metricsServer != nil {
		go func() {
			slog.Info("starting metrics server", "addr", metricsServer.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()
	}

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	// Graceful shutdown with timeout; force exit if draining hangs
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	go func() {
		<-shutdownCtx.Done()
		if shutdownCtx.Err() == context.DeadlineExceeded {
			slog.Error("graceful shutdown timed out, forcing exit")
			os.Exit(1)
		}
	}()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown error", "error", err)
		}
	}

	slog.Info("hellosvc stopped gracefully")
}
