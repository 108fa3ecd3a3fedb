package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var showVersion bool
	cfg := loadConfigFromEnv()

	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.StringVar(&cfg.Host, "host", cfg.Host, "HTTP server host")
	flag.StringVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Root directory for buckets")
	flag.Int64Var(&cfg.MaxFileSize, "max-file-size", cfg.MaxFileSize, "Maximum accepted object size in bytes")
	flag.BoolVar(&cfg.EnableCORS, "enable-cors", cfg.EnableCORS, "Enable CORS middleware")
	flag.BoolVar(&cfg.EnableMetrics, "enable-metrics", cfg.EnableMetrics, "Expose /metrics")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Logging level (debug, info, warn, error)")
	flag.IntVar(&cfg.MaxClients, "max-clients", cfg.MaxClients, "Maximum concurrent in-flight requests")
	flag.Parse()

	if showVersion {
		fmt.Printf("sevino %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		os.Exit(0)
	}

	log := newLogger(cfg.LogLevel)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.WithError(err).Fatal("failed to create data directory")
	}

	if cfg.EnableMetrics {
		registerMetrics()
	}

	engine, err := NewEngine(cfg.DataDir, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize storage engine")
	}

	handler := NewHandler(engine, cfg, log)

	wrapped := CORSMiddleware(cfg, LoggingMiddleware(log, MaxClientsMiddleware(cfg.MaxClients)(handler)))

	addr := cfg.Host + ":" + cfg.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           wrapped,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       6 * time.Hour,
		WriteTimeout:      6 * time.Hour,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"version":  version,
			"addr":     addr,
			"data_dir": cfg.DataDir,
		}).Info("starting sevino")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced shutdown")
	}
	log.Info("server stopped")
}
