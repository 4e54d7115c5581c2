package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/qtccc/qtc-assignment-2/internal/api"
	"github.com/qtccc/qtc-assignment-2/internal/config"
	"github.com/qtccc/qtc-assignment-2/internal/kmeans"
	"github.com/qtccc/qtc-assignment-2/internal/server"
	"github.com/qtccc/qtc-assignment-2/internal/session"
	"github.com/qtccc/qtc-assignment-2/internal/storage"
)

func main() {
	cfg := config.LoadConfig()

	// Configure structured logging
	handlerOpts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, handlerOpts)
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("Starting k-means server...")
	slog.Info("Configuration loaded", "data_dir", cfg.DataDir, "port", cfg.Port)

	// Initialize database
	db, err := storage.NewDatabase(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Initialize(); err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	var opts []kmeans.Option
	if cfg.Clustering.Tolerance > 0 {
		opts = append(opts, kmeans.WithTolerance(cfg.Clustering.Tolerance))
	}
	if cfg.Clustering.MaxIterations > 0 {
		opts = append(opts, kmeans.WithMaxIterations(cfg.Clustering.MaxIterations))
	}
	sessions, err := session.NewManager(cfg.Sessions.TTL, cfg.Sessions.MaxSessions, opts...)
	if err != nil {
		slog.Error("Invalid clustering configuration", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := server.NewMetrics(reg, sessions.Len)

	// Build HTTP router
	r := server.NewRouter(
		server.RequestLogger,
		metrics.Middleware,
		server.RateLimitMiddleware(server.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)),
	)

	r.Get("/health", server.HealthHandler(cfg, db, sessions))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	api.Mount(r, api.Deps{
		Sessions:   sessions,
		DB:         db,
		Metrics:    metrics,
		Clustering: cfg.Clustering,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 60))
	fmt.Printf("  K-Means Clustering Server\n")
	fmt.Printf("  http://%s\n", addr)
	fmt.Printf("  Data dir: %s\n", cfg.DataDir)
	fmt.Printf("  Max iterations: %d\n", cfg.Clustering.MaxIterations)
	fmt.Printf("%s\n\n", strings.Repeat("=", 60))

	// Graceful shutdown on signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server ready", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cfg.Sessions.TTL > 0 && cfg.Sessions.SweepInterval > 0 {
		g.Go(func() error {
			return sessions.Run(gctx, cfg.Sessions.SweepInterval)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}
