// cmd/syncd/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/projectmdp/marketsync/internal/config"
	"github.com/projectmdp/marketsync/internal/remote"
	"github.com/projectmdp/marketsync/internal/repository"
	"github.com/projectmdp/marketsync/internal/storage/postgres"
	"github.com/projectmdp/marketsync/internal/utils/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		zap.NewExample().Fatal("Failed to load config", zap.Error(err))
	}

	log, err := logger.New(&logger.Config{
		LogFile:     cfg.LogFile,
		MaxSize:     100,
		MaxAge:      7,
		MaxBackups:  3,
		Compress:    true,
		Development: cfg.DebugLogging,
	})
	if err != nil {
		zap.NewExample().Fatal("Failed to init logger", zap.Error(err))
	}
	defer log.Sync()
	log.Info("Starting marketsync daemon")

	store, err := postgres.NewStorage(cfg.PostgresURL, log.WithComponent("storage"))
	if err != nil {
		log.Fatal("Failed to connect to storage", zap.Error(err))
	}
	defer store.Close()

	if err := store.RunMigrations(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	client := remote.NewHTTPClient(cfg.RemoteBaseURL, cfg.APIToken,
		log.WithComponent("remote"),
		remote.WithTimeout(time.Duration(cfg.HTTPTimeout)*time.Millisecond),
		remote.WithRetries(uint(cfg.Retries)),
		remote.WithRetryDelay(time.Duration(cfg.RetryDelay)*time.Millisecond),
	)

	repo := repository.New(store, client, log.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return serveMetrics(ctx, cfg.MetricsAddr, log.Logger)
	})

	g.Go(func() error {
		return refreshLoop(ctx, repo, time.Duration(cfg.RefreshInterval)*time.Second, log.Logger)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Daemon exited with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("Daemon stopped")
}

// refreshLoop keeps the local cache warm with periodic forced refreshes.
func refreshLoop(ctx context.Context, repo *repository.TransactionRepository, interval time.Duration, log *zap.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for res := range repo.GetMyTransactions(ctx, true) {
				if res.IsSuccess() {
					log.Info("Cache refreshed", zap.Int("transactions", len(res.Value)))
				} else {
					log.Warn("Refresh failed", zap.Error(res.Err))
				}
			}
		}
	}
}

func serveMetrics(ctx context.Context, addr string, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("Serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
