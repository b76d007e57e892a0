package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quotaflow/quotad/internal/config"
	"github.com/quotaflow/quotad/internal/observability"
	"github.com/quotaflow/quotad/internal/server"
	"github.com/quotaflow/quotad/pkg/throttle"
)

var (
	flagListen    string
	flagRedisAddr string
	flagUpstream  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the throttling proxy",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "listen address (overrides config)")
	serveCmd.Flags().StringVar(&flagRedisAddr, "redis-addr", "", "redis address (overrides config)")
	serveCmd.Flags().StringVar(&flagUpstream, "upstream", "", "upstream base URL (overrides config)")
}

func runServe() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if flagListen != "" {
		cfg.Server.Listen = flagListen
	}
	if flagRedisAddr != "" {
		cfg.Redis.Addr = flagRedisAddr
	}
	if flagUpstream != "" {
		cfg.Upstream = flagUpstream
	}

	logger, err := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()

	storeOpts := []throttle.StoreOption{
		throttle.WithPrefix(cfg.Redis.Prefix),
		throttle.WithTimeout(cfg.Redis.Timeout),
		throttle.WithLogger(logger),
	}
	if cfg.Metrics.Enabled {
		storeOpts = append(storeOpts,
			throttle.WithRecorder(throttle.NewPrometheusRecorder(prometheus.DefaultRegisterer)))
	}

	store, err := throttle.NewRedisStore(client, storeOpts...)
	if err != nil {
		return fmt.Errorf("connect counter store: %w", err)
	}

	registry := config.BuildRegistry(cfg.Quotas, logger)
	logger.Info("quota registry built", zap.Int("operations", registry.Len()))

	th := throttle.New(registry, store, logger)

	srv, err := server.New(cfg, logger, th)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("signal received, shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
