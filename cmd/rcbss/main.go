// Command rcbss plans, generates, benchmarks and simulates robust
// multi-agent task sequencing instances.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/robust-cbss/internal/config"
	"github.com/elektrokombinacija/robust-cbss/internal/logging"
)

var (
	configPath  string
	logLevel    string
	metricsAddr string

	cfg     config.Config
	logger  *slog.Logger
	metrics *http.Server

	rootCmd = &cobra.Command{
		Use:           "rcbss",
		Short:         "Robust conflict-based search with task sequencing",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if configPath != "" {
				cfg, err = config.Load(configPath)
				if err != nil {
					return err
				}
			} else {
				cfg = config.Default()
			}
			if logLevel != "" {
				if _, err := logging.ParseLevel(logLevel); err != nil {
					return err
				}
				cfg.Log.Level = logLevel
			}
			if metricsAddr != "" {
				cfg.MetricsAddr = metricsAddr
			}
			logger = cfg.Logger()
			startMetrics(cfg.MetricsAddr)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return stopMetrics()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "planner config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	rootCmd.AddCommand(solveCmd, genCmd, benchCmd, simulateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "rcbss:", err)
		os.Exit(1)
	}
}

func startMetrics(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metrics = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("serving metrics", slog.String("addr", addr))
		if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.Any("error", err))
		}
	}()
}

func stopMetrics() error {
	if metrics == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return metrics.Shutdown(ctx)
}

// solveContext bounds a planner run by the configured timeout.
func solveContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if cfg.Timeout > 0 {
		return context.WithTimeout(ctx, cfg.Timeout)
	}
	return context.WithCancel(ctx)
}
