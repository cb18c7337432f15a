// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/xcmsim/api"
	"github.com/luxfi/xcmsim/config"
	"github.com/luxfi/xcmsim/engine"
	"github.com/luxfi/xcmsim/healthcheck"
	"github.com/luxfi/xcmsim/keys"
	"github.com/luxfi/xcmsim/metrics"
	"github.com/luxfi/xcmsim/processor"
	"github.com/luxfi/xcmsim/state"
)

var (
	version   = "v0.0.0-dev"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "xcmsim",
	Short:   "Simulated cross-chain message relay",
	Long:    `xcmsim runs an in-memory cross-chain message relay: signed XCM envelopes are validated, authenticated, and relayed asynchronously to per-chain ledgers.`,
	Version: fmt.Sprintf("%s (built %s)", version, buildDate),
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		v, err := config.BuildViper(cmd.Flags())
		if err != nil {
			return fmt.Errorf("couldn't configure flags: %w", err)
		}
		cfg, err := config.NewConfig(v)
		if err != nil {
			return fmt.Errorf("couldn't build config: %w", err)
		}
		return run(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// All other config keys are provided via config file or XCM_* env vars.
	serveCmd.Flags().String(config.ConfigFileKey, "", "Path to a JSON config file")
}

func run(cfg config.Config) error {
	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("couldn't build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("initializing relay",
		zap.String("version", version),
		zap.String("xcmVersion", cfg.XCMVersion),
		zap.Uint32s("parachains", cfg.ParaIDs()),
	)

	store, err := state.New(cfg.ParaIDs())
	if err != nil {
		return fmt.Errorf("couldn't initialize chain state: %w", err)
	}

	chainKeys := make([]keys.ChainKey, 0, len(cfg.ChainKeys))
	for _, entry := range cfg.ChainKeys {
		chainKeys = append(chainKeys, keys.ChainKey{
			ParaID:     entry.ParaID,
			SecretKey:  entry.SecretKey,
			SeedPhrase: entry.SeedPhrase,
		})
	}
	registry, err := keys.NewRegistry(cfg.ParaIDs(), chainKeys)
	if err != nil {
		return fmt.Errorf("couldn't initialize chain keys: %w", err)
	}
	for _, paraID := range store.ChainIDs() {
		if pair, ok := registry.Get(paraID); ok {
			logger.Info("registered parachain",
				zap.Uint32("paraId", paraID),
				zap.String("publicKey", pair.PublicKeyHex()),
			)
		}
	}

	metricsRegistry := metrics.StartMetricsServer(logger, cfg.MetricsPort)
	pipelineMetrics := metrics.NewPipelineMetrics(metricsRegistry)

	p := processor.New(store, registry, cfg.XCMVersion, logger, pipelineMetrics)
	worker := processor.NewRelayWorker(
		p,
		engine.NewLedgerEngine(store, logger),
		logger,
		pipelineMetrics,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errGroup, gCtx := errgroup.WithContext(ctx)

	// The worker runs detached from the signal context so that after Close
	// it drains every message already admitted to a terminal status.
	errGroup.Go(func() error {
		worker.Run(context.Background())
		return nil
	})
	errGroup.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down, draining relay queue")
		p.Close()
		return nil
	})

	router := api.NewServer(logger, cfg, store, p).Router()
	router.Handle("/health", healthcheck.Handler(func(context.Context) error {
		if store.Poisoned() {
			return errors.New("shared state is poisoned")
		}
		if p.Closed() {
			return errors.New("relay channel is closed")
		}
		return nil
	}))

	errGroup.Go(func() error {
		httpServer := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.APIPort),
			Handler: router,
		}
		go func() {
			<-gCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(shutdownCtx)
		}()

		logger.Info("starting API server", zap.Uint16("port", cfg.APIPort))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("API server exited: %w", err)
		}
		return nil
	})

	if err := errGroup.Wait(); err != nil {
		logger.Error("exited with error", zap.Error(err))
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

func buildLogger(level string) (*zap.Logger, error) {
	logLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logCfg := zap.NewProductionConfig()
	logCfg.Level = zap.NewAtomicLevelAt(logLevel)
	return logCfg.Build()
}
