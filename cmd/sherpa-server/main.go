// Command sherpa-server loads configuration, wires the dispatch core and
// the WebSocket/HTTP front-end together, and runs until signaled.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/misaka00251/sherpa/internal/affinity"
	"github.com/misaka00251/sherpa/internal/config"
	"github.com/misaka00251/sherpa/internal/dispatcher"
	"github.com/misaka00251/sherpa/internal/executor"
	"github.com/misaka00251/sherpa/internal/httpstatic"
	"github.com/misaka00251/sherpa/internal/logging"
	"github.com/misaka00251/sherpa/internal/recognizer"
	"github.com/misaka00251/sherpa/internal/registry"
	"github.com/misaka00251/sherpa/internal/wsserver"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "sherpa-server",
	Short: "Streaming speech-recognition WebSocket server",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "sherpa.yaml", "Configuration file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := logging.New(logging.Options{File: cfg.Log.File, Level: cfg.Log.Level})
	defer log.Sync()

	rec := recognizer.NewFakeRecognizer(16000, 0)
	defer rec.Close()

	reg := registry.New(log)

	compute := newComputeExecutor(cfg.Server, log)
	defer compute.Close()

	disp := dispatcher.New(rec, reg, compute, dispatcher.Config{MaxQueueDepth: cfg.Server.MaxQueueDepth}, log)

	static, err := httpstatic.New(cfg.Server.DocRoot, log)
	if err != nil {
		return fmt.Errorf("static handler: %w", err)
	}

	srv := wsserver.New(wsserver.Config{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		TailPadding: time.Duration(cfg.Server.TailPaddingSeconds * float64(time.Second)),
	}, rec, reg, disp, static, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case sig := <-sigCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSecs)*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// newComputeExecutor builds the shared Compute Executor, pinning workers to
// the configured CPU list when one is present.
func newComputeExecutor(s config.Server, log *zap.Logger) *executor.Executor {
	workers := s.ComputeWorkers
	if workers < 1 {
		workers = 1
	}
	if len(s.ComputeAffinity) == 0 {
		return executor.New(workers)
	}
	return executor.NewPinned(workers, s.ComputeAffinity, affinity.Pin, func(cpuID int, err error) {
		log.Warn("cpu affinity pin failed", zap.Int("cpu", cpuID), zap.Error(err))
	})
}
