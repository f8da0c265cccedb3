// Command storm-tape runs the site-local HTTP service mediating bulk
// tape-to-disk file recall described by internal/api, internal/lifecycle
// and internal/recall.
//
// Configuration is read once at startup from a YAML file (see
// internal/config); there is no reload path. The server listens until it
// receives SIGINT or SIGTERM, then drains in-flight requests before
// exiting.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/glxcee/storm-tape/internal/api"
	"github.com/glxcee/storm-tape/internal/config"
	"github.com/glxcee/storm-tape/internal/lifecycle"
	"github.com/glxcee/storm-tape/internal/pathresolver"
	"github.com/glxcee/storm-tape/internal/probe"
	"github.com/glxcee/storm-tape/internal/recall"
	"github.com/glxcee/storm-tape/internal/store"
	"github.com/glxcee/storm-tape/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

// rootConfiguration stores the targets for the root command's flags.
var rootConfiguration struct {
	// configPath is the path to the YAML configuration file.
	configPath string
	// help indicates whether to show help information and exit.
	help bool
}

// rootMain loads the configuration, wires every component, and serves
// until signaled to stop.
//
// Exit path:
//   - returns nil on a clean shutdown triggered by SIGINT/SIGTERM
//   - returns a non-nil error on any startup or listen failure, which
//     main() reports by exiting with status 1
func rootMain(command *cobra.Command, _ []string) error {
	cfg, err := config.Load(rootConfiguration.configPath)
	if err != nil {
		return err
	}

	logger, err := telemetry.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("storm-tape: build logger: %w", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	var tracer trace.Tracer
	if cfg.Telemetry != nil {
		tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TracingEndpoint)
		if err != nil {
			return fmt.Errorf("storm-tape: build tracer provider: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Error("tracer provider shutdown", zap.Error(err))
			}
		}()
		tracer = tp.Tracer(cfg.Telemetry.ServiceName)
	}

	resolver := pathresolver.New(cfg.StorageAreas)
	prober := probe.NewXattrProber()

	st, err := store.NewSQLiteStore(cfg.DatabasePath, prober, cfg.Concurrency)
	if err != nil {
		return fmt.Errorf("storm-tape: open store: %w", err)
	}
	defer st.Close()

	var executor lifecycle.Executor
	if cfg.Concurrency > 1 {
		executor = lifecycle.ParallelExecutor{Workers: cfg.Concurrency}
	}
	engine := lifecycle.New(st, prober, executor, tracer)
	handoff := recall.New(st, prober, prober)

	srv := api.NewServer(resolver, st, engine, handoff, prober, logger, tracer)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.NewRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("storm-tape listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("storm-tape: listen: %w", err)
		}
	case <-stop:
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", zap.Error(err))
		}
		<-serveErr
	}

	logger.Info("storm-tape stopped")
	return nil
}

// rootCommand is the root command.
var rootCommand = &cobra.Command{
	Use:          "storm-tape",
	Short:        "Site-local HTTP mediator for bulk tape-to-disk file recall",
	RunE:         rootMain,
	SilenceUsage: true,
}

func init() {
	cobra.EnableCommandSorting = false
	cobra.MousetrapHelpText = ""

	flags := rootCommand.Flags()
	flags.SortFlags = false

	flags.StringVarP(&rootConfiguration.configPath, "config", "c", "storm-tape.conf", "Path to the configuration file")
	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
