package cmd

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/connectedcar/edge-vehicle-adapter/internal/config"
)

var workDir string

// NewRootCommand builds the root command of the vehicle adapter daemon.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edge-vehicle-adapter",
		Short: "Synchronizes remote vehicle telemetry into a local attribute store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&workDir, "workdir", "c", ".", "working directory containing the configuration file")

	return cmd
}

// Execute is the entry point to the vehicle adapter.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		log.WithError(err).Fatal("failed to run the vehicle adapter")
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(workDir)
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	cfgSvc := config.NewService(cfg)
	initLogger(cfgSvc)

	application, err := build(cfgSvc)
	if err != nil {
		return errors.Wrap(err, "failed to build the vehicle adapter")
	}

	if err := application.Setup(ctx); err != nil {
		return err
	}

	defer func() {
		if err := application.Teardown(); err != nil {
			log.WithError(err).Error("failed to tear down the session")
		}
	}()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return application.RunRefresh(ctx) })
	g.Go(func() error { return runMetricsServer(ctx, cfgSvc) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func initLogger(cfgSvc *config.Service) {
	level, err := log.ParseLevel(cfgSvc.GetLogLevel())
	if err != nil {
		level = log.InfoLevel
	}

	log.SetLevel(level)

	if cfgSvc.GetLogFormat() == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}
}

func runMetricsServer(ctx context.Context, cfgSvc *config.Service) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfgSvc.GetMetricsBindAddress(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "metrics server failed")
	}

	return nil
}
