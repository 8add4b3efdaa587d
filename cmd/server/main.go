package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shiplane-dev/shiplane/internal/app"
	"github.com/shiplane-dev/shiplane/internal/config"
	"github.com/shiplane-dev/shiplane/internal/observability"
	"github.com/shiplane-dev/shiplane/internal/tools/common"
	"github.com/shiplane-dev/shiplane/internal/tools/smokecheck"
)

func main() {
	root := &cobra.Command{
		Use:   "shiplane",
		Short: "Multi-tenant project and CI metadata backend",
	}
	root.AddCommand(newServeCommand())
	root.AddCommand(smokecheck.NewCommand())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCommand() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), envFile)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "env file loaded before config")
	return cmd
}

func serve(ctx context.Context, envFile string) error {
	if err := common.LoadEnvFile(envFile); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	logger, loggerProvider, err := observability.InitLogging(ctx, cfg)
	if err != nil {
		return err
	}
	runtime, err := observability.InitRuntime(ctx, cfg, logger, loggerProvider)
	if err != nil {
		return err
	}

	application, err := app.Initialize(cfg, logger, runtime)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", cfg.HTTPAddr, "profile", cfg.Profile)
		if err := application.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		if err := application.Server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return application.Observability.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
