package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/grvbrk/vidcatalog/internal/app"
	"github.com/grvbrk/vidcatalog/internal/config"
	"github.com/grvbrk/vidcatalog/internal/logger"
	"github.com/grvbrk/vidcatalog/internal/routes"
)

var rootCmd = &cobra.Command{
	Use:           "vidcatalog",
	Short:         "Video catalog admin service",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context(), loadConfig(os.Stdout))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, addVideoCmd, importCmd, exportCmd, backupCmd, createAdminCmd)
}

// loadConfig reads the environment and points the base logger at out.
func loadConfig(out io.Writer) config.Config {
	cfg := config.Load()
	logger.Configure(logger.Config{
		Level:  cfg.LogLevel,
		Output: out,
		Pretty: !cfg.IsProduction(),
	})
	return cfg
}

// openApp wires the application for one-shot commands. Logs go to stderr so
// stdout stays usable for command output.
func openApp(ctx context.Context) (*app.Application, error) {
	return app.NewApplication(ctx, loadConfig(os.Stderr))
}

func serve(ctx context.Context, cfg config.Config) error {
	log := logger.WithComponent("server")

	application, err := app.NewApplication(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to start application")
		return err
	}
	defer application.Close()

	r := routes.SetupRoutes(application)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	schedCtx, cancelSched := context.WithCancel(ctx)
	defer cancelSched()
	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		application.Scheduler.Start(schedCtx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case runErr = <-serverErr:
		if runErr != nil {
			log.Error().Err(runErr).Msg("error starting server")
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	cancelSched()
	<-schedulerDone
	return runErr
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log := logger.Base()
		log.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}
