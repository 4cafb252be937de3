package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"

	_ "github.com/primar/console/docs"
	"github.com/primar/console/internal/api"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(ctx context.Context) error {
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.dispatcher.Start(runCtx)
	go func() {
		if err := a.bus.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("auth event relay stopped")
		}
	}()

	e := api.NewRouter(api.Deps{
		Logger:            log,
		Auth:              a.sessions,
		Tasks:             a.tasks,
		Clients:           a.clients,
		Directory:         a.directory,
		StrictTransitions: cfg.Tasks.StrictTransitions,
		HealthChecks:      a.healthChecks(),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server stopped")
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			// Stop accepting requests first, then drain recurrences, then close stores.
			"console": func(ctx context.Context) error {
				httpErr := e.Shutdown(ctx)
				workerErr := a.dispatcher.Shutdown(ctx)
				cancel()
				a.close(ctx)
				return errors.Join(httpErr, workerErr)
			},
		},
	)

	exitCode := <-wait
	log.Info().Int("exit_code", exitCode).Msg("console stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
	return nil
}
