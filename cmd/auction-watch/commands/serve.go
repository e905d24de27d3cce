package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/auction-watch/internal/delivery/http/handler"
	"github.com/user/auction-watch/internal/delivery/http/router"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the status API and the pass trigger.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		monitor, err := a.monitor()
		if err != nil {
			return err
		}

		apiHandler := handler.NewHandler(a.inspector(), monitor, a.logger)
		server := &http.Server{
			Addr:        ":" + a.cfg.ServerPort,
			Handler:     router.New(apiHandler, a.metrics, a.registry, a.logger),
			ReadTimeout: 10 * time.Second,
			// POST /api/passes answers once the whole pass is done.
			WriteTimeout: 30 * time.Minute,
			IdleTimeout:  120 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			a.logger.Info("Starting server", zap.String("port", a.cfg.ServerPort))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		a.logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		a.logger.Info("Server exiting")
		return nil
	},
}
