package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"resume-formatter/internal/shared/server"
	"resume-formatter/internal/shared/telemetry"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve /healthz and /metrics on PORT",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp(cmd.Context(), root, false)
			if err != nil {
				return err
			}
			defer app.Close()

			srv := &http.Server{
				Addr:              server.Addr(app.Config.Port),
				Handler:           app.Router,
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				<-cmd.Context().Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			telemetry.Info("serve.start", map[string]any{"addr": srv.Addr})
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
}
