package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pixelstack/internal/api"
)

// serveCommand creates the serve command that exposes the pipeline over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the conversion HTTP API",
		Long: `Run an HTTP server exposing the conversion pipeline.

Endpoints:
  GET  /healthz       liveness probe
  GET  /api/methods   available methods and defaults
  POST /api/convert   convert an uploaded image`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			server := &http.Server{
				Addr:              addr,
				Handler:           api.NewServer(runner, c.Logger).Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				c.Logger.Info("listening", "addr", addr)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
				c.Logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return err
				}
				if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the cache entirely")

	return cmd
}
