package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvermeulen/analemma/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var flags observerFlags
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the pipeline as a JSON API",
		Long: `Serve starts an HTTP server with the same pipeline the CLI uses:

  GET /v1/analemma?lat=&lon=[&year=&hour=&minute=&mode=&tz=]
  GET /v1/position?lat=&lon=&date=YYYY-MM-DD[&hour=&minute=&mode=]
  GET /healthz

The server shuts down gracefully on SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(flags.noCache, flags.redisAddr)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           server.New(runner, c.Logger).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()
			c.Logger.Info("listening", "addr", addr)

			select {
			case <-cmd.Context().Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return err
				}
				c.Logger.Info("server stopped")
				return nil
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable the computation cache")
	cmd.Flags().StringVar(&flags.redisAddr, "cache-redis", "", "use a Redis cache at this address instead of the file cache")

	return cmd
}
