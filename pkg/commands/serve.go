package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tableflip.dev/taskmate/pkg/api"
	"tableflip.dev/taskmate/pkg/app"
)

func addServe(topLevel *cobra.Command, s *session) {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulated task API over HTTP",
		Long: `Serve exposes the request simulator as a JSON HTTP API, latency included:

  GET    /tasks               (?page=&pageSize= for one page)
  POST   /tasks
  GET    /tasks/{id}
  PATCH  /tasks/{id}
  DELETE /tasks/{id}
  GET    /tasks/{id}/activities
  POST   /tasks/{id}/activities`,
		Example: `
taskmate serve
taskmate serve --addr :9000 --latency-min 0 --latency-max 0
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.run(cmd, func(ctx context.Context, rt *app.Runtime) error {
				listen := strings.TrimSpace(addr)
				if listen == "" {
					listen = rt.Config.HTTPAddr
				}
				logger := rt.Logger.WithPrefix("http")

				srv := &http.Server{
					Handler:           api.NewHandler(rt.Simulator, logger),
					ReadHeaderTimeout: 10 * time.Second,
				}
				ln, err := net.Listen("tcp", listen)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "task API listening on http://%s\n", ln.Addr())

				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() error {
					if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
						return err
					}
					return nil
				})
				g.Go(func() error {
					<-gctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return srv.Shutdown(shutdownCtx)
				})
				return g.Wait()
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to http.addr from config).")
	topLevel.AddCommand(cmd)
}
