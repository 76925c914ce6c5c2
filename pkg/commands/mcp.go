package commands

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/taskmate/pkg/app"
	"tableflip.dev/taskmate/pkg/runner/mcp"
)

func addMCP(topLevel *cobra.Command, s *session) {
	var (
		transport   string
		httpHost    string
		httpPort    int
		httpPath    string
		httpTLSCert string
		httpTLSKey  string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "start the Model Context Protocol server",
		Long: `Launch an MCP server that exposes tasks, the schedule, and task edits
through the Model Context Protocol.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd, func(ctx context.Context, rt *app.Runtime) error {
				path := strings.TrimSpace(httpPath)
				if path == "" {
					path = "/mcp"
				}
				if !strings.HasPrefix(path, "/") {
					path = "/" + path
				}

				runner := mcp.Runner{
					Service:          rt.Service,
					Logger:           rt.Logger,
					Name:             "taskmate",
					Version:          version,
					HTTPEndpointPath: path,
					HTTPServerCert:   strings.TrimSpace(httpTLSCert),
					HTTPServerKey:    strings.TrimSpace(httpTLSKey),
				}

				switch strings.ToLower(strings.TrimSpace(transport)) {
				case "", string(mcp.TransportHTTP):
					host := strings.TrimSpace(httpHost)
					if host == "" {
						host = "127.0.0.1"
					}
					port := httpPort
					if port < 0 || port > 65535 {
						return fmt.Errorf("invalid http-port %d", port)
					}

					addr := net.JoinHostPort(host, strconv.Itoa(port))
					runner.Transport = mcp.TransportHTTP
					runner.HTTPListenAddr = addr
					runner.OnHTTPListening = func(a net.Addr) {
						secure := runner.HTTPServerCert != "" && runner.HTTPServerKey != ""
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), "MCP HTTP server listening on %s\n", listenURL(a, secure, path))
					}
				case string(mcp.TransportStdio):
					runner.Transport = mcp.TransportStdio
				default:
					return fmt.Errorf("unsupported transport %q (expected http or stdio)", transport)
				}

				return runner.Do(ctx)
			})
		},
	}

	cmd.Flags().StringVar(&transport, "transport", string(mcp.TransportHTTP), "transport to use: http or stdio")
	cmd.Flags().StringVar(&httpHost, "http-host", "127.0.0.1", "host/interface for HTTP transport")
	cmd.Flags().IntVar(&httpPort, "http-port", 8082, "port for HTTP transport (use 0 for random)")
	cmd.Flags().StringVar(&httpPath, "http-path", "/mcp", "HTTP endpoint path")
	cmd.Flags().StringVar(&httpTLSCert, "http-tls-cert", "", "TLS certificate file for HTTPS")
	cmd.Flags().StringVar(&httpTLSKey, "http-tls-key", "", "TLS private key file for HTTPS")

	topLevel.AddCommand(cmd)
}

// listenURL formats the address the server actually bound, so a port of 0
// reports the port that was picked.
func listenURL(a net.Addr, secure bool, path string) string {
	scheme := "http"
	if secure {
		scheme = "https"
	}
	return scheme + "://" + a.String() + path
}
