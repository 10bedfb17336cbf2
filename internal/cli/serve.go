package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"calorie-scan/internal/server"
)

// NewServeCmd creates the 'serve' command that runs the HTTP tool server.
func NewServeCmd(opts *rootOptions) *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the calorie scan tool server over HTTP",
		Long: `Start the HTTP server. Tool calls are POSTed to / as MCP CallToolRequest
documents:
  • select_image, clear_image, get_session
  • analyze_image
  • add_to_history, get_history, clear_history
  • get_total_calories_today

GET /healthz reports liveness.`,
		Example: `  calorie-scan serve
  calorie-scan serve --port 9000
  CALORIE_SCAN_STORE=bolt calorie-scan serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			srv, err := server.NewCalorieServer(cfg)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}
			return runServe(cmd.Context(), srv)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Host address (overrides config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port for HTTP transport (overrides config)")

	return cmd
}

// runServe blocks until SIGINT/SIGTERM or a listener error, then shuts down.
func runServe(ctx context.Context, srv *server.CalorieServer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	var serveErr error
	select {
	case <-sigCh:
		log.Println("Received shutdown signal")
	case <-ctx.Done():
	case serveErr = <-errCh:
		if serveErr != nil {
			log.Printf("Server error: %v", serveErr)
		}
	}

	log.Println("Shutting down...")
	cancel()
	if err := srv.Stop(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	return serveErr
}
