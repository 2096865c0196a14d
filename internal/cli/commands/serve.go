package commands

import (
	"fmt"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapview/internal/server"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port    int
	Watch   bool
	NoState bool
	Open    bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the datasets over an HTTP API",
		Long: `Start a local HTTP server exposing the datasets as JSON.

The server provides:
- Filtered, sorted and paged rows with statistics
- Aging and SLA reports
- CSV and Excel exports
- Saved views and statistic snapshots
- A server-sent event stream announcing data reloads
- Prometheus metrics on /metrics

With --watch the datasets are reloaded whenever a file in the data
directory changes.`,
		Example: `  # Serve on the default port
  leapview serve

  # Serve on a custom port without reloading
  leapview serve --port 3000 --watch=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8766)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Reload datasets when data files change")
	cmd.Flags().BoolVar(&opts.NoState, "no-state", false, "Disable saved views and snapshots")
	cmd.Flags().BoolVar(&opts.Open, "open", false, "Open the API in the default browser")
	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	srvCfg := cc.Cfg.GetServerConfig()

	port := srvCfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}
	watch := srvCfg.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}

	cfg := server.Config{
		Catalog:           cc.Catalog,
		DataDir:           cc.Cfg.DataDir,
		Settings:          cc.Cfg.Settings(),
		Port:              port,
		Watch:             watch,
		Debounce:          srvCfg.Debounce,
		ReadHeaderTimeout: srvCfg.ReadHeaderTimeout,
		Options:           cc.Options,
		Logger:            cc.Logger,
	}
	if !opts.NoState {
		store, err := cc.OpenStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		cfg.Store = store
	}

	srv := server.NewServer(cfg)

	url := fmt.Sprintf("http://localhost:%d/api/datasets", port)
	cc.Renderer.Success(fmt.Sprintf("Serving %d datasets on %s", len(cc.Catalog.All()), url))
	cc.Renderer.Muted("Press Ctrl+C to stop")
	if opts.Open {
		go openBrowser(url)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Serve(ctx)
}

// openBrowser opens the default browser at url.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}
	_ = cmd.Start()
}
