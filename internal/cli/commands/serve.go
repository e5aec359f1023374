package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/resload/internal/server"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port   int
	Watch  bool
	Minify bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the assets directory for development",
		Long: `Start a local web server for the assets directory.

The server provides:
- /assets/ with optional minification
- An index page listing scripts and styles with their identities
- /identity and /render endpoints
- Live updates when assets change`,
		Example: `  # Serve on the default port
  resload serve

  # Serve minified assets on a custom port
  resload serve --port 3000 --minify`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8765)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Watch for file changes")
	cmd.Flags().BoolVar(&opts.Minify, "minify", false, "Minify scripts and styles")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cc := NewCommandContext(cmd)
	if err := cc.Cfg.ValidateAssetsDir(); err != nil {
		return err
	}

	// CLI flags override config file
	serveCfg := cc.Cfg.Serve
	if opts.Port != 0 {
		serveCfg.Port = opts.Port
	}
	if cmd.Flags().Changed("watch") {
		serveCfg.Watch = opts.Watch
	}
	if cmd.Flags().Changed("minify") {
		serveCfg.Minify = opts.Minify
	}

	srv := server.New(server.Config{
		AssetsDir: cc.Cfg.AssetsDir,
		Port:      serveCfg.Port,
		Watch:     serveCfg.Watch,
		Minify:    serveCfg.Minify,
		Timeout:   cc.Cfg.Timeout,
		Logger:    cc.Logger,
	})

	cc.Renderer.Printf("Serving %s on http://localhost:%d\n", cc.Cfg.AssetsDir, serveCfg.Port)
	cc.Renderer.Printf("Press Ctrl+C to stop\n")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Serve(ctx)
}

