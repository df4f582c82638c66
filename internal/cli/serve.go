package cli

import (
	"github.com/Sternrassler/posts-sync/internal/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	Addr string
}

// NewServeCmd starts the admin HTTP server.
func NewServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sync form, job endpoints and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "Listen address (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, root *rootOptions, opts *serveOptions) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	gin.SetMode(gin.ReleaseMode)
	return server.New(a.driver, cfg.Server.Addr).Run(ctx)
}
