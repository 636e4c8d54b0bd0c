package cli

import (
	"github.com/spf13/cobra"

	"github.com/kintreehq/kintree/internal/server"
	"github.com/kintreehq/kintree/pkg/buildinfo"
)

// newServeCmd starts the HTTP API server.
func newServeCmd(dataDir *string) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the family tree over HTTP",
		Long: `Start the HTTP server exposing the family graph, layout and
render endpoints under /api. The server reads its defaults from the
config file in the data directory; --listen overrides the address.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			ed, cfg, err := openEditor(ctx, *dataDir, logger)
			if err != nil {
				return err
			}
			addr := cfg.Server.Listen
			if listen != "" {
				addr = listen
			}

			c := newCache(ctx, cfg, logger)
			defer c.Close()

			srv := server.New(ed,
				server.WithCache(c, newKeyer(cfg)),
				server.WithMetrics(cfg.Metrics()),
				server.WithLogger(logger),
				server.WithVersion(buildinfo.Version),
			)
			logger.Info("serving family tree", "addr", addr)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (host:port), overrides config")

	return cmd
}
