package entrypoint

import (
	"github.com/spf13/cobra"

	"faq_scrap/internal/app"
	"faq_scrap/internal/cli"
	"faq_scrap/internal/metrics"
	"faq_scrap/internal/server"
)

func newServeCommand(env *cli.Env) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve FAQ results over HTTP",
		Long: `Starts the HTTP server. Every GET /api/faqs runs the pipeline afresh;
/metrics exposes Prometheus metrics and /healthz reports liveness.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := env.Load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if addr != "" {
				cfg.Server.Address = addr
			}
			m := metrics.New()
			p, err := app.New(cfg, app.Deps{Logger: log, Metrics: m})
			if err != nil {
				return cli.ExitError{Code: 2, Err: err}
			}
			return server.New(cfg.Server, p, m, log).ListenAndServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address override, e.g. :5000")
	return cmd
}
