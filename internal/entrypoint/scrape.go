package entrypoint

import (
	"github.com/spf13/cobra"

	"faq_scrap/internal/app"
	"faq_scrap/internal/cli"
	"faq_scrap/internal/logger"
	"faq_scrap/internal/output"
	"faq_scrap/internal/report"
)

func newScrapeCommand(env *cli.Env) *cobra.Command {
	var (
		sitemap    string
		outputPath string
		format     string
		quiet      bool
	)
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run the discovery pipeline once and print the FAQ items",
		Long: `Runs the pipeline once. Items go to stdout, or to --output when set; the
run report is printed to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := env.Load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if sitemap != "" {
				cfg.Sitemap = sitemap
			}
			if cmd.Flags().Changed("output") {
				cfg.Output.Path = outputPath
			}
			if cmd.Flags().Changed("format") {
				cfg.Output.Format = format
			}
			def, err := output.ParseFormat(cfg.Output.Format)
			if err != nil {
				return cli.ExitError{Code: 2, Err: err}
			}
			fmtOut := output.FormatForPath(cfg.Output.Path, def)

			p, err := app.New(cfg, app.Deps{Logger: log})
			if err != nil {
				return cli.ExitError{Code: 2, Err: err}
			}
			res, err := p.Run(cmd.Context())
			if err != nil {
				return err
			}

			if cfg.Output.Path == "" {
				if err := output.Write(env.Stdout, res.Items, fmtOut); err != nil {
					return err
				}
			} else {
				written, err := output.WriteFile(cfg.Output.Path, res.Items, fmtOut)
				if err != nil {
					return err
				}
				log.Info("Wrote results",
					logger.String("path", written),
					logger.Int("items", len(res.Items)),
				)
			}

			if !quiet {
				report.Render(env.Stderr, res.Report)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sitemap, "sitemap", "", "Sitemap URL override")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write items to this file instead of stdout")
	cmd.Flags().StringVar(&format, "format", "", "Output format (json|yaml); a file extension wins")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the run report")
	return cmd
}
