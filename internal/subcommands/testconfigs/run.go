// Package testconfigs implements the test-configs subcommand: check every
// site config in a directory and optionally run its pipeline.
package testconfigs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"faq_scrap/internal/app"
	"faq_scrap/internal/cli"
	"faq_scrap/internal/config"
	"faq_scrap/internal/extract"
	"faq_scrap/internal/logger"
	"faq_scrap/internal/relevance"
)

const (
	StatusOK      = "OK"
	StatusInvalid = "INVALID"
	StatusFailed  = "FAILED"
)

type Options struct {
	Dir string
	// Run executes the pipeline for every config that validates.
	Run    bool
	Logger logger.Logger
}

// Outcome is the verdict for one config file.
type Outcome struct {
	File     string
	Status   string
	Problems []string
	Items    int
	Failed   int
}

func Command(env *cli.Env) *cobra.Command {
	var run bool
	cmd := &cobra.Command{
		Use:   "test-configs [dir]",
		Short: "Validate every site config in a directory",
		Long: `Checks each .json/.yaml config: sitemap present, FAQ URL pattern compiles,
scrape patterns complete with parseable selectors. With --run, each valid
config is also run end to end.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, err := env.LoadPath("")
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			outcomes, err := Run(cmd.Context(), Options{Dir: dir, Run: run, Logger: log})
			if err != nil {
				return err
			}
			Render(env.Stdout, outcomes)
			for _, o := range outcomes {
				if o.Status != StatusOK {
					return cli.ExitError{Code: 1, Err: errors.New("one or more configs failed")}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&run, "run", false, "Also execute the pipeline for each valid config")
	return cmd
}

// Run checks every config file in opts.Dir in name order.
func Run(ctx context.Context, opts Options) ([]Outcome, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	dir := resolveDir(opts.Dir)
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read configs dir: %w", err)
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		if f.IsDir() || !isConfigFile(f.Name()) {
			continue
		}
		names = append(names, f.Name())
	}
	sort.Strings(names)

	outcomes := make([]Outcome, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		cfg, err := config.Load(path)
		if err != nil {
			outcomes = append(outcomes, Outcome{File: name, Status: StatusInvalid, Problems: []string{err.Error()}})
			continue
		}

		out := Outcome{File: name, Problems: Validate(cfg)}
		if len(out.Problems) > 0 {
			out.Status = StatusInvalid
			outcomes = append(outcomes, out)
			continue
		}
		out.Status = StatusOK

		if opts.Run {
			out = runOne(ctx, cfg, out, log.With(logger.String("config", name)))
			if ctx.Err() != nil {
				return append(outcomes, out), ctx.Err()
			}
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// Validate lists everything wrong with cfg. An empty result means the config
// can be run.
func Validate(cfg config.Config) []string {
	var problems []string
	if strings.TrimSpace(cfg.Sitemap) == "" {
		problems = append(problems, "sitemap is required")
	}
	if _, err := relevance.NewPatternStrategy(cfg.FAQURLPattern); err != nil {
		problems = append(problems, err.Error())
	}
	if cfg.Prefilter == config.PrefilterPattern && strings.TrimSpace(cfg.FAQURLPattern) == "" {
		problems = append(problems, "prefilter pattern needs faq_url_pattern")
	}
	if len(cfg.ScrapePatterns) == 0 {
		problems = append(problems, "no scrape_patterns configured")
	}
	for _, p := range cfg.ScrapePatterns {
		if err := extract.ValidatePattern(p); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if cfg.UsesEncoder() && cfg.Semantic.Encoder.Kind == config.EncoderHTTP && strings.TrimSpace(cfg.Semantic.Encoder.Endpoint) == "" {
		problems = append(problems, "semantic.encoder.endpoint is required for the http encoder")
	}
	return problems
}

func runOne(ctx context.Context, cfg config.Config, out Outcome, log logger.Logger) Outcome {
	p, err := app.New(cfg, app.Deps{Logger: log})
	if err != nil {
		out.Status = StatusFailed
		out.Problems = append(out.Problems, err.Error())
		return out
	}
	res, err := p.Run(ctx)
	if err != nil {
		out.Status = StatusFailed
		out.Problems = append(out.Problems, err.Error())
		return out
	}
	out.Items = len(res.Items)
	out.Failed = res.Report.Failed
	if res.Report.Discovered == 0 {
		out.Status = StatusFailed
		out.Problems = append(out.Problems, "sitemap produced no urls")
	}
	return out
}

func Render(w io.Writer, outcomes []Outcome) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Config", "Status", "Items", "Failed pages", "Problems"})
	for _, o := range outcomes {
		t.AppendRow(table.Row{o.File, o.Status, o.Items, o.Failed, strings.Join(o.Problems, "; ")})
	}
	t.Render()
}

func isConfigFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func resolveDir(dir string) string {
	if strings.TrimSpace(dir) != "" {
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
	}
	for _, candidate := range config.SearchDirs() {
		if candidate == "." {
			continue
		}
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return dir
}
