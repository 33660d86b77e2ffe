// Package entrypoint builds the faq_scrap command tree and maps command
// errors to process exit codes.
package entrypoint

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"faq_scrap/internal/cli"
	"faq_scrap/internal/subcommands/inspect"
	"faq_scrap/internal/subcommands/testconfigs"
)

const defaultCommand = "scrape"

// Execute runs the command line in args (including the program name) and
// returns the exit code.
func Execute(args []string) (int, error) {
	// A missing .env is fine; the environment and config file still apply.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(args) > 0 {
		args = args[1:]
	}
	return execute(ctx, cli.NewEnv(os.Stdout, os.Stderr), args)
}

func execute(ctx context.Context, env *cli.Env, args []string) (int, error) {
	root := NewRootCommand(env)
	root.SetArgs(withDefaultCommand(root, args))
	root.SetOut(env.Stdout)
	root.SetErr(env.Stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0, nil
	}
	var exitErr cli.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, exitErr.Err
	}
	return 1, err
}

func NewRootCommand(env *cli.Env) *cobra.Command {
	root := &cobra.Command{
		Use:   "faq_scrap",
		Short: "Discover FAQ question/answer pairs across a site",
		Long: `faq_scrap walks a site's sitemap, keeps the pages likely to hold FAQs,
extracts question/answer pairs with configured CSS selector patterns and
returns one de-duplicated list.

Running without a subcommand is the same as "faq_scrap scrape".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.PersistentFlags().StringVar(&env.ConfigPath, "config", "",
		"config file, JSON or YAML (default is config.json in ., configs/ or CONFIGS/)")
	root.PersistentFlags().StringVar(&env.LogLevel, "log-level", "",
		"log level override (debug, info, warn, error)")

	root.AddCommand(newScrapeCommand(env))
	root.AddCommand(newServeCommand(env))
	root.AddCommand(newInitConfigCommand(env))
	root.AddCommand(inspect.Command(env))
	root.AddCommand(testconfigs.Command(env))
	return root
}

// withDefaultCommand routes a command line without a subcommand to scrape.
func withDefaultCommand(root *cobra.Command, args []string) []string {
	for _, a := range args {
		switch a {
		case "-h", "--help", "help":
			return args
		}
	}
	if len(args) > 0 {
		if sub, _, err := root.Find(args); err == nil && sub != root {
			return args
		}
	}
	return append([]string{defaultCommand}, args...)
}
