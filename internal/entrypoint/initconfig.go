package entrypoint

import (
	"fmt"

	"github.com/spf13/cobra"

	"faq_scrap/internal/cli"
	"faq_scrap/internal/config"
)

func newInitConfigCommand(env *cli.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "init-config [path]",
		Short: "Create or edit a site config interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := env.ConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				path = config.DefaultConfigPath()
			}
			written, err := cli.RunConfigWizard(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(env.Stdout, "Wrote %s\n", written)
			return nil
		},
	}
}
