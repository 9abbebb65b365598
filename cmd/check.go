package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd(app *app) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration, credentials and proxies without looting",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := app.buildRuntime(configPath)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "accounts: %d\n", len(rt.accounts))
			fmt.Fprintf(cmd.OutOrStdout(), "receivers: %d\n", len(rt.plan.Receivers))
			fmt.Fprintf(cmd.OutOrStdout(), "inventories: %d\n", len(rt.plan.Sources))
			fmt.Fprintf(cmd.OutOrStdout(), "network identities: %d\n", rt.provider.AvailableCount())
			fmt.Fprintf(cmd.OutOrStdout(), "threads: %d\n", rt.plan.Threads)

			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "Config.toml", "path to the configuration file")

	return cmd
}
