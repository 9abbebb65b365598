package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "steamloot",
		Short:         "Drain Steam account inventories into receiver accounts via trade offers",
		Long:          "steamloot logs into each configured Steam account, collects its tradable inventory and sends everything to a receiver trade offer URL, confirming the offer through the mobile authenticator.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app := newApp()

	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newRunCmd(app),
		newCheckCmd(app),
	)

	return rootCmd
}
