package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fam",
		Short:         "Familiar bridge (fam): local conversation bridge for familiars",
		Long:          "fam runs the local bridge between the familiar browser UI and an external reply agent, and inspects familiar state, the focus cycle and watcher liveness from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	apps := &appLoader{wire: wireApp}

	rootCmd.AddCommand(
		newVersionCmd(),
		newConfigCmd(),
		newServeCmd(apps),
		newStatusCmd(apps),
		newSayCmd(apps),
		newWatchEchoCmd(apps),
	)

	return rootCmd
}
