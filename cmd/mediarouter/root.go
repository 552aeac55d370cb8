package main

import (
	"github.com/spf13/cobra"

	"mediarouter/internal/config"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "mediarouter",
		Short:         "Route a file through a chain of format handlers to a target format",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	config.RegisterFlags(rootCmd.PersistentFlags())

	ctx := newCommandContext(&configFlag, rootCmd.PersistentFlags())

	rootCmd.AddCommand(newConvertCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newCacheCommand(ctx))

	return rootCmd
}
