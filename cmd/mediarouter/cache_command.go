package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the format cache and path store",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the handlers known to the format cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, _, err := ctx.ensureRouter(cmd.Context(), nil)
			if err != nil {
				return fmt.Errorf("initialize router: %w", err)
			}
			defer ctx.close()

			fmt.Fprintln(cmd.OutOrStdout(), renderOptionsTable(rt.Registry().Options()))
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the format cache and path store databases",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := ctx.ensureRouter(cmd.Context(), nil)
			if err != nil {
				return fmt.Errorf("initialize router: %w", err)
			}
			ctx.close()

			for _, path := range []string{cfg.Storage.FormatCachePath, cfg.Storage.PathStorePath} {
				if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("remove %s: %w", path, err)
				}
				_ = os.Remove(path + ".lock")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
