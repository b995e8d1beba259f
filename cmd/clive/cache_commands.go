package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clive/internal/stagecache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the artifact cache",
	}
	cacheCmd.AddCommand(newCacheShowCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func newCacheShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show cache usage per artifact type",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			manager, err := stagecache.NewManager(cfg.Paths.CacheDir, nil)
			if err != nil {
				return err
			}
			stats, err := manager.Stats()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(stats))
			var totalFiles int
			var totalBytes int64
			for _, usage := range stats {
				rows = append(rows, []string{
					usage.Dir,
					fmt.Sprintf("%d", usage.Files),
					formatBytes(usage.Bytes),
				})
				totalFiles += usage.Files
				totalBytes += usage.Bytes
			}
			rows = append(rows, []string{"total", fmt.Sprintf("%d", totalFiles), formatBytes(totalBytes)})
			fmt.Fprintf(out, "Cache root: %s\n", manager.Root())
			fmt.Fprintln(out, renderTable(out,
				[]string{"ARTIFACTS", "FILES", "SIZE"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight}))
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached artifacts (keeps models unless --all)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			manager, err := stagecache.NewManager(cfg.Paths.CacheDir, nil)
			if err != nil {
				return err
			}
			if all {
				if err := manager.PurgeAll(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared including models")
				return nil
			}
			if err := manager.Purge(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Derived artifacts cleared; models kept")
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Also remove downloaded models and run manifests")
	return cmd
}

func formatBytes(count int64) string {
	const unit = 1024
	if count < unit {
		return fmt.Sprintf("%d B", count)
	}
	div, exp := int64(unit), 0
	for n := count / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(count)/float64(div), "KMGTPE"[exp])
}
