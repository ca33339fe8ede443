package main

import (
	"fmt"
	"os"

	"github.com/fenilsonani/cleancache/internal/app"
	"github.com/fenilsonani/cleancache/internal/reporter"
	"github.com/fenilsonani/cleancache/internal/scanner"
	"github.com/fenilsonani/cleancache/internal/ui"
	"github.com/spf13/cobra"
)

var (
	scanOutput string
	scanTree   bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Show what a cleanup would remove",
	Long:  `Resolves the cache folders and reports the files a cleanup would remove, without making any changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}

		format, err := reporter.ParseFormat(scanOutput)
		if err != nil {
			return err
		}

		entries, err := scanAll(cmd, a)
		if err != nil {
			return err
		}

		if scanTree {
			ui.PrintFolderTree(os.Stdout, entries)
			return nil
		}
		return reporter.New(os.Stdout, format).Report(entries)
	},
}

// scanAll resolves the candidate folders and lists the files above the size
// threshold in each
func scanAll(cmd *cobra.Command, a *app.App) ([]scanner.CacheEntry, error) {
	ctx := cmd.Context()

	folders, err := a.Resolver.Resolve(ctx)
	if err != nil && folders == nil {
		return nil, fmt.Errorf("failed to resolve folders: %w", err)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	return a.Walker.ScanFolders(ctx, folders, a.MinSize, nil), nil
}

func init() {
	scanCmd.Flags().StringVar(&scanOutput, "output", "summary", "output format (summary, table, json, yaml)")
	scanCmd.Flags().BoolVar(&scanTree, "tree", false, "print files grouped by folder")
}
