package main

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/fenilsonani/cleancache/internal/app"
	"github.com/fenilsonani/cleancache/internal/cleaner"
	"github.com/fenilsonani/cleancache/internal/orchestrator"
	"github.com/fenilsonani/cleancache/internal/reporter"
	"github.com/fenilsonani/cleancache/internal/scanner"
	"github.com/fenilsonani/cleancache/internal/ui"
	"github.com/fenilsonani/cleancache/pkg/utils"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	force        bool
	useTUI       bool
	noCommands   bool
	manifestPath string
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove large files from the cache folders",
	Long: `Resolves the cache folders, deletes every file above the size threshold that
no other program has open, runs the OS cache commands alongside, and removes
folders left empty.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		dryRun := a.Config.DryRun

		if !force && !dryRun && !useTUI {
			entries, err := scanAll(cmd, a)
			if err != nil {
				return err
			}
			if scanner.TotalFiles(entries) == 0 && a.Commands().Len() == 0 {
				fmt.Println("\n✨ No files found for cleanup. The cache folders are already clean!")
				return nil
			}
			if err := reporter.New(os.Stdout, reporter.FormatSummary).Report(entries); err != nil {
				return fmt.Errorf("failed to generate report: %w", err)
			}
			if !confirm("\nProceed with cleanup? (y/N): ") {
				fmt.Println("Cleanup cancelled")
				return nil
			}
		}

		if dryRun {
			fmt.Println("\n[DRY RUN MODE] No files will be deleted.")
		}

		orch := a.Orchestrator(app.RunOptions{DryRun: dryRun, NoCommands: noCommands})

		var summary *orchestrator.Summary
		if useTUI && isTerminal(os.Stdout) {
			summary, err = ui.RunInteractive(cmd.Context(), orch)
		} else {
			summary, err = runPlain(cmd, orch)
		}
		if err != nil {
			return err
		}
		if summary == nil {
			return nil
		}

		if !useTUI {
			fmt.Println()
			reporter.WriteSummary(os.Stdout, summary)
			if summary.ErrorCount() > 0 {
				fmt.Print(cleaner.FormatErrorSummary(summary.DeletionErrors()))
			}
		}

		finishRun(a, summary)
		return nil
	},
}

// runPlain runs the cleanup with a single-line progress bar when stdout is a
// terminal, and silently otherwise
func runPlain(cmd *cobra.Command, orch *orchestrator.Orchestrator) (*orchestrator.Summary, error) {
	var wg sync.WaitGroup
	if isTerminal(os.Stderr) {
		sub := orch.Reporter().Subscribe()
		bar := ui.NewPlainProgress(os.Stderr)
		wg.Add(1)
		go func() {
			defer wg.Done()
			bar.Consume(sub)
		}()
		defer func() {
			orch.Reporter().Unsubscribe(sub)
			wg.Wait()
		}()
	}

	summary, err := orch.Run(cmd.Context())
	if errors.Is(err, orchestrator.ErrRunInProgress) {
		return nil, fmt.Errorf("another cleanup is already running")
	}
	return summary, err
}

// finishRun records the run in the history log and, if asked, the manifest
func finishRun(a *app.App, summary *orchestrator.Summary) {
	if historyPath, err := a.Config.HistoryPath(); err == nil {
		if err := reporter.AppendHistory(historyPath, summary); err != nil {
			log.Warn().Err(err).Msg("failed to append run history")
		}
	}

	if manifestPath != "" && !summary.DryRun {
		if err := a.Deleter.SaveManifest(manifestPath); err != nil {
			log.Warn().Err(err).Str("path", manifestPath).Msg("failed to save manifest")
		} else {
			fmt.Printf("Manifest saved to: %s\n", manifestPath)
		}
	}

	if reclaimed := summary.Reclaimed(); reclaimed > summary.FreedBytes {
		fmt.Printf("Cache folders shrank by %s in total\n", utils.FormatBytes(reclaimed))
	}
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	var response string
	fmt.Scanln(&response)
	return response == "y" || response == "Y"
}

func init() {
	cleanCmd.Flags().Bool("dry-run", false, "show what would be deleted without actually deleting")
	cleanCmd.Flags().BoolVar(&force, "force", false, "skip confirmation prompts")
	cleanCmd.Flags().BoolVar(&useTUI, "tui", false, "show progress in a full-screen view")
	cleanCmd.Flags().BoolVar(&noCommands, "no-commands", false, "skip the OS cache commands")
	cleanCmd.Flags().StringVar(&manifestPath, "manifest", "", "write the list of deleted files to this path")

	viper.BindPFlag("dry-run", cleanCmd.Flags().Lookup("dry-run"))
}
