package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/fenilsonani/cleancache/internal/progress"
	"github.com/fenilsonani/cleancache/internal/ui"
	"github.com/fenilsonani/cleancache/pkg/utils"
	"github.com/spf13/cobra"
)

var relocateCmd = &cobra.Command{
	Use:   "relocate SRC DST",
	Short: "Move a folder's contents to another location",
	Long: `Moves every file under SRC to the same relative path under DST, checking
first that DST has room. Files held open by another program stop the move and
everything already moved is put back.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}

		reporter := progress.NewReporter()
		r := a.Relocator(reporter)

		if err := r.Preflight(args[0], args[1]); err != nil {
			return err
		}
		if !force && !confirm(fmt.Sprintf("Move everything in %s to %s? (y/N): ", args[0], args[1])) {
			fmt.Println("Relocation cancelled")
			return nil
		}

		var wg sync.WaitGroup
		sub := reporter.Subscribe()
		bar := ui.NewPlainProgress(os.Stderr)
		wg.Add(1)
		go func() {
			defer wg.Done()
			bar.Consume(sub)
		}()

		result, err := r.Relocate(cmd.Context(), args[0], args[1])
		reporter.Unsubscribe(sub)
		wg.Wait()

		if err != nil {
			if result != nil && result.RolledBack {
				return fmt.Errorf("relocation failed, changes were rolled back: %w", err)
			}
			return err
		}

		fmt.Printf("Moved %d files (%s), removed %d empty folders\n",
			result.Moved, utils.FormatBytes(result.Bytes), result.Pruned)
		return nil
	},
}

func init() {
	relocateCmd.Flags().BoolVar(&force, "force", false, "skip confirmation prompts")
}
