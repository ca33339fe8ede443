package main

import (
	"fmt"
	"path/filepath"

	"github.com/fenilsonani/cleancache/pkg/utils"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var foldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "List the folders a cleanup would visit",
	Long:  `Resolves and prints the candidate cache folders: remembered folders first, then the built-in presets.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}

		folders, err := a.Resolver.Resolve(cmd.Context())
		if err != nil {
			fmt.Printf("warning: %v\n", err)
		}

		fmt.Printf("State file: %s\n\n", a.Store.Path())
		for _, f := range folders {
			fmt.Printf("  %s (%s)\n", f, utils.FormatBytes(a.Walker.FolderSize(f)))
		}
		fmt.Printf("\n%d folders\n", len(folders))
		return nil
	},
}

var foldersAddCmd = &cobra.Command{
	Use:   "add PATH...",
	Short: "Remember extra folders to clean",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}

		folders, err := a.Store.Load()
		if err != nil {
			return fmt.Errorf("failed to read state file: %w", err)
		}

		seen := make(map[string]bool, len(folders))
		for _, f := range folders {
			seen[a.Validator.Key(f)] = true
		}

		for _, arg := range args {
			path, err := filepath.Abs(arg)
			if err != nil {
				return err
			}
			if err := a.Validator.ValidateRoot(path); err != nil {
				return err
			}
			if ok, _ := afero.DirExists(a.Walker.Fs(), path); !ok {
				return fmt.Errorf("not a directory: %s", path)
			}
			if seen[a.Validator.Key(path)] {
				continue
			}
			seen[a.Validator.Key(path)] = true
			folders = append(folders, path)
			fmt.Printf("Added %s\n", path)
		}

		return a.Store.Save(folders)
	},
}

var foldersRemoveCmd = &cobra.Command{
	Use:   "remove PATH...",
	Short: "Forget remembered folders",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}

		folders, err := a.Store.Load()
		if err != nil {
			return fmt.Errorf("failed to read state file: %w", err)
		}

		drop := make(map[string]bool, len(args))
		for _, arg := range args {
			path, err := filepath.Abs(arg)
			if err != nil {
				return err
			}
			drop[a.Validator.Key(path)] = true
		}

		kept := folders[:0]
		for _, f := range folders {
			if drop[a.Validator.Key(f)] {
				fmt.Printf("Removed %s\n", f)
				continue
			}
			kept = append(kept, f)
		}

		return a.Store.Save(kept)
	},
}

func init() {
	foldersCmd.AddCommand(foldersAddCmd)
	foldersCmd.AddCommand(foldersRemoveCmd)
}
