package main

import (
	"fmt"
	"os"

	"github.com/fenilsonani/cleancache/internal/reporter"
	"github.com/spf13/cobra"
)

var (
	reportOutput string
	reportFile   string
	showHistory  bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a detailed report",
	Long:  `Generates a detailed report of the files a cleanup would remove, or prints the run history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}

		if showHistory {
			path, err := a.Config.HistoryPath()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if os.IsNotExist(err) {
				fmt.Println("No cleanups recorded yet.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}
			_, err = os.Stdout.Write(data)
			return err
		}

		format, err := reporter.ParseFormat(reportOutput)
		if err != nil {
			return err
		}

		entries, err := scanAll(cmd, a)
		if err != nil {
			return err
		}

		out := os.Stdout
		if reportFile != "" {
			file, err := os.Create(reportFile)
			if err != nil {
				return fmt.Errorf("failed to save report: %w", err)
			}
			defer file.Close()
			out = file
		}

		if err := reporter.New(out, format).Report(entries); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
		if reportFile != "" {
			fmt.Printf("Report saved to: %s\n", reportFile)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportOutput, "output", "summary", "output format (summary, table, json, yaml)")
	reportCmd.Flags().StringVar(&reportFile, "file", "", "save report to file")
	reportCmd.Flags().BoolVar(&showHistory, "history", false, "print the history of past cleanups")
}
