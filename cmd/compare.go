package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"civic-crawler/benchmark"
	"civic-crawler/models"
	"civic-crawler/storage"
)

func compareCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <baseline-dir> <candidate-dir>",
		Short: "Compare the summary reports of two crawl output directories",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseline, err := loadReport(args[0])
			if err != nil {
				return err
			}
			candidate, err := loadReport(args[1])
			if err != nil {
				return err
			}
			benchmark.New(baseline, candidate).Render(cmd.OutOrStdout())
			return nil
		},
	}
}

func loadReport(dir string) (*models.SummaryReport, error) {
	store, err := storage.OpenFileStore(dir)
	if err != nil {
		return nil, err
	}
	r, err := store.LoadReport()
	if err != nil {
		return nil, fmt.Errorf("load report from %s: %w", dir, err)
	}
	return r, nil
}
