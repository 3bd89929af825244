package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"civic-crawler/models"
	"civic-crawler/report"
)

const maxURLWidth = 70

func recordsCommand() *cobra.Command {
	var (
		dataType string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "records",
		Short: "List records of the latest crawl session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var dt models.DataType
			if dataType != "" {
				parsed, err := models.ParseDataType(dataType)
				if err != nil {
					return err
				}
				dt = parsed
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			reader, closeFn, err := openReader(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			records, err := reader.GetRecords(cmd.Context(), dt, limit)
			if err != nil {
				return fmt.Errorf("read records: %w", err)
			}
			renderRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataType, "data-type", "", "only records of this data type")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of records, 0 for all")

	return cmd
}

func statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show stats of the latest crawl session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			reader, closeFn, err := openReader(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			stats, err := reader.GetStats(cmd.Context())
			if err != nil {
				return fmt.Errorf("read stats: %w", err)
			}
			renderStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}
}

func renderRecords(w io.Writer, records []models.CrawlResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Type", "Category", "Quality", "Confidence", "URL"})
	for _, r := range records {
		t.AppendRow(table.Row{
			r.Sequence,
			r.DataType,
			r.Category,
			fmt.Sprintf("%.2f", r.Quality),
			r.Citation.Confidence,
			text.Trim(r.URL, maxURLWidth),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total", len(records)})
	t.Render()
}

func renderStats(w io.Writer, s *models.CrawlStats) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Session " + s.SessionID)
	t.AppendRows([]table.Row{
		{"Status", s.Status},
		{"Started", s.StartedAt.Format("2006-01-02 15:04:05")},
		{"Total URLs", s.TotalURLs},
		{"Processed", s.ProcessedURLs},
		{"Failed", s.FailedURLs},
		{"Skipped", s.SkippedURLs},
		{"Success Rate", fmt.Sprintf("%.1f%%", s.SuccessRate()*100)},
		{"Content", report.FormatBytes(s.TotalContentSize)},
		{"Average Quality", fmt.Sprintf("%.2f", s.AverageQuality)},
	})
	for _, dt := range models.DataTypes {
		if n := s.ByDataType[dt]; n > 0 {
			t.AppendRow(table.Row{"  " + string(dt), n})
		}
	}
	t.Render()
}
