// Package benchmark compares the summary reports of two crawl sessions, for
// example two profiles or two delay settings run against the same council.
package benchmark

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"civic-crawler/models"
	"civic-crawler/report"
)

// Comparison holds the derived numbers of a baseline and a candidate session.
type Comparison struct {
	Baseline  *models.SummaryReport
	Candidate *models.SummaryReport
}

// New pairs two reports.
func New(baseline, candidate *models.SummaryReport) Comparison {
	return Comparison{Baseline: baseline, Candidate: candidate}
}

// Render writes the comparison table followed by throughput figures.
func (c Comparison) Render(w io.Writer) {
	b, s := c.Baseline, c.Candidate

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Session Comparison")
	t.AppendHeader(table.Row{"Metric", "Baseline", "Candidate", "Change"})
	t.AppendRows([]table.Row{
		{"Session", b.SessionID, s.SessionID, ""},
		{"Processed", b.ProcessedURLs, s.ProcessedURLs, Improvement(b.ProcessedURLs, s.ProcessedURLs)},
		{"Failed", b.FailedURLs, s.FailedURLs, Reduction(b.FailedURLs, s.FailedURLs)},
		{"Skipped", b.SkippedURLs, s.SkippedURLs, "N/A"},
		{"Success Rate", pct(b.SuccessRate), pct(s.SuccessRate), points(b.SuccessRate, s.SuccessRate)},
		{"Average Quality", fmt.Sprintf("%.2f", b.AverageQuality), fmt.Sprintf("%.2f", s.AverageQuality),
			fmt.Sprintf("%+.2f", s.AverageQuality-b.AverageQuality)},
		{"Duration", Duration(b).Round(time.Second), Duration(s).Round(time.Second),
			DurationImprovement(Duration(b), Duration(s))},
		{"Content", report.FormatBytes(b.TotalContentSize), report.FormatBytes(s.TotalContentSize),
			Improvement(int(b.TotalContentSize), int(s.TotalContentSize))},
	})
	t.Render()

	br, sr := Rate(b), Rate(s)
	fmt.Fprintf(w, "Baseline rate:  %.2f pages/second\n", br)
	fmt.Fprintf(w, "Candidate rate: %.2f pages/second\n", sr)
	if br > 0 {
		fmt.Fprintf(w, "Rate change:    %+.1f%%\n", (sr-br)/br*100)
	}
}

// Duration is the wall time of a session, zero if it never ended.
func Duration(r *models.SummaryReport) time.Duration {
	if r.EndedAt.IsZero() || r.EndedAt.Before(r.StartedAt) {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Rate is processed pages per second.
func Rate(r *models.SummaryReport) float64 {
	d := Duration(r)
	if d <= 0 {
		return 0
	}
	return float64(r.ProcessedURLs) / d.Seconds()
}

// Improvement is the relative growth from baseline to candidate.
func Improvement(baseline, candidate int) string {
	if baseline == 0 {
		return "N/A"
	}
	return signed((float64(candidate) - float64(baseline)) / float64(baseline) * 100)
}

// Reduction is the relative decrease from baseline to candidate, for metrics
// where lower is better.
func Reduction(baseline, candidate int) string {
	if baseline == 0 {
		return "N/A"
	}
	return signed((float64(baseline) - float64(candidate)) / float64(baseline) * 100)
}

// DurationImprovement is positive when the candidate was faster.
func DurationImprovement(baseline, candidate time.Duration) string {
	if baseline == 0 {
		return "N/A"
	}
	return signed((baseline.Seconds() - candidate.Seconds()) / baseline.Seconds() * 100)
}

func signed(v float64) string {
	switch {
	case v > 0:
		return fmt.Sprintf("+%.1f%%", v)
	case v < 0:
		return fmt.Sprintf("%.1f%%", v)
	default:
		return "0%"
	}
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func points(baseline, candidate float64) string {
	return fmt.Sprintf("%+.1fpp", (candidate-baseline)*100)
}
