package models_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic-crawler/models"
)

func TestNewExtractedData_AppliesCaps(t *testing.T) {
	t.Parallel()

	rows := make([][]string, 25)
	for i := range rows {
		rows[i] = []string{fmt.Sprint(i)}
	}
	tables := make([]models.Table, 7)
	for i := range tables {
		tables[i] = models.Table{Headers: []string{"h"}, Rows: rows}
	}
	many := func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = fmt.Sprint(i)
		}
		return out
	}

	data := models.NewExtractedData(tables, many(40), many(40), many(40))

	require.Len(t, data.Tables, models.MaxTables)
	for _, tbl := range data.Tables {
		assert.Len(t, tbl.Rows, models.MaxTableRows)
	}
	assert.Len(t, data.Dates, models.MaxDates)
	assert.Len(t, data.Amounts, models.MaxAmounts)
	assert.Len(t, data.Contacts, models.MaxContacts)
}

func TestNewExtractedData_NilBecomesEmpty(t *testing.T) {
	t.Parallel()

	data := models.NewExtractedData(nil, nil, nil, nil)

	assert.NotNil(t, data.Tables)
	assert.NotNil(t, data.Dates)
	assert.True(t, data.IsEmpty())
}

func TestParseDataType(t *testing.T) {
	t.Parallel()

	dt, err := models.ParseDataType("planning_application")
	require.NoError(t, err)
	assert.Equal(t, models.DataTypePlanningApplication, dt)

	_, err = models.ParseDataType("blog")
	assert.Error(t, err)
}

func TestCrawlStats_RunningAverage(t *testing.T) {
	t.Parallel()

	stats := models.NewCrawlStats("s1", time.Now())
	for _, q := range []float64{0.2, 0.4, 0.9} {
		stats.Record(models.CrawlResult{
			Quality:  q,
			DataType: models.DataTypeMeeting,
			Category: "Council Meetings",
			Metadata: models.Metadata{ContentLength: 100},
		})
	}
	stats.RecordFailure()

	assert.InDelta(t, 0.5, stats.AverageQuality, 1e-9)
	assert.Equal(t, 3, stats.ProcessedURLs)
	assert.Equal(t, 1, stats.FailedURLs)
	assert.Equal(t, 4, stats.TotalURLs)
	assert.Equal(t, int64(300), stats.TotalContentSize)
	assert.Equal(t, 3, stats.ByDataType[models.DataTypeMeeting])
	assert.InDelta(t, 0.75, stats.SuccessRate(), 1e-9)
}

func TestCrawlStats_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	stats := models.NewCrawlStats("s1", time.Now())
	stats.Record(models.CrawlResult{DataType: models.DataTypeGeneral, Category: "General"})

	clone := stats.Clone()
	stats.Record(models.CrawlResult{DataType: models.DataTypeGeneral, Category: "General"})

	assert.Equal(t, 1, clone.ByCategory["General"])
	assert.Equal(t, 2, stats.ByCategory["General"])
}

func TestExcerpt(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("é", models.MaxExcerptLength+20)
	assert.Equal(t, models.MaxExcerptLength, len([]rune(models.Excerpt(long))))
	assert.Equal(t, "short", models.Excerpt("short"))
}
