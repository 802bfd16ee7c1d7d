package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/mentor-regress/internal/model"
	"github.com/sells-group/mentor-regress/internal/monitoring"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	runs := []model.RunRecord{
		{
			ID:              "abc12345-6789-0000-0000-000000000000",
			StartedAt:       now,
			FinishedAt:      now.Add(2 * time.Minute),
			TotalProcessed:  40,
			TotalSuccessful: 38,
			TotalDegraded:   3,
			High:            1,
			Medium:          2,
		},
		{
			ID:              "def12345-6789-0000-0000-000000000000",
			StartedAt:       now.Add(-24 * time.Hour),
			FinishedAt:      now.Add(-24*time.Hour + 95*time.Second),
			TotalProcessed:  40,
			TotalSuccessful: 40,
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "STARTED")
	assert.Contains(t, output, "DEGRADED")
	assert.Contains(t, output, "abc12345-6789-0000-0000-000000000000")
	assert.Contains(t, output, "2025-06-15 10:30")
	assert.Contains(t, output, "2m0s")
	assert.Contains(t, output, "2025-06-14 10:30")
	assert.Contains(t, output, "1m35s")
}

func TestFormatRunsList_Empty(t *testing.T) {
	var buf bytes.Buffer
	formatRunsList(&buf, nil)
	assert.Contains(t, buf.String(), "PROCESSED")
}

func TestFormatRunStats(t *testing.T) {
	snap := &monitoring.Snapshot{
		Runs:          4,
		DegradedRuns:  1,
		RowsProcessed: 160,
		RowsFailed:    4,
		FailRate:      0.025,
		Degraded:      3,
		High:          1,
		Medium:        2,
		AvgDuration:   125 * time.Second,
		LastRunAt:     time.Date(2025, 6, 15, 6, 0, 0, 0, time.UTC),
		Lookback:      24 * time.Hour,
	}

	var buf bytes.Buffer
	formatRunStats(&buf, snap)

	output := buf.String()
	assert.Contains(t, output, "Run Statistics (last 24h0m0s)")
	assert.Contains(t, output, "Runs:            4")
	assert.Contains(t, output, "Rows failed:     4 (2.5%)")
	assert.Contains(t, output, "Degraded:        3 (HIGH 1, MEDIUM 2)")
	assert.Contains(t, output, "Avg duration:    2m5s")
	assert.Contains(t, output, "Last run:        2025-06-15 06:00")
}

func TestFormatRunStats_AllTimeEmpty(t *testing.T) {
	var buf bytes.Buffer
	formatRunStats(&buf, &monitoring.Snapshot{})

	output := buf.String()
	assert.Contains(t, output, "Run Statistics (all time)")
	assert.NotContains(t, output, "Last run")
}
