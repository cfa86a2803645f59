package export

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aer205/gh-issue-stats/internal/domain"
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func fixtureStats() domain.RepositoryStats {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	closed := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	return domain.RepositoryStats{
		{
			Owner: "acme",
			Name:  "widgets",
			URL:   "https://github.com/acme/widgets",
			Issues: []domain.IssueRecord{
				{
					Number:      7,
					CreatedAt:   created,
					ClosedAt:    timePtr(closed),
					StartEvent:  strPtr("labeled"),
					StartID:     strPtr("100"),
					StartedAt:   timePtr(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)),
					FinishEvent: strPtr("closed"),
					FinishID:    strPtr("200"),
					FinishedAt:  timePtr(closed),
					StateReason: strPtr("completed"),
				},
				{Number: 12, CreatedAt: created, ClosedAt: timePtr(closed)},
			},
		},
		{
			Owner: "acme",
			Name:  "gears",
			URL:   "https://github.com/acme/gears",
			Issues: []domain.IssueRecord{
				{Number: 3, CreatedAt: created, ClosedAt: timePtr(closed), IsPull: true, IsSquash: true},
			},
		},
	}
}

func TestFlatten(t *testing.T) {
	rows := Flatten(fixtureStats())

	require.Len(t, rows, 3)
	assert.Equal(t, "widgets", rows[0].Repo)
	assert.Equal(t, int64(7), rows[0].Number)
	assert.Equal(t, "gears", rows[2].Repo)
	assert.True(t, rows[2].IsSquash)

	// Absent fields stay nil on the flattened row.
	assert.Nil(t, rows[1].StartEvent)
	assert.Nil(t, rows[1].StateReason)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteCSV(&buf, Flatten(fixtureStats())))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4, "header plus three rows")
	assert.Equal(t, csvHeader, records[0])

	full := records[1]
	assert.Equal(t, "acme", full[0])
	assert.Equal(t, "7", full[2])
	assert.Equal(t, "labeled", full[5])
	assert.Equal(t, "completed", full[11])

	// Absent fields map to empty cells.
	sparse := records[2]
	assert.Equal(t, "12", sparse[2])
	for _, i := range []int{5, 6, 7, 8, 9, 10, 11} {
		assert.Empty(t, sparse[i], "column %s must be empty", csvHeader[i])
	}
	assert.Equal(t, "false", sparse[12])
}

func TestRowStructTags(t *testing.T) {
	// Verify struct tags are properly defined for parquet schema inference.
	schema := parquet.SchemaOf(new(Row))
	require.NotNil(t, schema)

	expectedColumns := []string{
		"owner", "repo", "number", "created_at", "closed_at",
		"start_event", "start_id", "started_at",
		"finish_event", "finish_id", "finished_at",
		"state_reason", "is_pull", "is_squash",
	}
	for _, colName := range expectedColumns {
		_, ok := schema.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestWriteParquet_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.parquet")
	rows := Flatten(fixtureStats())

	require.NoError(t, WriteParquet(rows, path))

	loaded, err := parquet.ReadFile[Row](path)
	require.NoError(t, err)
	require.Len(t, loaded, len(rows))

	assert.Equal(t, rows[0].Owner, loaded[0].Owner)
	assert.Equal(t, rows[0].Number, loaded[0].Number)
	require.NotNil(t, loaded[0].StartEvent)
	assert.Equal(t, "labeled", *loaded[0].StartEvent)
	assert.Nil(t, loaded[1].StartEvent, "absent fields survive as parquet nulls")
	assert.True(t, loaded[2].IsSquash)
}

func TestWriteSampleTable(t *testing.T) {
	var buf bytes.Buffer
	sample := domain.SampleSet{
		{URL: "https://github.com/acme/widgets", Owner: "acme", Name: "widgets", Commits: 120},
		{URL: "https://github.com/acme/gears", Owner: "acme", Name: "gears", Commits: 40},
	}

	require.NoError(t, WriteSampleTable(&buf, sample))

	out := buf.String()
	assert.Contains(t, out, "acme/widgets")
	assert.Contains(t, out, "120")
	assert.Contains(t, out, "acme/gears")
}
