// Package export flattens extraction results into tabular formats (CSV,
// Parquet) for downstream analysis tools, and renders sampler output for
// humans.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/parquet-go/parquet-go"

	"github.com/aer205/gh-issue-stats/internal/domain"
)

// Row is one issue record flattened with its repository key. Nullable
// fields stay pointers so absent values survive into the output as
// empty CSV cells or Parquet nulls.
type Row struct {
	Owner     string    `parquet:"owner,snappy"`
	Repo      string    `parquet:"repo,snappy"`
	Number    int64     `parquet:"number,snappy"`
	CreatedAt time.Time `parquet:"created_at,snappy"`

	ClosedAt    *time.Time `parquet:"closed_at,optional,snappy"`
	StartEvent  *string    `parquet:"start_event,optional,snappy"`
	StartID     *string    `parquet:"start_id,optional,snappy"`
	StartedAt   *time.Time `parquet:"started_at,optional,snappy"`
	FinishEvent *string    `parquet:"finish_event,optional,snappy"`
	FinishID    *string    `parquet:"finish_id,optional,snappy"`
	FinishedAt  *time.Time `parquet:"finished_at,optional,snappy"`
	StateReason *string    `parquet:"state_reason,optional,snappy"`

	IsPull   bool `parquet:"is_pull,snappy"`
	IsSquash bool `parquet:"is_squash,snappy"`
}

// Flatten converts a result set into one row per issue record, preserving
// repository and issue order.
func Flatten(stats domain.RepositoryStats) []Row {
	var rows []Row
	for _, repo := range stats {
		for _, issue := range repo.Issues {
			rows = append(rows, Row{
				Owner:       repo.Owner,
				Repo:        repo.Name,
				Number:      int64(issue.Number),
				CreatedAt:   issue.CreatedAt,
				ClosedAt:    issue.ClosedAt,
				StartEvent:  issue.StartEvent,
				StartID:     issue.StartID,
				StartedAt:   issue.StartedAt,
				FinishEvent: issue.FinishEvent,
				FinishID:    issue.FinishID,
				FinishedAt:  issue.FinishedAt,
				StateReason: issue.StateReason,
				IsPull:      issue.IsPull,
				IsSquash:    issue.IsSquash,
			})
		}
	}
	return rows
}

var csvHeader = []string{
	"owner", "repo", "number", "created_at", "closed_at",
	"start_event", "start_id", "started_at",
	"finish_event", "finish_id", "finished_at",
	"state_reason", "is_pull", "is_squash",
}

// WriteCSV writes the rows with a header line. Absent fields become empty
// cells; timestamps are RFC3339.
func WriteCSV(w io.Writer, rows []Row) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Owner,
			row.Repo,
			strconv.FormatInt(row.Number, 10),
			row.CreatedAt.Format(time.RFC3339),
			timeCell(row.ClosedAt),
			strCell(row.StartEvent),
			strCell(row.StartID),
			timeCell(row.StartedAt),
			strCell(row.FinishEvent),
			strCell(row.FinishID),
			timeCell(row.FinishedAt),
			strCell(row.StateReason),
			strconv.FormatBool(row.IsPull),
			strconv.FormatBool(row.IsSquash),
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// WriteParquet writes the rows to a Parquet file using struct schema
// inference; optional columns come from the struct tags.
func WriteParquet(rows []Row, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[Row](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// WriteSampleTable renders a sample set as a human-readable table.
func WriteSampleTable(w io.Writer, sample domain.SampleSet) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Repository", "Commits"})
	var data [][]string
	for i, repo := range sample {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			fmt.Sprintf("%s/%s", repo.Owner, repo.Name),
			strconv.Itoa(repo.Commits),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func strCell(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timeCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
