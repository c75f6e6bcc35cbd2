package bigquery

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"
	"github.com/leapstack-labs/leapdw/pkg/core"
	"github.com/leapstack-labs/leapdw/pkg/relation"
)

// WriteDisposition maps a materialization onto the copy job disposition:
// tables are replaced and incremental models appended to.
func WriteDisposition(materialization string) (bigquery.TableWriteDisposition, error) {
	switch materialization {
	case core.MaterializationTable:
		return bigquery.WriteTruncate, nil
	case core.MaterializationIncremental:
		return bigquery.WriteAppend, nil
	}
	return "", &core.ValidationError{
		Field:    "materialization",
		Value:    materialization,
		Expected: core.OneOf(core.MaterializationTable, core.MaterializationIncremental) + " for a table copy",
	}
}

// CopyTable copies src into dst and waits for the job to finish.
func (a *Adapter) CopyTable(ctx context.Context, src, dst relation.Relation, materialization string) error {
	if a.client == nil {
		return fmt.Errorf("bigquery client not connected")
	}
	disposition, err := WriteDisposition(materialization)
	if err != nil {
		return err
	}

	copier := a.table(dst).CopierFrom(a.table(src))
	copier.WriteDisposition = disposition

	a.logger.Debug("copying table",
		slog.String("source", src.Render()),
		slog.String("destination", dst.Render()),
		slog.String("disposition", string(disposition)))

	job, err := copier.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to start copy %s -> %s: %w", src.Render(), dst.Render(), err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("failed to wait for copy job %s: %w", job.ID(), err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("copy job %s failed: %w", job.ID(), err)
	}
	return nil
}
