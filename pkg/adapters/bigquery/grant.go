package bigquery

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"
	"github.com/leapstack-labs/leapdw/pkg/relation"
)

// GrantAccessTo authorizes the view entity on the dataset project.dataset.
// It is a no-op when the view already has access.
func (a *Adapter) GrantAccessTo(ctx context.Context, entity relation.Relation, project, dataset string) error {
	if a.client == nil {
		return fmt.Errorf("bigquery client not connected")
	}
	ds := a.dataset(project, dataset)
	md, err := ds.Metadata(ctx)
	if err != nil {
		return fmt.Errorf("failed to read dataset %s.%s: %w", project, dataset, err)
	}

	entry := &bigquery.AccessEntry{
		EntityType: bigquery.ViewEntity,
		View:       a.table(entity),
	}
	if HasViewAccess(md.Access, entry.View) {
		a.logger.Debug("view already authorized", slog.String("view", entity.Render()))
		return nil
	}

	update := bigquery.DatasetMetadataToUpdate{Access: append(md.Access, entry)}
	if _, err := ds.Update(ctx, update, md.ETag); err != nil {
		return fmt.Errorf("failed to grant %s access to %s.%s: %w", entity.Render(), project, dataset, err)
	}
	a.logger.Info("granted view access",
		slog.String("view", entity.Render()),
		slog.String("dataset", project+"."+dataset))
	return nil
}

// HasViewAccess reports whether entries already authorize view.
func HasViewAccess(entries []*bigquery.AccessEntry, view *bigquery.Table) bool {
	for _, e := range entries {
		if e == nil || e.EntityType != bigquery.ViewEntity || e.View == nil {
			continue
		}
		if e.View.ProjectID == view.ProjectID &&
			e.View.DatasetID == view.DatasetID &&
			e.View.TableID == view.TableID {
			return true
		}
	}
	return false
}
