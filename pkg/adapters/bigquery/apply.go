package bigquery

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"
	"github.com/leapstack-labs/leapdw/pkg/adapter"
	"github.com/leapstack-labs/leapdw/pkg/changeset"
	"github.com/leapstack-labs/leapdw/pkg/relation"
	"github.com/spf13/cast"
)

// ApplyChangeset applies the in-place changes of cs with a single table
// patch guarded by the current etag.
func (a *Adapter) ApplyChangeset(ctx context.Context, rel relation.Relation, cs *changeset.Changeset) error {
	if a.client == nil {
		return fmt.Errorf("bigquery client not connected")
	}
	if cs.RequiresFullRefresh() {
		return &adapter.FullRefreshError{Relation: rel.Render()}
	}
	update, err := BuildUpdate(cs)
	if err != nil {
		return fmt.Errorf("%s: %w", rel.Render(), err)
	}

	table := a.table(rel)
	md, err := table.Metadata(ctx)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", rel.Render(), err)
	}
	if _, err := table.Update(ctx, update, md.ETag); err != nil {
		return fmt.Errorf("failed to update %s: %w", rel.Render(), err)
	}

	a.logger.Info("applied changes",
		slog.String("relation", rel.Render()),
		slog.Int("changes", len(cs.Changes)))
	return nil
}

// BuildUpdate converts the in-place changes of cs into a table patch.
func BuildUpdate(cs *changeset.Changeset) (bigquery.TableMetadataToUpdate, error) {
	var tm bigquery.TableMetadataToUpdate
	for _, c := range cs.Changes {
		switch c.Kind {
		case changeset.KindClustering:
			tm.Clustering = &bigquery.Clustering{Fields: c.Cluster}
		case changeset.KindLabels:
			if c.Action == changeset.ActionDrop {
				tm.DeleteLabel(c.Label.Key)
			} else {
				tm.SetLabel(c.Label.Key, c.Label.Value)
			}
		case changeset.KindOptions:
			if err := applyOption(&tm, c); err != nil {
				return tm, err
			}
		default:
			return tm, fmt.Errorf("%s changes cannot be applied in place", c.Kind)
		}
	}
	return tm, nil
}

func applyOption(tm *bigquery.TableMetadataToUpdate, c changeset.ConfigChange) error {
	drop := c.Action == changeset.ActionDrop
	switch c.Option.Name {
	case changeset.OptionDescription:
		tm.Description = c.Option.Value
	case changeset.OptionExpirationTimestamp:
		if drop {
			tm.ExpirationTime = bigquery.NeverExpire
			return nil
		}
		t, err := cast.ToTimeE(c.Option.Value)
		if err != nil {
			return fmt.Errorf("expiration_timestamp %q is not a timestamp: %w", c.Option.Value, err)
		}
		tm.ExpirationTime = t
	case changeset.OptionKMSKeyName:
		if drop {
			return fmt.Errorf("kms_key_name cannot be removed from an encrypted table")
		}
		tm.EncryptionConfig = &bigquery.EncryptionConfig{KMSKeyName: c.Option.Value}
	default:
		return fmt.Errorf("unknown option %q", c.Option.Name)
	}
	return nil
}
