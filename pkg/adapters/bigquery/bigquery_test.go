package bigquery

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/leapstack-labs/leapdw/pkg/adapter"
	"github.com/leapstack-labs/leapdw/pkg/changeset"
	"github.com/leapstack-labs/leapdw/pkg/core"
	"github.com/leapstack-labs/leapdw/pkg/partition"
	"github.com/leapstack-labs/leapdw/pkg/relation"
	"github.com/leapstack-labs/leapdw/pkg/relconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestMetadataToMap(t *testing.T) {
	md := &bigquery.TableMetadata{
		Type:             bigquery.RegularTable,
		TimePartitioning: &bigquery.TimePartitioning{Type: bigquery.DayPartitioningType, Field: "created_at"},
		Clustering:       &bigquery.Clustering{Fields: []string{"customer_id"}},
		Labels:           map[string]string{"team": "data"},
		Description:      "orders",
		ExpirationTime:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EncryptionConfig: &bigquery.EncryptionConfig{KMSKeyName: "k"},
	}

	m := MetadataToMap(md)
	assert.Equal(t, "TABLE", m["type"])
	assert.Equal(t, map[string]any{"type": "DAY", "field": "created_at"}, m["timePartitioning"])
	assert.Equal(t, map[string]any{"fields": []any{"customer_id"}}, m["clustering"])
	assert.Equal(t, map[string]any{"team": "data"}, m["labels"])
	assert.Equal(t, "orders", m["description"])
	assert.Equal(t, "1735689600000", m["expirationTime"])
	assert.Equal(t, map[string]any{"kmsKeyName": "k"}, m["encryptionConfiguration"])

	cfg, err := relconfig.FromWarehouseMetadata(m)
	require.NoError(t, err)
	assert.Equal(t, core.RelationTable, cfg.Type)
	assert.Equal(t, "created_at", cfg.Partition.Field)
	assert.Equal(t, "2025-01-01T00:00:00Z", *cfg.Options.ExpirationTimestamp)
}

func TestMetadataToMap_Minimal(t *testing.T) {
	m := MetadataToMap(&bigquery.TableMetadata{Type: bigquery.ViewTable})
	assert.Equal(t, map[string]any{"type": "VIEW"}, m)

	m = MetadataToMap(&bigquery.TableMetadata{
		RangePartitioning: &bigquery.RangePartitioning{
			Field: "id",
			Range: &bigquery.RangePartitioningRange{Start: 0, End: 100, Interval: 10},
		},
	})
	assert.Equal(t, "TABLE", m["type"])
	cfg, err := relconfig.FromWarehouseMetadata(m)
	require.NoError(t, err)
	assert.Equal(t, &partition.Range{Start: 0, End: 100, Interval: 10}, cfg.Partition.Range)
}

func TestPartitionsMatch(t *testing.T) {
	dayTS := &bigquery.TableMetadata{
		TimePartitioning: &bigquery.TimePartitioning{Type: bigquery.DayPartitioningType, Field: "ts"},
	}
	ingestion := &bigquery.TableMetadata{
		TimePartitioning: &bigquery.TimePartitioning{Type: bigquery.HourPartitioningType},
	}
	ranged := &bigquery.TableMetadata{
		RangePartitioning: &bigquery.RangePartitioning{
			Field: "id",
			Range: &bigquery.RangePartitioningRange{Start: 0, End: 100, Interval: 10},
		},
	}

	mustParse := func(raw map[string]any) *partition.Config {
		cfg, err := partition.Parse(raw)
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name string
		md   *bigquery.TableMetadata
		cfg  *partition.Config
		want bool
	}{
		{"day field", dayTS, mustParse(map[string]any{"field": "TS"}), true},
		{"different field", dayTS, mustParse(map[string]any{"field": "other"}), false},
		{"different granularity", dayTS, mustParse(map[string]any{"field": "ts", "granularity": "month"}), false},
		{"unpartitioned config", dayTS, nil, false},
		{"unpartitioned both", &bigquery.TableMetadata{}, nil, true},
		{"ingestion hour", ingestion, mustParse(map[string]any{
			"field": "ts", "data_type": "timestamp", "granularity": "hour", "time_ingestion_partitioning": true,
		}), true},
		{"range", ranged, mustParse(map[string]any{
			"field": "id", "data_type": "int64", "range": map[string]any{"start": 0, "end": 100, "interval": 10},
		}), true},
		{"range vs time", ranged, mustParse(map[string]any{"field": "id"}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PartitionsMatch(tt.md, tt.cfg))
		})
	}
}

func testRelation() relation.Relation {
	return relation.New("proj", "analytics", "orders", relation.BigQueryPolicy())
}

func build(t *testing.T, existing, desired map[string]any) *changeset.Changeset {
	t.Helper()
	e, err := relconfig.FromWarehouseMetadata(existing)
	require.NoError(t, err)
	d, err := relconfig.FromUserConfig(desired)
	require.NoError(t, err)
	return changeset.Build(e, d)
}

func TestRenderAlter(t *testing.T) {
	cs := build(t,
		map[string]any{"type": "TABLE", "labels": map[string]any{"old": "x", "team": "a"}},
		map[string]any{"relation_type": "table", "labels": map[string]any{"team": "b"}, "description": "Orders"},
	)

	stmts, err := RenderAlter(testRelation(), cs)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t,
		"alter table `proj`.`analytics`.`orders` set OPTIONS(labels=[(\"team\", \"b\")], description=\"\"\"Orders\"\"\")",
		stmts[0])
}

func TestRenderAlter_DropAllLabels(t *testing.T) {
	cs := build(t,
		map[string]any{"type": "TABLE", "labels": map[string]any{"old": "x"}},
		map[string]any{"relation_type": "table"},
	)
	stmts, err := RenderAlter(testRelation(), cs)
	require.NoError(t, err)
	assert.Equal(t, []string{"alter table `proj`.`analytics`.`orders` set OPTIONS(labels=[])"}, stmts)
}

func TestRenderAlter_Errors(t *testing.T) {
	rel := testRelation()

	full := build(t,
		map[string]any{"type": "TABLE"},
		map[string]any{"relation_type": "table", "partition_by": map[string]any{"field": "ts"}},
	)
	_, err := RenderAlter(rel, full)
	var fr *adapter.FullRefreshError
	require.ErrorAs(t, err, &fr)

	clustering := build(t,
		map[string]any{"type": "TABLE"},
		map[string]any{"relation_type": "table", "cluster_by": "id"},
	)
	_, err = RenderAlter(rel, clustering)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "through the API")

	none, err := RenderAlter(rel, build(t, map[string]any{"type": "TABLE"}, map[string]any{"relation_type": "table"}))
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestBuildUpdate(t *testing.T) {
	cs := build(t,
		map[string]any{
			"type":           "TABLE",
			"labels":         map[string]any{"gone": "x"},
			"expirationTime": "1735689600000",
		},
		map[string]any{
			"relation_type": "table",
			"cluster_by":    []any{"a", "b"},
			"labels":        map[string]any{"team": "data"},
			"description":   "d",
			"kms_key_name":  "k",
		},
	)

	tm, err := BuildUpdate(cs)
	require.NoError(t, err)
	require.NotNil(t, tm.Clustering)
	assert.Equal(t, []string{"a", "b"}, tm.Clustering.Fields)
	assert.Equal(t, "d", tm.Description)
	assert.Equal(t, bigquery.NeverExpire, tm.ExpirationTime)
	require.NotNil(t, tm.EncryptionConfig)
	assert.Equal(t, "k", tm.EncryptionConfig.KMSKeyName)
}

func TestBuildUpdate_Errors(t *testing.T) {
	expr := &changeset.Changeset{Changes: []changeset.ConfigChange{
		changeset.OptionChange(changeset.ActionAlter, changeset.OptionExpirationTimestamp, "TIMESTAMP_ADD(CURRENT_TIMESTAMP(), INTERVAL 1 hour)"),
	}}
	_, err := BuildUpdate(expr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a timestamp")

	dropKMS := &changeset.Changeset{Changes: []changeset.ConfigChange{
		changeset.OptionChange(changeset.ActionDrop, changeset.OptionKMSKeyName, ""),
	}}
	_, err = BuildUpdate(dropKMS)
	require.Error(t, err)

	rebuild := &changeset.Changeset{Changes: []changeset.ConfigChange{changeset.Rebuild(core.RelationTable, "x")}}
	_, err = BuildUpdate(rebuild)
	require.Error(t, err)
}

func TestWriteDisposition(t *testing.T) {
	d, err := WriteDisposition("table")
	require.NoError(t, err)
	assert.Equal(t, bigquery.WriteTruncate, d)

	d, err = WriteDisposition("incremental")
	require.NoError(t, err)
	assert.Equal(t, bigquery.WriteAppend, d)

	_, err = WriteDisposition("view")
	assert.True(t, core.IsValidationError(err))
}

func TestHasViewAccess(t *testing.T) {
	view := &bigquery.Table{ProjectID: "p", DatasetID: "d", TableID: "v"}
	entries := []*bigquery.AccessEntry{
		{Role: bigquery.ReaderRole, EntityType: bigquery.UserEmailEntity, Entity: "a@example.com"},
		nil,
	}
	assert.False(t, HasViewAccess(entries, view))

	entries = append(entries, &bigquery.AccessEntry{
		EntityType: bigquery.ViewEntity,
		View:       &bigquery.Table{ProjectID: "p", DatasetID: "d", TableID: "v"},
	})
	assert.True(t, HasViewAccess(entries, view))
	assert.False(t, HasViewAccess(entries, &bigquery.Table{ProjectID: "p", DatasetID: "d", TableID: "other"}))
}

func TestCatalogRow(t *testing.T) {
	row := CatalogRow(
		&bigquery.Table{ProjectID: "p", DatasetID: "d", TableID: "t"},
		&bigquery.TableMetadata{Type: bigquery.MaterializedView},
	)
	assert.Equal(t, []any{"p", "d", "t", "MATERIALIZED_VIEW"}, row)
	assert.Equal(t, []string{"table_database", "table_schema", "table_name", "table_type"}, catalogColumns())
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&googleapi.Error{Code: 404}))
	assert.False(t, isNotFound(&googleapi.Error{Code: 403}))
	assert.False(t, isNotFound(errors.New("boom")))
}

func TestAdapter_NotConnected(t *testing.T) {
	a := New(nil)
	assert.False(t, a.IsConnected())
	assert.NoError(t, a.Close())
	assert.Equal(t, relation.BigQueryPolicy(), a.Policy())

	_, err := a.DescribeRelation(context.Background(), testRelation())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}
