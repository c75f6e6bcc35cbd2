package bigquery

import (
	"strconv"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/leapstack-labs/leapdw/pkg/partition"
)

// MetadataToMap converts table metadata into the REST resource shape read by
// relconfig.FromWarehouseMetadata.
func MetadataToMap(md *bigquery.TableMetadata) map[string]any {
	m := map[string]any{"type": tableType(md.Type)}

	if tp := md.TimePartitioning; tp != nil {
		t := map[string]any{"type": string(tp.Type)}
		if tp.Field != "" {
			t["field"] = tp.Field
		}
		m["timePartitioning"] = t
	}
	if rp := md.RangePartitioning; rp != nil {
		r := map[string]any{"field": rp.Field}
		if rp.Range != nil {
			r["range"] = map[string]any{
				"start":    strconv.FormatInt(rp.Range.Start, 10),
				"end":      strconv.FormatInt(rp.Range.End, 10),
				"interval": strconv.FormatInt(rp.Range.Interval, 10),
			}
		}
		m["rangePartitioning"] = r
	}
	if md.Clustering != nil && len(md.Clustering.Fields) > 0 {
		fields := make([]any, len(md.Clustering.Fields))
		for i, f := range md.Clustering.Fields {
			fields[i] = f
		}
		m["clustering"] = map[string]any{"fields": fields}
	}
	if len(md.Labels) > 0 {
		labels := make(map[string]any, len(md.Labels))
		for k, v := range md.Labels {
			labels[k] = v
		}
		m["labels"] = labels
	}
	if md.Description != "" {
		m["description"] = md.Description
	}
	if !md.ExpirationTime.IsZero() {
		m["expirationTime"] = strconv.FormatInt(md.ExpirationTime.UnixMilli(), 10)
	}
	if md.EncryptionConfig != nil && md.EncryptionConfig.KMSKeyName != "" {
		m["encryptionConfiguration"] = map[string]any{"kmsKeyName": md.EncryptionConfig.KMSKeyName}
	}
	return m
}

func tableType(t bigquery.TableType) string {
	if t == "" {
		return string(bigquery.RegularTable)
	}
	return strings.ToUpper(string(t))
}

// ObservedPartition extracts the partitioning of an existing table.
func ObservedPartition(md *bigquery.TableMetadata) partition.Observed {
	var o partition.Observed
	if md == nil {
		return o
	}
	if tp := md.TimePartitioning; tp != nil {
		o.Time = &partition.TimePartitioning{Type: string(tp.Type), Field: tp.Field}
	}
	if rp := md.RangePartitioning; rp != nil {
		o.Range = &partition.RangePartitioning{Field: rp.Field}
		if rp.Range != nil {
			o.Range.Start = rp.Range.Start
			o.Range.End = rp.Range.End
			o.Range.Interval = rp.Range.Interval
		}
	}
	return o
}

// PartitionsMatch reports whether an existing table is already partitioned
// the way cfg declares.
func PartitionsMatch(md *bigquery.TableMetadata, cfg *partition.Config) bool {
	return partition.Matches(ObservedPartition(md), cfg)
}
