package bigquery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"cloud.google.com/go/bigquery"
	"github.com/leapstack-labs/leapdw/pkg/core"
	"github.com/leapstack-labs/leapdw/pkg/relation"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Adapter implements the adapter.Adapter interface for BigQuery.
type Adapter struct {
	client *bigquery.Client
	cfg    core.TargetConfig
	logger *slog.Logger
}

// New creates a new BigQuery adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{logger: logger}
}

// Connect creates a BigQuery client for the target project.
func (a *Adapter) Connect(ctx context.Context, cfg core.TargetConfig) error {
	if cfg.Database == "" {
		return fmt.Errorf("bigquery target requires a database (project id)")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	a.logger.Debug("connecting to bigquery",
		slog.String("project", cfg.Database),
		slog.String("location", cfg.Location))

	client, err := bigquery.NewClient(ctx, cfg.Database, opts...)
	if err != nil {
		return fmt.Errorf("failed to create bigquery client: %w", err)
	}
	if cfg.Location != "" {
		client.Location = cfg.Location
	}

	a.client = client
	a.cfg = cfg
	return nil
}

// Close closes the BigQuery client.
func (a *Adapter) Close() error {
	if a.client == nil {
		return nil
	}
	a.logger.Debug("closing bigquery client")
	err := a.client.Close()
	a.client = nil
	return err
}

// IsConnected returns true if the client has been created.
func (a *Adapter) IsConnected() bool {
	return a.client != nil
}

// Policy returns the BigQuery identifier policy.
func (a *Adapter) Policy() relation.Policy {
	return relation.BigQueryPolicy()
}

// Exec runs a statement as a query job and waits for it to finish.
func (a *Adapter) Exec(ctx context.Context, sql string) error {
	if a.client == nil {
		return fmt.Errorf("bigquery client not connected")
	}
	a.logger.Debug("executing statement", slog.String("sql", sql))

	q := a.client.Query(sql)
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to start query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("failed to wait for query job %s: %w", job.ID(), err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("query job %s failed: %w", job.ID(), err)
	}
	return nil
}

// DescribeRelation fetches the table resource of rel and converts it to
// an observed configuration mapping.
func (a *Adapter) DescribeRelation(ctx context.Context, rel relation.Relation) (map[string]any, error) {
	if a.client == nil {
		return nil, fmt.Errorf("bigquery client not connected")
	}
	md, err := a.table(rel).Metadata(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s: %w", rel.Render(), core.ErrRelationNotFound)
		}
		return nil, fmt.Errorf("failed to describe %s: %w", rel.Render(), err)
	}
	return MetadataToMap(md), nil
}

func (a *Adapter) table(rel relation.Relation) *bigquery.Table {
	return a.dataset(rel.Database, rel.Schema).Table(rel.Identifier)
}

func (a *Adapter) dataset(project, dataset string) *bigquery.Dataset {
	if project == "" {
		return a.client.Dataset(dataset)
	}
	return a.client.DatasetInProject(project, dataset)
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
