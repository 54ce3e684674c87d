// Package engine wires the data layer together: metrics retrieval through the
// data source manager, model fitting through an opaque consumer, and artifact
// persistence through the storage abstraction.
package engine

import (
	"log/slog"

	"github.com/impact-engine/impact-engine/internal/config"
	"github.com/impact-engine/impact-engine/internal/datasource"
	"github.com/impact-engine/impact-engine/internal/metrics"
	"github.com/impact-engine/impact-engine/internal/storage"
	"github.com/impact-engine/impact-engine/internal/storage/s3"
	"github.com/impact-engine/impact-engine/pkg/errors"
	"github.com/impact-engine/impact-engine/pkg/types"
)

// ModelFitter is the contract of the statistical modeling layer. The engine
// treats it as an opaque consumer of the canonical metrics table: it fits
// whatever model it implements, persists its artifacts through the given
// store under outputKey, and returns the location of the saved result.
type ModelFitter interface {
	Fit(data *types.MetricsTable, outputKey string, store types.DocumentStore) (string, error)
}

// Options configures an evaluation run.
type Options struct {
	// StorageURL overrides the configured storage location.
	StorageURL string
	// TenantID scopes persisted artifacts. Empty means the default tenant.
	TenantID string
	// OutputKey is the document key for model results. Defaults to "results".
	OutputKey string
}

// EvaluateImpact retrieves business metrics for the given products using the
// configuration at configPath, fits the model, and returns the location of
// the persisted result.
func EvaluateImpact(configPath string, products []types.Product, fitter ModelFitter, opts Options) (string, error) {
	logger := slog.Default().With("component", "engine")

	cfg, err := config.Load(configPath)
	if err != nil {
		return "", errors.Newf(errors.ErrCodeConfigLoad, "failed to load configuration: %v", err).
			WithComponent("engine").
			WithCause(err)
	}

	var collector *metrics.Collector
	if cfg.Monitoring.MetricsEnabled {
		collector, err = metrics.NewCollector(&metrics.Config{
			Enabled:   true,
			Namespace: cfg.Monitoring.Namespace,
		})
		if err != nil {
			return "", err
		}
	}

	storageURL := cfg.Storage.URL
	if opts.StorageURL != "" {
		storageURL = opts.StorageURL
	}

	factory := storage.NewFactory(
		storage.WithS3Config(s3.Config{
			Region:          cfg.Storage.S3.Region,
			Endpoint:        cfg.Storage.S3.Endpoint,
			AccessKeyID:     cfg.Storage.S3.AccessKeyID,
			SecretAccessKey: cfg.Storage.S3.SecretAccessKey,
			ForcePathStyle:  cfg.Storage.S3.ForcePathStyle,
			StagingDir:      cfg.Storage.S3.StagingDir,
		}),
		storage.WithCollector(collector),
	)

	store, err := factory.Create(storageURL)
	if err != nil {
		return "", err
	}

	manager, err := datasource.NewManager(cfg.Data, datasource.WithCollector(collector))
	if err != nil {
		return "", err
	}

	table, err := manager.RetrieveMetrics(products)
	if err != nil {
		return "", err
	}

	outputKey := opts.OutputKey
	if outputKey == "" {
		outputKey = "results"
	}

	tenantStore := store
	if opts.TenantID != "" {
		tenantStore = tenantScoped{inner: store, tenantID: opts.TenantID}
	}

	location, err := fitter.Fit(table, outputKey, tenantStore)
	if err != nil {
		return "", err
	}

	logger.Info("impact evaluation complete", "rows", len(table.Records), "result", location)
	return location, nil
}

// tenantScoped pins every store/load to one tenant so the fitter cannot cross
// tenant boundaries.
type tenantScoped struct {
	inner    types.DocumentStore
	tenantID string
}

func (t tenantScoped) Store(key string, document interface{}, _ string) (string, error) {
	return t.inner.Store(key, document, t.tenantID)
}

func (t tenantScoped) Load(key string, _ string) (interface{}, error) {
	return t.inner.Load(key, t.tenantID)
}
