package datasource

import (
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/impact-engine/impact-engine/internal/config"
	"github.com/impact-engine/impact-engine/internal/datasource/simulator"
	"github.com/impact-engine/impact-engine/internal/metrics"
	"github.com/impact-engine/impact-engine/pkg/errors"
	"github.com/impact-engine/impact-engine/pkg/types"
)

const (
	dateLayout  = "2006-01-02"
	defaultMode = "rule"
	defaultSeed = 42
)

// Constructor builds a fresh data source instance. The product must satisfy
// types.DataSource; registration checks this structurally.
type Constructor func() interface{}

// Manager coordinates data source registration, configuration validation, and
// retrieval. The type registry is instance-scoped; unrelated managers never
// share registrations.
type Manager struct {
	registry  map[string]Constructor
	cfg       config.DataConfig
	collector *metrics.Collector
	logger    *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithCollector sets the metrics collector used for retrieval metrics.
func WithCollector(c *metrics.Collector) Option {
	return func(m *Manager) {
		m.collector = c
	}
}

// NewManager validates the DATA configuration block, registers the built-in
// data sources, and returns a manager bound to that configuration. The
// configuration is read-only for the life of the manager.
func NewManager(cfg config.DataConfig, opts ...Option) (*Manager, error) {
	if err := validateDataConfig(cfg); err != nil {
		return nil, err
	}

	m := &Manager{
		registry: make(map[string]Constructor),
		cfg:      cfg,
		logger:   slog.Default().With("component", "datasource-manager"),
	}
	for _, opt := range opts {
		opt(m)
	}

	// Built-in data sources. Registration cannot fail here; the adapter
	// satisfies the interface by construction.
	_ = m.RegisterDataSource("simulator", func() interface{} { return simulator.New() })

	return m, nil
}

// FromConfigFile creates a manager from a configuration file, extracting the
// DATA block.
func FromConfigFile(path string, opts ...Option) (*Manager, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, errors.Newf(errors.ErrCodeConfigLoad, "failed to load configuration: %v", err).
			WithComponent("datasource-manager").
			WithCause(err)
	}
	return NewManager(cfg.Data, opts...)
}

// RegisterDataSource registers a constructor under a type name. The
// constructor's product is checked structurally against the DataSource
// interface; a product missing operations is rejected. Re-registration under
// an existing name replaces the previous constructor.
func (m *Manager) RegisterDataSource(sourceType string, ctor Constructor) error {
	probe := ctor()
	if _, ok := probe.(types.DataSource); !ok {
		missing := missingMethods(probe)
		return errors.Newf(errors.ErrCodeCapabilityMissing,
			"data source %q does not implement the DataSource interface, missing: %s",
			sourceType, strings.Join(missing, ", ")).
			WithComponent("datasource-manager").
			WithOperation("RegisterDataSource").
			WithDetail("missing_operations", missing)
	}

	m.registry[sourceType] = ctor
	return nil
}

// missingMethods lists the DataSource operations the probe value lacks.
func missingMethods(probe interface{}) []string {
	ifaceType := reflect.TypeOf((*types.DataSource)(nil)).Elem()

	probeType := reflect.TypeOf(probe)
	var missing []string
	for i := 0; i < ifaceType.NumMethod(); i++ {
		name := ifaceType.Method(i).Name
		if probeType == nil {
			missing = append(missing, name)
			continue
		}
		if _, ok := probeType.MethodByName(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// AvailableSources returns the registered type names, sorted.
func (m *Manager) AvailableSources() []string {
	names := make([]string, 0, len(m.registry))
	for name := range m.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetSource constructs and connects a data source. An empty sourceType means
// the configured TYPE. The connection configuration defaults mode to "rule"
// and seed to 42 when absent from the DATA block.
func (m *Manager) GetSource(sourceType string) (types.DataSource, error) {
	if sourceType == "" {
		sourceType = m.cfg.Type
	}

	ctor, ok := m.registry[sourceType]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnknownSourceType,
			"unknown data source type %q, available: %v", sourceType, m.AvailableSources()).
			WithComponent("datasource-manager").
			WithOperation("GetSource")
	}

	source := ctor().(types.DataSource)

	conn := types.ConnectionConfig{
		Mode: m.cfg.Mode,
		Seed: defaultSeed,
	}
	if conn.Mode == "" {
		conn.Mode = defaultMode
	}
	if m.cfg.Seed != nil {
		conn.Seed = *m.cfg.Seed
	}

	if err := source.Connect(conn); err != nil {
		return nil, errors.Newf(errors.ErrCodeConnectionFailed,
			"failed to connect to %s data source: %v", sourceType, err).
			WithComponent("datasource-manager").
			WithOperation("GetSource").
			WithCause(err)
	}

	return source, nil
}

// RetrieveMetrics retrieves business metrics for the given products using the
// configured source type and date range. The source's result is returned
// unchanged.
func (m *Manager) RetrieveMetrics(products []types.Product) (*types.MetricsTable, error) {
	if len(products) == 0 {
		return nil, errors.NewError(errors.ErrCodeInvalidArgument, "products list cannot be empty").
			WithComponent("datasource-manager").
			WithOperation("RetrieveMetrics")
	}

	runID := uuid.NewString()
	start := time.Now()
	m.logger.Info("retrieving business metrics",
		"run_id", runID,
		"products", len(products),
		"start_date", m.cfg.StartDate,
		"end_date", m.cfg.EndDate)

	source, err := m.GetSource("")
	if err != nil {
		m.collector.RecordError("retrieve")
		return nil, err
	}

	table, err := source.RetrieveBusinessMetrics(products, m.cfg.StartDate, m.cfg.EndDate)
	m.collector.RecordOperation("retrieve", time.Since(start), err == nil)
	if err != nil {
		m.logger.Error("metrics retrieval failed", "run_id", runID, "error", err)
		return nil, err
	}

	m.logger.Info("metrics retrieval complete", "run_id", runID, "rows", len(table.Records))
	return table, nil
}

// validateDataConfig enforces the DATA block invariants: required fields,
// YYYY-MM-DD dates, and start <= end.
func validateDataConfig(cfg config.DataConfig) error {
	for _, f := range []struct{ name, value string }{
		{"type", cfg.Type},
		{"start_date", cfg.StartDate},
		{"end_date", cfg.EndDate},
	} {
		if f.value == "" {
			return errors.Newf(errors.ErrCodeConfigValidation,
				"missing required field %q in DATA configuration", f.name).
				WithComponent("datasource-manager")
		}
	}

	start, err := time.Parse(dateLayout, cfg.StartDate)
	if err != nil {
		return errors.Newf(errors.ErrCodeConfigValidation,
			"invalid start_date %q, expected YYYY-MM-DD", cfg.StartDate).
			WithComponent("datasource-manager").
			WithCause(err)
	}
	end, err := time.Parse(dateLayout, cfg.EndDate)
	if err != nil {
		return errors.Newf(errors.ErrCodeConfigValidation,
			"invalid end_date %q, expected YYYY-MM-DD", cfg.EndDate).
			WithComponent("datasource-manager").
			WithCause(err)
	}

	if start.After(end) {
		return errors.NewError(errors.ErrCodeConfigValidation,
			"start_date must be before or equal to end_date in DATA configuration").
			WithComponent("datasource-manager").
			WithDetail("start_date", cfg.StartDate).
			WithDetail("end_date", cfg.EndDate)
	}

	return nil
}
