// Package simulator adapts the rule-based retail metrics generator to the
// DataSource interface, reconciling the generator's native schema with the
// canonical metrics schema.
package simulator

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/impact-engine/impact-engine/internal/retailsim"
	"github.com/impact-engine/impact-engine/pkg/errors"
	"github.com/impact-engine/impact-engine/pkg/types"
)

// SourceName is the value attached to every record's metrics_source column.
const SourceName = "catalog_simulator"

// Defaults synthesized for missing descriptive product fields.
const (
	defaultCategory = "Electronics"
	defaultPrice    = 100.0
)

// Fixed generator parameters for the outbound request.
const (
	saleProbability       = 0.7
	impressionToVisitRate = 0.15
	visitToCartRate       = 0.25
	cartToOrderRate       = 0.80
)

// Derivation constants for inventory_level when the generator omits it.
const (
	inventoryCapacity  = 1000
	inventoryDrawdownK = 10
)

// identifierFragments is the ordered priority list used to locate an
// identifier-like column among a product's extra attributes. The order is a
// stated contract, not an implementation accident.
var identifierFragments = []string{"id", "sku", "code"}

// Generator is the slice of the retail simulator the adapter depends on.
type Generator interface {
	SimulateMetrics(products []retailsim.Characteristics) ([]retailsim.Row, error)
}

// GeneratorFactory builds a generator from an outbound config. A nil factory
// models the generator package being unavailable.
type GeneratorFactory func(cfg retailsim.Config) (Generator, error)

// Adapter implements types.DataSource over the retail simulator. An instance
// serves exactly one retrieval after Connect and is not safe for concurrent
// retrievals.
type Adapter struct {
	connected  bool
	mode       string
	seed       int
	newBackend GeneratorFactory
	logger     *slog.Logger
}

// New creates an adapter wired to the real rule-based generator.
func New() *Adapter {
	return NewWithGeneratorFactory(func(cfg retailsim.Config) (Generator, error) {
		return retailsim.NewRuleBackend(cfg)
	})
}

// NewWithGeneratorFactory creates an adapter with a custom generator factory.
// Passing nil yields an adapter whose generator is unavailable.
func NewWithGeneratorFactory(factory GeneratorFactory) *Adapter {
	return &Adapter{
		newBackend: factory,
		logger:     slog.Default().With("component", "catalog-simulator"),
	}
}

// Connect validates the connection configuration and transitions the adapter
// to the connected state. An empty mode means "rule".
func (a *Adapter) Connect(cfg types.ConnectionConfig) error {
	mode := cfg.Mode
	if mode == "" {
		mode = "rule"
	}
	if mode != "rule" && mode != "ml" {
		return errors.Newf(errors.ErrCodeInvalidArgument, "invalid simulator mode %q, must be \"rule\" or \"ml\"", cfg.Mode).
			WithComponent("catalog-simulator").
			WithOperation("Connect")
	}

	if cfg.Seed < 0 {
		return errors.NewError(errors.ErrCodeInvalidArgument, "simulator seed must be a non-negative integer").
			WithComponent("catalog-simulator").
			WithOperation("Connect").
			WithDetail("seed", cfg.Seed)
	}

	a.mode = mode
	a.seed = cfg.Seed
	a.connected = true
	a.logger.Debug("connected to simulator", "mode", mode, "seed", cfg.Seed)
	return nil
}

// ValidateConnection reports whether the adapter is connected and its backing
// generator is available.
func (a *Adapter) ValidateConnection() bool {
	return a.connected && a.newBackend != nil
}

// RetrieveBusinessMetrics generates metrics for the given products over the
// inclusive date range and returns them in canonical form.
func (a *Adapter) RetrieveBusinessMetrics(products []types.Product, startDate, endDate string) (*types.MetricsTable, error) {
	if !a.connected {
		return nil, errors.NewError(errors.ErrCodeConnectionFailed, "not connected to simulator, call Connect first").
			WithComponent("catalog-simulator").
			WithOperation("RetrieveBusinessMetrics")
	}

	if len(products) == 0 {
		return nil, errors.NewError(errors.ErrCodeInvalidArgument, "products list cannot be empty").
			WithComponent("catalog-simulator").
			WithOperation("RetrieveBusinessMetrics")
	}

	if a.newBackend == nil {
		return nil, errors.NewError(errors.ErrCodeGeneratorUnavailable, "retail simulator generator is not available").
			WithComponent("catalog-simulator").
			WithOperation("RetrieveBusinessMetrics")
	}

	characteristics, genConfig := a.transformOutbound(products, startDate, endDate)

	backend, err := a.newBackend(genConfig)
	if err != nil {
		return nil, errors.Newf(errors.ErrCodeRetrievalFailed, "failed to create generator backend: %v", err).
			WithComponent("catalog-simulator").
			WithOperation("RetrieveBusinessMetrics").
			WithCause(err)
	}

	raw, err := backend.SimulateMetrics(characteristics)
	if err != nil {
		return nil, errors.Newf(errors.ErrCodeRetrievalFailed, "failed to retrieve metrics: %v", err).
			WithComponent("catalog-simulator").
			WithOperation("RetrieveBusinessMetrics").
			WithCause(err)
	}

	return a.transformInbound(raw), nil
}

// transformOutbound canonicalizes the request: it resolves a stable product
// identifier, fills defaults for missing descriptive fields, and builds the
// generator's own configuration.
func (a *Adapter) transformOutbound(products []types.Product, startDate, endDate string) ([]retailsim.Characteristics, retailsim.Config) {
	characteristics := make([]retailsim.Characteristics, 0, len(products))
	for i, p := range products {
		id := resolveIdentifier(p, i)

		name := p.Name
		if name == "" {
			name = "Product " + id
		}
		category := p.Category
		if category == "" {
			category = defaultCategory
		}
		price := defaultPrice
		if p.Price != nil {
			price = *p.Price
		}

		characteristics = append(characteristics, retailsim.Characteristics{
			ASIN:     id,
			Name:     name,
			Category: category,
			Price:    price,
		})
	}

	cfg := retailsim.Config{
		DateStart:             startDate,
		DateEnd:               endDate,
		SaleProbability:       saleProbability,
		ImpressionToVisitRate: impressionToVisitRate,
		VisitToCartRate:       visitToCartRate,
		CartToOrderRate:       cartToOrderRate,
		Seed:                  a.seed,
		Granularity:           "daily",
	}

	return characteristics, cfg
}

// resolveIdentifier applies the identifier priority order: explicit product
// ID, then an attribute already named after the generator's id field, then
// the first attribute whose name contains an identifier fragment, then the
// positional index.
func resolveIdentifier(p types.Product, index int) string {
	if p.ID != "" {
		return p.ID
	}
	if v, ok := p.Attrs["asin"]; ok && v != "" {
		return v
	}

	keys := make([]string, 0, len(p.Attrs))
	for k := range p.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, fragment := range identifierFragments {
		for _, k := range keys {
			if strings.Contains(strings.ToLower(k), fragment) && p.Attrs[k] != "" {
				return p.Attrs[k]
			}
		}
	}

	return strconv.Itoa(index)
}

// transformInbound canonicalizes the generator's raw output: renames native
// fields, coerces types, derives missing metrics, attaches provenance, and
// projects onto the canonical column order.
func (a *Adapter) transformInbound(raw []retailsim.Row) *types.MetricsTable {
	if len(raw) == 0 {
		return &types.MetricsTable{
			Columns: types.CanonicalColumns(),
			Records: []types.MetricsRecord{},
		}
	}

	present := columnPresence(raw)
	retrievedAt := time.Now()

	// First pass: sales volumes, needed for engagement normalization.
	sales := make([]int, len(raw))
	maxSales := 0
	for i, row := range raw {
		v, ok := row["ordered_units"]
		if !ok {
			v = row["quantity"] // legacy field name
		}
		if f, ok := toFloat(v); ok {
			sales[i] = int(f)
		}
		if sales[i] > maxSales {
			maxSales = sales[i]
		}
	}

	records := make([]types.MetricsRecord, 0, len(raw))
	for i, row := range raw {
		rec := types.MetricsRecord{
			ProductID:          toString(firstOf(row, "asin", "product_id")),
			Name:               toString(row["name"]),
			Category:           toString(row["category"]),
			SalesVolume:        sales[i],
			MetricsSource:      SourceName,
			RetrievalTimestamp: retrievedAt,
		}

		if d, ok := toDate(row["date"]); ok {
			rec.Date = d
		}
		if f, ok := toFloat(row["price"]); ok {
			rec.Price = &f
		}
		if f, ok := toFloat(row["revenue"]); ok {
			rec.Revenue = &f
		}

		if v, ok := row["inventory_level"]; ok {
			if f, ok := toFloat(v); ok {
				rec.InventoryLevel = int(f)
			}
		} else {
			level := inventoryCapacity - inventoryDrawdownK*sales[i]
			if level < 0 {
				level = 0
			}
			rec.InventoryLevel = level
		}

		if v, ok := row["customer_engagement"]; ok {
			if f, ok := toFloat(v); ok {
				rec.CustomerEngagement = clip01(f)
			}
		} else if maxSales > 0 {
			rec.CustomerEngagement = clip01(float64(sales[i]) / float64(maxSales))
		}

		records = append(records, rec)
	}

	return &types.MetricsTable{
		Columns: projectColumns(present),
		Records: records,
	}
}

// columnPresence reports which canonical columns the raw rows carry, after
// field renames. Derived and provenance columns are always present.
func columnPresence(raw []retailsim.Row) map[string]bool {
	present := map[string]bool{
		types.ColumnSalesVolume:        true,
		types.ColumnInventoryLevel:     true,
		types.ColumnCustomerEngagement: true,
		types.ColumnMetricsSource:      true,
		types.ColumnRetrievalTimestamp: true,
	}

	renames := map[string]string{
		"asin":          types.ColumnProductID,
		"product_id":    types.ColumnProductID,
		"ordered_units": types.ColumnSalesVolume,
		"quantity":      types.ColumnSalesVolume,
	}

	for _, row := range raw {
		for key := range row {
			if canonical, ok := renames[key]; ok {
				present[canonical] = true
				continue
			}
			present[key] = true
		}
	}

	return present
}

// projectColumns keeps the canonical order, dropping absent columns.
func projectColumns(present map[string]bool) []string {
	var columns []string
	for _, c := range types.CanonicalColumns() {
		if present[c] {
			columns = append(columns, c)
		}
	}
	return columns
}

func firstOf(row retailsim.Row, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := row[k]; ok {
			return v
		}
	}
	return nil
}

func toString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case int:
		return strconv.Itoa(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

// toFloat coerces numeric-ish values; invalid values report ok=false, which
// callers treat as the missing marker.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toDate(v interface{}) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, true
	case string:
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		return time.Time{}, false
	}
}

func clip01(f float64) float64 {
	if f != f { // NaN
		return 0
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
