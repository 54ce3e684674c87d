// Package retailsim is a rule-based online retail metrics generator. It is
// the external collaborator the catalog-simulator adapter delegates to; its
// native schema (asin, ordered_units) predates the canonical metrics schema
// and is reconciled by the adapter, not here.
package retailsim

import (
	"fmt"
	"math/rand"
	"time"
)

const dateLayout = "2006-01-02"

// Characteristics describes one product in the generator's native schema.
type Characteristics struct {
	ASIN     string
	Name     string
	Category string
	Price    float64
}

// Config drives a simulation run. Dates are inclusive YYYY-MM-DD bounds.
type Config struct {
	DateStart string
	DateEnd   string

	SaleProbability       float64
	ImpressionToVisitRate float64
	VisitToCartRate       float64
	CartToOrderRate       float64

	Seed        int
	Granularity string
}

// Row is one generated observation. Keys follow the generator's native
// schema: asin, date, ordered_units, revenue, price, name, category.
type Row map[string]interface{}

// RuleBackend generates metrics from fixed funnel rules and a seeded RNG.
// Output is deterministic for a given config and product list.
type RuleBackend struct {
	config Config
}

// NewRuleBackend validates the config and returns a backend.
func NewRuleBackend(cfg Config) (*RuleBackend, error) {
	if _, err := time.Parse(dateLayout, cfg.DateStart); err != nil {
		return nil, fmt.Errorf("invalid date_start %q: %w", cfg.DateStart, err)
	}
	if _, err := time.Parse(dateLayout, cfg.DateEnd); err != nil {
		return nil, fmt.Errorf("invalid date_end %q: %w", cfg.DateEnd, err)
	}
	if cfg.Granularity != "daily" {
		return nil, fmt.Errorf("unsupported granularity %q", cfg.Granularity)
	}
	if cfg.Seed < 0 {
		return nil, fmt.Errorf("seed must be non-negative, got %d", cfg.Seed)
	}
	return &RuleBackend{config: cfg}, nil
}

// SimulateMetrics produces one row per (product, day) over the configured
// date range.
func (b *RuleBackend) SimulateMetrics(products []Characteristics) ([]Row, error) {
	if len(products) == 0 {
		return nil, fmt.Errorf("products cannot be empty")
	}

	start, _ := time.Parse(dateLayout, b.config.DateStart)
	end, _ := time.Parse(dateLayout, b.config.DateEnd)
	if end.Before(start) {
		return nil, fmt.Errorf("date_end %s precedes date_start %s", b.config.DateEnd, b.config.DateStart)
	}

	rng := rand.New(rand.NewSource(int64(b.config.Seed)))

	var rows []Row
	for _, p := range products {
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			units := 0
			if rng.Float64() < b.config.SaleProbability {
				impressions := 50 + rng.Intn(150)
				funnel := b.config.ImpressionToVisitRate * b.config.VisitToCartRate * b.config.CartToOrderRate
				units = int(float64(impressions) * funnel)
			}

			rows = append(rows, Row{
				"asin":          p.ASIN,
				"name":          p.Name,
				"category":      p.Category,
				"price":         p.Price,
				"date":          day.Format(dateLayout),
				"ordered_units": units,
				"revenue":       float64(units) * p.Price,
			})
		}
	}

	return rows, nil
}
