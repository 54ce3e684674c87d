package types

import (
	"time"
)

// DefaultTenant is the tenant namespace used when no tenant is specified.
const DefaultTenant = "default"

// Canonical column names for the metrics table, in schema order.
const (
	ColumnProductID          = "product_id"
	ColumnName               = "name"
	ColumnCategory           = "category"
	ColumnPrice              = "price"
	ColumnDate               = "date"
	ColumnSalesVolume        = "sales_volume"
	ColumnRevenue            = "revenue"
	ColumnInventoryLevel     = "inventory_level"
	ColumnCustomerEngagement = "customer_engagement"
	ColumnMetricsSource      = "metrics_source"
	ColumnRetrievalTimestamp = "retrieval_timestamp"
)

// CanonicalColumns returns the fixed, ordered column set every metrics table
// must conform to before leaving the data layer.
func CanonicalColumns() []string {
	return []string{
		ColumnProductID,
		ColumnName,
		ColumnCategory,
		ColumnPrice,
		ColumnDate,
		ColumnSalesVolume,
		ColumnRevenue,
		ColumnInventoryLevel,
		ColumnCustomerEngagement,
		ColumnMetricsSource,
		ColumnRetrievalTimestamp,
	}
}

// Product describes one catalog item submitted for metrics retrieval.
// Only an identifier is ultimately required; adapters synthesize the rest.
// Attrs carries source columns that do not map onto the named fields, so
// adapters can run their identifier heuristics over them.
type Product struct {
	ID       string            `json:"product_id,omitempty"`
	Name     string            `json:"name,omitempty"`
	Category string            `json:"category,omitempty"`
	Price    *float64          `json:"price,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
}

// ConnectionConfig is the small configuration handed to DataSource.Connect.
type ConnectionConfig struct {
	Mode string `json:"mode"`
	Seed int    `json:"seed"`
}

// MetricsRecord is one row of the canonical metrics table: the metrics for a
// single (product, date) pair. Price and Revenue are pointers because a source
// may omit them entirely, which is distinct from reporting zero.
type MetricsRecord struct {
	ProductID          string    `json:"product_id"`
	Name               string    `json:"name,omitempty"`
	Category           string    `json:"category,omitempty"`
	Price              *float64  `json:"price,omitempty"`
	Date               time.Time `json:"date"`
	SalesVolume        int       `json:"sales_volume"`
	Revenue            *float64  `json:"revenue,omitempty"`
	InventoryLevel     int       `json:"inventory_level"`
	CustomerEngagement float64   `json:"customer_engagement"`
	MetricsSource      string    `json:"metrics_source"`
	RetrievalTimestamp time.Time `json:"retrieval_timestamp"`
}

// MetricsTable is the canonical tabular result of a retrieval. Columns lists
// the columns actually present, in canonical order; an empty table still
// carries the full canonical column set.
type MetricsTable struct {
	Columns []string        `json:"columns"`
	Records []MetricsRecord `json:"records"`
}

// Empty reports whether the table has no rows.
func (t *MetricsTable) Empty() bool {
	return t == nil || len(t.Records) == 0
}

// HasColumn reports whether the named column is present in the table.
func (t *MetricsTable) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}
