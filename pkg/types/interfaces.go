package types

// DataSource defines the interface every business-metrics provider must satisfy.
// Implementations translate between their native schema and the canonical
// metrics schema defined in this package.
type DataSource interface {
	// Connect establishes the provider session using the given connection
	// configuration. Retrieval is only valid after a successful Connect.
	Connect(cfg ConnectionConfig) error

	// RetrieveBusinessMetrics returns canonical metrics for the given products
	// over the inclusive date range (YYYY-MM-DD strings).
	RetrieveBusinessMetrics(products []Product, startDate, endDate string) (*MetricsTable, error)

	// ValidateConnection reports whether the provider session is active and
	// its backing generator is reachable.
	ValidateConnection() bool
}

// DocumentStore defines the uniform contract for storage backends. Documents
// are JSON-serializable values persisted under tenant-scoped keys.
type DocumentStore interface {
	// Store serializes the document as JSON and writes it at the
	// tenant-namespaced path tenants/<tenant>/<key> under the backend root,
	// creating intermediate path segments as needed. It returns the fully
	// qualified location of the written document. Existing documents at the
	// same key are overwritten. An empty tenantID means the default tenant.
	Store(key string, document interface{}, tenantID string) (string, error)

	// Load reads and JSON-decodes the document at the tenant-namespaced path.
	Load(key string, tenantID string) (interface{}, error)
}
