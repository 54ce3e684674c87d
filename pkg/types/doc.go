/*
Package types provides the core interfaces and data structures shared across
the impact engine data layer.

Two contracts live here:

DataSource is the capability contract for pluggable metrics providers. A
provider is created by a registered constructor, connected once with a small
ConnectionConfig, used for exactly one retrieval, then discarded. Adapters
implementing this interface are responsible for reconciling their provider's
native schema with the canonical metrics schema.

DocumentStore is the uniform contract for storage backends (local filesystem,
object store). Backends persist JSON documents under tenant-scoped keys; the
tenant namespace guarantees that distinct tenants never alias the same
physical location.

The canonical metrics schema is fixed: every retrieval result is a
MetricsTable whose columns are a prefix-preserving subset of
CanonicalColumns(). An empty result still carries the full column set.
*/
package types
