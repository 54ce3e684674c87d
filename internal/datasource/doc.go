/*
Package datasource coordinates pluggable business-metrics providers.

A Manager owns an instance-scoped registry mapping type names to data source
constructors. Constructors are checked structurally against the DataSource
interface at registration time, so a provider missing operations is rejected
with the list of what it lacks rather than failing later with a type error.

The manager binds and validates its DATA configuration block at construction
time. A data source instance goes through a fixed lifecycle: constructed,
connected with a small connection configuration, used for exactly one
retrieval, then discarded. There is no pooling and no reconnect.

External providers register through RegisterDataSource:

	mgr, err := datasource.NewManager(cfg)
	...
	err = mgr.RegisterDataSource("warehouse", func() interface{} {
		return warehouse.NewSource()
	})
*/
package datasource
