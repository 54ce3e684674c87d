/*
Package storage implements the storage abstraction: a resolver that parses
opaque location strings into structured descriptors, and a factory that
dispatches resolved locations to backend constructors.

Location grammar:

	scheme://root[/prefix]    explicit scheme
	<bare path>               normalized to file://<path>

Two schemes ship built in. The file scheme persists documents under a local
directory root. The s3 scheme persists documents in an object store bucket,
falling back to a local staging directory when no client is configured.
Additional schemes can be registered per factory instance.

All backends satisfy the types.DocumentStore contract and namespace documents
by tenant: a document stored under key k for tenant t lives at
tenants/<t>/<k> under the backend root, so distinct tenants never alias the
same physical location.
*/
package storage
