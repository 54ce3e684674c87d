package storage

import (
	"strings"
)

// Location is the structured descriptor produced by resolving an opaque
// storage location string. It is recomputed per call and never persisted.
type Location struct {
	Scheme string
	Path   string // file scheme only, preserved verbatim
	Bucket string // non-file schemes
	Prefix string // non-file schemes, "" when absent
}

// Normalize converts bare paths to file:// URLs. Strings that already carry a
// scheme separator are returned unchanged.
func Normalize(raw string) string {
	if !strings.Contains(raw, "://") {
		return "file://" + raw
	}
	return raw
}

// ParseLocation resolves a storage location string into a Location. Unknown
// schemes are not rejected here; the factory decides which schemes it can
// serve.
func ParseLocation(raw string) Location {
	raw = Normalize(raw)

	scheme, rest, _ := strings.Cut(raw, "://")
	if scheme == "file" {
		return Location{Scheme: "file", Path: rest}
	}

	bucket, prefix, _ := strings.Cut(rest, "/")
	return Location{Scheme: scheme, Bucket: bucket, Prefix: prefix}
}
