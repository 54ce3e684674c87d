// Package file implements the document store contract over a local directory.
package file

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/impact-engine/impact-engine/internal/metrics"
	"github.com/impact-engine/impact-engine/pkg/errors"
	"github.com/impact-engine/impact-engine/pkg/types"
)

// Backend persists JSON documents under <root>/tenants/<tenant>/<key>.
type Backend struct {
	root      string
	collector *metrics.Collector
	logger    *slog.Logger
}

// New creates a file backend rooted at the given directory. The root may be
// relative or absolute; it is preserved as given. collector may be nil.
func New(root string, collector *metrics.Collector) *Backend {
	return &Backend{
		root:      root,
		collector: collector,
		logger:    slog.Default().With("component", "file-backend", "root", root),
	}
}

func tenantOrDefault(tenantID string) string {
	if tenantID == "" {
		return types.DefaultTenant
	}
	return tenantID
}

func (b *Backend) documentPath(key, tenantID string) string {
	return filepath.Join(b.root, "tenants", tenantOrDefault(tenantID), filepath.FromSlash(key))
}

// Store serializes the document as JSON and writes it at the tenant-namespaced
// path, creating intermediate directories as needed. Existing documents are
// overwritten. It returns the file:// location of the written document.
func (b *Backend) Store(key string, document interface{}, tenantID string) (string, error) {
	start := time.Now()

	data, err := json.Marshal(document)
	if err != nil {
		b.collector.RecordError("store")
		return "", errors.Newf(errors.ErrCodeInvalidArgument, "document is not JSON-serializable: %v", err).
			WithComponent("file-backend").
			WithOperation("Store").
			WithDetail("key", key)
	}

	path := b.documentPath(key, tenantID)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		b.collector.RecordError("store")
		return "", errors.Newf(errors.ErrCodeStorageWrite, "failed to create document directory: %v", err).
			WithComponent("file-backend").
			WithOperation("Store").
			WithCause(err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		b.collector.RecordError("store")
		return "", errors.Newf(errors.ErrCodeStorageWrite, "failed to write document: %v", err).
			WithComponent("file-backend").
			WithOperation("Store").
			WithDetail("key", key).
			WithCause(err)
	}

	b.collector.RecordOperation("store", time.Since(start), true)
	b.logger.Debug("stored document", "key", key, "tenant", tenantOrDefault(tenantID), "bytes", len(data))

	return "file://" + filepath.ToSlash(path), nil
}

// Load reads and JSON-decodes the document at the tenant-namespaced path.
func (b *Backend) Load(key string, tenantID string) (interface{}, error) {
	start := time.Now()

	path := b.documentPath(key, tenantID)
	data, err := os.ReadFile(path)
	if err != nil {
		b.collector.RecordError("load")
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrCodeDocumentNotFound, "document not found: %s", key).
				WithComponent("file-backend").
				WithOperation("Load").
				WithDetail("tenant", tenantOrDefault(tenantID))
		}
		return nil, errors.Newf(errors.ErrCodeStorageRead, "failed to read document: %v", err).
			WithComponent("file-backend").
			WithOperation("Load").
			WithDetail("key", key).
			WithCause(err)
	}

	var document interface{}
	if err := json.Unmarshal(data, &document); err != nil {
		b.collector.RecordError("load")
		return nil, errors.Newf(errors.ErrCodeDocumentDecode, "document %s is not valid JSON: %v", key, err).
			WithComponent("file-backend").
			WithOperation("Load").
			WithCause(err)
	}

	b.collector.RecordOperation("load", time.Since(start), true)
	return document, nil
}
