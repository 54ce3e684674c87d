// Package s3 implements the document store contract over an object store
// bucket, with a filesystem-backed staging mode for offline environments.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/impact-engine/impact-engine/internal/metrics"
	"github.com/impact-engine/impact-engine/pkg/errors"
	"github.com/impact-engine/impact-engine/pkg/types"
)

// Backend persists JSON documents at s3://<bucket>/<prefix>/tenants/<tenant>/<key>.
// In staging mode the same layout lives under <staging_dir>/<bucket>/<prefix>,
// but returned locations always use the s3:// form.
type Backend struct {
	bucket    string
	prefix    string
	client    *awss3.Client // nil in staging mode
	config    *Config
	collector *metrics.Collector
	logger    *slog.Logger
}

// New creates an object store backend for the given bucket and prefix. When
// the configuration names no region or endpoint the backend runs in staging
// mode against a local directory. collector may be nil.
func New(bucket, prefix string, cfg Config, collector *metrics.Collector) (*Backend, error) {
	if bucket == "" {
		return nil, errors.NewError(errors.ErrCodeInvalidArgument, "bucket name cannot be empty").
			WithComponent("s3-backend")
	}

	logger := slog.Default().With("component", "s3-backend", "bucket", bucket)

	b := &Backend{
		bucket:    bucket,
		prefix:    prefix,
		config:    &cfg,
		collector: collector,
		logger:    logger,
	}

	if cfg.remote() {
		client, err := newClient(context.Background(), &cfg)
		if err != nil {
			return nil, errors.Newf(errors.ErrCodeConnectionFailed, "failed to create object store client: %v", err).
				WithComponent("s3-backend").
				WithCause(err)
		}
		b.client = client
	} else {
		logger.Debug("object store running in staging mode", "staging_dir", cfg.stagingDir())
	}

	return b, nil
}

func tenantOrDefault(tenantID string) string {
	if tenantID == "" {
		return types.DefaultTenant
	}
	return tenantID
}

// objectKey builds the tenant-namespaced object key under the bucket prefix.
func (b *Backend) objectKey(key, tenantID string) string {
	return path.Join(b.prefix, "tenants", tenantOrDefault(tenantID), key)
}

// stagingPath maps an object key onto the local staging layout.
func (b *Backend) stagingPath(objectKey string) string {
	return filepath.Join(b.config.stagingDir(), b.bucket, filepath.FromSlash(objectKey))
}

func (b *Backend) location(objectKey string) string {
	return "s3://" + b.bucket + "/" + objectKey
}

// Store serializes the document as JSON and writes it at the tenant-namespaced
// object key. Existing objects are overwritten. It returns the s3:// location
// of the written document regardless of staging.
func (b *Backend) Store(key string, document interface{}, tenantID string) (string, error) {
	start := time.Now()

	data, err := json.Marshal(document)
	if err != nil {
		b.collector.RecordError("store")
		return "", errors.Newf(errors.ErrCodeInvalidArgument, "document is not JSON-serializable: %v", err).
			WithComponent("s3-backend").
			WithOperation("Store").
			WithDetail("key", key)
	}

	objectKey := b.objectKey(key, tenantID)

	if b.client == nil {
		if err := b.stagingWrite(objectKey, data); err != nil {
			b.collector.RecordError("store")
			return "", err
		}
	} else {
		input := &awss3.PutObjectInput{
			Bucket:      aws.String(b.bucket),
			Key:         aws.String(objectKey),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/json"),
		}
		if _, err := b.client.PutObject(context.Background(), input); err != nil {
			b.collector.RecordError("store")
			return "", errors.Newf(errors.ErrCodeStorageWrite, "failed to put object: %v", err).
				WithComponent("s3-backend").
				WithOperation("Store").
				WithDetail("key", key).
				WithCause(err)
		}
	}

	b.collector.RecordOperation("store", time.Since(start), true)
	b.logger.Debug("stored document", "key", key, "tenant", tenantOrDefault(tenantID), "bytes", len(data))

	return b.location(objectKey), nil
}

// Load reads and JSON-decodes the document at the tenant-namespaced object key.
func (b *Backend) Load(key string, tenantID string) (interface{}, error) {
	start := time.Now()

	objectKey := b.objectKey(key, tenantID)

	var data []byte
	var err error
	if b.client == nil {
		data, err = b.stagingRead(objectKey, key, tenantID)
	} else {
		data, err = b.remoteRead(objectKey, key, tenantID)
	}
	if err != nil {
		b.collector.RecordError("load")
		return nil, err
	}

	var document interface{}
	if err := json.Unmarshal(data, &document); err != nil {
		b.collector.RecordError("load")
		return nil, errors.Newf(errors.ErrCodeDocumentDecode, "document %s is not valid JSON: %v", key, err).
			WithComponent("s3-backend").
			WithOperation("Load").
			WithCause(err)
	}

	b.collector.RecordOperation("load", time.Since(start), true)
	return document, nil
}

func (b *Backend) stagingWrite(objectKey string, data []byte) error {
	p := b.stagingPath(objectKey)
	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil {
		return errors.Newf(errors.ErrCodeStorageWrite, "failed to create staging directory: %v", err).
			WithComponent("s3-backend").
			WithOperation("Store").
			WithCause(err)
	}
	if err := os.WriteFile(p, data, 0600); err != nil {
		return errors.Newf(errors.ErrCodeStorageWrite, "failed to write staged object: %v", err).
			WithComponent("s3-backend").
			WithOperation("Store").
			WithCause(err)
	}
	return nil
}

func (b *Backend) stagingRead(objectKey, key, tenantID string) ([]byte, error) {
	data, err := os.ReadFile(b.stagingPath(objectKey))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrCodeDocumentNotFound, "document not found: %s", key).
				WithComponent("s3-backend").
				WithOperation("Load").
				WithDetail("tenant", tenantOrDefault(tenantID))
		}
		return nil, errors.Newf(errors.ErrCodeStorageRead, "failed to read staged object: %v", err).
			WithComponent("s3-backend").
			WithOperation("Load").
			WithDetail("key", key).
			WithCause(err)
	}
	return data, nil
}

func (b *Backend) remoteRead(objectKey, key, tenantID string) ([]byte, error) {
	input := &awss3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objectKey),
	}

	result, err := b.client.GetObject(context.Background(), input)
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		if stderrors.As(err, &noSuchKey) {
			return nil, errors.Newf(errors.ErrCodeDocumentNotFound, "document not found: %s", key).
				WithComponent("s3-backend").
				WithOperation("Load").
				WithDetail("tenant", tenantOrDefault(tenantID))
		}
		return nil, errors.Newf(errors.ErrCodeStorageRead, "failed to get object: %v", err).
			WithComponent("s3-backend").
			WithOperation("Load").
			WithDetail("key", key).
			WithCause(err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, errors.Newf(errors.ErrCodeStorageRead, "failed to read object body: %v", err).
			WithComponent("s3-backend").
			WithOperation("Load").
			WithCause(err)
	}
	return data, nil
}
