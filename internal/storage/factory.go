package storage

import (
	"log/slog"

	"github.com/impact-engine/impact-engine/internal/metrics"
	"github.com/impact-engine/impact-engine/internal/storage/file"
	"github.com/impact-engine/impact-engine/internal/storage/s3"
	"github.com/impact-engine/impact-engine/pkg/errors"
	"github.com/impact-engine/impact-engine/pkg/types"
)

// Constructor builds a document store bound to a resolved location.
type Constructor func(loc Location) (types.DocumentStore, error)

// Factory dispatches storage location strings to backend constructors. The
// scheme registry is instance-scoped; unrelated factories never share state.
// Backends are never constructed directly by callers.
type Factory struct {
	schemes   map[string]Constructor
	s3Config  s3.Config
	collector *metrics.Collector
	logger    *slog.Logger
}

// Option configures a Factory.
type Option func(*Factory)

// WithS3Config sets the object store client configuration used by the built-in
// s3 scheme.
func WithS3Config(cfg s3.Config) Option {
	return func(f *Factory) {
		f.s3Config = cfg
	}
}

// WithCollector sets the metrics collector handed to constructed backends.
func WithCollector(c *metrics.Collector) Option {
	return func(f *Factory) {
		f.collector = c
	}
}

// NewFactory creates a factory with the file and s3 schemes registered.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		schemes: make(map[string]Constructor),
		logger:  slog.Default().With("component", "storage-factory"),
	}

	for _, opt := range opts {
		opt(f)
	}

	f.RegisterScheme("file", func(loc Location) (types.DocumentStore, error) {
		return file.New(loc.Path, f.collector), nil
	})
	f.RegisterScheme("s3", func(loc Location) (types.DocumentStore, error) {
		return s3.New(loc.Bucket, loc.Prefix, f.s3Config, f.collector)
	})

	return f
}

// RegisterScheme registers a constructor for a scheme. Re-registration
// replaces the previous constructor.
func (f *Factory) RegisterScheme(scheme string, ctor Constructor) {
	f.schemes[scheme] = ctor
}

// Create resolves the location string and instantiates the matching backend.
// Bare paths are normalized to the file scheme.
func (f *Factory) Create(location string) (types.DocumentStore, error) {
	loc := ParseLocation(location)

	ctor, ok := f.schemes[loc.Scheme]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnsupportedScheme, "Unsupported scheme: %s", loc.Scheme).
			WithComponent("storage-factory").
			WithOperation("Create")
	}

	f.logger.Debug("creating storage backend", "scheme", loc.Scheme, "location", location)
	return ctor(loc)
}
