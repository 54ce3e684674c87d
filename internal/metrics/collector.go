// Package metrics implements operation metrics collection for the data layer.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records retrieval and storage operation metrics into a dedicated
// Prometheus registry. A nil Collector is valid and records nothing.
type Collector struct {
	config   *Config
	registry *prometheus.Registry

	operationCounter  *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	errorCounter      *prometheus.CounterVec
}

// Config represents metrics configuration.
type Config struct {
	Enabled   bool              `yaml:"enabled"`
	Namespace string            `yaml:"namespace"`
	Labels    map[string]string `yaml:"labels"`
}

// NewCollector creates a new metrics collector.
func NewCollector(config *Config) (*Collector, error) {
	if config == nil {
		config = &Config{
			Enabled:   true,
			Namespace: "impact_engine",
		}
	}

	if !config.Enabled {
		return &Collector{config: config}, nil
	}

	registry := prometheus.NewRegistry()

	collector := &Collector{
		config:   config,
		registry: registry,
		operationCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   config.Namespace,
				Name:        "operations_total",
				Help:        "Total number of data layer operations",
				ConstLabels: prometheus.Labels(config.Labels),
			},
			[]string{"operation", "status"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   config.Namespace,
				Name:        "operation_duration_seconds",
				Help:        "Duration of data layer operations",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: prometheus.Labels(config.Labels),
			},
			[]string{"operation"},
		),
		errorCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   config.Namespace,
				Name:        "errors_total",
				Help:        "Total number of data layer errors",
				ConstLabels: prometheus.Labels(config.Labels),
			},
			[]string{"operation"},
		),
	}

	for _, c := range []prometheus.Collector{
		collector.operationCounter,
		collector.operationDuration,
		collector.errorCounter,
	} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	return collector, nil
}

// RecordOperation records one completed operation.
func (c *Collector) RecordOperation(operation string, duration time.Duration, success bool) {
	if c == nil || c.registry == nil {
		return
	}

	status := "success"
	if !success {
		status = "error"
	}

	c.operationCounter.WithLabelValues(operation, status).Inc()
	c.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordError records one failed operation.
func (c *Collector) RecordError(operation string) {
	if c == nil || c.registry == nil {
		return
	}
	c.errorCounter.WithLabelValues(operation).Inc()
}

// Handler returns an HTTP handler serving the collector's registry, or nil
// when collection is disabled.
func (c *Collector) Handler() http.Handler {
	if c == nil || c.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
