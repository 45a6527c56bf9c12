// Package collector provides a registry for managing metric probes.
// Probes are registered at startup; each work unit asks the registry for one
// full collection pass.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"github.com/eminbuyuk/lxmon/internal/agentmetrics"
	"github.com/eminbuyuk/lxmon/internal/models"
)

// Registry manages all registered probes and runs them concurrently.
type Registry struct {
	collectors []Collector
	logger     *zap.Logger
	metrics    *agentmetrics.Metrics
}

// NewRegistry creates a new probe registry.
func NewRegistry(logger *zap.Logger, metrics *agentmetrics.Metrics) *Registry {
	return &Registry{
		collectors: make([]Collector, 0),
		logger:     logger.Named("collector"),
		metrics:    metrics,
	}
}

// Register adds a probe if it's available on the current platform.
// Unavailable probes are logged and skipped.
func (r *Registry) Register(c Collector) {
	if c.IsAvailable() {
		r.collectors = append(r.collectors, c)
		r.logger.Info("Registered collector", zap.String("name", c.Name()))
	} else {
		r.logger.Warn("Collector not available, skipping", zap.String("name", c.Name()))
	}
}

// CollectAll runs every registered probe concurrently and folds the samples in
// registration order. A failed or panicking probe is logged and contributes
// nothing. The batch always ends with agent/collection_duration.
func (r *Registry) CollectAll(ctx context.Context) []models.Metric {
	start := time.Now()

	perProbe := iter.Map(r.collectors, func(c *Collector) []models.Metric {
		return r.runProbe(ctx, *c)
	})

	var batch []models.Metric
	for _, samples := range perProbe {
		batch = append(batch, samples...)
	}

	elapsed := time.Since(start)
	r.metrics.CollectionDuration.Observe(elapsed.Seconds())
	batch = append(batch, sample(models.TypeAgent, "collection_duration", elapsed.Seconds(), "seconds"))

	r.logger.Debug("Collection finished",
		zap.Int("samples", len(batch)),
		zap.Duration("duration", elapsed))
	return batch
}

func (r *Registry) runProbe(ctx context.Context, c Collector) (samples []models.Metric) {
	defer func() {
		if v := recover(); v != nil {
			r.probeFailed(c.Name(), fmt.Errorf("panic: %v", v))
			samples = nil
		}
	}()

	samples, err := c.Collect(ctx)
	if err != nil {
		r.probeFailed(c.Name(), err)
		return nil
	}
	return samples
}

func (r *Registry) probeFailed(name string, err error) {
	r.metrics.ProbeErrors.WithLabelValues(name).Inc()
	r.logger.Warn("Collection failed",
		zap.String("collector", name),
		zap.Error(err))
}

// Collectors returns a copy of all registered probes.
func (r *Registry) Collectors() []Collector {
	result := make([]Collector, len(r.collectors))
	copy(result, r.collectors)
	return result
}

// Defaults returns the standard probe set in the order samples are reported.
func Defaults(logger *zap.Logger) []Collector {
	return []Collector{
		NewCPUCollector(),
		NewMemoryCollector(),
		NewSwapCollector(),
		NewDiskCollector(logger),
		NewNetworkCollector(),
		NewUptimeCollector(),
		NewLoadCollector(),
		NewProcessCollector(),
	}
}
