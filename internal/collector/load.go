// Load average collector: 1, 5 and 15 minute run-queue averages.
package collector

import (
	"context"

	"github.com/shirou/gopsutil/v3/load"

	"github.com/eminbuyuk/lxmon/internal/models"
)

// LoadCollector collects system load averages.
type LoadCollector struct{}

// NewLoadCollector creates a new load average collector.
func NewLoadCollector() *LoadCollector {
	return &LoadCollector{}
}

// Name returns the collector identifier.
func (c *LoadCollector) Name() string { return "load" }

// Collect reads the 1, 5 and 15 minute load averages.
func (c *LoadCollector) Collect(ctx context.Context) ([]models.Metric, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return []models.Metric{
		sample(models.TypeSystem, "load_average_1m", avg.Load1, "load"),
		sample(models.TypeSystem, "load_average_5m", avg.Load5, "load"),
		sample(models.TypeSystem, "load_average_15m", avg.Load15, "load"),
	}, nil
}

// IsAvailable returns true. gopsutil approximates load on Windows.
func (c *LoadCollector) IsAvailable() bool { return true }
