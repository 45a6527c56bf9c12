// CPU usage collector: overall utilization and logical core count.
package collector

import (
	"context"
	"errors"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/eminbuyuk/lxmon/internal/models"
)

// cpuSampleWindow is how long utilization is measured for.
const cpuSampleWindow = time.Second

// CPUCollector collects CPU usage metrics.
type CPUCollector struct{}

// NewCPUCollector creates a new CPU collector.
func NewCPUCollector() *CPUCollector {
	return &CPUCollector{}
}

// Name returns the collector identifier.
func (c *CPUCollector) Name() string { return "cpu" }

// Collect measures overall utilization, blocking for cpuSampleWindow, and
// reports the logical core count. Either half may be missing; the probe fails
// only when both are.
func (c *CPUCollector) Collect(ctx context.Context) ([]models.Metric, error) {
	var out []models.Metric

	percent, pErr := cpu.PercentWithContext(ctx, cpuSampleWindow, false)
	if pErr == nil && len(percent) > 0 {
		out = append(out, sample(models.TypeCPU, "usage_percent", percent[0], "percent"))
	}

	count, cErr := cpu.CountsWithContext(ctx, true)
	if cErr == nil {
		out = append(out, sample(models.TypeCPU, "count", float64(count), "cores"))
	}

	if len(out) == 0 {
		return nil, errors.Join(pErr, cErr)
	}
	return out, nil
}

// IsAvailable returns true; CPU metrics are available on all platforms.
func (c *CPUCollector) IsAvailable() bool { return true }
