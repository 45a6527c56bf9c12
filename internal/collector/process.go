// Process count collector.
package collector

import (
	"context"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/eminbuyuk/lxmon/internal/models"
)

// ProcessCollector counts running processes.
type ProcessCollector struct{}

// NewProcessCollector creates a new process count collector.
func NewProcessCollector() *ProcessCollector {
	return &ProcessCollector{}
}

// Name returns the collector identifier.
func (c *ProcessCollector) Name() string { return "processes" }

// Collect reports the number of process IDs currently present.
func (c *ProcessCollector) Collect(ctx context.Context) ([]models.Metric, error) {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return []models.Metric{
		sample(models.TypeSystem, "process_count", float64(len(pids)), "count"),
	}, nil
}

// IsAvailable returns true; process listing is available on all platforms.
func (c *ProcessCollector) IsAvailable() bool { return true }
