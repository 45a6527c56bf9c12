// RAM and swap collectors. Both report under the memory category.
package collector

import (
	"context"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/eminbuyuk/lxmon/internal/models"
)

// MemoryCollector collects RAM usage metrics.
type MemoryCollector struct{}

// NewMemoryCollector creates a new memory collector.
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{}
}

// Name returns the collector identifier.
func (c *MemoryCollector) Name() string { return "memory" }

// Collect gathers total, used, available and used percent.
func (c *MemoryCollector) Collect(ctx context.Context) ([]models.Metric, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return []models.Metric{
		sample(models.TypeMemory, "total", float64(v.Total), "bytes"),
		sample(models.TypeMemory, "used", float64(v.Used), "bytes"),
		sample(models.TypeMemory, "available", float64(v.Available), "bytes"),
		sample(models.TypeMemory, "used_percent", v.UsedPercent, "percent"),
	}, nil
}

// IsAvailable returns true; memory metrics are available on all platforms.
func (c *MemoryCollector) IsAvailable() bool { return true }

// SwapCollector collects swap usage metrics.
type SwapCollector struct{}

// NewSwapCollector creates a new swap collector.
func NewSwapCollector() *SwapCollector {
	return &SwapCollector{}
}

// Name returns the collector identifier.
func (c *SwapCollector) Name() string { return "swap" }

// Collect gathers swap total, used and used percent.
func (c *SwapCollector) Collect(ctx context.Context) ([]models.Metric, error) {
	s, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return []models.Metric{
		sample(models.TypeMemory, "swap_total", float64(s.Total), "bytes"),
		sample(models.TypeMemory, "swap_used", float64(s.Used), "bytes"),
		sample(models.TypeMemory, "swap_used_percent", s.UsedPercent, "percent"),
	}, nil
}

// IsAvailable returns true.
func (c *SwapCollector) IsAvailable() bool { return true }
