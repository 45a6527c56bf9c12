// Network I/O collector: cumulative byte and packet counters summed over all
// interfaces since boot.
package collector

import (
	"context"
	"errors"

	"github.com/shirou/gopsutil/v3/net"

	"github.com/eminbuyuk/lxmon/internal/models"
)

// NetworkCollector collects network I/O counters.
type NetworkCollector struct{}

// NewNetworkCollector creates a new network collector.
func NewNetworkCollector() *NetworkCollector {
	return &NetworkCollector{}
}

// Name returns the collector identifier.
func (c *NetworkCollector) Name() string { return "network" }

// Collect gathers the aggregate counters. Values are totals, not deltas; the
// collector derives rates.
func (c *NetworkCollector) Collect(ctx context.Context) ([]models.Metric, error) {
	counters, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return nil, err
	}
	if len(counters) == 0 {
		return nil, errors.New("no network counters reported")
	}

	all := counters[0]
	return []models.Metric{
		sample(models.TypeNetwork, "bytes_sent", float64(all.BytesSent), "bytes"),
		sample(models.TypeNetwork, "bytes_recv", float64(all.BytesRecv), "bytes"),
		sample(models.TypeNetwork, "packets_sent", float64(all.PacketsSent), "packets"),
		sample(models.TypeNetwork, "packets_recv", float64(all.PacketsRecv), "packets"),
	}, nil
}

// IsAvailable returns true; network metrics are available on all platforms.
func (c *NetworkCollector) IsAvailable() bool { return true }
