// Package collector defines the Collector interface and provides gopsutil
// probes that turn host telemetry into flat metric samples.
package collector

import (
	"context"
	"time"

	"github.com/eminbuyuk/lxmon/internal/models"
)

// Collector is the interface that all metric probes must implement.
// Each probe gathers one area of host telemetry.
type Collector interface {
	// Name returns the unique identifier for this probe.
	Name() string

	// Collect gathers the samples for this probe. An error means the probe
	// produced nothing usable this round.
	Collect(ctx context.Context) ([]models.Metric, error)

	// IsAvailable checks if this probe can run on the current platform.
	// Probes that return false will not be registered.
	IsAvailable() bool
}

// sample builds a metric stamped with the current time.
func sample(typ, name string, value float64, unit string) models.Metric {
	return models.Metric{
		Type:      typ,
		Name:      name,
		Value:     value,
		Unit:      unit,
		Timestamp: time.Now().UTC(),
	}
}
