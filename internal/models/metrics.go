// Package models defines the wire structures exchanged with the collector API.
// These structures are serialized to JSON for transmission.
package models

import "time"

// Metric categories understood by the collector.
const (
	TypeCPU     = "cpu"
	TypeMemory  = "memory"
	TypeDisk    = "disk"
	TypeNetwork = "network"
	TypeSystem  = "system"
	TypeAgent   = "agent"
)

// Metric is a single observation. Unit and Metadata are omitted from the JSON
// body when empty.
type Metric struct {
	Type      string            `json:"metric_type"`
	Name      string            `json:"metric_name"`
	Value     float64           `json:"value"`
	Unit      string            `json:"unit,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// MetricsSubmission is the payload sent via POST /api/agent/metrics.
// The batch is accepted or retried as a whole.
type MetricsSubmission struct {
	Hostname string   `json:"hostname"`
	APIKey   string   `json:"api_key"`
	Metrics  []Metric `json:"metrics"`
}

// OSInfo describes the host operating system at registration time.
type OSInfo struct {
	OS              string `json:"os"`
	Platform        string `json:"platform"`
	PlatformFamily  string `json:"platform_family"`
	PlatformVersion string `json:"platform_version"`
	KernelVersion   string `json:"kernel_version"`
	KernelArch      string `json:"kernel_arch"`
}

// Registration is the payload sent via POST /api/agent/register.
type Registration struct {
	Hostname  string  `json:"hostname"`
	IPAddress string  `json:"ip_address"`
	APIKey    string  `json:"api_key"`
	OSInfo    *OSInfo `json:"os_info,omitempty"`
}
