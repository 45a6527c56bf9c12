// Host identity helpers used at registration: the OS descriptor and the
// outbound IP address.
//
// The OS descriptor is cached after the first successful lookup since it
// does not change while the agent runs.
package collector

import (
	"context"
	"net"
	"sync"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/eminbuyuk/lxmon/internal/models"
)

// fallbackIP is reported when no outbound route exists.
const fallbackIP = "127.0.0.1"

// probeAddr is only used to pick a route; UDP dial sends no packets.
const probeAddr = "8.8.8.8:80"

var hostInfoCache struct {
	mu   sync.Mutex
	info *models.OSInfo
}

// HostInfo returns the OS descriptor reported at registration.
func HostInfo(ctx context.Context) (*models.OSInfo, error) {
	hostInfoCache.mu.Lock()
	defer hostInfoCache.mu.Unlock()

	if hostInfoCache.info != nil {
		info := *hostInfoCache.info
		return &info, nil
	}

	h, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, err
	}
	hostInfoCache.info = &models.OSInfo{
		OS:              h.OS,
		Platform:        h.Platform,
		PlatformFamily:  h.PlatformFamily,
		PlatformVersion: h.PlatformVersion,
		KernelVersion:   h.KernelVersion,
		KernelArch:      h.KernelArch,
	}
	info := *hostInfoCache.info
	return &info, nil
}

// LocalIP returns the address of the interface used for outbound traffic, or
// 127.0.0.1 when there is none.
func LocalIP() string {
	conn, err := net.Dial("udp", probeAddr)
	if err != nil {
		return fallbackIP
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP == nil {
		return fallbackIP
	}
	return addr.IP.String()
}
