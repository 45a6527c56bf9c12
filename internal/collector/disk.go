// Disk usage collector: per-mount usage for local physical filesystems.
// Uses gopsutil for cross-platform disk metrics.
package collector

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
	"go.uber.org/zap"

	"github.com/eminbuyuk/lxmon/internal/models"
)

// pseudoFSTypes contains filesystem types that are excluded from disk metrics:
// virtual and system filesystems plus network and remote mounts.
var pseudoFSTypes = map[string]bool{
	// Virtual / system filesystems
	"devfs":         true,
	"autofs":        true,
	"nullfs":        true,
	"tmpfs":         true,
	"sysfs":         true,
	"proc":          true,
	"procfs":        true,
	"devtmpfs":      true,
	"cgroup":        true,
	"cgroup2":       true,
	"overlay":       true,
	"squashfs":      true,
	"fuse.snapfuse": true,
	"nsfs":          true,
	"pstore":        true,
	"debugfs":       true,
	"tracefs":       true,
	"securityfs":    true,
	"configfs":      true,
	"fusectl":       true,
	"mqueue":        true,
	"hugetlbfs":     true,
	"binfmt_misc":   true,
	"efivarfs":      true,
	"bpf":           true,
	"ramfs":         true,

	// Network / remote filesystems
	"nfs":           true,
	"nfs4":          true,
	"cifs":          true,
	"smbfs":         true,
	"fuse.sshfs":    true,
	"fuse.rclone":   true,
	"9p":            true,
	"afs":           true,
	"ncpfs":         true,
	"glusterfs":     true,
	"lustre":        true,
	"ceph":          true,
	"fuse.ceph":     true,
	"gpfs":          true,
	"pvfs2":         true,
	"fuse.s3fs":     true,
	"fuse.gcsfuse":  true,
	"fuse.blobfuse": true,
	"davfs2":        true,
}

// isSystemMount returns true for OS-internal mount points that shouldn't be
// reported.
func isSystemMount(mount string) bool {
	systemPrefixes := []string{
		"/System/Volumes/",
		"/private/var/vm",
		"/snap/",
	}
	for _, prefix := range systemPrefixes {
		if strings.HasPrefix(mount, prefix) {
			return true
		}
	}
	return false
}

type (
	partitionsFunc func(ctx context.Context, all bool) ([]disk.PartitionStat, error)
	usageFunc      func(ctx context.Context, path string) (*disk.UsageStat, error)
)

// DiskCollector collects disk usage metrics per mount point.
type DiskCollector struct {
	logger     *zap.Logger
	partitions partitionsFunc
	usage      usageFunc
}

// NewDiskCollector creates a new disk collector.
func NewDiskCollector(logger *zap.Logger) *DiskCollector {
	return &DiskCollector{
		logger:     logger.Named("disk"),
		partitions: disk.PartitionsWithContext,
		usage:      disk.UsageWithContext,
	}
}

// Name returns the collector identifier.
func (c *DiskCollector) Name() string { return "disk" }

// Collect reports usage_percent, total and free for every physical mount.
// A mount whose usage query fails is skipped on its own.
func (c *DiskCollector) Collect(ctx context.Context) ([]models.Metric, error) {
	partitions, err := c.partitions(ctx, false)
	if err != nil {
		return nil, err
	}

	var out []models.Metric
	for _, p := range partitions {
		if pseudoFSTypes[p.Fstype] {
			c.logger.Debug("Skipping pseudo/network filesystem",
				zap.String("mount", p.Mountpoint),
				zap.String("fstype", p.Fstype))
			continue
		}
		if isSystemMount(p.Mountpoint) {
			continue
		}

		usage, err := c.usage(ctx, p.Mountpoint)
		if err != nil {
			c.logger.Debug("Skipping inaccessible mount",
				zap.String("mount", p.Mountpoint),
				zap.Error(err))
			continue
		}
		// Some virtual mounts report 0 size
		if usage.Total == 0 {
			continue
		}

		percent := sample(models.TypeDisk, "usage_percent", usage.UsedPercent, "percent")
		percent.Metadata = map[string]string{
			"mountpoint": p.Mountpoint,
			"filesystem": p.Fstype,
			"device":     p.Device,
		}
		total := sample(models.TypeDisk, "total", float64(usage.Total), "bytes")
		total.Metadata = map[string]string{"mountpoint": p.Mountpoint}
		free := sample(models.TypeDisk, "free", float64(usage.Free), "bytes")
		free.Metadata = map[string]string{"mountpoint": p.Mountpoint}

		out = append(out, percent, total, free)
	}

	return out, nil
}

// IsAvailable returns true; disk metrics are available on all platforms.
func (c *DiskCollector) IsAvailable() bool { return true }
