//go:build !linux && !windows

package autostart

type unsupportedManager struct{}

// New returns a Manager that reports ErrUnsupported.
func New() Manager {
	return unsupportedManager{}
}

func (unsupportedManager) ServiceName() string          { return "lxmon-agent" }
func (unsupportedManager) IsInstalled() (bool, error)   { return false, ErrUnsupported }
func (unsupportedManager) Install(InstallOptions) error { return ErrUnsupported }
func (unsupportedManager) Uninstall() error             { return ErrUnsupported }
