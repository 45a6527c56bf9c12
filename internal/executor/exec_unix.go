//go:build !windows

package executor

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// processTree is the process group led by the shell.
type processTree struct{}

// configureProcess puts the shell in its own process group so cancellation
// can kill every descendant, not only the shell.
func configureProcess(c *exec.Cmd) *processTree {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		err := unix.Kill(-c.Process.Pid, unix.SIGKILL)
		if errors.Is(err, unix.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
	return &processTree{}
}

// attach is a no-op: the group exists as soon as the shell starts.
func (t *processTree) attach(*exec.Cmd) error { return nil }

func (t *processTree) release() {}

func shellArgs(_ string, text string) []string {
	return []string{"-c", text}
}
