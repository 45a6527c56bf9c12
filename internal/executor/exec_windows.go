//go:build windows

package executor

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sys/windows"
)

// processTree is a job object holding the shell and everything it spawns.
// A zero job means the job could not be created and only the shell is killed.
type processTree struct {
	job windows.Handle
}

// configureProcess starts the shell in a new process group without a console
// window and arranges for cancellation to terminate the whole job.
func configureProcess(c *exec.Cmd) *processTree {
	c.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP | windows.CREATE_NO_WINDOW,
	}

	t := &processTree{}
	if job, err := windows.CreateJobObject(nil, nil); err == nil {
		t.job = job
	}

	c.Cancel = func() error {
		if t.job != 0 {
			if err := windows.TerminateJobObject(t.job, 1); err == nil {
				return nil
			}
		}
		return c.Process.Kill()
	}
	return t
}

// attach moves the started shell into the job. Children it spawns from then
// on are members of the job too.
func (t *processTree) attach(c *exec.Cmd) error {
	if t.job == 0 {
		return nil
	}
	h, err := windows.OpenProcess(windows.PROCESS_SET_QUOTA|windows.PROCESS_TERMINATE, false, uint32(c.Process.Pid))
	if err != nil {
		return fmt.Errorf("open process %d: %w", c.Process.Pid, err)
	}
	defer windows.CloseHandle(h)

	if err := windows.AssignProcessToJobObject(t.job, h); err != nil {
		return fmt.Errorf("assign process %d to job: %w", c.Process.Pid, err)
	}
	return nil
}

// release closes the job handle. Processes left running after a normal exit
// are not killed by this.
func (t *processTree) release() {
	if t.job != 0 {
		windows.CloseHandle(t.job)
		t.job = 0
	}
}

func shellArgs(shell string, text string) []string {
	name := strings.ToLower(strings.TrimSuffix(filepath.Base(shell), filepath.Ext(shell)))
	switch name {
	case "powershell", "pwsh":
		return []string{"-NoProfile", "-NonInteractive", "-Command", text}
	default:
		return []string{"/C", text}
	}
}
