//go:build unix

package engine

import (
	"os/exec"
	"syscall"
)

// killProcessGroup starts the engine in its own process group so a JVM and
// anything a wrapper script forks die together on cancellation.
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
