//go:build unix

package generate

import (
	"os/exec"
	"syscall"
)

// killGroup runs the generator in its own process group and makes
// cancellation kill the whole group, so launchers such as "uv run" cannot
// leave a child holding the stderr pipe.
func killGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
