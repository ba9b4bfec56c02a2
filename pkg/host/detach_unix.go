//go:build unix

package host

import (
	"os/exec"
	"syscall"
)

// detach puts the host in its own session so signals aimed at the
// transport's process group do not reach it.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
