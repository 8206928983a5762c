//go:build !linux && !windows

package runner

import "syscall"

// sysProcAttr puts the child in its own process group. Pdeathsig is not
// available on non-Linux platforms.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid: true,
	}
}
