package runner

import "syscall"

// sysProcAttr puts the child in its own process group. Pdeathsig makes the
// kernel kill the child if interpinfo dies while waiting on it.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
}
