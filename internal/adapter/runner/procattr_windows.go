package runner

import "syscall"

// sysProcAttr keeps the interpreter from flashing a console window.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		HideWindow: true,
	}
}
