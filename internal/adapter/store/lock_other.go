//go:build !unix && !windows

package store

import (
	"fmt"
	"runtime"
)

func acquireLock(string) (func(), error) {
	return nil, fmt.Errorf("advisory file locks are not supported on %s", runtime.GOOS)
}
