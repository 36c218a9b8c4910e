//go:build !linux

package affinity

import "runtime"

// pin is a no-op outside Linux: affinity is cooperative OS support this
// server does not require to function correctly.
func pin(cpuID int) error {
	runtime.LockOSThread()
	return nil
}
