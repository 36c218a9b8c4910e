//go:build unix

package wsserver

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// setReuseAddr is the net.ListenConfig.Control callback enabling
// SO_REUSEADDR on the listening socket, per §6's "SO_REUSEADDR enabled".
func setReuseAddr(_ string, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
