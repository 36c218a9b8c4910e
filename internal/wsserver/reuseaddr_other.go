//go:build !unix

package wsserver

import "syscall"

// setReuseAddr is a no-op on non-Unix platforms; SO_REUSEADDR has no
// equivalent benefit on Windows' default socket reuse semantics.
func setReuseAddr(_ string, _ string, _ syscall.RawConn) error {
	return nil
}
