//go:build unix

package proc

import (
	"errors"

	"golang.org/x/sys/unix"
)

// alive uses the zero-signal kill test. kill(pid, 0) performs the
// existence and permission checks without delivering anything; EPERM
// means the process exists but belongs to someone else, so it counts
// as alive.
func alive(pid int) bool {
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	return errors.Is(err, unix.EPERM)
}
