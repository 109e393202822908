// Package proc answers one question: does a process with a given PID
// currently exist on this host. The probe never signals the target and
// never fails for permission reasons.
package proc

// Alive reports whether a process with the given PID exists, regardless
// of ownership or state. PIDs <= 0 are never alive.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return alive(pid)
}
