//go:build windows

package proc

import (
	"golang.org/x/sys/windows"
)

// alive opens a query-only process handle. An open failure with
// ERROR_INVALID_PARAMETER means no such PID; access denied means the
// process exists but is protected, which still counts as alive. A
// handle to an exited process can linger, so the exit code is checked.
func alive(pid int) bool {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return err == windows.ERROR_ACCESS_DENIED
	}
	defer windows.CloseHandle(h)
	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return true
	}
	return code == windows.STILL_ACTIVE
}
