//go:build !unix

package fifo

import "errors"

// ErrNoReader mirrors the unix build so callers can branch on it.
var ErrNoReader = errors.New("fifo: no process has the pipe open for reading")

// ErrUnsupported is returned for every FIFO operation on platforms
// without POSIX named pipes. The liveness probe and the codec still
// work there; channels do not.
var ErrUnsupported = errors.New("fifo: named pipes are not supported on this platform")

type Reader struct{}

func Mkfifo(path string, mode uint32) error { return ErrUnsupported }

func OpenReader(path string) (*Reader, error) { return nil, ErrUnsupported }

func (r *Reader) Read(b []byte) (int, error) { return 0, ErrUnsupported }

func (r *Reader) Close() error { return nil }

func WriteToken(path string, b []byte) error { return ErrUnsupported }
