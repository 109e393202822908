//go:build unix

// Package fifo wraps the named-pipe syscalls the bus needs: FIFO
// creation, non-blocking opens on both ends, and raw reads/writes that
// surface EAGAIN instead of parking the goroutine in the runtime poller.
package fifo

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// ErrNoReader reports a write-side open against a FIFO nobody is
// reading. Publishers treat it as a per-channel skip.
var ErrNoReader = errors.New("fifo: no process has the pipe open for reading")

// Mkfifo creates a FIFO at path. The permission bits are applied with
// an explicit chmod because the umask may strip group access from the
// creation mode.
func Mkfifo(path string, mode uint32) error {
	if err := unix.Mkfifo(path, mode); err != nil {
		return &os.PathError{Op: "mkfifo", Path: path, Err: err}
	}
	if err := unix.Chmod(path, mode); err != nil {
		return &os.PathError{Op: "chmod", Path: path, Err: err}
	}
	return nil
}

// Reader is the read end of a FIFO, held open in non-blocking mode for
// the lifetime of the owning channel. The raw descriptor is kept out of
// os.File on purpose: a pollable file would turn the non-blocking read
// into a goroutine-blocking one.
type Reader struct {
	fd   int
	path string
}

// OpenReader opens the FIFO read-only without blocking on a writer.
func OpenReader(path string) (*Reader, error) {
	fd, err := retryIntr(func() (int, error) {
		return unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	})
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	return &Reader{fd: fd, path: path}, nil
}

// Read performs one non-blocking read into b. It returns (0, nil) when
// the pipe holds no data, covering both EAGAIN (writers exist) and EOF
// (no writers), so the caller sees a uniform empty result.
func (r *Reader) Read(b []byte) (int, error) {
	n, err := retryIntr(func() (int, error) {
		return unix.Read(r.fd, b)
	})
	if err != nil {
		if errors.Is(err, unix.EAGAIN) {
			return 0, nil
		}
		return 0, &os.PathError{Op: "read", Path: r.path, Err: err}
	}
	return n, nil
}

func (r *Reader) Close() error {
	if r.fd < 0 {
		return nil
	}
	err := unix.Close(r.fd)
	r.fd = -1
	if err != nil {
		return &os.PathError{Op: "close", Path: r.path, Err: err}
	}
	return nil
}

// WriteToken opens the FIFO write-only and non-blocking, writes b in a
// single write, and closes the descriptor. ENXIO on open means no
// reader and maps to ErrNoReader. b must be at most PIPE_BUF bytes so
// the write is atomic; the bus only ever passes 8-byte tokens.
func WriteToken(path string, b []byte) error {
	fd, err := retryIntr(func() (int, error) {
		return unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	})
	if err != nil {
		if errors.Is(err, unix.ENXIO) {
			return ErrNoReader
		}
		return &os.PathError{Op: "open", Path: path, Err: err}
	}
	defer unix.Close(fd)
	n, err := retryIntr(func() (int, error) {
		return unix.Write(fd, b)
	})
	if err != nil {
		return &os.PathError{Op: "write", Path: path, Err: err}
	}
	if n != len(b) {
		return &os.PathError{Op: "write", Path: path, Err: unix.EIO}
	}
	return nil
}

func retryIntr(fn func() (int, error)) (int, error) {
	for {
		n, err := fn()
		if err != nil && errors.Is(err, unix.EINTR) {
			continue
		}
		return n, err
	}
}
