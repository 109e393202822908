//go:build unix

package fifo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkTestFifo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queue")
	require.NoError(t, Mkfifo(path, 0o660))
	return path
}

func TestMkfifoModeAndType(t *testing.T) {
	path := mkTestFifo(t)

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, fi.Mode()&os.ModeNamedPipe, "expected a named pipe, got %v", fi.Mode())
	// The explicit chmod makes the permission bits umask-proof.
	assert.Equal(t, os.FileMode(0o660), fi.Mode().Perm())
}

func TestWriteTokenWithoutReader(t *testing.T) {
	path := mkTestFifo(t)

	err := WriteToken(path, []byte("12345678"))
	assert.ErrorIs(t, err, ErrNoReader)
}

func TestReadEmptyPipe(t *testing.T) {
	path := mkTestFifo(t)

	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	buf := make([]byte, 8)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWriteThenReadToken(t *testing.T) {
	path := mkTestFifo(t)

	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, WriteToken(path, []byte("AAAAAAAA")))
	require.NoError(t, WriteToken(path, []byte("BBBBBBBB")))

	buf := make([]byte, 8)
	n, err := r.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 8, n)
	assert.Equal(t, "AAAAAAAA", string(buf))

	n, err = r.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 8, n)
	assert.Equal(t, "BBBBBBBB", string(buf))

	// Drained again.
	n, err = r.Read(buf)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReaderCloseTwice(t *testing.T) {
	path := mkTestFifo(t)

	r, err := OpenReader(path)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.NoError(t, r.Close())
}
