package basedir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvBaseDir, dir)
	Reset()
	t.Cleanup(Reset)

	assert.Equal(t, dir, Dir())
	assert.Equal(t, filepath.Join(dir, "tmp"), Tmp())
}

func TestDefaultResolutionEndsWithPubsub(t *testing.T) {
	t.Setenv(EnvBaseDir, "")
	Reset()
	t.Cleanup(Reset)

	got := Dir()
	require.NotEmpty(t, got)
	assert.Equal(t, "pubsub", filepath.Base(got))
	assert.True(t, filepath.IsAbs(got), "base dir should be absolute, got %q", got)
}

func TestResolutionIsCached(t *testing.T) {
	first := t.TempDir()
	t.Setenv(EnvBaseDir, first)
	Reset()
	t.Cleanup(Reset)

	require.Equal(t, first, Dir())

	// Changing the environment mid-process has no effect until Reset.
	t.Setenv(EnvBaseDir, t.TempDir())
	assert.Equal(t, first, Dir())

	Reset()
	assert.NotEqual(t, first, Dir())
}

func TestShmPreferredWhenPresent(t *testing.T) {
	t.Setenv(EnvBaseDir, "")
	Reset()
	t.Cleanup(Reset)

	got := Dir()
	// On hosts with /dev/shm the resolver must pick it; elsewhere it
	// falls back to the system temp directory.
	if fi, err := os.Stat("/dev/shm"); err == nil && fi.IsDir() {
		assert.Equal(t, "/dev/shm/pubsub", got)
	} else {
		assert.Equal(t, filepath.Join(os.TempDir(), "pubsub"), got)
	}
}
