package pubsub

import (
	"testing"

	"github.com/formix/pubsub/internal/basedir"
)

// newTestBus points the bus root at a fresh per-test directory so tests
// never touch /dev/shm and never see each other's channels.
func newTestBus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(basedir.EnvBaseDir, dir)
	basedir.Reset()
	t.Cleanup(basedir.Reset)
	return dir
}
