// Package basedir resolves the filesystem root shared by every bus
// participant on the host. All channel directories and the publisher
// scratch area live under it.
package basedir

import (
	"os"
	"path/filepath"
	"sync"
)

// EnvBaseDir overrides the resolved base directory when set and non-empty.
const EnvBaseDir = "PUBSUB_BASE_DIR"

// dirName is appended to the chosen parent (shm or system temp).
const dirName = "pubsub"

var (
	mu     sync.Mutex
	cached string
)

// Dir returns the bus root. Resolution order: PUBSUB_BASE_DIR, then
// /dev/shm/pubsub when /dev/shm is a directory, then the system temp
// directory joined with "pubsub". The result is cached for the process
// lifetime; changing the environment afterwards has no effect.
// The directory is not created here; creators use MkdirAll semantics.
func Dir() string {
	mu.Lock()
	defer mu.Unlock()
	if cached == "" {
		cached = resolve()
	}
	return cached
}

// Tmp returns the publisher scratch area under the bus root.
func Tmp() string {
	return filepath.Join(Dir(), "tmp")
}

func resolve() string {
	if v := os.Getenv(EnvBaseDir); v != "" {
		return v
	}
	if fi, err := os.Stat("/dev/shm"); err == nil && fi.IsDir() {
		return filepath.Join("/dev/shm", dirName)
	}
	return filepath.Join(os.TempDir(), dirName)
}

// Reset drops the cached resolution so the next Dir call re-reads the
// environment. Test hook only.
func Reset() {
	mu.Lock()
	cached = ""
	mu.Unlock()
}
