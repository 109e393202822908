package proc

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAliveSelf(t *testing.T) {
	assert.True(t, Alive(os.Getpid()))
}

func TestAliveInit(t *testing.T) {
	// PID 1 always exists and is usually not ours; the probe must not
	// report false for permission reasons.
	assert.True(t, Alive(1))
}

func TestNotAliveNonPositive(t *testing.T) {
	assert.False(t, Alive(0))
	assert.False(t, Alive(-1))
	assert.False(t, Alive(-12345))
}

func TestNotAliveAbsurdPID(t *testing.T) {
	// Far above any configurable pid_max.
	assert.False(t, Alive(1<<30))
}
