package cli

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRunningReportsMissingFile(t *testing.T) {
	running, pid := isRunning(filepath.Join(t.TempDir(), "nope.pid"))
	assert.False(t, running)
	assert.Equal(t, 0, pid)
}

func TestIsRunningReportsCurrentProcessAlive(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "runtime.pid")
	require.NoError(t, os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0o644))

	running, pid := isRunning(pidFile)
	assert.True(t, running)
	assert.Equal(t, os.Getpid(), pid)
}

func TestIsRunningRejectsGarbageContent(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "runtime.pid")
	require.NoError(t, os.WriteFile(pidFile, []byte("not-a-pid"), 0o644))

	running, _ := isRunning(pidFile)
	assert.False(t, running)
}

func TestWritePIDFileWritesCurrentPID(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "nested", "runtime.pid")
	require.NoError(t, writePIDFile(pidFile))

	data, err := os.ReadFile(pidFile)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))
}
