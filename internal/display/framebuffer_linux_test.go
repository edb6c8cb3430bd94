//go:build linux

package display

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestUpdateLayout(t *testing.T) {
	assert.Equal(t, uintptr(72), unsafe.Sizeof(Update{}))
	assert.Equal(t, uintptr(0x4048462e), sendUpdate)
}

func TestDeviceFramebufferOnFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fb0")
	original := bytes.Repeat([]byte{0xDE, 0xAD}, testGeometry.Size()/2)
	require.NoError(t, os.WriteFile(path, original, 0o600))

	core, logs := observer.New(zapcore.WarnLevel)
	cfg := DefaultConfig()
	cfg.Geometry = testGeometry
	sc := NewScreenCapture(NewDeviceFramebuffer(path, testGeometry), cfg, zap.New(core), nil)

	require.NoError(t, sc.Capture())
	require.NoError(t, os.WriteFile(path, make([]byte, testGeometry.Size()), 0o600))

	// A regular file rejects the refresh ioctl; the pixels still land.
	require.NoError(t, sc.Restore())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, got)
	assert.Equal(t, 1, logs.FilterMessage("Panel refresh failed after restore").Len())
}

func TestDeviceFramebufferMissing(t *testing.T) {
	fb := NewDeviceFramebuffer(filepath.Join(t.TempDir(), "absent"), testGeometry)
	_, err := fb.Open()
	require.ErrorIs(t, err, ErrDeviceUnavailable)
}

func TestDeviceFramebufferShortFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fb0")
	require.NoError(t, os.WriteFile(path, make([]byte, 10), 0o600))

	_, err := NewDeviceFramebuffer(path, testGeometry).Open()
	require.ErrorIs(t, err, ErrDeviceUnavailable)
}
