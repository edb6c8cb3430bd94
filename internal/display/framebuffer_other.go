//go:build !linux

package display

import "fmt"

// DeviceFramebuffer is only functional on Linux
type DeviceFramebuffer struct {
	path string
}

// NewDeviceFramebuffer creates a framebuffer for the device at path
func NewDeviceFramebuffer(path string, _ Geometry) *DeviceFramebuffer {
	return &DeviceFramebuffer{path: path}
}

// Path returns the device node
func (d *DeviceFramebuffer) Path() string {
	return d.path
}

// Open always fails off Linux
func (d *DeviceFramebuffer) Open() (Mapping, error) {
	return nil, fmt.Errorf("%w: %s: unsupported platform", ErrDeviceUnavailable, d.path)
}
