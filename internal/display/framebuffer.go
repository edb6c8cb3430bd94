package display

import "errors"

var (
	// ErrDeviceUnavailable is returned when the framebuffer cannot be opened or mapped
	ErrDeviceUnavailable = errors.New("framebuffer unavailable")
	// ErrCorrupt is returned when a held snapshot fails to decompress to the panel size
	ErrCorrupt = errors.New("snapshot corrupt")
)

// BytesPerPixel is fixed by the panel's RGB565 layout
const BytesPerPixel = 2

// Geometry is the visible panel size in pixels
type Geometry struct {
	Width  int
	Height int
}

// Size returns the number of framebuffer bytes covering the panel
func (g Geometry) Size() int {
	return g.Width * g.Height * BytesPerPixel
}

// Framebuffer opens a fresh mapping of the panel memory
type Framebuffer interface {
	Open() (Mapping, error)
}

// Mapping is an open, mapped framebuffer. Close must always be called.
type Mapping interface {
	Bytes() []byte
	Refresh(u Update) error
	Close() error
}
