//go:build linux

package display

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MXCFB_SEND_UPDATE, _IOW('F', 0x2E, struct mxcfb_update_data)
var sendUpdate = iow('F', 0x2E, unsafe.Sizeof(Update{}))

func iow(typ, nr byte, size uintptr) uintptr {
	return 1<<30 | size<<16 | uintptr(typ)<<8 | uintptr(nr)
}

// DeviceFramebuffer maps a framebuffer device node such as /dev/fb0
type DeviceFramebuffer struct {
	path string
	size int
}

// NewDeviceFramebuffer creates a framebuffer for the device at path
func NewDeviceFramebuffer(path string, geo Geometry) *DeviceFramebuffer {
	return &DeviceFramebuffer{path: path, size: geo.Size()}
}

// Path returns the device node
func (d *DeviceFramebuffer) Path() string {
	return d.path
}

// Open opens the device read/write and maps the panel region at offset 0
func (d *DeviceFramebuffer) Open() (Mapping, error) {
	fd, err := unix.Open(d.path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDeviceUnavailable, d.path, err)
	}

	// Regular files back the device in tests; touching pages past EOF faults.
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err == nil && st.Mode&unix.S_IFMT == unix.S_IFREG && st.Size < int64(d.size) {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: %s is %d bytes, need %d", ErrDeviceUnavailable, d.path, st.Size, d.size)
	}

	mem, err := unix.Mmap(fd, 0, d.size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: mmap %s: %v", ErrDeviceUnavailable, d.path, err)
	}

	return &deviceMapping{fd: fd, mem: mem}, nil
}

type deviceMapping struct {
	fd  int
	mem []byte
}

func (m *deviceMapping) Bytes() []byte {
	return m.mem
}

func (m *deviceMapping) Refresh(u Update) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(m.fd), sendUpdate, uintptr(unsafe.Pointer(&u)))
	if errno != 0 {
		return fmt.Errorf("MXCFB_SEND_UPDATE: %w", errno)
	}
	return nil
}

func (m *deviceMapping) Close() error {
	var errs []error
	if m.mem != nil {
		if err := unix.Munmap(m.mem); err != nil {
			errs = append(errs, fmt.Errorf("munmap: %w", err))
		}
		m.mem = nil
	}
	if m.fd >= 0 {
		if err := unix.Close(m.fd); err != nil {
			errs = append(errs, fmt.Errorf("close: %w", err))
		}
		m.fd = -1
	}
	return errors.Join(errs...)
}
