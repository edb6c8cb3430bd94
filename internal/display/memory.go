package display

import (
	"errors"
	"sync"
)

var errMappingClosed = errors.New("mapping closed")

// MemoryFramebuffer is an in-memory panel. It records refreshes and counts
// open mappings so callers can check that every mapping was released.
type MemoryFramebuffer struct {
	mu         sync.Mutex
	pixels     []byte
	refreshes  []Update
	opens      int
	open       int
	openErr    error
	refreshErr error
}

// NewMemoryFramebuffer creates a zeroed panel of the given geometry
func NewMemoryFramebuffer(geo Geometry) *MemoryFramebuffer {
	return &MemoryFramebuffer{pixels: make([]byte, geo.Size())}
}

// FailOpen makes subsequent Open calls fail with err (nil clears it)
func (f *MemoryFramebuffer) FailOpen(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openErr = err
}

// FailRefresh makes subsequent refreshes fail with err (nil clears it)
func (f *MemoryFramebuffer) FailRefresh(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshErr = err
}

// Open maps the panel
func (f *MemoryFramebuffer) Open() (Mapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.openErr != nil {
		return nil, errors.Join(ErrDeviceUnavailable, f.openErr)
	}
	f.opens++
	f.open++
	return &memoryMapping{fb: f}, nil
}

// Fill sets every byte of the panel to b
func (f *MemoryFramebuffer) Fill(b byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.pixels {
		f.pixels[i] = b
	}
}

// Pixels returns a copy of the panel contents
func (f *MemoryFramebuffer) Pixels() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]byte, len(f.pixels))
	copy(out, f.pixels)
	return out
}

// Refreshes returns the updates issued so far
func (f *MemoryFramebuffer) Refreshes() []Update {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Update(nil), f.refreshes...)
}

// Opens returns how many mappings were created
func (f *MemoryFramebuffer) Opens() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

// OpenMappings returns how many mappings are still held
func (f *MemoryFramebuffer) OpenMappings() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

type memoryMapping struct {
	fb     *MemoryFramebuffer
	closed bool
}

func (m *memoryMapping) Bytes() []byte {
	return m.fb.pixels
}

func (m *memoryMapping) Refresh(u Update) error {
	m.fb.mu.Lock()
	defer m.fb.mu.Unlock()
	if m.closed {
		return errMappingClosed
	}
	if m.fb.refreshErr != nil {
		return m.fb.refreshErr
	}
	m.fb.refreshes = append(m.fb.refreshes, u)
	return nil
}

func (m *memoryMapping) Close() error {
	m.fb.mu.Lock()
	defer m.fb.mu.Unlock()
	if m.closed {
		return errMappingClosed
	}
	m.closed = true
	m.fb.open--
	return nil
}
