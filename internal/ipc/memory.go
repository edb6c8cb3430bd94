package ipc

import (
	"fmt"
	"slices"
	"sync"
)

// Emission is a signal recorded by MemoryBus
type Emission struct {
	Path      string
	Interface string
	Member    string
	Args      []any
}

// MemoryBus is an in-process bus. Calls and property reads go through the
// optional Caller exactly as they would on a real bus.
type MemoryBus struct {
	caller    Caller
	mu        sync.Mutex
	objects   map[string]Interface
	emissions []Emission
	listeners []func(Emission)
}

// NewMemoryBus creates an empty bus. caller may be nil.
func NewMemoryBus(caller Caller) *MemoryBus {
	return &MemoryBus{
		caller:  caller,
		objects: make(map[string]Interface),
	}
}

func (b *MemoryBus) Export(path string, iface Interface) error {
	if path == "" || path[0] != '/' {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[path] = iface
	return nil
}

func (b *MemoryBus) Unexport(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, path)
	return nil
}

func (b *MemoryBus) Emit(path, iface, member string, args ...any) error {
	e := Emission{Path: path, Interface: iface, Member: member, Args: args}

	b.mu.Lock()
	b.emissions = append(b.emissions, e)
	listeners := slices.Clone(b.listeners)
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(e)
	}
	return nil
}

// Exported reports whether path currently has an interface
func (b *MemoryBus) Exported(path string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[path]
	return ok
}

// Call invokes a method on the object at path
func (b *MemoryBus) Call(path, method string, args ...any) error {
	iface, err := b.lookup(path)
	if err != nil {
		return err
	}
	m, ok := iface.Method(method)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownMethod, iface.Name, method)
	}

	var callErr error
	if err := run(b.caller, func() { callErr = m.Invoke(args...) }); err != nil {
		return err
	}
	return callErr
}

// Get reads a property from the object at path
func (b *MemoryBus) Get(path, property string) (any, error) {
	iface, err := b.lookup(path)
	if err != nil {
		return nil, err
	}
	p, ok := iface.Property(property)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownProperty, iface.Name, property)
	}

	var v any
	if err := run(b.caller, func() { v = p.Get() }); err != nil {
		return nil, err
	}
	return v, nil
}

// Emissions returns every signal emitted so far
func (b *MemoryBus) Emissions() []Emission {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Emission(nil), b.emissions...)
}

// Listen registers fn to be called synchronously for each emission
func (b *MemoryBus) Listen(fn func(Emission)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

func (b *MemoryBus) lookup(path string) (Interface, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	iface, ok := b.objects[path]
	if !ok {
		return Interface{}, fmt.Errorf("%w: %s", ErrNotExported, path)
	}
	return iface, nil
}
