package ipc

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Registry tracks objects exported on a bus
type Registry struct {
	bus     Bus
	logger  *zap.Logger
	mu      sync.RWMutex
	objects map[string]string
}

// NewRegistry creates a registry on bus
func NewRegistry(bus Bus, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		bus:     bus,
		logger:  logger,
		objects: make(map[string]string),
	}
}

// Register exports obj at its path, replacing whatever was there
func (r *Registry) Register(obj Object) error {
	path := obj.Path()
	iface := obj.Interface()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.objects[path]; exists {
		if err := r.bus.Unexport(path); err != nil {
			r.logger.Warn("Failed to unexport previous object", zap.String("path", path), zap.Error(err))
		}
		delete(r.objects, path)
	}

	if err := r.bus.Export(path, iface); err != nil {
		r.logger.Error("Failed to register object", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("register %s: %w", path, err)
	}

	r.objects[path] = iface.Name
	r.logger.Info("Registered object", zap.String("path", path), zap.String("interface", iface.Name))
	return nil
}

// Unregister removes the object at path. It reports whether anything was removed.
func (r *Registry) Unregister(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.objects[path]; !exists {
		return false
	}
	delete(r.objects, path)

	if err := r.bus.Unexport(path); err != nil {
		r.logger.Warn("Failed to unexport object", zap.String("path", path), zap.Error(err))
	}
	r.logger.Info("Unregistered object", zap.String("path", path))
	return true
}

// Registered reports whether path is exported
func (r *Registry) Registered(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.objects[path]
	return ok
}

// Paths lists exported paths in sorted order
func (r *Registry) Paths() []string {
	r.mu.RLock()
	paths := make([]string, 0, len(r.objects))
	for p := range r.objects {
		paths = append(paths, p)
	}
	r.mu.RUnlock()

	sort.Strings(paths)
	return paths
}

// Emit broadcasts signal from path. Unregistered paths are silently skipped.
func (r *Registry) Emit(path, signal string, args ...any) error {
	r.mu.RLock()
	iface, ok := r.objects[path]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	if err := r.bus.Emit(path, iface, signal, args...); err != nil {
		r.logger.Warn("Failed to emit signal",
			zap.String("path", path),
			zap.String("signal", signal),
			zap.Error(err))
		return fmt.Errorf("emit %s.%s: %w", iface, signal, err)
	}
	return nil
}
