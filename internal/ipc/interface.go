package ipc

import (
	"errors"
	"fmt"
)

var (
	ErrNotExported     = errors.New("object not exported")
	ErrUnknownMethod   = errors.New("unknown method")
	ErrUnknownProperty = errors.New("unknown property")
	ErrInvalidArgs     = errors.New("invalid arguments")
	ErrInvalidPath     = errors.New("invalid object path")
)

// Object is anything the registry can publish
type Object interface {
	Path() string
	Interface() Interface
}

// Caller runs fn on the owner's goroutine and waits for it
type Caller interface {
	Call(fn func()) error
}

// Arg is a named, typed argument. Type is a D-Bus signature ("b", "i", "s").
type Arg struct {
	Name string
	Type string
}

// Method is a bus-callable handler. Handler must be one of func() error,
// func(bool) error or func(int32) error.
type Method struct {
	Name    string
	Handler any
}

// Property is a read-only value computed on demand
type Property struct {
	Name string
	Type string
	Get  func() any
}

// Signal is a notification the object may emit
type Signal struct {
	Name string
	Args []Arg
}

// Interface describes one exported bus interface
type Interface struct {
	Name       string
	Methods    []Method
	Properties []Property
	Signals    []Signal
}

// Method looks up a method by name
func (i Interface) Method(name string) (Method, bool) {
	for _, m := range i.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return Method{}, false
}

// Property looks up a property by name
func (i Interface) Property(name string) (Property, bool) {
	for _, p := range i.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Signal looks up a signal by name
func (i Interface) Signal(name string) (Signal, bool) {
	for _, s := range i.Signals {
		if s.Name == name {
			return s, true
		}
	}
	return Signal{}, false
}

// Values evaluates every property getter
func (i Interface) Values() map[string]any {
	out := make(map[string]any, len(i.Properties))
	for _, p := range i.Properties {
		out[p.Name] = p.Get()
	}
	return out
}

// Args returns the input signature of the method
func (m Method) Args() []Arg {
	switch m.Handler.(type) {
	case func(bool) error:
		return []Arg{{Name: "arg0", Type: "b"}}
	case func(int32) error:
		return []Arg{{Name: "arg0", Type: "i"}}
	default:
		return nil
	}
}

// Invoke calls the handler after checking the arguments against its signature
func (m Method) Invoke(args ...any) error {
	switch h := m.Handler.(type) {
	case func() error:
		if len(args) != 0 {
			return fmt.Errorf("%w: %s takes no arguments", ErrInvalidArgs, m.Name)
		}
		return h()
	case func(bool) error:
		if len(args) != 1 {
			return fmt.Errorf("%w: %s takes one boolean", ErrInvalidArgs, m.Name)
		}
		b, ok := args[0].(bool)
		if !ok {
			return fmt.Errorf("%w: %s expects bool, got %T", ErrInvalidArgs, m.Name, args[0])
		}
		return h(b)
	case func(int32) error:
		if len(args) != 1 {
			return fmt.Errorf("%w: %s takes one integer", ErrInvalidArgs, m.Name)
		}
		switch n := args[0].(type) {
		case int32:
			return h(n)
		case int:
			return h(int32(n))
		default:
			return fmt.Errorf("%w: %s expects int32, got %T", ErrInvalidArgs, m.Name, args[0])
		}
	default:
		return fmt.Errorf("%w: %s has unsupported handler %T", ErrInvalidArgs, m.Name, m.Handler)
	}
}

// Bus exports interfaces at object paths and broadcasts signals
type Bus interface {
	Export(path string, iface Interface) error
	Unexport(path string) error
	Emit(path, iface, member string, args ...any) error
}

// run executes fn through caller, or directly when caller is nil
func run(caller Caller, fn func()) error {
	if caller == nil {
		fn()
		return nil
	}
	return caller.Call(fn)
}
