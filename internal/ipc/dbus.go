package ipc

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
	"go.uber.org/zap"
)

const (
	propertiesInterface = "org.freedesktop.DBus.Properties"
	introspectInterface = "org.freedesktop.DBus.Introspectable"
	errUnknownInterface = "org.freedesktop.DBus.Error.UnknownInterface"
	errUnknownProperty  = "org.freedesktop.DBus.Error.UnknownProperty"
	errPropertyReadOnly = "org.freedesktop.DBus.Error.PropertyReadOnly"
)

// DBus exports objects on a D-Bus connection. godbus dispatches every call on
// its own goroutine; handlers are funnelled through caller.
type DBus struct {
	conn     *dbus.Conn
	caller   Caller
	logger   *zap.Logger
	mu       sync.Mutex
	exported map[string]string
}

// ConnectDBus connects to the system or session bus and claims service
func ConnectDBus(kind, service string, caller Caller, logger *zap.Logger) (*DBus, error) {
	var (
		conn *dbus.Conn
		err  error
	)
	switch kind {
	case "system":
		conn, err = dbus.ConnectSystemBus()
	case "session":
		conn, err = dbus.ConnectSessionBus()
	default:
		return nil, fmt.Errorf("unknown bus %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s bus: %w", kind, err)
	}

	reply, err := conn.RequestName(service, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("request name %s: %w", service, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, fmt.Errorf("name %s already taken", service)
	}

	return NewDBus(conn, caller, logger), nil
}

// NewDBus wraps an established connection
func NewDBus(conn *dbus.Conn, caller Caller, logger *zap.Logger) *DBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBus{
		conn:     conn,
		caller:   caller,
		logger:   logger,
		exported: make(map[string]string),
	}
}

func (d *DBus) Export(path string, iface Interface) error {
	op := dbus.ObjectPath(path)
	if !op.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	if err := d.conn.ExportMethodTable(d.methodTable(iface), op, iface.Name); err != nil {
		return err
	}
	if err := d.conn.ExportMethodTable(d.propertyTable(iface), op, propertiesInterface); err != nil {
		d.conn.Export(nil, op, iface.Name)
		return err
	}
	if err := d.conn.Export(introspect.NewIntrospectable(introspectNode(iface)), op, introspectInterface); err != nil {
		d.conn.Export(nil, op, iface.Name)
		d.conn.Export(nil, op, propertiesInterface)
		return err
	}

	d.mu.Lock()
	d.exported[path] = iface.Name
	d.mu.Unlock()
	return nil
}

func (d *DBus) Unexport(path string) error {
	d.mu.Lock()
	name, ok := d.exported[path]
	delete(d.exported, path)
	d.mu.Unlock()
	if !ok {
		return nil
	}

	op := dbus.ObjectPath(path)
	for _, iface := range []string{name, propertiesInterface, introspectInterface} {
		if err := d.conn.Export(nil, op, iface); err != nil {
			return err
		}
	}
	return nil
}

func (d *DBus) Emit(path, iface, member string, args ...any) error {
	return d.conn.Emit(dbus.ObjectPath(path), iface+"."+member, args...)
}

// Close drops the bus connection
func (d *DBus) Close() error {
	return d.conn.Close()
}

func (d *DBus) methodTable(iface Interface) map[string]interface{} {
	table := make(map[string]interface{}, len(iface.Methods))
	for _, m := range iface.Methods {
		switch m.Handler.(type) {
		case func() error:
			table[m.Name] = func() *dbus.Error { return d.invoke(iface.Name, m) }
		case func(bool) error:
			table[m.Name] = func(b bool) *dbus.Error { return d.invoke(iface.Name, m, b) }
		case func(int32) error:
			table[m.Name] = func(n int32) *dbus.Error { return d.invoke(iface.Name, m, n) }
		default:
			d.logger.Warn("Skipping method with unsupported handler",
				zap.String("interface", iface.Name),
				zap.String("method", m.Name))
		}
	}
	return table
}

func (d *DBus) invoke(ifaceName string, m Method, args ...any) *dbus.Error {
	var err error
	if callErr := run(d.caller, func() { err = m.Invoke(args...) }); callErr != nil {
		err = callErr
	}
	if err != nil {
		d.logger.Debug("Method call failed",
			zap.String("interface", ifaceName),
			zap.String("method", m.Name),
			zap.Error(err))
		return dbus.MakeFailedError(err)
	}
	return nil
}

func (d *DBus) propertyTable(iface Interface) map[string]interface{} {
	return map[string]interface{}{
		"Get": func(ifaceName, name string) (dbus.Variant, *dbus.Error) {
			if ifaceName != iface.Name {
				return dbus.Variant{}, dbus.NewError(errUnknownInterface, []interface{}{ifaceName})
			}
			p, ok := iface.Property(name)
			if !ok {
				return dbus.Variant{}, dbus.NewError(errUnknownProperty, []interface{}{name})
			}
			var v any
			if err := run(d.caller, func() { v = p.Get() }); err != nil {
				return dbus.Variant{}, dbus.MakeFailedError(err)
			}
			return dbus.MakeVariant(v), nil
		},
		"GetAll": func(ifaceName string) (map[string]dbus.Variant, *dbus.Error) {
			if ifaceName != iface.Name {
				return nil, dbus.NewError(errUnknownInterface, []interface{}{ifaceName})
			}
			var values map[string]any
			if err := run(d.caller, func() { values = iface.Values() }); err != nil {
				return nil, dbus.MakeFailedError(err)
			}
			out := make(map[string]dbus.Variant, len(values))
			for k, v := range values {
				out[k] = dbus.MakeVariant(v)
			}
			return out, nil
		},
		"Set": func(ifaceName, name string, _ dbus.Variant) *dbus.Error {
			return dbus.NewError(errPropertyReadOnly, []interface{}{ifaceName + "." + name})
		},
	}
}

func introspectNode(iface Interface) *introspect.Node {
	desc := introspect.Interface{Name: iface.Name}
	for _, m := range iface.Methods {
		method := introspect.Method{Name: m.Name}
		for _, a := range m.Args() {
			method.Args = append(method.Args, introspect.Arg{Name: a.Name, Type: a.Type, Direction: "in"})
		}
		desc.Methods = append(desc.Methods, method)
	}
	for _, s := range iface.Signals {
		signal := introspect.Signal{Name: s.Name}
		for _, a := range s.Args {
			signal.Args = append(signal.Args, introspect.Arg{Name: a.Name, Type: a.Type})
		}
		desc.Signals = append(desc.Signals, signal)
	}
	for _, p := range iface.Properties {
		desc.Properties = append(desc.Properties, introspect.Property{Name: p.Name, Type: p.Type, Access: "read"})
	}

	return &introspect.Node{
		Interfaces: []introspect.Interface{introspect.IntrospectData, prop.IntrospectData, desc},
	}
}
