package ipc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistryRegister(t *testing.T) {
	bus := NewMemoryBus(nil)
	reg := NewRegistry(bus, zap.NewNop())

	obj := testObject{path: "/org/appswitch/apps/reader", iface: testInterface(nil)}
	require.NoError(t, reg.Register(obj))

	assert.True(t, reg.Registered(obj.path))
	assert.True(t, bus.Exported(obj.path))
	assert.Equal(t, []string{obj.path}, reg.Paths())
}

func TestRegistryReplacesExisting(t *testing.T) {
	bus := NewMemoryBus(nil)
	reg := NewRegistry(bus, nil)

	var first, second []string
	path := "/org/appswitch/apps/reader"
	require.NoError(t, reg.Register(testObject{path: path, iface: testInterface(&first)}))
	require.NoError(t, reg.Register(testObject{path: path, iface: testInterface(&second)}))

	require.NoError(t, bus.Call(path, "launch"))
	assert.Empty(t, first)
	assert.Equal(t, []string{"launch"}, second)
	assert.Len(t, reg.Paths(), 1)
}

func TestRegistryUnregister(t *testing.T) {
	bus := NewMemoryBus(nil)
	reg := NewRegistry(bus, nil)
	path := "/org/appswitch/apps/reader"

	assert.False(t, reg.Unregister(path))

	require.NoError(t, reg.Register(testObject{path: path, iface: testInterface(nil)}))
	assert.True(t, reg.Unregister(path))
	assert.False(t, reg.Unregister(path))
	assert.False(t, reg.Registered(path))
	assert.False(t, bus.Exported(path))
	assert.Empty(t, reg.Paths())
}

func TestRegistryEmit(t *testing.T) {
	bus := NewMemoryBus(nil)
	reg := NewRegistry(bus, nil)
	path := "/org/appswitch/apps/reader"

	require.NoError(t, reg.Emit(path, "launched"))
	assert.Empty(t, bus.Emissions(), "unregistered objects emit nothing")

	require.NoError(t, reg.Register(testObject{path: path, iface: testInterface(nil)}))
	require.NoError(t, reg.Emit(path, "exited", int32(9)))

	emissions := bus.Emissions()
	require.Len(t, emissions, 1)
	assert.Equal(t, Emission{
		Path:      path,
		Interface: "org.appswitch.Application1",
		Member:    "exited",
		Args:      []any{int32(9)},
	}, emissions[0])

	reg.Unregister(path)
	require.NoError(t, reg.Emit(path, "launched"))
	assert.Len(t, bus.Emissions(), 1)
}

func TestRegistryPathsSorted(t *testing.T) {
	reg := NewRegistry(NewMemoryBus(nil), nil)
	for _, p := range []string{"/b", "/c", "/a"} {
		require.NoError(t, reg.Register(testObject{path: p, iface: testInterface(nil)}))
	}
	assert.Equal(t, []string{"/a", "/b", "/c"}, reg.Paths())
}

type failingBus struct {
	*MemoryBus
	err error
}

func (b *failingBus) Export(string, Interface) error { return b.err }

func TestRegistryExportFailure(t *testing.T) {
	boom := errors.New("bus down")
	reg := NewRegistry(&failingBus{MemoryBus: NewMemoryBus(nil), err: boom}, nil)

	err := reg.Register(testObject{path: "/a", iface: testInterface(nil)})
	require.ErrorIs(t, err, boom)
	assert.False(t, reg.Registered("/a"))
}
