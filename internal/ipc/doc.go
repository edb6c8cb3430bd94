// Package ipc publishes application objects on a message bus.
//
// Each object describes itself with an Interface: a name plus tables of
// methods, read-only properties and signals. The Registry tracks which paths
// are exported and forwards signals only for registered objects. Transport is
// pluggable through Bus; DBus talks to a real system or session bus and
// MemoryBus keeps everything in-process.
//
// Handlers and property getters are not goroutine-safe in general. Buses
// that dispatch from their own goroutines run them through a Caller, which in
// practice is the daemon's event loop.
package ipc
