// Package process supervises the one OS process behind an application.
//
// A Supervisor starts the child in its own process group, relays its output
// and reports lifecycle changes as typed events. Events are posted to the
// owning event loop and delivered to a single handler there, so the handler
// may touch application state without locking. Start returns before the child
// is confirmed running; the Started event is the confirmation.
//
// Components:
//   - Supervisor: start, terminate, kill, signal, suspend and continue a child
//   - Relay: forwards child stdout/stderr lines to the system log
//   - SplitCommand: turns a launch command line into argv
//   - Probe: asks the OS whether a process is stopped and what it uses
//
// Example Usage:
//
//	sup := process.NewSupervisor(loop, logger)
//	sup.Handle(func(ev process.Event) { ... })
//	args, _ := process.SplitCommand("/bin/reader --fullscreen")
//	_ = sup.Start(args[0], args[1:])
package process
