// Package app manages the lifecycle of switchable applications.
//
// An Application owns exactly one process.Supervisor and at most one screen
// snapshot. Its visible state is derived from the process phase, the
// suspend bookkeeping and a backgrounded flag:
//
//	Inactive      never started or exited
//	Paused        alive and stopped (SIGSTOP, or stopped from outside)
//	InBackground  alive, running, backgrounded
//	InForeground  alive, running, not backgrounded
//
// Pausing captures the framebuffer before the process is stopped; resuming
// continues it and writes the captured pixels back. Every Application method
// and the Manager's state-reading methods must run on the event loop that
// the supervisors post to.
package app
