package app

import "github.com/GriffinCanCode/AgentOS/appswitch/internal/ipc"

// Interface describes the application's bus object. Getters and handlers
// read application state and must be invoked on the event loop.
func (a *Application) Interface() ipc.Interface {
	return ipc.Interface{
		Name: a.deps.Interface,
		Methods: []ipc.Method{
			{Name: "launch", Handler: a.Launch},
			{Name: "pause", Handler: a.Pause},
			{Name: "resume", Handler: a.Resume},
			{Name: "signal", Handler: a.Signal},
			{Name: "unregister", Handler: a.Unregister},
		},
		Properties: []ipc.Property{
			{Name: "name", Type: "s", Get: func() any { return a.reg.Name }},
			{Name: "description", Type: "s", Get: func() any { return a.reg.Description }},
			{Name: "call", Type: "s", Get: func() any { return a.reg.Call }},
			{Name: "term", Type: "s", Get: func() any { return a.reg.Term }},
			{Name: "autoStart", Type: "b", Get: func() any { return a.reg.AutoStart }},
			{Name: "type", Type: "i", Get: func() any { return int32(a.reg.Type) }},
			{Name: "state", Type: "i", Get: func() any { return int32(a.State()) }},
		},
		Signals: []ipc.Signal{
			{Name: Launched.String()},
			{Name: Paused.String()},
			{Name: Resumed.String()},
			{Name: Signaled.String(), Args: []ipc.Arg{{Name: "signal", Type: "i"}}},
			{Name: Unregistered.String()},
			{Name: Exited.String(), Args: []ipc.Arg{{Name: "code", Type: "i"}}},
		},
	}
}
