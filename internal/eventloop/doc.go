// Package eventloop provides the single cooperative loop every application
// handler runs on.
//
// Bus invocations, process notifications and debug queries all execute as
// functions queued on one Loop. Handlers run to completion one at a time, so
// application state needs no locking as long as it is only touched from
// inside the loop.
//
// Example Usage:
//
//	loop := eventloop.New()
//	go loop.Run(ctx)
//	err := loop.Call(func() { app.Launch() })
package eventloop
