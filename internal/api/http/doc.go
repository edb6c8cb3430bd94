// Package http serves the optional read-only debug surface:
//
//	GET /healthz      event loop liveness and uptime
//	GET /apps         every application and per-state counts
//	GET /apps/:name   one application by name
//	GET /metrics      Prometheus exposition
//
// Mutating operations are only available over the message bus.
package http
