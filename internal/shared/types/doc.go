// Package types provides shared data structures for appswitchd.
//
// Core Types:
//   - State: canonical application state (inactive, foreground, background, paused)
//   - AppType: how an application is sent to the background
//   - Registration: application metadata loaded from manifests
//   - AppView, Usage, Stats: read-only views for status surfaces
//
// The integer values of State and AppType are part of the bus contract and
// must not be renumbered.
package types
