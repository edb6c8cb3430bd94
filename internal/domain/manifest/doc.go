// Package manifest loads application registrations from a directory of
// YAML or TOML files, one application per file:
//
//	name: Reader
//	description: Document reader
//	call: /opt/bin/reader --fullscreen
//	type: 0
//	autostart: true
//
// The object path of each application is derived from its name.
package manifest
