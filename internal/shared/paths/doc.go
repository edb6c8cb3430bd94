// Package paths provides object path construction and validation for the
// application bus surface.
package paths
