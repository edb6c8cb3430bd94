// Package paths builds bus object paths for applications.
//
// Object paths must consist of "/"-separated elements made of [A-Za-z0-9_].
// Application names come from manifests and can contain anything, so they are
// folded into a valid element before being appended to the configured prefix.
package paths

import (
	"path"
	"strings"
)

// DefaultPrefix is the object path under which applications are published
const DefaultPrefix = "/org/appswitch/apps"

// ObjectPath returns the object path for an application name under prefix.
func ObjectPath(prefix, name string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	prefix = "/" + strings.Trim(prefix, "/")
	return path.Join(prefix, Element(name))
}

// Element folds name into a single valid object path element.
// Letters are lowercased, every other byte outside [a-z0-9] becomes "_".
func Element(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "_"
	}
	return sb.String()
}

// IsValid reports whether p is a syntactically valid object path.
func IsValid(p string) bool {
	if p == "/" {
		return true
	}
	if !strings.HasPrefix(p, "/") || strings.HasSuffix(p, "/") {
		return false
	}
	for _, elem := range strings.Split(p[1:], "/") {
		if elem == "" {
			return false
		}
		for _, r := range elem {
			valid := r == '_' ||
				(r >= 'a' && r <= 'z') ||
				(r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9')
			if !valid {
				return false
			}
		}
	}
	return true
}
