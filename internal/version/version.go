// Package version exposes the Baton release version, baked in from the
// VERSION file at build time.
package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var raw string

// Get returns the release version with surrounding whitespace trimmed.
func Get() string {
	return strings.TrimSpace(raw)
}
