// Package version exposes the version identifier reported by the harha
// CLI and, in the future, any wire-facing component that needs to tag
// itself.
package version

// Semantic version components, set at release time.
const (
	Major = 0
	Minor = 1
	Patch = 0
)

// Tag is the human-readable version string.
const Tag = "0.1.0"
