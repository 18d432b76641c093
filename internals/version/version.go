// Package version derives the build version the daemon reports and the CLI
// compares for drift detection.
package version

import "strings"

// SemVer is set at build time for releases:
//
//	-ldflags "-X github.com/cogniolab/hybrid/internals/version.SemVer=1.2.3"
var SemVer = "0.0.0-dev"

// BuiltAt is set at build time for releases, RFC 3339.
var BuiltAt = ""

// Version is the SemVer string plus best-effort build metadata. Dev builds
// from the same commit still differ because the metadata includes a digest of
// the executable.
//
// Examples:
//   - 1.2.3+a1b2c3d4e5f6.9f2c1a0b77de
//   - 0.0.0-dev+a1b2c3d4e5f6-dirty.1e4b9caa2210
func Version() string {
	v := strings.TrimSpace(SemVer)
	if v == "" {
		v = "0.0.0-dev"
	}
	meta := strings.TrimSpace(IdentityMetadata())
	if meta == "" {
		return v
	}
	if strings.Contains(v, "+") {
		return v + "." + meta
	}
	return v + "+" + meta
}

// IdentityMetadata renders Identity in SemVer build-metadata form
// (dot-separated, no "+").
func IdentityMetadata() string {
	id := Identity()
	if id == "" || id == "unknown" {
		return ""
	}
	return strings.ReplaceAll(id, "+", ".")
}
