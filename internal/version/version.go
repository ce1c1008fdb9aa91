// Package version carries the build version, overridden at link time with
// -ldflags "-X github.com/bnema/familiar-bridge/internal/version.Version=...".
package version

var Version = "dev"
