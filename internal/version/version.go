// Package version holds the build version, overridden at link time via
// -ldflags "-X github.com/papertrade/virtual-trading-backend/internal/version.Version=...".
package version

// Version is the current build version.
var Version = "dev"
