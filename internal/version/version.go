// Package version carries the build version, set at link time.
package version

var Version = "dev"
