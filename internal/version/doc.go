// Package version exposes build metadata of the opentimer binaries.
//
// Version, Commit and BuildTime are injected with -ldflags at build time.
// Short and Full render them for the `version` subcommand and startup logs.
package version
