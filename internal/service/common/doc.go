// Package common holds helpers shared by the device and controller services.
//
// It provides a health-check client with per-call timeouts and a helper that
// names the current system actor (username@hostname) for program authorship.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
