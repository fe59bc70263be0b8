// Package config defines the settings shared by the device daemon and the
// controller, and provides helpers to load, validate and save them in YAML format.
//
// Validate fills in defaults, so a partially written file is enough.
package config
