// Package store implements the non-volatile record storage of the appliance.
//
// A Store keeps named byte records. Backends are selected by driver name:
// memory (volatile), file (a YAML document), badger (a Badger key-value
// directory) and sqlite (a single-table SQLite database). Reads and writes are
// synchronous and always cover a whole record.
package store
