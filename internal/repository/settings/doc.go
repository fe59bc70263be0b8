// Package settings persists the timer Configuration on top of a record store.
//
// Every Configuration field group maps to its own records (program type,
// alarm count and array, password, description and its length, author and
// its length, state). Writes are synchronous and per group, there is no
// transaction across groups. Records that are missing or exceed their bounds
// leave the field group at its default.
package settings
