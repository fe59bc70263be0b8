// Package protocol defines the byte-level vocabulary shared by the device and
// the companion controller.
//
// A frame is one length byte N followed by N payload bytes. A payload is a
// sequence of opcode groups, each an opcode byte followed by its arguments.
// The package provides the opcode table, the bounded response buffer, a
// payload cursor, a request builder and a response decoder.
package protocol
