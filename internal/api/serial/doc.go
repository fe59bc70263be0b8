// Package serial implements the device side of the framed byte protocol.
//
// A Receiver polls a Port, splits the stream into length-prefixed frames and
// hands each payload to a Dispatcher, which decodes the opcode groups against
// the in-memory configuration and builds the response frame. A Watchdog resets
// the receiver when a declared frame never completes.
package serial
