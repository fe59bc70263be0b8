// Package transport carries the protocol byte stream over a serial device or TCP.
//
// A Link pumps bytes from a blocking connection into a buffer that can be
// polled without blocking. An Endpoint holds the current link and lets a new
// connection replace it, which is how a single-client appliance behaves.
package transport
