// Package client implements the controller side of the OpenTimer protocol.
//
// A Session sends one request frame at a time over a serial or TCP transport
// and waits for the matching response frame. The package builds on it to read
// the device status and alarms, arm and disarm the device, set its clock,
// change the password and upload programs described in YAML files.
package client
