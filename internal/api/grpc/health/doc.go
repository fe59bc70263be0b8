// Package health exposes the device status over the standard gRPC health protocol.
//
// The device reports SERVING once its configuration is loaded and the main loop
// runs, and NOT_SERVING while it shuts down.
package health
