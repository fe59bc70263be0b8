// Package device runs the appliance: it loads the stored configuration, attaches
// the transport and drives the receiver and the schedule engine from a single
// control loop.
package device
