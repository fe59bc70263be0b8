// Package metrics provides observability hooks for the appliance.
//
// A Recorder is injected into the serial front end, the schedule engine and
// the display; NoopRecorder is the default when no metrics address is configured.
package metrics
