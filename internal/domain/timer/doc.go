// Package timer contains the core domain types of the appliance.
//
// It defines AlarmEntry (one scheduled actuation, 4 bytes on the wire and in
// storage), Configuration (the single owned aggregate of alarms, credentials
// and metadata), DateTime (a wall-clock reading) and the display Event values
// emitted by the protocol and the scheduler.
package timer
