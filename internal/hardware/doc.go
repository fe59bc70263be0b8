// Package hardware provides software stand-ins for the appliance peripherals:
// a real-time clock, the switched output and the user display.
package hardware
