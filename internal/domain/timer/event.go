package timer

import "fmt"

// EventKind enumerates user-facing notifications.
type EventKind uint8

const (
	// EventConnected is shown when the companion announces a connection.
	EventConnected EventKind = iota
	// EventDisconnected is shown when the companion announces a disconnection.
	EventDisconnected
	// EventUnknownOpcode is shown for an opcode the device does not handle.
	EventUnknownOpcode
	// EventPasswordAccepted is shown after a plain password check succeeded.
	EventPasswordAccepted
	// EventWrongPassword is shown when a presented password did not match.
	EventWrongPassword
	// EventBadRequest is shown when a frame was rejected as malformed.
	EventBadRequest
	// EventBufferOverflow is shown when a response did not fit the output buffer.
	EventBufferOverflow
	// EventError is shown when persisting a change failed.
	EventError
	// EventTimeout is shown when a frame did not complete in time.
	EventTimeout
	// EventAlarmTriggered is shown when an alarm matched.
	EventAlarmTriggered
)

// String returns a short name for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventUnknownOpcode:
		return "unknown_opcode"
	case EventPasswordAccepted:
		return "password_accepted"
	case EventWrongPassword:
		return "wrong_password"
	case EventBadRequest:
		return "bad_request"
	case EventBufferOverflow:
		return "buffer_overflow"
	case EventError:
		return "error"
	case EventTimeout:
		return "timeout"
	case EventAlarmTriggered:
		return "alarm_triggered"
	default:
		return fmt.Sprintf("event-%d", uint8(k))
	}
}

// Event is a fire-and-forget display notification.
type Event struct {
	// Kind of the notification.
	Kind EventKind
	// Code carries the opcode for EventUnknownOpcode and the alarm index for EventAlarmTriggered.
	Code int
}
