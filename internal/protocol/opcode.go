package protocol

import "fmt"

// Opcode selects a command or notification inside a frame.
// Values are positional and must not be reordered.
type Opcode uint8

// Opcodes in wire order.
const (
	Connected Opcode = iota
	GetAlarms
	GetDescription
	GetAuthor
	GetHour
	GetMinute
	GetSecond
	GetDayOfWeek
	GetDay
	GetMonth
	GetYear
	GetTemperature
	GetState
	SetPassword
	SetAlarms
	SetDescription
	SetAuthor
	SetHour
	SetMinute
	SetSecond
	SetDayOfWeek
	SetDay
	SetMonth
	SetYear
	SetTemperature
	SetState
	PostPassword
	PostPasswordChange
	PostPasswordUpload
	PostPasswordResponse
	BufferOverflow
	BadRequest
	Timeout
	SetProgramType
	GetProgramType
	Disconnected
	Error
)

//nolint:gochecknoglobals // Read-only lookup table.
var opcodeNames = [...]string{
	Connected:            "CONNECTED",
	GetAlarms:            "GET_ALARMS",
	GetDescription:       "GET_DESCRIPTION",
	GetAuthor:            "GET_AUTHOR",
	GetHour:              "GET_HOUR",
	GetMinute:            "GET_MINUTE",
	GetSecond:            "GET_SECOND",
	GetDayOfWeek:         "GET_DAY_OF_WEEK",
	GetDay:               "GET_DAY",
	GetMonth:             "GET_MONTH",
	GetYear:              "GET_YEAR",
	GetTemperature:       "GET_TEMPERATURE",
	GetState:             "GET_STATE",
	SetPassword:          "SET_PASSWORD",
	SetAlarms:            "SET_ALARMS",
	SetDescription:       "SET_DESCRIPTION",
	SetAuthor:            "SET_AUTHOR",
	SetHour:              "SET_HOUR",
	SetMinute:            "SET_MINUTE",
	SetSecond:            "SET_SECOND",
	SetDayOfWeek:         "SET_DAY_OF_WEEK",
	SetDay:               "SET_DAY",
	SetMonth:             "SET_MONTH",
	SetYear:              "SET_YEAR",
	SetTemperature:       "SET_TEMPERATURE",
	SetState:             "SET_STATE",
	PostPassword:         "POST_PASSWORD",
	PostPasswordChange:   "POST_PASSWORD_CHANGE",
	PostPasswordUpload:   "POST_PASSWORD_UPLOAD",
	PostPasswordResponse: "POST_PASSWORD_RESPONSE",
	BufferOverflow:       "BUFFER_OVERFLOW",
	BadRequest:           "BAD_REQUEST",
	Timeout:              "TIMEOUT",
	SetProgramType:       "SET_PROGRAM_TYPE",
	GetProgramType:       "GET_PROGRAM_TYPE",
	Disconnected:         "DISCONNECTED",
	Error:                "ERROR",
}

// String returns the opcode name.
func (o Opcode) String() string {
	if int(o) < len(opcodeNames) {
		return opcodeNames[o]
	}

	return fmt.Sprintf("OPCODE_%d", uint8(o))
}

// IsNotification reports whether o is one of the four error notifications.
func (o Opcode) IsNotification() bool {
	switch o {
	case BufferOverflow, BadRequest, Timeout, Error:
		return true
	default:
		return false
	}
}

// PasswordResponse is the argument of PostPasswordResponse.
type PasswordResponse uint8

// Password check outcomes.
const (
	PasswordIncorrect PasswordResponse = iota
	PasswordCorrect
	PasswordCorrectForChange
	PasswordCorrectForUpload
)

// String returns the outcome name.
func (p PasswordResponse) String() string {
	switch p {
	case PasswordIncorrect:
		return "incorrect"
	case PasswordCorrect:
		return "correct"
	case PasswordCorrectForChange:
		return "correct-for-change"
	case PasswordCorrectForUpload:
		return "correct-for-upload"
	default:
		return fmt.Sprintf("password-response-%d", uint8(p))
	}
}

// PasswordResponseFor returns the outcome reported for a presentation opcode.
func PasswordResponseFor(op Opcode, correct bool) PasswordResponse {
	if !correct {
		return PasswordIncorrect
	}

	switch op {
	case PostPasswordChange:
		return PasswordCorrectForChange
	case PostPasswordUpload:
		return PasswordCorrectForUpload
	default:
		return PasswordCorrect
	}
}
