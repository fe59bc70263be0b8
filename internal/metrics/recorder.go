package metrics

import "time"

// FrameOutcome labels the result of one received frame.
type FrameOutcome string

const (
	// FrameApplied is a frame decoded to the end.
	FrameApplied FrameOutcome = "applied"
	// FrameBadRequest is a frame aborted as malformed.
	FrameBadRequest FrameOutcome = "bad_request"
	// FrameOverflow is a frame whose response did not fit.
	FrameOverflow FrameOutcome = "buffer_overflow"
	// FramePersistenceError is a frame aborted by a failed write.
	FramePersistenceError FrameOutcome = "persistence_error"
	// FrameTimeout is a frame that never completed.
	FrameTimeout FrameOutcome = "timeout"
)

// Recorder defines observability hooks for the appliance.
// Implementations must be safe for concurrent use.
type Recorder interface {
	IncFrame(outcome FrameOutcome)
	ObserveDispatchDuration(d time.Duration)
	IncPasswordCheck(correct bool)
	IncDisplayEvent(kind string)
	IncAlarmTriggered()
	SetOutput(on bool)
	SetCountdown(n int)
	SetArmed(armed bool)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncFrame(FrameOutcome)                 {}
func (NoopRecorder) ObserveDispatchDuration(time.Duration) {}
func (NoopRecorder) IncPasswordCheck(bool)                 {}
func (NoopRecorder) IncDisplayEvent(string)                {}
func (NoopRecorder) IncAlarmTriggered()                    {}
func (NoopRecorder) SetOutput(bool)                        {}
func (NoopRecorder) SetCountdown(int)                      {}
func (NoopRecorder) SetArmed(bool)                         {}

// OrNoop returns r, or NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder { //nolint:ireturn // Optional dependency.
	if r == nil {
		return NoopRecorder{}
	}

	return r
}
