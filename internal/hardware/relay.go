package hardware

import (
	"context"
	"os"
	"sync"

	"github.com/oshokin/opentimer/internal/logger"
)

// DefaultOutputPermissions is used when the output value file has to be created.
const DefaultOutputPermissions = 0o644

// Relay is the switched output.
//
// With a path it writes "1" or "0" to that file on every transition, which is
// how a sysfs GPIO value file is driven; without one it only logs.
type Relay struct {
	// path is the optional value file.
	path string
	// mu protects the fields below.
	mu sync.Mutex
	// on is the current level.
	on bool
	// known is false until the first SetOutput.
	known bool
}

// NewRelay creates a relay driving the value file at path, if any.
func NewRelay(path string) *Relay {
	return &Relay{
		path: path,
	}
}

// SetOutput drives the output, ignoring calls that do not change the level.
func (r *Relay) SetOutput(ctx context.Context, on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.known && r.on == on {
		return
	}

	r.on = on
	r.known = true

	logger.InfoKV(ctx, "Output switched", "on", on)

	if r.path == "" {
		return
	}

	value := []byte("0\n")
	if on {
		value = []byte("1\n")
	}

	if err := os.WriteFile(r.path, value, DefaultOutputPermissions); err != nil {
		logger.ErrorKV(ctx, "Failed to write output value", "path", r.path, "error", err)
	}
}

// On reports the current level.
func (r *Relay) On() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.on
}
