package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// floorCore drops entries below a fixed level on top of the wrapped core's own filter.
type floorCore struct {
	zapcore.Core

	// floor is the lowest level passed to the wrapped core.
	floor zapcore.Level
}

// Enabled reports whether l passes both the floor and the wrapped core.
func (c *floorCore) Enabled(l zapcore.Level) bool {
	return l >= c.floor && c.Core.Enabled(l)
}

// Check adds the core to ce when the entry is enabled.
//
//nolint:gocritic // AddCore requires ent to be passed by value.
func (c *floorCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}

	return ce
}

// With keeps the floor on derived cores.
//
//nolint:ireturn,nolintlint // Returning zapcore.Core is intended for zap integration.
func (c *floorCore) With(fields []zapcore.Field) zapcore.Core {
	return &floorCore{
		Core:  c.Core.With(fields),
		floor: c.floor,
	}
}

// AtLeast returns an option that silences entries below level, whatever the
// global level is. Chatty third-party loggers such as the Badger store use it.
//
//nolint:ireturn,nolintlint // Returning zap.Option is intended for zap integration.
func AtLeast(level zapcore.Level) zap.Option {
	return zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &floorCore{Core: core, floor: level}
	})
}
