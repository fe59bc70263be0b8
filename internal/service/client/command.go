package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/oshokin/opentimer/internal/config"
	"github.com/oshokin/opentimer/internal/domain/timer"
	"github.com/oshokin/opentimer/internal/logger"
	"github.com/oshokin/opentimer/internal/service/common"
	"github.com/oshokin/opentimer/internal/transport"
)

// Options configures controller commands.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// Device overrides the serial device from the settings file.
	Device string
	// Address connects over TCP instead of the configured transport.
	Address string
	// HealthAddress overrides the health endpoint from the settings file.
	HealthAddress string
	// Password presented to the device, the factory password when empty.
	Password string
	// Output receives rendered results, os.Stdout when nil.
	Output io.Writer
}

// ShowStatus prints the device status.
func ShowStatus(ctx context.Context, opts *Options) error {
	return withSession(ctx, "status", opts, func(ctx context.Context, s *Session) error {
		status, err := s.Status(ctx)
		if err != nil {
			return err
		}

		return render(opts, func() (string, error) { return RenderStatus(status) })
	})
}

// ShowAlarms prints the stored alarms.
func ShowAlarms(ctx context.Context, opts *Options) error {
	return withSession(ctx, "alarms", opts, func(ctx context.Context, s *Session) error {
		alarms, err := s.Alarms(ctx)
		if err != nil {
			return err
		}

		return render(opts, func() (string, error) { return RenderAlarms(alarms) })
	})
}

// SetArmed arms or disarms the device.
func SetArmed(ctx context.Context, opts *Options, armed bool) error {
	return withSession(ctx, "set-state", opts, func(ctx context.Context, s *Session) error {
		confirmed, err := s.SetArmed(ctx, armed)
		if err != nil {
			return err
		}

		logger.InfoKV(ctx, "Device state updated", "armed", confirmed)

		return nil
	})
}

// SyncTime sets the device clock to the local time.
func SyncTime(ctx context.Context, opts *Options) error {
	return withSession(ctx, "sync-time", opts, func(ctx context.Context, s *Session) error {
		now := time.Now()

		if err := s.SyncTime(ctx, now); err != nil {
			return err
		}

		logger.InfoKV(ctx, "Device clock set", "time", now.Format(time.DateTime))

		return nil
	})
}

// ChangePassword replaces the device password.
func ChangePassword(ctx context.Context, opts *Options, newPassword string) error {
	return withSession(ctx, "change-password", opts, func(ctx context.Context, s *Session) error {
		if err := s.ChangePassword(ctx, newPassword); err != nil {
			return err
		}

		logger.Info(ctx, "Password changed")

		return nil
	})
}

// Upload sends the program file at path, naming the current user as author
// when the file has none.
func Upload(ctx context.Context, opts *Options, path string) error {
	program, err := LoadProgram(path)
	if err != nil {
		return err
	}

	if program.Author == "" {
		actor, err := common.DetectActor()
		if err != nil {
			return err
		}

		program.Author = actor.String()
		if len(program.Author) > timer.MaxAuthorLen {
			program.Author = program.Author[:timer.MaxAuthorLen]
		}
	}

	return withSession(ctx, "upload", opts, func(ctx context.Context, s *Session) error {
		if err := s.Upload(ctx, program); err != nil {
			return err
		}

		logger.InfoKV(ctx, "Program uploaded",
			"alarms", len(program.Alarms),
			"program_type", program.Type,
			"author", program.Author,
		)

		return nil
	})
}

// CheckHealth prints the status reported by the device health endpoint.
func CheckHealth(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "health")

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return err
	}

	address := cfg.HealthAddress
	if opts.HealthAddress != "" {
		address = opts.HealthAddress
	}

	client, err := common.Dial(ctx, address, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	status, err := client.Check(ctx)
	if err != nil {
		return err
	}

	return render(opts, func() (string, error) { return status.String() + "\n", nil })
}

// withSession loads settings, opens a session and runs fn with it.
func withSession(
	ctx context.Context,
	name string,
	opts *Options,
	fn func(ctx context.Context, s *Session) error,
) error {
	ctx = logger.WithName(ctx, name)

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return err
	}

	transportOpts := cfg.TransportOptions()

	switch {
	case opts.Address != "":
		transportOpts = transport.Options{Kind: transport.KindTCP, Address: opts.Address}
	case opts.Device != "":
		transportOpts.Kind = transport.KindSerial
		transportOpts.Device = opts.Device
	}

	logger.DebugKV(ctx, "Connecting", "kind", transportOpts.Kind,
		"device", transportOpts.Device, "address", transportOpts.Address)

	sessionOpts := []Option{WithTimeout(cfg.Timeout)}
	if opts.Password != "" {
		sessionOpts = append(sessionOpts, WithPassword(opts.Password))
	}

	session, err := Open(ctx, transportOpts, sessionOpts...)
	if err != nil {
		return err
	}

	defer func() {
		if err := session.Close(); err != nil {
			logger.DebugKV(ctx, "Session closed with error", "error", err)
		}
	}()

	return fn(ctx, session)
}

// render writes the output of fn to the configured writer.
func render(opts *Options, fn func() (string, error)) error {
	out, err := fn()
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	w := opts.Output
	if w == nil {
		w = os.Stdout
	}

	_, err = io.WriteString(w, out)

	return err
}
