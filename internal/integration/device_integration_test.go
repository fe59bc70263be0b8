package integration

import (
	"context"
	"io"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oshokin/opentimer/internal/config"
	"github.com/oshokin/opentimer/internal/domain/timer"
	"github.com/oshokin/opentimer/internal/protocol"
	"github.com/oshokin/opentimer/internal/repository/store"
	"github.com/oshokin/opentimer/internal/service/client"
	"github.com/oshokin/opentimer/internal/service/common"
	"github.com/oshokin/opentimer/internal/service/device"
	"github.com/oshokin/opentimer/internal/transport"
)

// reserveAddress returns a loopback address that was free a moment ago.
func reserveAddress(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// startDevice runs the device daemon with cfg and waits until it accepts connections.
// Returns a stop function that cancels the daemon and waits for it to exit.
func startDevice(t *testing.T, cfg *config.Config) (stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	cfgPath := filepath.Join(t.TempDir(), "settings.yaml")

	require.NoError(t, config.Save(cfgPath, cfg))

	done := make(chan error, 1)

	go func() {
		done <- device.Run(ctx, &device.Options{ConfigPath: cfgPath})
	}()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", cfg.Transport.Address)
		if err != nil {
			return false
		}

		_ = conn.Close()

		return true
	}, 3*time.Second, 20*time.Millisecond)

	return func() {
		cancel()
		require.NoError(t, <-done)
	}
}

// deviceConfig returns settings for a TCP device with the given store.
func deviceConfig(t *testing.T, driver, path string) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Transport = config.Transport{Type: transport.KindTCP, Address: reserveAddress(t)}
	cfg.Store = config.Store{Driver: driver, Path: path}
	cfg.WatchdogTimeout = 200 * time.Millisecond
	cfg.TickInterval = 50 * time.Millisecond
	cfg.LogLevel = "error"

	return cfg
}

// openSession connects a controller session to the device.
func openSession(t *testing.T, address string, opts ...client.Option) *client.Session {
	t.Helper()

	opts = append([]client.Option{client.WithTimeout(3 * time.Second)}, opts...)

	s, err := client.Open(context.Background(), transport.Options{Kind: transport.KindTCP, Address: address}, opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// TestDevice_ControllerRoundtrip uploads a program, arms the device, and checks
// that everything survives a restart of the daemon.
func TestDevice_ControllerRoundtrip(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{store.DriverFile, store.DriverSQLite, store.DriverBadger} {
		t.Run(driver, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()

			path := filepath.Join(t.TempDir(), "store")
			if driver == store.DriverFile {
				path += ".yaml"
			}

			cfg := deviceConfig(t, driver, path)
			cfg.HealthAddress = reserveAddress(t)

			stop := startDevice(t, cfg)

			s := openSession(t, cfg.Transport.Address)

			status, err := s.Status(ctx)
			require.NoError(t, err)
			require.False(t, status.Armed())
			require.Empty(t, status.Description)

			program := &client.Program{
				Description: "garden watering",
				Author:      "alice@greenhouse",
				Type:        timer.ProgramToggle,
				Alarms: []timer.AlarmEntry{
					{Hour: 6, Minute: 30, Duration: 0, Flags: timer.NewFlags(true, time.Monday, time.Thursday)},
					{Hour: 7, Minute: 0, Duration: 1, Flags: timer.NewFlags(true, time.Monday, time.Thursday)},
				},
			}
			require.NoError(t, s.Upload(ctx, program))

			armed, err := s.SetArmed(ctx, true)
			require.NoError(t, err)
			require.True(t, armed)

			alarms, err := s.Alarms(ctx)
			require.NoError(t, err)
			require.Equal(t, program.Alarms, alarms)

			healthClient, err := common.Dial(ctx, cfg.HealthAddress, common.WithCallTimeout(3*time.Second))
			require.NoError(t, err)

			serving, err := healthClient.Check(ctx)
			require.NoError(t, err)
			require.Equal(t, healthpb.HealthCheckResponse_SERVING, serving)
			require.NoError(t, healthClient.Close())

			require.NoError(t, s.Close())
			stop()

			stop = startDevice(t, cfg)
			defer stop()

			s = openSession(t, cfg.Transport.Address)

			status, err = s.Status(ctx)
			require.NoError(t, err)
			require.True(t, status.Armed())
			require.Equal(t, timer.ProgramToggle, status.ProgramType)
			require.Equal(t, program.Description, status.Description)
			require.Equal(t, program.Author, status.Author)

			alarms, err = s.Alarms(ctx)
			require.NoError(t, err)
			require.Equal(t, program.Alarms, alarms)
		})
	}
}

// TestDevice_PasswordChange checks that only the new password is accepted afterwards.
func TestDevice_PasswordChange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := deviceConfig(t, store.DriverMemory, "")

	stop := startDevice(t, cfg)
	defer stop()

	s := openSession(t, cfg.Transport.Address)
	require.NoError(t, s.ChangePassword(ctx, "4321"))

	_, err := s.SetArmed(ctx, true)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	stale := openSession(t, cfg.Transport.Address)

	_, err = stale.SetArmed(ctx, false)
	require.ErrorIs(t, err, client.ErrWrongPassword)

	status, err := stale.Status(ctx)
	require.NoError(t, err)
	require.True(t, status.Armed())
}

// TestDevice_IncompleteFrameTimesOut sends a truncated frame over a raw connection
// and checks that the device answers TIMEOUT and then parses a fresh frame.
func TestDevice_IncompleteFrameTimesOut(t *testing.T) {
	t.Parallel()

	cfg := deviceConfig(t, store.DriverMemory, "")

	stop := startDevice(t, cfg)
	defer stop()

	conn, err := net.Dial("tcp", cfg.Transport.Address)
	require.NoError(t, err)

	defer conn.Close()

	require.NoError(t, conn.SetDeadline(time.Now().Add(3*time.Second)))

	// Five bytes declared, one sent.
	_, err = conn.Write([]byte{5, byte(protocol.GetState)})
	require.NoError(t, err)

	reply := make([]byte, 2)
	_, err = io.ReadFull(conn, reply)
	require.NoError(t, err)
	require.Equal(t, protocol.Notification(protocol.Timeout), reply)

	_, err = conn.Write([]byte{1, byte(protocol.GetState)})
	require.NoError(t, err)

	reply = make([]byte, 3)
	_, err = io.ReadFull(conn, reply)
	require.NoError(t, err)
	require.Equal(t, []byte{2, byte(protocol.SetState), 0}, reply)
}
