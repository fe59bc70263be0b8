package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/oshokin/opentimer/internal/api/grpc/health"
	"github.com/oshokin/opentimer/internal/api/serial"
	"github.com/oshokin/opentimer/internal/config"
	"github.com/oshokin/opentimer/internal/domain/timer"
	"github.com/oshokin/opentimer/internal/hardware"
	"github.com/oshokin/opentimer/internal/logger"
	"github.com/oshokin/opentimer/internal/metrics"
	"github.com/oshokin/opentimer/internal/repository/settings"
	"github.com/oshokin/opentimer/internal/repository/store"
	"github.com/oshokin/opentimer/internal/service/schedule"
	"github.com/oshokin/opentimer/internal/transport"
)

// Device is the assembled appliance.
type Device struct {
	// settings is the process configuration.
	settings *config.Config
	// repository persists the timer configuration.
	repository *settings.Repository
	// cfg is the live timer configuration, owned by the control loop.
	cfg *timer.Configuration
	// clock is the real-time clock.
	clock *hardware.SoftClock
	// relay is the switched output.
	relay *hardware.Relay
	// registry holds the Prometheus metrics.
	registry *prom.Registry
	// endpoint carries the protocol byte stream.
	endpoint *transport.Endpoint
	// receiver splits the stream into frames.
	receiver *serial.Receiver
	// engine evaluates the schedule.
	engine *schedule.Engine
	// health reports the serving status.
	health *health.Server
}

// New loads the timer configuration from st, provisioning factory defaults
// when no password is stored, and wires every component.
func New(ctx context.Context, cfgFile *config.Config, st store.Store) (*Device, error) {
	repository := settings.NewRepository(st)

	cfg, err := loadConfiguration(ctx, repository)
	if err != nil {
		return nil, err
	}

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	d := &Device{
		settings:   cfgFile,
		repository: repository,
		cfg:        cfg,
		clock:      hardware.NewSoftClock(cfgFile.Temperature),
		relay:      hardware.NewRelay(cfgFile.OutputPath),
		registry:   registry,
		endpoint:   transport.NewEndpoint(),
		health:     health.NewServer(),
	}

	display := hardware.NewLogDisplay(recorder)
	dispatcher := serial.NewDispatcher(cfg, repository, d.clock, display, recorder)
	watchdog := serial.NewWatchdog(cfgFile.WatchdogTimeout)

	d.receiver = serial.NewReceiver(d.endpoint, watchdog, dispatcher, display, recorder)
	d.engine = schedule.NewEngine(cfg, d.relay, display, recorder)

	logger.InfoKV(ctx, "Configuration loaded",
		"alarms", len(cfg.Alarms),
		"armed", cfg.Armed(),
		"program_type", cfg.ProgramType,
		"description", string(cfg.Description),
		"author", string(cfg.Author))

	return d, nil
}

// Run serves the transport and runs the control loop until ctx is canceled
// or a server fails.
func (d *Device) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg   sync.WaitGroup
		errs = make(chan error, 3)
	)

	wg.Go(func() {
		if err := transport.Serve(ctx, d.settings.TransportOptions(), d.endpoint); err != nil {
			errs <- fmt.Errorf("transport: %w", err)
		}
	})

	if address := d.settings.MetricsAddress; address != "" {
		wg.Go(func() {
			if err := serveMetrics(ctx, address, metrics.HTTPHandler(d.registry)); err != nil {
				errs <- fmt.Errorf("metrics: %w", err)
			}
		})
	}

	if address := d.settings.HealthAddress; address != "" {
		wg.Go(func() {
			if err := d.health.Run(ctx, address); err != nil {
				errs <- fmt.Errorf("health: %w", err)
			}
		})
	}

	d.health.SetServing(true)

	err := d.loop(ctx, errs)

	d.health.SetServing(false)
	cancel()
	wg.Wait()

	if closeErr := d.endpoint.Close(); closeErr != nil {
		logger.DebugKV(ctx, "Failed to close transport", "error", closeErr)
	}

	return err
}

// loop is the only goroutine touching the timer configuration.
func (d *Device) loop(ctx context.Context, errs <-chan error) error {
	ticker := time.NewTicker(d.settings.TickInterval)
	defer ticker.Stop()

	d.engine.Boot(ctx, d.clock.Now())

	logger.Info(ctx, "Control loop started")

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Control loop stopped")

			return nil
		case err := <-errs:
			return err
		case <-d.endpoint.Ready():
			d.poll(ctx)
		case <-ticker.C:
			d.poll(ctx)
			d.engine.Tick(ctx, d.clock.Now())
		}
	}
}

// poll drains complete frames from the transport.
func (d *Device) poll(ctx context.Context) {
	if err := d.receiver.Poll(ctx); err != nil {
		logger.WarnKV(ctx, "Failed to answer frame", "error", err)
	}
}

// loadConfiguration provisions factory defaults when no password record exists
// and loads the stored configuration.
func loadConfiguration(ctx context.Context, repository *settings.Repository) (*timer.Configuration, error) {
	err := repository.LoadPassword(ctx, timer.NewConfiguration())

	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		logger.Warn(ctx, "No password stored, provisioning factory defaults")

		if err = repository.Provision(ctx, FactoryDefaults()); err != nil {
			return nil, fmt.Errorf("provision defaults: %w", err)
		}
	case errors.Is(err, settings.ErrInvalidRecord):
		// Load keeps the default for an invalid record and logs it.
	default:
		return nil, fmt.Errorf("probe password: %w", err)
	}

	cfg, err := repository.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	return cfg, nil
}

// FactoryDefaults returns the configuration written by a factory reset.
func FactoryDefaults() *timer.Configuration {
	cfg := timer.NewConfiguration()
	cfg.Password = timer.DefaultPasswordDigest

	return cfg
}
