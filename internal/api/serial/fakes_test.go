package serial

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/opentimer/internal/domain/timer"
	"github.com/oshokin/opentimer/internal/repository/settings"
	"github.com/oshokin/opentimer/internal/repository/store"
)

var errTestWrite = errors.New("test write failure")

// fakePort is an in-memory Port.
type fakePort struct {
	mu      sync.Mutex
	input   []byte
	written [][]byte
}

// feed appends bytes as if they arrived from the peer.
func (p *fakePort) feed(data ...byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.input = append(p.input, data...)
}

// frames returns every frame written so far.
func (p *fakePort) frames() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([][]byte(nil), p.written...)
}

func (p *fakePort) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.input)
}

func (p *fakePort) ReadByte() (byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.input) == 0 {
		return 0, errors.New("empty")
	}

	b := p.input[0]
	p.input = p.input[1:]

	return b, nil
}

func (p *fakePort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := copy(buf, p.input)
	p.input = p.input[n:]

	return n, nil
}

func (p *fakePort) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.input = nil
}

func (p *fakePort) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.written = append(p.written, append([]byte(nil), data...))

	return len(data), nil
}

// fakeClock is a settable Clock.
type fakeClock struct {
	now         timer.DateTime
	temperature float64
	err         error
}

func (c *fakeClock) Now() timer.DateTime  { return c.now }
func (c *fakeClock) Temperature() float64 { return c.temperature }

func (c *fakeClock) SetHour(v uint8) error      { return c.set(&c.now.Hour, v) }
func (c *fakeClock) SetMinute(v uint8) error    { return c.set(&c.now.Minute, v) }
func (c *fakeClock) SetSecond(v uint8) error    { return c.set(&c.now.Second, v) }
func (c *fakeClock) SetDayOfWeek(v uint8) error { return c.set(&c.now.Weekday, v) }
func (c *fakeClock) SetDay(v uint8) error       { return c.set(&c.now.Day, v) }
func (c *fakeClock) SetMonth(v uint8) error     { return c.set(&c.now.Month, v) }

func (c *fakeClock) SetYear(v uint8) error {
	if c.err != nil {
		return c.err
	}

	c.now.Year = 2000 + uint16(v)

	return nil
}

func (c *fakeClock) set(field *uint8, v uint8) error {
	if c.err != nil {
		return c.err
	}

	*field = v

	return nil
}

// recordingDisplay remembers every event.
type recordingDisplay struct {
	mu     sync.Mutex
	events []timer.Event
}

func (d *recordingDisplay) Notify(_ context.Context, event timer.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.events = append(d.events, event)
}

// kinds returns the kinds of the recorded events.
func (d *recordingDisplay) kinds() []timer.EventKind {
	d.mu.Lock()
	defer d.mu.Unlock()

	kinds := make([]timer.EventKind, 0, len(d.events))
	for _, e := range d.events {
		kinds = append(kinds, e.Kind)
	}

	return kinds
}

// flakyStore is a memory store whose writes can be switched off.
type flakyStore struct {
	*store.MemoryStore

	failPut bool
}

func (s *flakyStore) Put(ctx context.Context, key string, value []byte) error {
	if s.failPut {
		return errTestWrite
	}

	return s.MemoryStore.Put(ctx, key, value)
}

// fixture bundles a dispatcher with its collaborators.
type fixture struct {
	cfg        *timer.Configuration
	backend    *flakyStore
	repository *settings.Repository
	clock      *fakeClock
	display    *recordingDisplay
	dispatcher *Dispatcher
}

// newFixture provisions a configuration with the default password and two alarms.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()

	backend := &flakyStore{MemoryStore: store.NewMemoryStore()}
	repository := settings.NewRepository(backend)

	cfg := timer.NewConfiguration()
	cfg.Password = timer.DefaultPasswordDigest
	cfg.State = 1
	require.NoError(t, cfg.SetAlarms([]timer.AlarmEntry{
		{Hour: 7, Minute: 0, Duration: 10, Flags: timer.NewFlags(true, time.Monday)},
		{Hour: 19, Minute: 45, Duration: 0, Flags: timer.NewFlags(false)},
	}))
	require.NoError(t, cfg.SetDescription([]byte("garden")))
	require.NoError(t, repository.Provision(ctx, cfg))

	clock := &fakeClock{
		now: timer.DateTime{
			Hour: 13, Minute: 37, Second: 5, Day: 15, Month: 10, Year: 2026, Weekday: 5,
		},
		temperature: 21.6,
	}
	display := new(recordingDisplay)

	return &fixture{
		cfg:        cfg,
		backend:    backend,
		repository: repository,
		clock:      clock,
		display:    display,
		dispatcher: NewDispatcher(cfg, repository, clock, display, nil),
	}
}

// login returns a payload prefix presenting the password with variant.
func login(variant byte, digest timer.Digest) []byte {
	return append([]byte{variant}, digest[:]...)
}
