package settings

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/oshokin/opentimer/internal/domain/timer"
	"github.com/oshokin/opentimer/internal/logger"
	"github.com/oshokin/opentimer/internal/repository/store"
)

// Record keys, one per stored field.
const (
	KeyProgramType       = "type"
	KeyAlarmCount        = "nb"
	KeyAlarms            = "alarms"
	KeyPassword          = "passwd"
	KeyDescriptionLength = "Dlen"
	KeyDescription       = "desc"
	KeyAuthorLength      = "Alen"
	KeyAuthor            = "author"
	KeyState             = "state"

	// intRecordSize is the encoded size of integer records.
	intRecordSize = 4
)

// ErrInvalidRecord is returned when a stored record is malformed or out of bounds.
var ErrInvalidRecord = errors.New("invalid record")

// Repository reads and writes Configuration field groups.
type Repository struct {
	// store holds the records.
	store store.Store
}

// NewRepository creates a repository over the given record store.
func NewRepository(s store.Store) *Repository {
	return &Repository{
		store: s,
	}
}

// Load materializes a Configuration. Field groups whose records are missing
// or invalid keep their defaults and are reported in the log. Only backend
// failures are returned as errors.
func (r *Repository) Load(ctx context.Context) (*timer.Configuration, error) {
	cfg := timer.NewConfiguration()

	loaders := []struct {
		name string
		load func(context.Context, *timer.Configuration) error
	}{
		{"program type", r.LoadProgramType},
		{"alarms", r.LoadAlarms},
		{"description", r.LoadDescription},
		{"author", r.LoadAuthor},
		{"password", r.LoadPassword},
		{"state", r.LoadState},
	}

	for _, l := range loaders {
		err := l.load(ctx, cfg)

		switch {
		case err == nil:
		case errors.Is(err, store.ErrNotFound), errors.Is(err, ErrInvalidRecord):
			logger.WarnKV(ctx, "Stored field unavailable, using default", "field", l.name, "reason", err)
		default:
			return nil, fmt.Errorf("load %s: %w", l.name, err)
		}
	}

	return cfg, nil
}

// LoadProgramType reads the program type.
func (r *Repository) LoadProgramType(ctx context.Context, cfg *timer.Configuration) error {
	value, err := r.getInt(ctx, KeyProgramType, math.MaxUint8)
	if err != nil {
		return err
	}

	cfg.ProgramType = timer.ProgramType(value)

	return nil
}

// LoadAlarms reads the alarm count and exactly 4×count bytes of alarms.
// cfg is left untouched unless both records are valid.
func (r *Repository) LoadAlarms(ctx context.Context, cfg *timer.Configuration) error {
	count, err := r.getInt(ctx, KeyAlarmCount, timer.MaxAlarms)
	if err != nil {
		return err
	}

	data, err := r.getBytes(ctx, KeyAlarms, count*timer.AlarmEntrySize)
	if err != nil {
		return err
	}

	alarms, err := timer.DecodeAlarms(data)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", KeyAlarms, ErrInvalidRecord, err)
	}

	return cfg.SetAlarms(alarms)
}

// ReloadAlarms discards in-memory alarm changes by reading the stored list again.
func (r *Repository) ReloadAlarms(ctx context.Context, cfg *timer.Configuration) error {
	return r.LoadAlarms(ctx, cfg)
}

// LoadDescription reads the description length and bytes.
func (r *Repository) LoadDescription(ctx context.Context, cfg *timer.Configuration) error {
	value, err := r.getString(ctx, KeyDescriptionLength, KeyDescription, timer.MaxDescriptionLen)
	if err != nil {
		return err
	}

	return cfg.SetDescription(value)
}

// LoadAuthor reads the author length and bytes.
func (r *Repository) LoadAuthor(ctx context.Context, cfg *timer.Configuration) error {
	value, err := r.getString(ctx, KeyAuthorLength, KeyAuthor, timer.MaxAuthorLen)
	if err != nil {
		return err
	}

	return cfg.SetAuthor(value)
}

// LoadPassword reads the 32-byte password digest.
func (r *Repository) LoadPassword(ctx context.Context, cfg *timer.Configuration) error {
	value, err := r.getBytes(ctx, KeyPassword, timer.PasswordLen)
	if err != nil {
		return err
	}

	copy(cfg.Password[:], value)

	return nil
}

// LoadState reads the armed state.
func (r *Repository) LoadState(ctx context.Context, cfg *timer.Configuration) error {
	value, err := r.getInt(ctx, KeyState, math.MaxUint8)
	if err != nil {
		return err
	}

	cfg.State = uint8(value)

	return nil
}

// SaveProgramType persists the program type.
func (r *Repository) SaveProgramType(ctx context.Context, cfg *timer.Configuration) error {
	return r.putInt(ctx, KeyProgramType, int(cfg.ProgramType))
}

// SaveAlarms persists the alarm count followed by exactly 4×count bytes.
func (r *Repository) SaveAlarms(ctx context.Context, cfg *timer.Configuration) error {
	if err := r.putInt(ctx, KeyAlarmCount, len(cfg.Alarms)); err != nil {
		return err
	}

	return r.store.Put(ctx, KeyAlarms, timer.EncodeAlarms(cfg.Alarms))
}

// SavePassword persists the password digest.
func (r *Repository) SavePassword(ctx context.Context, cfg *timer.Configuration) error {
	return r.store.Put(ctx, KeyPassword, cfg.Password[:])
}

// SaveDescription persists the description length and bytes.
func (r *Repository) SaveDescription(ctx context.Context, cfg *timer.Configuration) error {
	return r.putString(ctx, KeyDescriptionLength, KeyDescription, cfg.Description)
}

// SaveAuthor persists the author length and bytes.
func (r *Repository) SaveAuthor(ctx context.Context, cfg *timer.Configuration) error {
	return r.putString(ctx, KeyAuthorLength, KeyAuthor, cfg.Author)
}

// SaveState persists the armed state.
func (r *Repository) SaveState(ctx context.Context, cfg *timer.Configuration) error {
	return r.putInt(ctx, KeyState, int(cfg.State))
}

// Provision writes every field group of cfg, used for factory resets.
func (r *Repository) Provision(ctx context.Context, cfg *timer.Configuration) error {
	savers := []func(context.Context, *timer.Configuration) error{
		r.SaveProgramType,
		r.SaveAlarms,
		r.SaveDescription,
		r.SaveAuthor,
		r.SavePassword,
		r.SaveState,
	}

	for _, save := range savers {
		if err := save(ctx, cfg); err != nil {
			return err
		}
	}

	return nil
}

// getInt reads an integer record and checks it lies in [0, maxValue].
func (r *Repository) getInt(ctx context.Context, key string, maxValue int) (int, error) {
	data, err := r.store.Get(ctx, key)
	if err != nil {
		return 0, err
	}

	if len(data) != intRecordSize {
		return 0, fmt.Errorf("%s: %d bytes: %w", key, len(data), ErrInvalidRecord)
	}

	value := int(int32(binary.LittleEndian.Uint32(data))) //nolint:gosec // Stored as int32.
	if value < 0 || value > maxValue {
		return 0, fmt.Errorf("%s: value %d: %w", key, value, ErrInvalidRecord)
	}

	return value, nil
}

// getBytes reads a byte record whose length must be exactly size.
func (r *Repository) getBytes(ctx context.Context, key string, size int) ([]byte, error) {
	data, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if len(data) != size {
		return nil, fmt.Errorf("%s: %d bytes, want %d: %w", key, len(data), size, ErrInvalidRecord)
	}

	return data, nil
}

// getString reads a length record and the string record it describes.
func (r *Repository) getString(ctx context.Context, lengthKey, key string, maxLen int) ([]byte, error) {
	length, err := r.getInt(ctx, lengthKey, maxLen)
	if err != nil {
		return nil, err
	}

	return r.getBytes(ctx, key, length)
}

// putInt writes an integer record.
func (r *Repository) putInt(ctx context.Context, key string, value int) error {
	data := binary.LittleEndian.AppendUint32(make([]byte, 0, intRecordSize), uint32(value)) //nolint:gosec // Bounded by callers.

	return r.store.Put(ctx, key, data)
}

// putString writes a length record followed by the string record.
func (r *Repository) putString(ctx context.Context, lengthKey, key string, value []byte) error {
	if err := r.putInt(ctx, lengthKey, len(value)); err != nil {
		return err
	}

	return r.store.Put(ctx, key, value)
}
