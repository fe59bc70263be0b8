package timer

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"slices"
)

const (
	// PasswordLen is the size of the stored password digest (SHA-256).
	PasswordLen = sha256.Size
	// MaxDescriptionLen is the maximum description length in bytes.
	MaxDescriptionLen = 100
	// MaxAuthorLen is the maximum author length in bytes.
	MaxAuthorLen = 45

	// DefaultPassword is the factory password, its digest is DefaultPasswordDigest.
	DefaultPassword = "0000"
)

// ProgramType selects how alarms drive the output.
type ProgramType uint8

const (
	// ProgramCountdown loads a countdown from the alarm duration.
	ProgramCountdown ProgramType = 0
	// ProgramToggle switches the output on (duration 0) or off (any other value).
	ProgramToggle ProgramType = 1
)

// String returns the program type name.
func (p ProgramType) String() string {
	switch p {
	case ProgramCountdown:
		return "countdown"
	case ProgramToggle:
		return "toggle"
	default:
		return fmt.Sprintf("mode-%d", uint8(p))
	}
}

var (
	// ErrDescriptionTooLong is returned for descriptions over MaxDescriptionLen bytes.
	ErrDescriptionTooLong = errors.New("description too long")
	// ErrAuthorTooLong is returned for authors over MaxAuthorLen bytes.
	ErrAuthorTooLong = errors.New("author too long")
)

// Digest is a SHA-256 password digest.
type Digest [PasswordLen]byte

// HashPassword returns the digest stored and presented for a clear-text password.
func HashPassword(password string) Digest {
	return sha256.Sum256([]byte(password))
}

// DefaultPasswordDigest is the digest of DefaultPassword.
//
//nolint:gochecknoglobals // Constant-like value computed once.
var DefaultPasswordDigest = HashPassword(DefaultPassword)

// Configuration is the persisted and served aggregate.
//
// It is loaded once at startup and afterwards lives in memory; every accepted
// mutation is written through to storage per field group.
type Configuration struct {
	// Alarms in insertion order, which is also the matching priority.
	Alarms []AlarmEntry
	// Password is the stored password digest.
	Password Digest
	// Description of the program.
	Description []byte
	// Author of the program.
	Author []byte
	// ProgramType selects countdown or toggle actuation.
	ProgramType ProgramType
	// State is non-zero when the system is armed.
	State uint8
}

// NewConfiguration returns an empty, disarmed configuration.
func NewConfiguration() *Configuration {
	return &Configuration{
		Alarms:      make([]AlarmEntry, 0, MaxAlarms),
		Description: make([]byte, 0, MaxDescriptionLen),
		Author:      make([]byte, 0, MaxAuthorLen),
	}
}

// Armed reports whether alarms are evaluated.
func (c *Configuration) Armed() bool {
	return c.State != 0
}

// SetAlarms validates and replaces the alarm list.
func (c *Configuration) SetAlarms(alarms []AlarmEntry) error {
	if len(alarms) > MaxAlarms {
		return fmt.Errorf("%d entries: %w", len(alarms), ErrTooManyAlarms)
	}

	for i, a := range alarms {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}

	c.Alarms = append(c.Alarms[:0], alarms...)

	return nil
}

// SetDescription replaces the description.
func (c *Configuration) SetDescription(description []byte) error {
	if len(description) > MaxDescriptionLen {
		return fmt.Errorf("%d bytes: %w", len(description), ErrDescriptionTooLong)
	}

	c.Description = append(c.Description[:0], description...)

	return nil
}

// SetAuthor replaces the author.
func (c *Configuration) SetAuthor(author []byte) error {
	if len(author) > MaxAuthorLen {
		return fmt.Errorf("%d bytes: %w", len(author), ErrAuthorTooLong)
	}

	c.Author = append(c.Author[:0], author...)

	return nil
}

// CheckPassword reports whether the presented digest equals the stored one.
func (c *Configuration) CheckPassword(presented []byte) bool {
	return len(presented) == PasswordLen && slices.Equal(c.Password[:], presented)
}

// Clone returns a deep copy of the configuration.
func (c *Configuration) Clone() *Configuration {
	return &Configuration{
		Alarms:      slices.Clone(c.Alarms),
		Password:    c.Password,
		Description: slices.Clone(c.Description),
		Author:      slices.Clone(c.Author),
		ProgramType: c.ProgramType,
		State:       c.State,
	}
}
