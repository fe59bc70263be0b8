package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/opentimer/internal/domain/timer"
)

// ErrInvalidProgram is returned for program files that cannot be uploaded.
var ErrInvalidProgram = errors.New("invalid program")

// Program is a complete schedule ready for upload.
type Program struct {
	// Description of the program.
	Description string
	// Author of the program.
	Author string
	// Type selects countdown or toggle actuation.
	Type timer.ProgramType
	// Alarms in matching order.
	Alarms []timer.AlarmEntry
}

// programFile is the YAML layout of a program.
type programFile struct {
	Description string      `yaml:"description"`
	Author      string      `yaml:"author"`
	ProgramType string      `yaml:"program_type"`
	Alarms      []alarmFile `yaml:"alarms"`
}

// alarmFile is one alarm in a program file.
type alarmFile struct {
	// Time is "HH:MM".
	Time     string `yaml:"time"`
	Duration uint8  `yaml:"duration"`
	// Days lists weekday names; an empty list means every day.
	Days []string `yaml:"days"`
	// Enabled defaults to true.
	Enabled *bool `yaml:"enabled"`
}

// LoadProgram reads and validates a program file.
func LoadProgram(path string) (*Program, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read program %s: %w", path, err)
	}

	program, err := ParseProgram(data)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", path, err)
	}

	return program, nil
}

// ParseProgram decodes and validates a YAML program.
func ParseProgram(data []byte) (*Program, error) {
	var file programFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	programType, err := parseProgramType(file.ProgramType)
	if err != nil {
		return nil, err
	}

	program := &Program{
		Description: file.Description,
		Author:      file.Author,
		Type:        programType,
		Alarms:      make([]timer.AlarmEntry, 0, len(file.Alarms)),
	}

	for i, a := range file.Alarms {
		entry, err := a.entry()
		if err != nil {
			return nil, fmt.Errorf("alarm %d: %w", i, err)
		}

		program.Alarms = append(program.Alarms, entry)
	}

	if err = program.Validate(); err != nil {
		return nil, err
	}

	return program, nil
}

// Validate checks the program against the device limits.
func (p *Program) Validate() error {
	if len(p.Alarms) > timer.MaxAlarms {
		return fmt.Errorf("%d alarms, at most %d: %w", len(p.Alarms), timer.MaxAlarms, ErrInvalidProgram)
	}

	for i, a := range p.Alarms {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("alarm %d: %w", i, err)
		}
	}

	if len(p.Description) > timer.MaxDescriptionLen {
		return fmt.Errorf("description: %w", timer.ErrDescriptionTooLong)
	}

	if len(p.Author) > timer.MaxAuthorLen {
		return fmt.Errorf("author: %w", timer.ErrAuthorTooLong)
	}

	return nil
}

// entry converts a file alarm into an AlarmEntry.
func (a alarmFile) entry() (timer.AlarmEntry, error) {
	hour, minute, err := parseClock(a.Time)
	if err != nil {
		return timer.AlarmEntry{}, err
	}

	days := make([]time.Weekday, 0, len(a.Days))

	for _, name := range a.Days {
		day, err := parseWeekday(name)
		if err != nil {
			return timer.AlarmEntry{}, err
		}

		days = append(days, day)
	}

	if len(days) == 0 {
		for day := time.Sunday; day <= time.Saturday; day++ {
			days = append(days, day)
		}
	}

	enabled := a.Enabled == nil || *a.Enabled

	return timer.AlarmEntry{
		Hour:     hour,
		Minute:   minute,
		Duration: a.Duration,
		Flags:    timer.NewFlags(enabled, days...),
	}, nil
}

// parseClock parses "HH:MM".
func parseClock(s string) (hour, minute uint8, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("time %q: %w", s, ErrInvalidProgram)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("hour in %q: %w", s, ErrInvalidProgram)
	}

	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("minute in %q: %w", s, ErrInvalidProgram)
	}

	if h < 0 || h >= timer.MaxHour || m < 0 || m >= timer.MaxMinute {
		return 0, 0, fmt.Errorf("time %q out of range: %w", s, ErrInvalidProgram)
	}

	return uint8(h), uint8(m), nil //nolint:gosec // Range checked above.
}

// parseWeekday accepts full and three-letter English day names in any case.
func parseWeekday(name string) (time.Weekday, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	for day := time.Sunday; day <= time.Saturday; day++ {
		full := strings.ToLower(day.String())
		if name == full || name == full[:3] {
			return day, nil
		}
	}

	return 0, fmt.Errorf("weekday %q: %w", name, ErrInvalidProgram)
}

// parseProgramType accepts "countdown" (the default) and "toggle".
func parseProgramType(name string) (timer.ProgramType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", timer.ProgramCountdown.String():
		return timer.ProgramCountdown, nil
	case timer.ProgramToggle.String():
		return timer.ProgramToggle, nil
	default:
		return 0, fmt.Errorf("program type %q: %w", name, ErrInvalidProgram)
	}
}
