package client

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/opentimer/internal/domain/timer"
)

func TestParseProgram(t *testing.T) {
	t.Parallel()

	data := []byte(`
description: Garden watering
author: alice
program_type: toggle
alarms:
  - time: "06:30"
    duration: 0
    days: [mon, Wednesday, FRI]
  - time: "21:05"
    duration: 1
    enabled: false
`)

	program, err := ParseProgram(data)
	require.NoError(t, err)

	require.Equal(t, "Garden watering", program.Description)
	require.Equal(t, "alice", program.Author)
	require.Equal(t, timer.ProgramToggle, program.Type)
	require.Equal(t, []timer.AlarmEntry{
		{Hour: 6, Minute: 30, Duration: 0, Flags: timer.NewFlags(true, time.Monday, time.Wednesday, time.Friday)},
		{
			Hour: 21, Minute: 5, Duration: 1,
			Flags: timer.NewFlags(false, time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
				time.Thursday, time.Friday, time.Saturday),
		},
	}, program.Alarms)
}

func TestParseProgram_Defaults(t *testing.T) {
	t.Parallel()

	program, err := ParseProgram([]byte("alarms: []\n"))
	require.NoError(t, err)
	require.Equal(t, timer.ProgramCountdown, program.Type)
	require.Empty(t, program.Alarms)
	require.Empty(t, program.Author)
}

func TestParseProgram_Invalid(t *testing.T) {
	t.Parallel()

	tooMany := "alarms:\n" + strings.Repeat("  - time: \"01:00\"\n", timer.MaxAlarms+1)

	cases := map[string]string{
		"bad time":         "alarms:\n  - time: \"7h\"\n",
		"hour 24":          "alarms:\n  - time: \"24:00\"\n",
		"minute 60":        "alarms:\n  - time: \"10:60\"\n",
		"unknown weekday":  "alarms:\n  - time: \"10:00\"\n    days: [funday]\n",
		"unknown type":     "program_type: pulse\n",
		"too many alarms":  tooMany,
		"long description": fmt.Sprintf("description: %s\n", strings.Repeat("x", timer.MaxDescriptionLen+1)),
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseProgram([]byte(data))
			require.Error(t, err)
		})
	}

	_, err := ParseProgram([]byte("alarms:\n  - time: \"10:00\"\n    duration: 100\n"))
	require.ErrorIs(t, err, timer.ErrInvalidAlarm)
}

func TestLoadProgram(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "program.yaml")
	require.NoError(t, os.WriteFile(path, []byte("description: lights\nalarms:\n  - time: \"18:00\"\n    duration: 30\n"), 0o600))

	program, err := LoadProgram(path)
	require.NoError(t, err)
	require.Equal(t, "lights", program.Description)
	require.Len(t, program.Alarms, 1)
	require.Equal(t, uint8(30), program.Alarms[0].Duration)

	_, err = LoadProgram(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
