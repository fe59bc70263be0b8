package client

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/oshokin/opentimer/internal/domain/timer"
)

// newTable returns a table printer with a styled header row.
func newTable() *pterm.TablePrinter {
	headerStyle := pterm.NewStyle(pterm.FgCyan, pterm.Bold)

	return pterm.DefaultTable.WithHasHeader(true).WithHeaderStyle(headerStyle)
}

// RenderStatus renders a device status as a two-column table.
func RenderStatus(status *Status) (string, error) {
	armed := "no"
	if status.Armed() {
		armed = "yes"
	}

	rows := [][]string{
		{"FIELD", "VALUE"},
		{"Armed", armed},
		{"Program type", status.ProgramType.String()},
		{"Clock", status.Clock.String()},
		{"Temperature", fmt.Sprintf("%d °C", status.Temperature)},
		{"Description", status.Description},
		{"Author", status.Author},
	}

	return newTable().WithData(rows).Srender()
}

// RenderAlarms renders an alarm list, one row per entry in matching order.
func RenderAlarms(alarms []timer.AlarmEntry) (string, error) {
	if len(alarms) == 0 {
		return "No alarms stored\n", nil
	}

	rows := [][]string{{"#", "TIME", "DURATION", "DAYS", "ENABLED"}}

	for i, a := range alarms {
		enabled := "no"
		if a.Enabled() {
			enabled = "yes"
		}

		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			fmt.Sprintf("%02d:%02d", a.Hour, a.Minute),
			strconv.Itoa(int(a.Duration)),
			formatDays(a),
			enabled,
		})
	}

	return newTable().WithData(rows).Srender()
}

// formatDays lists the active weekdays by their short names.
func formatDays(a timer.AlarmEntry) string {
	days := a.Days()

	switch len(days) {
	case 0:
		return "-"
	case 7:
		return "every day"
	}

	names := make([]string, 0, len(days))
	for _, day := range days {
		names = append(names, day.String()[:3])
	}

	return strings.Join(names, ",")
}
