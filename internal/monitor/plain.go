package monitor

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/luki/hasensors/internal/sensor"
)

// Plain renders a view without colours for the headless commands. Rows in
// alert are marked with a trailing "!".
func Plain(v sensor.View, symbols bool) string {
	if v.State != sensor.StateRows {
		return v.Message()
	}

	headers := []string{"Name", "Value", "Unit", ""}
	if symbols {
		headers = append([]string{""}, headers...)
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderHeader(false).
		Headers(headers...)

	for _, r := range v.Rows {
		alert := ""
		if r.Blink {
			alert = "!"
		}
		cells := []string{r.Name, r.Value, r.Unit, alert}
		if symbols {
			glyph := ""
			if r.HasIcon {
				glyph = Glyph(r.Icon)
			}
			cells = append([]string{glyph}, cells...)
		}
		t.Row(cells...)
	}
	return t.String()
}
