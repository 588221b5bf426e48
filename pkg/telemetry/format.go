// Package telemetry formats guidance results for the HUD, the command
// journal, the dashboard and Prometheus.
package telemetry

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-sargan/pkg/guidance"
)

// Millis formats d as milliseconds with two decimals.
func Millis(d time.Duration) string {
	return fmt.Sprintf("%.2f", float64(d)/float64(time.Millisecond))
}

// Line is the HUD status text. Without a target only the resolution is
// shown.
func Line(cmd guidance.Command, width, height int, inference time.Duration) string {
	if cmd.Target == nil {
		return fmt.Sprintf(" RES: (%dx%d)", width, height)
	}
	return fmt.Sprintf(" CMD: (%s:%d) TARGET: (%d;%d) RES: (%dx%d) TIME: %s",
		cmd.Direction, cmd.Angle,
		cmd.Target.X, cmd.Target.Y,
		width, height,
		Millis(inference))
}

// CommandLine is the journal entry body for one command.
func CommandLine(cmd guidance.Command, inference time.Duration) string {
	return fmt.Sprintf("CMD:\t(%s:%d)\tTIME: %s", cmd.Direction, cmd.Angle, Millis(inference))
}
