package engine

import (
	"fmt"
	"math"
)

// Clock maps the night's progress onto a 00:00 to 06:00 display.
func (e *Engine) Clock() string {
	return FormatClock(e.elapsed, e.nightLength, e.tuning.ClockHours)
}

// FormatClock renders elapsed/length as HH:MM over the given span of hours.
func FormatClock(elapsed, length float64, hours int) string {
	if length <= 0 || hours <= 0 {
		return "00:00"
	}
	span := math.Max(0, math.Min(1, elapsed/length)) * float64(hours)
	h := math.Floor(span)
	m := math.Floor((span - h) * 60)
	return fmt.Sprintf("%02d:%02d", int(h), int(m))
}
