package tracking

import (
	"fmt"
	"time"
)

// FormatTimeRemaining renders a duration the way the tracking screen shows
// it: "arriving now" once the ETA has passed, minutes below an hour, and
// hour+minute above it.
func FormatTimeRemaining(remaining time.Duration) string {
	if remaining <= 0 {
		return "arriving now"
	}
	minutes := int(remaining.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
