// Package timecode converts between fractional seconds and the display strings
// used by transcript paragraphs and caption files.
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Short formats seconds as HH:MM:SS. Fractional seconds are truncated and
// negative values clamp to zero. Hours are not capped at 99.
func Short(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(math.Floor(seconds))
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}

// Caption formats seconds as HH:MM:SS.mmm, the WebVTT cue timing layout.
func Caption(seconds float64) string {
	return withMillis(seconds, '.')
}

// SRT formats seconds as HH:MM:SS,mmm.
func SRT(seconds float64) string {
	return withMillis(seconds, ',')
}

func withMillis(seconds float64, sep byte) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	msTotal := int64(seconds*1000 + 0.5)
	hours := msTotal / 3_600_000
	msTotal %= 3_600_000
	minutes := msTotal / 60_000
	msTotal %= 60_000
	secs := msTotal / 1_000
	millis := msTotal % 1_000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, secs, sep, millis)
}

// Parse reads HH:MM:SS, HH:MM:SS.mmm, HH:MM:SS,mmm, MM:SS, or a plain number of
// seconds and returns the value in seconds.
func Parse(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timecode")
	}
	// SRT uses a comma for milliseconds
	value = strings.ReplaceAll(value, ",", ".")

	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid timecode %q", value)
	}

	var total float64
	for i, part := range parts {
		last := i == len(parts)-1
		if part == "" {
			return 0, fmt.Errorf("invalid timecode %q", value)
		}
		if !last {
			n, err := strconv.Atoi(part)
			if err != nil || n < 0 {
				return 0, fmt.Errorf("invalid timecode %q", value)
			}
			total = total*60 + float64(n)
			continue
		}
		secs, err := strconv.ParseFloat(part, 64)
		if err != nil || secs < 0 {
			return 0, fmt.Errorf("invalid timecode %q", value)
		}
		if len(parts) > 1 && secs >= 60 {
			return 0, fmt.Errorf("invalid timecode %q", value)
		}
		total = total*60 + secs
	}
	return total, nil
}
