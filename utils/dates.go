package utils

import (
	"log/slog"
	"time"
)

// dateToLayout is the wire format of the date_to query parameter.
const dateToLayout = "2006-01-02"

// ParseDateTo converts a YYYY-MM-DD cutoff string to a unix timestamp.
// An empty or malformed value returns 0, which callers treat as "no cutoff".
// Source dates are naive local times, so the cutoff is parsed the same way.
func ParseDateTo(dateStr string) int64 {
	if dateStr == "" {
		return 0
	}

	t, err := time.ParseInLocation(dateToLayout, dateStr, time.Local)
	if err != nil {
		slog.Error("invalid date_to format, expected YYYY-MM-DD", "date_to", dateStr, "err", err)
		return 0
	}
	return t.Unix()
}
