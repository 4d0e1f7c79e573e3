package syncer

import (
	"strings"
	"time"
)

const everyPrefix = "@every "

// NextRun returns when a recurring job should run next. "@every <duration>"
// and bare durations give that interval; anything else gives fallback.
func NextRun(schedule string, from time.Time, fallback time.Duration) time.Time {
	if interval, ok := parseInterval(schedule); ok {
		return from.Add(interval)
	}
	return from.Add(fallback)
}

func parseInterval(schedule string) (time.Duration, bool) {
	spec := strings.TrimSpace(schedule)
	spec = strings.TrimPrefix(spec, everyPrefix)

	d, err := time.ParseDuration(strings.TrimSpace(spec))
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
