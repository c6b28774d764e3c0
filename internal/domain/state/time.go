package state

import "time"

// timestampLayout matches the platform's millisecond-precision Zulu format.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// CurrentTimestamp returns the current UTC time in wire format.
func CurrentTimestamp() string {
	return time.Now().UTC().Format(timestampLayout)
}

// FormatTimestamp renders t in wire format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ParseTimestamp parses a wire-format timestamp, tolerating variable
// fractional precision.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(timestampLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// MonthsAgo returns the timestamp a number of calendar months in the past,
// clamping the day to the target month's length so the result never rolls
// into the following month.
func MonthsAgo(months int) string {
	now := time.Now().UTC()
	y, m := now.Year(), int(now.Month())-months
	for m <= 0 {
		y--
		m += 12
	}
	day := now.Day()
	if last := daysIn(y, time.Month(m)); day > last {
		day = last
	}
	t := time.Date(y, time.Month(m), day, now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), time.UTC)
	return FormatTimestamp(t)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
