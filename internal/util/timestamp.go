package util

import "time"

// timestampLayout matches the compact form used in session and log filenames,
// e.g. stage_plan_20250114_093042.log.
const timestampLayout = "20060102_150405"

// Timestamp returns t formatted for embedding in log and session filenames.
func Timestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// Now returns the current time formatted for filenames.
func Now() string {
	return Timestamp(time.Now())
}
