package duckdb

import (
	"time"
)

// Epoch micros per unit, used when converting engine temporal payloads.
const (
	microsPerSecond = 1_000_000
	microsPerDay    = 24 * 60 * 60 * microsPerSecond
)

// DateFromTime converts a Go time.Time to days since the Unix epoch, the
// engine's native DATE payload.
func DateFromTime(t time.Time) int32 {
	t = t.UTC()
	return int32(t.Unix() / (60 * 60 * 24))
}

// TimeFromDate converts a DATE payload (days since the Unix epoch) to a Go
// time.Time at midnight UTC.
func TimeFromDate(days int32) time.Time {
	seconds := int64(days) * 24 * 60 * 60
	return time.Unix(seconds, 0).UTC()
}

// MicrosFromClock converts a Go time.Time's clock reading to microseconds
// since midnight, the engine's native TIME payload.
func MicrosFromClock(t time.Time) int64 {
	hour, min, sec := t.Clock()
	return int64(hour)*3600*microsPerSecond +
		int64(min)*60*microsPerSecond +
		int64(sec)*microsPerSecond +
		int64(t.Nanosecond())/1000
}

// TimestampFromTime converts a Go time.Time to microseconds since the Unix
// epoch, the engine's native TIMESTAMP payload.
func TimestampFromTime(t time.Time) int64 {
	t = t.UTC()
	return t.Unix()*microsPerSecond + int64(t.Nanosecond())/1000
}

// TimeFromTimestamp converts a TIMESTAMP payload (microseconds since the
// Unix epoch) to a Go time.Time in UTC.
func TimeFromTimestamp(micros int64) time.Time {
	seconds := micros / microsPerSecond
	nanos := (micros % microsPerSecond) * 1000
	return time.Unix(seconds, nanos).UTC()
}
