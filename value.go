package duckdb

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"time"
)

// Value is the host-side representation of one cell. It is one of:
//
//	nil (SQL NULL), bool, int8..int64, uint8..uint64, float32, float64,
//	string, []byte, TimeTZ, Interval, []Value (list, array), map[string]Value
//	(struct, map), or a Sentinel for the few cases the vectorized path does
//	not decode.
//
// Values wider than 64 bits (hugeint, uhugeint, wide decimals) fall back to
// a lossless decimal-digit string when they do not fit a native integer.
type Value = any

// Sentinel marks a cell the extractor deliberately does not decode. It is
// returned instead of a guessed value so callers can detect the case.
type Sentinel string

const (
	// SentinelInvalidEnum is returned when an enum index lies outside the
	// type's dictionary.
	SentinelInvalidEnum Sentinel = "invalid_enum_value"
	// SentinelTimestampTZ is returned for timestamp-with-timezone cells,
	// which the vectorized path does not decode.
	SentinelTimestampTZ Sentinel = "unsupported_timestamp_tz"
	// SentinelUnion is returned for union cells.
	SentinelUnion Sentinel = "unsupported_union"
	// SentinelUnsupported is returned for type identifiers this package
	// does not recognize.
	SentinelUnsupported Sentinel = "unsupported_type"
)

// TimeTZ is a time-of-day paired with a UTC offset.
type TimeTZ struct {
	// Micros is microseconds since midnight.
	Micros int64
	// OffsetSeconds is the UTC offset in seconds, positive east of UTC.
	OffsetSeconds int32
}

// Interval mirrors the engine's three-component interval payload.
type Interval struct {
	Months int32
	Days   int32
	Micros int64
}

// The engine packs TIME_TZ into one uint64: microseconds in the upper 40
// bits, the offset biased against the maximum legal offset in the lower 24.
const maxTimeTZOffset = 16*60*60 - 1

func decodeTimeTZ(bits uint64) TimeTZ {
	return TimeTZ{
		Micros:        int64(bits >> 24),
		OffsetSeconds: maxTimeTZOffset - int32(bits&0xFFFFFF),
	}
}

// hugeintFitsInt64 reports whether the 128-bit signed value (lower, upper)
// is representable as an int64.
func hugeintFitsInt64(lower uint64, upper int64) bool {
	if upper == 0 {
		return lower <= math.MaxInt64
	}
	if upper == -1 {
		return lower >= 1<<63
	}
	return false
}

// hugeintToBig assembles the 128-bit signed value into a big.Int.
func hugeintToBig(lower uint64, upper int64) *big.Int {
	v := new(big.Int).SetInt64(upper)
	v.Lsh(v, 64)
	return v.Or(v, new(big.Int).SetUint64(lower))
}

// uhugeintToBig assembles the 128-bit unsigned value into a big.Int.
func uhugeintToBig(lower, upper uint64) *big.Int {
	v := new(big.Int).SetUint64(upper)
	v.Lsh(v, 64)
	return v.Or(v, new(big.Int).SetUint64(lower))
}

var (
	hugeintMin = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	hugeintMax = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	mask64     = new(big.Int).SetUint64(math.MaxUint64)
)

// bigToHugeint splits an arbitrary-precision integer into the engine's
// 128-bit two's-complement words, the inverse of hugeintToBig. ok is false
// when the value does not fit in 128 bits.
func bigToHugeint(v *big.Int) (lower uint64, upper int64, ok bool) {
	if v.Cmp(hugeintMin) < 0 || v.Cmp(hugeintMax) > 0 {
		return 0, 0, false
	}
	lower = new(big.Int).And(v, mask64).Uint64()
	upper = new(big.Int).Rsh(v, 64).Int64()
	return lower, upper, true
}

// hugeintValue converts a 128-bit signed value to an int64 when it fits,
// otherwise to its exact decimal-digit string.
func hugeintValue(lower uint64, upper int64) Value {
	if hugeintFitsInt64(lower, upper) {
		return int64(lower)
	}
	return hugeintToBig(lower, upper).String()
}

// uhugeintValue converts a 128-bit unsigned value to a uint64 when it fits,
// otherwise to its exact decimal-digit string.
func uhugeintValue(lower, upper uint64) Value {
	if upper == 0 {
		return lower
	}
	return uhugeintToBig(lower, upper).String()
}

// uuidString formats the 128-bit UUID payload as canonical 8-4-4-4-12 hex.
// The engine stores UUIDs as a hugeint whose big-endian byte order matches
// the textual form, so the groups come straight off the two words.
func uuidString(lower uint64, upper int64) string {
	u := uint64(upper)
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		uint32(u>>32),
		uint16(u>>16),
		uint16(u),
		uint16(lower>>48),
		lower&0xFFFFFFFFFFFF)
}

// uuidWords splits canonical UUID bytes into the engine's hugeint layout,
// the inverse of uuidString.
func uuidWords(b [16]byte) (lower uint64, upper int64) {
	upper = int64(binary.BigEndian.Uint64(b[:8]))
	lower = binary.BigEndian.Uint64(b[8:])
	return lower, upper
}

// decimalValue applies the declared scale to a raw fixed-point integer.
// Scale 0 keeps the value exact: int64 when it fits, decimal string
// otherwise. Non-zero scales divide by 10^scale and return a float64, a
// documented approximation for scales beyond double precision.
func decimalValue(unscaled *big.Int, scale uint8) Value {
	if scale == 0 {
		if unscaled.IsInt64() {
			return unscaled.Int64()
		}
		return unscaled.String()
	}
	f := new(big.Float).SetInt(unscaled)
	pow := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil))
	out, _ := f.Quo(f, pow).Float64()
	return out
}

// formatDate renders days-since-epoch as zero-padded YYYY-MM-DD.
func formatDate(days int32) string {
	t := time.Unix(int64(days)*24*60*60, 0).UTC()
	y, m, d := t.Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
}

// formatClock renders microseconds-since-midnight as HH:MM:SS.ffffff.
func formatClock(micros int64) string {
	seconds := micros / microsPerSecond
	frac := micros % microsPerSecond
	return fmt.Sprintf("%02d:%02d:%02d.%06d",
		seconds/3600, (seconds%3600)/60, seconds%60, frac)
}

// formatTimestamp renders microseconds-since-epoch as a combined
// date-and-clock string.
func formatTimestamp(micros int64) string {
	secs := micros / microsPerSecond
	frac := micros % microsPerSecond
	if frac < 0 {
		secs--
		frac += microsPerSecond
	}
	t := time.Unix(secs, 0).UTC()
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d.%06d",
		y, int(m), d, hh, mm, ss, frac)
}
