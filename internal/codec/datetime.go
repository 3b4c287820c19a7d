package codec

import "time"

// ticksPerSecond is the number of 100-ns ticks in one second.
const ticksPerSecond = 10_000_000

// epochOffsetTicks is the number of 100-ns ticks between the OPC UA/Windows
// FILETIME epoch (1601-01-01T00:00:00Z) and the Unix epoch
// (1970-01-01T00:00:00Z).
const epochOffsetTicks = 116_444_736_000_000_000

// filetimeEpochDotNetTicks is 1601-01-01T00:00:00Z expressed in .NET
// DateTime ticks (100-ns units since 0001-01-01). Values below this floor
// encode as zero; on the wire it is the origin of the FILETIME tick count.
const filetimeEpochDotNetTicks = 504_911_232_000_000_000

// maxTicks is the domain maximum (9999-12-31) in .NET DateTime ticks; any
// decoded value at or above maxTicks-filetimeEpochDotNetTicks becomes the
// domain maximum.
const maxTicks = 3_155_378_975_990_000_000

// maxDecodableTicks is the threshold at or above which decode clamps to
// the domain maximum.
const maxDecodableTicks = maxTicks - filetimeEpochDotNetTicks

// domainMinTime is 1601-01-01T00:00:00Z, the wire epoch and domain minimum.
var domainMinTime = time.Date(1601, time.January, 1, 0, 0, 0, 0, time.UTC)

// domainMaxTime mirrors .NET's DateTime.MaxValue (9999-12-31T23:59:59.9999999Z).
var domainMaxTime = time.Date(9999, time.December, 31, 23, 59, 59, 999999900, time.UTC)

// WriteDateTime writes t as FILETIME ticks. Values earlier than the domain
// floor (1601-01-01) encode as zero.
func (e *Encoder) WriteDateTime(t time.Time) error {
	ticks := timeToTicks(t)
	if ticks < 0 {
		ticks = 0
	}
	return e.WriteInt64(ticks)
}

// ReadDateTime reads FILETIME ticks and clamps to the domain
// minimum/maximum per the wire format's rules: zero or negative decodes to
// the domain minimum, a value at or above maxDecodableTicks decodes to the
// domain maximum.
func (d *Decoder) ReadDateTime() (time.Time, error) {
	ticks, err := d.ReadInt64()
	if err != nil {
		return time.Time{}, err
	}
	if ticks <= 0 {
		return domainMinTime, nil
	}
	if ticks >= maxDecodableTicks {
		return domainMaxTime, nil
	}
	return ticksToTime(ticks), nil
}

func timeToTicks(t time.Time) int64 {
	unixTicks := t.Unix()*ticksPerSecond + int64(t.Nanosecond())/100
	return unixTicks + epochOffsetTicks
}

func ticksToTime(ticks int64) time.Time {
	unixTicks := ticks - epochOffsetTicks
	return time.Unix(unixTicks/ticksPerSecond, (unixTicks%ticksPerSecond)*100).UTC()
}
