package synchrophasor

import (
	"math"
	"time"
)

// tqTable maps the 4-bit time-quality code to the worst-case clock error in
// seconds. Code 15 means the clock is failed.
var tqTable = [16]float64{
	1e-12, 1e-9, 1e-8, 1e-7, 1e-6, 1e-5, 1e-4, 1e-3,
	1e-2, 1e-1, 1, 10, 100, 1000, 1e4, math.Inf(1),
}

// TimeQuality is the decoded form of the 8-bit time-quality field in the
// high byte of the fractional-second word.
type TimeQuality struct {
	Reserved            bool
	LeapSecondDirection bool
	LeapSecondOccurred  bool
	LeapSecondPending   bool
	TimeQualityCode     uint8
	TimeQuality         float64 // worst-case clock error in seconds
}

// ParseTimeQuality decodes the 8-bit time-quality field.
func ParseTimeQuality(tq uint8) TimeQuality {
	code := tq & 0x0F
	return TimeQuality{
		Reserved:            tq&0x80 != 0,
		LeapSecondDirection: tq&0x40 != 0,
		LeapSecondOccurred:  tq&0x20 != 0,
		LeapSecondPending:   tq&0x10 != 0,
		TimeQualityCode:     code,
		TimeQuality:         tqTable[code],
	}
}

// timeQualityCode returns the smallest quality code whose table entry
// covers the given clock tolerance in seconds.
func timeQualityCode(tolerance float64) uint8 {
	var code uint8
	for tqTable[code] < tolerance {
		code++
	}
	return code
}

// GenerateTimeCodes converts a timestamp into the second-of-century and
// fractional-second words of the common header. tolerance is the clock
// accuracy in seconds and selects the time-quality code in the high byte of
// the fractional word.
func GenerateTimeCodes(t time.Time, timeBase uint32, tolerance float64) (soc uint32, fracSec uint32) {
	soc = uint32(t.Unix())
	frac := float64(t.Nanosecond()) / 1e9
	fracSec = uint32(frac*float64(timeBase)) & 0x00FFFFFF
	fracSec |= uint32(timeQualityCode(tolerance)) << 24
	return soc, fracSec
}

// GenerateTimeCodesConfig is GenerateTimeCodes using the configuration's
// time base.
func GenerateTimeCodesConfig(t time.Time, cfg *Config, tolerance float64) (uint32, uint32) {
	return GenerateTimeCodes(t, cfg.TimeBase, tolerance)
}
