package synchrophasor

import (
	"math/cmplx"
)

// Stat is the 16-bit per-PMU status word of a data frame.
type Stat uint16

// DataError returns bits 15..14: 0 good, 1 PMU error, 2 test mode, 3
// PMU error, data invalid.
func (s Stat) DataError() uint8 { return uint8(s >> 14) }

// PmuSyncLost reports bit 13.
func (s Stat) PmuSyncLost() bool { return s&0x2000 != 0 }

// DataSortedByArrival reports bit 12.
func (s Stat) DataSortedByArrival() bool { return s&0x1000 != 0 }

// PmuTriggered reports bit 11.
func (s Stat) PmuTriggered() bool { return s&0x0800 != 0 }

// ConfigChangePending reports bit 10.
func (s Stat) ConfigChangePending() bool { return s&0x0400 != 0 }

// TriggerReason returns bits 3..0.
func (s Stat) TriggerReason() uint8 { return uint8(s & 0x000F) }

// PmuData is the per-PMU payload of one data frame. Phasors are stored as
// rectangular complex values in engineering units regardless of the wire
// coordinate system; Freq is in Hz and Rocof in Hz/s.
type PmuData struct {
	Stat    Stat
	Freq    float64
	Rocof   float64
	Phasors []complex128
	Analog  []float64
	Digital []uint16
}

// PmuDataFrame is the decoded form of a data frame. FracSec is the
// fractional second in seconds; the time-quality flags are kept separately.
type PmuDataFrame struct {
	IDCode      uint16
	TimeQuality uint8
	ParseResult ParseResult
	SOC         uint32
	FracSec     float64
	Pmus        []PmuData
}

// Clone returns a deep copy of the frame.
func (f *PmuDataFrame) Clone() PmuDataFrame {
	out := *f
	out.Pmus = make([]PmuData, len(f.Pmus))
	for i := range f.Pmus {
		out.Pmus[i] = f.Pmus[i]
		out.Pmus[i].Phasors = append([]complex128(nil), f.Pmus[i].Phasors...)
		out.Pmus[i].Analog = append([]float64(nil), f.Pmus[i].Analog...)
		out.Pmus[i].Digital = append([]uint16(nil), f.Pmus[i].Digital...)
	}
	return out
}

func sampleSize(format uint8) int {
	if format == IntegerFormat {
		return 2
	}
	return 4
}

// expectedDataFrameSize returns the exact wire size of a data frame under
// cfg. The layout is fully determined by the configuration.
func expectedDataFrameSize(cfg *Config) int {
	size := CommonFrameSize + 2
	for i := range cfg.Pmus {
		pmu := &cfg.Pmus[i]
		size += 2
		size += 2 * sampleSize(pmu.PhasorFormat) * int(pmu.PhasorCount)
		size += 2 * sampleSize(pmu.FreqFormat)
		size += sampleSize(pmu.AnalogFormat) * int(pmu.AnalogCount)
		size += 2 * int(pmu.DigitalWordCount)
	}
	return size
}

// parsePmuData reads one PMU payload and returns the bytes consumed.
func parsePmuData(data []byte, pmu *PmuConfig, out *PmuData) int {
	out.Stat = Stat(beUint16(data))
	offset := 2

	out.Phasors = make([]complex128, pmu.PhasorCount)
	for i := range out.Phasors {
		if pmu.PhasorFormat == IntegerFormat {
			if pmu.PhasorCoordinates == RectangularPhasor {
				re := int16(beUint16(data[offset:]))
				im := int16(beUint16(data[offset+2:]))
				conv := 1e-5 * float64(pmu.PhasorConversion[i])
				out.Phasors[i] = complex(float64(re)*conv, float64(im)*conv)
			} else {
				mag := beUint16(data[offset:])
				ang := int16(beUint16(data[offset+2:]))
				out.Phasors[i] = cmplx.Rect(
					float64(mag)*1e-5*float64(pmu.PhasorConversion[i]),
					float64(ang)/1e4)
			}
			offset += 4
		} else {
			v1 := float64(beFloat32(data[offset:]))
			v2 := float64(beFloat32(data[offset+4:]))
			if pmu.PhasorCoordinates == RectangularPhasor {
				out.Phasors[i] = complex(v1, v2)
			} else {
				out.Phasors[i] = cmplx.Rect(v1, v2)
			}
			offset += 8
		}
	}

	if pmu.FreqFormat == FloatingPointFormat {
		out.Freq = float64(beFloat32(data[offset:]))
		out.Rocof = float64(beFloat32(data[offset+4:]))
		offset += 8
	} else {
		out.Freq = float64(int16(beUint16(data[offset:]))) / 1000.0
		out.Rocof = float64(int16(beUint16(data[offset+2:]))) / 1000.0
		offset += 4
	}

	out.Analog = make([]float64, pmu.AnalogCount)
	for i := range out.Analog {
		if pmu.AnalogFormat == FloatingPointFormat {
			out.Analog[i] = float64(beFloat32(data[offset:]))
			offset += 4
		} else {
			out.Analog[i] = float64(int16(beUint16(data[offset:])))
			offset += 2
		}
	}

	out.Digital = make([]uint16, pmu.DigitalWordCount)
	for i := range out.Digital {
		out.Digital[i] = beUint16(data[offset:])
		offset += 2
	}
	return offset
}

// ParseDataFrame decodes a data frame against the governing configuration.
// The ParseResult field of the returned frame carries the outcome; an
// IdMismatch is advisory and the payload is still populated.
func ParseDataFrame(data []byte, cfg *Config) PmuDataFrame {
	var pdf PmuDataFrame
	var frame CommonFrame
	if pdf.ParseResult = ParseCommon(data, &frame); pdf.ParseResult != ParseComplete {
		return pdf
	}
	if frame.Type != PacketTypeData {
		pdf.ParseResult = IncorrectType
		return pdf
	}
	pdf.IDCode = frame.SourceID
	if pdf.IDCode != cfg.IDCode {
		pdf.ParseResult = IdMismatch
	}
	pdf.TimeQuality = uint8(frame.FracSec >> 24)
	pdf.FracSec = float64(frame.FracSec&0x00FFFFFF) / float64(cfg.TimeBase)
	pdf.SOC = frame.SOC

	if expectedDataFrameSize(cfg) > len(data) {
		pdf.ParseResult = ConfigMismatch
		return pdf
	}

	pdf.Pmus = make([]PmuData, len(cfg.Pmus))
	offset := CommonFrameSize
	for i := range cfg.Pmus {
		offset += parsePmuData(data[offset:], &cfg.Pmus[i], &pdf.Pmus[i])
	}
	return pdf
}

// generatePmuData writes one PMU payload and returns the bytes written.
func generatePmuData(data []byte, pmu *PmuConfig, pd *PmuData) int {
	putUint16(data, uint16(pd.Stat))
	offset := 2

	for i := 0; i < int(pmu.PhasorCount); i++ {
		if pmu.PhasorFormat == IntegerFormat {
			if pmu.PhasorCoordinates == RectangularPhasor {
				conv := 1e5 / float64(pmu.PhasorConversion[i])
				re := int16(real(pd.Phasors[i]) * conv)
				im := int16(imag(pd.Phasors[i]) * conv)
				putUint16(data[offset:], uint16(re))
				putUint16(data[offset+2:], uint16(im))
			} else {
				mag := uint16(cmplx.Abs(pd.Phasors[i]) * 1e5 / float64(pmu.PhasorConversion[i]))
				ang := int16(cmplx.Phase(pd.Phasors[i]) * 1e4)
				putUint16(data[offset:], mag)
				putUint16(data[offset+2:], uint16(ang))
			}
			offset += 4
		} else {
			if pmu.PhasorCoordinates == RectangularPhasor {
				putFloat32(data[offset:], float32(real(pd.Phasors[i])))
				putFloat32(data[offset+4:], float32(imag(pd.Phasors[i])))
			} else {
				putFloat32(data[offset:], float32(cmplx.Abs(pd.Phasors[i])))
				putFloat32(data[offset+4:], float32(cmplx.Phase(pd.Phasors[i])))
			}
			offset += 8
		}
	}

	if pmu.FreqFormat == FloatingPointFormat {
		putFloat32(data[offset:], float32(pd.Freq))
		putFloat32(data[offset+4:], float32(pd.Rocof))
		offset += 8
	} else {
		putUint16(data[offset:], uint16(int16(pd.Freq*1000.0)))
		putUint16(data[offset+2:], uint16(int16(pd.Rocof*1000.0)))
		offset += 4
	}

	for i := 0; i < int(pmu.AnalogCount); i++ {
		if pmu.AnalogFormat == FloatingPointFormat {
			putFloat32(data[offset:], float32(pd.Analog[i]))
			offset += 4
		} else {
			putUint16(data[offset:], uint16(int16(pd.Analog[i])))
			offset += 2
		}
	}

	for i := 0; i < int(pmu.DigitalWordCount); i++ {
		putUint16(data[offset:], pd.Digital[i])
		offset += 2
	}
	return offset
}

// GenerateDataFrame emits a data frame for frame under cfg. Returns the
// bytes written, or 0 if the buffer is too small.
func GenerateDataFrame(data []byte, cfg *Config, frame *PmuDataFrame) uint16 {
	if len(data) < expectedDataFrameSize(cfg) || len(frame.Pmus) != len(cfg.Pmus) {
		return 0
	}
	generateCommonFrame(data, cfg.IDCode, PacketTypeData)
	addTimeF(data, frame.SOC, frame.FracSec, frame.TimeQuality, cfg.TimeBase)

	offset := CommonFrameSize
	for i := range frame.Pmus {
		offset += generatePmuData(data[offset:], &cfg.Pmus[i], &frame.Pmus[i])
	}
	offset += 2
	addSize(data, uint16(offset))
	addCRC(data, uint16(offset))
	return uint16(offset)
}
