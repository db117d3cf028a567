package synchrophasor

import (
	"math"
	"math/cmplx"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threePhaseConfig(idCode uint16) Config {
	cfg := *NewConfig(idCode)
	pmu := NewPmuConfig("testPMU1", idCode)
	pmu.PhasorFormat = FloatingPointFormat
	pmu.FreqFormat = FloatingPointFormat
	pmu.ChangeCount = 1
	pmu.AddPhasor("V1-A", 1, PhasorVoltage)
	pmu.AddPhasor("V1-B", 1, PhasorVoltage)
	pmu.AddPhasor("V2-B", 1, PhasorVoltage)
	cfg.AddPmu(pmu)
	return cfg
}

func threePhaseFrame(idCode uint16) PmuDataFrame {
	return PmuDataFrame{
		IDCode: idCode,
		Pmus: []PmuData{{
			Stat:  0,
			Freq:  60.0,
			Rocof: 0.0,
			Phasors: []complex128{
				cmplx.Rect(120.0, 0),
				cmplx.Rect(120.0, 2.0*math.Pi/3.0),
				cmplx.Rect(120.0, 4.0*math.Pi/3.0),
			},
		}},
	}
}

func TestStableSource(t *testing.T) {
	src := NewStableSource()
	src.SetConfig(threePhaseConfig(10))
	assert.Equal(t, uint16(10), src.GetConfig().IDCode)

	seed := threePhaseFrame(10)
	src.SetData(seed)

	now := time.Now()

	var pdf PmuDataFrame
	src.FillDataFrame(&pdf, now)

	assert.Equal(t, seed.IDCode, pdf.IDCode)
	require.Len(t, pdf.Pmus, len(seed.Pmus))
	require.Len(t, pdf.Pmus[0].Phasors, 3)
	for i := range seed.Pmus[0].Phasors {
		assert.InDelta(t, real(seed.Pmus[0].Phasors[i]), real(pdf.Pmus[0].Phasors[i]), 1e-9)
		assert.InDelta(t, imag(seed.Pmus[0].Phasors[i]), imag(pdf.Pmus[0].Phasors[i]), 1e-9)
	}
	assert.Equal(t, seed.Pmus[0].Freq, pdf.Pmus[0].Freq)
	assert.Equal(t, seed.Pmus[0].Rocof, pdf.Pmus[0].Rocof)
	assert.Equal(t, uint32(now.Unix()), pdf.SOC)

	firstSOC := pdf.SOC
	src.FillDataFrame(&pdf, now.Add(2*time.Second))

	assert.Equal(t, seed.IDCode, pdf.IDCode)
	require.Len(t, pdf.Pmus[0].Phasors, 3)
	for i := range seed.Pmus[0].Phasors {
		assert.InDelta(t, real(seed.Pmus[0].Phasors[i]), real(pdf.Pmus[0].Phasors[i]), 1e-9)
		assert.InDelta(t, imag(seed.Pmus[0].Phasors[i]), imag(pdf.Pmus[0].Phasors[i]), 1e-9)
	}
	assert.Equal(t, firstSOC+2, pdf.SOC)
}

func TestStableSourcePayloadIsolated(t *testing.T) {
	// a filled frame can be mutated without disturbing the seed
	src := NewStableSource()
	src.SetConfig(threePhaseConfig(10))
	src.SetData(threePhaseFrame(10))

	var pdf PmuDataFrame
	src.FillDataFrame(&pdf, time.Now())
	pdf.Pmus[0].Phasors[0] = complex(0, 0)
	pdf.Pmus[0].Freq = 0

	var second PmuDataFrame
	src.FillDataFrame(&second, time.Now())
	assert.InDelta(t, 120.0, real(second.Pmus[0].Phasors[0]), 1e-9)
	assert.Equal(t, 60.0, second.Pmus[0].Freq)
}

func TestStableSourceLoadConfig(t *testing.T) {
	src := NewStableSource()
	err := src.LoadConfig(`{
		"config": {"idcode": 10, "data_rate": 30, "time_base": 1000000,
			"pmu": {"name": "testPMU1",
				"phasor_format": "floating_point",
				"frequency_format": "floating_point",
				"phasor": {"name": "V1", "count": 3, "type": "voltage", "scale": 1}}},
		"default": {"idcode": 10, "pmus": [{
			"stat": 0, "freq": 60, "rocof": 0,
			"phasor": [{"magnitude": 120, "angle": 0},
			           {"magnitude": 120, "angle": 2.0943951},
			           {"magnitude": 120, "angle": 4.1887902}]
		}]}
	}`)
	require.NoError(t, err)

	cfg := src.GetConfig()
	assert.Equal(t, uint16(10), cfg.IDCode)
	require.Len(t, cfg.Pmus, 1)
	assert.Equal(t, uint16(3), cfg.Pmus[0].PhasorCount)

	var pdf PmuDataFrame
	src.FillDataFrame(&pdf, time.Unix(1700000000, 250000000))
	assert.Equal(t, uint32(1700000000), pdf.SOC)
	assert.InDelta(t, 0.25, pdf.FracSec, 1e-6)
	require.Len(t, pdf.Pmus, 1)
	assert.InDelta(t, 120.0, real(pdf.Pmus[0].Phasors[0]), 1e-6)
	assert.InDelta(t, -60.0, real(pdf.Pmus[0].Phasors[1]), 1e-4)

	// the filled frames also emit as valid data frames
	buffer := make([]byte, 256)
	size := GenerateDataFrame(buffer, cfg, &pdf)
	require.NotZero(t, size)
	parsed := ParseDataFrame(buffer[:size], cfg)
	assert.Equal(t, ParseComplete, parsed.ParseResult)
}

func TestStableSourceLoadConfigDataMember(t *testing.T) {
	src := NewStableSource()
	err := src.LoadConfig(`{
		"config": {"idcode": 5, "pmu": {"name": "P",
			"phasor": {"name": "V", "scale": 1}}},
		"data": [{"idcode": 5, "pmus": [{"freq": 50, "phasor": [[1, 2]]}]}]
	}`)
	require.NoError(t, err)

	var pdf PmuDataFrame
	src.FillDataFrame(&pdf, time.Now())
	assert.Equal(t, uint16(5), pdf.IDCode)
	assert.Equal(t, 50.0, pdf.Pmus[0].Freq)
	assert.Equal(t, complex(1, 2), pdf.Pmus[0].Phasors[0])
}
