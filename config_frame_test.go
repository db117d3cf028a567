package synchrophasor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// singlePmuConfig mirrors a typical single-station CFG-2 with four phasors.
func singlePmuConfig() *Config {
	cfg := NewConfig(961)
	cfg.DataRate = 30
	cfg.TimeBase = 1000000
	cfg.SOC = 1149580800
	cfg.FracSec = 0x00463021

	pmu := NewPmuConfig("Station A", 961)
	pmu.PhasorFormat = IntegerFormat
	pmu.PhasorCoordinates = PolarPhasor
	pmu.FreqFormat = IntegerFormat
	pmu.AnalogFormat = IntegerFormat
	pmu.ChangeCount = 22
	pmu.AddPhasor("VA", 915527, PhasorVoltage)
	pmu.AddPhasor("VB", 915527, PhasorVoltage)
	pmu.AddPhasor("VC", 915527, PhasorVoltage)
	pmu.AddPhasor("I1", 45776, PhasorCurrent)
	pmu.AddAnalog("ANALOG1", 1, AnalogSinglePointOnWave)
	pmu.AddDigital([]string{
		"BREAKER 1 STATUS", "BREAKER 2 STATUS", "BREAKER 3 STATUS",
		"BREAKER 4 STATUS", "BREAKER 5 STATUS", "BREAKER 6 STATUS",
		"BREAKER 7 STATUS", "BREAKER 8 STATUS", "BREAKER 9 STATUS",
		"BREAKER A STATUS", "BREAKER B STATUS", "BREAKER C STATUS",
		"BREAKER D STATUS", "BREAKER E STATUS", "BREAKER F STATUS",
		"BREAKER G STATUS",
	}, 0x0000, 0xFFFF)
	cfg.AddPmu(pmu)
	return cfg
}

// fourPmuConfig mirrors a four-station aggregate whose CFG-2 spans more
// than one transport read.
func fourPmuConfig() *Config {
	cfg := NewConfig(7734)
	cfg.DataRate = 25
	cfg.TimeBase = 1000000

	for i := 0; i < 4; i++ {
		pmu := NewPmuConfig("PMU "+string(rune('1'+i)), uint16(100+i))
		pmu.PhasorFormat = FloatingPointFormat
		pmu.FreqFormat = FloatingPointFormat
		pmu.AnalogFormat = FloatingPointFormat
		pmu.NominalFrequency = 50.0
		pmu.AddPhasor("VA", 0, PhasorVoltage)
		pmu.AddPhasor("VB", 0, PhasorVoltage)
		pmu.AddPhasor("VC", 0, PhasorVoltage)
		pmu.AddDigital(nil, 0, 0xFFFF)
		cfg.AddPmu(pmu)
	}
	return cfg
}

func TestConfig2RoundTrip(t *testing.T) {
	cfg := singlePmuConfig()
	buffer := make([]byte, 1024)
	size := GenerateConfig2(buffer, cfg)
	require.NotZero(t, size)
	assert.Equal(t, size, GetPacketSize(buffer[:size]))
	assert.Equal(t, PacketTypeConfig2, GetPacketType(buffer[:size]))

	var parsed Config
	require.Equal(t, ParseComplete, ParseConfig2(buffer[:size], &parsed))
	assert.Equal(t, uint16(961), parsed.IDCode)
	assert.Equal(t, int16(30), parsed.DataRate)
	assert.Equal(t, uint32(1000000), parsed.TimeBase)
	assert.Equal(t, cfg.SOC, parsed.SOC)
	assert.Equal(t, cfg.FracSec, parsed.FracSec)
	require.Len(t, parsed.Pmus, 1)

	pmu := parsed.Pmus[0]
	assert.Equal(t, "Station A", pmu.StationName)
	assert.Equal(t, uint16(4), pmu.PhasorCount)
	assert.Equal(t, uint16(1), pmu.AnalogCount)
	assert.Equal(t, uint16(1), pmu.DigitalWordCount)
	assert.Equal(t, uint8(PolarPhasor), pmu.PhasorCoordinates)
	assert.Equal(t, uint8(IntegerFormat), pmu.PhasorFormat)
	assert.Equal(t, []string{"VA", "VB", "VC", "I1"}, pmu.PhasorNames)
	assert.Equal(t, PhasorCurrent, pmu.PhasorType[3])
	assert.Equal(t, uint32(915527), pmu.PhasorConversion[0])
	assert.Equal(t, uint16(0xFFFF), pmu.DigitalActive[0])
	assert.Equal(t, 60.0, pmu.NominalFrequency)
	assert.Equal(t, uint16(22), pmu.ChangeCount)

	// re-emission reproduces the original frame byte for byte
	second := make([]byte, 1024)
	size2 := GenerateConfig2(second, &parsed)
	require.Equal(t, size, size2)
	assert.Equal(t, buffer[:size], second[:size2])
}

func TestConfig1RoundTrip(t *testing.T) {
	cfg := fourPmuConfig()
	buffer := make([]byte, 4096)
	size := GenerateConfig1(buffer, cfg)
	require.NotZero(t, size)
	assert.Equal(t, PacketTypeConfig1, GetPacketType(buffer[:size]))

	var parsed Config
	require.Equal(t, ParseComplete, ParseConfig1(buffer[:size], &parsed))
	require.Len(t, parsed.Pmus, 4)
	assert.Equal(t, 50.0, parsed.Pmus[0].NominalFrequency)
	assert.Equal(t, uint16(3), parsed.Pmus[2].PhasorCount)

	second := make([]byte, 4096)
	size2 := GenerateConfig1(second, &parsed)
	assert.Equal(t, buffer[:size], second[:size2])
}

func TestConfigBufferTooSmall(t *testing.T) {
	cfg := fourPmuConfig()
	needed := configFrameSize(cfg)

	buffer := make([]byte, needed-1)
	assert.Equal(t, uint16(0), GenerateConfig2(buffer, cfg))

	buffer = make([]byte, needed)
	assert.Equal(t, uint16(needed), GenerateConfig2(buffer, cfg))
}

func TestConfigReassembly(t *testing.T) {
	// A configuration split across two transport reads parses once the
	// caller concatenates the pieces.
	cfg := fourPmuConfig()
	buffer := make([]byte, 4096)
	size := GenerateConfig2(buffer, cfg)
	require.NotZero(t, size)

	split := int(size) / 2
	var parsed Config
	assert.Equal(t, LengthMismatch, ParseConfig2(buffer[:split], &parsed))

	reassembled := append(append([]byte(nil), buffer[:split]...), buffer[split:size]...)
	require.Equal(t, ParseComplete, ParseConfig2(reassembled, &parsed))
	require.Len(t, parsed.Pmus, 4)
	assert.Equal(t, uint16(3), parsed.Pmus[0].PhasorCount)
	assert.Equal(t, uint16(1), parsed.Pmus[0].DigitalWordCount)
}

func TestConfig2OmitsInactivePmus(t *testing.T) {
	cfg := fourPmuConfig()
	cfg.Pmus[3].Active = false

	buffer := make([]byte, 4096)
	full := GenerateConfig1(buffer, cfg)
	require.NotZero(t, full)

	second := make([]byte, 4096)
	activeOnly := GenerateConfig2(second, cfg)
	require.NotZero(t, activeOnly)

	omitted := pmuConfigSize(&cfg.Pmus[3])
	assert.Equal(t, int(full)-omitted, int(activeOnly))

	// CFG-1 always carries every PMU
	var parsed Config
	require.Equal(t, ParseComplete, ParseConfig1(buffer[:full], &parsed))
	assert.Len(t, parsed.Pmus, 4)
}

func TestParseConfigWrongType(t *testing.T) {
	buffer := make([]byte, 64)
	size := GenerateCommand(buffer, CommandSendConfig2, 1)

	var cfg Config
	assert.Equal(t, IncorrectType, ParseConfig2(buffer[:size], &cfg))
}

func TestConfig3NotImplemented(t *testing.T) {
	var cfg Config
	assert.Equal(t, NotImplemented, ParseConfig3(nil, &cfg))
	assert.Equal(t, uint16(0), GenerateConfig3(make([]byte, 4096), singlePmuConfig()))
}

func TestConfigTimeBaseEncoding(t *testing.T) {
	cfg := singlePmuConfig()
	cfg.TimeBase = 0x123456

	buffer := make([]byte, 1024)
	size := GenerateConfig2(buffer, cfg)
	require.NotZero(t, size)
	assert.Equal(t, []byte{0x00, 0x12, 0x34, 0x56}, buffer[14:18])

	var parsed Config
	require.Equal(t, ParseComplete, ParseConfig2(buffer[:size], &parsed))
	assert.Equal(t, uint32(0x123456), parsed.TimeBase)
}

func TestAnalogConversionSigned24Bit(t *testing.T) {
	cfg := NewConfig(5)
	pmu := NewPmuConfig("neg conv", 5)
	pmu.AddAnalog("A1", -5, AnalogRMS)
	pmu.AddAnalog("A2", 8388607, AnalogPeak)
	cfg.AddPmu(pmu)

	buffer := make([]byte, 1024)
	size := GenerateConfig2(buffer, cfg)
	require.NotZero(t, size)

	var parsed Config
	require.Equal(t, ParseComplete, ParseConfig2(buffer[:size], &parsed))
	assert.Equal(t, int32(-5), parsed.Pmus[0].AnalogConversion[0])
	assert.Equal(t, AnalogRMS, parsed.Pmus[0].AnalogType[0])
	assert.Equal(t, int32(8388607), parsed.Pmus[0].AnalogConversion[1])
	assert.Equal(t, AnalogPeak, parsed.Pmus[0].AnalogType[1])
}

func TestStationNameTruncation(t *testing.T) {
	cfg := NewConfig(5)
	pmu := NewPmuConfig("a station name well beyond sixteen bytes", 5)
	pmu.AddPhasor("a phasor name also beyond sixteen", 1, PhasorVoltage)
	cfg.AddPmu(pmu)

	buffer := make([]byte, 1024)
	size := GenerateConfig2(buffer, cfg)
	require.NotZero(t, size)

	var parsed Config
	require.Equal(t, ParseComplete, ParseConfig2(buffer[:size], &parsed))
	assert.Equal(t, "a station name w", parsed.Pmus[0].StationName)
	assert.Equal(t, "a phasor name al", parsed.Pmus[0].PhasorNames[0])
}
