package synchrophasor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderGeneration(t *testing.T) {
	cfg := NewConfig(786)
	buffer := make([]byte, 600)

	headerString := "this is a header string lalala!!!"
	size := GenerateHeader(buffer, headerString, cfg)
	require.Greater(t, int(size), 10+len(headerString))

	assert.Equal(t, uint16(786), GetIdCode(buffer[:size]))
	assert.Equal(t, PacketTypeHeader, GetPacketType(buffer[:size]))
	assert.Equal(t, headerString, ParseHeader(buffer[:size]))
	assert.Equal(t, size, GetPacketSize(buffer[:size]))
}

func TestHeaderBufferTooSmall(t *testing.T) {
	cfg := NewConfig(786)
	buffer := make([]byte, 20)
	assert.Equal(t, uint16(0), GenerateHeader(buffer, "a somewhat longer header", cfg))
}

func TestParseHeaderWrongType(t *testing.T) {
	buffer := make([]byte, 64)
	size := GenerateCommand(buffer, CommandSendHeader, 9)
	assert.Equal(t, "", ParseHeader(buffer[:size]))
}

func TestHeaderRoundTrip(t *testing.T) {
	cfg := NewConfig(12)
	cfg.SOC = 1700000000
	cfg.FracSec = 0x0A00F000

	buffer := make([]byte, 256)
	size := GenerateHeader(buffer, "station notes", cfg)
	require.NotZero(t, size)

	var frame CommonFrame
	require.Equal(t, ParseComplete, ParseCommon(buffer[:size], &frame))
	assert.Equal(t, cfg.SOC, frame.SOC)
	assert.Equal(t, cfg.FracSec, frame.FracSec)

	second := make([]byte, 256)
	size2 := GenerateHeader(second, ParseHeader(buffer[:size]), cfg)
	assert.Equal(t, buffer[:size], second[:size2])
}
