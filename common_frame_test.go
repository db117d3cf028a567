package synchrophasor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommonCommandFrame(t *testing.T) {
	buffer := make([]byte, 64)
	size := GenerateCommand(buffer, CommandSendConfig2, 961)
	require.Equal(t, uint16(18), size)

	var frame CommonFrame
	assert.Equal(t, ParseComplete, ParseCommon(buffer[:size], &frame))
	assert.Equal(t, PacketTypeCommand, frame.Type)
	assert.Equal(t, uint8(Version2005), frame.Version)
	assert.Equal(t, uint16(961), frame.SourceID)
	assert.Equal(t, uint16(18), frame.ByteCount)
}

func TestParseCommonInvalidSync(t *testing.T) {
	buffer := make([]byte, 64)
	size := GenerateCommand(buffer, CommandDataOn, 7)
	buffer[0] = 0xAB

	var frame CommonFrame
	assert.Equal(t, InvalidSync, ParseCommon(buffer[:size], &frame))
}

func TestParseCommonLengthMismatch(t *testing.T) {
	buffer := make([]byte, 64)
	size := GenerateCommand(buffer, CommandDataOn, 7)

	var frame CommonFrame
	assert.Equal(t, LengthMismatch, ParseCommon(buffer[:size-1], &frame))
}

func TestParseCommonTamperedFrame(t *testing.T) {
	buffer := make([]byte, 64)
	size := GenerateCommand(buffer, CommandSendHeader, 4242)

	// Flipping any byte without recomputing the CRC must be rejected.
	for i := 0; i < int(size); i++ {
		tampered := append([]byte(nil), buffer[:size]...)
		tampered[i] ^= 0x40

		var frame CommonFrame
		result := ParseCommon(tampered, &frame)
		switch i {
		case 0:
			assert.Equal(t, InvalidSync, result, "byte %d", i)
		case 2, 3:
			// size bytes: either the length or the checksum check trips
			assert.NotEqual(t, ParseComplete, result, "byte %d", i)
		default:
			assert.Equal(t, InvalidChecksum, result, "byte %d", i)
		}
	}
}

func TestPacketAccessors(t *testing.T) {
	buffer := make([]byte, 64)
	size := GenerateCommand(buffer, CommandDataOff, 1234)

	assert.Equal(t, PacketTypeCommand, GetPacketType(buffer[:size]))
	assert.Equal(t, uint16(1234), GetIdCode(buffer[:size]))
	assert.Equal(t, size, GetPacketSize(buffer[:size]))

	// too short or wrong lead byte
	assert.Equal(t, PacketTypeUnknown, GetPacketType(buffer[:8]))
	assert.Equal(t, uint16(0), GetIdCode(buffer[:8]))
	assert.Equal(t, uint16(0), GetPacketSize(buffer[:8]))

	buffer[0] = 0x00
	assert.Equal(t, PacketTypeUnknown, GetPacketType(buffer[:size]))
}

func TestCRCLaw(t *testing.T) {
	// A frame whose trailing two bytes hold the CRC of everything before
	// them passes common parsing.
	frame := make([]byte, 24)
	frame[0] = SyncLead
	frame[1] = uint8(PacketTypeHeader) | Version2005
	putUint16(frame[2:], 24)
	putUint16(frame[4:], 55)
	copy(frame[14:], "01234567")
	putUint16(frame[22:], CalcCRC(frame[:22]))

	var cf CommonFrame
	assert.Equal(t, ParseComplete, ParseCommon(frame, &cf))
	assert.Equal(t, uint16(55), cf.SourceID)
}
