package synchrophasor

const commandLocation = CommonFrameSize
const commandFrameSize = 18

// ParseCommand validates a command frame and returns its command code, or
// CommandUnknown on any failure.
func ParseCommand(data []byte) PmuCommand {
	var frame CommonFrame
	if ParseCommon(data, &frame) != ParseComplete {
		return CommandUnknown
	}
	if frame.Type != PacketTypeCommand {
		return CommandUnknown
	}
	return PmuCommand(beUint16(data[commandLocation:]))
}

// GenerateCommand emits the fixed 18-byte command frame with the given
// source id and zeroed time fields. Returns the bytes written, or 0 if the
// buffer is too small.
func GenerateCommand(data []byte, command PmuCommand, idCode uint16) uint16 {
	if len(data) < commandFrameSize {
		return 0
	}
	generateCommonFrame(data, idCode, PacketTypeCommand)
	addTime(data, 0, 0)
	putUint16(data[commandLocation:], uint16(command))
	addSize(data, commandFrameSize)
	addCRC(data, commandFrameSize)
	return commandFrameSize
}

// GenerateExtendedFrame emits a command frame carrying the extended command
// code followed by frameData verbatim. Returns the bytes written, or 0 if
// the buffer is too small.
func GenerateExtendedFrame(data []byte, frameData []byte, idCode uint16) uint16 {
	size := commandFrameSize + len(frameData)
	if len(data) < size {
		return 0
	}
	generateCommonFrame(data, idCode, PacketTypeCommand)
	addTime(data, 0, 0)
	putUint16(data[commandLocation:], uint16(CommandExtended))
	copy(data[commandLocation+2:], frameData)
	addSize(data, uint16(size))
	addCRC(data, uint16(size))
	return uint16(size)
}

// GetExtendedData returns the payload of an extended command frame, or nil
// if the frame is not a valid extended command.
func GetExtendedData(data []byte) []byte {
	var frame CommonFrame
	if ParseCommon(data, &frame) != ParseComplete {
		return nil
	}
	if frame.Type != PacketTypeCommand {
		return nil
	}
	if PmuCommand(beUint16(data[commandLocation:])) != CommandExtended {
		return nil
	}
	out := make([]byte, frame.ByteCount-commandFrameSize)
	copy(out, data[commandLocation+2:frame.ByteCount-2])
	return out
}
