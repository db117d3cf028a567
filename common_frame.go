package synchrophasor

// CommonFrame holds the fields of the 14-byte header shared by every frame
// type.
type CommonFrame struct {
	Type      PmuPacketType
	Version   uint8
	SourceID  uint16
	ByteCount uint16
	SOC       uint32
	FracSec   uint32
	ChkSum    uint16
}

// ParseCommon validates the frame envelope and extracts the common header.
// Validation order: sync lead, declared byte count against the supplied
// buffer, then CRC over every byte preceding the trailing checksum.
func ParseCommon(data []byte, frame *CommonFrame) ParseResult {
	if len(data) < 1 || data[0] != SyncLead {
		return InvalidSync
	}
	if len(data) < CommonFrameSize+2 {
		return LengthMismatch
	}
	frame.Type = PmuPacketType(data[1] & typeMask)
	frame.Version = data[1] & versionMask
	frame.ByteCount = beUint16(data[2:])
	if frame.ByteCount < CommonFrameSize+2 || int(frame.ByteCount) > len(data) {
		return LengthMismatch
	}

	crc := CalcCRC(data[:frame.ByteCount-2])
	frame.ChkSum = beUint16(data[frame.ByteCount-2:])
	if frame.ChkSum != crc {
		return InvalidChecksum
	}

	frame.SourceID = beUint16(data[4:])
	frame.SOC = beUint32(data[6:])
	frame.FracSec = beUint32(data[10:])
	return ParseComplete
}

// GetPacketType returns the frame type without validating the checksum.
func GetPacketType(data []byte) PmuPacketType {
	if len(data) < MinPacketSize-2 || data[0] != SyncLead {
		return PacketTypeUnknown
	}
	return PmuPacketType(data[1] & typeMask)
}

// GetIdCode returns the source id of a frame, or 0 if the buffer does not
// start with a plausible frame.
func GetIdCode(data []byte) uint16 {
	if len(data) < MinPacketSize-2 || data[0] != SyncLead {
		return 0
	}
	return beUint16(data[4:])
}

// GetPacketSize returns the declared total byte count of a frame, or 0 if
// the buffer does not start with a plausible frame.
func GetPacketSize(data []byte) uint16 {
	if len(data) < MinPacketSize-2 || data[0] != SyncLead {
		return 0
	}
	return beUint16(data[2:])
}

// generateCommonFrame writes the sync lead, the type/version byte, and the
// source id. Size, time, and CRC are filled in by the specific generators
// once the total length is known.
func generateCommonFrame(data []byte, idCode uint16, packetType PmuPacketType) {
	data[0] = SyncLead
	data[1] = (uint8(packetType) & typeMask) | Version2005
	putUint16(data[4:], idCode)
}

// addTime writes raw second and fractional-second words into the common
// header.
func addTime(data []byte, soc uint32, fracSec uint32) {
	putUint32(data[6:], soc)
	putUint32(data[10:], fracSec)
}

// addTimeF composes the fractional-second word from a fraction in seconds,
// the time base, and the 8-bit time-quality field.
func addTimeF(data []byte, soc uint32, fracSec float64, timeQuality uint8, timeBase uint32) {
	word := uint32(fracSec*float64(timeBase)) & 0x00FFFFFF
	word |= uint32(timeQuality) << 24
	putUint32(data[6:], soc)
	putUint32(data[10:], word)
}

func addSize(data []byte, size uint16) {
	putUint16(data[2:], size)
}

func addCRC(data []byte, size uint16) {
	putUint16(data[size-2:], CalcCRC(data[:size-2]))
}
