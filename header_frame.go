package synchrophasor

// ParseHeader validates a header frame and returns its body, or the empty
// string on any failure.
func ParseHeader(data []byte) string {
	var frame CommonFrame
	if ParseCommon(data, &frame) != ParseComplete {
		return ""
	}
	if frame.Type != PacketTypeHeader {
		return ""
	}
	return string(data[CommonFrameSize : frame.ByteCount-2])
}

// GenerateHeader emits a header frame whose body is header, stamped with the
// configuration's transient time fields. Returns the bytes written, or 0 if
// the buffer is too small.
func GenerateHeader(data []byte, header string, cfg *Config) uint16 {
	size := CommonFrameSize + len(header) + 2
	if len(data) < size {
		return 0
	}
	generateCommonFrame(data, cfg.IDCode, PacketTypeHeader)
	addTime(data, cfg.SOC, cfg.FracSec)
	copy(data[CommonFrameSize:], header)
	addSize(data, uint16(size))
	addCRC(data, uint16(size))
	return uint16(size)
}
