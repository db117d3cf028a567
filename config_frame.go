package synchrophasor

// pmuConfigSize returns the wire size of one PMU block inside a
// configuration frame.
func pmuConfigSize(pmu *PmuConfig) int {
	size := 30 // name, id, format, counts, fnom, change count
	size += (ChannelNameSize + 4) * int(pmu.PhasorCount)
	size += (ChannelNameSize + 4) * int(pmu.AnalogCount)
	size += (16*ChannelNameSize + 4) * int(pmu.DigitalWordCount)
	return size
}

// configFrameSize returns the total wire size of a configuration frame,
// counting every PMU regardless of its active flag.
func configFrameSize(cfg *Config) int {
	size := 24 // common header, time base, pmu count, data rate, CRC
	for i := range cfg.Pmus {
		size += pmuConfigSize(&cfg.Pmus[i])
	}
	return size
}

// parsePmuConfig reads one PMU block and returns the number of bytes
// consumed, or 0 if the block would run past the buffer.
func parsePmuConfig(data []byte, pmu *PmuConfig) int {
	if len(data) < 26 {
		return 0
	}
	pmu.StationName = getName(data)
	offset := ChannelNameSize
	pmu.SourceID = beUint16(data[offset:])
	offset += 2

	pmu.setFormatWord(beUint16(data[offset:]))
	offset += 2

	pmu.PhasorCount = beUint16(data[offset:])
	pmu.AnalogCount = beUint16(data[offset+2:])
	pmu.DigitalWordCount = beUint16(data[offset+4:])
	offset += 6

	if len(data) < pmuConfigSize(pmu) {
		return 0
	}

	pmu.PhasorNames = make([]string, pmu.PhasorCount)
	for i := range pmu.PhasorNames {
		pmu.PhasorNames[i] = getName(data[offset:])
		offset += ChannelNameSize
	}
	pmu.AnalogNames = make([]string, pmu.AnalogCount)
	for i := range pmu.AnalogNames {
		pmu.AnalogNames[i] = getName(data[offset:])
		offset += ChannelNameSize
	}
	pmu.DigitalNames = make([]string, int(pmu.DigitalWordCount)*16)
	for i := range pmu.DigitalNames {
		pmu.DigitalNames[i] = getName(data[offset:])
		offset += ChannelNameSize
	}

	pmu.PhasorType = make([]PhasorType, pmu.PhasorCount)
	pmu.PhasorConversion = make([]uint32, pmu.PhasorCount)
	for i := range pmu.PhasorType {
		pmu.PhasorType[i] = PhasorType(data[offset])
		pmu.PhasorConversion[i] = uint32(data[offset+1])<<16 |
			uint32(data[offset+2])<<8 | uint32(data[offset+3])
		offset += 4
	}

	pmu.AnalogType = make([]AnalogType, pmu.AnalogCount)
	pmu.AnalogConversion = make([]int32, pmu.AnalogCount)
	for i := range pmu.AnalogType {
		// The type byte overlays the MSB of the 24-bit signed conversion.
		pmu.AnalogType[i] = AnalogType(data[offset])
		pmu.AnalogConversion[i] = interpret24BitAsInt32(beUint32(data[offset:]))
		offset += 4
	}

	pmu.DigitalNominal = make([]uint16, pmu.DigitalWordCount)
	pmu.DigitalActive = make([]uint16, pmu.DigitalWordCount)
	for i := range pmu.DigitalNominal {
		pmu.DigitalNominal[i] = beUint16(data[offset:])
		pmu.DigitalActive[i] = beUint16(data[offset+2:])
		offset += 4
	}

	// Reserved byte, then the nominal frequency flag: 1 selects 50 Hz.
	pmu.NominalFrequency = 60.0
	if data[offset+1] == 1 {
		pmu.NominalFrequency = 50.0
	}
	offset += 2

	pmu.ChangeCount = beUint16(data[offset:])
	offset += 2

	pmu.Active = true
	return offset
}

// ParseConfig1 parses a CFG-1 frame into cfg. CFG-2 frames share the layout
// and are accepted as well.
func ParseConfig1(data []byte, cfg *Config) ParseResult {
	var frame CommonFrame
	if result := ParseCommon(data, &frame); result != ParseComplete {
		return result
	}
	if frame.Type != PacketTypeConfig1 && frame.Type != PacketTypeConfig2 {
		return IncorrectType
	}
	cfg.IDCode = frame.SourceID
	cfg.SOC = frame.SOC
	cfg.FracSec = frame.FracSec

	// Byte 14 is reserved; the time base is the following 24-bit word.
	cfg.TimeBase = uint32(data[15])<<16 | uint32(data[16])<<8 | uint32(data[17])
	numPmu := beUint16(data[18:])

	cfg.Pmus = make([]PmuConfig, numPmu)
	offset := 20
	for i := range cfg.Pmus {
		used := parsePmuConfig(data[offset:], &cfg.Pmus[i])
		if used == 0 {
			return LengthMismatch
		}
		offset += used
	}
	if offset+2 > len(data) {
		return LengthMismatch
	}
	cfg.DataRate = int16(beUint16(data[offset:]))
	return ParseComplete
}

// ParseConfig2 parses a CFG-2 frame into cfg.
func ParseConfig2(data []byte, cfg *Config) ParseResult {
	return ParseConfig1(data, cfg)
}

// ParseConfig3 handles the 2011-revision CFG-3 frame.
func ParseConfig3(data []byte, cfg *Config) ParseResult {
	return NotImplemented
}

// generatePmuConfig writes one PMU block and returns the bytes written.
func generatePmuConfig(data []byte, pmu *PmuConfig) int {
	putName(data, pmu.StationName)
	offset := ChannelNameSize
	putUint16(data[offset:], pmu.SourceID)
	offset += 2

	putUint16(data[offset:], pmu.formatWord())
	offset += 2

	putUint16(data[offset:], pmu.PhasorCount)
	putUint16(data[offset+2:], pmu.AnalogCount)
	putUint16(data[offset+4:], pmu.DigitalWordCount)
	offset += 6

	for _, name := range pmu.PhasorNames {
		putName(data[offset:], name)
		offset += ChannelNameSize
	}
	for _, name := range pmu.AnalogNames {
		putName(data[offset:], name)
		offset += ChannelNameSize
	}
	for i := 0; i < int(pmu.DigitalWordCount)*16; i++ {
		if i < len(pmu.DigitalNames) {
			putName(data[offset:], pmu.DigitalNames[i])
		} else {
			putName(data[offset:], "")
		}
		offset += ChannelNameSize
	}

	for i := 0; i < int(pmu.PhasorCount); i++ {
		data[offset] = byte(pmu.PhasorType[i])
		data[offset+1] = byte(pmu.PhasorConversion[i] >> 16)
		data[offset+2] = byte(pmu.PhasorConversion[i] >> 8)
		data[offset+3] = byte(pmu.PhasorConversion[i])
		offset += 4
	}
	for i := 0; i < int(pmu.AnalogCount); i++ {
		// Big-endian signed conversion with the type byte overwriting the
		// MSB, matching the 24-bit wire encoding.
		putUint32(data[offset:], uint32(pmu.AnalogConversion[i]))
		data[offset] = byte(pmu.AnalogType[i])
		offset += 4
	}
	for i := 0; i < int(pmu.DigitalWordCount); i++ {
		putUint16(data[offset:], pmu.DigitalNominal[i])
		putUint16(data[offset+2:], pmu.DigitalActive[i])
		offset += 4
	}

	data[offset] = 0
	if pmu.NominalFrequency == 50.0 {
		data[offset+1] = 1
	} else {
		data[offset+1] = 0
	}
	offset += 2

	putUint16(data[offset:], pmu.ChangeCount)
	offset += 2
	return offset
}

// generateConfig emits a configuration frame. activeOnly selects the CFG-2
// policy of omitting inactive PMU blocks; the PMU count field and the size
// precheck always cover every PMU.
func generateConfig(data []byte, cfg *Config, packetType PmuPacketType, activeOnly bool) uint16 {
	if len(data) < configFrameSize(cfg) {
		return 0
	}
	generateCommonFrame(data, cfg.IDCode, packetType)
	addTime(data, cfg.SOC, cfg.FracSec)

	data[14] = 0
	data[15] = byte(cfg.TimeBase >> 16)
	data[16] = byte(cfg.TimeBase >> 8)
	data[17] = byte(cfg.TimeBase)
	putUint16(data[18:], uint16(len(cfg.Pmus)))

	offset := 20
	for i := range cfg.Pmus {
		if cfg.Pmus[i].Active || !activeOnly {
			offset += generatePmuConfig(data[offset:], &cfg.Pmus[i])
		}
	}

	putUint16(data[offset:], uint16(cfg.DataRate))
	offset += 2
	offset += 2 // checksum
	addSize(data, uint16(offset))
	addCRC(data, uint16(offset))
	return uint16(offset)
}

// GenerateConfig1 emits a CFG-1 frame, including inactive PMUs. Returns the
// bytes written, or 0 if the buffer is too small.
func GenerateConfig1(data []byte, cfg *Config) uint16 {
	return generateConfig(data, cfg, PacketTypeConfig1, false)
}

// GenerateConfig2 emits a CFG-2 frame, omitting inactive PMUs. Returns the
// bytes written, or 0 if the buffer is too small.
func GenerateConfig2(data []byte, cfg *Config) uint16 {
	return generateConfig(data, cfg, PacketTypeConfig2, true)
}

// GenerateConfig3 handles the 2011-revision CFG-3 frame.
func GenerateConfig3(data []byte, cfg *Config) uint16 {
	return 0
}
