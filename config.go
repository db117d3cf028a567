package synchrophasor

// PmuConfig holds the per-PMU channel layout and metadata carried by a
// configuration frame.
type PmuConfig struct {
	SourceID    uint16
	StationName string

	// Format flags: IntegerFormat or FloatingPointFormat for the sample
	// encodings, RectangularPhasor or PolarPhasor for the coordinate system.
	FreqFormat        uint8
	AnalogFormat      uint8
	PhasorFormat      uint8
	PhasorCoordinates uint8

	PhasorCount      uint16
	AnalogCount      uint16
	DigitalWordCount uint16

	PhasorNames  []string
	AnalogNames  []string
	DigitalNames []string // 16 names per digital word, one per bit

	PhasorType       []PhasorType
	PhasorConversion []uint32 // low 24 bits meaningful on the wire
	AnalogType       []AnalogType
	AnalogConversion []int32 // 24-bit signed on the wire
	DigitalNominal   []uint16
	DigitalActive    []uint16

	NominalFrequency float64 // 50.0 or 60.0
	ChangeCount      uint16

	// Active PMUs are included in CFG-2 output; CFG-1 always emits all.
	Active bool

	// Location metadata carried only by the JSON representation (and the
	// CFG-3 frame of the 2011 revision).
	Lat  float32
	Lon  float32
	Elev float32
}

// NewPmuConfig returns an active PMU configuration with the given identity
// and a 60 Hz nominal frequency.
func NewPmuConfig(name string, sourceID uint16) *PmuConfig {
	return &PmuConfig{
		SourceID:         sourceID,
		StationName:      name,
		NominalFrequency: 60.0,
		Active:           true,
	}
}

// AddPhasor appends a phasor channel.
func (p *PmuConfig) AddPhasor(name string, conversion uint32, phasorType PhasorType) {
	p.PhasorNames = append(p.PhasorNames, name)
	p.PhasorType = append(p.PhasorType, phasorType)
	p.PhasorConversion = append(p.PhasorConversion, conversion&0x00FFFFFF)
	p.PhasorCount++
}

// AddAnalog appends an analog channel.
func (p *PmuConfig) AddAnalog(name string, conversion int32, analogType AnalogType) {
	p.AnalogNames = append(p.AnalogNames, name)
	p.AnalogType = append(p.AnalogType, analogType)
	p.AnalogConversion = append(p.AnalogConversion, conversion)
	p.AnalogCount++
}

// AddDigital appends one 16-bit digital word. names supplies up to 16 bit
// labels; missing labels are stored empty.
func (p *PmuConfig) AddDigital(names []string, nominal, active uint16) {
	for i := 0; i < 16; i++ {
		if i < len(names) {
			p.DigitalNames = append(p.DigitalNames, names[i])
		} else {
			p.DigitalNames = append(p.DigitalNames, "")
		}
	}
	p.DigitalNominal = append(p.DigitalNominal, nominal)
	p.DigitalActive = append(p.DigitalActive, active)
	p.DigitalWordCount++
}

// formatWord packs the four format flags into the wire format word.
func (p *PmuConfig) formatWord() uint16 {
	var format uint16
	if p.FreqFormat == FloatingPointFormat {
		format |= 0b1000
	}
	if p.AnalogFormat == FloatingPointFormat {
		format |= 0b0100
	}
	if p.PhasorFormat == FloatingPointFormat {
		format |= 0b0010
	}
	if p.PhasorCoordinates == PolarPhasor {
		format |= 0b0001
	}
	return format
}

// setFormatWord unpacks the wire format word into the four format flags.
func (p *PmuConfig) setFormatWord(format uint16) {
	p.FreqFormat = IntegerFormat
	p.AnalogFormat = IntegerFormat
	p.PhasorFormat = IntegerFormat
	p.PhasorCoordinates = RectangularPhasor
	if format&0b1000 != 0 {
		p.FreqFormat = FloatingPointFormat
	}
	if format&0b0100 != 0 {
		p.AnalogFormat = FloatingPointFormat
	}
	if format&0b0010 != 0 {
		p.PhasorFormat = FloatingPointFormat
	}
	if format&0b0001 != 0 {
		p.PhasorCoordinates = PolarPhasor
	}
}

// Config is the station-level configuration: global timing parameters plus
// an ordered sequence of PMU configurations.
type Config struct {
	IDCode   uint16
	DataRate int16  // positive: frames/s, negative: seconds/frame
	TimeBase uint32 // fractional-second ticks per second, low 24 bits

	// Transient time fields copied from the most recent configuration
	// frame; FracSec carries the time-quality flags in its high byte.
	SOC     uint32
	FracSec uint32

	Pmus []PmuConfig
}

// NewConfig returns a configuration with protocol defaults.
func NewConfig(idCode uint16) *Config {
	return &Config{
		IDCode:   idCode,
		DataRate: DefaultDataRate,
		TimeBase: DefaultTimeBase,
	}
}

// AddPmu appends a PMU configuration.
func (c *Config) AddPmu(pmu *PmuConfig) {
	c.Pmus = append(c.Pmus, *pmu)
}

// PmuByIDCode returns the PMU configuration with the given source id, or
// nil.
func (c *Config) PmuByIDCode(sourceID uint16) *PmuConfig {
	for i := range c.Pmus {
		if c.Pmus[i].SourceID == sourceID {
			return &c.Pmus[i]
		}
	}
	return nil
}
