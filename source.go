package synchrophasor

import (
	"fmt"
	"time"
)

// Source produces data frames for a PMU. Implementations vary: stable
// (fixed payload), modulated, or network-backed.
type Source interface {
	// LoadConfig populates the configuration from inline JSON or a file.
	LoadConfig(configStr string) error
	// SetConfig replaces the configuration.
	SetConfig(cfg Config)
	// GetConfig returns the governing configuration.
	GetConfig() *Config
	// FillDataFrame populates frame with the payload for the given instant.
	FillDataFrame(frame *PmuDataFrame, now time.Time)
}

// StableSource replays a fixed seed payload, restamping the time codes on
// every tick. Sufficient for protocol round-trip testing and emulation.
type StableSource struct {
	config     Config
	stableData PmuDataFrame
	// Tolerance is the clock accuracy in seconds used to derive the
	// time-quality code.
	Tolerance float64
}

// NewStableSource returns an empty stable source.
func NewStableSource() *StableSource {
	return &StableSource{}
}

// LoadConfig loads the configuration and, when the document carries a
// "default" or "data" member, the seed data frame.
func (s *StableSource) LoadConfig(configStr string) error {
	doc, err := loadJSONDocument(configStr)
	if err != nil {
		return err
	}
	s.config = *loadConfigJSON(doc)

	if v, ok := doc["default"].(map[string]any); ok {
		s.stableData = loadDataFrameJSON(v)
		return nil
	}
	if v, ok := doc["data"]; ok {
		records := asRecords(v)
		if len(records) == 0 {
			return fmt.Errorf("empty data member in source configuration")
		}
		s.stableData = loadDataFrameJSON(records[0])
	}
	return nil
}

// SetConfig replaces the configuration.
func (s *StableSource) SetConfig(cfg Config) {
	s.config = cfg
}

// GetConfig returns the governing configuration.
func (s *StableSource) GetConfig() *Config {
	return &s.config
}

// SetData replaces the seed data frame.
func (s *StableSource) SetData(data PmuDataFrame) {
	s.stableData = data
}

// FillDataFrame copies the seed payload into frame and restamps its time
// codes for the given instant.
func (s *StableSource) FillDataFrame(frame *PmuDataFrame, now time.Time) {
	*frame = s.stableData.Clone()
	soc, fracWord := GenerateTimeCodes(now, s.config.TimeBase, s.Tolerance)
	frame.SOC = soc
	frame.TimeQuality = uint8(fracWord >> 24)
	frame.FracSec = float64(fracWord&0x00FFFFFF) / float64(s.config.TimeBase)
}
