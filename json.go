package synchrophasor

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// The JSON schema accepts several spellings for a handful of fields
// (id/idcode, data_rate/datarate, time_base/timebase) and allows scalars to
// arrive as strings, numbers, or booleans. The canonical output spelling is
// idcode, data_rate, time_base, nominal_frequency; loaders accept the
// aliases.

func jsonInt(m map[string]any, def int, keys ...string) int {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return cast.ToInt(v)
		}
	}
	return def
}

func jsonFloat(m map[string]any, def float64, keys ...string) float64 {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return cast.ToFloat64(v)
		}
	}
	return def
}

func jsonString(m map[string]any, def string, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return cast.ToString(v)
		}
	}
	return def
}

// jsonMask reads a digital word mask: booleans select 0xFF or 0x00,
// anything else is taken as an explicit mask value.
func jsonMask(m map[string]any, def uint16, key string) uint16 {
	v, ok := m[key]
	if !ok {
		return def
	}
	if b, isBool := v.(bool); isBool {
		if b {
			return 0xFF
		}
		return 0x00
	}
	return uint16(cast.ToInt(v))
}

// loadJSONDocument accepts either inline JSON text or the path of a JSON
// file.
func loadJSONDocument(configStr string) (map[string]any, error) {
	text := strings.TrimSpace(configStr)
	if !strings.HasPrefix(text, "{") {
		raw, err := os.ReadFile(configStr)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		text = string(raw)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return doc, nil
}

// asRecords normalizes a value that may be a single JSON object or an array
// of objects.
func asRecords(v any) []map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return []map[string]any{t}
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, e := range t {
			if m, ok := e.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

// channelNames expands a base name according to the record count: one
// channel keeps the name, three and four channels get phase suffixes, any
// other count gets numeric suffixes.
func channelNames(name string, count int) []string {
	switch count {
	case 1:
		return []string{name}
	case 3:
		return []string{name + "-A", name + "-B", name + "-C"}
	case 4:
		return []string{name + "-A", name + "-B", name + "-C", name + "-N"}
	default:
		out := make([]string, 0, count)
		for i := 1; i <= count; i++ {
			out = append(out, name+"-"+strconv.Itoa(i))
		}
		return out
	}
}

func insertPhasorJSON(rec map[string]any, pmu *PmuConfig) {
	name := jsonString(rec, "", "name")
	count := jsonInt(rec, 1, "count")
	scale := uint32(jsonInt(rec, 0, "scale"))

	phasorType := PhasorVoltage
	switch tv := rec["type"].(type) {
	case string:
		if tv == "current" {
			phasorType = PhasorCurrent
		}
	case nil:
	default:
		phasorType = PhasorType(cast.ToInt(tv))
	}

	for _, n := range channelNames(name, count) {
		pmu.AddPhasor(n, scale, phasorType)
	}
}

func insertAnalogJSON(rec map[string]any, pmu *PmuConfig) {
	name := jsonString(rec, "", "name")
	count := jsonInt(rec, 1, "count")
	scale := int32(jsonInt(rec, 0, "scale"))

	analogType := AnalogSinglePointOnWave
	switch tv := rec["type"].(type) {
	case string:
		switch tv {
		case "peak":
			analogType = AnalogPeak
		case "rms":
			analogType = AnalogRMS
		}
	case nil:
	default:
		analogType = AnalogType(cast.ToInt(tv))
	}

	for _, n := range channelNames(name, count) {
		pmu.AddAnalog(n, scale, analogType)
	}
}

func insertDigitalJSON(rec map[string]any, pmu *PmuConfig) {
	count := jsonInt(rec, 16, "count")
	nominal := jsonMask(rec, 0, "nominal")
	active := jsonMask(rec, 0, "active")

	var bitNames []string
	var base string
	switch nv := rec["name"].(type) {
	case []any:
		for _, e := range nv {
			bitNames = append(bitNames, cast.ToString(e))
		}
	default:
		base = jsonString(rec, "", "name")
	}

	words := (count + 15) / 16
	for w := 0; w < words; w++ {
		names := make([]string, 16)
		for i := 0; i < 16; i++ {
			bit := w*16 + i
			if bit < len(bitNames) {
				names[i] = bitNames[bit]
			} else if base != "" && bit < count {
				names[i] = base + strconv.Itoa(bit)
			}
		}
		pmu.AddDigital(names, nominal, active)
	}
}

func loadPmuConfigJSON(m map[string]any) PmuConfig {
	pmu := *NewPmuConfig(jsonString(m, "", "name"), uint16(jsonInt(m, 0, "id", "idcode")))
	pmu.ChangeCount = uint16(jsonInt(m, 0, "cfgcnt"))
	pmu.Lat = float32(jsonFloat(m, 0, "lat"))
	pmu.Lon = float32(jsonFloat(m, 0, "lon"))
	pmu.Elev = float32(jsonFloat(m, 0, "elev"))

	pmu.PhasorFormat = formatFromJSON(jsonString(m, "floating_point", "phasor_format"))
	pmu.AnalogFormat = formatFromJSON(jsonString(m, "floating_point", "analog_format"))
	pmu.FreqFormat = formatFromJSON(jsonString(m, "floating_point", "frequency_format"))
	if jsonString(m, "rectangular", "phasor_coordinates") == "polar" {
		pmu.PhasorCoordinates = PolarPhasor
	}
	pmu.NominalFrequency = jsonFloat(m, 60.0, "nominal_frequency", "nominalfrequency", "fnom")

	if v, ok := m["phasor"]; ok {
		for _, rec := range asRecords(v) {
			insertPhasorJSON(rec, &pmu)
		}
	}
	if v, ok := m["analog"]; ok {
		for _, rec := range asRecords(v) {
			insertAnalogJSON(rec, &pmu)
		}
	}
	if v, ok := m["digital"]; ok {
		for _, rec := range asRecords(v) {
			insertDigitalJSON(rec, &pmu)
		}
	}
	return pmu
}

func formatFromJSON(v string) uint8 {
	if v == "integer" {
		return IntegerFormat
	}
	return FloatingPointFormat
}

// loadConfigJSON builds a Config from a parsed document. The document may
// wrap the configuration in a "config" member or be the configuration
// itself.
func loadConfigJSON(doc map[string]any) *Config {
	base := doc
	if inner, ok := doc["config"].(map[string]any); ok {
		base = inner
	}
	cfg := NewConfig(uint16(jsonInt(base, 0, "id", "idcode")))
	cfg.DataRate = int16(jsonInt(base, DefaultDataRate, "data_rate", "datarate"))
	cfg.TimeBase = uint32(jsonInt(base, DefaultTimeBase, "time_base", "timebase"))

	switch pv := base["pmu"].(type) {
	case []any:
		for _, rec := range asRecords(pv) {
			cfg.Pmus = append(cfg.Pmus, loadPmuConfigJSON(rec))
		}
	case map[string]any:
		pmu := loadPmuConfigJSON(pv)
		if pmu.SourceID == 0 {
			pmu.SourceID = cfg.IDCode
		}
		cfg.Pmus = append(cfg.Pmus, pmu)
	}
	return cfg
}

// LoadConfig loads a configuration from inline JSON text or a JSON file.
func LoadConfig(configStr string) (*Config, error) {
	doc, err := loadJSONDocument(configStr)
	if err != nil {
		return nil, err
	}
	return loadConfigJSON(doc), nil
}

func phasorChannelJSON(pmu *PmuConfig, i int) map[string]any {
	rec := map[string]any{
		"name":  pmu.PhasorNames[i],
		"scale": pmu.PhasorConversion[i],
	}
	if pmu.PhasorType[i].Disabled() {
		rec["type"] = int(pmu.PhasorType[i])
	} else {
		rec["type"] = pmu.PhasorType[i].String()
	}
	return rec
}

func analogChannelJSON(pmu *PmuConfig, i int) map[string]any {
	rec := map[string]any{
		"name":  pmu.AnalogNames[i],
		"scale": pmu.AnalogConversion[i],
	}
	if pmu.AnalogType[i].Disabled() {
		rec["type"] = int(pmu.AnalogType[i])
	} else {
		rec["type"] = pmu.AnalogType[i].String()
	}
	return rec
}

func formatToJSON(v uint8) string {
	if v == IntegerFormat {
		return "integer"
	}
	return "floating_point"
}

func pmuConfigJSON(pmu *PmuConfig) map[string]any {
	out := map[string]any{
		"name":              pmu.StationName,
		"idcode":            pmu.SourceID,
		"cfgcnt":            pmu.ChangeCount,
		"lat":               pmu.Lat,
		"lon":               pmu.Lon,
		"elev":              pmu.Elev,
		"phasor_format":     formatToJSON(pmu.PhasorFormat),
		"analog_format":     formatToJSON(pmu.AnalogFormat),
		"frequency_format":  formatToJSON(pmu.FreqFormat),
		"nominal_frequency": pmu.NominalFrequency,
	}
	if pmu.PhasorCoordinates == PolarPhasor {
		out["phasor_coordinates"] = "polar"
	} else {
		out["phasor_coordinates"] = "rectangular"
	}

	if pmu.PhasorCount > 0 {
		recs := make([]any, 0, pmu.PhasorCount)
		for i := 0; i < int(pmu.PhasorCount); i++ {
			recs = append(recs, phasorChannelJSON(pmu, i))
		}
		out["phasor"] = recs
	}
	if pmu.AnalogCount > 0 {
		recs := make([]any, 0, pmu.AnalogCount)
		for i := 0; i < int(pmu.AnalogCount); i++ {
			recs = append(recs, analogChannelJSON(pmu, i))
		}
		out["analog"] = recs
	}
	if pmu.DigitalWordCount > 0 {
		recs := make([]any, 0, pmu.DigitalWordCount)
		for w := 0; w < int(pmu.DigitalWordCount); w++ {
			names := make([]any, 16)
			for i := 0; i < 16; i++ {
				names[i] = pmu.DigitalNames[w*16+i]
			}
			recs = append(recs, map[string]any{
				"name":    names,
				"count":   16,
				"nominal": pmu.DigitalNominal[w],
				"active":  pmu.DigitalActive[w],
			})
		}
		out["digital"] = recs
	}
	return out
}

func configJSON(cfg *Config) map[string]any {
	pmus := make([]any, 0, len(cfg.Pmus))
	for i := range cfg.Pmus {
		pmus = append(pmus, pmuConfigJSON(&cfg.Pmus[i]))
	}
	return map[string]any{
		"idcode":    cfg.IDCode,
		"data_rate": cfg.DataRate,
		"time_base": cfg.TimeBase,
		"pmu":       pmus,
	}
}

// WriteConfig writes the configuration to a JSON file. Transient soc and
// fracsec values are not persisted.
func WriteConfig(configFile string, cfg *Config) error {
	doc := map[string]any{"config": configJSON(cfg)}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	raw = append(raw, '\n')
	if err := os.WriteFile(configFile, raw, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// phasorValueJSON accepts a [re, im] pair, a {"real","imag"} object, or a
// {"magnitude","angle"} object.
func phasorValueJSON(v any) complex128 {
	switch t := v.(type) {
	case []any:
		if len(t) >= 2 {
			return complex(cast.ToFloat64(t[0]), cast.ToFloat64(t[1]))
		}
	case map[string]any:
		if _, ok := t["magnitude"]; ok {
			mag := jsonFloat(t, 0, "magnitude")
			ang := jsonFloat(t, 0, "angle")
			return complex(mag*math.Cos(ang), mag*math.Sin(ang))
		}
		return complex(jsonFloat(t, 0, "real"), jsonFloat(t, 0, "imag"))
	}
	return 0
}

// loadPmuDataJSON reads one per-PMU payload record.
func loadPmuDataJSON(m map[string]any) PmuData {
	pd := PmuData{
		Stat:  Stat(jsonInt(m, 0, "stat")),
		Freq:  jsonFloat(m, 0, "freq"),
		Rocof: jsonFloat(m, 0, "rocof"),
	}
	if v, ok := m["phasor"]; ok {
		pd.Phasors = phasorListJSON(v)
	} else if v, ok := m["phasors"]; ok {
		pd.Phasors = phasorListJSON(v)
	}
	if v, ok := m["analog"].([]any); ok {
		pd.Analog = make([]float64, 0, len(v))
		for _, e := range v {
			pd.Analog = append(pd.Analog, cast.ToFloat64(e))
		}
	}
	if v, ok := m["digital"].([]any); ok {
		pd.Digital = make([]uint16, 0, len(v))
		for _, e := range v {
			pd.Digital = append(pd.Digital, uint16(cast.ToInt(e)))
		}
	}
	return pd
}

func phasorListJSON(v any) []complex128 {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]complex128, 0, len(list))
	for _, e := range list {
		out = append(out, phasorValueJSON(e))
	}
	return out
}

// loadDataFrameJSON reads one data-frame record.
func loadDataFrameJSON(m map[string]any) PmuDataFrame {
	frame := PmuDataFrame{
		IDCode:      uint16(jsonInt(m, 0, "id", "idcode")),
		TimeQuality: uint8(jsonInt(m, 0, "timequality", "time_quality")),
		SOC:         uint32(jsonInt(m, 0, "soc")),
		FracSec:     jsonFloat(m, 0, "fracsec"),
		ParseResult: NotParsed,
	}
	for _, rec := range asRecords(m["pmus"]) {
		frame.Pmus = append(frame.Pmus, loadPmuDataJSON(rec))
	}
	return frame
}

// LoadDataFile reads data frames from a JSON file or inline JSON text. The
// document holds the frames under "data" (single record or array) or a
// single seed frame under "default".
func LoadDataFile(dataFile string) ([]PmuDataFrame, error) {
	doc, err := loadJSONDocument(dataFile)
	if err != nil {
		return nil, err
	}
	if v, ok := doc["data"]; ok {
		records := asRecords(v)
		frames := make([]PmuDataFrame, 0, len(records))
		for _, rec := range records {
			frames = append(frames, loadDataFrameJSON(rec))
		}
		return frames, nil
	}
	if v, ok := doc["default"].(map[string]any); ok {
		return []PmuDataFrame{loadDataFrameJSON(v)}, nil
	}
	return nil, fmt.Errorf("no data member in %q", dataFile)
}

func pmuDataJSON(pd *PmuData) map[string]any {
	phasors := make([]any, 0, len(pd.Phasors))
	for _, p := range pd.Phasors {
		phasors = append(phasors, []any{real(p), imag(p)})
	}
	analog := make([]any, 0, len(pd.Analog))
	for _, a := range pd.Analog {
		analog = append(analog, a)
	}
	digital := make([]any, 0, len(pd.Digital))
	for _, d := range pd.Digital {
		digital = append(digital, d)
	}
	return map[string]any{
		"stat":    uint16(pd.Stat),
		"freq":    pd.Freq,
		"rocof":   pd.Rocof,
		"phasor":  phasors,
		"analog":  analog,
		"digital": digital,
	}
}

func dataFrameJSON(frame *PmuDataFrame) map[string]any {
	pmus := make([]any, 0, len(frame.Pmus))
	for i := range frame.Pmus {
		pmus = append(pmus, pmuDataJSON(&frame.Pmus[i]))
	}
	return map[string]any{
		"idcode":      frame.IDCode,
		"timequality": frame.TimeQuality,
		"soc":         frame.SOC,
		"fracsec":     frame.FracSec,
		"pmus":        pmus,
	}
}

// WriteDataFile writes data frames to a JSON file under the "data" member.
func WriteDataFile(dataFile string, frames []PmuDataFrame) error {
	records := make([]any, 0, len(frames))
	for i := range frames {
		records = append(records, dataFrameJSON(&frames[i]))
	}
	doc := map[string]any{"data": records}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding data frames: %w", err)
	}
	raw = append(raw, '\n')
	if err := os.WriteFile(dataFile, raw, 0o644); err != nil {
		return fmt.Errorf("writing data frames: %w", err)
	}
	return nil
}
