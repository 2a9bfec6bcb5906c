package device

import (
	"fmt"
	"strings"
)

// SensorType identifies the kind of sensor seated on a hardware port.
// The set is closed: adding a kind means adding a table entry here, and
// everything downstream (classification, schema building, frame
// conversion) picks it up from the table.
type SensorType int

// Supported sensor kinds. Unknown is the zero value so an unclassified
// port never silently borrows another kind's conversion rules.
const (
	Unknown SensorType = iota
	EMG
	ECG
	EDA
	RSP
	SpO2
	ACC
)

// typeInfo is the static metadata attached to each sensor kind.
// suffixes determines output arity: one output channel per suffix, with
// the empty suffix meaning the channel is named after the kind alone.
type typeInfo struct {
	name     string
	suffixes []string
}

var typeTable = map[SensorType]typeInfo{
	Unknown: {name: "Unknown", suffixes: []string{""}},
	EMG:     {name: "EMG", suffixes: []string{""}},
	ECG:     {name: "ECG", suffixes: []string{""}},
	EDA:     {name: "EDA", suffixes: []string{""}},
	RSP:     {name: "RSP", suffixes: []string{""}},
	SpO2:    {name: "SpO2", suffixes: []string{"RED", "IR"}},
	ACC:     {name: "ACC", suffixes: []string{"X", "Y", "Z"}},
}

// vendorCodes maps the hub's reported sensor type codes to supported
// kinds. Codes the bridge does not support (EEG, GYRO, MAG, PZT, TEMP,
// PPG) are absent and classify as Unknown.
var vendorCodes = map[int]SensorType{
	0:  EMG,
	1:  ECG,
	2:  EDA,
	4:  ACC,
	7:  RSP,
	69: SpO2,
}

// String returns the display name of the sensor kind.
func (t SensorType) String() string {
	if info, ok := typeTable[t]; ok {
		return info.name
	}
	return fmt.Sprintf("SensorType(%d)", int(t))
}

// Valid reports whether t is a member of the supported set.
func (t SensorType) Valid() bool {
	_, ok := typeTable[t]
	return ok
}

// Arity returns how many output channels one port of this kind expands to.
func (t SensorType) Arity() int {
	if info, ok := typeTable[t]; ok {
		return len(info.suffixes)
	}
	return 1
}

// Suffixes returns a copy of the channel name suffixes for this kind,
// in output order. Single-valued kinds return one empty suffix.
func (t SensorType) Suffixes() []string {
	info, ok := typeTable[t]
	if !ok {
		return []string{""}
	}
	out := make([]string, len(info.suffixes))
	copy(out, info.suffixes)
	return out
}

// ChannelNames returns the output channel names for one port of this
// kind: the kind name alone for single-valued kinds, or name_SUFFIX per
// derived value (SpO2_RED, ACC_X, ...).
func (t SensorType) ChannelNames() []string {
	info, ok := typeTable[t]
	if !ok {
		return []string{t.String()}
	}
	names := make([]string, len(info.suffixes))
	for i, suffix := range info.suffixes {
		if suffix == "" {
			names[i] = info.name
		} else {
			names[i] = info.name + "_" + suffix
		}
	}
	return names
}

// Expand appends the derived per-channel values for one raw port value
// to dst and returns the extended slice. SpO2 ports deliver RED and IR
// packed as the low and high 16 bits of one word; ACC ports deliver X,
// Y and Z packed as three consecutive bytes. All other kinds pass the
// raw value through unchanged.
func (t SensorType) Expand(raw float64, dst []float64) []float64 {
	switch t {
	case SpO2:
		v := uint32(raw)
		return append(dst, float64(v&0xFFFF), float64((v>>16)&0xFFFF))
	case ACC:
		v := uint32(raw)
		return append(dst, float64(v&0xFF), float64((v>>8)&0xFF), float64((v>>16)&0xFF))
	default:
		return append(dst, raw)
	}
}

// VendorCode returns the hub's wire code for this kind, when one
// exists. Kinds the hub never reports directly (Unknown) have none.
func (t SensorType) VendorCode() (int, bool) {
	for code, kind := range vendorCodes {
		if kind == t {
			return code, true
		}
	}
	return -1, false
}

// ParseSensorType resolves a kind by its display name, case-insensitively.
// Used by manual channel overrides coming from configuration.
func ParseSensorType(name string) (SensorType, error) {
	for t, info := range typeTable {
		if strings.EqualFold(info.name, name) {
			return t, nil
		}
	}
	return Unknown, fmt.Errorf("unknown sensor type %q", name)
}

// classifyVendorCode resolves a vendor-reported sensor code, returning
// Unknown for codes outside the supported set or the unset marker (-1).
func classifyVendorCode(code int) SensorType {
	if t, ok := vendorCodes[code]; ok {
		return t
	}
	return Unknown
}
