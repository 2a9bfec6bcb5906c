package device

import "strings"

// productHint maps a substring of a sensor's product identifier to a
// kind. Hints are checked in order and the first match wins, so more
// specific markers sit above generic ones.
type productHint struct {
	marker string
	kind   SensorType
}

var productHints = []productHint{
	{"spo2", SpO2},
	{"oxi", SpO2},
	{"ecg", ECG},
	{"ekg", ECG},
	{"electrocardiogram", ECG},
	{"emg", EMG},
	{"electromyogram", EMG},
	{"eda", EDA},
	{"gsr", EDA},
	{"galvanic", EDA},
	{"acc", ACC},
	{"xyz", ACC},
	{"rsp", RSP},
	{"resp", RSP},
	{"rip", RSP},
	{"pzt", RSP},
}

// signalBand is an electrical fingerprint region for one sensor kind:
// a baseline magnitude range and a noise RMS range, both in microvolts.
// Regions are disjoint so at most one kind matches a given signature.
type signalBand struct {
	kind        SensorType
	baselineMin float64
	baselineMax float64
	noiseMin    float64
	noiseMax    float64
	absBaseline bool
}

var signalBands = []signalBand{
	// AC-coupled biopotentials sit near zero baseline and split on noise:
	// muscle activity is broadband, cardiac pickup is not.
	{kind: EMG, baselineMin: 0, baselineMax: 100, noiseMin: 100, noiseMax: 2000, absBaseline: true},
	{kind: ECG, baselineMin: 0, baselineMax: 100, noiseMin: 10, noiseMax: 100, absBaseline: true},
	// DC-offset sensors split the same way on noise.
	{kind: EDA, baselineMin: 500, baselineMax: 50000, noiseMin: 0, noiseMax: 10},
	{kind: RSP, baselineMin: 500, baselineMax: 50000, noiseMin: 10, noiseMax: 100},
}

func (b signalBand) matches(sig Signature) bool {
	baseline := sig.BaselineMicrovolts
	if b.absBaseline && baseline < 0 {
		baseline = -baseline
	}
	if baseline < b.baselineMin || baseline > b.baselineMax {
		return false
	}
	if sig.NoiseRMS < b.noiseMin || sig.NoiseRMS >= b.noiseMax {
		return false
	}
	return true
}

// Classify resolves a port signature to a sensor kind. Evidence is
// consulted strongest-first: the vendor-reported type code, then
// product identifier markers, then the electrical fingerprint. A port
// that matches nothing (or matches ambiguously) classifies as Unknown
// and is skipped by discovery rather than guessed at.
func Classify(sig Signature) SensorType {
	if sig.VendorCode >= 0 {
		if t := classifyVendorCode(sig.VendorCode); t != Unknown {
			return t
		}
	}

	if sig.ProductID != "" {
		id := strings.ToLower(sig.ProductID)
		for _, hint := range productHints {
			if strings.Contains(id, hint.marker) {
				return hint.kind
			}
		}
	}

	matched := Unknown
	for _, band := range signalBands {
		if band.matches(sig) {
			if matched != Unknown {
				return Unknown
			}
			matched = band.kind
		}
	}
	return matched
}
