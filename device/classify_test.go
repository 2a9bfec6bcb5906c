package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_VendorCodeWins(t *testing.T) {
	// A vendor code beats a contradictory product ID and fingerprint.
	sig := Signature{
		Port:               1,
		Present:            true,
		VendorCode:         1, // ECG
		ProductID:          "emgSensorPRO",
		BaselineMicrovolts: 10000,
		NoiseRMS:           5,
	}
	assert.Equal(t, ECG, Classify(sig))
}

func TestClassify_UnsupportedVendorCodeFallsThrough(t *testing.T) {
	// An unsupported code is not a verdict: the product ID still counts.
	sig := Signature{
		Port:       2,
		Present:    true,
		VendorCode: 3, // hub code outside the supported set
		ProductID:  "OXI-2019",
	}
	assert.Equal(t, SpO2, Classify(sig))
}

func TestClassify_ProductID(t *testing.T) {
	tests := []struct {
		productID string
		want      SensorType
	}{
		{"SpO2.MACRO", SpO2},
		{"oximeter-v2", SpO2},
		{"ecgSensor", ECG},
		{"EKG-lead2", ECG},
		{"emgSensorPRO", EMG},
		{"EDA/GSR unit", EDA},
		{"gsr-wrist", EDA},
		{"acc3x", ACC},
		{"xyz-motion", ACC},
		{"RSP belt", RSP},
		{"respiration-pzt", RSP},
		{"RIP band", RSP},
		{"Electrocardiogram Lead II", ECG},
		{"electromyogram-bipolar", EMG},
		{"galvanic skin response", EDA},
		{"accelerometer 3-axis", ACC},
		{"respiratory effort", RSP},
		{"oximetry module", SpO2},
		{"photoplethysmography", Unknown}, // PPG hardware is outside the supported set
		{"mystery sensor", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.productID, func(t *testing.T) {
			sig := Signature{Port: 1, Present: true, VendorCode: -1, ProductID: tt.productID}
			assert.Equal(t, tt.want, Classify(sig))
		})
	}
}

func TestClassify_SignalFingerprint(t *testing.T) {
	tests := []struct {
		name     string
		baseline float64
		noise    float64
		want     SensorType
	}{
		{"EMG broadband noise near zero baseline", 12, 450, EMG},
		{"EMG negative baseline", -40, 300, EMG},
		{"ECG low noise near zero baseline", -15, 40, ECG},
		{"EDA high DC offset quiet", 20000, 3, EDA},
		{"RSP high DC offset moderate noise", 5000, 50, RSP},
		{"dead port", 0, 0, Unknown},
		{"baseline between regions", 300, 50, Unknown},
		{"noise above every region", 10000, 5000, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := Signature{
				Port:               1,
				Present:            true,
				VendorCode:         -1,
				BaselineMicrovolts: tt.baseline,
				NoiseRMS:           tt.noise,
			}
			assert.Equal(t, tt.want, Classify(sig))
		})
	}
}

func TestClassify_FingerprintBoundaries(t *testing.T) {
	// Noise boundaries split adjacent regions: 100 belongs to EMG, not ECG.
	sig := Signature{Port: 1, Present: true, VendorCode: -1, BaselineMicrovolts: 50, NoiseRMS: 100}
	assert.Equal(t, EMG, Classify(sig))

	sig.NoiseRMS = 99.9
	assert.Equal(t, ECG, Classify(sig))

	// 10 belongs to RSP, not EDA.
	sig = Signature{Port: 1, Present: true, VendorCode: -1, BaselineMicrovolts: 1000, NoiseRMS: 10}
	assert.Equal(t, RSP, Classify(sig))

	sig.NoiseRMS = 9.9
	assert.Equal(t, EDA, Classify(sig))
}

func TestClassify_NoEvidence(t *testing.T) {
	sig := Signature{Port: 5, Present: true, VendorCode: -1}
	assert.Equal(t, Unknown, Classify(sig))
}
