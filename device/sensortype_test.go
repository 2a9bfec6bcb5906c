package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSensorType_String(t *testing.T) {
	assert.Equal(t, "EMG", EMG.String())
	assert.Equal(t, "SpO2", SpO2.String())
	assert.Equal(t, "Unknown", Unknown.String())
	assert.Equal(t, "SensorType(42)", SensorType(42).String())
}

func TestSensorType_Arity(t *testing.T) {
	assert.Equal(t, 1, EMG.Arity())
	assert.Equal(t, 1, ECG.Arity())
	assert.Equal(t, 1, EDA.Arity())
	assert.Equal(t, 1, RSP.Arity())
	assert.Equal(t, 2, SpO2.Arity())
	assert.Equal(t, 3, ACC.Arity())
}

func TestSensorType_ChannelNames(t *testing.T) {
	assert.Equal(t, []string{"EMG"}, EMG.ChannelNames())
	assert.Equal(t, []string{"SpO2_RED", "SpO2_IR"}, SpO2.ChannelNames())
	assert.Equal(t, []string{"ACC_X", "ACC_Y", "ACC_Z"}, ACC.ChannelNames())
}

func TestSensorType_Expand(t *testing.T) {
	tests := []struct {
		name string
		kind SensorType
		raw  float64
		want []float64
	}{
		{
			name: "EMG passes raw value through",
			kind: EMG,
			raw:  123.45,
			want: []float64{123.45},
		},
		{
			name: "SpO2 splits RED low and IR high halves",
			kind: SpO2,
			raw:  float64(uint32(97) | uint32(88)<<16),
			want: []float64{97, 88},
		},
		{
			name: "SpO2 keeps full 16-bit range",
			kind: SpO2,
			raw:  float64(uint32(0xFFFF) | uint32(0x1234)<<16),
			want: []float64{65535, 0x1234},
		},
		{
			name: "ACC splits three byte lanes",
			kind: ACC,
			raw:  float64(uint32(10) | uint32(20)<<8 | uint32(30)<<16),
			want: []float64{10, 20, 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.kind.Expand(tt.raw, nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSensorType_ExpandAppends(t *testing.T) {
	// Expand extends an existing slice so one frame converts without
	// intermediate allocations per port.
	values := EMG.Expand(1.0, nil)
	values = SpO2.Expand(float64(uint32(97)|uint32(88)<<16), values)
	assert.Equal(t, []float64{1.0, 97, 88}, values)
}

func TestParseSensorType(t *testing.T) {
	for _, name := range []string{"EMG", "emg", "Emg"} {
		got, err := ParseSensorType(name)
		require.NoError(t, err)
		assert.Equal(t, EMG, got)
	}

	got, err := ParseSensorType("spo2")
	require.NoError(t, err)
	assert.Equal(t, SpO2, got)

	_, err = ParseSensorType("EEG")
	assert.Error(t, err)
}

func TestClassifyVendorCode(t *testing.T) {
	tests := []struct {
		code int
		want SensorType
	}{
		{0, EMG},
		{1, ECG},
		{2, EDA},
		{4, ACC},
		{7, RSP},
		{69, SpO2},
		{3, Unknown},  // unsupported hub code
		{12, Unknown}, // unsupported hub code
		{-1, Unknown}, // unset marker
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyVendorCode(tt.code), "code %d", tt.code)
	}
}
