package simdevice

import (
	"math"

	"github.com/kimit0310/MoBI-Physio-API/device"
)

// Waveform produces the raw value a port delivers at sample index i of
// an acquisition running at rateHz samples per second.
type Waveform func(i int, rateHz int) float64

// Sine returns a waveform oscillating around offset with the given
// amplitude and frequency in Hz.
func Sine(offset, amplitude, hz float64) Waveform {
	return func(i int, rateHz int) float64 {
		t := float64(i) / float64(rateHz)
		return offset + amplitude*math.Sin(2*math.Pi*hz*t)
	}
}

// Constant returns a waveform stuck at v.
func Constant(v float64) Waveform {
	return func(int, int) float64 { return v }
}

// PulseOx returns the packed raw word an SpO2 port delivers: red in
// the low 16 bits, infrared in the high 16 bits.
func PulseOx(red, ir uint16) Waveform {
	return Constant(packSpO2(red, ir))
}

// Motion returns the packed raw word an ACC port delivers: the X, Y
// and Z axes as three consecutive bytes.
func Motion(x, y, z uint8) Waveform {
	return Constant(packACC(x, y, z))
}

func packSpO2(red, ir uint16) float64 {
	return float64(uint32(red) | uint32(ir)<<16)
}

func packACC(x, y, z uint8) float64 {
	return float64(uint32(x) | uint32(y)<<8 | uint32(z)<<16)
}

// portDefaults is the signature evidence and waveform a sensor kind
// presents when the profile does not override it. The electrical
// values sit inside each kind's classification band so a profile with
// OmitVendorCode and no ProductID still classifies correctly.
type portDefaults struct {
	productID string
	baseline  float64
	noise     float64
}

var kindDefaults = map[device.SensorType]portDefaults{
	device.EMG:  {productID: "EMG", baseline: 12, noise: 450},
	device.ECG:  {productID: "ECG", baseline: 25, noise: 40},
	device.EDA:  {productID: "EDA", baseline: 6000, noise: 3},
	device.RSP:  {productID: "RSP", baseline: 4000, noise: 45},
	device.SpO2: {productID: "SpO2.2", baseline: 0, noise: 0},
	device.ACC:  {productID: "ACC", baseline: 0, noise: 0},
}

// defaultWave picks a physiologically plausible waveform per kind:
// 20 Hz muscle activity, a 72 bpm heartbeat, slow skin conductance
// drift, 15 breaths per minute, steady oximeter lanes, gravity mostly
// on Z.
func defaultWave(t device.SensorType) Waveform {
	switch t {
	case device.EMG:
		return Sine(0, 80, 20)
	case device.ECG:
		return Sine(0, 60, 1.2)
	case device.EDA:
		return Sine(6000, 150, 0.05)
	case device.RSP:
		return Sine(4000, 900, 0.25)
	case device.SpO2:
		return PulseOx(97, 88)
	case device.ACC:
		return Motion(128, 128, 192)
	default:
		return Constant(0)
	}
}
