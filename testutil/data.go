package testutil

import (
	"github.com/kimit0310/MoBI-Physio-API/device"
	"github.com/kimit0310/MoBI-Physio-API/pkg/timestamp"
)

// Canned device fixtures shared across packages. All values are
// deterministic so tests can assert exact output.

// TestAddr is a valid canonical device address.
const TestAddr = "00:07:80:4D:2E:76"

// TestChannelMap covers a single-valued and a multi-valued kind, the
// smallest map that exercises schema expansion.
func TestChannelMap() device.ChannelMap {
	return device.ChannelMap{
		1: device.EMG,
		3: device.SpO2,
	}
}

// TestStreamInfo returns a stream identity matching TestChannelMap.
func TestStreamInfo() device.StreamInfo {
	return device.StreamInfo{
		Name:       "biosignalsplux",
		Type:       "Physiological",
		SourceID:   TestAddr,
		SampleRate: 1000,
		Channels:   device.BuildSchema(TestChannelMap()),
	}
}

// TestSignatures returns per-port fingerprints for a 4-port hub:
// port 1 EMG by vendor code, port 2 empty, port 3 SpO2 by product
// identifier, port 4 present but unclassifiable.
func TestSignatures() []device.Signature {
	return []device.Signature{
		{Port: 1, Present: true, VendorCode: 0},
		{Port: 2, VendorCode: -1},
		{Port: 3, Present: true, VendorCode: -1, ProductID: "SpO2.2"},
		{Port: 4, Present: true, VendorCode: -1},
	}
}

// PackSpO2 packs red and infrared counts into the raw word an SpO2
// port delivers.
func PackSpO2(red, ir uint16) float64 {
	return float64(uint32(red) | uint32(ir)<<16)
}

// PackACC packs the X, Y and Z axes into the raw word an ACC port
// delivers.
func PackACC(x, y, z uint8) float64 {
	return float64(uint32(x) | uint32(y)<<8 | uint32(z)<<16)
}

// MakeFrames builds n frames with the given per-frame values and
// sequence numbers starting at 0.
func MakeFrames(n int, values ...float64) []device.Frame {
	frames := make([]device.Frame, n)
	for i := range frames {
		vals := make([]float64, len(values))
		copy(vals, values)
		frames[i] = device.Frame{Seq: uint32(i), Values: vals}
	}
	return frames
}

// MakeSamples builds n samples in schema order for TestChannelMap,
// sequence numbers starting at 0 and timestamps one millisecond apart.
func MakeSamples(n int) []device.Sample {
	base := timestamp.Now()
	samples := make([]device.Sample, n)
	for i := range samples {
		samples[i] = device.Sample{
			Seq:       uint32(i),
			Timestamp: base + int64(i),
			Values:    []float64{12.5, 97, 88},
		}
	}
	return samples
}
