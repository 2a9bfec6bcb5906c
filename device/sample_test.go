package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameConverter_Convert(t *testing.T) {
	conv := newFrameConverter(ChannelMap{1: EMG, 3: SpO2, 5: ACC})
	assert.Equal(t, 6, conv.width)

	frame := Frame{
		Seq: 42,
		Values: []float64{
			12.5,
			float64(uint32(97) | uint32(88)<<16),
			float64(uint32(1) | uint32(2)<<8 | uint32(3)<<16),
		},
	}

	sample, err := conv.Convert(frame)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), sample.Seq)
	assert.Equal(t, []float64{12.5, 97, 88, 1, 2, 3}, sample.Values)
	assert.InDelta(t, time.Now().UnixMilli(), sample.Timestamp, 1000)
}

func TestFrameConverter_CardinalityMismatch(t *testing.T) {
	conv := newFrameConverter(ChannelMap{1: EMG, 3: SpO2})

	_, err := conv.Convert(Frame{Seq: 7, Values: []float64{1.0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 values for 2 started ports")

	_, err = conv.Convert(Frame{Seq: 8, Values: []float64{1, 2, 3}})
	require.Error(t, err)
}

func TestFrameConverter_TimestampsMonotonic(t *testing.T) {
	conv := newFrameConverter(ChannelMap{1: EMG})

	var last int64
	for i := 0; i < 100; i++ {
		sample, err := conv.Convert(Frame{Seq: uint32(i), Values: []float64{1}})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, sample.Timestamp, last)
		last = sample.Timestamp
	}
}
