package device

import (
	"fmt"
	"time"

	"github.com/kimit0310/MoBI-Physio-API/pkg/timestamp"
)

// Sample is one timestamped acquisition frame after conversion: the
// device sequence counter, the arrival timestamp in Unix milliseconds,
// and one value per output channel in schema order.
type Sample struct {
	Seq       uint32    `json:"seq"`
	Timestamp int64     `json:"timestamp"`
	Values    []float64 `json:"values"`
}

// frameConverter turns raw frames into samples for a fixed port
// lineup. It is built once when acquisition starts and used lock-free
// by the read loop. Timestamps derive from the monotonic clock anchored
// at the converter's start instant, so they never step backwards under
// wall clock adjustments.
type frameConverter struct {
	types []SensorType
	width int
	start time.Time
}

func newFrameConverter(m ChannelMap) *frameConverter {
	ports := m.Ports()
	c := &frameConverter{
		types: make([]SensorType, 0, len(ports)),
		start: time.Now(),
	}
	for _, port := range ports {
		t := m[port]
		c.types = append(c.types, t)
		c.width += t.Arity()
	}
	return c
}

// Convert expands one raw frame into a sample. The frame must carry
// exactly one value per started port; anything else is a malformed
// frame and is reported rather than padded or truncated.
func (c *frameConverter) Convert(f Frame) (Sample, error) {
	if len(f.Values) != len(c.types) {
		return Sample{}, fmt.Errorf("frame %d: got %d values for %d started ports", f.Seq, len(f.Values), len(c.types))
	}
	values := make([]float64, 0, c.width)
	for i, raw := range f.Values {
		values = c.types[i].Expand(raw, values)
	}
	return Sample{
		Seq:       f.Seq,
		Timestamp: timestamp.Monotonic(c.start),
		Values:    values,
	}, nil
}
