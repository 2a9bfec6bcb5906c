// Package filesink records labeled samples to newline-delimited JSON
// files.
//
// # File Format
//
// Each session writes one header line followed by one line per sample:
//
//	{"header":{"name":"biosignalsplux","type":"Physiological","source_id":"00:07:80:58:9B:3F","sample_rate":1000,"channels":[...]},"recorded_at":1755700000000}
//	{"seq":1,"timestamp":1755700000001,"values":[512.0,0.43]}
//	{"seq":2,"timestamp":1755700000002,"values":[514.0,0.43]}
//
// With Append enabled (the default) consecutive sessions share one
// file; readers split segments on lines carrying a header field.
//
// # Buffering
//
// Sample lines are buffered in memory and written in batches, either
// when the buffer reaches BufferSize or every FlushInterval. Close
// flushes the remainder and syncs the file before closing it.
//
// # Error Handling
//
// Write failures during a flush are counted and logged, not returned
// from Push. A recording hiccup should not fault the acquisition; the
// live transports carry the stream regardless.
//
// # Metrics
//
// When constructed with a metric registry the sink exposes:
//
//	mobiphysio_file_bytes_written_total
//	mobiphysio_file_samples_written_total
//
// Both are unregistered on Close.
package filesink
