// Package wssink serves the live sample stream to browser and tool
// viewers over WebSocket.
//
// # Overview
//
// The live-view sink is a monitoring surface, not a transport: it lets
// an operator watch the signal while a session runs, without touching
// the recorded data path. Open binds an HTTP server and registers the
// WebSocket endpoint. Each connecting viewer first receives a stream
// announcement carrying the full identity (name, type, source device,
// sample rate, channel schema), then a live feed of samples as JSON
// text messages.
//
// # Quick Start
//
//	sink, err := wssink.New(wssink.Config{Addr: ":8081"}, wssink.Deps{})
//	if err != nil {
//	    return err
//	}
//
//	if err := sink.Open(ctx, info); err != nil {
//	    return err
//	}
//	defer sink.Close()
//
//	_ = sink.Push(ctx, sample)
//
// Viewers connect to ws://<addr>/ws and read two message shapes,
// distinguished by the "type" field:
//
//	{"type":"stream","stream":{...}}   once, on connect
//	{"type":"sample","seq":...}        for every broadcast sample
//
// # Delivery
//
// Delivery is best-effort: acquisition must never stall on a stalled
// viewer. Every viewer owns a bounded queue
// with a drop-oldest overflow policy and a dedicated write pump, so
// Push only marshals and enqueues. A viewer that falls behind sees a
// gap in sequence numbers, the recording sinks see every sample.
//
// Keepalive pings run at PingInterval and viewers that stop answering
// within twice that interval are disconnected. Inbound viewer messages
// are read only to detect disconnects, their payloads are discarded.
//
// # Error Handling
//
//   - Open when the address is taken: fatal, the session fails fast
//   - Push before Open: errors.ErrNotStarted
//   - Push or Open after Close: errors.ErrSinkClosed
//   - Viewer write failures: the viewer is dropped, Push reports nil
package wssink
