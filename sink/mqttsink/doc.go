// Package mqttsink publishes labeled samples over MQTT v5.
//
// # Overview
//
// The MQTT sink bridges samples into MQTT-centric deployments. Open
// dials the broker, performs the v5 handshake, and announces the
// stream layout as a retained message so subscribers joining mid-session
// still learn the channel schema. Push marshals one sample to JSON per
// message. Close clears the retained layout and disconnects.
//
// # Quick Start
//
//	sink, err := mqttsink.New(mqttsink.Config{
//	    Broker: "localhost:1883",
//	}, mqttsink.Deps{})
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
// # Topics
//
// Topics derive from TopicPrefix and a sanitized stream name token:
//
//	physio/<stream>/info      retained stream layout (JSON)
//	physio/<stream>/samples   one JSON message per sample
//
// The info message carries the full stream identity plus the samples
// topic, so a subscriber on physio/+/info can discover live streams
// and subscribe to their sample feeds without out-of-band coordination.
//
// # Delivery
//
// QoS 0 publishes fire and forget, matching the live-view use case
// where a lost sample is preferable to backpressure on the acquisition
// loop. QoS 1 waits for the broker acknowledgment and surfaces refusal
// reason codes as transient errors; the session's push retry budget
// owns the retry.
package mqttsink
