// Package natssink publishes labeled samples to NATS JetStream and
// registers the stream identity in a Key-Value bucket.
//
// # Overview
//
// The NATS sink is the primary transport for live samples. Open ensures
// the JetStream stream exists, claims the stream identity in the
// registry bucket, and derives the publish subject from the stream
// name. Push marshals one sample to JSON and publishes it with
// at-least-once semantics. Close releases the identity so the stream
// name can be reused by the next session.
//
// # Quick Start
//
//	client, _ := natsclient.NewClient("nats://localhost:4222")
//	_ = client.Connect(ctx)
//
//	sink, err := natssink.New(natssink.DefaultConfig(), natssink.Deps{
//	    Client: client,
//	})
//	if err != nil {
//	    return err
//	}
//
//	if err := sink.Open(ctx, info); err != nil {
//	    return err // errors.ErrStreamExists when the name is taken
//	}
//	defer sink.Close()
//
//	_ = sink.Push(ctx, sample)
//
// # Stream Identity
//
// Every open sink owns exactly one key in the registry bucket, keyed by
// stream name. The entry carries the full stream identity (type, source
// device, sample rate, channel schema), the publish subject, and
// created_at/last_seen timestamps. The claim uses a KV Create, which is
// atomic: a second producer opening the same stream name gets
// errors.ErrStreamExists instead of silently double-publishing.
//
// While the sink is open a heartbeat refreshes last_seen at
// HeartbeatInterval, so consumers can tell live streams from stale
// entries left behind by a crashed producer. Close deletes the key.
//
// # Subjects
//
// The publish subject is SubjectPrefix plus a sanitized stream name
// token, for example "physio.samples.biosignalsplux". The JetStream
// stream is created with the wildcard "physio.samples.>" so every
// stream name lands in the same stream.
//
// # Error Handling
//
//   - Open on a taken name: errors.ErrStreamExists (invalid, not retried)
//   - Push before Open: errors.ErrNotStarted
//   - Push or Open after Close: errors.ErrSinkClosed
//   - Publish failures: transient, the caller owns the retry budget
package natssink
