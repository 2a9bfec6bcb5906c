// Package component defines the lifecycle and discoverability contracts
// shared by the bridge's runtime pieces.
//
// A component is anything the process manages as a unit: the device
// bridge itself, and by extension the sinks it fans samples out to. Two
// interfaces carry the contracts:
//
//   - LifecycleComponent: Initialize / Start(ctx) / Stop(timeout), the
//     unified lifecycle every managed piece follows.
//   - Discoverable: Meta, InputPorts, OutputPorts, ConfigSchema, Health
//     and DataFlow, the inspection surface health endpoints and
//     operator tooling read from.
//
// Ports describe a component's external touchpoints (the device link,
// NATS subjects, recorder files, MQTT topics, WebSocket endpoints) as
// typed Portable configs, so resource conflicts can be detected without
// knowing each component's internals.
//
// Configuration schemas are generated from struct tags via
// GenerateConfigSchema; SafeUnmarshal validates raw JSON before it
// reaches a component constructor.
package component
