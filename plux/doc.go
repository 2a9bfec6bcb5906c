// Package plux is the boundary to the PLUX vendor SDK: address
// formatting, native library resolution, and the driver seam the rest
// of the bridge dials through.
//
// The vendor ships its acquisition library as one native binary per
// platform. This package resolves which one fits the running OS and
// architecture (Resolve), renders device addresses the way each
// platform's SDK build expects them (FormatAddr: BTH prefix on
// Windows, dash separators elsewhere), and exposes the Driver
// interface the actual binding registers against:
//
//	func init() {
//	    plux.RegisterDriver(sdkDriver{})
//	}
//
// Builds without a binding still compile and run against the simulator
// (package simdevice); dialing real hardware then fails fast with
// errors.ErrDriverUnavailable instead of burning the connect budget.
//
// Address handling is deliberately liberal on input and strict on
// output: Normalize accepts colon or dash separators, any case, and a
// stray BTH prefix, and always yields the uppercase colon-separated
// canonical form used in configuration, logs and stream identities.
package plux
