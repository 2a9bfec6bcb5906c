// Package simdevice provides an in-process simulated acquisition hub
// for running the bridge without hardware and for exercising session
// behavior in tests.
//
// A Hub implements device.Dialer. Its Profile scripts which ports are
// populated and with what sensor, the signature evidence each port
// reports (vendor code, product identifier, electrical fingerprint),
// and the waveform each port produces during acquisition:
//
//	hub, err := simdevice.NewHub(simdevice.DefaultProfile(), logger)
//	if err != nil {
//		return err
//	}
//	session, err := device.NewSession(device.SessionDeps{
//		Config: cfg,
//		Dialer: hub,
//		Sinks:  sinks,
//	})
//
// Frame generation is paced at the requested sampling rate and staged
// through a bounded DropOldest queue, so a lagging reader loses the
// oldest frames the way a real hub FIFO does.
//
// Faults are injected through the profile: DialFailures rejects the
// first n connection attempts, SignatureFailures fails the first n
// discovery scans, and DisconnectAfter drops the link mid-stream after
// a frame count, ending the stream with a connection-lost error.
package simdevice
