package simdevice

import (
	"fmt"

	"github.com/kimit0310/MoBI-Physio-API/device"
	errs "github.com/kimit0310/MoBI-Physio-API/errors"
)

const (
	defaultTotalPorts = 8
	defaultQueueSize  = 1024
)

// Profile describes one simulated hub: which ports are populated, how
// large the hub's internal frame queue is, and which faults to inject.
// The zero value is not usable; start from DefaultProfile or list the
// ports explicitly.
type Profile struct {
	// Ports maps populated hardware ports to their sensor setup.
	// Ports absent from the map report Present=false during discovery.
	Ports map[device.HardwareChannel]PortConfig

	// TotalPorts is the hub's physical port count. Defaults to 8.
	TotalPorts int

	// QueueSize bounds the hub's internal frame queue. When the reader
	// lags behind the sampling rate the oldest frames are dropped, the
	// same way the real hub's FIFO loses data. Defaults to 1024.
	QueueSize int

	// DialFailures fails the first n Dial calls, exercising the
	// caller's connect retry budget.
	DialFailures int

	// SignatureFailures fails the first n Signatures calls per link,
	// exercising discovery error handling.
	SignatureFailures int

	// DisconnectAfter ends the link with a connection-lost error once
	// that many frames have been produced. Zero means never.
	DisconnectAfter int
}

// PortConfig is the sensor setup for one populated port.
type PortConfig struct {
	// Type is the sensor seated on the port. Unknown simulates a
	// sensor the hub cannot identify.
	Type device.SensorType

	// OmitVendorCode withholds the hub's sensor code from the port
	// signature, leaving classification to the product identifier and
	// electrical fingerprint.
	OmitVendorCode bool

	// ProductID overrides the product identifier reported in the
	// signature. Empty keeps the kind's default.
	ProductID string

	// Baseline and Noise override the electrical fingerprint reported
	// in the signature, in microvolts. Zero keeps the kind's default.
	Baseline float64
	Noise    float64

	// Wave generates the port's raw values during acquisition. Nil
	// keeps the kind's default waveform.
	Wave Waveform
}

// DefaultProfile returns an 8-port hub with one sensor of each
// supported kind seated on ports 1 through 6.
func DefaultProfile() Profile {
	return Profile{
		Ports: map[device.HardwareChannel]PortConfig{
			1: {Type: device.EMG},
			2: {Type: device.ECG},
			3: {Type: device.EDA},
			4: {Type: device.ACC},
			5: {Type: device.RSP},
			6: {Type: device.SpO2},
		},
	}
}

// withDefaults returns a resolved copy of the profile: hub-level sizes
// filled in, and every port's signature evidence and waveform completed
// from the kind table.
func (p Profile) withDefaults() Profile {
	out := p
	if out.TotalPorts == 0 {
		out.TotalPorts = defaultTotalPorts
	}
	if out.QueueSize == 0 {
		out.QueueSize = defaultQueueSize
	}
	out.Ports = make(map[device.HardwareChannel]PortConfig, len(p.Ports))
	for port, cfg := range p.Ports {
		def := kindDefaults[cfg.Type]
		if cfg.ProductID == "" {
			cfg.ProductID = def.productID
		}
		if cfg.Baseline == 0 {
			cfg.Baseline = def.baseline
		}
		if cfg.Noise == 0 {
			cfg.Noise = def.noise
		}
		if cfg.Wave == nil {
			cfg.Wave = defaultWave(cfg.Type)
		}
		out.Ports[port] = cfg
	}
	return out
}

func (p Profile) validate() error {
	if len(p.Ports) == 0 {
		return errs.WrapInvalid(errs.ErrInvalidConfig, "simdevice", "validate",
			"profile has no populated ports")
	}
	if p.TotalPorts < 1 {
		return errs.WrapInvalid(errs.ErrInvalidConfig, "simdevice", "validate",
			fmt.Sprintf("total ports %d out of range", p.TotalPorts))
	}
	if p.QueueSize < 1 {
		return errs.WrapInvalid(errs.ErrInvalidConfig, "simdevice", "validate",
			fmt.Sprintf("queue size %d out of range", p.QueueSize))
	}
	if p.DialFailures < 0 || p.SignatureFailures < 0 || p.DisconnectAfter < 0 {
		return errs.WrapInvalid(errs.ErrInvalidConfig, "simdevice", "validate",
			"fault injection counts must not be negative")
	}
	for port, cfg := range p.Ports {
		if port < 1 || int(port) > p.TotalPorts {
			return errs.WrapInvalid(errs.ErrInvalidConfig, "simdevice", "validate",
				fmt.Sprintf("port %d outside hub range 1..%d", port, p.TotalPorts))
		}
		if !cfg.Type.Valid() {
			return errs.WrapInvalid(errs.ErrInvalidConfig, "simdevice", "validate",
				fmt.Sprintf("port %d: invalid sensor type %d", port, int(cfg.Type)))
		}
	}
	return nil
}

// signature renders one port's discovery fingerprint from the resolved
// profile. Unpopulated ports report absent markers only.
func (p Profile) signature(port device.HardwareChannel) device.Signature {
	cfg, ok := p.Ports[port]
	if !ok {
		return device.Signature{Port: port, VendorCode: -1}
	}
	sig := device.Signature{
		Port:               port,
		Present:            true,
		VendorCode:         -1,
		ProductID:          cfg.ProductID,
		BaselineMicrovolts: cfg.Baseline,
		NoiseRMS:           cfg.Noise,
	}
	if !cfg.OmitVendorCode {
		if code, ok := cfg.Type.VendorCode(); ok {
			sig.VendorCode = code
		}
	}
	return sig
}
