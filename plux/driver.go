package plux

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/kimit0310/MoBI-Physio-API/device"
	errs "github.com/kimit0310/MoBI-Physio-API/errors"
	"github.com/kimit0310/MoBI-Physio-API/pkg/retry"
)

// Driver is the seam to the vendor acquisition SDK. The native binding
// registers one at init; everything above this package works against
// device.RawLink and never touches the SDK directly.
type Driver interface {
	// Open dials one device, given its address in platform form, and
	// returns the raw link. A failed open must not leak a partial
	// handle.
	Open(ctx context.Context, addr string) (device.RawLink, error)

	// FindDevices scans for reachable devices and returns their
	// addresses.
	FindDevices(ctx context.Context) ([]string, error)
}

var (
	driverMu sync.RWMutex
	driver   Driver
)

// RegisterDriver installs the vendor driver, typically from the SDK
// binding's init. A later registration replaces the earlier one; nil
// clears it.
func RegisterDriver(d Driver) {
	driverMu.Lock()
	defer driverMu.Unlock()
	driver = d
}

func registeredDriver() (Driver, error) {
	driverMu.RLock()
	defer driverMu.RUnlock()
	if driver == nil {
		return nil, errs.WrapFatal(errs.ErrDriverUnavailable, "plux", "registeredDriver",
			"vendor SDK binding not linked into this build")
	}
	return driver, nil
}

// Dialer adapts the registered driver to device.Dialer, rendering
// addresses in the platform form the SDK expects.
type Dialer struct {
	logger *slog.Logger
}

var _ device.Dialer = (*Dialer)(nil)

// NewDialer returns a dialer for the registered driver. It fails fast
// when no driver is registered, so the error surfaces before a session
// starts spending its connect budget.
func NewDialer(logger *slog.Logger) (*Dialer, error) {
	if _, err := registeredDriver(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default().With("component", "plux")
	}
	return &Dialer{logger: logger}, nil
}

// Dial implements device.Dialer. Address problems and a missing driver
// are marked non-retryable; everything else is left for the caller's
// retry budget.
func (d *Dialer) Dial(ctx context.Context, addr string) (device.RawLink, error) {
	drv, err := registeredDriver()
	if err != nil {
		return nil, retry.NonRetryable(err)
	}

	formatted, err := FormatAddr(addr)
	if err != nil {
		return nil, retry.NonRetryable(errs.WrapInvalid(err, "plux", "Dial", "formatting device address"))
	}

	link, err := drv.Open(ctx, formatted)
	if err != nil {
		return nil, errs.Wrap(err, "plux", "Dial", "opening device link")
	}
	return link, nil
}

// Discover scans for reachable devices via the registered driver and
// returns their addresses sorted.
func Discover(ctx context.Context) ([]string, error) {
	drv, err := registeredDriver()
	if err != nil {
		return nil, err
	}
	addrs, err := drv.FindDevices(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "plux", "Discover", "scanning for devices")
	}
	sort.Strings(addrs)
	return addrs, nil
}
