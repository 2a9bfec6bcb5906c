package simdevice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kimit0310/MoBI-Physio-API/device"
	errs "github.com/kimit0310/MoBI-Physio-API/errors"
)

// Hub is an in-process simulated acquisition hub. It implements
// device.Dialer, handing out one Link per Dial, all sharing the same
// resolved profile.
type Hub struct {
	profile Profile
	logger  *slog.Logger

	mu    sync.Mutex
	dials int
}

var _ device.Dialer = (*Hub)(nil)

// NewHub validates and resolves the profile and returns a hub ready to
// dial. A nil logger falls back to slog.Default.
func NewHub(profile Profile, logger *slog.Logger) (*Hub, error) {
	resolved := profile.withDefaults()
	if err := resolved.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default().With("component", "simdevice")
	}
	return &Hub{profile: resolved, logger: logger}, nil
}

// Dial returns a fresh link to the simulated hub. The address is
// accepted as-is; the first Profile.DialFailures calls fail so callers
// can exercise their connect retry handling.
func (h *Hub) Dial(ctx context.Context, addr string) (device.RawLink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.dials++
	attempt := h.dials
	h.mu.Unlock()

	if attempt <= h.profile.DialFailures {
		return nil, errs.WrapTransient(errs.ErrNoConnection, "simdevice", "Dial",
			fmt.Sprintf("device %s not reachable (attempt %d)", addr, attempt))
	}

	h.logger.Debug("simulated hub dialed", "addr", addr, "populated_ports", len(h.profile.Ports))
	return newLink(h.profile, h.logger), nil
}

// Dials reports how many Dial calls the hub has served, including
// injected failures.
func (h *Hub) Dials() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dials
}
