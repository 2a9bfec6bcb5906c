package simdevice

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kimit0310/MoBI-Physio-API/device"
	errs "github.com/kimit0310/MoBI-Physio-API/errors"
	"github.com/kimit0310/MoBI-Physio-API/pkg/buffer"
)

// Link is one open connection to the simulated hub. Frames are
// generated on an internal goroutine paced at the sampling rate and
// staged through a bounded DropOldest queue, so a reader that falls
// behind loses the oldest frames the way a real hub FIFO does.
//
// A Link is single-run: after Stop or Close it cannot be started again.
type Link struct {
	profile Profile
	logger  *slog.Logger

	frames chan device.Frame
	queue  buffer.Buffer[device.Frame]

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	mu       sync.Mutex
	rate     int
	ports    []device.HardwareChannel
	waves    []Waveform
	started  bool
	closed   bool
	err      error
	sigCalls int
}

var _ device.RawLink = (*Link)(nil)

func newLink(profile Profile, logger *slog.Logger) *Link {
	return &Link{
		profile: profile,
		logger:  logger,
		frames:  make(chan device.Frame, 8),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Ports reports the hub's physical port count.
func (l *Link) Ports() int {
	return l.profile.TotalPorts
}

// Signatures renders every port's discovery fingerprint from the
// profile. The first Profile.SignatureFailures calls fail instead.
func (l *Link) Signatures(ctx context.Context) ([]device.Signature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, errs.WrapTransient(errs.ErrNoConnection, "simdevice", "Signatures",
			"link is closed")
	}
	l.sigCalls++
	calls := l.sigCalls
	l.mu.Unlock()

	if calls <= l.profile.SignatureFailures {
		return nil, fmt.Errorf("port scan interference (call %d of %d injected failures)",
			calls, l.profile.SignatureFailures)
	}

	sigs := make([]device.Signature, 0, l.profile.TotalPorts)
	for p := 1; p <= l.profile.TotalPorts; p++ {
		sigs = append(sigs, l.profile.signature(device.HardwareChannel(p)))
	}
	return sigs, nil
}

// Start begins frame generation at sampleRate over the given ports.
// Every port must be populated in the profile.
func (l *Link) Start(_ context.Context, sampleRate int, ports []device.HardwareChannel) error {
	if sampleRate < 1 {
		return errs.WrapInvalid(errs.ErrInvalidConfig, "simdevice", "Start",
			fmt.Sprintf("sample rate %d out of range", sampleRate))
	}
	if len(ports) == 0 {
		return errs.WrapInvalid(errs.ErrInvalidConfig, "simdevice", "Start",
			"no ports to acquire")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errs.WrapTransient(errs.ErrNoConnection, "simdevice", "Start",
			"link is closed")
	}
	if l.stopped() {
		return errs.WrapInvalid(errs.ErrAlreadyStopped, "simdevice", "Start",
			"link already stopped")
	}
	if l.started {
		return errs.WrapInvalid(errs.ErrAlreadyStarted, "simdevice", "Start",
			"acquisition already running")
	}

	sorted := make([]device.HardwareChannel, len(ports))
	copy(sorted, ports)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	waves := make([]Waveform, len(sorted))
	for i, port := range sorted {
		cfg, ok := l.profile.Ports[port]
		if !ok {
			return errs.WrapInvalid(errs.ErrInvalidConfig, "simdevice", "Start",
				fmt.Sprintf("port %d has no sensor seated", port))
		}
		waves[i] = cfg.Wave
	}

	queue, err := buffer.NewCircularBuffer[device.Frame](l.profile.QueueSize,
		buffer.WithOverflowPolicy[device.Frame](buffer.DropOldest))
	if err != nil {
		return errs.Wrap(err, "simdevice", "Start", "creating frame queue")
	}

	l.rate = sampleRate
	l.ports = sorted
	l.waves = waves
	l.queue = queue
	l.started = true

	go l.run()
	return nil
}

// run is the frame generator. It owns the queue and is the only writer
// of the frames channel; the channel closes when it returns.
func (l *Link) run() {
	defer close(l.done)
	defer close(l.frames)
	defer l.queue.Close()

	ctx, cancel := context.WithCancel(context.Background())
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		select {
		case <-l.stop:
			cancel()
		case <-ctx.Done():
		}
	}()
	defer func() {
		cancel()
		<-watchDone
	}()

	limiter := rate.NewLimiter(rate.Every(time.Second/time.Duration(l.rate)), 1)
	produced := 0
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		frame := device.Frame{Seq: uint32(produced), Values: l.values(produced)}
		produced++

		if err := l.queue.Write(frame); err != nil {
			l.setErr(errs.Wrap(err, "simdevice", "run", "queueing frame"))
			return
		}
		l.flush()

		if l.profile.DisconnectAfter > 0 && produced >= l.profile.DisconnectAfter {
			l.setErr(errs.WrapTransient(errs.ErrConnectionLost, "simdevice", "run",
				fmt.Sprintf("injected link loss after %d frames", produced)))
			l.logger.Debug("simulated link loss", "frames", produced)
			return
		}
	}
}

func (l *Link) values(i int) []float64 {
	vals := make([]float64, len(l.waves))
	for idx, wave := range l.waves {
		vals[idx] = wave(i, l.rate)
	}
	return vals
}

// flush moves staged frames to the reader without blocking. Frames the
// reader does not take stay queued; the DropOldest policy bounds them.
func (l *Link) flush() {
	for {
		frame, ok := l.queue.Peek()
		if !ok {
			return
		}
		select {
		case l.frames <- frame:
			l.queue.Read()
		default:
			return
		}
	}
}

// Frames returns the raw frame stream. Closed when the link stops or
// loses the connection; Err distinguishes the two afterwards.
func (l *Link) Frames() <-chan device.Frame {
	return l.frames
}

// Err returns the terminal stream error, nil after an orderly stop.
func (l *Link) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *Link) setErr(err error) {
	l.mu.Lock()
	if l.err == nil {
		l.err = err
	}
	l.mu.Unlock()
}

// Stop ends frame generation and waits for the generator to drain,
// honoring ctx. The link stays open for Signatures and Close.
func (l *Link) Stop(ctx context.Context) error {
	l.mu.Lock()
	started := l.started
	l.mu.Unlock()

	l.stopOnce.Do(func() { close(l.stop) })
	if !started {
		return nil
	}
	select {
	case <-l.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	l.mu.Lock()
	l.started = false
	l.mu.Unlock()
	return nil
}

// Close releases the link. Safe to call more than once.
func (l *Link) Close() error {
	l.stopOnce.Do(func() { close(l.stop) })

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	started := l.started
	l.started = false
	l.mu.Unlock()

	if started {
		<-l.done
	}
	return nil
}

func (l *Link) stopped() bool {
	select {
	case <-l.stop:
		return true
	default:
		return false
	}
}
