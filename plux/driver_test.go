package plux

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimit0310/MoBI-Physio-API/device"
	errs "github.com/kimit0310/MoBI-Physio-API/errors"
	"github.com/kimit0310/MoBI-Physio-API/pkg/retry"
)

// stubLink is the smallest device.RawLink a fake driver can hand back.
type stubLink struct{}

func (stubLink) Ports() int                                              { return 8 }
func (stubLink) Signatures(context.Context) ([]device.Signature, error)  { return nil, nil }
func (stubLink) Start(context.Context, int, []device.HardwareChannel) error { return nil }
func (stubLink) Stop(context.Context) error                              { return nil }
func (stubLink) Frames() <-chan device.Frame                             { return nil }
func (stubLink) Err() error                                              { return nil }
func (stubLink) Close() error                                            { return nil }

type fakeDriver struct {
	openedAddr string
	openErr    error
	devices    []string
	findErr    error
}

func (d *fakeDriver) Open(_ context.Context, addr string) (device.RawLink, error) {
	d.openedAddr = addr
	if d.openErr != nil {
		return nil, d.openErr
	}
	return stubLink{}, nil
}

func (d *fakeDriver) FindDevices(context.Context) ([]string, error) {
	return d.devices, d.findErr
}

func withDriver(t *testing.T, d Driver) {
	t.Helper()
	RegisterDriver(d)
	t.Cleanup(func() { RegisterDriver(nil) })
}

func TestNewDialer_NoDriver(t *testing.T) {
	RegisterDriver(nil)

	_, err := NewDialer(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrDriverUnavailable)
}

func TestDialer_Dial(t *testing.T) {
	drv := &fakeDriver{}
	withDriver(t, drv)

	dialer, err := NewDialer(nil)
	require.NoError(t, err)

	link, err := dialer.Dial(context.Background(), "00:07:80:4d:2e:76")
	require.NoError(t, err)
	require.NotNil(t, link)

	// The driver must see the address in platform form.
	want := PlatformAddr("00:07:80:4D:2E:76", runtime.GOOS)
	assert.Equal(t, want, drv.openedAddr)
}

func TestDialer_DialNoDriver(t *testing.T) {
	RegisterDriver(nil)

	var dialer Dialer
	_, err := dialer.Dial(context.Background(), "00:07:80:4D:2E:76")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrDriverUnavailable)
	assert.True(t, retry.IsNonRetryable(err), "missing driver must not be retried")
}

func TestDialer_DialBadAddress(t *testing.T) {
	withDriver(t, &fakeDriver{})

	dialer, err := NewDialer(nil)
	require.NoError(t, err)

	_, err = dialer.Dial(context.Background(), "not-a-mac")
	require.Error(t, err)
	assert.True(t, retry.IsNonRetryable(err), "bad address must not be retried")
	assert.True(t, errs.IsInvalid(err))
}

func TestDialer_DialOpenError(t *testing.T) {
	openErr := fmt.Errorf("device out of range")
	withDriver(t, &fakeDriver{openErr: openErr})

	dialer, err := NewDialer(nil)
	require.NoError(t, err)

	_, err = dialer.Dial(context.Background(), "00:07:80:4D:2E:76")
	require.Error(t, err)
	assert.ErrorIs(t, err, openErr)
	assert.False(t, retry.IsNonRetryable(err), "open failures stay retryable")
}

func TestDiscover(t *testing.T) {
	withDriver(t, &fakeDriver{devices: []string{
		"00:07:80:4D:2E:76",
		"00:07:80:0A:0B:0C",
	}})

	addrs, err := Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"00:07:80:0A:0B:0C", "00:07:80:4D:2E:76"}, addrs)
}

func TestDiscover_NoDriver(t *testing.T) {
	RegisterDriver(nil)

	_, err := Discover(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrDriverUnavailable)
}

func TestDiscover_ScanError(t *testing.T) {
	withDriver(t, &fakeDriver{findErr: errors.New("adapter off")})

	_, err := Discover(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scanning for devices")
}
