package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRemote = errors.New("remote unavailable")

func TestBreakerStartsClosed(t *testing.T) {
	b := New("test", Settings{})
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	b := New("test", Settings{
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 3 },
	})

	for i := 0; i < 3; i++ {
		_, err := b.Execute(func() (interface{}, error) { return nil, errRemote })
		require.ErrorIs(t, err, errRemote)
	}

	assert.Equal(t, StateOpen, b.State())

	_, err := b.Execute(func() (interface{}, error) { return "ok", nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreakerSuccessResetsConsecutiveFailures(t *testing.T) {
	b := New("test", Settings{
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 3 },
	})

	_, _ = b.Execute(func() (interface{}, error) { return nil, errRemote })
	_, _ = b.Execute(func() (interface{}, error) { return nil, errRemote })
	_, err := b.Execute(func() (interface{}, error) { return "ok", nil })
	require.NoError(t, err)

	_, _ = b.Execute(func() (interface{}, error) { return nil, errRemote })
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := New("test", Settings{
		Timeout:     10 * time.Millisecond,
		MaxRequests: 1,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	})

	_, _ = b.Execute(func() (interface{}, error) { return nil, errRemote })
	require.Equal(t, StateOpen, b.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, b.State())

	_, err := b.Execute(func() (interface{}, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := New("test", Settings{
		Timeout:     10 * time.Millisecond,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	})

	_, _ = b.Execute(func() (interface{}, error) { return nil, errRemote })
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, b.State())

	_, _ = b.Execute(func() (interface{}, error) { return nil, errRemote })
	assert.Equal(t, StateOpen, b.State())
}
