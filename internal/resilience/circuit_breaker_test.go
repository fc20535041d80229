package resilience_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/costwatch/costwatch/internal/resilience"
)

var errBoom = errors.New("boom")

func tripBreaker(cb *resilience.CircuitBreaker, failures int) {
	for i := 0; i < failures; i++ {
		cb.Execute(func() error { return errBoom })
	}
}

func TestCircuitBreaker_Execute(t *testing.T) {
	tests := []struct {
		name          string
		config        resilience.CircuitBreakerConfig
		execFunc      func() error
		expectedErr   error
		expectedState resilience.State
	}{
		{
			name: "successful execution stays closed",
			config: resilience.CircuitBreakerConfig{
				MaxFailures: 3,
				Timeout:     5 * time.Second,
			},
			execFunc:      func() error { return nil },
			expectedErr:   nil,
			expectedState: resilience.StateClosed,
		},
		{
			name: "single failure stays closed",
			config: resilience.CircuitBreakerConfig{
				MaxFailures: 3,
				Timeout:     5 * time.Second,
			},
			execFunc:      func() error { return errBoom },
			expectedErr:   errBoom,
			expectedState: resilience.StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := resilience.NewCircuitBreaker(tt.config)

			err := cb.Execute(tt.execFunc)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectedState, cb.State())
		})
	}
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures: 3,
		Timeout:     time.Minute,
	})

	tripBreaker(cb, 3)
	assert.Equal(t, resilience.StateOpen, cb.State())

	err := cb.Execute(func() error { return nil })
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures: 2,
		Timeout:     10 * time.Millisecond,
		HalfOpenMax: 2,
	})

	tripBreaker(cb, 2)
	assert.Equal(t, resilience.StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	// First probe moves the breaker to half-open.
	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, resilience.StateHalfOpen, cb.State())

	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, resilience.StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures: 2,
		Timeout:     10 * time.Millisecond,
	})

	tripBreaker(cb, 2)
	time.Sleep(20 * time.Millisecond)

	err := cb.Execute(func() error { return errBoom })
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, resilience.StateOpen, cb.State())
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures: 1,
		Timeout:     time.Minute,
	})

	tripBreaker(cb, 1)
	assert.Equal(t, resilience.StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, resilience.StateClosed, cb.State())
	assert.NoError(t, cb.Execute(func() error { return nil }))
}
