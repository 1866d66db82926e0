package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crypto-dashboard/internal/circuitbreaker"
	"github.com/crypto-dashboard/internal/service/servicetest"
)

func TestGuardedPinger_FailsFastWhileOpen(t *testing.T) {
	mem := servicetest.NewMemory()
	guarded := NewGuardedPinger(mem, &circuitbreaker.Config{
		Name:             "test",
		MaxFailures:      2,
		Timeout:          time.Hour,
		HalfOpenMaxCalls: 1,
	})
	ctx := context.Background()

	require.NoError(t, guarded.Ping(ctx))

	mem.SetErr(errors.New("connection refused"))
	assert.Error(t, guarded.Ping(ctx))
	assert.Error(t, guarded.Ping(ctx))
	assert.Equal(t, circuitbreaker.StateOpen, guarded.State())
	assert.Equal(t, 3, mem.Calls("ping"))

	// the backend is not contacted while the circuit is open
	mem.SetErr(nil)
	assert.ErrorIs(t, guarded.Ping(ctx), circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, 3, mem.Calls("ping"))
}

func TestInitializeUserData_OpenCircuitCountsAsUnavailable(t *testing.T) {
	mem := servicetest.NewMemory()
	backend := newMemoryBackend(mem)
	backend.Health = NewGuardedPinger(mem, &circuitbreaker.Config{
		Name:             "test",
		MaxFailures:      1,
		Timeout:          time.Hour,
		HalfOpenMaxCalls: 1,
	})
	svc := NewAccountService(backend, nil)

	mem.SetErr(errors.New("connection refused"))
	assert.False(t, svc.InitializeUserData(sessionContext()))

	mem.SetErr(nil)
	assert.False(t, svc.InitializeUserData(sessionContext()))
	assert.Equal(t, 0, mem.Calls("users.create"))
}
