package ports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	name string
	err  error
}

func (s *stubChecker) Name() string { return s.name }

func (s *stubChecker) Check(context.Context) error { return s.err }

func TestRegister_DuplicateName(t *testing.T) {
	registry := NewHealthRegistry()

	require.NoError(t, registry.Register(&stubChecker{name: "storage"}))

	err := registry.Register(&stubChecker{name: "storage"})

	require.ErrorIs(t, err, ErrDuplicateChecker)
	assert.Contains(t, err.Error(), "storage")
	assert.Len(t, registry.checkers, 1)
}

func TestCheckAll_NoCheckers(t *testing.T) {
	result := NewHealthRegistry().CheckAll(context.Background())

	require.NotNil(t, result)
	assert.Equal(t, HealthStatusHealthy, result.Status)
	assert.Empty(t, result.Checks)
	assert.False(t, result.Timestamp.IsZero())
}

func TestCheckAll_Statuses(t *testing.T) {
	tests := []struct {
		name     string
		checkers []HealthChecker
		want     HealthStatus
	}{
		{
			name: "all healthy",
			checkers: []HealthChecker{
				&stubChecker{name: "storage"},
				CheckerFunc{CheckName: "remote", Fn: func(context.Context) error { return nil }, Optional: true},
			},
			want: HealthStatusHealthy,
		},
		{
			name: "optional failure degrades",
			checkers: []HealthChecker{
				&stubChecker{name: "storage"},
				CheckerFunc{CheckName: "remote", Fn: func(context.Context) error { return errors.New("circuit open") }, Optional: true},
			},
			want: HealthStatusDegraded,
		},
		{
			name: "critical failure wins",
			checkers: []HealthChecker{
				&stubChecker{name: "storage", err: errors.New("database is locked")},
				CheckerFunc{CheckName: "remote", Fn: func(context.Context) error { return errors.New("circuit open") }, Optional: true},
			},
			want: HealthStatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewHealthRegistry()
			for _, c := range tt.checkers {
				require.NoError(t, registry.Register(c))
			}

			result := registry.CheckAll(context.Background())

			assert.Equal(t, tt.want, result.Status)
			assert.Len(t, result.Checks, len(tt.checkers))
		})
	}
}

func TestCheckAll_RecordsMessages(t *testing.T) {
	registry := NewHealthRegistry()
	require.NoError(t, registry.Register(&stubChecker{name: "storage", err: errors.New("disk full")}))

	result := registry.CheckAll(context.Background())

	assert.Equal(t, HealthStatusUnhealthy, result.Checks["storage"].Status)
	assert.Equal(t, "disk full", result.Checks["storage"].Message)
}

type slowChecker struct{}

func (slowChecker) Name() string { return "slow" }

func (slowChecker) Check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

func TestCheckAll_ContextCancelled(t *testing.T) {
	registry := NewHealthRegistry()
	require.NoError(t, registry.Register(slowChecker{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := registry.CheckAll(ctx)

	assert.Equal(t, HealthStatusUnhealthy, result.Status)
	assert.Contains(t, result.Checks["slow"].Message, "context canceled")
}
