package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	name string
	err  error
}

func (f fakeChecker) Name() string                { return f.name }
func (f fakeChecker) Check(context.Context) error { return f.err }

func TestReady_AllHealthy(t *testing.T) {
	svc := NewService(fakeChecker{name: "postgres"}, fakeChecker{name: "minio"})
	assert.NoError(t, svc.Ready(context.Background()))
}

func TestReady_FirstFailureWins(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewService(
		fakeChecker{name: "postgres"},
		fakeChecker{name: "minio", err: boom},
		fakeChecker{name: "redis", err: errors.New("also down")},
	)

	err := svc.Ready(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "minio")
}

func TestReady_NoCheckers(t *testing.T) {
	assert.NoError(t, NewService().Ready(context.Background()))
}
