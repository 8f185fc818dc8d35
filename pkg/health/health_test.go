package health

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeStatus(t *testing.T, rec *httptest.ResponseRecorder) statusResponse {
	t.Helper()
	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestReadyEndpoint_NotReadyByDefault(t *testing.T) {
	h := New()

	rec := httptest.NewRecorder()
	h.ReadyEndpoint(rec, httptest.NewRequest("GET", "/readyz", nil))

	assert.Equal(t, 503, rec.Code)
	resp := decodeStatus(t, rec)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Contains(t, resp.Checks, "_readiness")
}

func TestReadyEndpoint_ReadyWithPassingChecks(t *testing.T) {
	h := New()
	h.AddReadinessCheck("always-ok", time.Second, func(context.Context) error {
		return nil
	})
	h.SetReady(true)

	rec := httptest.NewRecorder()
	h.ReadyEndpoint(rec, httptest.NewRequest("GET", "/readyz", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "ok", decodeStatus(t, rec).Status)
	assert.True(t, h.IsReady())
}

func TestCheckFailureThreshold(t *testing.T) {
	p := &probe{
		kind:    readiness,
		name:    "flaky",
		timeout: time.Second,
		check: func(context.Context) error {
			return errors.New("down")
		},
	}
	p.healthy.Store(true)

	ctx := context.Background()

	// One or two consecutive failures must not flip the probe.
	p.run(ctx)
	p.run(ctx)
	_, failed := p.failure()
	assert.False(t, failed)

	p.run(ctx)
	msg, failed := p.failure()
	assert.True(t, failed)
	assert.Equal(t, "down", msg)
}

func TestCheckRecovery(t *testing.T) {
	var fail bool
	p := &probe{
		kind:    liveness,
		name:    "recovering",
		timeout: time.Second,
		check: func(context.Context) error {
			if fail {
				return errors.New("down")
			}
			return nil
		},
	}
	p.healthy.Store(true)

	ctx := context.Background()
	fail = true
	for range failureThreshold {
		p.run(ctx)
	}
	_, failed := p.failure()
	require.True(t, failed)

	// A single success restores health.
	fail = false
	p.run(ctx)
	_, failed = p.failure()
	assert.False(t, failed)
}

func TestStartRunsChecksImmediately(t *testing.T) {
	h := New()
	ran := make(chan struct{}, 1)
	h.AddLivenessCheck("probe", time.Second, func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, time.Hour)
	defer h.Stop()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("check did not run on Start")
	}
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}
