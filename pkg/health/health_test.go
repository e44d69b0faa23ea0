package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, s *Service, endpoint func(http.ResponseWriter, *http.Request)) (int, probeResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	endpoint(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var resp probeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestService_NotReadyByDefault(t *testing.T) {
	s := New()

	code, resp := probe(t, s, s.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unavailable", resp.Status)

	s.SetReady(true)
	code, _ = probe(t, s, s.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
}

func TestService_LivenessIndependentOfReadiness(t *testing.T) {
	s := New()

	code, resp := probe(t, s, s.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)
}

func TestService_FailureThreshold(t *testing.T) {
	s := New()
	s.AddReadinessCheck("db", time.Second, func(_ context.Context) error {
		return errors.New("connection refused")
	})
	s.SetReady(true)

	ctx := context.Background()
	c := s.checks[0]

	// Below the threshold the check still reports healthy.
	c.run(ctx)
	c.run(ctx)
	code, _ := probe(t, s, s.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)

	// Third consecutive failure trips it.
	c.run(ctx)
	code, resp := probe(t, s, s.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "connection refused", resp.Checks["db"])
}

func TestService_RecoversAfterSuccess(t *testing.T) {
	fail := true
	s := New()
	s.AddLivenessCheck("flaky", time.Second, func(_ context.Context) error {
		if fail {
			return errors.New("down")
		}
		return nil
	})

	ctx := context.Background()
	c := s.checks[0]
	for i := 0; i < 3; i++ {
		c.run(ctx)
	}
	code, _ := probe(t, s, s.LiveEndpoint)
	require.Equal(t, http.StatusServiceUnavailable, code)

	fail = false
	c.run(ctx)
	code, _ = probe(t, s, s.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
}

func TestService_StartStop(t *testing.T) {
	ran := make(chan struct{}, 1)
	s := New()
	s.AddLivenessCheck("tick", time.Second, func(_ context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	s.Start(context.Background(), 10*time.Millisecond)
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("check never ran")
	}
	s.Stop()
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}
