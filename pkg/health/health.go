// Package health implements Kubernetes-style liveness and readiness probes.
//
// Registered checks run periodically in the background. A check flips to
// unhealthy only after failing consecutively a configured number of times,
// and back to healthy after one success, which keeps probes from flapping on
// transient errors.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Kind distinguishes liveness checks (is the process functional) from
// readiness checks (can it serve traffic).
type Kind int

const (
	Liveness Kind = iota
	Readiness
)

// CheckFunc probes one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

const defaultFailureThreshold = 3

// check holds one registered probe and its state. The healthy flag and last
// error are read by HTTP handlers concurrently with the runner goroutine, so
// both are atomics; the consecutive-failure counter is runner-local.
type check struct {
	name    string
	kind    Kind
	timeout time.Duration
	fn      CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[string]
	fails   int
}

func (c *check) run(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.fn(probeCtx); err != nil {
		msg := err.Error()
		c.lastErr.Store(&msg)
		c.fails++
		if c.fails >= defaultFailureThreshold {
			c.healthy.Store(false)
		}
		return
	}
	c.lastErr.Store(nil)
	c.fails = 0
	c.healthy.Store(true)
}

// Service runs health checks and serves probe endpoints.
type Service struct {
	ready atomic.Bool

	mu     sync.RWMutex
	checks []*check
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Service. It starts not ready; call SetReady(true) once
// initialization has finished.
func New() *Service {
	return &Service{}
}

// AddLivenessCheck registers a liveness probe. Register all checks before
// calling Start.
func (s *Service) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.add(Liveness, name, timeout, fn)
}

// AddReadinessCheck registers a readiness probe.
func (s *Service) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.add(Readiness, name, timeout, fn)
}

func (s *Service) add(kind Kind, name string, timeout time.Duration, fn CheckFunc) {
	c := &check{name: name, kind: kind, timeout: timeout, fn: fn}
	c.healthy.Store(true)

	s.mu.Lock()
	s.checks = append(s.checks, c)
	s.mu.Unlock()
}

// Start launches the background runner executing every check once per
// interval. Stop it via Stop or by cancelling ctx.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	s.done = make(chan struct{})
	checks := append([]*check(nil), s.checks...)
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for _, c := range checks {
			c.run(ctx)
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, c := range checks {
					c.run(ctx)
				}
			}
		}
	}()
}

// Stop halts the background runner and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// SetReady flips the overall readiness gate. A service that is not ready
// fails its readiness probe regardless of check results.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

// LiveEndpoint serves the liveness probe.
func (s *Service) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, Liveness, true)
}

// ReadyEndpoint serves the readiness probe.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, Readiness, s.ready.Load())
}

type probeResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Service) respond(w http.ResponseWriter, kind Kind, gate bool) {
	s.mu.RLock()
	checks := append([]*check(nil), s.checks...)
	s.mu.RUnlock()

	resp := probeResponse{Status: "ok", Checks: make(map[string]string)}
	healthy := gate
	for _, c := range checks {
		if c.kind != kind {
			continue
		}
		state := "ok"
		if !c.healthy.Load() {
			healthy = false
			state = "failing"
			if msg := c.lastErr.Load(); msg != nil {
				state = *msg
			}
		}
		resp.Checks[c.name] = state
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
		resp.Status = "unavailable"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
