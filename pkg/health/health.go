// Package health serves liveness and readiness probes.
//
// Every registered check runs periodically in its own goroutine. A check
// flips to unhealthy only after failureThreshold consecutive failures and
// back to healthy after successThreshold consecutive passes, so a single
// slow ping does not take the service out of rotation.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// CheckFunc returns nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

// CheckOption tunes a single check.
type CheckOption func(*check)

// WithFailureThreshold sets how many consecutive failures mark a check
// unhealthy. Default 3.
func WithFailureThreshold(n int) CheckOption {
	return func(c *check) {
		if n > 0 {
			c.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets how many consecutive passes mark a check
// healthy again. Default 1.
func WithSuccessThreshold(n int) CheckOption {
	return func(c *check) {
		if n > 0 {
			c.successThreshold = n
		}
	}
}

// check holds the configuration and runtime state of one registered check.
//
// Concurrency: each check is owned by exactly one loop goroutine, the only
// caller of run. The fails and passes counters are touched by that goroutine
// alone and need no locking. healthy and lastErr are written by run and read
// by the HTTP endpoints from any goroutine, so both are atomics. Endpoints
// never block on a running check.
type check struct {
	name             string
	timeout          time.Duration
	fn               CheckFunc
	failureThreshold int
	successThreshold int

	// healthy starts true and only flips once a threshold is crossed.
	healthy atomic.Bool
	// lastErr holds the result of the latest run, nil on success.
	lastErr atomic.Pointer[error]

	// Owned by the loop goroutine.
	fails  int
	passes int
}

func newCheck(name string, timeout time.Duration, fn CheckFunc, opts []CheckOption) *check {
	c := &check{
		name:             name,
		timeout:          timeout,
		fn:               fn,
		failureThreshold: 3,
		successThreshold: 1,
	}
	for _, o := range opts {
		o(c)
	}
	c.healthy.Store(true)
	return c
}

func (c *check) isHealthy() bool { return c.healthy.Load() }

func (c *check) lastError() error {
	if p := c.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// run executes the check once under its timeout and applies the thresholds.
// It must only be called from the check's loop goroutine.
func (c *check) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(ctx)
	c.lastErr.Store(&err)

	if err != nil {
		c.passes = 0
		c.fails++
		if c.fails >= c.failureThreshold {
			c.healthy.Store(false)
		}
		return
	}
	c.fails = 0
	c.passes++
	if c.passes >= c.successThreshold {
		c.healthy.Store(true)
	}
}

// Health tracks liveness and readiness of the process.
//
// The ready gate is an atomic flipped by SetReady. mu guards the check
// slices and cancel: registration and Start/Stop take the write lock, and
// the endpoints copy the slices under the read lock and release it before
// looking at any check, so mu is never held while check state is read.
type Health struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []*check
	readiness []*check
	cancel    context.CancelFunc
}

// New returns a Health that is not ready until SetReady(true).
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a check that guards /livez.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc, opts ...CheckOption) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, newCheck(name, timeout, fn, opts))
}

// AddReadinessCheck registers a check that guards /readyz, typically a
// dependency ping.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc, opts ...CheckOption) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, newCheck(name, timeout, fn, opts))
}

// Start runs every registered check at interval until Stop or ctx is done.
// Each check gets its own goroutine, so a slow check delays only itself.
// Register all checks before calling Start; later registrations are served
// by the endpoints but never run.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	checks := append(append([]*check(nil), h.liveness...), h.readiness...)
	h.mu.Unlock()

	for _, c := range checks {
		go loop(ctx, c, interval)
	}
}

// loop runs c immediately and then on every tick. It is the sole owner of
// c's counters.
func loop(ctx context.Context, c *check, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.run(ctx)
		}
	}
}

// Stop cancels the check goroutines. It does not wait for an in-flight run,
// which ends when its context is canceled. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady toggles the manual readiness gate. It is set after startup and
// cleared at the beginning of graceful shutdown.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the gate is open and all readiness checks pass.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	for _, c := range h.snapshot(&h.readiness) {
		if !c.isHealthy() {
			return false
		}
	}
	return true
}

// snapshot copies one of h's check slices under the read lock.
func (h *Health) snapshot(checks *[]*check) []*check {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]*check(nil), (*checks)...)
}

// Report is the body of a probe response.
type Report struct {
	Status string
	// Checks maps failing check names to their last error.
	Checks map[string]string
}

// Encode writes r as a JSON object. Checks is omitted when empty.
func (r Report) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("status")
	e.Str(r.Status)
	if len(r.Checks) > 0 {
		names := make([]string, 0, len(r.Checks))
		for name := range r.Checks {
			names = append(names, name)
		}
		sort.Strings(names)

		e.FieldStart("checks")
		e.ObjStart()
		for _, name := range names {
			e.FieldStart(name)
			e.Str(r.Checks[name])
		}
		e.ObjEnd()
	}
	e.ObjEnd()
}

// LiveEndpoint serves /livez: 200 when all liveness checks pass, 503 with
// the failing checks otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeReport(w, failures(h.snapshot(&h.liveness)))
}

// ReadyEndpoint serves /readyz: 200 when the service is marked ready and
// all readiness checks pass.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failed := failures(h.snapshot(&h.readiness))
	if !h.ready.Load() {
		failed["_readiness"] = "service is not ready"
	}
	writeReport(w, failed)
}

// OKEndpoint always answers {"status":"ok"}. It is the plain process probe
// used by load balancers that do not distinguish liveness from readiness.
func OKEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeReport(w, nil)
}

func failures(checks []*check) map[string]string {
	out := make(map[string]string)
	for _, c := range checks {
		if c.isHealthy() {
			continue
		}
		if err := c.lastError(); err != nil {
			out[c.name] = err.Error()
		} else {
			out[c.name] = "check is unhealthy"
		}
	}
	return out
}

func writeReport(w http.ResponseWriter, failed map[string]string) {
	r := Report{Status: "ok"}
	status := http.StatusOK
	if len(failed) > 0 {
		r.Status = "unhealthy"
		r.Checks = failed
		status = http.StatusServiceUnavailable
	}

	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	r.Encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status is already sent; a write error means the client left.
	_, _ = w.Write(e.Bytes())
}
