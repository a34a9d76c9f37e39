package blob

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker open")

type ProtectedConfig struct {
	Timeout          time.Duration // hard deadline per call, 0 disables
	FailureThreshold int           // consecutive failures to open circuit
	Cooldown         time.Duration // how long to stay open before half-open
	HalfOpenMaxCalls int           // allow N trial calls in half-open
}

// Recorder receives one observation per call; result is ok|error|rejected.
type Recorder interface {
	ObserveBlob(op, result string, d time.Duration)
}

type breakerState string

const (
	stateClosed   breakerState = "closed"
	stateOpen     breakerState = "open"
	stateHalfOpen breakerState = "half_open"
)

// Protected wraps a Store with a per-call deadline and a circuit breaker.
// It never retries: one call in, at most one upstream attempt out.
type Protected struct {
	inner    Store
	cfg      ProtectedConfig
	recorder Recorder
	now      func() time.Time

	mu                  sync.Mutex
	state               breakerState
	consecutiveFailures int
	openedAt            time.Time
	halfOpenInFlight    int
}

func NewProtected(inner Store, cfg ProtectedConfig, recorder Recorder) *Protected {
	//defaults
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}

	return &Protected{
		inner:    inner,
		cfg:      cfg,
		recorder: recorder,
		now:      time.Now,
		state:    stateClosed,
	}
}

func (p *Protected) Put(ctx context.Context, data []byte, ext, contentType string) (string, error) {
	var url string
	err := p.call(ctx, "put", func(ctx context.Context) error {
		var err error
		url, err = p.inner.Put(ctx, data, ext, contentType)
		return err
	})
	return url, err
}

func (p *Protected) Get(ctx context.Context, url string) ([]byte, error) {
	var data []byte
	err := p.call(ctx, "get", func(ctx context.Context) error {
		var err error
		data, err = p.inner.Get(ctx, url)
		return err
	})
	return data, err
}

func (p *Protected) call(ctx context.Context, op string, fn func(context.Context) error) error {
	start := p.now()

	// fail-fast gate
	if !p.allowRequest() {
		p.observe(op, "rejected", start)
		return newTransferError(op, 0, "", ErrCircuitOpen)
	}

	parent := ctx
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	err := fn(ctx)
	p.afterRequest(classify(parent, err))

	if err != nil {
		p.observe(op, "error", start)

		var te *TransferError
		if !errors.As(err, &te) {
			err = newTransferError(op, 0, "", err)
		}
		return err
	}

	p.observe(op, "ok", start)
	return nil
}

// State reports the breaker position, mainly for readiness output and tests.
func (p *Protected) State() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return string(p.state)
}

func (p *Protected) allowRequest() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case stateClosed:
		return true
	case stateOpen:
		// cooldown has passed? move to half open
		if p.now().Sub(p.openedAt) >= p.cfg.Cooldown {
			p.state = stateHalfOpen
			p.halfOpenInFlight = 1
			return true
		}
		return false
	case stateHalfOpen:
		if p.halfOpenInFlight >= p.cfg.HalfOpenMaxCalls {
			return false
		}
		p.halfOpenInFlight++
		return true
	default:
		return true
	}
}

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeFailure
	// the store answered, or the caller gave up; says nothing about store health
	outcomeNeutral
)

// classify decides whether err says anything about the store's health.
// Transport errors, 5xx, 408/429 and our own deadline count as failures.
// Other 4xx answers and a cancelled or expired caller context are neutral.
func classify(parent context.Context, err error) outcome {
	if err == nil {
		return outcomeSuccess
	}

	if parent.Err() != nil {
		return outcomeNeutral
	}

	var te *TransferError
	if errors.As(err, &te) && te.StatusCode >= 400 && te.StatusCode < 500 {
		switch te.StatusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests:
			return outcomeFailure
		}
		return outcomeNeutral
	}

	return outcomeFailure
}

func (p *Protected) afterRequest(o outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch o {
	case outcomeSuccess:
		p.state = stateClosed
		p.consecutiveFailures = 0
		p.halfOpenInFlight = 0
		return
	case outcomeNeutral:
		// free the trial slot so the next call can test the store
		if p.state == stateHalfOpen && p.halfOpenInFlight > 0 {
			p.halfOpenInFlight--
		}
		return
	}

	if p.state == stateHalfOpen {
		p.trip()
		return
	}

	p.consecutiveFailures++
	if p.consecutiveFailures >= p.cfg.FailureThreshold {
		p.trip()
	}
}

// trip must be called with mu held.
func (p *Protected) trip() {
	p.state = stateOpen
	p.openedAt = p.now()
	p.halfOpenInFlight = 0
}

func (p *Protected) observe(op, result string, start time.Time) {
	if p.recorder == nil {
		return
	}
	p.recorder.ObserveBlob(op, result, p.now().Sub(start))
}
