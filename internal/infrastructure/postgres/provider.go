package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/iho/cashbook/internal/domain"
)

// State is the lifecycle state of the store connection.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Connector opens a verified pool.
type Connector func(ctx context.Context) (Pool, error)

// ProviderOptions configures a Provider.
type ProviderOptions struct {
	ReconnectInterval time.Duration
	HealthInterval    time.Duration
	Logger            zerolog.Logger
	// OnStateChange is called after every transition, outside the lock.
	OnStateChange func(State)
}

const (
	defaultReconnectInterval = 5 * time.Second
	defaultHealthInterval    = 10 * time.Second
)

// Provider owns the store connection. A supervisor goroutine connects,
// health-checks and reconnects; callers never wait for it and get
// domain.ErrStoreUnavailable while the store is not ready.
type Provider struct {
	connect           Connector
	reconnectInterval time.Duration
	healthInterval    time.Duration
	logger            zerolog.Logger
	onStateChange     func(State)

	mu      sync.RWMutex
	pool    Pool
	state   State
	lastErr error

	invalidated chan error
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewProvider creates a Provider in the Disconnected state.
func NewProvider(connect Connector, opts ProviderOptions) *Provider {
	if opts.ReconnectInterval <= 0 {
		opts.ReconnectInterval = defaultReconnectInterval
	}
	if opts.HealthInterval <= 0 {
		opts.HealthInterval = defaultHealthInterval
	}

	return &Provider{
		connect:           connect,
		reconnectInterval: opts.ReconnectInterval,
		healthInterval:    opts.HealthInterval,
		logger:            opts.Logger,
		onStateChange:     opts.OnStateChange,
		state:             StateDisconnected,
		invalidated:       make(chan error, 1),
	}
}

// Start launches the supervisor. It returns immediately.
func (p *Provider) Start(ctx context.Context) {
	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.mu.Unlock()

	go p.supervise(ctx)
}

// Acquire returns the live pool or fails fast.
func (p *Provider) Acquire() (Pool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.state != StateReady || p.pool == nil {
		if p.lastErr != nil {
			return nil, fmt.Errorf("%w: store %s: %v", domain.ErrStoreUnavailable, p.state, p.lastErr)
		}
		return nil, fmt.Errorf("%w: store %s", domain.ErrStoreUnavailable, p.state)
	}

	return p.pool, nil
}

// State returns the current state.
func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Ping checks the live pool.
func (p *Provider) Ping(ctx context.Context) error {
	pool, err := p.Acquire()
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

// Invalidate marks the current pool broken so the supervisor replaces it.
func (p *Provider) Invalidate(err error) {
	if err == nil {
		err = errors.New("invalidated")
	}
	select {
	case p.invalidated <- err:
	default:
	}
}

// Close stops the supervisor and releases the pool.
func (p *Provider) Close() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	p.mu.Lock()
	pool := p.pool
	p.pool = nil
	p.lastErr = nil
	p.mu.Unlock()

	if pool != nil {
		pool.Close()
	}
	p.setState(StateDisconnected, nil)
}

func (p *Provider) supervise(ctx context.Context) {
	defer close(p.done)

	for {
		pool, err := p.connectWithBackoff(ctx)
		if err != nil {
			return
		}

		p.ready(pool)
		p.watch(ctx, pool)

		if ctx.Err() != nil {
			return
		}
	}
}

func (p *Provider) connectWithBackoff(ctx context.Context) (Pool, error) {
	var pool Pool

	operation := func() error {
		p.setState(StateConnecting, nil)

		conn, err := p.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			p.setState(StateFailed, err)
			return err
		}

		pool = conn
		return nil
	}

	notify := func(err error, next time.Duration) {
		p.logger.Warn().Err(err).Dur("retry_in", next).Msg("store connection failed")
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(p.reconnectInterval), ctx)
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return nil, err
	}

	return pool, nil
}

func (p *Provider) ready(pool Pool) {
	// Drop invalidations aimed at a previous pool.
	select {
	case <-p.invalidated:
	default:
	}

	p.mu.Lock()
	p.pool = pool
	p.mu.Unlock()

	p.setState(StateReady, nil)
}

func (p *Provider) watch(ctx context.Context, pool Pool) {
	ticker := time.NewTicker(p.healthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-p.invalidated:
			p.drop(pool, err)
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, p.healthInterval)
			err := pool.Ping(pingCtx)
			cancel()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				p.drop(pool, err)
				return
			}
		}
	}
}

func (p *Provider) drop(pool Pool, err error) {
	p.mu.Lock()
	if p.pool == pool {
		p.pool = nil
	}
	p.mu.Unlock()

	p.setState(StateFailed, err)
	pool.Close()
}

func (p *Provider) setState(state State, err error) {
	p.mu.Lock()
	prev := p.state
	p.state = state
	if err != nil {
		p.lastErr = err
	} else if state == StateReady || state == StateDisconnected {
		p.lastErr = nil
	}
	p.mu.Unlock()

	if prev == state {
		return
	}

	event := p.logger.Info()
	if state == StateFailed {
		event = p.logger.Error().Err(err)
	}
	event.Str("from", prev.String()).Str("to", state.String()).Msg("store state changed")

	if p.onStateChange != nil {
		p.onStateChange(state)
	}
}
