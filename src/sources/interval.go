package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"data-syncer/src/interfaces"
	"data-syncer/src/logger"
	"data-syncer/src/models"
	"data-syncer/src/transports"
)

// -----------------------------------------------------------------------------
// STRUCT DEFINITION
// -----------------------------------------------------------------------------

// Producer is a caller-supplied fetch function for an IntervalSource.
type Producer func(ctx context.Context) (any, error)

// IntervalSource invokes a producer immediately on Start and then on a fixed
// timer, exposing {Data, Loading, Err} plus a manual Refresh.
//
// Overlapping fetches are allowed: a refresh may race a timer tick and the
// later-completing result simply overwrites the earlier one. There is no
// request fencing; the rest of the system relies on last-write-wins.
type IntervalSource struct {
	name     string
	endpoint string
	producer Producer
	interval time.Duration
	enabled  bool
	logger   *logger.Logger

	// mu guards every mutable field below
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	gen       uint64
	running   bool
	cb        Callbacks
	data      any
	connected bool
	loading   bool
	lastErr   error
}

// -----------------------------------------------------------------------------
// CONSTRUCTOR AND REGISTRATION
// -----------------------------------------------------------------------------

func init() {
	// Register the constructor for config-driven interval sources
	if err := Register(models.TransportInterval, newIntervalFromConfig); err != nil {
		panic(fmt.Sprintf("registering interval source constructor: %v", err))
	}
}

// -----------------------------------------------------------------------------

// NewIntervalSource creates a new IntervalSource with a caller-supplied
// producer. A non-positive interval disables the timer; only the initial
// fetch and manual refreshes run.
func NewIntervalSource(name string, producer Producer, interval time.Duration, log *logger.Logger, cb Callbacks) *IntervalSource {
	return &IntervalSource{
		name:     name,
		producer: producer,
		interval: interval,
		enabled:  true,
		logger:   log,
		cb:       cb,
	}
}

// -----------------------------------------------------------------------------

// newIntervalFromConfig builds an IntervalSource whose producer fetches the
// configured endpoint over HTTP and decodes the body as JSON.
// Matches the ISourceConstructor signature: (cfg, logger, cb) -> (ISource, error)
func newIntervalFromConfig(cfg *models.MSourceConfig, log *logger.Logger, cb Callbacks) (interfaces.ISource, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("interval source '%s': endpoint cannot be empty", cfg.Name)
	}

	fetcher := transports.NewPollingClient(cfg.Endpoint, 0, log, cfg.Name, nil)
	producer := func(ctx context.Context) (any, error) {
		body, err := fetcher.FetchOnce(ctx)
		if err != nil {
			return nil, err
		}
		var value any
		if err := json.Unmarshal(body, &value); err != nil {
			return nil, fmt.Errorf("decode response from %s: %w", cfg.Endpoint, err)
		}
		return value, nil
	}

	src := NewIntervalSource(cfg.Name, producer, time.Duration(cfg.IntervalMs)*time.Millisecond, log, cb)
	src.endpoint = cfg.Endpoint
	src.enabled = cfg.Enabled
	return src, nil
}

// -----------------------------------------------------------------------------
// ISource IMPLEMENTATION
// -----------------------------------------------------------------------------

// GetName returns the source name
func (s *IntervalSource) GetName() string {
	return s.name
}

// -----------------------------------------------------------------------------

// Start resets the observable state and begins fetching. The initial fetch
// starts immediately; Loading is already true when Start returns. A
// disabled source stays idle.
func (s *IntervalSource) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	if !s.enabled {
		s.mu.Unlock()
		s.logger.Info("%s : source disabled, staying idle", s.name)
		return nil
	}

	s.running = true
	s.gen++
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.connected = false
	s.lastErr = nil
	s.loading = true

	gen := s.gen
	ctx := s.ctx
	s.mu.Unlock()

	s.logger.Info("%s : interval source started (interval %v)", s.name, s.interval)

	go s.run(ctx, gen)
	return nil
}

// -----------------------------------------------------------------------------

// Stop clears the timer. A fetch still in flight resolves on its own and its
// result is dropped; no state mutation is observable after Stop returns.
func (s *IntervalSource) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.logger.Info("%s : interval source stopped", s.name)
	return nil
}

// -----------------------------------------------------------------------------

// Refresh triggers an immediate fetch through the same path the timer uses.
// It may run concurrently with a timer-driven fetch.
func (s *IntervalSource) Refresh() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("interval source '%s' is not running", s.name)
	}
	gen := s.gen
	ctx := s.ctx
	s.mu.Unlock()

	go s.fetch(ctx, gen)
	return nil
}

// -----------------------------------------------------------------------------

// SendMessage is a programming error on an interval source.
func (s *IntervalSource) SendMessage(payload any) error {
	panic(fmt.Sprintf("%s : SendMessage called on an interval source; only push sources can send", s.name))
}

// -----------------------------------------------------------------------------

// GetState returns a copy of the current observable state
func (s *IntervalSource) GetState() *models.MObservableState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &models.MObservableState{
		Data:      s.data,
		Connected: s.connected,
		Loading:   s.loading,
		Err:       s.lastErr,
	}
}

// -----------------------------------------------------------------------------

// GetStatus returns the runtime status of the source
func (s *IntervalSource) GetStatus() *models.MSourceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	intervalMs := 0
	if s.interval > 0 {
		intervalMs = int(s.interval / time.Millisecond)
	}

	status := &models.MSourceStatus{
		SourceName:    s.name,
		Running:       s.running,
		Connected:     s.connected,
		TransportType: models.TransportInterval,
		Endpoint:      s.endpoint,
		IntervalMs:    intervalMs,
	}
	if s.lastErr != nil {
		status.LastError = s.lastErr.Error()
	}
	return status
}

// -----------------------------------------------------------------------------

// SetCallbacks swaps the consumer handlers without restarting the source.
// The active subscription reads the latest set on every dispatch.
func (s *IntervalSource) SetCallbacks(cb Callbacks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cb = cb
}

// -----------------------------------------------------------------------------
// PRIVATE METHODS
// -----------------------------------------------------------------------------

// run performs the initial fetch and then ticks on the configured interval.
// A non-positive interval means no periodic timer.
func (s *IntervalSource) run(ctx context.Context, gen uint64) {
	s.fetch(ctx, gen)

	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fetch(ctx, gen)
		}
	}
}

// -----------------------------------------------------------------------------

// fetch runs the producer once and applies the outcome. gen is the
// subscription generation captured when the fetch was scheduled; a result
// arriving after Stop (or after a restart) is dropped.
func (s *IntervalSource) fetch(ctx context.Context, gen uint64) {
	s.mu.Lock()
	if !s.running || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.loading = true
	s.mu.Unlock()

	value, err := s.producer(ctx)

	s.mu.Lock()
	if !s.running || gen != s.gen {
		s.mu.Unlock()
		return
	}

	// Loading clears on every outcome path
	s.loading = false

	cb := s.cb
	if err != nil {
		// The error is stored verbatim; Data keeps its previous value
		s.lastErr = err
		s.connected = false
		s.mu.Unlock()

		s.logger.Warning("%s : fetch failed: %v", s.name, err)
		if cb.OnError != nil {
			cb.OnError(err)
		}
		return
	}

	s.data = value
	s.lastErr = nil
	s.connected = true
	s.mu.Unlock()

	if cb.OnData != nil {
		cb.OnData(value)
	}
}
