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

// defaultPollingInterval applies when a pull source leaves PollingIntervalMs
// unset.
const defaultPollingInterval = 5000 * time.Millisecond

// -----------------------------------------------------------------------------
// STRUCT DEFINITION
// -----------------------------------------------------------------------------

// HybridSource exposes one observable shape {Data, Connected, Err} over two
// transport variants selected by the configuration tag: a persistent push
// connection (WebSocket) or a timed pull loop (HTTP GET).
//
// Each Start creates a fresh subscription with Connected/Err reset; each
// Stop releases the connection or timer it owns. A result arriving after
// Stop is dropped, never applied.
type HybridSource struct {
	name   string
	cfg    models.MSourceConfig
	logger *logger.Logger

	// mu guards every mutable field below.
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	gen       uint64
	running   bool
	cb        Callbacks
	transport interfaces.ITransport
	poller    *transports.PollingClient
	data      any
	connected bool
	lastErr   error
}

// -----------------------------------------------------------------------------
// CONSTRUCTOR AND REGISTRATION
// -----------------------------------------------------------------------------

func init() {
	// Both hybrid variants share one constructor; the config tag selects
	// the transport inside Start.
	for _, kind := range []models.TransportKind{models.TransportPush, models.TransportPull} {
		if err := Register(kind, newHybridFromConfig); err != nil {
			panic(fmt.Sprintf("registering hybrid source constructor: %v", err))
		}
	}
}

// -----------------------------------------------------------------------------

// NewHybridSource creates a new HybridSource from its configuration.
// Matches the ISourceConstructor signature via newHybridFromConfig.
func NewHybridSource(cfg models.MSourceConfig, log *logger.Logger, cb Callbacks) (*HybridSource, error) {
	switch cfg.Transport {
	case models.TransportPush, models.TransportPull:
	default:
		return nil, fmt.Errorf("hybrid source '%s': unsupported transport kind %q", cfg.Name, cfg.Transport)
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("hybrid source '%s': endpoint cannot be empty", cfg.Name)
	}

	return &HybridSource{
		name:   cfg.Name,
		cfg:    cfg,
		logger: log,
		cb:     cb,
	}, nil
}

// -----------------------------------------------------------------------------

func newHybridFromConfig(cfg *models.MSourceConfig, log *logger.Logger, cb Callbacks) (interfaces.ISource, error) {
	return NewHybridSource(*cfg, log, cb)
}

// -----------------------------------------------------------------------------
// ISource IMPLEMENTATION
// -----------------------------------------------------------------------------

// GetName returns the source name
func (s *HybridSource) GetName() string {
	return s.name
}

// -----------------------------------------------------------------------------

// Start resets Connected/Err and creates the subscription for the configured
// transport. A disabled source stays idle.
func (s *HybridSource) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	if !s.cfg.Enabled {
		s.mu.Unlock()
		s.logger.Info("%s : source disabled, staying idle", s.name)
		return nil
	}

	s.running = true
	s.gen++
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.connected = false
	s.lastErr = nil

	gen := s.gen
	ctx := s.ctx
	s.mu.Unlock()

	var err error
	switch s.cfg.Transport {
	case models.TransportPush:
		err = s.startPush(ctx, gen)
	case models.TransportPull:
		err = s.startPull(ctx, gen)
	default:
		err = fmt.Errorf("unsupported transport kind %q", s.cfg.Transport)
	}

	if err != nil {
		s.mu.Lock()
		s.running = false
		s.lastErr = err
		s.cancel()
		s.mu.Unlock()
		return fmt.Errorf("failed to start source %s: %w", s.name, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Stop tears down the active subscription. The underlying connection is
// actively closed; a poll still in flight must not apply its result.
func (s *HybridSource) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.connected = false
	s.cancel()
	transport := s.transport
	poller := s.poller
	s.transport = nil
	s.poller = nil
	s.mu.Unlock()

	var err error
	if transport != nil {
		err = transport.Disconnect()
	}
	if poller != nil {
		err = poller.Disconnect()
	}

	s.logger.Info("%s : source stopped", s.name)
	return err
}

// -----------------------------------------------------------------------------

// Refresh triggers an immediate poll cycle on a pull source. Push sources
// have no client-driven fetch path.
func (s *HybridSource) Refresh() error {
	s.mu.RLock()
	poller := s.poller
	running := s.running
	s.mu.RUnlock()

	if s.cfg.Transport != models.TransportPull {
		return fmt.Errorf("refresh not supported for %q transport source '%s'", s.cfg.Transport, s.name)
	}
	if !running || poller == nil {
		return fmt.Errorf("source '%s' is not running", s.name)
	}

	poller.TriggerRefresh()
	return nil
}

// -----------------------------------------------------------------------------

// SendMessage forwards a payload over an open push connection. Calling it on
// a pull source is a programming error, not a runtime condition, and panics.
// A push source with no open connection reports the condition instead of
// queueing the payload.
func (s *HybridSource) SendMessage(payload any) error {
	if s.cfg.Transport != models.TransportPush {
		panic(fmt.Sprintf("%s : SendMessage called on %q transport source; only push sources can send", s.name, s.cfg.Transport))
	}

	s.mu.RLock()
	transport := s.transport
	connected := s.connected
	s.mu.RUnlock()

	if transport == nil || !connected {
		s.logger.Warning("%s : dropping message, connection is not open", s.name)
		return fmt.Errorf("source '%s': connection is not open", s.name)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("source '%s': failed to encode payload: %w", s.name, err)
	}
	return transport.SendMessage(raw)
}

// -----------------------------------------------------------------------------

// GetState returns a copy of the current observable state
func (s *HybridSource) GetState() *models.MObservableState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &models.MObservableState{
		Data:      s.data,
		Connected: s.connected,
		Err:       s.lastErr,
	}
}

// -----------------------------------------------------------------------------

// GetStatus returns the runtime status of the source
func (s *HybridSource) GetStatus() *models.MSourceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	intervalMs := 0
	if s.cfg.Transport == models.TransportPull {
		if d := s.pollingInterval(); d > 0 {
			intervalMs = int(d / time.Millisecond)
		}
	}

	status := &models.MSourceStatus{
		SourceName:    s.name,
		Running:       s.running,
		Connected:     s.connected,
		TransportType: s.cfg.Transport,
		Endpoint:      s.cfg.Endpoint,
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
func (s *HybridSource) SetCallbacks(cb Callbacks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cb = cb
}

// -----------------------------------------------------------------------------
// PUSH VARIANT
// -----------------------------------------------------------------------------

// startPush dials the WebSocket endpoint and wires the transport callbacks.
func (s *HybridSource) startPush(ctx context.Context, gen uint64) error {
	client := transports.NewWebSocketClient(s.cfg.Endpoint, s.logger, s.name, transports.WebSocketCallbacks{
		OnRawMessage: func(message []byte) { s.handleRawMessage(gen, message) },
		OnError:      func(err error) { s.handleTransportError(gen, err) },
		OnClose:      func(err error, clean bool) { s.handleClose(gen, err, clean) },
	})

	if err := client.Connect(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	if !s.running || gen != s.gen {
		// Torn down while dialing; release the connection we just opened.
		s.mu.Unlock()
		return client.Disconnect()
	}
	s.transport = client
	s.connected = true
	cb := s.cb
	s.mu.Unlock()

	if cb.OnOpen != nil {
		cb.OnOpen()
	}
	return nil
}

// -----------------------------------------------------------------------------

// handleRawMessage decodes an incoming push payload. A decode failure is
// surfaced as an error but does not close the connection; Data keeps its
// previous value.
func (s *HybridSource) handleRawMessage(gen uint64, message []byte) {
	var value any
	decodeErr := json.Unmarshal(message, &value)

	s.mu.Lock()
	if !s.running || gen != s.gen {
		s.mu.Unlock()
		return
	}
	cb := s.cb
	if decodeErr != nil {
		s.lastErr = fmt.Errorf("decode message: %w", decodeErr)
		err := s.lastErr
		s.mu.Unlock()

		s.logger.Warning("%s : failed to decode message: %v", s.name, decodeErr)
		if cb.OnError != nil {
			cb.OnError(err)
		}
		return
	}

	s.data = value
	s.mu.Unlock()

	if cb.OnData != nil {
		cb.OnData(value)
	}
}

// -----------------------------------------------------------------------------

// handleTransportError surfaces an underlying transport failure. This is a
// recorded condition, not itself a teardown.
func (s *HybridSource) handleTransportError(gen uint64, err error) {
	s.mu.Lock()
	if !s.running || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.lastErr = err
	s.connected = false
	cb := s.cb
	s.mu.Unlock()

	if cb.OnError != nil {
		cb.OnError(err)
	}
}

// -----------------------------------------------------------------------------

// handleClose records the closure. The close callback fires only for
// abnormal closes; expected shutdowns stay quiet and leave no error behind.
func (s *HybridSource) handleClose(gen uint64, err error, clean bool) {
	s.mu.Lock()
	if !s.running || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.connected = false
	if !clean {
		s.lastErr = err
	}
	cb := s.cb
	s.mu.Unlock()

	if !clean && cb.OnClose != nil {
		cb.OnClose(err)
	}
}

// -----------------------------------------------------------------------------
// PULL VARIANT
// -----------------------------------------------------------------------------

// startPull launches the polling loop. The first cycle runs immediately.
func (s *HybridSource) startPull(ctx context.Context, gen uint64) error {
	poller := transports.NewPollingClient(
		s.cfg.Endpoint,
		s.pollingInterval(),
		s.logger,
		s.name,
		func(body []byte, err error) { s.handlePollCycle(gen, body, err) },
	)

	if err := poller.Connect(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	if !s.running || gen != s.gen {
		s.mu.Unlock()
		return poller.Disconnect()
	}
	s.poller = poller
	s.mu.Unlock()
	return nil
}

// -----------------------------------------------------------------------------

// pollingInterval resolves the configured interval: zero means unset and
// takes the default, a negative value disables periodic re-polling.
func (s *HybridSource) pollingInterval() time.Duration {
	ms := s.cfg.PollingIntervalMs
	if ms == 0 {
		return defaultPollingInterval
	}
	if ms < 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// -----------------------------------------------------------------------------

// handlePollCycle applies the outcome of one fetch-decode cycle. Failures
// keep the loop alive; a success always clears a previously recorded error.
func (s *HybridSource) handlePollCycle(gen uint64, body []byte, fetchErr error) {
	var value any
	if fetchErr == nil {
		if err := json.Unmarshal(body, &value); err != nil {
			fetchErr = fmt.Errorf("decode response: %w", err)
		}
	}

	s.mu.Lock()
	if !s.running || gen != s.gen {
		s.mu.Unlock()
		return
	}
	cb := s.cb
	if fetchErr != nil {
		s.lastErr = fetchErr
		s.connected = false
		s.mu.Unlock()

		if cb.OnError != nil {
			cb.OnError(fetchErr)
		}
		return
	}

	s.data = value
	s.connected = true
	s.lastErr = nil
	s.mu.Unlock()

	if cb.OnData != nil {
		cb.OnData(value)
	}
}
