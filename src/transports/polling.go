package transports

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"data-syncer/src/logger"
	"data-syncer/src/utils"
)

// -----------------------------------------------------------------------------

// PollingClient implements interfaces.ITransport by fetching the endpoint on
// a fixed timer. Each cycle performs one HTTP GET and hands the body (or the
// failure) to the onCycle callback; failures never stop the loop.
//
// A client serves one connection: after Disconnect, build a new client to
// poll again. The done and refresh channels are created once and never
// reassigned, so the loop and TriggerRefresh can read them unguarded.
type PollingClient struct {
	name     string
	endpoint string
	interval time.Duration
	once     bool // run the initial fetch only, no periodic timer
	logger   *logger.Logger
	client   *http.Client
	onCycle  func(body []byte, err error)

	mu        sync.RWMutex
	isRunning bool
	done      chan struct{}
	refresh   chan struct{}
}

// -----------------------------------------------------------------------------

// NewPollingClient creates a new polling client. A non-positive interval
// disables the periodic timer; only the initial fetch (and manual refreshes)
// run.
func NewPollingClient(endpoint string, interval time.Duration, log *logger.Logger, name string, onCycle func([]byte, error)) *PollingClient {
	return &PollingClient{
		name:     name,
		endpoint: endpoint,
		interval: interval,
		once:     interval <= 0,
		logger:   log,
		client:   &http.Client{},
		onCycle:  onCycle,
		done:     make(chan struct{}),
		refresh:  make(chan struct{}, 1),
	}
}

// -----------------------------------------------------------------------------

// Connect starts the polling loop. The first fetch runs immediately.
func (p *PollingClient) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		return nil
	}

	select {
	case <-p.done:
		return fmt.Errorf("polling client for %s cannot be reused after disconnect", utils.MaskAPIKey(p.endpoint))
	default:
	}

	p.isRunning = true

	p.logger.Info("%s : polling %s every %v", p.name, utils.MaskAPIKey(p.endpoint), p.interval)

	go p.pollLoop(ctx)

	return nil
}

// -----------------------------------------------------------------------------

// Disconnect stops the polling loop. A fetch already in flight finishes on
// its own; its result is still delivered to onCycle and the owner drops it.
func (p *PollingClient) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isRunning {
		return nil
	}

	p.isRunning = false
	close(p.done)

	p.logger.Info("%s : polling stopped for %s", p.name, utils.MaskAPIKey(p.endpoint))
	return nil
}

// -----------------------------------------------------------------------------

// GetName returns the client name
func (p *PollingClient) GetName() string {
	return p.name
}

// -----------------------------------------------------------------------------

// GetType returns the transport type
func (p *PollingClient) GetType() string {
	return "polling"
}

// -----------------------------------------------------------------------------

// IsRunning returns the loop status
func (p *PollingClient) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isRunning
}

// -----------------------------------------------------------------------------

// SendMessage is not supported on a polling transport
func (p *PollingClient) SendMessage([]byte) error {
	return fmt.Errorf("polling transport cannot send messages")
}

// -----------------------------------------------------------------------------

// TriggerRefresh schedules an immediate fetch cycle. Coalesces when a
// refresh is already pending.
func (p *PollingClient) TriggerRefresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// -----------------------------------------------------------------------------

// FetchOnce performs a single GET cycle and returns the response body.
// A non-2xx status is reported as an error.
func (p *PollingClient) FetchOnce(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", p.endpoint, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", p.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", p.endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body from %s: %w", p.endpoint, err)
	}

	return body, nil
}

// -----------------------------------------------------------------------------

// pollLoop runs fetch cycles until Disconnect. The initial cycle runs
// immediately; subsequent cycles run on the timer or on TriggerRefresh.
func (p *PollingClient) pollLoop(ctx context.Context) {
	p.runCycle(ctx)

	if p.once {
		// No periodic timer; stay alive for manual refreshes only.
		for {
			select {
			case <-ctx.Done():
				return
			case <-p.done:
				return
			case <-p.refresh:
				p.runCycle(ctx)
			}
		}
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case <-ticker.C:
			p.runCycle(ctx)
		case <-p.refresh:
			p.runCycle(ctx)
		}
	}
}

// -----------------------------------------------------------------------------

// runCycle executes one fetch and reports the outcome
func (p *PollingClient) runCycle(ctx context.Context) {
	body, err := p.FetchOnce(ctx)
	if err != nil {
		p.logger.Warning("%s : poll cycle failed: %v", p.name, err)
	}
	if p.onCycle != nil {
		p.onCycle(body, err)
	}
}
