package transports

import (
	"context"
	"fmt"
	"sync"
	"time"

	"data-syncer/src/logger"
	"data-syncer/src/utils"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------

// WebSocketCallbacks carries the event handlers a WebSocketClient invokes.
// OnClose receives the close error and whether the closure was clean
// (normal closure or going away).
type WebSocketCallbacks struct {
	OnRawMessage func(message []byte)
	OnError      func(err error)
	OnClose      func(err error, clean bool)
}

// -----------------------------------------------------------------------------

// WebSocketClient implements interfaces.ITransport using Gorilla WebSocket.
// There is no automatic reconnection: transport failures are surfaced through
// the callbacks and the owner decides whether to rebuild the subscription.
type WebSocketClient struct {
	conn      *websocket.Conn
	name      string
	endpoint  string
	logger    *logger.Logger
	callbacks WebSocketCallbacks
	isRunning bool
	mu        sync.RWMutex
	done      chan struct{}
}

// -----------------------------------------------------------------------------

// NewWebSocketClient creates a new WebSocket client
func NewWebSocketClient(endpoint string, log *logger.Logger, name string, callbacks WebSocketCallbacks) *WebSocketClient {
	return &WebSocketClient{
		name:      name,
		endpoint:  endpoint,
		logger:    log,
		callbacks: callbacks,
		isRunning: false,
		done:      make(chan struct{}),
	}
}

// -----------------------------------------------------------------------------

// Connect establishes the WebSocket connection and starts the read loop
func (w *WebSocketClient) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return nil
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, w.endpoint, nil)
	if err != nil {
		w.logger.Error("%s : failed to connect to %s: %v", w.name, utils.MaskAPIKey(w.endpoint), err)
		return fmt.Errorf("failed to connect to %s: %w", w.endpoint, err)
	}

	// Recreate the done channel for the new connection
	w.done = make(chan struct{})
	w.conn = conn
	w.isRunning = true

	w.logger.Info("%s : WebSocket connected to %s", w.name, utils.MaskAPIKey(w.endpoint))

	go w.readLoop(ctx)

	return nil
}

// -----------------------------------------------------------------------------

// Disconnect closes the connection
func (w *WebSocketClient) Disconnect() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.isRunning {
		return nil
	}

	w.isRunning = false
	close(w.done)

	if w.conn != nil {
		// Best-effort clean close frame before dropping the connection
		_ = w.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		err := w.conn.Close()
		w.conn = nil
		if err != nil {
			return fmt.Errorf("failed to close connection: %s: %w", w.endpoint, err)
		}
	}

	w.logger.Info("%s : WebSocket disconnected from %s", w.name, utils.MaskAPIKey(w.endpoint))
	return nil
}

// -----------------------------------------------------------------------------

// GetName returns the client name
func (w *WebSocketClient) GetName() string {
	return w.name
}

// -----------------------------------------------------------------------------

// GetType returns the transport type
func (w *WebSocketClient) GetType() string {
	return "websocket"
}

// -----------------------------------------------------------------------------

// IsRunning returns the connection status
func (w *WebSocketClient) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.isRunning
}

// -----------------------------------------------------------------------------

// SendMessage sends a text message to the WebSocket
func (w *WebSocketClient) SendMessage(data []byte) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.conn == nil {
		return fmt.Errorf("connection is not open")
	}

	err := w.conn.WriteMessage(websocket.TextMessage, data)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// readLoop receives messages until the connection fails or Disconnect runs
func (w *WebSocketClient) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		default:
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()

		if conn == nil {
			return
		}

		messageType, message, err := conn.ReadMessage()
		if err != nil {
			// Check if we are shutting down
			select {
			case <-w.done:
				return
			default:
			}

			w.mu.Lock()
			w.isRunning = false
			w.mu.Unlock()

			if closeErr, ok := err.(*websocket.CloseError); ok {
				clean := closeErr.Code == websocket.CloseNormalClosure ||
					closeErr.Code == websocket.CloseGoingAway
				if !clean {
					w.logger.Error("%s : websocket closed abnormally: %v", w.name, closeErr)
				}
				if w.callbacks.OnClose != nil {
					w.callbacks.OnClose(closeErr, clean)
				}
				return
			}

			w.logger.Error("%s : websocket read error: %v", w.name, err)
			if w.callbacks.OnError != nil {
				w.callbacks.OnError(fmt.Errorf("read message error: %w", err))
			}
			return
		}

		if messageType == websocket.TextMessage && w.callbacks.OnRawMessage != nil {
			w.callbacks.OnRawMessage(message)
		}
	}
}
