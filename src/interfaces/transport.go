package interfaces

import (
	"context"
)

// -----------------------------------------------------------------------------

// ITransport defines the interface for transport clients (WebSocket, HTTP
// polling). Event callbacks are passed during client initialization.
type ITransport interface {
	// Connect opens the connection or starts the polling loop.
	Connect(ctx context.Context) error

	// Disconnect closes the connection or stops the polling loop.
	Disconnect() error

	// IsRunning returns the transport status
	IsRunning() bool

	// GetName returns the client name
	GetName() string

	// GetType returns the transport type
	GetType() string

	// Send a message over the transport; polling transports cannot send.
	SendMessage([]byte) error
}
