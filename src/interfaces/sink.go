package interfaces

import "data-syncer/src/models"

// -----------------------------------------------------------------------------

// ISink defines the interface for delivering decoded source values to the
// outside world (messaging bus, logs). It is the collaborator that renders
// or distributes the data; sources never know what happens downstream.
type ISink interface {
	// OnSnapshot processes one decoded value
	OnSnapshot(snap *models.MSnapshot)

	// Connect establishes connection to the downstream system
	Connect() error

	// Disconnect closes the connection to the downstream system
	Disconnect() error

	// IsConnected returns the current connection status
	IsConnected() bool
}
