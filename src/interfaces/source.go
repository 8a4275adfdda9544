package interfaces

import "data-syncer/src/models"

// -----------------------------------------------------------------------------

// ISource defines the interface for managing a single data source lifecycle
type ISource interface {
	GetName() string

	// Start creates the underlying subscription (connection or timer) and
	// resets Connected/Err to their initial values.
	Start() error

	// Stop tears the subscription down. A fetch still in flight must not
	// mutate state after Stop returns.
	Stop() error

	// Refresh triggers an immediate fetch on timed transports. It returns an
	// error for push sources, which have no client-driven fetch path.
	Refresh() error

	// SendMessage forwards a payload over a push transport. Calling it on a
	// non-push source is a programming error and panics.
	SendMessage(payload any) error

	// GetState returns a copy of the current observable state.
	GetState() *models.MObservableState

	GetStatus() *models.MSourceStatus
}
