package sources

import (
	"fmt"
	"sync"

	"data-syncer/src/interfaces"
	"data-syncer/src/logger"
	"data-syncer/src/models"
)

// -----------------------------------------------------------------------------

// Callbacks carries the consumer-side event handlers for a data source.
// Handlers may be swapped at any time with SetCallbacks; the active
// subscription always reads the latest set. Nil handlers are skipped.
type Callbacks struct {
	// OnOpen fires when a push connection opens.
	OnOpen func()

	// OnData fires with every decoded value.
	OnData func(value any)

	// OnError fires for fetch, decode, and transport failures.
	OnError func(err error)

	// OnClose fires only for abnormal closures of a push connection; clean
	// shutdowns are suppressed.
	OnClose func(err error)
}

// -----------------------------------------------------------------------------

// ISourceConstructor defines the function signature for building a source of
// one transport kind from configuration.
type ISourceConstructor func(cfg *models.MSourceConfig, log *logger.Logger, cb Callbacks) (interfaces.ISource, error)

// The registry map. Key is the transport kind, value is the constructor.
var (
	registry = make(map[models.TransportKind]ISourceConstructor)
	mu       sync.RWMutex // Use a mutex for concurrent map access
)

// Register is called by each source's init() function to add itself to the map.
func Register(kind models.TransportKind, constructor ISourceConstructor) error {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[kind]; exists {
		return fmt.Errorf("source constructor already registered for transport kind: %s", kind)
	}
	registry[kind] = constructor
	return nil
}

// GetConstructor is used by the SourceFactory to retrieve the constructor.
func GetConstructor(kind models.TransportKind) (ISourceConstructor, error) {
	mu.RLock()
	defer mu.RUnlock()
	constructor, exists := registry[kind]
	if !exists {
		return nil, fmt.Errorf("unknown transport kind: %s", kind)
	}
	return constructor, nil
}
