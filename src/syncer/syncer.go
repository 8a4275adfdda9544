package syncer

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"data-syncer/src/config"
	"data-syncer/src/factories"
	"data-syncer/src/interfaces"
	"data-syncer/src/logger"
	"data-syncer/src/models"
	"data-syncer/src/serializers"
	"data-syncer/src/sinks"
)

// -----------------------------------------------------------------------------
// Core Application Struct
// -----------------------------------------------------------------------------

// Syncer manages the set of named data sources and routes every decoded
// value into the configured sink.
type Syncer struct {
	Name   string
	Config *config.Config
	Logger *logger.Logger

	// Sink receives every decoded value (NATS when enabled, logging otherwise)
	Sink interfaces.ISink

	// Factory dependency to create source instances
	Factory *factories.SourceFactory

	// Running data source instances keyed by name
	Sources map[string]interfaces.ISource

	mu sync.RWMutex
}

// -----------------------------------------------------------------------------

// NewSyncer creates a new Syncer instance
func NewSyncer(cfg *config.Config, log *logger.Logger) *Syncer {
	var serializer interfaces.ISerializer
	if cfg.NATS.Format == "proto" {
		serializer = serializers.NewProtoSerializer()
	} else {
		serializer = serializers.NewJSONSerializer()
	}

	var sink interfaces.ISink
	if cfg.NATS.Enabled {
		sink = sinks.NewNATSSink(&cfg.NATS, log, serializer)
	} else {
		sink = sinks.NewLogSink(cfg.Name, log)
	}

	s := &Syncer{
		Name:    "DataSyncer",
		Config:  cfg,
		Logger:  log,
		Sink:    sink,
		Sources: make(map[string]interfaces.ISource),
	}

	// The factory routes every decoded value into the sink
	s.Factory = factories.NewSourceFactory(cfg, log, s.onData)

	return s
}

// -----------------------------------------------------------------------------
// Public Lifecycle Methods (All Sources)
// -----------------------------------------------------------------------------

// Start connects the sink, creates all configured sources, and starts the
// enabled ones.
func (ds *Syncer) Start() error {
	ds.Logger.Info("%s : starting data syncer", ds.Name)

	// 1. Connect the sink first - fail fast if it is unavailable
	if err := ds.Sink.Connect(); err != nil {
		return fmt.Errorf("failed to connect sink: %w", err)
	}

	// 2. Create all sources using the factory
	created, err := ds.Factory.CreateAllSources()
	if err != nil {
		return fmt.Errorf("failed to create data sources: %w", err)
	}

	ds.mu.Lock()
	ds.Sources = created
	ds.mu.Unlock()

	// 3. Start every enabled source; startup failures are logged, not fatal
	for name, source := range created {
		if err := source.Start(); err != nil {
			ds.Logger.Error("%s : source %s startup error: %v", ds.Name, name, err)
		}
	}

	ds.Logger.Info("%s : started, managing %d sources", ds.Name, len(created))
	return nil
}

// -----------------------------------------------------------------------------

// Stop gracefully shuts down all sources and disconnects the sink.
func (ds *Syncer) Stop() error {
	ds.Logger.Info("%s : stopping data syncer", ds.Name)

	ds.mu.RLock()
	for name, source := range ds.Sources {
		if err := source.Stop(); err != nil {
			ds.Logger.Error("%s : failed to stop source %s: %v", ds.Name, name, err)
		}
	}
	ds.mu.RUnlock()

	if err := ds.Sink.Disconnect(); err != nil {
		ds.Logger.Error("%s : failed to disconnect sink: %v", ds.Name, err)
	}

	ds.Logger.Info("%s : stopped", ds.Name)
	return nil
}

// -----------------------------------------------------------------------------
// Dynamic Data Source Management Methods
// -----------------------------------------------------------------------------

// StartSource starts a single, named data source synchronously.
func (ds *Syncer) StartSource(sourceName string) error {
	source, err := ds.getSource(sourceName)
	if err != nil {
		return err
	}

	if err := source.Start(); err != nil {
		ds.Logger.Error("%s : source %s startup error: %v", ds.Name, sourceName, err)
		return err
	}

	ds.Logger.Info("%s : source '%s' started successfully", ds.Name, sourceName)
	return nil
}

// -----------------------------------------------------------------------------

// StopSource stops a single, named data source.
func (ds *Syncer) StopSource(sourceName string) error {
	source, err := ds.getSource(sourceName)
	if err != nil {
		return err
	}

	ds.Logger.Info("%s : stopping source %s", ds.Name, sourceName)
	return source.Stop()
}

// -----------------------------------------------------------------------------

// AddSource creates a new source from the given config block and stores it,
// ready to be started.
func (ds *Syncer) AddSource(sourceConfig *models.MSourceConfig) error {
	ds.Logger.Info("%s : attempting to add new data source: %s", ds.Name, sourceConfig.Name)

	ds.mu.RLock()
	_, exists := ds.Sources[sourceConfig.Name]
	ds.mu.RUnlock()

	if exists {
		return fmt.Errorf("data source '%s' is already registered", sourceConfig.Name)
	}

	source, err := ds.Factory.CreateSourceFromConfig(sourceConfig)
	if err != nil {
		return fmt.Errorf("failed to create source %s: %w", sourceConfig.Name, err)
	}

	ds.mu.Lock()
	ds.Sources[sourceConfig.Name] = source
	ds.mu.Unlock()

	ds.Logger.Info("%s : data source '%s' successfully added, ready to be started", ds.Name, sourceConfig.Name)
	return nil
}

// -----------------------------------------------------------------------------

// RemoveSource stops a source if needed and removes it from the map.
func (ds *Syncer) RemoveSource(sourceName string) error {
	source, err := ds.getSource(sourceName)
	if err != nil {
		return fmt.Errorf("data source '%s' not found for deletion", sourceName)
	}

	if source.GetStatus().Running {
		if err := source.Stop(); err != nil {
			ds.Logger.Error("%s : failed to stop source %s before removal: %v", ds.Name, sourceName, err)
		}
	}

	ds.mu.Lock()
	delete(ds.Sources, sourceName)
	ds.mu.Unlock()

	ds.Logger.Info("%s : data source '%s' removed", ds.Name, sourceName)
	return nil
}

// -----------------------------------------------------------------------------

// UpdateSource replaces a source with one built from the new configuration.
// The old subscription is torn down first and the replacement starts with
// freshly reset state; this is the config-change edge of the lifecycle.
// When the new config disables the source it is recreated but not started.
func (ds *Syncer) UpdateSource(sourceConfig *models.MSourceConfig) error {
	old, err := ds.getSource(sourceConfig.Name)
	if err != nil {
		return err
	}

	if err := old.Stop(); err != nil {
		ds.Logger.Error("%s : failed to stop source %s before update: %v", ds.Name, sourceConfig.Name, err)
	}

	replacement, err := ds.Factory.CreateSourceFromConfig(sourceConfig)
	if err != nil {
		return fmt.Errorf("failed to recreate source %s: %w", sourceConfig.Name, err)
	}

	ds.mu.Lock()
	ds.Sources[sourceConfig.Name] = replacement
	ds.mu.Unlock()

	if !sourceConfig.Enabled {
		ds.Logger.Info("%s : source '%s' updated and disabled", ds.Name, sourceConfig.Name)
		return nil
	}

	if err := replacement.Start(); err != nil {
		return fmt.Errorf("failed to start updated source %s: %w", sourceConfig.Name, err)
	}

	ds.Logger.Info("%s : source '%s' updated and restarted", ds.Name, sourceConfig.Name)
	return nil
}

// -----------------------------------------------------------------------------

// RefreshSource triggers an immediate fetch on a timed source.
func (ds *Syncer) RefreshSource(sourceName string) error {
	source, err := ds.getSource(sourceName)
	if err != nil {
		return err
	}
	return source.Refresh()
}

// -----------------------------------------------------------------------------

// SendMessage forwards a payload over a named push source.
func (ds *Syncer) SendMessage(sourceName string, payload any) error {
	source, err := ds.getSource(sourceName)
	if err != nil {
		return err
	}
	if source.GetStatus().TransportType != models.TransportPush {
		return fmt.Errorf("data source '%s' is not a push source", sourceName)
	}
	return source.SendMessage(payload)
}

// -----------------------------------------------------------------------------

// ListSources returns the managed source names, sorted for stable output.
func (ds *Syncer) ListSources() []string {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	names := make([]string, 0, len(ds.Sources))
	for name := range ds.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// -----------------------------------------------------------------------------
// Status Methods
// -----------------------------------------------------------------------------

// GetSourceStatus returns the current status of a single data source.
func (ds *Syncer) GetSourceStatus(sourceName string) (*models.MSourceStatus, error) {
	source, err := ds.getSource(sourceName)
	if err != nil {
		return nil, err
	}
	return source.GetStatus(), nil
}

// -----------------------------------------------------------------------------

// GetSourceState returns the observable state of a single data source.
func (ds *Syncer) GetSourceState(sourceName string) (*models.MObservableState, error) {
	source, err := ds.getSource(sourceName)
	if err != nil {
		return nil, err
	}
	return source.GetState(), nil
}

// -----------------------------------------------------------------------------

// Statuses returns the status of every managed source.
func (ds *Syncer) Statuses() []*models.MSourceStatus {
	ds.mu.RLock()
	sources := make([]interfaces.ISource, 0, len(ds.Sources))
	for _, source := range ds.Sources {
		sources = append(sources, source)
	}
	ds.mu.RUnlock()

	result := make([]*models.MSourceStatus, 0, len(sources))
	for _, source := range sources {
		result = append(result, source.GetStatus())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SourceName < result[j].SourceName
	})
	return result
}

// -----------------------------------------------------------------------------
// Private/Helper Methods
// -----------------------------------------------------------------------------

// getSource looks up a managed source by name.
func (ds *Syncer) getSource(sourceName string) (interfaces.ISource, error) {
	ds.mu.RLock()
	source, ok := ds.Sources[sourceName]
	ds.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("data source '%s' not found", sourceName)
	}
	return source, nil
}

// -----------------------------------------------------------------------------

// onData stamps a decoded value and hands it to the sink.
func (ds *Syncer) onData(sourceName string, value any) {
	ds.Sink.OnSnapshot(&models.MSnapshot{
		Source:    sourceName,
		Timestamp: time.Now(),
		Payload:   value,
	})
}
