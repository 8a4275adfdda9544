package factories

import (
	"fmt"

	"data-syncer/src/config"
	"data-syncer/src/interfaces"
	"data-syncer/src/logger"
	"data-syncer/src/models"
	"data-syncer/src/sources"
)

// -----------------------------------------------------------------------------

// SourceFactory creates data source instances based on configuration
type SourceFactory struct {
	Name   string
	Config *config.Config
	Logger *logger.Logger
	// The final callback function for distributing decoded values
	OnDataCallback func(sourceName string, value any)
}

// -----------------------------------------------------------------------------

// NewSourceFactory creates a new SourceFactory instance
func NewSourceFactory(cfg *config.Config, log *logger.Logger, onData func(sourceName string, value any)) *SourceFactory {
	return &SourceFactory{
		Name:           "SourceFactory",
		Config:         cfg,
		Logger:         log,
		OnDataCallback: onData,
	}
}

// -----------------------------------------------------------------------------

// CreateSource creates a source instance by config name using the dynamic registry.
func (sf *SourceFactory) CreateSource(sourceName string) (interfaces.ISource, error) {
	sourceConfig := sf.Config.GetSourceByName(sourceName)
	if sourceConfig == nil {
		return nil, fmt.Errorf("data source %s not found in config", sourceName)
	}
	return sf.CreateSourceFromConfig(sourceConfig)
}

// -----------------------------------------------------------------------------

// CreateSourceFromConfig builds a source directly from a config block,
// wiring its data callback into the factory's distribution function.
func (sf *SourceFactory) CreateSourceFromConfig(sourceConfig *models.MSourceConfig) (interfaces.ISource, error) {
	// Dynamically fetch the constructor for the transport kind
	constructor, err := sources.GetConstructor(sourceConfig.Transport)
	if err != nil {
		return nil, err // Returns "unknown transport kind: ..." error
	}

	name := sourceConfig.Name
	callbacks := sources.Callbacks{
		OnOpen: func() {
			sf.Logger.Info("%s : source %s connection opened", sf.Name, name)
		},
		OnData: func(value any) {
			if sf.OnDataCallback != nil {
				sf.OnDataCallback(name, value)
			}
		},
		OnError: func(err error) {
			sf.Logger.Warning("%s : source %s reported error: %v", sf.Name, name, err)
		},
		OnClose: func(err error) {
			sf.Logger.Warning("%s : source %s closed abnormally: %v", sf.Name, name, err)
		},
	}

	newSource, err := constructor(sourceConfig, sf.Logger, callbacks)
	if err != nil {
		return nil, fmt.Errorf("failed to create source %s: %w", name, err)
	}

	sf.Logger.Info("%s : successfully created source %s with %s transport",
		sf.Name,
		newSource.GetName(),
		sourceConfig.Transport,
	)

	return newSource, nil
}

// -----------------------------------------------------------------------------

// CreateAllSources creates all sources from configuration
func (sf *SourceFactory) CreateAllSources() (map[string]interfaces.ISource, error) {
	result := make(map[string]interfaces.ISource)

	for _, sourceConfig := range sf.Config.Sources {
		source, err := sf.CreateSourceFromConfig(sourceConfig)
		if err != nil {
			sf.Logger.Error("%s : failed to create source %s: %v", sf.Name, sourceConfig.Name, err)
			continue
		}
		result[sourceConfig.Name] = source
	}

	return result, nil
}
