package sinks

import (
	"data-syncer/src/interfaces"
	"data-syncer/src/logger"
	"data-syncer/src/models"
)

// -----------------------------------------------------------------------------

// LogSink implements interfaces.ISink by logging every snapshot. It is the
// default sink when no messaging backend is configured.
type LogSink struct {
	name   string
	logger *logger.Logger
}

// -----------------------------------------------------------------------------

// NewLogSink creates a new logging sink
func NewLogSink(name string, log *logger.Logger) interfaces.ISink {
	return &LogSink{
		name:   name,
		logger: log,
	}
}

// -----------------------------------------------------------------------------

// OnSnapshot logs one decoded value
func (ls *LogSink) OnSnapshot(snap *models.MSnapshot) {
	ls.logger.Info("%s : %s @ %s : %v", ls.name, snap.Source, snap.Timestamp.Format("15:04:05.000"), snap.Payload)
}

// -----------------------------------------------------------------------------

// Connect is a no-op for the logging sink
func (ls *LogSink) Connect() error {
	return nil
}

// -----------------------------------------------------------------------------

// Disconnect is a no-op for the logging sink
func (ls *LogSink) Disconnect() error {
	return nil
}

// -----------------------------------------------------------------------------

// IsConnected always reports true
func (ls *LogSink) IsConnected() bool {
	return true
}
