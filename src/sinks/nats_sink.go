package sinks

import (
	"fmt"
	"sync"
	"time"

	"data-syncer/src/interfaces"
	"data-syncer/src/logger"
	"data-syncer/src/models"

	"github.com/nats-io/nats.go"
)

// -----------------------------------------------------------------------------
// NATSSink implements interfaces.ISink on top of a NATS connection
// -----------------------------------------------------------------------------

// NATSSink publishes every snapshot to a per-source subject, optionally via
// JetStream for persistent delivery.
type NATSSink struct {
	name   string
	config *models.MNATSConfig
	logger *logger.Logger

	useJetStream bool

	mu sync.RWMutex

	nc         *nats.Conn             // NATS core connection
	js         nats.JetStreamContext  // JetStream context (if enabled)
	serializer interfaces.ISerializer // serialize snapshot before sending

	connected bool
}

// -----------------------------------------------------------------------------

// NewNATSSink creates a new NATS sink instance
func NewNATSSink(config *models.MNATSConfig, log *logger.Logger, serializer interfaces.ISerializer) interfaces.ISink {
	return &NATSSink{
		name:       config.ClientID,
		config:     config,
		logger:     log,
		serializer: serializer,
	}
}

// -----------------------------------------------------------------------------

// OnSnapshot is the central callback where every decoded source value lands.
func (ns *NATSSink) OnSnapshot(snap *models.MSnapshot) {
	subject := fmt.Sprintf("datasync.%s", snap.Source)

	data, err := ns.serializer.Marshal(snap)
	if err != nil {
		// CRITICAL: a serialization failure here means the value never
		// reaches any consumer.
		ns.logger.Error("%s : failed to serialize snapshot for subject %s: %v", ns.name, subject, err)
		return
	}

	if ns.useJetStream {
		err = ns.publishJetStream(subject, data)
	} else {
		err = ns.publish(subject, data)
	}

	if err != nil {
		ns.logger.Error("%s : failed to publish snapshot from %s to subject %s: %v",
			ns.name, snap.Source, subject, err)
	}
}

// -----------------------------------------------------------------------------

// publish sends raw data to a NATS core subject (fire-and-forget).
func (ns *NATSSink) publish(subject string, data []byte) error {
	if !ns.IsConnected() {
		return fmt.Errorf("nats sink not connected")
	}
	return ns.nc.Publish(ns.getSubject(subject), data)
}

// -----------------------------------------------------------------------------

// publishJetStream sends raw data using JetStream with delivery acknowledgement.
func (ns *NATSSink) publishJetStream(subject string, data []byte) error {
	if !ns.IsConnected() {
		return fmt.Errorf("nats sink not connected")
	}
	if ns.js == nil {
		return fmt.Errorf("jetstream is not initialized or enabled")
	}

	fullSubject := ns.getSubject(subject)
	_, err := ns.js.Publish(fullSubject, data)
	if err != nil {
		ns.logger.Error("%s : jetstream publish failed for %s: %v", ns.name, fullSubject, err)
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

// Connect establishes connection to the NATS server and sets up the
// JetStream context if configured.
func (ns *NATSSink) Connect() error {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if ns.nc != nil && ns.nc.IsConnected() {
		return nil
	}

	opts := []nats.Option{
		nats.Name(ns.config.ClientID),
		nats.Timeout(ns.config.ConnectTimeout),
		nats.ReconnectWait(ns.config.ReconnectWait),
		nats.MaxReconnects(ns.config.MaxReconnects),
		nats.FlusherTimeout(ns.config.FlushTimeout),

		// Connection Event Handlers
		nats.RetryOnFailedConnect(true),
		nats.ClosedHandler(func(nc *nats.Conn) {
			ns.logger.Error("%s : NATS connection closed unexpectedly", ns.name)
			ns.setConnected(false)
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			ns.logger.Warning("%s : NATS disconnected, attempting reconnect: %v", ns.name, err)
			ns.setConnected(false)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			ns.logger.Info("%s : NATS successfully reconnected to %s", ns.name, nc.ConnectedUrl())
			ns.setConnected(true)
		}),
	}

	var err error
	ns.nc, err = nats.Connect(ns.config.Servers[0], opts...)
	if err != nil {
		return fmt.Errorf("nats connection failed: %w", err)
	}

	ns.connected = true
	ns.logger.Info("%s : successfully connected to NATS at %s", ns.name, ns.nc.ConnectedUrl())

	if ns.config.JetStream != nil && ns.config.JetStream.Enabled {
		ns.useJetStream = true
		ns.logger.Info("%s : sink using NATS JetStream for persistent publishing", ns.name)

		ns.js, err = ns.nc.JetStream()
		if err != nil {
			ns.logger.Error("%s : failed to create JetStream context: %v", ns.name, err)
			return fmt.Errorf("jetstream context creation failed: %w", err)
		}

		// Provision the stream up front; publishing fails later if the
		// stream really cannot exist.
		if err := ns.ensureStreamExists(); err != nil {
			ns.logger.Warning("%s : failed to ensure stream exists: %v (continuing anyway)", ns.name, err)
		}
	} else {
		ns.useJetStream = false
		ns.logger.Info("%s : sink using NATS Core (fire-and-forget), JetStream is disabled in config", ns.name)
	}

	return nil
}

// -----------------------------------------------------------------------------

// ensureStreamExists creates the JetStream stream based on configuration.
func (ns *NATSSink) ensureStreamExists() error {
	if ns.js == nil || ns.config.JetStream == nil {
		return fmt.Errorf("jetstream not initialized")
	}

	streamName := ns.config.JetStream.StreamName
	if streamName == "" {
		return fmt.Errorf("stream name not configured")
	}

	// Check if stream already exists
	stream, err := ns.js.StreamInfo(streamName)
	if err == nil {
		ns.logger.Info("%s : JetStream stream '%s' already exists with %d subjects",
			ns.name, streamName, len(stream.Config.Subjects))
		return nil
	}

	ns.logger.Info("%s : creating JetStream stream '%s'", ns.name, streamName)

	maxAge := ns.config.JetStream.MaxAge
	if maxAge == 0 {
		maxAge = 72 * time.Hour
	}

	streamConfig := &nats.StreamConfig{
		Name:       streamName,
		Subjects:   ns.config.JetStream.Subjects,
		Retention:  nats.LimitsPolicy,
		Storage:    nats.FileStorage,
		Replicas:   ns.config.JetStream.Replicas,
		MaxAge:     maxAge,
		MaxMsgs:    ns.config.JetStream.MaxMsgs,
		MaxBytes:   ns.config.JetStream.MaxBytes,
		MaxMsgSize: int32(ns.config.JetStream.MaxMsgSize),
		Discard:    nats.DiscardOld,
	}

	if _, err := ns.js.AddStream(streamConfig); err != nil {
		return fmt.Errorf("failed to create stream '%s': %w", streamName, err)
	}

	ns.logger.Info("%s : successfully created JetStream stream '%s' with subjects: %v",
		ns.name, streamName, ns.config.JetStream.Subjects)
	return nil
}

// -----------------------------------------------------------------------------

// Disconnect closes the NATS connection
func (ns *NATSSink) Disconnect() error {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if ns.nc == nil || ns.nc.IsClosed() {
		return nil
	}

	ns.nc.Close()
	ns.connected = false
	ns.logger.Info("%s : NATS connection closed successfully", ns.name)
	return nil
}

// -----------------------------------------------------------------------------

// IsConnected returns connection status
func (ns *NATSSink) IsConnected() bool {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.connected
}

// -----------------------------------------------------------------------------

// setConnected updates the connection status safely.
// Called from NATS connection event handlers (different goroutines).
func (ns *NATSSink) setConnected(status bool) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.connected = status
}

// -----------------------------------------------------------------------------

// getSubject prepends the configured subject prefix if it exists.
func (ns *NATSSink) getSubject(subject string) string {
	if ns.config.SubjectPrefix != "" {
		return fmt.Sprintf("%s.%s", ns.config.SubjectPrefix, subject)
	}
	return subject
}
