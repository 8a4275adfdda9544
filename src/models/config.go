package models

import "time"

// -----------------------------------------------------------------------------

// TransportKind discriminates how a data source obtains its values.
type TransportKind string

const (
	// TransportPush is a long-lived bidirectional WebSocket connection where
	// the server sends unsolicited messages.
	TransportPush TransportKind = "push"

	// TransportPull performs an HTTP GET against the endpoint on a fixed
	// timer.
	TransportPull TransportKind = "pull"

	// TransportInterval invokes a producer function on a fixed timer. When
	// built from configuration the producer is an HTTP GET against the
	// endpoint; library consumers supply their own.
	TransportInterval TransportKind = "interval"
)

// -----------------------------------------------------------------------------

// MConfig is the top-level service configuration loaded from YAML.
type MConfig struct {
	Name      string `yaml:"name"`
	Port      int    `yaml:"port"`
	GRPC_Host string `yaml:"grpc_host"`
	GRPC_Port int    `yaml:"grpc_port"`
	LogLevel  string `yaml:"log_level"`

	NATS    MNATSConfig      `yaml:"nats"`
	Sources []*MSourceConfig `yaml:"sources"`
}

// -----------------------------------------------------------------------------

// MSourceConfig describes a single data source. The Transport tag selects
// the variant; consumers must match on it exhaustively rather than probing
// for field presence.
type MSourceConfig struct {
	Name      string        `yaml:"name" json:"name"`
	Transport TransportKind `yaml:"transport" json:"transport"`
	Endpoint  string        `yaml:"endpoint" json:"endpoint"`
	Enabled   bool          `yaml:"enabled" json:"enabled"`

	// PollingIntervalMs applies to pull sources. Zero means unset and takes
	// the 5000ms default; a negative value disables periodic re-polling
	// after the initial fetch.
	PollingIntervalMs int `yaml:"polling_interval_ms" json:"polling_interval_ms"`

	// IntervalMs applies to interval sources. Zero or negative disables the
	// periodic timer; only the initial fetch (and manual refresh) run.
	IntervalMs int `yaml:"interval_ms" json:"interval_ms"`
}

// -----------------------------------------------------------------------------

// MNATSConfig configures the optional NATS sink.
type MNATSConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Servers       []string `yaml:"servers"`
	ClientID      string   `yaml:"client_id"`
	SubjectPrefix string   `yaml:"subject_prefix"`

	// Format selects the snapshot serializer: "json" (default) or "proto".
	Format string `yaml:"format"`

	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	ReconnectWait  time.Duration `yaml:"reconnect_wait"`
	MaxReconnects  int           `yaml:"max_reconnects"`
	FlushTimeout   time.Duration `yaml:"flush_timeout"`

	JetStream *MJetStreamConfig `yaml:"jetstream"`
}

// -----------------------------------------------------------------------------

// MJetStreamConfig configures persistent publishing via NATS JetStream.
type MJetStreamConfig struct {
	Enabled    bool          `yaml:"enabled"`
	StreamName string        `yaml:"stream_name"`
	Subjects   []string      `yaml:"subjects"`
	MaxAge     time.Duration `yaml:"max_age"`
	MaxMsgs    int64         `yaml:"max_msgs"`
	MaxBytes   int64         `yaml:"max_bytes"`
	MaxMsgSize int           `yaml:"max_msg_size"`
	Replicas   int           `yaml:"replicas"`
}
