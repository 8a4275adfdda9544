package models

// -----------------------------------------------------------------------------

// MSourceStatus represents the runtime status and technical metadata of a
// data source, aggregated from the source and its underlying transport.

type MSourceStatus struct {
	SourceName    string        `json:"source_name"`    // The name of the data source
	Running       bool          `json:"running"`        // True between Start and Stop
	Connected     bool          `json:"connected"`      // From the observable state
	TransportType TransportKind `json:"transport_type"` // e.g. "push", "pull", "interval"
	Endpoint      string        `json:"endpoint"`       // Configured endpoint (credentials masked for display)
	IntervalMs    int           `json:"interval_ms"`    // Effective timer interval, 0 for push
	LastError     string        `json:"last_error,omitempty"`
}
