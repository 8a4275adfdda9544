package models

import (
	"encoding/json"
	"time"
)

// -----------------------------------------------------------------------------

// MObservableState is the value a data source exposes to its consumers.
// Data holds the most recently decoded value (nil before the first success),
// Connected reflects the transport (open push connection, or at least one
// pull success with no later failure), Loading is true while an interval
// fetch is in flight, and Err holds the last recorded failure.
//
// Err and stale Data can coexist; the three states are distinguishable but
// not mutually exclusive.
type MObservableState struct {
	Data      any
	Connected bool
	Loading   bool
	Err       error
}

// -----------------------------------------------------------------------------

// MarshalJSON renders the state for the REST surface; the error is
// flattened to its message.
func (s *MObservableState) MarshalJSON() ([]byte, error) {
	out := struct {
		Data      any    `json:"data"`
		Connected bool   `json:"connected"`
		Loading   bool   `json:"loading"`
		Error     string `json:"error,omitempty"`
	}{
		Data:      s.Data,
		Connected: s.Connected,
		Loading:   s.Loading,
	}
	if s.Err != nil {
		out.Error = s.Err.Error()
	}
	return json.Marshal(out)
}

// -----------------------------------------------------------------------------

// MSnapshot is the unit handed to the sink: one decoded value from one
// source, stamped at decode time.
type MSnapshot struct {
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}
