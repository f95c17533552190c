package ws

import "time"

// AlertMessage notifies presentation clients of an alert-state change.
// Only metadata crosses the socket; frames never leave the process.
type AlertMessage struct {
	Type        string    `json:"type"` // always "alert"
	Active      bool      `json:"active"`
	Reason      string    `json:"reason"`
	Audible     bool      `json:"audible"`
	ProximityCm *float64  `json:"proximity_cm,omitempty"`
	Seq         uint64    `json:"seq"`
	Timestamp   time.Time `json:"timestamp"`
}

// ModeMessage notifies presentation clients of an operating-mode change.
type ModeMessage struct {
	Type      string    `json:"type"` // always "mode"
	Mode      string    `json:"mode"`
	Timestamp time.Time `json:"timestamp"`
}
