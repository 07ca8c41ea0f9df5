package models

import (
	"time"
)

// Event bus types
const (
	EventAppointmentCreated    = "appointment.created"
	EventAppointmentUpdated    = "appointment.updated"
	EventAppointmentPrediction = "appointment.prediction"
)

// Event is the envelope carried on every topic.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// DocumentID returns the appointment id carried in the event payload, if any.
func (e Event) DocumentID() string {
	for _, key := range []string{"id", "$id", "appointment_id"} {
		if v, ok := e.Data[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
