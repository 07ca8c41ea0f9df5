package prediction

import (
	"time"

	"github.com/synaptica-ai/noshow/pkg/appointment"
	"github.com/synaptica-ai/noshow/pkg/features"
	"github.com/synaptica-ai/noshow/pkg/meeting"
)

// State is the terminal state of one invocation.
type State string

const (
	StateDone  State = "DONE"
	StateEmpty State = "EMPTY"
	StateError State = "ERROR"
)

// Label is the classifier's verdict.
type Label int

const (
	LabelShow Label = iota
	LabelNoShow
)

func (l Label) String() string {
	if l == LabelNoShow {
		return "no_show"
	}
	return "show"
}

// StatusFor maps a label onto the stored appointment status.
func StatusFor(l Label) string {
	if l == LabelNoShow {
		return appointment.StatusCancelled
	}
	return appointment.StatusScheduled
}

// Outcome is the structured result every invocation returns.
type Outcome struct {
	InvocationID  string           `json:"invocation_id"`
	State         State            `json:"state"`
	AppointmentID string           `json:"appointment_id,omitempty"`
	Status        string           `json:"status,omitempty"`
	Label         string           `json:"label,omitempty"`
	Probability   *float64         `json:"probability,omitempty"`
	SchemaVersion string           `json:"schema_version,omitempty"`
	Features      features.Vector  `json:"features,omitempty"`
	ParseOutcome  string           `json:"parse_outcome,omitempty"`
	Scaled        bool             `json:"scaled"`
	Meeting       *meeting.Meeting `json:"meeting,omitempty"`
	Notified      bool             `json:"notified"`
	Warnings      []*StageError    `json:"warnings,omitempty"`
	Message       string           `json:"message,omitempty"`
	Reason        ErrorKind        `json:"reason,omitempty"`
	Error         *StageError      `json:"error,omitempty"`
	StartedAt     time.Time        `json:"started_at"`
	LatencyMs     float64          `json:"latency_ms"`

	record appointment.Record
}

// Record returns the fetched appointment document, if any.
func (o Outcome) Record() appointment.Record {
	return o.record
}

// Classified reports whether the invocation reached a status decision.
func (o Outcome) Classified() bool {
	return o.Status != ""
}

// Degraded reports whether the temporal fallback shaped the feature vector.
func (o Outcome) Degraded() bool {
	return o.ParseOutcome == features.TemporalFallback.String()
}
