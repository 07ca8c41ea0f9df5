package prediction

import (
	"context"
	"fmt"

	"github.com/synaptica-ai/noshow/pkg/appointment"
	"github.com/synaptica-ai/noshow/pkg/common/logger"
	"github.com/synaptica-ai/noshow/pkg/common/models"
)

// EventSource identifies this function on the event bus.
const EventSource = "noshow-predictor"

// HandleAppointmentEvent runs the workflow for newly created appointments.
// Update events are ignored since PERSIST itself produces them. An error is
// returned only for transient failures, which the consumer retries before
// parking the event.
func HandleAppointmentEvent(runner Runner) func(ctx context.Context, event models.Event) error {
	return func(ctx context.Context, event models.Event) error {
		log := logger.WithFields(map[string]interface{}{
			"event_id":   event.ID,
			"event_type": event.Type,
		})
		if event.Type != models.EventAppointmentCreated {
			log.Debug("Ignoring appointment event")
			return nil
		}

		out := runner.Run(ctx)
		if out.State == StateError && out.Error != nil && out.Error.Transient() {
			return fmt.Errorf("invocation %s: %w", out.InvocationID, out.Error)
		}
		return nil
	}
}

// EventRecorder publishes every classified outcome as an appointment.prediction event.
type EventRecorder struct {
	publisher EventPublisher
}

func NewEventRecorder(publisher EventPublisher) *EventRecorder {
	return &EventRecorder{publisher: publisher}
}

func (r *EventRecorder) Name() string {
	return "events"
}

func (r *EventRecorder) Record(ctx context.Context, out Outcome) error {
	if out.State != StateDone || !out.Classified() {
		return nil
	}
	data := map[string]interface{}{
		"invocation_id":  out.InvocationID,
		"appointment_id": out.AppointmentID,
		"status":         out.Status,
		"label":          out.Label,
		"schema_version": out.SchemaVersion,
		"parse_outcome":  out.ParseOutcome,
		"notified":       out.Notified,
	}
	if out.Probability != nil {
		data["probability"] = *out.Probability
	}
	if schedule := out.Record().String(appointment.FieldSchedule); schedule != "" {
		data["schedule"] = schedule
	}
	if physician := out.Record().String(appointment.FieldPrimaryPhysician); physician != "" {
		data["primary_physician"] = physician
	}
	if out.Meeting != nil {
		data["meeting_id"] = out.Meeting.ID
	}
	return r.publisher.PublishEvent(ctx, models.EventAppointmentPrediction, EventSource, data)
}
