package prediction

import (
	"context"
	"time"

	"github.com/synaptica-ai/noshow/pkg/appointment"
	"github.com/synaptica-ai/noshow/pkg/features"
	"github.com/synaptica-ai/noshow/pkg/meeting"
)

// RecordSource is the appointment document store.
type RecordSource interface {
	// ListLatest returns up to limit records of collection, newest createdAt first.
	ListLatest(ctx context.Context, collection string, limit int) ([]appointment.Record, error)
	// Update applies a partial update to the record with id and returns the stored record.
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) (appointment.Record, error)
}

// BlobStore serves the binary model artifacts.
type BlobStore interface {
	Download(ctx context.Context, bucket, fileID string) ([]byte, error)
}

// Scaler is a pre-fitted numeric transform applied before classification.
type Scaler interface {
	Transform(features.Vector) (features.Vector, error)
}

// Classifier is a pre-trained binary no-show model.
type Classifier interface {
	Predict(features.Vector) (Label, error)
}

// ProbabilityReporter is implemented by classifiers that can expose the score
// behind their last label.
type ProbabilityReporter interface {
	Probability(features.Vector) (float64, error)
}

// ModelLoader materializes the scaler and classifier for one invocation. A nil
// capability with a nil error means the artifact is not configured.
type ModelLoader interface {
	LoadScaler(ctx context.Context) (Scaler, error)
	LoadClassifier(ctx context.Context) (Classifier, error)
}

// MeetingService creates video meetings. A nil meeting with a nil error means
// the service declined to create one.
type MeetingService interface {
	CreateMeeting(ctx context.Context, topic string, durationMinutes int, start time.Time) (*meeting.Meeting, error)
}

// Notifier delivers one email.
type Notifier interface {
	SendEmail(ctx context.Context, subject, body, recipient string) error
}

// Recorder receives every terminal outcome after the workflow finished.
// Failures are logged and never change the outcome.
type Recorder interface {
	Name() string
	Record(ctx context.Context, outcome Outcome) error
}

// EventPublisher is the outbound side of the event bus.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}
