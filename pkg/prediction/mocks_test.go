package prediction

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/synaptica-ai/noshow/pkg/appointment"
	"github.com/synaptica-ai/noshow/pkg/features"
	"github.com/synaptica-ai/noshow/pkg/meeting"
)

type MockRecordSource struct {
	mock.Mock
}

func (m *MockRecordSource) ListLatest(ctx context.Context, collection string, limit int) ([]appointment.Record, error) {
	args := m.Called(ctx, collection, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appointment.Record), args.Error(1)
}

func (m *MockRecordSource) Update(ctx context.Context, collection, id string, fields map[string]interface{}) (appointment.Record, error) {
	args := m.Called(ctx, collection, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(appointment.Record), args.Error(1)
}

type MockModelLoader struct {
	mock.Mock
}

func (m *MockModelLoader) LoadScaler(ctx context.Context) (Scaler, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Scaler), args.Error(1)
}

func (m *MockModelLoader) LoadClassifier(ctx context.Context) (Classifier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Classifier), args.Error(1)
}

type MockMeetingService struct {
	mock.Mock
}

func (m *MockMeetingService) CreateMeeting(ctx context.Context, topic string, durationMinutes int, start time.Time) (*meeting.Meeting, error) {
	args := m.Called(ctx, topic, durationMinutes, start)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*meeting.Meeting), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendEmail(ctx context.Context, subject, body, recipient string) error {
	args := m.Called(ctx, subject, body, recipient)
	return args.Error(0)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Name() string {
	return "mock"
}

func (m *MockRecorder) Record(ctx context.Context, outcome Outcome) error {
	args := m.Called(ctx, outcome)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error {
	args := m.Called(ctx, eventType, source, data)
	return args.Error(0)
}

// identityScaler returns its input unchanged.
type identityScaler struct{}

func (identityScaler) Transform(v features.Vector) (features.Vector, error) {
	return v.Clone(), nil
}

// fixedClassifier always returns label, or err when set.
type fixedClassifier struct {
	label Label
	prob  float64
	err   error
}

func (c fixedClassifier) Predict(features.Vector) (Label, error) {
	return c.label, c.err
}

func (c fixedClassifier) Probability(features.Vector) (float64, error) {
	return c.prob, c.err
}

type panickingClassifier struct{}

func (panickingClassifier) Predict(features.Vector) (Label, error) {
	panic("model exploded")
}
