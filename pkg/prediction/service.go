package prediction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/synaptica-ai/noshow/pkg/appointment"
	"github.com/synaptica-ai/noshow/pkg/common/logger"
	"github.com/synaptica-ai/noshow/pkg/features"
	"github.com/synaptica-ai/noshow/pkg/meeting"
	"github.com/synaptica-ai/noshow/pkg/notify"
	"github.com/synaptica-ai/noshow/pkg/observability/metrics"
)

const defaultStepTimeout = 15 * time.Second

type Options struct {
	Collection      string
	StepTimeout     time.Duration
	Notify          bool
	Recipient       string
	MeetingDuration int
}

// Dependencies are the collaborators of the workflow. Only Source is required;
// without Models an invocation stops after EXTRACT and returns the vector.
type Dependencies struct {
	Source    RecordSource
	Models    ModelLoader
	Meetings  MeetingService
	Notifier  Notifier
	Templates *notify.Templates
	Recorders []Recorder
}

// Service runs the FETCH → EXTRACT → SCALE → CLASSIFY → DECIDE → PERSIST → NOTIFY workflow.
type Service struct {
	deps Dependencies
	opts Options
	now  func() time.Time
}

func NewService(deps Dependencies, opts Options) (*Service, error) {
	if deps.Source == nil {
		return nil, errors.New("record source required")
	}
	if opts.Collection == "" {
		return nil, errors.New("collection required")
	}
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = defaultStepTimeout
	}
	if opts.MeetingDuration <= 0 {
		opts.MeetingDuration = 30
	}
	if deps.Templates == nil {
		tpl, err := notify.NewTemplates(notify.DefaultTemplates())
		if err != nil {
			return nil, err
		}
		deps.Templates = tpl
	}
	return &Service{deps: deps, opts: opts, now: time.Now}, nil
}

// Run performs one invocation against the most recent record. It never returns
// an error: failures are reported in the outcome with the stage that failed.
func (s *Service) Run(ctx context.Context) (out Outcome) {
	start := s.now()
	out = Outcome{
		InvocationID: uuid.New().String(),
		StartedAt:    start.UTC(),
	}
	log := logger.ForInvocation(out.InvocationID)
	stage := StageFetch

	defer func() {
		if r := recover(); r != nil {
			out.State = StateError
			out.Error = newStageError(stage, kindFor(stage), fmt.Errorf("panic: %v", r))
			log.WithField("stage", stage).WithField("panic", r).Error("Prediction workflow panicked")
		}
		out.LatencyMs = float64(s.now().Sub(start).Microseconds()) / 1000.0
		s.finish(ctx, log, out)
	}()

	// FETCH
	rec, err := s.fetchLatest(ctx)
	if err != nil {
		return s.fail(log, out, StageFetch, KindDataFetch, err)
	}
	if rec == nil {
		out.State = StateEmpty
		out.Message = ErrEmptyResult.Error()
		out.Reason = KindEmptyResult
		log.Info("No documents found in the collection")
		return out
	}
	out.record = rec
	out.AppointmentID = rec.ID()
	log = log.WithField("appointment_id", out.AppointmentID)

	// EXTRACT
	stage = StageExtract
	res, err := features.Extract(rec)
	if err != nil {
		return s.fail(log, out, StageExtract, KindMissingField, err)
	}
	out.SchemaVersion = features.SchemaVersion
	out.Features = res.Vector
	out.ParseOutcome = res.Outcome.String()
	if res.Degraded() {
		metrics.ObserveTemporalFallback()
		log.WithError(res.FallbackReason).Warn("Timestamps unreadable, emitting vector with temporal fallback")
	} else if !res.KnownNeighbourhood {
		log.WithField("neighbourhood", res.Neighbourhood).Warn("Neighbourhood outside vocabulary, one-hot block left empty")
	}

	if s.deps.Models == nil {
		out.State = StateDone
		out.Message = "no model configured, returning features only"
		return out
	}

	// SCALE
	stage = StageScale
	vec := res.Vector.Clone()
	scaler, err := s.loadScaler(ctx)
	if err != nil {
		return s.fail(log, out, StageScale, KindArtifactLoad, err)
	}
	if scaler != nil {
		vec, err = scaler.Transform(vec)
		if err != nil {
			return s.fail(log, out, StageScale, KindArtifactLoad, err)
		}
		out.Scaled = true
	}

	// CLASSIFY
	stage = StageClassify
	classifier, err := s.loadClassifier(ctx)
	if err != nil {
		return s.fail(log, out, StageClassify, KindArtifactLoad, err)
	}
	if classifier == nil {
		out.State = StateDone
		out.Message = "no classifier configured, returning features only"
		return out
	}
	label, err := classifier.Predict(vec)
	if err != nil {
		return s.fail(log, out, StageClassify, KindClassification, err)
	}
	if reporter, ok := classifier.(ProbabilityReporter); ok {
		if p, err := reporter.Probability(vec); err == nil {
			out.Probability = &p
		}
	}

	// DECIDE
	stage = StageDecide
	out.Label = label.String()
	out.Status = StatusFor(label)
	metrics.ObservePrediction(out.Status)
	log = log.WithField("status", out.Status)

	// PERSIST
	stage = StagePersist
	if err := s.persist(ctx, out.AppointmentID, out.Status); err != nil {
		return s.fail(log, out, StagePersist, KindPersist, err)
	}
	log.Info("Appointment status updated")

	// NOTIFY
	stage = StageNotify
	if s.opts.Notify {
		s.notify(ctx, log, rec, &out)
	}

	out.State = StateDone
	return out
}

func (s *Service) fetchLatest(ctx context.Context) (appointment.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.StepTimeout)
	defer cancel()

	records, err := s.deps.Source.ListLatest(ctx, s.opts.Collection, 1)
	if err != nil {
		return nil, fmt.Errorf("fetching latest appointment: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if records[0] == nil {
		return nil, errors.New("fetching latest appointment: record source returned a nil document")
	}
	return records[0], nil
}

func (s *Service) loadScaler(ctx context.Context) (Scaler, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.StepTimeout)
	defer cancel()
	return s.deps.Models.LoadScaler(ctx)
}

func (s *Service) loadClassifier(ctx context.Context) (Classifier, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.StepTimeout)
	defer cancel()
	return s.deps.Models.LoadClassifier(ctx)
}

// persist writes the decided status. Writing the same status twice leaves the
// same stored value, so reruns converge.
func (s *Service) persist(ctx context.Context, id, status string) error {
	if id == "" {
		return errors.New("appointment has no identifier")
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.StepTimeout)
	defer cancel()

	_, err := s.deps.Source.Update(ctx, s.opts.Collection, id, map[string]interface{}{
		appointment.FieldStatus: status,
	})
	if err != nil {
		return fmt.Errorf("updating appointment %s: %w", id, err)
	}
	return nil
}

// notify is best-effort: every failure, panics included, becomes a warning
// on the outcome.
func (s *Service) notify(ctx context.Context, log *logrus.Entry, rec appointment.Record, out *Outcome) {
	if out.Status == appointment.StatusScheduled && s.deps.Meetings != nil {
		m, err := s.createMeeting(ctx, rec)
		if err != nil {
			s.warn(log, out, "meeting", err)
		} else {
			out.Meeting = m
		}
	}

	if s.deps.Notifier == nil || s.opts.Recipient == "" {
		return
	}
	if err := s.sendEmail(ctx, rec, out); err != nil {
		s.warn(log, out, "email", err)
		return
	}
	out.Notified = true
	metrics.ObserveNotificationSent()
}

func (s *Service) createMeeting(ctx context.Context, rec appointment.Record) (m *meeting.Meeting, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.StepTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.deps.Meetings.CreateMeeting(ctx, meetingTopic(rec), s.opts.MeetingDuration, s.meetingStart(rec))
}

func (s *Service) sendEmail(ctx context.Context, rec appointment.Record, out *Outcome) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	data := notify.EmailData{
		AppointmentID:    out.AppointmentID,
		Status:           out.Status,
		Patient:          patientName(rec),
		PrimaryPhysician: rec.String(appointment.FieldPrimaryPhysician),
		Schedule:         rec.String(appointment.FieldSchedule),
		Reason:           rec.String(appointment.FieldReason),
		Probability:      out.Probability,
		Meeting:          out.Meeting,
	}
	subject, body, err := s.deps.Templates.Render(out.Status, data)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.StepTimeout)
	defer cancel()
	return s.deps.Notifier.SendEmail(ctx, subject, body, s.opts.Recipient)
}

func (s *Service) warn(log *logrus.Entry, out *Outcome, channel string, err error) {
	metrics.ObserveNotificationFailure(channel)
	log.WithError(err).WithField("channel", channel).Warn("Notification failed")
	out.Warnings = append(out.Warnings, newStageError(StageNotify, KindNotification, fmt.Errorf("%s: %w", channel, err)))
}

func (s *Service) meetingStart(rec appointment.Record) time.Time {
	if ts, err := features.ParseTimestamp(rec.String(appointment.FieldSchedule)); err == nil {
		return ts
	}
	return s.now()
}

func (s *Service) fail(log *logrus.Entry, out Outcome, stage Stage, kind ErrorKind, err error) Outcome {
	out.State = StateError
	out.Error = newStageError(stage, kind, err)
	log.WithError(err).WithFields(logrus.Fields{
		"stage": stage,
		"kind":  kind,
	}).Error("Prediction workflow failed")
	return out
}

// finish hands the outcome to the recorders. Their failures are logged only.
func (s *Service) finish(ctx context.Context, log *logrus.Entry, out Outcome) {
	failed := ""
	if out.Error != nil {
		failed = string(out.Error.Stage)
	}
	metrics.ObserveInvocation(string(out.State), failed)

	for _, r := range s.deps.Recorders {
		if err := s.record(ctx, r, out); err != nil {
			metrics.ObserveRecorderFailure(r.Name())
			log.WithError(err).WithField("recorder", r.Name()).Warn("Outcome recorder failed")
		}
	}

	log.WithFields(logrus.Fields{
		"state":      out.State,
		"latency_ms": out.LatencyMs,
	}).Info("Prediction invocation finished")
}

func (s *Service) record(ctx context.Context, r Recorder, out Outcome) (err error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.StepTimeout)
	defer cancel()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return r.Record(ctx, out)
}

func kindFor(stage Stage) ErrorKind {
	switch stage {
	case StageFetch:
		return KindDataFetch
	case StageExtract:
		return KindMissingField
	case StageScale:
		return KindArtifactLoad
	case StagePersist:
		return KindPersist
	case StageNotify:
		return KindNotification
	default:
		return KindClassification
	}
}

func meetingTopic(rec appointment.Record) string {
	if physician := rec.String(appointment.FieldPrimaryPhysician); physician != "" {
		return "Appointment with Dr. " + physician
	}
	return "Medical appointment"
}

func patientName(rec appointment.Record) string {
	raw, ok := rec.Lookup(appointment.FieldPatient)
	if !ok {
		return ""
	}
	switch p := raw.(type) {
	case string:
		return p
	case map[string]interface{}:
		if name, ok := p["name"].(string); ok {
			return name
		}
	}
	return ""
}
