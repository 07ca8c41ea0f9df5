package serving

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/synaptica-ai/noshow/pkg/prediction"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PredictionLog is the audit row written for every invocation.
type PredictionLog struct {
	ID            uuid.UUID         `gorm:"primaryKey;column:id" json:"id"`
	InvocationID  string            `gorm:"column:invocation_id;index" json:"invocation_id"`
	AppointmentID string            `gorm:"column:appointment_id;index" json:"appointment_id"`
	State         string            `gorm:"column:state" json:"state"`
	Status        string            `gorm:"column:status" json:"status"`
	Label         string            `gorm:"column:label" json:"label"`
	Probability   *float64          `gorm:"column:probability" json:"probability"`
	SchemaVersion string            `gorm:"column:schema_version" json:"schema_version"`
	ParseOutcome  string            `gorm:"column:parse_outcome" json:"parse_outcome"`
	Features      datatypes.JSON    `gorm:"column:features" json:"features"`
	Error         datatypes.JSONMap `gorm:"column:error" json:"error"`
	Notified      bool              `gorm:"column:notified" json:"notified"`
	LatencyMs     float64           `gorm:"column:latency_ms" json:"latency_ms"`
	CreatedAt     time.Time         `gorm:"column:created_at" json:"created_at"`
}

// TableName overrides gorm naming.
func (PredictionLog) TableName() string {
	return "prediction_logs"
}

// Repository handles prediction logs queries.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&PredictionLog{})
}

func (r *Repository) Name() string {
	return "prediction_log"
}

// Record stores out as a PredictionLog row.
func (r *Repository) Record(ctx context.Context, out prediction.Outcome) error {
	return r.db.WithContext(ctx).Create(newPredictionLog(out, r.now())).Error
}

func newPredictionLog(out prediction.Outcome, now time.Time) *PredictionLog {
	row := &PredictionLog{
		ID:            uuid.New(),
		InvocationID:  out.InvocationID,
		AppointmentID: out.AppointmentID,
		State:         string(out.State),
		Status:        out.Status,
		Label:         out.Label,
		Probability:   out.Probability,
		SchemaVersion: out.SchemaVersion,
		ParseOutcome:  out.ParseOutcome,
		Notified:      out.Notified,
		LatencyMs:     out.LatencyMs,
		CreatedAt:     now.UTC(),
	}
	if len(out.Features) > 0 {
		if raw, err := json.Marshal(out.Features); err == nil {
			row.Features = datatypes.JSON(raw)
		}
	}
	if out.Error != nil {
		row.Error = datatypes.JSONMap{
			"stage":   string(out.Error.Stage),
			"kind":    string(out.Error.Kind),
			"message": out.Error.Message,
		}
	}
	return row
}

// Recent returns the most recent prediction logs up to limit.
func (r *Repository) Recent(ctx context.Context, limit int) ([]PredictionLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []PredictionLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// ForAppointment returns the logged invocations of one appointment, newest first.
func (r *Repository) ForAppointment(ctx context.Context, appointmentID string, limit int) ([]PredictionLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []PredictionLog
	err := r.db.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
