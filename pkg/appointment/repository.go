package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Appointment is the relational form of an appointment document.
type Appointment struct {
	ID               string            `gorm:"primaryKey;column:id"`
	Gender           string            `gorm:"column:gender"`
	Age              int               `gorm:"column:age"`
	Hypertension     bool              `gorm:"column:hypertension"`
	Scholarship      bool              `gorm:"column:scholarship"`
	Diabetes         bool              `gorm:"column:diabetes"`
	Alcoholism       bool              `gorm:"column:alcoholism"`
	Handicap         int               `gorm:"column:handicap"`
	SMSReceived      bool              `gorm:"column:sms_received"`
	Neighbourhood    string            `gorm:"column:neighbourhood"`
	Schedule         *time.Time        `gorm:"column:schedule"`
	PrimaryPhysician string            `gorm:"column:primary_physician"`
	Reason           string            `gorm:"column:reason"`
	Status           string            `gorm:"column:status"`
	Patient          datatypes.JSONMap `gorm:"column:patient"`
	CreatedAt        time.Time         `gorm:"column:created_at"`
	UpdatedAt        time.Time         `gorm:"column:updated_at"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// ToRecord renders the row with the document field keys. Timestamps are
// rendered in UTC, the zone the hosted store writes, so derived hours and
// weekdays do not depend on the server's local zone.
func (a Appointment) ToRecord() Record {
	rec := Record{
		FieldID:               a.ID,
		FieldGender:           a.Gender,
		FieldAge:              a.Age,
		FieldHypertension:     a.Hypertension,
		FieldScholarship:      a.Scholarship,
		FieldDiabetes:         a.Diabetes,
		FieldAlcoholism:       a.Alcoholism,
		FieldHandicap:         a.Handicap,
		FieldSMSReceived:      a.SMSReceived,
		FieldNeighbourhood:    a.Neighbourhood,
		FieldPrimaryPhysician: a.PrimaryPhysician,
		FieldReason:           a.Reason,
		FieldStatus:           a.Status,
	}
	if a.Schedule != nil {
		rec[FieldSchedule] = a.Schedule.UTC().Format(time.RFC3339Nano)
	}
	if !a.CreatedAt.IsZero() {
		rec[FieldCreatedAt] = a.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if len(a.Patient) > 0 {
		rec[FieldPatient] = map[string]interface{}(a.Patient)
	}
	return rec
}

// columns maps updatable document keys onto table columns.
var columns = map[string]string{
	FieldStatus:           "status",
	FieldReason:           "reason",
	FieldPrimaryPhysician: "primary_physician",
	FieldSchedule:         "schedule",
	FieldNeighbourhood:    "neighbourhood",
}

// ErrNotFound is returned when no appointment carries the requested id.
var ErrNotFound = errors.New("appointment not found")

// Repository is a record source backed by a Postgres table. The collection
// argument of its methods names the table.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Appointment{})
}

func (r *Repository) ListLatest(ctx context.Context, collection string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 1
	}
	var rows []Appointment
	err := r.db.WithContext(ctx).
		Table(collection).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", collection, err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.ToRecord())
	}
	return records, nil
}

func (r *Repository) Update(ctx context.Context, collection, id string, fields map[string]interface{}) (Record, error) {
	updates := make(map[string]interface{}, len(fields)+1)
	for key, value := range fields {
		column, ok := columns[key]
		if !ok {
			return nil, fmt.Errorf("field %q cannot be updated", key)
		}
		updates[column] = value
	}
	if len(updates) == 0 {
		return nil, errors.New("no fields to update")
	}
	updates["updated_at"] = time.Now().UTC()

	res := r.db.WithContext(ctx).
		Table(collection).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("updating %s/%s: %w", collection, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("updating %s/%s: %w", collection, id, ErrNotFound)
	}

	var row Appointment
	if err := r.db.WithContext(ctx).Table(collection).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, fmt.Errorf("reloading %s/%s: %w", collection, id, err)
	}
	return row.ToRecord(), nil
}
