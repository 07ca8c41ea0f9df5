package appointment

import (
	"fmt"
	"strings"
)

const (
	StatusScheduled = "scheduled"
	StatusCancelled = "cancelled"
)

// Field keys of an appointment document.
const (
	FieldID               = "id"
	FieldGender           = "gender"
	FieldAge              = "age"
	FieldHypertension     = "hypertension"
	FieldScholarship      = "scholarship"
	FieldDiabetes         = "diabetes"
	FieldAlcoholism       = "alcoholism"
	FieldHandicap         = "handicap"
	FieldSMSReceived      = "smsReceived"
	FieldNeighbourhood    = "neighbourhood"
	FieldSchedule         = "schedule"
	FieldCreatedAt        = "createdAt"
	FieldPrimaryPhysician = "primaryPhysician"
	FieldStatus           = "status"
	FieldReason           = "reason"
	FieldPatient          = "patient"
)

// aliases maps canonical keys to the other spellings found in stored documents:
// system attributes of the hosted store and a historical typo in intake forms.
var aliases = map[string][]string{
	FieldID:          {"$id"},
	FieldCreatedAt:   {"$createdAt"},
	FieldSMSReceived: {"smsRecieved"},
}

// Record is a semi-structured appointment document as returned by a record source.
type Record map[string]interface{}

// Lookup returns the value stored under key or one of its known aliases.
func (r Record) Lookup(key string) (interface{}, bool) {
	if v, ok := r[key]; ok && v != nil {
		return v, true
	}
	for _, alt := range aliases[key] {
		if v, ok := r[alt]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// String returns the value under key rendered as a string, or "" when absent.
func (r Record) String(key string) string {
	v, ok := r.Lookup(key)
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (r Record) ID() string {
	return r.String(FieldID)
}

func (r Record) Status() string {
	return strings.ToLower(r.String(FieldStatus))
}

// Clone returns a shallow copy so callers can apply partial updates without
// touching the source document.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge applies fields onto a copy of r.
func (r Record) Merge(fields map[string]interface{}) Record {
	out := r.Clone()
	for k, v := range fields {
		out[k] = v
	}
	return out
}
