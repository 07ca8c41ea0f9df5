// Package features turns appointment documents into the fixed-order numeric
// vectors the no-show model was trained on.
//
// Layout of schema noshow-v1 (0-based):
//
//	0      age
//	1      scholarship
//	2      hypertension
//	3      diabetes
//	4      alcoholism
//	5      handicap (passed through unchanged)
//	6      smsReceived
//	7      genderIsMale
//	8-10   schedule month, weekday (Monday=0), hour
//	11-13  createdAt month, weekday (Monday=0), hour
//	14-    one slot per vocabulary neighbourhood
package features

import (
	"errors"

	"github.com/synaptica-ai/noshow/pkg/appointment"
)

const SchemaVersion = "noshow-v1"

const (
	baseWidth     = 8
	temporalWidth = 6
	// HeaderWidth is the number of features before the one-hot block.
	HeaderWidth = baseWidth + temporalWidth
)

// Vector is an ordered feature vector in schema noshow-v1 layout.
type Vector []float64

// Clone returns an independent copy of v.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// OneHot returns the neighbourhood block of v.
func (v Vector) OneHot() Vector {
	if len(v) < HeaderWidth {
		return nil
	}
	return v[HeaderWidth:]
}

// Temporal returns the six schedule/createdAt components of v.
func (v Vector) Temporal() Vector {
	if len(v) < HeaderWidth {
		return nil
	}
	return v[baseWidth:HeaderWidth]
}

// Width is the total vector length: header plus one slot per neighbourhood.
func Width() int {
	return HeaderWidth + len(vocabulary)
}

// ParseOutcome tells whether the temporal part of a vector was derived from the
// record or replaced by the fallback.
type ParseOutcome int

const (
	// Parsed means both timestamps were read and the one-hot block was encoded.
	Parsed ParseOutcome = iota
	// TemporalFallback means a timestamp was unreadable: the six temporal
	// features and the whole one-hot block are zero, the base features are kept.
	TemporalFallback
)

func (o ParseOutcome) String() string {
	switch o {
	case Parsed:
		return "parsed"
	case TemporalFallback:
		return "temporal_fallback"
	default:
		return "unknown"
	}
}

// Result is what Extract produces for one record.
type Result struct {
	Vector  Vector
	Outcome ParseOutcome
	// FallbackReason explains a TemporalFallback outcome.
	FallbackReason error
	// Neighbourhood is the raw neighbourhood value and KnownNeighbourhood
	// whether it has a slot in the vocabulary.
	Neighbourhood      string
	KnownNeighbourhood bool
}

// Degraded reports whether the fallback replaced part of the vector.
func (r Result) Degraded() bool {
	return r.Outcome == TemporalFallback
}

var baseFields = [...]string{
	appointment.FieldAge,
	appointment.FieldScholarship,
	appointment.FieldHypertension,
	appointment.FieldDiabetes,
	appointment.FieldAlcoholism,
	appointment.FieldHandicap,
	appointment.FieldSMSReceived,
}

// Extract maps rec onto a noshow-v1 vector. It fails only with a
// *MissingFieldError; unreadable timestamps and unknown neighbourhoods degrade
// the vector instead.
func Extract(rec appointment.Record) (Result, error) {
	vec := make(Vector, Width())

	for i, field := range baseFields {
		raw, ok := rec.Lookup(field)
		if !ok {
			return Result{}, &MissingFieldError{Field: field, Err: errFieldAbsent}
		}
		var (
			value float64
			err   error
		)
		if field == appointment.FieldHandicap {
			value, err = toNumber(raw)
		} else {
			value, err = toInteger(raw)
		}
		if err != nil {
			return Result{}, &MissingFieldError{Field: field, Err: err}
		}
		vec[i] = value
	}

	gender, ok := rec.Lookup(appointment.FieldGender)
	if !ok {
		return Result{}, &MissingFieldError{Field: appointment.FieldGender, Err: errFieldAbsent}
	}
	if s, isString := gender.(string); isString && s == "M" {
		vec[7] = 1
	}

	res := Result{Vector: vec, Outcome: Parsed}
	res.Neighbourhood = rec.String(appointment.FieldNeighbourhood)

	schedule, schedErr := parseTimestampField(rec, appointment.FieldSchedule)
	created, createdErr := parseTimestampField(rec, appointment.FieldCreatedAt)
	if schedErr != nil || createdErr != nil {
		res.Outcome = TemporalFallback
		res.FallbackReason = errors.Join(schedErr, createdErr)
		_, res.KnownNeighbourhood = NeighbourhoodSlot(res.Neighbourhood)
		return res, nil
	}

	putTemporal(vec[baseWidth:baseWidth+3], schedule)
	putTemporal(vec[baseWidth+3:HeaderWidth], created)

	if slot, known := NeighbourhoodSlot(res.Neighbourhood); known {
		vec[HeaderWidth+slot] = 1
		res.KnownNeighbourhood = true
	}

	return res, nil
}

// FeatureNames lists the column names in vector order, used to check model
// artifacts against this schema.
func FeatureNames() []string {
	names := make([]string, 0, Width())
	names = append(names, baseFields[:]...)
	names = append(names,
		"genderIsMale",
		"scheduledMonth", "scheduledDayOfWeek", "scheduledHour",
		"createdAtMonth", "createdAtDayOfWeek", "createdAtHour",
	)
	for _, n := range vocabulary {
		names = append(names, "neighbourhood_"+n)
	}
	return names
}
