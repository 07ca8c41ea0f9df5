package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/synaptica-ai/noshow/pkg/common/logger"
	"github.com/synaptica-ai/noshow/pkg/features"
	"github.com/synaptica-ai/noshow/pkg/prediction"
)

// ErrFeaturesNotFound is returned when no vector is materialized for an appointment.
var ErrFeaturesNotFound = errors.New("features not found")

type onlineStore interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// FeatureSet is the online copy of one extracted vector.
type FeatureSet struct {
	AppointmentID string          `json:"appointment_id"`
	SchemaVersion string          `json:"schema_version"`
	ParseOutcome  string          `json:"parse_outcome"`
	Vector        features.Vector `json:"vector"`
	Status        string          `json:"status,omitempty"`
	Probability   *float64        `json:"probability,omitempty"`
	InvocationID  string          `json:"invocation_id"`
	Timestamp     time.Time       `json:"timestamp"`
}

// FeatureStore materializes extracted vectors to Redis under <prefix>:<appointment id>.
type FeatureStore struct {
	client   onlineStore
	prefix   string
	cacheTTL time.Duration
	now      func() time.Time
}

func NewFeatureStore(client *redis.Client, prefix string, ttl time.Duration) *FeatureStore {
	return newFeatureStore(client, prefix, ttl)
}

func newFeatureStore(client onlineStore, prefix string, ttl time.Duration) *FeatureStore {
	if prefix == "" {
		prefix = "features"
	}
	return &FeatureStore{client: client, prefix: prefix, cacheTTL: ttl, now: time.Now}
}

func (f *FeatureStore) key(appointmentID string) string {
	return fmt.Sprintf("%s:%s", f.prefix, appointmentID)
}

func (f *FeatureStore) Name() string {
	return "feature_store"
}

// Record materializes the vector of any outcome that got past EXTRACT.
func (f *FeatureStore) Record(ctx context.Context, out prediction.Outcome) error {
	if out.AppointmentID == "" || len(out.Features) == 0 {
		return nil
	}
	return f.MaterializeFeatures(ctx, FeatureSet{
		AppointmentID: out.AppointmentID,
		SchemaVersion: out.SchemaVersion,
		ParseOutcome:  out.ParseOutcome,
		Vector:        out.Features,
		Status:        out.Status,
		Probability:   out.Probability,
		InvocationID:  out.InvocationID,
		Timestamp:     f.now().UTC(),
	})
}

func (f *FeatureStore) MaterializeFeatures(ctx context.Context, set FeatureSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return err
	}

	key := f.key(set.AppointmentID)
	if err := f.client.Set(ctx, key, data, f.cacheTTL).Err(); err != nil {
		return fmt.Errorf("materializing %s: %w", key, err)
	}
	logger.Log.WithFields(map[string]interface{}{
		"key":  key,
		"size": len(data),
	}).Debug("Features materialized")
	return nil
}

func (f *FeatureStore) GetFeatures(ctx context.Context, appointmentID string) (FeatureSet, error) {
	key := f.key(appointmentID)
	data, err := f.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return FeatureSet{}, ErrFeaturesNotFound
	}
	if err != nil {
		return FeatureSet{}, fmt.Errorf("reading %s: %w", key, err)
	}

	var set FeatureSet
	if err := json.Unmarshal(data, &set); err != nil {
		return FeatureSet{}, fmt.Errorf("decoding %s: %w", key, err)
	}
	return set, nil
}
