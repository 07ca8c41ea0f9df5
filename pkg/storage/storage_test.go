package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptica-ai/noshow/pkg/features"
	"github.com/synaptica-ai/noshow/pkg/prediction"
)

type fakeRedis struct {
	values map[string][]byte
	ttls   map[string]time.Duration
	err    error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.values[key] = value.([]byte)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func TestFeatureStoreRecord(t *testing.T) {
	client := newFakeRedis()
	store := newFeatureStore(client, "features", time.Hour)
	assert.Equal(t, "feature_store", store.Name())

	vec := make(features.Vector, features.Width())
	vec[0] = 34
	p := 0.2
	err := store.Record(context.Background(), prediction.Outcome{
		InvocationID:  "i1",
		State:         prediction.StateDone,
		AppointmentID: "a1",
		Status:        "scheduled",
		Probability:   &p,
		SchemaVersion: features.SchemaVersion,
		ParseOutcome:  "parsed",
		Features:      vec,
	})
	require.NoError(t, err)
	require.Contains(t, client.values, "features:a1")
	assert.Equal(t, time.Hour, client.ttls["features:a1"])

	var stored map[string]interface{}
	require.NoError(t, json.Unmarshal(client.values["features:a1"], &stored))
	assert.Equal(t, "scheduled", stored["status"])

	set, err := store.GetFeatures(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, vec, set.Vector)
	assert.Equal(t, "i1", set.InvocationID)
}

func TestFeatureStoreSkipsOutcomesWithoutFeatures(t *testing.T) {
	client := newFakeRedis()
	store := newFeatureStore(client, "", time.Hour)

	require.NoError(t, store.Record(context.Background(), prediction.Outcome{State: prediction.StateEmpty}))
	require.NoError(t, store.Record(context.Background(), prediction.Outcome{State: prediction.StateError, AppointmentID: "a1"}))
	assert.Empty(t, client.values)
}

func TestFeatureStoreErrors(t *testing.T) {
	client := newFakeRedis()
	store := newFeatureStore(client, "noshow", time.Minute)

	_, err := store.GetFeatures(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrFeaturesNotFound)

	client.err = errors.New("READONLY")
	err = store.MaterializeFeatures(context.Background(), FeatureSet{AppointmentID: "a1"})
	assert.ErrorContains(t, err, "noshow:a1")
}

func TestFileBlobStore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "models"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "models", "model.json"), []byte(`{"model":{}}`), 0o600))

	store := NewFileBlobStore(root)
	data, err := store.Download(context.Background(), "models", "model.json")
	require.NoError(t, err)
	assert.Equal(t, `{"model":{}}`, string(data))

	_, err = store.Download(context.Background(), "models", "missing.json")
	assert.Error(t, err)

	for _, ref := range [][2]string{{"models", "../secret"}, {"..", "model.json"}, {"models", ""}, {"a/b", "c"}} {
		_, err := store.Download(context.Background(), ref[0], ref[1])
		assert.ErrorContains(t, err, "invalid blob reference")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Download(ctx, "models", "model.json")
	assert.ErrorIs(t, err, context.Canceled)
}
