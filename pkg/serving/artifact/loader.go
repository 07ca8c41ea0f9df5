package artifact

import (
	"context"
	"fmt"

	"github.com/synaptica-ai/noshow/pkg/common/logger"
	"github.com/synaptica-ai/noshow/pkg/prediction"
)

// Loader downloads and decodes the artifacts on every call. Nothing is cached
// between invocations, so a replaced file takes effect on the next run.
type Loader struct {
	store        prediction.BlobStore
	bucket       string
	scalerFileID string
	modelFileID  string
}

func NewLoader(store prediction.BlobStore, bucket, scalerFileID, modelFileID string) *Loader {
	return &Loader{
		store:        store,
		bucket:       bucket,
		scalerFileID: scalerFileID,
		modelFileID:  modelFileID,
	}
}

// Configured reports whether a classifier artifact is set.
func (l *Loader) Configured() bool {
	return l.modelFileID != ""
}

func (l *Loader) LoadScaler(ctx context.Context) (prediction.Scaler, error) {
	if l.scalerFileID == "" {
		return nil, nil
	}
	data, err := l.store.Download(ctx, l.bucket, l.scalerFileID)
	if err != nil {
		return nil, fmt.Errorf("downloading scaler %s/%s: %w", l.bucket, l.scalerFileID, err)
	}
	s, err := DecodeScaler(data)
	if err != nil {
		return nil, err
	}
	logger.Log.WithFields(map[string]interface{}{
		"bucket":  l.bucket,
		"file_id": l.scalerFileID,
		"size":    len(data),
	}).Debug("Scaler artifact loaded")
	return s, nil
}

func (l *Loader) LoadClassifier(ctx context.Context) (prediction.Classifier, error) {
	if l.modelFileID == "" {
		return nil, nil
	}
	data, err := l.store.Download(ctx, l.bucket, l.modelFileID)
	if err != nil {
		return nil, fmt.Errorf("downloading model %s/%s: %w", l.bucket, l.modelFileID, err)
	}
	m, err := DecodeModel(data)
	if err != nil {
		return nil, err
	}
	logger.Log.WithFields(map[string]interface{}{
		"bucket":  l.bucket,
		"file_id": l.modelFileID,
		"size":    len(data),
	}).Debug("Model artifact loaded")
	return m, nil
}
