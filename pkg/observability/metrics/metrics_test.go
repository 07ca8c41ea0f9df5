package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWritePrometheus(t *testing.T) {
	Reset()
	ObserveInvocation("DONE", "")
	ObserveInvocation("DONE", "")
	ObserveInvocation("EMPTY", "")
	ObserveInvocation("ERROR", "PERSIST")
	ObserveTemporalFallback()
	ObservePrediction("cancelled")
	ObserveNotificationSent()
	ObserveNotificationFailure("meeting")
	ObserveRecorderFailure("feature_store")

	rec := httptest.NewRecorder()
	WritePrometheus(rec)
	body := rec.Body.String()

	assert.Equal(t, "text/plain; version=0.0.4", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, `noshow_invocations_total{state="done"} 2`)
	assert.Contains(t, body, `noshow_invocations_total{state="empty"} 1`)
	assert.Contains(t, body, `noshow_invocations_total{state="error"} 1`)
	assert.Contains(t, body, `noshow_stage_failures_total{stage="PERSIST"} 1`)
	assert.Contains(t, body, "noshow_temporal_fallbacks_total 1")
	assert.Contains(t, body, `noshow_predictions_total{status="cancelled"} 1`)
	assert.Contains(t, body, `noshow_predictions_total{status="scheduled"} 0`)
	assert.Contains(t, body, "noshow_notifications_sent_total 1")
	assert.Contains(t, body, `noshow_notification_failures_total{channel="meeting"} 1`)
	assert.Contains(t, body, `noshow_recorder_failures_total{recorder="feature_store"} 1`)

	Reset()
	rec = httptest.NewRecorder()
	WritePrometheus(rec)
	assert.Contains(t, rec.Body.String(), `noshow_invocations_total{state="done"} 0`)
	assert.NotContains(t, rec.Body.String(), `stage="PERSIST"`)
}
