package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
)

var (
	invocationsDone   atomic.Int64
	invocationsEmpty  atomic.Int64
	invocationsError  atomic.Int64
	temporalFallbacks atomic.Int64
	predictedShow     atomic.Int64
	predictedNoShow   atomic.Int64
	notificationsSent atomic.Int64

	mu                   sync.Mutex
	stageFailures        = map[string]int64{}
	notificationFailures = map[string]int64{}
	recorderFailures     = map[string]int64{}
)

// ObserveInvocation counts a terminal state; failedStage is set for errors.
func ObserveInvocation(state string, failedStage string) {
	switch state {
	case "DONE":
		invocationsDone.Add(1)
	case "EMPTY":
		invocationsEmpty.Add(1)
	case "ERROR":
		invocationsError.Add(1)
		mu.Lock()
		stageFailures[failedStage]++
		mu.Unlock()
	}
}

func ObserveTemporalFallback() {
	temporalFallbacks.Add(1)
}

func ObservePrediction(status string) {
	switch status {
	case "scheduled":
		predictedShow.Add(1)
	case "cancelled":
		predictedNoShow.Add(1)
	}
}

func ObserveNotificationSent() {
	notificationsSent.Add(1)
}

// ObserveNotificationFailure counts a best-effort failure by channel (meeting, email).
func ObserveNotificationFailure(channel string) {
	mu.Lock()
	notificationFailures[channel]++
	mu.Unlock()
}

func ObserveRecorderFailure(recorder string) {
	mu.Lock()
	recorderFailures[recorder]++
	mu.Unlock()
}

// Reset clears every counter.
func Reset() {
	invocationsDone.Store(0)
	invocationsEmpty.Store(0)
	invocationsError.Store(0)
	temporalFallbacks.Store(0)
	predictedShow.Store(0)
	predictedNoShow.Store(0)
	notificationsSent.Store(0)
	mu.Lock()
	stageFailures = map[string]int64{}
	notificationFailures = map[string]int64{}
	recorderFailures = map[string]int64{}
	mu.Unlock()
}

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP noshow_invocations_total Prediction invocations by terminal state.\n")
	fmt.Fprintf(w, "# TYPE noshow_invocations_total counter\n")
	fmt.Fprintf(w, "noshow_invocations_total{state=\"done\"} %d\n", invocationsDone.Load())
	fmt.Fprintf(w, "noshow_invocations_total{state=\"empty\"} %d\n", invocationsEmpty.Load())
	fmt.Fprintf(w, "noshow_invocations_total{state=\"error\"} %d\n", invocationsError.Load())

	fmt.Fprintf(w, "# HELP noshow_temporal_fallbacks_total Feature vectors emitted with zeroed temporal and neighbourhood features.\n")
	fmt.Fprintf(w, "# TYPE noshow_temporal_fallbacks_total counter\n")
	fmt.Fprintf(w, "noshow_temporal_fallbacks_total %d\n", temporalFallbacks.Load())

	fmt.Fprintf(w, "# HELP noshow_predictions_total Status decisions by outcome.\n")
	fmt.Fprintf(w, "# TYPE noshow_predictions_total counter\n")
	fmt.Fprintf(w, "noshow_predictions_total{status=\"scheduled\"} %d\n", predictedShow.Load())
	fmt.Fprintf(w, "noshow_predictions_total{status=\"cancelled\"} %d\n", predictedNoShow.Load())

	fmt.Fprintf(w, "# HELP noshow_notifications_sent_total Outcome emails delivered.\n")
	fmt.Fprintf(w, "# TYPE noshow_notifications_sent_total counter\n")
	fmt.Fprintf(w, "noshow_notifications_sent_total %d\n", notificationsSent.Load())

	mu.Lock()
	defer mu.Unlock()
	writeLabelled(w, "noshow_stage_failures_total", "Failed invocations by workflow stage.", "stage", stageFailures)
	writeLabelled(w, "noshow_notification_failures_total", "Best-effort notification failures by channel.", "channel", notificationFailures)
	writeLabelled(w, "noshow_recorder_failures_total", "Outcome recorder failures by recorder.", "recorder", recorderFailures)
}

func writeLabelled(w http.ResponseWriter, name, help, label string, values map[string]int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}
