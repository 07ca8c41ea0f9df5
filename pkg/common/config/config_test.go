package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"RECORD_BACKEND", "STEP_TIMEOUT", "KAFKA_BROKERS", "NOTIFY_ENABLED", "MEETING_DURATION_MINUTES"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.RecordBackend != BackendAppwrite {
		t.Errorf("RecordBackend = %q, want %q", cfg.RecordBackend, BackendAppwrite)
	}
	if cfg.StepTimeout != 15*time.Second {
		t.Errorf("StepTimeout = %v, want 15s", cfg.StepTimeout)
	}
	if !reflect.DeepEqual(cfg.KafkaBrokers, []string{"localhost:9092"}) {
		t.Errorf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
	if cfg.NotifyEnabled {
		t.Error("NotifyEnabled should default to false")
	}
	if cfg.MeetingDurationMins != 30 {
		t.Errorf("MeetingDurationMins = %d, want 30", cfg.MeetingDurationMins)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("RECORD_BACKEND", "Postgres")
	t.Setenv("STEP_TIMEOUT", "3s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("NOTIFY_ENABLED", "true")
	t.Setenv("MEETING_DURATION_MINUTES", "45")
	t.Setenv("NEXT_PUBLIC_BUCKET_ID", "artifacts")

	cfg := Load()
	if cfg.RecordBackend != BackendPostgres {
		t.Errorf("RecordBackend = %q, want %q", cfg.RecordBackend, BackendPostgres)
	}
	if cfg.StepTimeout != 3*time.Second {
		t.Errorf("StepTimeout = %v, want 3s", cfg.StepTimeout)
	}
	if !reflect.DeepEqual(cfg.KafkaBrokers, []string{"k1:9092", "k2:9092"}) {
		t.Errorf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
	if !cfg.NotifyEnabled {
		t.Error("NotifyEnabled should be true")
	}
	if cfg.MeetingDurationMins != 45 {
		t.Errorf("MeetingDurationMins = %d, want 45", cfg.MeetingDurationMins)
	}
	if cfg.ArtifactBucketID != "artifacts" {
		t.Errorf("ArtifactBucketID = %q", cfg.ArtifactBucketID)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("STEP_TIMEOUT", "soon")
	t.Setenv("MEETING_DURATION_MINUTES", "half an hour")
	t.Setenv("NOTIFY_ENABLED", "maybe")

	cfg := Load()
	if cfg.StepTimeout != 15*time.Second {
		t.Errorf("StepTimeout = %v, want default", cfg.StepTimeout)
	}
	if cfg.MeetingDurationMins != 30 {
		t.Errorf("MeetingDurationMins = %d, want default", cfg.MeetingDurationMins)
	}
	if cfg.NotifyEnabled {
		t.Error("NotifyEnabled should fall back to false")
	}
}

func TestMeetingsConfigured(t *testing.T) {
	cfg := &Config{ZoomAccountID: "acc", ZoomClientID: "id"}
	if cfg.MeetingsConfigured() {
		t.Fatal("expected incomplete zoom credentials")
	}
	cfg.ZoomClientSecret = "secret"
	if !cfg.MeetingsConfigured() {
		t.Fatal("expected zoom credentials to be complete")
	}
}
