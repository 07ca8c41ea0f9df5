// Package bootstrap assembles the prediction service from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/synaptica-ai/noshow/pkg/appointment"
	"github.com/synaptica-ai/noshow/pkg/appwrite"
	"github.com/synaptica-ai/noshow/pkg/common/config"
	"github.com/synaptica-ai/noshow/pkg/common/database"
	"github.com/synaptica-ai/noshow/pkg/common/kafka"
	"github.com/synaptica-ai/noshow/pkg/common/logger"
	"github.com/synaptica-ai/noshow/pkg/meeting"
	"github.com/synaptica-ai/noshow/pkg/notify"
	"github.com/synaptica-ai/noshow/pkg/prediction"
	"github.com/synaptica-ai/noshow/pkg/serving"
	"github.com/synaptica-ai/noshow/pkg/serving/artifact"
	"github.com/synaptica-ai/noshow/pkg/storage"
)

// App is a wired prediction service plus the optional components the
// long-running binary exposes.
type App struct {
	Service *prediction.Service
	// PredictionLog is set when the audit log is enabled.
	PredictionLog *serving.Repository
	// Ready checks the record backend.
	Ready func(ctx context.Context) error

	closers []func() error
}

// Close releases every opened client. Errors are logged.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Log.WithError(err).Warn("Failed to close component")
		}
	}
}

func Build(cfg *config.Config) (*App, error) {
	app := &App{Ready: func(context.Context) error { return nil }}
	deps := prediction.Dependencies{}

	var aw *appwrite.Client
	appwriteClient := func() (*appwrite.Client, error) {
		if aw != nil {
			return aw, nil
		}
		c, err := appwrite.NewClient(appwrite.Config{
			Endpoint:   cfg.AppwriteEndpoint,
			ProjectID:  cfg.AppwriteProjectID,
			APIKey:     cfg.AppwriteAPIKey,
			DatabaseID: cfg.AppwriteDatabaseID,
		})
		if err != nil {
			return nil, err
		}
		aw = c
		return aw, nil
	}

	switch cfg.RecordBackend {
	case config.BackendAppwrite:
		c, err := appwriteClient()
		if err != nil {
			return nil, fmt.Errorf("record backend: %w", err)
		}
		deps.Source = c
		app.Ready = c.Ping
	case config.BackendPostgres:
		db, err := database.GetPostgres()
		if err != nil {
			return nil, fmt.Errorf("record backend: %w", err)
		}
		app.closers = append(app.closers, database.ClosePostgres)
		deps.Source = appointment.NewRepository(db)
		app.Ready = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	default:
		return nil, fmt.Errorf("unknown record backend %q", cfg.RecordBackend)
	}

	if cfg.ScalerFileID != "" || cfg.ModelFileID != "" {
		var blobs prediction.BlobStore
		switch cfg.BlobBackend {
		case config.BackendAppwrite:
			c, err := appwriteClient()
			if err != nil {
				return nil, fmt.Errorf("blob backend: %w", err)
			}
			blobs = c
		case config.BackendFilesystem:
			blobs = storage.NewFileBlobStore(cfg.ArtifactDir)
		default:
			return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
		}
		deps.Models = artifact.NewLoader(blobs, cfg.ArtifactBucketID, cfg.ScalerFileID, cfg.ModelFileID)
	} else {
		logger.Log.Warn("No model artifacts configured, invocations return features only")
	}

	if cfg.NotifyEnabled {
		if cfg.MeetingsConfigured() {
			zoom, err := meeting.NewZoomClient(meeting.ZoomConfig{
				AccountID:    cfg.ZoomAccountID,
				ClientID:     cfg.ZoomClientID,
				ClientSecret: cfg.ZoomClientSecret,
				BaseURL:      cfg.ZoomBaseURL,
				TokenURL:     cfg.ZoomTokenURL,
				Timeout:      cfg.HTTPClientTimeout,
			})
			if err != nil {
				return nil, err
			}
			deps.Meetings = zoom
		}

		notifier, err := notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			Timeout:  cfg.StepTimeout,
		})
		if err != nil {
			return nil, err
		}
		deps.Notifier = notifier
		if cfg.NotifyRecipient == "" {
			logger.Log.Warn("NOTIFY_RECIPIENT is empty, outcome emails will be skipped")
		}
	}

	templates, err := notify.LoadTemplates(cfg.EmailTemplatesPath)
	if err != nil {
		return nil, fmt.Errorf("loading email templates: %w", err)
	}
	deps.Templates = templates

	recorders, err := buildRecorders(cfg, app)
	if err != nil {
		app.Close()
		return nil, err
	}
	deps.Recorders = recorders

	svc, err := prediction.NewService(deps, prediction.Options{
		Collection:      cfg.AppointmentCollectionID,
		StepTimeout:     cfg.StepTimeout,
		Notify:          cfg.NotifyEnabled,
		Recipient:       cfg.NotifyRecipient,
		MeetingDuration: cfg.MeetingDurationMins,
	})
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Service = svc
	return app, nil
}

func buildRecorders(cfg *config.Config, app *App) ([]prediction.Recorder, error) {
	var recorders []prediction.Recorder

	if cfg.PredictionLogEnabled {
		db, err := database.GetPostgres()
		if err != nil {
			return nil, fmt.Errorf("prediction log: %w", err)
		}
		repo := serving.NewRepository(db)
		if err := repo.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("prediction log migration: %w", err)
		}
		if cfg.RecordBackend != config.BackendPostgres {
			app.closers = append(app.closers, database.ClosePostgres)
		}
		app.PredictionLog = repo
		recorders = append(recorders, repo)
	}

	if cfg.FeatureStoreEnabled {
		app.closers = append(app.closers, database.CloseRedis)
		recorders = append(recorders, storage.NewFeatureStore(database.GetRedis(), cfg.FeatureOnlinePrefix, cfg.FeatureCacheTTL))
	}

	if cfg.PredictionEventTopic != "" {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("PREDICTION_EVENTS_TOPIC set without KAFKA_BROKERS")
		}
		producer := kafka.NewProducer(cfg, cfg.PredictionEventTopic)
		app.closers = append(app.closers, producer.Close)
		recorders = append(recorders, prediction.NewEventRecorder(producer))
	}

	return recorders, nil
}
