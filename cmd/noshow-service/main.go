package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/synaptica-ai/noshow/pkg/bootstrap"
	"github.com/synaptica-ai/noshow/pkg/common/config"
	"github.com/synaptica-ai/noshow/pkg/common/kafka"
	"github.com/synaptica-ai/noshow/pkg/common/logger"
	"github.com/synaptica-ai/noshow/pkg/common/middleware"
	"github.com/synaptica-ai/noshow/pkg/observability/metrics"
	"github.com/synaptica-ai/noshow/pkg/prediction"
	"github.com/synaptica-ai/noshow/pkg/serving"
)

func main() {
	logger.Init()
	cfg := config.Load()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to build prediction service")
	}
	defer app.Close()

	router := mux.NewRouter()
	router.Use(middleware.Logging)
	router.Use(middleware.Recovery)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods("GET")
	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := app.Ready(ctx); err != nil {
			logger.Log.WithError(err).Warn("Readiness check failed")
			http.Error(w, `{"status":"unavailable"}`, http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods("GET")
	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w)
	}).Methods("GET")

	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(middleware.APIKey(cfg.APIKey))
	apiRouter.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	apiRouter.Use(middleware.BodyLimit(cfg.MaxRequestBody))
	prediction.NewHTTPHandler(app.Service).Register(apiRouter)
	if app.PredictionLog != nil {
		serving.NewHandler(app.PredictionLog).Register(apiRouter)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var consumerDone chan struct{}
	if cfg.AppointmentEventTopic != "" {
		consumer := kafka.NewConsumer(cfg, cfg.AppointmentEventTopic, "")
		if cfg.AppointmentDLQTopic != "" {
			dlq := kafka.NewProducer(cfg, cfg.AppointmentDLQTopic)
			defer dlq.Close()
			consumer.WithDeadLetter(dlq)
		}
		consumerDone = make(chan struct{})
		go func() {
			defer close(consumerDone)
			logger.Log.WithField("topic", cfg.AppointmentEventTopic).Info("Consuming appointment events")
			if err := consumer.Consume(ctx, prediction.HandleAppointmentEvent(app.Service)); err != nil && !errors.Is(err, context.Canceled) {
				logger.Log.WithError(err).Error("Appointment event consumer stopped")
			}
			if err := consumer.Close(); err != nil {
				logger.Log.WithError(err).Warn("Failed to close consumer")
			}
		}()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host":    cfg.ServerHost,
			"port":    cfg.ServerPort,
			"records": cfg.RecordBackend,
		}).Info("No-show prediction service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down no-show prediction service...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}
	if consumerDone != nil {
		select {
		case <-consumerDone:
		case <-shutdownCtx.Done():
		}
	}

	logger.Log.Info("No-show prediction service stopped")
}
