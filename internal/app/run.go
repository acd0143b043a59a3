package app

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"brewtracker/internal/config"
	"brewtracker/internal/db"
	"brewtracker/internal/httpapi"
	"brewtracker/internal/migrate"
	"brewtracker/internal/modules/fermentation"
	fermentationviews "brewtracker/internal/modules/fermentation/views"
	"brewtracker/internal/mqtt"
)

// Run starts the HTTP server and MQTT ingest and blocks until ctx is
// cancelled or the server fails.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"defaultSystem", cfg.DefaultSystem,
		"rateLimitRps", cfg.RateLimitRPS,
		"rateLimitBurst", cfg.RateLimitBurst,
		"sqlitePath", cfg.SQLite.Path,
		"sqliteMaxOpenConns", cfg.SQLite.MaxOpenConns,
		"sqliteMaxIdleConns", cfg.SQLite.MaxIdleConns,
		"sqliteConnMaxLifetime", cfg.SQLite.ConnMaxLifetime,
		"mqttEnabled", cfg.MQTTEnabled,
		"mqttBroker", cfg.MQTT.Broker,
		"mqttPort", cfg.MQTT.Port,
		"mqttClientId", cfg.MQTT.ClientID,
	)

	dbConn, err := db.Open(ctx, cfg.SQLite, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	if _, err := migrate.Run(ctx, dbConn, logger); err != nil {
		return err
	}
	logger.Info("database ready")

	if err := fermentationviews.LoadTemplates(); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(dbConn, "brewtracker"),
	)
	metrics := httpapi.NewMetrics(registry)

	mux, subscriber := newMux(cfg, dbConn, registry, logger)

	if subscriber != nil {
		// Short timeout so a missing broker does not block startup.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = subscriber.Connect(connectCtx)
		connectCancel()
		if err != nil {
			logger.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
	} else {
		logger.Info("mqtt disabled")
	}

	srv := httpapi.NewServer(cfg, mux, metrics, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		disconnect(subscriber)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	disconnect(subscriber)

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// newMux builds the server's routes. The subscriber is nil when MQTT is
// disabled; /healthz then reports mqtt "disabled".
func newMux(cfg config.Config, dbConn *sql.DB, registry *prometheus.Registry, logger *slog.Logger) (*http.ServeMux, *mqtt.Subscriber) {
	if !cfg.MQTTEnabled {
		mux := httpapi.NewMux(dbConn, nil, registry)
		fermentation.RegisterFeature(mux, dbConn, nil, cfg.DefaultSystem, logger)
		return mux, nil
	}

	// The handler is set before Connect so the subscription made on
	// CONNACK already delivers to it.
	subscriber := mqtt.NewSubscriber(cfg.MQTT, logger)
	mux := httpapi.NewMux(dbConn, subscriber, registry)
	fermentation.RegisterFeature(mux, dbConn, subscriber, cfg.DefaultSystem, logger)
	return mux, subscriber
}

func disconnect(subscriber *mqtt.Subscriber) {
	if subscriber != nil {
		subscriber.Disconnect()
	}
}
