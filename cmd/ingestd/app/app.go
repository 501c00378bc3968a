package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/skywatch/skywatch/internal/danger"
	"github.com/skywatch/skywatch/internal/ingest"
	"github.com/skywatch/skywatch/internal/mqtt"
	"github.com/skywatch/skywatch/internal/storage"
)

const statsInterval = time.Minute

// Run wires the store, classifier and transport together and blocks until
// the context is cancelled or the broker connection cannot be established.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	store := storage.NewSqliteStore(config.Storage.DBPath)
	defer store.Close()

	classifier := danger.NewClassifier(
		danger.HeightRule{MaxHeightM: config.Limits.MaxHeightM},
		danger.SpeedRule{MaxSpeedMs: config.Limits.MaxSpeedMs},
	)

	pipeline := ingest.New(store, classifier, logger)

	subscriber := mqtt.NewSubscriber(mqtt.Config{
		Host:            config.MQTT.Host,
		Port:            config.MQTT.Port,
		Topic:           config.MQTT.Topic,
		ClientID:        config.MQTT.ClientID,
		QoS:             byte(config.MQTT.QoS),
		ConnectAttempts: config.MQTT.ConnectAttempts,
		ConnectBackoff:  config.MQTT.ConnectBackoff(),
	}, pipeline.Handle, logger)

	go reportStats(ctx, pipeline, logger)

	logger.Info("starting ingestion",
		slog.String("broker", subscriber.BrokerURL()),
		slog.String("topic", config.MQTT.Topic),
		slog.String("db", config.Storage.DBPath))

	return subscriber.Run(ctx)
}

func reportStats(ctx context.Context, pipeline *ingest.Pipeline, logger *slog.Logger) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Info("ingestion stats",
				slog.String("processed", humanize.Comma(pipeline.Processed())),
				slog.String("dropped", humanize.Comma(pipeline.Dropped())))
		}
	}
}
