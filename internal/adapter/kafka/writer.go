package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-history-service/internal/config"
	"github.com/couchcryptid/weather-history-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes fetched months to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured history topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish writes one month as a single message keyed by area and month, so
// repeated fetches of the same month land on the same partition.
func (w *Writer) Publish(ctx context.Context, month domain.MonthHistory) error {
	msg, err := serializeToMessage(month)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Key, err)
	}
	w.logger.Debug("month published", "key", string(msg.Key), "records", len(month.Records))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// MessageKey is "<areaId>_<year>_<month>".
func MessageKey(month domain.MonthHistory) string {
	return month.AreaID + "_" + month.Year + "_" + month.Month
}

// serializeToMessage marshals a MonthHistory into a Kafka message.
func serializeToMessage(month domain.MonthHistory) (kafkago.Message, error) {
	data, err := json.Marshal(month)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize month history: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(MessageKey(month)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "area_id", Value: []byte(month.AreaID)},
			{Key: "fetched_at", Value: []byte(month.FetchedAt.Format(time.RFC3339))},
		},
	}, nil
}
