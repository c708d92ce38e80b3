package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/cal-flagging-metrics/internal/config"
	"github.com/couchcryptid/cal-flagging-metrics/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes observation verdicts to a Kafka topic.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured verdict topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Emit publishes one message per observation in the summary, in a single
// WriteMessages call.
func (w *Writer) Emit(ctx context.Context, sum domain.PopulationSummary) error {
	if len(sum.Verdicts) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(sum.Verdicts))
	for i := range sum.Verdicts {
		msg, err := serializeToMessage(sum.Verdicts[i], sum.GeneratedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish verdicts: %w", err)
	}
	w.logger.Info("verdicts published", "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a verdict keyed by observation ID.
func serializeToMessage(v domain.Verdict, generatedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize verdict %s: %w", v.Metrics.ObservationID, err)
	}
	return kafkago.Message{
		Key:   []byte(v.Metrics.ObservationID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "calibrator", Value: []byte(v.Metrics.Calibrator)},
			{Key: "generated_at", Value: []byte(generatedAt.Format(time.RFC3339))},
		},
	}, nil
}
